package traversal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/encoding"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/fragmentation"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/models"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/mtx"
)

func edge(px, x, py, y int) models.Edge {
	return models.Edge{
		X: models.Node{Partition: px, Index: x},
		Y: models.Node{Partition: py, Index: y},
	}
}

// TestDescriptorMembership tests the endpoint membership and adjacency rules
func TestDescriptorMembership(t *testing.T) {
	d := NewDescriptor(0)
	d.AddEdge(edge(0, 2, 0, 3)) // intra
	d.AddEdge(edge(0, 3, 0, 5)) // intra
	d.AddEdge(edge(0, 2, 1, 9)) // cross, 2 becomes border
	d.AddEdge(edge(2, 8, 0, 5)) // cross from the other side, 5 becomes border

	wantAll := []int{2, 3, 5}
	gotAll := d.AllNodes()
	if len(gotAll) != len(wantAll) {
		t.Fatalf("Expected all nodes %v, got %v", wantAll, gotAll)
	}
	for i := range wantAll {
		if gotAll[i] != wantAll[i] {
			t.Fatalf("Expected all nodes %v, got %v", wantAll, gotAll)
		}
	}

	gotBorders := d.BorderNodes()
	if len(gotBorders) != 2 || gotBorders[0] != 2 || gotBorders[1] != 5 {
		t.Errorf("Expected border nodes [2 5], got %v", gotBorders)
	}

	// Cross edges must not contribute adjacency.
	if len(d.adjacency[2]) != 1 || d.adjacency[2][0] != 3 {
		t.Errorf("Expected node 2 adjacent to [3], got %v", d.adjacency[2])
	}
	if len(d.adjacency[9]) != 0 {
		t.Errorf("Expected no adjacency for foreign node 9, got %v", d.adjacency[9])
	}
}

// TestHopDistances tests the breadth-first search
func TestHopDistances(t *testing.T) {
	adjacency := map[int][]int{
		1: {2},
		2: {1, 3},
		3: {2, 5},
		5: {3},
		7: {8},
		8: {7},
	}

	dist := hopDistances(adjacency, 1)

	tests := []struct {
		node      int
		want      int
		reachable bool
	}{
		{node: 1, want: 0, reachable: true},
		{node: 2, want: 1, reachable: true},
		{node: 3, want: 2, reachable: true},
		{node: 5, want: 3, reachable: true},
		{node: 7, reachable: false},
	}
	for _, tt := range tests {
		got, ok := dist[tt.node]
		if ok != tt.reachable {
			t.Errorf("Node %d: expected reachable=%v, got %v", tt.node, tt.reachable, ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("Node %d: expected distance %d, got %d", tt.node, tt.want, got)
		}
	}
}

// TestBuildTraversalGraph tests distances via an inner node and the
// explicit no-path outcome
func TestBuildTraversalGraph(t *testing.T) {
	d := NewDescriptor(0)
	d.AddEdge(edge(0, 2, 0, 3))
	d.AddEdge(edge(0, 3, 0, 5))
	d.AddEdge(edge(0, 2, 1, 9)) // border 2
	d.AddEdge(edge(0, 5, 1, 9)) // border 5
	d.AddEdge(edge(0, 7, 2, 4)) // border 7, isolated inside the partition

	path := filepath.Join(t.TempDir(), "frag_1T.mtx")
	result, err := BuildTraversalGraph(d, path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Borders != 3 {
		t.Errorf("Expected 3 border nodes, got %d", result.Borders)
	}
	if result.Pairs != 1 {
		t.Errorf("Expected 1 reachable pair, got %d", result.Pairs)
	}
	if result.Unreachable != 2 {
		t.Errorf("Expected 2 unreachable pairs, got %d", result.Unreachable)
	}
	if result.MaxNode != 7 {
		t.Errorf("Expected max node 7, got %d", result.MaxNode)
	}

	m, err := mtx.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if m.Rows != 7 || m.Declared != 1 {
		t.Errorf("Expected size line 7 7 1, got %d %d %d", m.Rows, m.Cols, m.Declared)
	}
	// Border 2 reaches border 5 through inner node 3 in two hops.
	if len(m.Entries) != 1 || m.Entries[0] != (mtx.Entry{Row: 2, Col: 5, Weight: 2}) {
		t.Errorf("Expected single entry 2 5 2, got %v", m.Entries)
	}
}

// TestBuildTraversalGraphNoBorders tests the empty border set edge case
func TestBuildTraversalGraphNoBorders(t *testing.T) {
	d := NewDescriptor(0)
	d.AddEdge(edge(0, 1, 0, 2)) // purely internal partition

	path := filepath.Join(t.TempDir(), "frag_1T.mtx")
	result, err := BuildTraversalGraph(d, path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Borders != 0 || result.Pairs != 0 || result.MaxNode != 0 {
		t.Errorf("Expected empty summary, got %+v", result)
	}

	m, err := mtx.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if m.Rows != 0 || m.Declared != 0 {
		t.Errorf("Expected size line 0 0 0, got %d %d %d", m.Rows, m.Cols, m.Declared)
	}
}

// TestBuildTraversalGraphDeterministic tests byte-stable output
func TestBuildTraversalGraphDeterministic(t *testing.T) {
	build := func(dir string) []byte {
		d := NewDescriptor(0)
		d.AddEdge(edge(0, 5, 0, 3))
		d.AddEdge(edge(0, 3, 0, 2))
		d.AddEdge(edge(0, 2, 1, 9))
		d.AddEdge(edge(0, 5, 1, 9))
		d.AddEdge(edge(0, 3, 2, 4))

		path := filepath.Join(dir, "frag_1T.mtx")
		if _, err := BuildTraversalGraph(d, path); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		return raw
	}

	first := build(t.TempDir())
	second := build(t.TempDir())
	if string(first) != string(second) {
		t.Errorf("Expected identical traversal graphs across runs")
	}
	if !strings.HasPrefix(string(first), TraversalBanner+"\n") {
		t.Errorf("Expected traversal banner %q", TraversalBanner)
	}
}

// fragmentInput drives a fragmentation pass to produce partition files for
// batch tests.
func fragmentInput(t *testing.T, input string) string {
	t.Helper()
	base := filepath.Join(t.TempDir(), "frag")
	driver, err := fragmentation.NewDriver(fragmentation.DefaultConfig(base))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := driver.Run(encoding.NewReader(strings.NewReader(input))); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return base
}

// TestRunBatch tests the parallel batch over a fragmentation output
func TestRunBatch(t *testing.T) {
	input := strings.Join([]string{
		"// nr partitions: 3",
		"(0.1):(0.2)",
		"(0.2):(0.3)",
		"(0.1):(1.4)",
		"(0.3):(2.5)",
		"(1.4):(1.6)",
		"(2.5):(2.7)",
	}, "\n")
	base := fragmentInput(t, input)

	config := DefaultBatchConfig(base, 3)
	config.Workers = 2

	batch, err := RunBatch(context.Background(), config)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !batch.Success {
		t.Fatalf("Expected success, got: %s", batch.Error)
	}
	if len(batch.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(batch.Results))
	}

	// Partition 0 has borders 1 and 3 joined through inner node 2.
	p0 := batch.Results[0]
	if p0.ID != 0 || p0.Pairs != 1 {
		t.Errorf("Expected partition 0 with 1 pair, got %+v", p0)
	}

	m, err := mtx.ReadFile(TraversalFilePath(base, 0))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(m.Entries) != 1 || m.Entries[0] != (mtx.Entry{Row: 1, Col: 3, Weight: 2}) {
		t.Errorf("Expected entry 1 3 2, got %v", m.Entries)
	}

	// Single border partitions produce empty summaries but valid files.
	for _, id := range []int{1, 2} {
		if _, err := mtx.ReadFile(TraversalFilePath(base, id)); err != nil {
			t.Errorf("Partition %d: expected readable traversal graph, got: %v", id, err)
		}
	}
}

// TestRunBatchPartialFailure tests that one broken partition does not stop
// the others
func TestRunBatchPartialFailure(t *testing.T) {
	input := strings.Join([]string{
		"// nr partitions: 2",
		"(0.1):(0.2)",
		"(0.2):(1.3)",
		"(1.3):(1.4)",
	}, "\n")
	base := fragmentInput(t, input)

	if err := os.Remove(fragmentation.PartitionFilePath(base, 1)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	batch, err := RunBatch(context.Background(), DefaultBatchConfig(base, 2))
	if err == nil {
		t.Fatalf("Expected batch error, got none")
	}
	if batch.Success {
		t.Errorf("Expected failure to be reported")
	}
	if len(batch.Results) != 1 || batch.Results[0].ID != 0 {
		t.Errorf("Expected partition 0 to succeed, got %+v", batch.Results)
	}
	if len(batch.Failed) != 1 || batch.Failed[0].ID != 1 {
		t.Errorf("Expected partition 1 to fail, got %+v", batch.Failed)
	}
}

// TestLoadDescriptor tests reading a partition file back into a descriptor
func TestLoadDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frag_1.txt")
	content := "(0.1):(0.2)\n(0.2):(1.3)\nnot an edge\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	d, err := LoadDescriptor(path, 0)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if got := d.AllNodes(); len(got) != 2 {
		t.Errorf("Expected 2 nodes, got %v", got)
	}
	if got := d.BorderNodes(); len(got) != 1 || got[0] != 2 {
		t.Errorf("Expected border nodes [2], got %v", got)
	}
	if d.Skipped() != 1 {
		t.Errorf("Expected 1 skipped line, got %d", d.Skipped())
	}

	if _, err := LoadDescriptor(filepath.Join(dir, "missing.txt"), 3); err == nil {
		t.Errorf("Expected error for missing file, got none")
	}
}

// TestTraversalFilePath tests the 1-based T suffix naming
func TestTraversalFilePath(t *testing.T) {
	if got := TraversalFilePath("out/frag", 0); got != "out/frag_1T.mtx" {
		t.Errorf("Expected out/frag_1T.mtx, got %s", got)
	}
	if got := TraversalFilePath("out/frag", 9); got != "out/frag_10T.mtx" {
		t.Errorf("Expected out/frag_10T.mtx, got %s", got)
	}
}
