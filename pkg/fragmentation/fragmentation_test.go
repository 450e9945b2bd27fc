package fragmentation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/encoding"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/models"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/mtx"
)

func edge(px, x, py, y int) models.Edge {
	return models.Edge{
		X: models.Node{Partition: px, Index: x},
		Y: models.Node{Partition: py, Index: y},
	}
}

// runDriver drives the given cluster encoding text and returns the result
// together with the output base used.
func runDriver(t *testing.T, input string) (*Result, string, error) {
	t.Helper()
	base := filepath.Join(t.TempDir(), "frag")
	driver, err := NewDriver(DefaultConfig(base))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	result, err := driver.Run(encoding.NewReader(strings.NewReader(input)))
	return result, base, err
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	var lines []string
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// TestAccumulatorRecord tests the endpoint membership rule
func TestAccumulatorRecord(t *testing.T) {
	tests := []struct {
		name       string
		edges      []models.Edge
		wantAll    []int
		wantBorder []int
		wantInner  []int
	}{
		{
			name:      "intra partition edge",
			edges:     []models.Edge{edge(0, 1, 0, 2)},
			wantAll:   []int{1, 2},
			wantInner: []int{1, 2},
		},
		{
			name:       "cross edge owned endpoint first",
			edges:      []models.Edge{edge(0, 2, 1, 3)},
			wantAll:    []int{2},
			wantBorder: []int{2},
		},
		{
			name:       "cross edge owned endpoint second",
			edges:      []models.Edge{edge(1, 3, 0, 2)},
			wantAll:    []int{2},
			wantBorder: []int{2},
		},
		{
			name:      "self loop",
			edges:     []models.Edge{edge(0, 4, 0, 4)},
			wantAll:   []int{4},
			wantInner: []int{4},
		},
		{
			name:       "border node keeps inner set shrinking",
			edges:      []models.Edge{edge(0, 1, 0, 2), edge(0, 2, 1, 3)},
			wantAll:    []int{1, 2},
			wantBorder: []int{2},
			wantInner:  []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator(0, "")
			for _, e := range tt.edges {
				acc.Record(e)
			}

			assertIntSlice(t, "all nodes", acc.AllNodes(), tt.wantAll)
			assertIntSlice(t, "border nodes", acc.BorderNodes(), tt.wantBorder)
			assertIntSlice(t, "inner nodes", acc.InnerNodes(), tt.wantInner)
		})
	}
}

func assertIntSlice(t *testing.T, what string, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("Expected %s %v, got %v", what, want, got)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %s %v, got %v", what, want, got)
			return
		}
	}
}

// TestInnerNodesRecomputed tests that the inner set tracks later records
func TestInnerNodesRecomputed(t *testing.T) {
	acc := NewAccumulator(0, "")
	acc.Record(edge(0, 1, 0, 2))

	if inner := acc.InnerNodes(); len(inner) != 2 {
		t.Fatalf("Expected 2 inner nodes, got %v", inner)
	}

	// Node 2 turns out to sit on the boundary after all.
	acc.Record(edge(0, 2, 3, 9))

	inner := acc.InnerNodes()
	if len(inner) != 1 || inner[0] != 1 {
		t.Errorf("Expected inner nodes [1], got %v", inner)
	}
}

// TestBoundaryRatio tests the ratio and its empty partition error
func TestBoundaryRatio(t *testing.T) {
	acc := NewAccumulator(0, "")

	if _, err := acc.BoundaryRatio(); !errors.Is(err, ErrEmptyPartition) {
		t.Errorf("Expected ErrEmptyPartition, got: %v", err)
	}

	acc.Record(edge(0, 1, 0, 2))
	acc.Record(edge(0, 2, 1, 3))

	ratio, err := acc.BoundaryRatio()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if ratio != 0.5 {
		t.Errorf("Expected boundary ratio 0.5, got %f", ratio)
	}
}

// TestDriverCanonicalScenario tests the two partition, one cross edge case
// end to end
func TestDriverCanonicalScenario(t *testing.T) {
	input := strings.Join([]string{
		"// nr partitions: 2",
		"(0.1):(0.2)",
		"(0.2):(1.3)",
		"(1.3):(1.4)",
	}, "\n")

	result, base, err := runDriver(t, input)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got error: %s", result.Error)
	}

	// Partition files hold each partition's incident edges in encounter order.
	p0 := readLines(t, PartitionFilePath(base, 0))
	want0 := []string{"(0.1):(0.2)", "(0.2):(1.3)"}
	if len(p0) != 2 || p0[0] != want0[0] || p0[1] != want0[1] {
		t.Errorf("Expected partition 0 lines %v, got %v", want0, p0)
	}
	p1 := readLines(t, PartitionFilePath(base, 1))
	want1 := []string{"(0.2):(1.3)", "(1.3):(1.4)"}
	if len(p1) != 2 || p1[0] != want1[0] || p1[1] != want1[1] {
		t.Errorf("Expected partition 1 lines %v, got %v", want1, p1)
	}

	// Meta-graph: one virtual node with id 3, two proxy entries.
	meta, err := mtx.ReadFile(MetaFilePath(base))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if meta.Rows != 3 || meta.Cols != 3 || meta.Declared != 2 {
		t.Errorf("Expected meta size 3 3 2, got %d %d %d", meta.Rows, meta.Cols, meta.Declared)
	}
	if len(meta.Entries) != 2 {
		t.Fatalf("Expected 2 meta entries, got %d", len(meta.Entries))
	}
	if meta.Entries[0] != (mtx.Entry{Row: 1, Col: 3}) || meta.Entries[1] != (mtx.Entry{Row: 3, Col: 2}) {
		t.Errorf("Unexpected meta entries: %v", meta.Entries)
	}

	if result.PartitionCount != 2 {
		t.Errorf("Expected partition count 2, got %d", result.PartitionCount)
	}
	if result.CrossEdges != 1 || result.RetainedCrossEdges != 1 {
		t.Errorf("Expected 1 cross and 1 retained edge, got %d and %d",
			result.CrossEdges, result.RetainedCrossEdges)
	}
	if result.MetaNodes != 3 || result.MetaEntries != 2 {
		t.Errorf("Expected meta totals 3 nodes 2 entries, got %d and %d",
			result.MetaNodes, result.MetaEntries)
	}
	if len(result.Partitions) != 2 {
		t.Fatalf("Expected stats for 2 partitions, got %d", len(result.Partitions))
	}
	if result.Partitions[0].BorderNodes != 1 || result.Partitions[1].BorderNodes != 1 {
		t.Errorf("Expected 1 border node per partition, got %d and %d",
			result.Partitions[0].BorderNodes, result.Partitions[1].BorderNodes)
	}
}

// TestDriverOrientationDedup tests that only the smaller partition first
// orientation contributes, so doubled inputs keep one meta entry pair
func TestDriverOrientationDedup(t *testing.T) {
	forward := strings.Join([]string{
		"// nr partitions: 2",
		"(0.2):(1.3)",
		"(1.3):(0.2)",
	}, "\n")
	swapped := strings.Join([]string{
		"// nr partitions: 2",
		"(1.3):(0.2)",
		"(0.2):(1.3)",
	}, "\n")

	resultA, baseA, err := runDriver(t, forward)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	resultB, baseB, err := runDriver(t, swapped)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if resultA.RetainedCrossEdges != 1 || resultB.RetainedCrossEdges != 1 {
		t.Errorf("Expected exactly 1 retained edge each, got %d and %d",
			resultA.RetainedCrossEdges, resultB.RetainedCrossEdges)
	}

	metaA, err := os.ReadFile(MetaFilePath(baseA))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	metaB, err := os.ReadFile(MetaFilePath(baseB))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(metaA) != string(metaB) {
		t.Errorf("Expected identical meta-graphs regardless of edge orientation order")
	}
}

// TestDriverVirtualIDsIncrease tests strict monotonic virtual numbering
func TestDriverVirtualIDsIncrease(t *testing.T) {
	input := strings.Join([]string{
		"// nr partitions: 3",
		"(0.1):(1.5)",
		"(0.2):(2.6)",
		"(1.5):(2.7)",
	}, "\n")

	result, base, err := runDriver(t, input)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.RetainedCrossEdges != 3 {
		t.Fatalf("Expected 3 retained edges, got %d", result.RetainedCrossEdges)
	}

	meta, err := mtx.ReadFile(MetaFilePath(base))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Virtual ids start above the partition count and increase by one per
	// retained edge: 4, 5, 6.
	wantVIDs := []int{4, 5, 6}
	for i, want := range wantVIDs {
		got := meta.Entries[2*i].Col
		if got != want {
			t.Errorf("Retained edge %d: expected virtual id %d, got %d", i, want, got)
		}
		if meta.Entries[2*i+1].Row != want {
			t.Errorf("Retained edge %d: expected second entry from virtual id %d, got %d",
				i, want, meta.Entries[2*i+1].Row)
		}
	}
	if meta.Rows != 6 {
		t.Errorf("Expected final node count 6, got %d", meta.Rows)
	}
}

// TestDriverZeroCrossEdges tests the all intra input size line
func TestDriverZeroCrossEdges(t *testing.T) {
	input := strings.Join([]string{
		"// nr partitions: 2",
		"(0.1):(0.2)",
		"(1.3):(1.4)",
	}, "\n")

	result, base, err := runDriver(t, input)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.RetainedCrossEdges != 0 {
		t.Errorf("Expected 0 retained edges, got %d", result.RetainedCrossEdges)
	}

	meta, err := mtx.ReadFile(MetaFilePath(base))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if meta.Rows != 2 || meta.Cols != 2 || meta.Declared != 0 {
		t.Errorf("Expected meta size 2 2 0, got %d %d %d", meta.Rows, meta.Cols, meta.Declared)
	}
	if len(meta.Entries) != 0 {
		t.Errorf("Expected no meta entries, got %d", len(meta.Entries))
	}
}

// TestDriverUnseededAllocation tests the observable missing declaration gap
func TestDriverUnseededAllocation(t *testing.T) {
	input := "(0.1):(1.2)\n"

	result, base, err := runDriver(t, input)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.UnseededRecords != 1 {
		t.Errorf("Expected 1 unseeded record, got %d", result.UnseededRecords)
	}
	if result.PartitionCount != 0 {
		t.Errorf("Expected no declared partition count, got %d", result.PartitionCount)
	}

	// The numbering starts at the zero counter; the artifact records that
	// observably rather than inventing a seed.
	lines := readLines(t, MetaFilePath(base))
	if lines[3] != "% (0.1):(1.2)" {
		t.Errorf("Expected traceability comment, got %q", lines[3])
	}
	if lines[4] != "1 0" || lines[5] != "0 2" {
		t.Errorf("Expected unseeded proxy entries 1 0 and 0 2, got %q and %q", lines[4], lines[5])
	}
}

// TestDriverSkipsMalformedLines tests recoverable line errors
func TestDriverSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		"// nr partitions: 2",
		"(0.1):(0.2)",
		"garbage",
		"(0.x):(1.3)",
		"(1.3):(1.4)",
	}, "\n")

	result, _, err := runDriver(t, input)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.EdgesProcessed != 2 {
		t.Errorf("Expected 2 processed edges, got %d", result.EdgesProcessed)
	}
	if result.SkippedLines != 2 {
		t.Errorf("Expected 2 skipped lines, got %d", result.SkippedLines)
	}
}

// TestPartitionFileRoundTrip tests that re-reading a partition file
// reproduces the same node sets
func TestPartitionFileRoundTrip(t *testing.T) {
	input := strings.Join([]string{
		"// nr partitions: 2",
		"(0.1):(0.2)",
		"(0.2):(1.3)",
		"(1.3):(1.4)",
	}, "\n")

	_, base, err := runDriver(t, input)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	file, err := os.Open(PartitionFilePath(base, 0))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer file.Close()

	replay := NewAccumulator(0, "")
	r := encoding.NewReader(file)
	for r.Scan() {
		if r.Kind() == encoding.LineEdge {
			replay.Record(r.Edge())
		}
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	assertIntSlice(t, "all nodes", replay.AllNodes(), []int{1, 2})
	assertIntSlice(t, "border nodes", replay.BorderNodes(), []int{2})
}

// TestLateSeedIgnored tests that a declaration after allocations keeps the
// numbering monotonic
func TestLateSeedIgnored(t *testing.T) {
	base := filepath.Join(t.TempDir(), "frag")
	driver, err := NewDriver(DefaultConfig(base))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	driver.Process(edge(0, 1, 1, 2)) // allocates the first virtual id
	driver.SetPartitionCount(5)      // too late, must not rewind the counter
	driver.Process(edge(0, 3, 1, 4))

	meta := driver.meta
	if meta.NodeCount() != 1 {
		t.Errorf("Expected node count 1 after two unseeded allocations, got %d", meta.NodeCount())
	}
	if err := meta.Finalize(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

// TestPartitionFilePath tests the 1-based naming scheme
func TestPartitionFilePath(t *testing.T) {
	if got := PartitionFilePath("out/frag", 0); got != "out/frag_1.txt" {
		t.Errorf("Expected out/frag_1.txt, got %s", got)
	}
	if got := PartitionFilePath("out/frag", 6); got != "out/frag_7.txt" {
		t.Errorf("Expected out/frag_7.txt, got %s", got)
	}
	if got := MetaFilePath("out/frag"); got != "out/frag_meta.mtx" {
		t.Errorf("Expected out/frag_meta.mtx, got %s", got)
	}
}
