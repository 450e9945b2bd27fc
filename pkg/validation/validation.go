// Package validation checks the artifacts a fragmentation run leaves on
// disk: partition subgraph files, the meta-graph and the traversal
// graphs. It catches truncated writes and numbering mistakes before a
// downstream consumer trips over them.
package validation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/encoding"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/fragmentation"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/models"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/mtx"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/traversal"
)

// ClusterSummary reports what a valid cluster encoding file contained.
type ClusterSummary struct {
	PartitionCount int `json:"partition_count"`
	Edges          int `json:"edges"`
}

// LoadAndValidateClusterFile parses a cluster encoding file and checks that
// it declares a partition count and carries at least one edge. The declared
// count is not cross-checked against the partition ids on edge lines.
func LoadAndValidateClusterFile(path string) (*ClusterSummary, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("cluster file does not exist: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cluster file: %w", err)
	}
	defer f.Close()

	var errors models.ValidationErrors
	summary := &ClusterSummary{}

	r := encoding.NewReader(f)
	for r.Scan() {
		switch r.Kind() {
		case encoding.LinePartitionCount:
			summary.PartitionCount = r.PartitionCount()
		case encoding.LineEdge:
			summary.Edges++
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	if summary.PartitionCount == 0 {
		errors = append(errors, models.ValidationError{
			Field:   "partitions",
			Message: "no partition count marker",
		})
	}
	if r.Skipped() > 0 {
		errors = append(errors, models.ValidationError{
			Field:   "lines",
			Message: fmt.Sprintf("%d malformed lines", r.Skipped()),
		})
	}
	if summary.Edges == 0 {
		errors = append(errors, models.ValidationError{
			Field:   "edges",
			Message: "cluster file contains no edges",
		})
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return summary, nil
}

// PartitionSummary reports what a valid partition file contained.
type PartitionSummary struct {
	Partition int `json:"partition"`
	Edges     int `json:"edges"`
}

// LoadAndValidatePartitionFile parses one partition subgraph file and checks
// that every edge touches the owning partition.
func LoadAndValidatePartitionFile(path string, partition int) (*PartitionSummary, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("partition file does not exist: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open partition file: %w", err)
	}
	defer f.Close()

	var errors models.ValidationErrors
	summary := &PartitionSummary{Partition: partition}

	r := encoding.NewReader(f)
	for r.Scan() {
		if r.Kind() != encoding.LineEdge {
			continue
		}
		edge := r.Edge()
		summary.Edges++
		if edge.X.Partition != partition && edge.Y.Partition != partition {
			errors = append(errors, models.ValidationError{
				Field:   "edge",
				Message: fmt.Sprintf("no endpoint in partition %d", partition),
				Value:   edge.String(),
			})
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	if r.Skipped() > 0 {
		errors = append(errors, models.ValidationError{
			Field:   "lines",
			Message: fmt.Sprintf("%d malformed lines", r.Skipped()),
		})
	}
	if summary.Edges == 0 {
		errors = append(errors, models.ValidationError{
			Field:   "edges",
			Message: "partition file contains no edges",
		})
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return summary, nil
}

// MetaSummary reports what a valid meta-graph contained.
type MetaSummary struct {
	Nodes      int `json:"nodes"`
	Entries    int `json:"entries"`
	CrossEdges int `json:"cross_edges"`
}

// LoadAndValidateMetaFile parses the meta-graph and checks its structure:
// entries come in pairs through a shared virtual node, every entry links one
// partition to one virtual node, and the declared node count adds up to
// partitions plus cross edges.
func LoadAndValidateMetaFile(path string, partitionCount int) (*MetaSummary, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("meta-graph file does not exist: %s", path)
	}

	m, err := mtx.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var errors models.ValidationErrors

	if m.Field != mtx.FieldPattern {
		errors = append(errors, models.ValidationError{
			Field:   "banner",
			Message: "meta-graph must be a pattern matrix",
			Value:   m.Field,
		})
	}
	if !m.Symmetric {
		errors = append(errors, models.ValidationError{
			Field:   "banner",
			Message: "meta-graph must be symmetric",
		})
	}
	if m.Rows != m.Cols {
		errors = append(errors, models.ValidationError{
			Field:   "size",
			Message: "node counts disagree",
			Value:   fmt.Sprintf("%d %d", m.Rows, m.Cols),
		})
	}
	if m.Declared != len(m.Entries) {
		errors = append(errors, models.ValidationError{
			Field:   "entries",
			Message: fmt.Sprintf("size line declares %d entries, body has %d", m.Declared, len(m.Entries)),
		})
	}
	if len(m.Entries)%2 != 0 {
		errors = append(errors, models.ValidationError{
			Field:   "entries",
			Message: "entry count must be even, two per cross edge",
			Value:   fmt.Sprintf("%d", len(m.Entries)),
		})
	}

	cross := len(m.Entries) / 2
	if len(m.Entries)%2 == 0 && m.Rows != partitionCount+cross {
		errors = append(errors, models.ValidationError{
			Field:   "nodes",
			Message: fmt.Sprintf("expected %d nodes for %d partitions and %d cross edges", partitionCount+cross, partitionCount, cross),
			Value:   fmt.Sprintf("%d", m.Rows),
		})
	}

	for i, e := range m.Entries {
		realRow := e.Row <= partitionCount
		realCol := e.Col <= partitionCount
		if realRow == realCol {
			errors = append(errors, models.ValidationError{
				Field:   fmt.Sprintf("entry[%d]", i),
				Message: "must link one partition and one virtual node",
				Value:   fmt.Sprintf("%d %d", e.Row, e.Col),
			})
		}
	}
	if len(m.Entries)%2 == 0 {
		for i := 0; i+1 < len(m.Entries); i += 2 {
			if m.Entries[i].Col != m.Entries[i+1].Row {
				errors = append(errors, models.ValidationError{
					Field:   fmt.Sprintf("entry[%d]", i+1),
					Message: "virtual node differs from the preceding entry",
					Value:   fmt.Sprintf("%d %d", m.Entries[i].Col, m.Entries[i+1].Row),
				})
			}
		}
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return &MetaSummary{Nodes: m.Rows, Entries: len(m.Entries), CrossEdges: cross}, nil
}

// TraversalSummary reports what a valid traversal graph contained.
type TraversalSummary struct {
	Partition int `json:"partition"`
	Nodes     int `json:"nodes"`
	Pairs     int `json:"pairs"`
	MaxHops   int `json:"max_hops"`
}

// LoadAndValidateTraversalFile parses one traversal graph and checks that
// every pair lists the smaller border node first with a positive hop count.
func LoadAndValidateTraversalFile(path string, partition int) (*TraversalSummary, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("traversal file does not exist: %s", path)
	}

	m, err := mtx.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var errors models.ValidationErrors

	if m.Field != mtx.FieldInteger {
		errors = append(errors, models.ValidationError{
			Field:   "banner",
			Message: "traversal graph must be an integer matrix",
			Value:   m.Field,
		})
	}
	if !m.Symmetric {
		errors = append(errors, models.ValidationError{
			Field:   "banner",
			Message: "traversal graph must be symmetric",
		})
	}
	if m.Rows != m.Cols {
		errors = append(errors, models.ValidationError{
			Field:   "size",
			Message: "node counts disagree",
			Value:   fmt.Sprintf("%d %d", m.Rows, m.Cols),
		})
	}
	if m.Declared != len(m.Entries) {
		errors = append(errors, models.ValidationError{
			Field:   "entries",
			Message: fmt.Sprintf("size line declares %d entries, body has %d", m.Declared, len(m.Entries)),
		})
	}

	summary := &TraversalSummary{Partition: partition, Nodes: m.Rows, Pairs: len(m.Entries)}
	for i, e := range m.Entries {
		if e.Row >= e.Col {
			errors = append(errors, models.ValidationError{
				Field:   fmt.Sprintf("entry[%d]", i),
				Message: "pair must list the smaller border node first",
				Value:   fmt.Sprintf("%d %d", e.Row, e.Col),
			})
		}
		if e.Weight < 1 {
			errors = append(errors, models.ValidationError{
				Field:   fmt.Sprintf("entry[%d]", i),
				Message: "hop distance must be positive",
				Value:   fmt.Sprintf("%d", e.Weight),
			})
		}
		if e.Weight > summary.MaxHops {
			summary.MaxHops = e.Weight
		}
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return summary, nil
}

// Report aggregates one full artifact check.
type Report struct {
	PartitionFiles int `json:"partition_files"`
	TraversalFiles int `json:"traversal_files"`
	PartitionEdges int `json:"partition_edges"`
	CrossEdges     int `json:"cross_edges"`
	TraversalPairs int `json:"traversal_pairs"`
}

// ValidateArtifacts checks every artifact of a run: one subgraph and one
// traversal graph per partition id, plus the meta-graph. Base is the path
// prefix the artifacts were written under. The report counts what was
// checked even when errors come back alongside it.
func ValidateArtifacts(base string, partitionIDs []int, partitionCount int) (*Report, error) {
	var errors models.ValidationErrors
	report := &Report{}

	collect := func(field string, err error) {
		if ve, ok := err.(models.ValidationErrors); ok {
			errors = append(errors, ve...)
			return
		}
		errors = append(errors, models.ValidationError{Field: field, Message: err.Error()})
	}

	for _, id := range partitionIDs {
		summary, err := LoadAndValidatePartitionFile(fragmentation.PartitionFilePath(base, id), id)
		if err != nil {
			collect(fmt.Sprintf("partition[%d]", id), err)
		} else {
			report.PartitionFiles++
			report.PartitionEdges += summary.Edges
		}

		tsummary, err := LoadAndValidateTraversalFile(traversal.TraversalFilePath(base, id), id)
		if err != nil {
			collect(fmt.Sprintf("traversal[%d]", id), err)
		} else {
			report.TraversalFiles++
			report.TraversalPairs += tsummary.Pairs
		}
	}

	msummary, err := LoadAndValidateMetaFile(fragmentation.MetaFilePath(base), partitionCount)
	if err != nil {
		collect("meta", err)
	} else {
		report.CrossEdges = msummary.CrossEdges
	}

	if len(errors) > 0 {
		return report, errors
	}
	return report, nil
}

// ValidateOutputDirectory checks that the directory exists, creating it if
// needed, and that it is writable.
func ValidateOutputDirectory(outputDir string) error {
	info, err := os.Stat(outputDir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path exists but is not a directory: %s", outputDir)
	}

	testFile := filepath.Join(outputDir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("output directory is not writable: %w", err)
	}
	os.Remove(testFile)

	return nil
}
