package fragmentation

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/btree"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/encoding"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/models"
)

// ErrEmptyPartition is returned when a boundary ratio is requested for a
// partition that never received a node.
var ErrEmptyPartition = errors.New("partition has no nodes")

// Accumulator collects one partition's share of the input stream: every node
// index owned by the partition, the subset sitting on the boundary, and the
// incident edges in encounter order. It performs no I/O until Finalize.
type Accumulator struct {
	id   int
	path string

	allNodes    btree.Set[int]
	borderNodes btree.Set[int]
	edges       []models.Edge
}

// NewAccumulator creates the accumulator for partition id writing to path.
func NewAccumulator(id int, path string) *Accumulator {
	return &Accumulator{id: id, path: path}
}

// ID returns the 0-based partition id.
func (a *Accumulator) ID() int { return a.id }

// Path returns the partition file path written by Finalize.
func (a *Accumulator) Path() string { return a.path }

// Record folds one edge into the partition's bookkeeping. Endpoints owned by
// this partition join the node set; when the opposite endpoint lives in a
// different partition they join the border set too. The edge is appended to
// the local edge list once per call. The caller routes only edges with at
// least one endpoint in this partition.
func (a *Accumulator) Record(e models.Edge) {
	if e.X.Partition == a.id {
		a.allNodes.Insert(e.X.Index)
		if e.Y.Partition != a.id {
			a.borderNodes.Insert(e.X.Index)
		}
	}
	if e.Y.Partition == a.id {
		a.allNodes.Insert(e.Y.Index)
		if e.X.Partition != a.id {
			a.borderNodes.Insert(e.Y.Index)
		}
	}
	a.edges = append(a.edges, e)
}

// AllNodes returns the owned node indexes in ascending order.
func (a *Accumulator) AllNodes() []int { return a.allNodes.Keys() }

// BorderNodes returns the boundary node indexes in ascending order.
func (a *Accumulator) BorderNodes() []int { return a.borderNodes.Keys() }

// InnerNodes returns the owned nodes with no cross-partition edge, in
// ascending order. The difference is recomputed on every call so the answer
// tracks records made after a previous call.
func (a *Accumulator) InnerNodes() []int {
	inner := make([]int, 0, a.allNodes.Len())
	a.allNodes.Scan(func(n int) bool {
		if !a.borderNodes.Contains(n) {
			inner = append(inner, n)
		}
		return true
	})
	return inner
}

// EdgeCount returns how many edges were recorded, duplicates included.
func (a *Accumulator) EdgeCount() int { return len(a.edges) }

// BoundaryRatio returns |border| / |all|.
func (a *Accumulator) BoundaryRatio() (float64, error) {
	if a.allNodes.Len() == 0 {
		return 0, fmt.Errorf("partition %d: %w", a.id, ErrEmptyPartition)
	}
	return float64(a.borderNodes.Len()) / float64(a.allNodes.Len()), nil
}

// Finalize writes the recorded edges to the partition file in encounter
// order, in cluster encoding form. The accumulator stays queryable after.
func (a *Accumulator) Finalize() error {
	file, err := os.Create(a.path)
	if err != nil {
		return fmt.Errorf("failed to create partition file %s: %w", a.path, err)
	}

	w := encoding.NewWriter(file)
	for _, e := range a.edges {
		if err := w.WriteEdge(e); err != nil {
			file.Close()
			return fmt.Errorf("failed to write partition file %s: %w", a.path, err)
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write partition file %s: %w", a.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close partition file %s: %w", a.path, err)
	}
	return nil
}
