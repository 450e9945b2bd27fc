// Package traversal summarizes each partition's internal topology into a
// weighted graph over its border nodes, annotated with shortest-path hop
// distances.
package traversal

import (
	"fmt"
	"os"

	"github.com/tidwall/btree"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/encoding"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/models"
)

// Descriptor holds one partition's view of a subgraph file: the owned and
// border node sets plus the intra-partition adjacency. Cross-partition edges
// mark their local endpoint as border but contribute no adjacency, so
// distances are measured strictly within the partition.
type Descriptor struct {
	id          int
	allNodes    btree.Set[int]
	borderNodes btree.Set[int]
	adjacency   map[int][]int
	skipped     int
}

// NewDescriptor creates an empty descriptor for partition id (0-based).
func NewDescriptor(id int) *Descriptor {
	return &Descriptor{id: id, adjacency: make(map[int][]int)}
}

// ID returns the 0-based partition id.
func (d *Descriptor) ID() int { return d.id }

// AddEdge folds one subgraph edge into the descriptor, applying the same
// endpoint membership rule as fragmentation.
func (d *Descriptor) AddEdge(e models.Edge) {
	if e.X.Partition == d.id {
		d.allNodes.Insert(e.X.Index)
		if e.Y.Partition != d.id {
			d.borderNodes.Insert(e.X.Index)
		}
	}
	if e.Y.Partition == d.id {
		d.allNodes.Insert(e.Y.Index)
		if e.X.Partition != d.id {
			d.borderNodes.Insert(e.Y.Index)
		}
	}
	if e.X.Partition == d.id && e.Y.Partition == d.id && e.X.Index != e.Y.Index {
		d.adjacency[e.X.Index] = append(d.adjacency[e.X.Index], e.Y.Index)
		d.adjacency[e.Y.Index] = append(d.adjacency[e.Y.Index], e.X.Index)
	}
}

// AllNodes returns the owned node indexes in ascending order.
func (d *Descriptor) AllNodes() []int { return d.allNodes.Keys() }

// BorderNodes returns the border node indexes in ascending order.
func (d *Descriptor) BorderNodes() []int { return d.borderNodes.Keys() }

// Skipped reports malformed lines dropped while loading.
func (d *Descriptor) Skipped() int { return d.skipped }

// LoadDescriptor builds the descriptor for partition id from its subgraph
// file. Malformed lines are skipped, matching the reader everywhere else;
// failing to open or read the file fails this partition only.
func LoadDescriptor(path string, id int) (*Descriptor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open partition file %s: %w", path, err)
	}
	defer file.Close()

	d := NewDescriptor(id)
	r := encoding.NewReader(file)
	for r.Scan() {
		if r.Kind() == encoding.LineEdge {
			d.AddEdge(r.Edge())
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("failed to load partition %d: %w", id, err)
	}
	d.skipped = r.Skipped()
	return d, nil
}
