package fragmentation

import (
	"fmt"
	"log/slog"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/models"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/mtx"
)

// MetaBanner is the header line of meta-graph files.
const MetaBanner = "%%MatrixMarket matrix coordinate pattern symmetric"

// Interconnect builds the inter-partition meta-graph. Every retained
// cross-partition edge becomes a fresh virtual proxy node v and two entries,
// partition to v and v to partition, in 1-based partition numbering. Entries
// stream to disk as they are recorded; the size line is rewritten in place
// at Finalize once the totals are known.
type Interconnect struct {
	out *mtx.CountDeferredFile
	log *slog.Logger

	counter  int // next virtual node id to allocate
	seeded   bool
	retained int
	entries  int
	unseeded int
}

// NewInterconnect creates the meta-graph file at path. The header and the
// size-line placeholder are written immediately.
func NewInterconnect(path string, logger *slog.Logger) (*Interconnect, error) {
	if logger == nil {
		logger = slog.Default()
	}
	out, err := mtx.CreateCountDeferred(path, MetaBanner)
	if err != nil {
		return nil, fmt.Errorf("failed to create meta-graph: %w", err)
	}
	return &Interconnect{out: out, log: logger}, nil
}

// SeedPartitionCount positions the virtual-node counter at n+1 so virtual
// ids never collide with the 1-based partition ids. Seeding after ids were
// already handed out would break their monotonicity, so a late declaration
// is ignored with a warning.
func (ic *Interconnect) SeedPartitionCount(n int) {
	if ic.retained > 0 {
		ic.log.Warn("partition count declared after virtual nodes were allocated, ignoring",
			"count", n, "allocated", ic.retained)
		return
	}
	ic.counter = n + 1
	ic.seeded = true
}

// Record offers one edge to the meta-graph. Only cross-partition edges in
// the orientation with the smaller 1-based partition id first are retained;
// the reverse occurrence of the same logical edge is ignored, so each
// undirected cross edge contributes exactly once. Reports whether the edge
// was retained.
func (ic *Interconnect) Record(e models.Edge) bool {
	px, py := e.X.Partition+1, e.Y.Partition+1
	if px >= py {
		return false
	}

	if !ic.seeded {
		if ic.unseeded == 0 {
			ic.log.Warn("cross-partition edge recorded before any partition count declaration, virtual node ids start at an arbitrary value",
				"edge", e.String())
		}
		ic.unseeded++
	}

	vid := ic.counter
	ic.counter++
	ic.retained++
	ic.entries += 2

	ic.out.WriteComment(e.String())
	ic.out.WritePair(px, vid)
	ic.out.WritePair(vid, py)
	return true
}

// Retained returns how many cross edges were kept so far.
func (ic *Interconnect) Retained() int { return ic.retained }

// UnseededRecords returns how many edges were retained before a partition
// count declaration arrived.
func (ic *Interconnect) UnseededRecords() int { return ic.unseeded }

// NodeCount returns the running node total: the last allocated virtual id,
// which equals partition count plus retained cross edges once seeded.
func (ic *Interconnect) NodeCount() int {
	if ic.counter > 0 {
		return ic.counter - 1
	}
	return 0
}

// EdgeCount returns the running entry total, two per retained edge.
func (ic *Interconnect) EdgeCount() int { return ic.entries }

// Finalize flushes the body and rewrites the deferred size line with the
// final totals. With zero retained edges the size line still comes out
// complete as "N N 0".
func (ic *Interconnect) Finalize() error {
	if err := ic.out.Finalize(ic.NodeCount(), ic.entries); err != nil {
		return fmt.Errorf("failed to finalize meta-graph: %w", err)
	}
	return nil
}

// Abort closes the meta-graph file without writing the size line.
func (ic *Interconnect) Abort() error {
	return ic.out.Abort()
}
