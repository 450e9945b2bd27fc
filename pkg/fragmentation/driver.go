// Package fragmentation decomposes a partitioned graph, streamed once in
// cluster encoding form, into per-partition subgraph files and an
// inter-partition meta-graph with virtual proxy nodes.
package fragmentation

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/encoding"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/metrics"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/models"
)

// PartitionFilePath names partition id's subgraph file: <base>_<k>.txt with
// k 1-based.
func PartitionFilePath(base string, id int) string {
	return fmt.Sprintf("%s_%d.txt", base, id+1)
}

// MetaFilePath names the meta-graph file for an output base.
func MetaFilePath(base string) string {
	return base + "_meta.mtx"
}

// ProgressCallback receives streaming progress during a fragmentation run.
type ProgressCallback func(edgesProcessed int, message string)

// ===== CONFIGURATION =====

// Config controls a fragmentation run.
type Config struct {
	BaseName         string           `json:"base_name"`         // output base; partition k writes <base>_<k>.txt, meta writes <base>_meta.mtx
	Verbose          bool             `json:"verbose"`           // step output on stdout
	ProgressInterval int              `json:"progress_interval"` // edges between progress reports
	Logger           *slog.Logger     `json:"-"`                 // defaults to slog.Default()
	ProgressCb       ProgressCallback `json:"-"`
}

// DefaultConfig returns a config with sensible defaults for an output base.
func DefaultConfig(baseName string) Config {
	return Config{
		BaseName:         baseName,
		ProgressInterval: 100000,
	}
}

// ===== RESULTS =====

// PartitionStats summarizes one partition after fragmentation.
type PartitionStats struct {
	ID            int     `json:"id"`
	Nodes         int     `json:"nodes"`
	BorderNodes   int     `json:"border_nodes"`
	InnerNodes    int     `json:"inner_nodes"`
	Edges         int     `json:"edges"`
	BoundaryRatio float64 `json:"boundary_ratio"`
}

// Result summarizes a completed fragmentation run.
type Result struct {
	Success            bool             `json:"success"`
	Error              string           `json:"error,omitempty"`
	PartitionCount     int              `json:"partition_count"` // declared count, 0 when never declared
	EdgesProcessed     int              `json:"edges_processed"`
	SkippedLines       int              `json:"skipped_lines"`
	CrossEdges         int              `json:"cross_edges"`
	RetainedCrossEdges int              `json:"retained_cross_edges"`
	UnseededRecords    int              `json:"unseeded_records"`
	MetaNodes          int              `json:"meta_nodes"`
	MetaEntries        int              `json:"meta_entries"`
	Partitions         []PartitionStats `json:"partitions"`
	PartitionFiles     []string         `json:"partition_files"`
	FailedArtifacts    []string         `json:"failed_artifacts,omitempty"`
	MetaFile           string           `json:"meta_file"`
	Runtime            time.Duration    `json:"runtime"`
}

// ===== DRIVER =====

// Driver streams one cluster encoding pass into per-partition accumulators
// and the interconnect. Every edge mutates shared accumulator state, so a
// run is single-goroutine and not safe for concurrent use.
type Driver struct {
	config Config
	log    *slog.Logger

	accumulators map[int]*Accumulator
	meta         *Interconnect

	declaredCount  int
	edgesProcessed int
	crossEdges     int
}

// NewDriver creates a driver and the meta-graph artifact. Failing to create
// the meta-graph file fails the whole run before any edge is consumed.
func NewDriver(config Config) (*Driver, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	meta, err := NewInterconnect(MetaFilePath(config.BaseName), logger)
	if err != nil {
		return nil, err
	}
	return &Driver{
		config:       config,
		log:          logger,
		accumulators: make(map[int]*Accumulator),
		meta:         meta,
	}, nil
}

// accumulator returns the partition's accumulator, created on first
// reference. The id space may be sparse, so nothing is pre-allocated.
func (d *Driver) accumulator(id int) *Accumulator {
	acc, ok := d.accumulators[id]
	if !ok {
		acc = NewAccumulator(id, PartitionFilePath(d.config.BaseName, id))
		d.accumulators[id] = acc
	}
	return acc
}

// SetPartitionCount handles the partition count declaration event.
func (d *Driver) SetPartitionCount(n int) {
	d.declaredCount = n
	d.meta.SeedPartitionCount(n)
}

// Process routes one edge: to the x endpoint's partition, to the y
// endpoint's partition when different (cross edges appear in both local
// subgraphs), and to the interconnect when cross-partition.
func (d *Driver) Process(e models.Edge) {
	d.edgesProcessed++
	metrics.EdgesProcessed.Inc()

	d.accumulator(e.X.Partition).Record(e)
	if e.IsCross() {
		d.accumulator(e.Y.Partition).Record(e)
		d.crossEdges++
		metrics.CrossEdges.Inc()
		if d.meta.Record(e) {
			metrics.RetainedCrossEdges.Inc()
		}
	}

	if d.config.ProgressCb != nil && d.config.ProgressInterval > 0 &&
		d.edgesProcessed%d.config.ProgressInterval == 0 {
		d.config.ProgressCb(d.edgesProcessed, fmt.Sprintf("processed %d edges", d.edgesProcessed))
	}
}

// Run consumes the reader to exhaustion, finalizes every artifact and
// reports the run. Artifact failures are collected per artifact; the
// remaining artifacts still finalize, and the aggregate comes back as the
// error alongside a fully populated result.
func (d *Driver) Run(r *encoding.Reader) (*Result, error) {
	start := time.Now()

	if d.config.Verbose {
		fmt.Printf("Fragmenting into %s ...\n", d.config.BaseName)
	}

	for r.Scan() {
		switch r.Kind() {
		case encoding.LinePartitionCount:
			d.SetPartitionCount(r.PartitionCount())
		case encoding.LineEdge:
			d.Process(r.Edge())
		}
	}
	if err := r.Err(); err != nil {
		d.meta.Abort()
		return nil, fmt.Errorf("failed to consume cluster encoding: %w", err)
	}
	metrics.MalformedLines.Add(float64(r.Skipped()))

	result := d.finalize(r.Skipped())
	result.Runtime = time.Since(start)

	if d.config.Verbose {
		fmt.Printf("Fragmentation done: %d partitions, %d edges, %d retained cross edges\n",
			len(result.Partitions), result.EdgesProcessed, result.RetainedCrossEdges)
	}

	if !result.Success {
		return result, fmt.Errorf("failed to finalize %d artifacts: %s", len(result.FailedArtifacts), result.Error)
	}
	return result, nil
}

// finalize flushes every accumulator in ascending partition order, then the
// meta-graph, collecting per-artifact failures.
func (d *Driver) finalize(skipped int) *Result {
	result := &Result{
		PartitionCount:     d.declaredCount,
		EdgesProcessed:     d.edgesProcessed,
		SkippedLines:       skipped,
		CrossEdges:         d.crossEdges,
		RetainedCrossEdges: d.meta.Retained(),
		UnseededRecords:    d.meta.UnseededRecords(),
		MetaNodes:          d.meta.NodeCount(),
		MetaEntries:        d.meta.EdgeCount(),
		MetaFile:           MetaFilePath(d.config.BaseName),
	}

	var failures models.ValidationErrors

	ids := make([]int, 0, len(d.accumulators))
	for id := range d.accumulators {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		acc := d.accumulators[id]

		stats := PartitionStats{
			ID:          id,
			Nodes:       len(acc.AllNodes()),
			BorderNodes: len(acc.BorderNodes()),
			InnerNodes:  len(acc.InnerNodes()),
			Edges:       acc.EdgeCount(),
		}
		if ratio, err := acc.BoundaryRatio(); err == nil {
			stats.BoundaryRatio = ratio
			metrics.BoundaryRatio.WithLabelValues(strconv.Itoa(id)).Set(ratio)
		}
		result.Partitions = append(result.Partitions, stats)

		if err := acc.Finalize(); err != nil {
			d.log.Error("partition artifact failed", "partition", id, "err", err)
			failures = append(failures, models.ValidationError{
				Field:   acc.Path(),
				Message: err.Error(),
			})
			result.FailedArtifacts = append(result.FailedArtifacts, acc.Path())
			continue
		}
		result.PartitionFiles = append(result.PartitionFiles, acc.Path())
	}

	if err := d.meta.Finalize(); err != nil {
		d.log.Error("meta-graph artifact failed", "err", err)
		failures = append(failures, models.ValidationError{
			Field:   result.MetaFile,
			Message: err.Error(),
		})
		result.FailedArtifacts = append(result.FailedArtifacts, result.MetaFile)
	}

	if len(failures) > 0 {
		result.Error = failures.Error()
		return result
	}
	result.Success = true
	return result
}
