package traversal

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/fragmentation"
)

// ===== CONFIGURATION =====

// ProgressCallback reports batch progress after each partition completes.
type ProgressCallback func(completed, total int, message string)

// BatchConfig controls a traversal batch over a fragmentation output.
type BatchConfig struct {
	BaseName       string `json:"base_name"`       // fragmentation output base
	Partitions     int    `json:"partitions"`      // build partitions 0..N-1 when PartitionIDs is empty
	Workers        int    `json:"workers"`         // worker goroutines
	TimeoutSeconds int    `json:"timeout_seconds"` // 0 disables the deadline

	// PartitionIDs overrides the dense 0..N-1 walk for sparse id spaces,
	// e.g. taken from a fragmentation result.
	PartitionIDs []int `json:"partition_ids,omitempty"`

	Verbose    bool             `json:"verbose"`
	Logger     *slog.Logger     `json:"-"`
	ProgressCb ProgressCallback `json:"-"`
}

// DefaultBatchConfig returns a batch config with one worker per CPU.
func DefaultBatchConfig(baseName string, partitions int) BatchConfig {
	return BatchConfig{
		BaseName:   baseName,
		Partitions: partitions,
		Workers:    runtime.NumCPU(),
	}
}

// ===== RESULTS =====

// PartitionFailure records one partition whose traversal graph could not be
// built. The rest of the batch is unaffected.
type PartitionFailure struct {
	ID    int    `json:"id"`
	Error string `json:"error"`
}

// BatchResult aggregates a traversal batch.
type BatchResult struct {
	Success          bool               `json:"success"`
	Error            string             `json:"error,omitempty"`
	Results          []PartitionResult  `json:"results"`
	Failed           []PartitionFailure `json:"failed,omitempty"`
	TotalPairs       int                `json:"total_pairs"`
	TotalUnreachable int                `json:"total_unreachable"`
	Runtime          time.Duration      `json:"runtime"`
}

// ===== BATCH RUNNER =====

// RunBatch builds the traversal graph of every requested partition using a
// worker pool. Partitions share nothing, so failures stay local: a partition
// that cannot be loaded or written is reported and the batch carries on.
func RunBatch(ctx context.Context, config BatchConfig) (*BatchResult, error) {
	start := time.Now()
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ids := config.PartitionIDs
	if len(ids) == 0 {
		for id := 0; id < config.Partitions; id++ {
			ids = append(ids, id)
		}
	}
	total := len(ids)

	if config.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(config.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	numWorkers := config.Workers
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if numWorkers > total && total > 0 {
		numWorkers = total
	}

	if config.Verbose {
		fmt.Printf("Building traversal graphs for %d partitions with %d workers...\n", total, numWorkers)
	}

	type outcome struct {
		id     int
		result *PartitionResult
		err    error
	}

	jobs := make(chan int, total)
	outcomes := make(chan outcome, total)
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case id, ok := <-jobs:
					if !ok {
						return
					}
					result, err := buildOne(config.BaseName, id)
					outcomes <- outcome{id: id, result: result, err: err}
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	batch := &BatchResult{}
	completed := 0
	for oc := range outcomes {
		completed++
		if config.ProgressCb != nil {
			config.ProgressCb(completed, total, fmt.Sprintf("partition %d done", oc.id+1))
		}

		if oc.err != nil {
			logger.Warn("traversal graph failed", "partition", oc.id, "err", oc.err)
			batch.Failed = append(batch.Failed, PartitionFailure{ID: oc.id, Error: oc.err.Error()})
			continue
		}
		batch.Results = append(batch.Results, *oc.result)
		batch.TotalPairs += oc.result.Pairs
		batch.TotalUnreachable += oc.result.Unreachable
	}

	sort.Slice(batch.Results, func(i, j int) bool { return batch.Results[i].ID < batch.Results[j].ID })
	sort.Slice(batch.Failed, func(i, j int) bool { return batch.Failed[i].ID < batch.Failed[j].ID })
	batch.Runtime = time.Since(start)

	if err := ctx.Err(); err != nil {
		batch.Error = fmt.Sprintf("batch interrupted after %d of %d partitions: %v", completed, total, err)
		return batch, fmt.Errorf("failed to complete traversal batch: %w", err)
	}
	if len(batch.Failed) > 0 {
		batch.Error = fmt.Sprintf("%d of %d partitions failed", len(batch.Failed), total)
		return batch, fmt.Errorf("failed to build %d of %d traversal graphs", len(batch.Failed), total)
	}

	batch.Success = true
	if config.Verbose {
		fmt.Printf("Traversal graphs done: %d partitions, %d pairs, %d unreachable\n",
			total, batch.TotalPairs, batch.TotalUnreachable)
	}
	return batch, nil
}

// buildOne loads one partition's subgraph file and writes its traversal
// graph. The shared path helpers keep the reader and writer naming aligned.
func buildOne(base string, id int) (*PartitionResult, error) {
	desc, err := LoadDescriptor(fragmentation.PartitionFilePath(base, id), id)
	if err != nil {
		return nil, err
	}
	return BuildTraversalGraph(desc, TraversalFilePath(base, id))
}
