// Package pipeline chains the full fragmentation flow: load or generate a
// graph, partition it, write the cluster encoding, fragment it into
// per-partition subgraphs plus the meta-graph, summarize boundary
// distances, and check the artifacts left on disk.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/encoding"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/fragmentation"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/gen"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/metrics"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/mtx"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/partition"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/traversal"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/validation"
)

// ===== CONFIGURATION =====

// GenerateConfig describes a random input graph to build when no input
// file is given.
type GenerateConfig struct {
	Nodes   int   `yaml:"nodes" json:"nodes"`
	Density int   `yaml:"density" json:"density"`
	Seed    int64 `yaml:"seed" json:"seed"`
}

// Config controls one pipeline run.
type Config struct {
	InputGraph string          `yaml:"input_graph" json:"input_graph"` // MatrixMarket input; empty means generate
	Generate   *GenerateConfig `yaml:"generate" json:"generate,omitempty"`

	OutputDir string `yaml:"output_dir" json:"output_dir"`
	BaseName  string `yaml:"base_name" json:"base_name"` // artifact prefix inside OutputDir

	Partitions    int    `yaml:"partitions" json:"partitions"`
	Method        string `yaml:"method" json:"method"` // spectral or louvain
	RandomSeed    int64  `yaml:"random_seed" json:"random_seed"`
	MaxIterations int    `yaml:"max_iterations" json:"max_iterations"`

	Workers        int `yaml:"workers" json:"workers"`                 // traversal workers, 0 = NumCPU
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"` // traversal batch timeout, 0 = none

	Validate    bool   `yaml:"validate" json:"validate"`
	MetricsFile string `yaml:"metrics_file" json:"metrics_file"` // Prometheus textfile export, empty = off
	Verbose     bool   `yaml:"verbose" json:"verbose"`

	Logger *slog.Logger `yaml:"-" json:"-"`
}

// DefaultConfig returns a working configuration for a four partition
// spectral run.
func DefaultConfig() Config {
	return Config{
		OutputDir:     "pipeline_output",
		BaseName:      "graph",
		Partitions:    4,
		Method:        string(partition.MethodSpectral),
		RandomSeed:    42,
		MaxIterations: 100,
		Validate:      true,
	}
}

// LoadConfig reads the YAML configuration file using strict parsing.
// Unknown keys are rejected so typos surface instead of silently falling
// back to defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open pipeline config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("YAML syntax error in pipeline config: %w", err)
	}

	return cfg, nil
}

// ===== RESULTS =====

// Result collects the outputs of every stage. Stage results stay attached
// even when a later stage fails, so callers can see how far the run got.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	RunID   string `json:"run_id"`

	InputGraph  string `json:"input_graph"`
	ClusterFile string `json:"cluster_file"`
	Nodes       int    `json:"nodes"`
	Edges       int    `json:"edges"`

	Partitioning  *partition.Result      `json:"partitioning,omitempty"`
	Fragmentation *fragmentation.Result  `json:"fragmentation,omitempty"`
	Traversal     *traversal.BatchResult `json:"traversal,omitempty"`
	Validation    *validation.Report     `json:"validation,omitempty"`

	Runtime time.Duration `json:"runtime"`
}

// ===== PIPELINE =====

// Run executes the full pipeline. The context bounds the traversal batch;
// the earlier stages are single file passes and run to completion.
func Run(ctx context.Context, config Config) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", runID)

	result := &Result{RunID: runID}
	fail := func(err error) (*Result, error) {
		result.Error = err.Error()
		result.Runtime = time.Since(start)
		logger.Error("pipeline failed", "err", err)
		return result, err
	}

	if config.Verbose {
		fmt.Printf("=== Starting Fragmentation Pipeline %s ===\n", runID)
	}

	// Step 1: Prepare the output directory
	if err := validation.ValidateOutputDirectory(config.OutputDir); err != nil {
		return fail(fmt.Errorf("failed to prepare output directory: %w", err))
	}

	// Step 2: Load or generate the input graph
	inputGraph := config.InputGraph
	if inputGraph == "" {
		if config.Generate == nil {
			return fail(fmt.Errorf("no input graph configured: set input_graph or a generate block"))
		}
		inputGraph = filepath.Join(config.OutputDir, config.BaseName+".mtx")
		genResult, err := gen.Run(gen.Config{
			Nodes:   config.Generate.Nodes,
			Density: config.Generate.Density,
			Seed:    config.Generate.Seed,
			Verbose: config.Verbose,
		}, inputGraph)
		if err != nil {
			return fail(fmt.Errorf("graph generation failed: %w", err))
		}
		logger.Info("generated input graph",
			"file", inputGraph, "nodes", genResult.Nodes, "edges", genResult.Edges)
	}
	result.InputGraph = inputGraph

	m, err := mtx.ReadFile(inputGraph)
	if err != nil {
		return fail(fmt.Errorf("failed to load input graph: %w", err))
	}
	adj := m.AdjacencyList()
	result.Nodes = m.NumNodes()
	result.Edges = len(m.Entries)

	if config.Verbose {
		fmt.Printf("Step 2: Loaded graph with %s nodes and %s edges\n",
			humanize.Comma(int64(result.Nodes)), humanize.Comma(int64(result.Edges)))
	}

	// Step 3: Partition the graph
	partitionConfig := partition.Config{
		InputFile:     inputGraph,
		Partitions:    config.Partitions,
		Method:        partition.Method(config.Method),
		RandomSeed:    config.RandomSeed,
		MaxIterations: config.MaxIterations,
		Verbose:       config.Verbose,
	}
	labels, err := partition.Assign(adj, partitionConfig)
	if err != nil {
		return fail(fmt.Errorf("partitioning failed: %w", err))
	}
	partResult := partition.Summarize(partitionConfig, adj, labels)
	partResult.Edges = result.Edges
	result.Partitioning = partResult

	logger.Info("partitioned graph",
		"method", partitionConfig.Method,
		"partitions", partResult.NumPartitions,
		"modularity", partResult.Modularity)
	if config.Verbose {
		fmt.Printf("Step 3: Partitioned into %d partitions (modularity %.4f)\n",
			partResult.NumPartitions, partResult.Modularity)
	}

	// Step 4: Write the cluster encoding
	clusterFile := filepath.Join(config.OutputDir, config.BaseName+".cluster")
	if err := partition.WriteClusterFile(clusterFile, inputGraph, labels, adj, partResult.NumPartitions); err != nil {
		return fail(fmt.Errorf("failed to write cluster file: %w", err))
	}
	result.ClusterFile = clusterFile

	// Step 5: Fragment into partition subgraphs and the meta-graph
	base := filepath.Join(config.OutputDir, config.BaseName)
	driverConfig := fragmentation.DefaultConfig(base)
	driverConfig.Verbose = config.Verbose
	driverConfig.Logger = logger
	if config.Verbose {
		driverConfig.ProgressCb = func(edges int, message string) {
			fmt.Printf("  Fragmentation progress: %s\n", message)
		}
	}

	driver, err := fragmentation.NewDriver(driverConfig)
	if err != nil {
		return fail(fmt.Errorf("fragmentation setup failed: %w", err))
	}
	clusterInput, err := os.Open(clusterFile)
	if err != nil {
		return fail(fmt.Errorf("failed to open cluster file: %w", err))
	}
	fragResult, err := driver.Run(encoding.NewReader(clusterInput))
	clusterInput.Close()
	result.Fragmentation = fragResult
	if err != nil {
		return fail(fmt.Errorf("fragmentation failed: %w", err))
	}

	// Step 6: Build the boundary traversal graphs
	ids := make([]int, 0, len(fragResult.Partitions))
	for _, stats := range fragResult.Partitions {
		ids = append(ids, stats.ID)
	}

	batchConfig := traversal.DefaultBatchConfig(base, partResult.NumPartitions)
	batchConfig.PartitionIDs = ids
	batchConfig.TimeoutSeconds = config.TimeoutSeconds
	batchConfig.Verbose = config.Verbose
	batchConfig.Logger = logger
	if config.Workers > 0 {
		batchConfig.Workers = config.Workers
	}
	if config.Verbose {
		batchConfig.ProgressCb = func(completed, total int, message string) {
			fmt.Printf("  Traversal progress: %d/%d - %s\n", completed, total, message)
		}
	}

	batchResult, err := traversal.RunBatch(ctx, batchConfig)
	result.Traversal = batchResult
	if err != nil {
		return fail(fmt.Errorf("traversal summarization failed: %w", err))
	}

	// Step 7: Check the artifacts on disk
	if config.Validate {
		if _, err := validation.LoadAndValidateClusterFile(clusterFile); err != nil {
			return fail(fmt.Errorf("cluster file validation failed: %w", err))
		}
		report, err := validation.ValidateArtifacts(base, ids, partResult.NumPartitions)
		result.Validation = report
		if err != nil {
			return fail(fmt.Errorf("artifact validation failed: %w", err))
		}
		if config.Verbose {
			fmt.Printf("Step 7: Validated %d partition files, %d traversal graphs, %d cross edges\n",
				report.PartitionFiles, report.TraversalFiles, report.CrossEdges)
		}
	}

	// Step 8: Export metrics when configured
	if config.MetricsFile != "" {
		if err := metrics.WriteTextfile(config.MetricsFile); err != nil {
			return fail(fmt.Errorf("metrics export failed: %w", err))
		}
	}

	result.Success = true
	result.Runtime = time.Since(start)

	logger.Info("pipeline complete",
		"nodes", result.Nodes,
		"edges", result.Edges,
		"partitions", partResult.NumPartitions,
		"cross_edges", fragResult.RetainedCrossEdges,
		"runtime", result.Runtime)
	if config.Verbose {
		fmt.Println("=== Pipeline Complete ===")
		fmt.Printf("Total runtime: %v\n", result.Runtime)
		fmt.Printf("Processed %s edges across %d partitions, %s retained cross edges\n",
			humanize.Comma(int64(fragResult.EdgesProcessed)),
			partResult.NumPartitions,
			humanize.Comma(int64(fragResult.RetainedCrossEdges)))
	}

	return result, nil
}
