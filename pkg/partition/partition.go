// Package partition assigns every node of a raw graph to a partition,
// producing the labels the fragmentation stage consumes. Two methods are
// available: spectral embedding with k-means, and greedy modularity
// (Louvain) clustering.
package partition

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/mtx"
)

// Method selects the partitioning algorithm.
type Method string

const (
	MethodSpectral Method = "spectral"
	MethodLouvain  Method = "louvain"
)

// ===== CONFIGURATION =====

// Config controls one partitioning run.
type Config struct {
	InputFile     string `json:"input_file"`     // MatrixMarket graph, 1-based node indexes
	Partitions    int    `json:"partitions"`     // requested partition count (spectral only)
	Method        Method `json:"method"`         // spectral or louvain
	RandomSeed    int64  `json:"random_seed"`    // for reproducibility
	MaxIterations int    `json:"max_iterations"` // iteration cap per refinement loop
	Verbose       bool   `json:"verbose"`
}

// DefaultConfig returns a spectral config with a fixed seed.
func DefaultConfig(inputFile string, partitions int) Config {
	return Config{
		InputFile:     inputFile,
		Partitions:    partitions,
		Method:        MethodSpectral,
		RandomSeed:    42,
		MaxIterations: 100,
	}
}

// ===== RESULTS =====

// Result describes a completed partitioning run. Labels are 0-based
// partition ids indexed by 0-based node position. Louvain chooses its own
// partition count, so NumPartitions reports the effective value.
type Result struct {
	Success        bool          `json:"success"`
	Error          string        `json:"error,omitempty"`
	Method         Method        `json:"method"`
	Labels         []int         `json:"labels"`
	NumPartitions  int           `json:"num_partitions"`
	PartitionSizes []int         `json:"partition_sizes"`
	SizeMean       float64       `json:"size_mean"`
	SizeStdDev     float64       `json:"size_std_dev"`
	Nodes          int           `json:"nodes"`
	Edges          int           `json:"edges"`
	Modularity     float64       `json:"modularity"`
	Runtime        time.Duration `json:"runtime"`
}

// ===== FACADE =====

// Run loads the input graph and produces a partition assignment.
func Run(config Config) (*Result, error) {
	start := time.Now()

	if config.Verbose {
		fmt.Printf("Loading graph %s...\n", config.InputFile)
	}
	m, err := mtx.ReadFile(config.InputFile)
	if err != nil {
		return errorResult(config, err), err
	}
	adj := m.AdjacencyList()

	labels, err := Assign(adj, config)
	if err != nil {
		return errorResult(config, err), err
	}

	result := Summarize(config, adj, labels)
	result.Edges = len(m.Entries)
	result.Runtime = time.Since(start)

	if config.Verbose {
		fmt.Printf("Partitioned %d nodes into %d partitions (modularity %.4f)\n",
			result.Nodes, result.NumPartitions, result.Modularity)
	}
	return result, nil
}

// Assign partitions an already-loaded adjacency. Exposed separately so
// callers holding a parsed graph skip the file pass.
func Assign(adj [][]int, config Config) ([]int, error) {
	if len(adj) == 0 {
		return nil, fmt.Errorf("empty graph")
	}

	switch config.Method {
	case MethodSpectral, "":
		return spectralLabels(adj, config.Partitions, config.RandomSeed, config.MaxIterations)
	case MethodLouvain:
		return louvainLabels(adj, config.MaxIterations), nil
	default:
		return nil, fmt.Errorf("unknown partition method %q", config.Method)
	}
}

func errorResult(config Config, err error) *Result {
	return &Result{Method: config.Method, Error: err.Error()}
}

// Summarize builds a successful Result for an existing labeling of adj.
// Callers that already hold the parsed graph use it to get the same
// statistics Run reports. Edges and Runtime are left for the caller.
func Summarize(config Config, adj [][]int, labels []int) *Result {
	numPartitions := 0
	for _, l := range labels {
		if l+1 > numPartitions {
			numPartitions = l + 1
		}
	}

	sizes := make([]int, numPartitions)
	for _, l := range labels {
		sizes[l]++
	}
	sizesF := make([]float64, numPartitions)
	for i, s := range sizes {
		sizesF[i] = float64(s)
	}

	result := &Result{
		Success:        true,
		Method:         config.Method,
		Labels:         labels,
		NumPartitions:  numPartitions,
		PartitionSizes: sizes,
		Nodes:          len(labels),
		Modularity:     computeModularity(adj, labels),
	}
	if numPartitions > 0 {
		result.SizeMean = stat.Mean(sizesF, nil)
	}
	// Sample standard deviation is undefined for a single partition; leave
	// it zero instead of propagating NaN into serialized results.
	if numPartitions > 1 {
		result.SizeStdDev = stat.StdDev(sizesF, nil)
	}
	return result
}

// computeModularity evaluates the standard modularity of a labeling over
// the unweighted adjacency.
func computeModularity(adj [][]int, labels []int) float64 {
	var m2 float64 // twice the edge count
	for _, neighbors := range adj {
		m2 += float64(len(neighbors))
	}
	if m2 == 0 {
		return 0
	}

	numPartitions := 0
	for _, l := range labels {
		if l+1 > numPartitions {
			numPartitions = l + 1
		}
	}
	in := make([]float64, numPartitions)
	tot := make([]float64, numPartitions)

	for u, neighbors := range adj {
		tot[labels[u]] += float64(len(neighbors))
		for _, v := range neighbors {
			if labels[u] == labels[v] {
				in[labels[u]]++
			}
		}
	}

	var q float64
	for c := 0; c < numPartitions; c++ {
		q += in[c]/m2 - (tot[c]/m2)*(tot[c]/m2)
	}
	return q
}
