package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level collectors, registered through promauto so no explicit
// initialization is needed. Batch runs export them with WriteTextfile.

var (
	// Edge lines routed by the fragmentation driver.
	EdgesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graphfrag_edges_processed_total",
			Help: "Total number of edge lines routed by the fragmentation driver",
		},
	)

	// Lines the cluster encoding reader had to skip.
	MalformedLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graphfrag_malformed_lines_total",
			Help: "Total number of malformed cluster encoding lines skipped",
		},
	)

	// Edges whose endpoints live in different partitions.
	CrossEdges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graphfrag_cross_edges_total",
			Help: "Total number of cross-partition edge occurrences seen",
		},
	)

	// Cross edges kept by the orientation tie-break, one per logical edge.
	RetainedCrossEdges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graphfrag_retained_cross_edges_total",
			Help: "Total number of cross-partition edges retained in the meta-graph",
		},
	)

	// Border share per partition after fragmentation.
	BoundaryRatio = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graphfrag_boundary_ratio",
			Help: "Fraction of a partition's nodes sitting on the boundary",
		},
		[]string{"partition"},
	)

	// Time spent building one traversal graph, BFS included.
	TraversalBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphfrag_traversal_build_seconds",
			Help:    "Duration of one partition's traversal graph construction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"partition"},
	)

	// Border pairs with no internal path.
	UnreachablePairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graphfrag_unreachable_border_pairs_total",
			Help: "Total number of border node pairs with no intra-partition path",
		},
	)
)

// WriteTextfile exports every registered metric in the Prometheus text
// format, for batch runs that have no scrape endpoint.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
