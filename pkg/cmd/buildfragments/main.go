package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/encoding"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/fragmentation"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatalf("Usage: %s <cluster file> <output base name>", os.Args[0])
	}

	clusterFile := os.Args[1]
	baseName := os.Args[2]

	config := fragmentation.DefaultConfig(baseName)
	config.Verbose = true

	driver, err := fragmentation.NewDriver(config)
	if err != nil {
		log.Fatalf("Failed to set up fragmentation: %v", err)
	}

	input, err := os.Open(clusterFile)
	if err != nil {
		log.Fatalf("Failed to open cluster file: %v", err)
	}
	defer input.Close()

	result, err := driver.Run(encoding.NewReader(input))
	if err != nil {
		log.Fatalf("Fragmentation failed: %v", err)
	}

	for _, stats := range result.Partitions {
		fmt.Printf("partition %d: %d nodes, %d border, %d edges (boundary ratio %.2f)\n",
			stats.ID, stats.Nodes, stats.BorderNodes, stats.Edges, stats.BoundaryRatio)
	}
	fmt.Printf("meta-graph: %d nodes, %d entries -> %s\n",
		result.MetaNodes, result.MetaEntries, result.MetaFile)
	if result.SkippedLines > 0 {
		fmt.Printf("skipped %d malformed lines\n", result.SkippedLines)
	}
}
