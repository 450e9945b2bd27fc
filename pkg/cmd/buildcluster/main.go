package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/mtx"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/partition"
)

func main() {
	if len(os.Args) != 4 && len(os.Args) != 5 {
		log.Fatalf("Usage: %s <mtx file> <number of partitions> <output file> [spectral|louvain]", os.Args[0])
	}

	inputFile := os.Args[1]
	partitions, err := strconv.Atoi(os.Args[2])
	if err != nil {
		log.Fatalf("Invalid partition count %q: %v", os.Args[2], err)
	}
	outputFile := os.Args[3]

	config := partition.DefaultConfig(inputFile, partitions)
	if len(os.Args) == 5 {
		config.Method = partition.Method(os.Args[4])
	}

	fmt.Printf("loading file %s\n", inputFile)
	m, err := mtx.ReadFile(inputFile)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	adj := m.AdjacencyList()

	labels, err := partition.Assign(adj, config)
	if err != nil {
		log.Fatalf("Partitioning failed: %v", err)
	}
	result := partition.Summarize(config, adj, labels)

	if err := partition.WriteClusterFile(outputFile, inputFile, labels, adj, result.NumPartitions); err != nil {
		log.Fatalf("Failed to write cluster file: %v", err)
	}

	fmt.Printf("partitioned %d nodes into %d partitions (modularity %.4f)\n",
		result.Nodes, result.NumPartitions, result.Modularity)
	fmt.Printf("cluster saved into %s\n", outputFile)
}
