package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/traversal"
)

func main() {
	if len(os.Args) != 3 && len(os.Args) != 4 {
		log.Fatalf("Usage: %s <fragments base name> <number of fragments> [workers]", os.Args[0])
	}

	baseName := os.Args[1]
	partitions, err := strconv.Atoi(os.Args[2])
	if err != nil || partitions < 1 {
		log.Fatalf("Invalid fragment count %q", os.Args[2])
	}

	config := traversal.DefaultBatchConfig(baseName, partitions)
	config.Verbose = true
	if len(os.Args) == 4 {
		workers, err := strconv.Atoi(os.Args[3])
		if err != nil || workers < 1 {
			log.Fatalf("Invalid worker count %q", os.Args[3])
		}
		config.Workers = workers
	}

	result, err := traversal.RunBatch(context.Background(), config)
	if err != nil {
		for _, failure := range result.Failed {
			fmt.Printf("partition %d: %s\n", failure.ID, failure.Error)
		}
		log.Fatalf("Traversal batch failed: %v", err)
	}

	for _, pr := range result.Results {
		fmt.Printf("partition %d: %d border nodes, %d pairs, %d unreachable -> %s\n",
			pr.ID, pr.Borders, pr.Pairs, pr.Unreachable, pr.OutputFile)
	}
}
