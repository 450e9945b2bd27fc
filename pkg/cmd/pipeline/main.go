package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/pipeline"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("Usage: %s <config file>", os.Args[0])
	}

	config, err := pipeline.LoadConfig(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	result, err := pipeline.Run(context.Background(), config)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	fmt.Printf("run %s finished in %v\n", result.RunID, result.Runtime)
	fmt.Printf("artifacts under %s (base name %s)\n", config.OutputDir, config.BaseName)
}
