package main

import (
	"log"
	"os"
	"strconv"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/gen"
)

func main() {
	if len(os.Args) != 4 && len(os.Args) != 5 {
		log.Fatalf("Usage: %s <nr nodes> <edge density> <output file> [seed]", os.Args[0])
	}

	nodes, err := strconv.Atoi(os.Args[1])
	if err != nil {
		log.Fatalf("Invalid node count %q: %v", os.Args[1], err)
	}
	density, err := strconv.Atoi(os.Args[2])
	if err != nil {
		log.Fatalf("Invalid edge density %q: %v", os.Args[2], err)
	}

	config := gen.DefaultConfig(nodes, density)
	config.Verbose = true
	if len(os.Args) == 5 {
		seed, err := strconv.ParseInt(os.Args[4], 10, 64)
		if err != nil {
			log.Fatalf("Invalid seed %q: %v", os.Args[4], err)
		}
		config.Seed = seed
	}

	if _, err := gen.Run(config, os.Args[3]); err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
}
