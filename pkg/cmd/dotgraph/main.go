package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/dot"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatalf("Usage: %s <mtx file> <dot file>", os.Args[0])
	}

	fmt.Printf("loading file %s\n", os.Args[1])
	m, err := dot.ConvertFile(os.Args[1], os.Args[2])
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}

	fmt.Printf("converted %d nodes, %d edges\n", m.NumNodes(), len(m.Entries))
	fmt.Printf("TO PLOT THIS GRAPH: neato -T<format> -o... < %s\n", os.Args[2])
}
