// Package dot converts MatrixMarket graphs into Graphviz scripts for
// visualization with neato.
package dot

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/mtx"
)

const header = "strict graph {\n" +
	"  overlap = false;\n" +
	"  splines = true;\n" +
	"  node[shape=record, height=.1, fontsize=8];\n"

// WriteGraph renders the matrix as a strict undirected graph. Both
// orientations of every edge are written; "strict" collapses the
// duplicates at render time.
func WriteGraph(w io.Writer, m *mtx.Matrix) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(header); err != nil {
		return fmt.Errorf("failed to write dot header: %w", err)
	}
	for u, neighbors := range m.AdjacencyList() {
		for _, v := range neighbors {
			fmt.Fprintf(bw, "    %d -- %d [color=\"blue\"]\n", u+1, v+1)
		}
	}
	if _, err := bw.WriteString("  }\n"); err != nil {
		return fmt.Errorf("failed to write dot footer: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write dot script: %w", err)
	}
	return nil
}

// ConvertFile reads the graph at inputFile and writes its dot script to
// outputFile. The parsed matrix is returned so callers can report sizes.
func ConvertFile(inputFile, outputFile string) (*mtx.Matrix, error) {
	m, err := mtx.ReadFile(inputFile)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create dot file %s: %w", outputFile, err)
	}
	defer f.Close()

	if err := WriteGraph(f, m); err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close dot file %s: %w", outputFile, err)
	}
	return m, nil
}
