// Package encoding implements the cluster encoding text format used to
// exchange partitioned graphs between pipeline stages.
//
// The format is line oriented:
//
//	// any comment
//	// nr partitions: 4
//	(0.1):(0.2)
//	(0.2):(1.3)
//
// Comment lines start with "//". One distinguished comment, the partition
// count marker, declares how many partitions the file describes. Edge lines
// name two endpoints as (partition.index) pairs; partition ids are 0-based,
// node indexes 1-based.
package encoding

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/models"
)

const (
	// CommentPrefix starts every non-edge line.
	CommentPrefix = "//"

	// PartitionCountMarker is the exact prefix of the line declaring the
	// partition count. The trailing space is part of the marker.
	PartitionCountMarker = "// nr partitions: "
)

// Kind identifies what a successful Scan produced.
type Kind int

const (
	LineEdge Kind = iota
	LinePartitionCount
)

// ParseEdge parses a single edge line. Parentheses are decorative and are
// stripped wherever they appear; the line must then split into exactly two
// endpoints on ":" and each endpoint into exactly two integer fields on ".".
// Returns false for anything that violates the data model (wrong field
// counts, non-integer fields, negative partition, index < 1).
func ParseEdge(line string) (models.Edge, bool) {
	cleaned := strings.ReplaceAll(line, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")

	endpoints := strings.Split(cleaned, ":")
	if len(endpoints) != 2 {
		return models.Edge{}, false
	}

	x, ok := parseNode(endpoints[0])
	if !ok {
		return models.Edge{}, false
	}
	y, ok := parseNode(endpoints[1])
	if !ok {
		return models.Edge{}, false
	}

	edge := models.Edge{X: x, Y: y}
	if edge.Validate() != nil {
		return models.Edge{}, false
	}
	return edge, true
}

func parseNode(s string) (models.Node, bool) {
	fields := strings.Split(strings.TrimSpace(s), ".")
	if len(fields) != 2 {
		return models.Node{}, false
	}
	partition, err := strconv.Atoi(fields[0])
	if err != nil {
		return models.Node{}, false
	}
	index, err := strconv.Atoi(fields[1])
	if err != nil {
		return models.Node{}, false
	}
	return models.Node{Partition: partition, Index: index}, true
}

// Reader streams the meaningful lines of a cluster encoding. Comments and
// blank lines are consumed silently; malformed lines are skipped and counted.
//
//	r := encoding.NewReader(file)
//	for r.Scan() {
//		switch r.Kind() {
//		case encoding.LinePartitionCount:
//			... r.PartitionCount() ...
//		case encoding.LineEdge:
//			... r.Edge() ...
//		}
//	}
//	if err := r.Err(); err != nil { ... }
type Reader struct {
	scanner *bufio.Scanner
	kind    Kind
	edge    models.Edge
	count   int
	skipped int
}

// NewReader wraps r in a cluster encoding reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Scan advances to the next edge or partition count line. It returns false
// at end of input or on a read error; check Err afterwards.
func (r *Reader) Scan() bool {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, PartitionCountMarker) {
			payload := strings.TrimSpace(strings.TrimPrefix(line, PartitionCountMarker))
			n, err := strconv.Atoi(payload)
			if err != nil || n < 1 {
				r.skipped++
				continue
			}
			r.kind = LinePartitionCount
			r.count = n
			return true
		}
		if strings.HasPrefix(line, CommentPrefix) {
			continue
		}
		edge, ok := ParseEdge(line)
		if !ok {
			r.skipped++
			continue
		}
		r.kind = LineEdge
		r.edge = edge
		return true
	}
	return false
}

// Kind reports what the last successful Scan produced.
func (r *Reader) Kind() Kind { return r.kind }

// Edge returns the edge from the last Scan. Valid only when Kind is LineEdge.
func (r *Reader) Edge() models.Edge { return r.edge }

// PartitionCount returns the declared count from the last Scan. Valid only
// when Kind is LinePartitionCount.
func (r *Reader) PartitionCount() int { return r.count }

// Skipped reports how many malformed lines were dropped so far.
func (r *Reader) Skipped() int { return r.skipped }

// Err returns the first error encountered while reading the input.
func (r *Reader) Err() error {
	if err := r.scanner.Err(); err != nil {
		return fmt.Errorf("failed to read cluster encoding: %w", err)
	}
	return nil
}

// Writer emits cluster encoding lines through a buffered writer. Output
// written through it round-trips through Reader.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w in a cluster encoding writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteComment writes a single comment line.
func (w *Writer) WriteComment(text string) error {
	if _, err := fmt.Fprintf(w.w, "%s %s\n", CommentPrefix, text); err != nil {
		return fmt.Errorf("failed to write comment: %w", err)
	}
	return nil
}

// WritePartitionCount writes the partition count marker line.
func (w *Writer) WritePartitionCount(n int) error {
	if _, err := fmt.Fprintf(w.w, "%s%d\n", PartitionCountMarker, n); err != nil {
		return fmt.Errorf("failed to write partition count: %w", err)
	}
	return nil
}

// WriteEdge writes one edge line in canonical form.
func (w *Writer) WriteEdge(e models.Edge) error {
	if _, err := fmt.Fprintf(w.w, "%s\n", e.String()); err != nil {
		return fmt.Errorf("failed to write edge: %w", err)
	}
	return nil
}

// Flush pushes buffered output to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush cluster encoding: %w", err)
	}
	return nil
}
