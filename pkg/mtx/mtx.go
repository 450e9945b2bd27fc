// Package mtx reads and writes MatrixMarket coordinate files, the exchange
// format for raw graphs, meta-graphs and traversal graphs.
package mtx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Banner words accepted by this package. Only coordinate matrices are
// supported; the field is "pattern" for bare edges and "integer" for
// weighted ones.
const (
	BannerPrefix = "%%MatrixMarket"
	FieldPattern = "pattern"
	FieldInteger = "integer"
)

// Entry is one coordinate line. Row and Col are 1-based as in the file;
// Weight is meaningful only for integer matrices.
type Entry struct {
	Row    int
	Col    int
	Weight int
}

// Matrix is a parsed coordinate file. Declared is the entry count from the
// size line; it may disagree with len(Entries) in damaged files, which Read
// deliberately tolerates so callers can report the mismatch themselves.
type Matrix struct {
	Rows      int
	Cols      int
	Declared  int
	Field     string
	Symmetric bool
	Entries   []Entry
}

// Banner renders the banner line for the matrix.
func (m *Matrix) Banner() string {
	symmetry := "general"
	if m.Symmetric {
		symmetry = "symmetric"
	}
	return fmt.Sprintf("%s matrix coordinate %s %s", BannerPrefix, m.Field, symmetry)
}

// NumNodes returns the node count when the matrix is read as a graph.
func (m *Matrix) NumNodes() int {
	if m.Cols > m.Rows {
		return m.Cols
	}
	return m.Rows
}

// AdjacencyList expands the stored entries into 0-based neighbor lists with
// both directions present. Self loops contribute a single entry.
func (m *Matrix) AdjacencyList() [][]int {
	adj := make([][]int, m.NumNodes())
	for _, e := range m.Entries {
		u, v := e.Row-1, e.Col-1
		if u == v {
			adj[u] = append(adj[u], v)
			continue
		}
		adj[u] = append(adj[u], v)
		adj[v] = append(adj[v], u)
	}
	return adj
}

// Read parses a coordinate file from r.
func Read(r io.Reader) (*Matrix, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read banner: %w", err)
		}
		return nil, fmt.Errorf("failed to read banner: empty input")
	}
	m, err := parseBanner(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return nil, err
	}

	sized := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		fields := strings.Fields(line)

		if !sized {
			if len(fields) != 3 {
				return nil, fmt.Errorf("invalid size line %q", line)
			}
			m.Rows, err = strconv.Atoi(fields[0])
			if err == nil {
				m.Cols, err = strconv.Atoi(fields[1])
			}
			if err == nil {
				m.Declared, err = strconv.Atoi(fields[2])
			}
			if err != nil {
				return nil, fmt.Errorf("invalid size line %q: %w", line, err)
			}
			sized = true
			continue
		}

		entry, err := parseEntry(fields, m.Field)
		if err != nil {
			return nil, err
		}
		if entry.Row < 1 || entry.Row > m.Rows || entry.Col < 1 || entry.Col > m.Cols {
			return nil, fmt.Errorf("entry %d %d out of bounds for %dx%d matrix", entry.Row, entry.Col, m.Rows, m.Cols)
		}
		m.Entries = append(m.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read matrix body: %w", err)
	}
	if !sized {
		return nil, fmt.Errorf("missing size line")
	}
	return m, nil
}

// ReadFile parses the coordinate file at path.
func ReadFile(path string) (*Matrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open matrix file: %w", err)
	}
	defer file.Close()

	m, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

func parseBanner(line string) (*Matrix, error) {
	if !strings.HasPrefix(line, BannerPrefix) {
		return nil, fmt.Errorf("not a MatrixMarket file: %q", line)
	}
	words := strings.Fields(line)
	if len(words) != 5 {
		return nil, fmt.Errorf("invalid banner %q", line)
	}
	if words[1] != "matrix" || words[2] != "coordinate" {
		return nil, fmt.Errorf("unsupported format %q", line)
	}
	field := words[3]
	if field != FieldPattern && field != FieldInteger {
		return nil, fmt.Errorf("unsupported field %q", field)
	}
	switch words[4] {
	case "symmetric", "general":
	default:
		return nil, fmt.Errorf("unsupported symmetry %q", words[4])
	}
	return &Matrix{Field: field, Symmetric: words[4] == "symmetric"}, nil
}

func parseEntry(fields []string, matrixField string) (Entry, error) {
	wantCols := 2
	if matrixField == FieldInteger {
		wantCols = 3
	}
	if len(fields) != wantCols {
		return Entry{}, fmt.Errorf("invalid entry line %q", strings.Join(fields, " "))
	}

	var e Entry
	var err error
	e.Row, err = strconv.Atoi(fields[0])
	if err == nil {
		e.Col, err = strconv.Atoi(fields[1])
	}
	if err == nil && wantCols == 3 {
		e.Weight, err = strconv.Atoi(fields[2])
	}
	if err != nil {
		return Entry{}, fmt.Errorf("invalid entry line %q: %w", strings.Join(fields, " "), err)
	}
	return e, nil
}

// WriteFile writes m as a coordinate file with the size line up front.
func WriteFile(path string, m *Matrix) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create matrix file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "%s\n", m.Banner())
	fmt.Fprintf(w, "%d %d %d\n", m.Rows, m.Cols, len(m.Entries))
	for _, e := range m.Entries {
		if m.Field == FieldInteger {
			fmt.Fprintf(w, "%d %d %d\n", e.Row, e.Col, e.Weight)
		} else {
			fmt.Fprintf(w, "%d %d\n", e.Row, e.Col)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
