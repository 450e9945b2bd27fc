package mtx

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// placeholderWidth is the width of the dash line reserved for the size line.
// The rewritten size line plus the "% " that comments out the leftover dashes
// must fit inside it so the placeholder's newline survives.
const placeholderWidth = 79

// CountDeferredFile writes a coordinate file whose entry count is unknown
// until the end. The banner goes out immediately, followed by a fixed-width
// placeholder line; body lines stream through a buffered writer; Finalize
// seeks back and rewrites the placeholder into the real size line, turning
// the leftover dashes into a comment.
type CountDeferredFile struct {
	file   *os.File
	w      *bufio.Writer
	banner string
}

// CreateCountDeferred opens path and writes the banner and the placeholder.
func CreateCountDeferred(path, banner string) (*CountDeferredFile, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	header := banner + "\n" + strings.Repeat("-", placeholderWidth) + "\n"
	if _, err := file.WriteString(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write header of %s: %w", path, err)
	}
	return &CountDeferredFile{file: file, w: bufio.NewWriter(file), banner: banner}, nil
}

// WriteComment streams a "%"-prefixed comment line. Write errors are sticky
// in the buffered writer and surface at Finalize.
func (cd *CountDeferredFile) WriteComment(text string) {
	fmt.Fprintf(cd.w, "%% %s\n", text)
}

// WritePair streams one bare coordinate line.
func (cd *CountDeferredFile) WritePair(row, col int) {
	fmt.Fprintf(cd.w, "%d %d\n", row, col)
}

// Finalize flushes the body, rewrites the placeholder with the real size
// line and closes the file. nodes and edges are the counts for the size
// line; a square matrix is assumed.
func (cd *CountDeferredFile) Finalize(nodes, edges int) error {
	if err := cd.w.Flush(); err != nil {
		cd.file.Close()
		return fmt.Errorf("failed to write body of %s: %w", cd.file.Name(), err)
	}

	sizeLine := fmt.Sprintf("%d %d %d\n%% ", nodes, nodes, edges)
	if len(sizeLine) > placeholderWidth {
		cd.file.Close()
		return fmt.Errorf("size line %q exceeds the %d byte placeholder", sizeLine, placeholderWidth)
	}
	if _, err := cd.file.Seek(0, 0); err != nil {
		cd.file.Close()
		return fmt.Errorf("failed to seek in %s: %w", cd.file.Name(), err)
	}
	if _, err := cd.file.WriteString(cd.banner + "\n" + sizeLine); err != nil {
		cd.file.Close()
		return fmt.Errorf("failed to rewrite header of %s: %w", cd.file.Name(), err)
	}
	if err := cd.file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", cd.file.Name(), err)
	}
	return nil
}

// Abort closes the file without rewriting the header, leaving the
// placeholder in place. The artifact stays recognizably unfinished.
func (cd *CountDeferredFile) Abort() error {
	cd.w.Flush()
	return cd.file.Close()
}
