package record

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/vortexlabs/docsink/pkg/json"
)

// JSONLinesIterator reads newline-delimited JSON objects as document
// records. Blank lines are skipped; a malformed line fails the iteration.
type JSONLinesIterator struct {
	scanner *bufio.Scanner
	current *Record
	line    int
	err     error
}

// NewJSONLinesIterator returns an iterator over r
func NewJSONLinesIterator(r io.Reader) *JSONLinesIterator {
	scanner := bufio.NewScanner(r)
	// Allow documents considerably larger than the scanner default.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &JSONLinesIterator{scanner: scanner}
}

// Next advances to the next non-blank line
func (it *JSONLinesIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for it.scanner.Scan() {
		it.line++
		text := strings.TrimSpace(it.scanner.Text())
		if text == "" {
			continue
		}
		var doc Document
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			it.err = fmt.Errorf("line %d: %w", it.line, err)
			return false
		}
		it.current = NewDocument(doc)
		return true
	}
	it.err = it.scanner.Err()
	return false
}

// Record returns the current record
func (it *JSONLinesIterator) Record() *Record {
	return it.current
}

// Err returns the first error encountered while reading
func (it *JSONLinesIterator) Err() error {
	return it.err
}
