package schedule

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomSkippingReader drops a UTF-8 byte order mark at the start of the stream.
// Spreadsheet exports from Windows commonly start with one, and it would
// otherwise end up in the first header name.
type bomSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{r: bufio.NewReader(r)}
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		prefix, err := b.r.Peek(len(utf8BOM))
		if err == nil && bytes.Equal(prefix, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// Reader streams the data rows of one CSV schedule file. It is single-pass:
// rows already yielded are not produced again.
type Reader struct {
	file   io.ReadCloser
	csv    *csv.Reader
	header []string
	err    error
	done   bool
}

// Open opens the schedule at path. The header is read on the first call to
// Rows. The caller must Close the reader.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schedule: %w", err)
	}
	return NewReader(f), nil
}

// NewReader reads a schedule from rc, which is closed by Close. Stray quotes
// inside unquoted fields are kept as literal characters.
func NewReader(rc io.ReadCloser) *Reader {
	cr := csv.NewReader(newBOMSkippingReader(rc))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &Reader{file: rc, csv: cr}
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Header returns the column names, or nil before the first row was read.
func (r *Reader) Header() []string {
	return r.header
}

// Rows yields each data row keyed by header name. Iteration stops after the
// first error, which is yielded with a nil row.
func (r *Reader) Rows() iter.Seq2[RawRow, error] {
	return func(yield func(RawRow, error) bool) {
		if r.done {
			if r.err != nil {
				yield(nil, r.err)
			}
			return
		}
		if r.header == nil {
			header, err := r.csv.Read()
			if err != nil {
				r.finish(err)
				if r.err != nil {
					yield(nil, r.err)
				}
				return
			}
			r.header = header
		}
		for {
			record, err := r.csv.Read()
			if err != nil {
				r.finish(err)
				if r.err != nil {
					yield(nil, r.err)
				}
				return
			}
			if !yield(r.toRow(record), nil) {
				return
			}
		}
	}
}

func (r *Reader) finish(err error) {
	r.done = true
	if errors.Is(err, io.EOF) {
		return
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		r.err = &ParseError{Line: pe.StartLine, Err: err}
		return
	}
	r.err = fmt.Errorf("failed to read schedule: %w", err)
}

func (r *Reader) toRow(record []string) RawRow {
	row := make(RawRow, len(r.header))
	for i, name := range r.header {
		if i >= len(record) {
			break
		}
		row[name] = record[i]
	}
	return row
}
