// Package csvio reads and writes the header-mapped CSV files exchanged
// through the blob store.
package csvio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Reader parses a CSV file with a header row, mapping each data row's fields
// to its header names.
type Reader struct {
	headers    []string
	headerMap  map[string]int
	currentRow int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// NewReader creates a Reader and consumes the header row. A UTF-8 BOM is
// stripped when present; non-UTF-8 content is rejected.
func NewReader(r io.Reader) (*Reader, error) {
	rd := &Reader{
		headerMap: make(map[string]int),
		bufReader: bufio.NewReader(r),
	}

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	head, err := rd.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = rd.bufReader.Discard(3)
	}

	if err := validateUTF8(rd.bufReader); err != nil {
		return nil, err
	}

	rd.reader = csv.NewReader(rd.bufReader)
	rd.reader.LazyQuotes = true
	rd.reader.TrimLeadingSpace = true
	rd.reader.FieldsPerRecord = -1 // Allow variable number of fields

	if err := rd.parseHeader(); err != nil {
		return nil, err
	}
	return rd, nil
}

// NewReaderFromBytes creates a Reader from an in-memory file.
func NewReaderFromBytes(data []byte) (*Reader, error) {
	return NewReader(bytes.NewReader(data))
}

// validateUTF8 checks that the content is valid UTF-8
func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	if len(content) == checkSize {
		// A rune may be split at the peek boundary; drop trailing bytes until
		// the remainder validates.
		for i := 0; i < utf8.UTFMax; i++ {
			if utf8.Valid(content[:len(content)-i]) {
				return nil
			}
		}
		return ErrInvalidEncoding
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

func (r *Reader) parseHeader() error {
	record, err := r.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	r.headers = make([]string, len(record))
	for i, h := range record {
		header := strings.TrimSpace(h)
		r.headers[i] = header
		r.headerMap[header] = i
	}
	if len(r.headers) == 0 {
		return ErrMissingHeader
	}

	r.currentRow = 1 // Header is row 1
	return nil
}

// Headers returns the parsed header names.
func (r *Reader) Headers() []string {
	return r.headers
}

// HasHeader checks if a header exists.
func (r *Reader) HasHeader(name string) bool {
	_, ok := r.headerMap[name]
	return ok
}

// Row is a parsed CSV row with its data and line number.
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name.
func (row *Row) Get(header string) string {
	return row.Data[header]
}

// IsEmpty returns true if the row has no non-empty values.
func (row *Row) IsEmpty() bool {
	for _, v := range row.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next data row.
func (r *Reader) ReadRow() (*Row, error) {
	record, err := r.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	r.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", r.currentRow, err)
	}

	row := &Row{
		LineNumber: r.currentRow,
		Data:       make(map[string]string, len(r.headers)),
	}
	for i, header := range r.headers {
		if i < len(record) {
			row.Data[header] = strings.TrimSpace(record[i])
		} else {
			row.Data[header] = ""
		}
	}
	return row, nil
}

// ReadAllRows reads all remaining data rows, skipping completely empty ones.
func (r *Reader) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := r.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
