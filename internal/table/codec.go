// Package table converts between CSV bytes and rows of text cells.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// OutputFileName is the attachment name used for translated downloads.
	OutputFileName = "translated_output.csv"
	// ContentType is the MIME type of serialized tables.
	ContentType = "text/csv"
)

var ErrInvalidUTF8 = errors.New("input is not valid UTF-8")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is an ordered sequence of rows; rows may differ in length.
type Table [][]string

// Rows returns the number of rows.
func (t Table) Rows() int { return len(t) }

// Cells returns the total number of cells across all rows.
func (t Table) Cells() int {
	total := 0
	for _, row := range t {
		total += len(row)
	}
	return total
}

// Width returns the length of the widest row.
func (t Table) Width() int {
	width := 0
	for _, row := range t {
		width = max(width, len(row))
	}
	return width
}

// Parse decodes UTF-8 CSV bytes into a Table. A leading byte-order mark is
// ignored and quoted fields may contain the delimiter or newlines.
func Parse(raw []byte) (Table, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return nil, ErrInvalidUTF8
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1

	t := Table{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		t = append(t, rec)
	}
	return t, nil
}

// Serialize renders t as CSV with a leading index column and a header row of
// column indexes, encoded as UTF-8 with a byte-order mark.
func Serialize(t Table) ([]byte, error) {
	var plain bytes.Buffer
	w := csv.NewWriter(&plain)

	width := t.Width()
	header := make([]string, 0, width+1)
	header = append(header, "")
	for i := 0; i < width; i++ {
		header = append(header, strconv.Itoa(i))
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for i, row := range t {
		rec := make([]string, 0, len(row)+1)
		rec = append(rec, strconv.Itoa(i))
		rec = append(rec, row...)
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	out, _, err := transform.Bytes(unicode.UTF8BOM.NewEncoder(), plain.Bytes())
	if err != nil {
		return nil, fmt.Errorf("encode utf-8 with bom: %w", err)
	}
	return out, nil
}

// StripIndex removes the header row and index column added by Serialize.
func StripIndex(t Table) Table {
	if len(t) == 0 {
		return Table{}
	}
	out := make(Table, 0, len(t)-1)
	for _, row := range t[1:] {
		if len(row) == 0 {
			out = append(out, []string{})
			continue
		}
		cells := make([]string, len(row)-1)
		copy(cells, row[1:])
		out = append(out, cells)
	}
	return out
}
