// Package codec converts ledger records to and from their external
// representations: the CSV export, the JSON import and an XLSX workbook.
package codec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"bilancio/internal/core"
)

// Header lists the export columns in order.
var Header = []string{"id", "type", "title", "amount", "category", "method", "date", "note"}

// ExportFilename is the attachment name of a month export.
func ExportFilename(month, ext string) string {
	return fmt.Sprintf("expenses-%s.%s", month, ext)
}

// EncodeCSV renders records as the export format. The header row is plain,
// every string cell is a JSON string literal and amount is a JSON number, so
// commas and quotes inside values never break a row. Rows are joined with
// "\n" without a trailing newline.
func EncodeCSV(records []core.Record) []byte {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(Header, ","))
	for _, r := range records {
		buf.WriteByte('\n')
		cells := []string{
			jsonString(r.ID),
			jsonString(string(r.Kind)),
			jsonString(r.Title),
			r.Amount.String(),
			jsonString(r.Category),
			jsonString(r.Method),
			jsonString(r.Date),
			jsonString(r.Note),
		}
		buf.WriteString(strings.Join(cells, ","))
	}
	return buf.Bytes()
}

// WriteCSV writes EncodeCSV(records) to w.
func WriteCSV(w io.Writer, records []core.Record) error {
	if _, err := w.Write(EncodeCSV(records)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// MaxCSVLine bounds one row of a CSV being decoded.
const MaxCSVLine = 4 << 20

// DecodeCSV reads the export format back. Each data row is parsed as the
// body of a JSON array and the resulting fields go through Normalize.
func DecodeCSV(r io.Reader, gen core.Generator) ([]core.Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxCSVLine)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, scanError(err, 1)
		}
		return nil, fmt.Errorf("%w: empty csv", ErrMalformedImport)
	}
	if got := strings.TrimSpace(sc.Text()); got != strings.Join(Header, ",") {
		return nil, fmt.Errorf("%w: unexpected csv header %q", ErrMalformedImport, got)
	}

	records := []core.Record{}
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		var cells []any
		if err := unmarshalNumbers([]byte("["+text+"]"), &cells); err != nil {
			return nil, fmt.Errorf("%w: csv line %d: %v", ErrMalformedImport, line, err)
		}
		if len(cells) != len(Header) {
			return nil, fmt.Errorf("%w: csv line %d has %d cells, want %d", ErrMalformedImport, line, len(cells), len(Header))
		}
		raw := make(map[string]any, len(Header))
		for i, h := range Header {
			raw[h] = cells[i]
		}
		records = append(records, Normalize(raw, gen))
	}
	if err := sc.Err(); err != nil {
		return nil, scanError(err, line+1)
	}
	return records, nil
}

func scanError(err error, line int) error {
	if errors.Is(err, bufio.ErrTooLong) {
		return fmt.Errorf("%w: csv line %d longer than %d bytes", ErrMalformedImport, line, MaxCSVLine)
	}
	return fmt.Errorf("read csv: %w", err)
}

func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}
