package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// ErrMalformedImport means the payload is not an array of record objects.
// Nothing from such a payload is ever applied.
var ErrMalformedImport = errors.New("malformed import")

// MaxImportBytes bounds an import payload.
const MaxImportBytes = 8 << 20

// Defaults applied by Normalize to absent fields.
const (
	DefaultTitle    = "Untitled"
	DefaultCategory = "Other"
	DefaultMethod   = "Cash"
)

// DecodeJSON parses an import payload into normalized records, in payload
// order. The payload must be a JSON array whose elements are objects and
// at most MaxImportBytes long.
func DecodeJSON(r io.Reader, gen core.Generator) ([]core.Record, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	if len(data) > MaxImportBytes {
		return nil, fmt.Errorf("%w: payload larger than %d bytes", ErrMalformedImport, MaxImportBytes)
	}
	var parsed any
	if err := unmarshalNumbers(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedImport, err)
	}
	items, ok := parsed.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: JSON must be an array of records", ErrMalformedImport)
	}

	records := make([]core.Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrMalformedImport, i)
		}
		records = append(records, Normalize(obj, gen))
	}
	return records, nil
}

// Normalize coerces a loosely typed record into a strict one. Absent and
// null fields get their defaults; present values are kept, stringified when
// they are not strings. type is income only when it says so exactly. amount
// never fails: anything that is not a number becomes 0.
func Normalize(raw map[string]any, gen core.Generator) core.Record {
	r := core.Record{
		ID:       textOr(raw, "id", ""),
		Kind:     core.KindExpense,
		Title:    textOr(raw, "title", DefaultTitle),
		Amount:   amountOf(raw["amount"]),
		Category: textOr(raw, "category", DefaultCategory),
		Method:   textOr(raw, "method", DefaultMethod),
		Date:     textOr(raw, "date", ""),
		Note:     textOr(raw, "note", ""),
	}
	if _, ok := present(raw, "id"); !ok {
		r.ID = gen.NewID()
	}
	if _, ok := present(raw, "date"); !ok {
		r.Date = gen.Today()
	}
	if v, ok := raw["type"].(string); ok && v == string(core.KindIncome) {
		r.Kind = core.KindIncome
	}
	return r
}

func present(raw map[string]any, key string) (any, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func textOr(raw map[string]any, key, def string) string {
	v, ok := present(raw, key)
	if !ok {
		return def
	}
	if s, ok := Text(v); ok {
		return s
	}
	return def
}

// Text stringifies a decoded JSON value. ok is false for null.
func Text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

func amountOf(v any) decimal.Decimal {
	d, _ := CoerceAmount(v)
	return d
}

// CoerceAmount converts a decoded JSON value to an amount. Numbers and
// numeric strings convert, blank strings and false are 0, true is 1. ok is
// false, with a zero amount, for anything else, including numbers outside
// core.InRange.
func CoerceAmount(v any) (d decimal.Decimal, ok bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return inRange(d, err == nil)
	case float64:
		return inRange(decimal.NewFromFloat(t), true)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return decimal.Zero, true
		}
		d, err := decimal.NewFromString(s)
		return inRange(d, err == nil)
	case bool:
		if t {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	}
	return decimal.Zero, false
}

func inRange(d decimal.Decimal, parsed bool) (decimal.Decimal, bool) {
	if !parsed || !core.InRange(d) {
		return decimal.Zero, false
	}
	return d, true
}
