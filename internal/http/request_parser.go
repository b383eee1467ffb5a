package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bilancio/internal/codec"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// maxBodyBytes bounds record bodies. Imports are bounded by
// codec.MaxImportBytes.
const maxBodyBytes = 1 << 20

var errInvalidMonth = errors.New("month must be YYYY-MM")

// decodeObject reads a JSON object body. Numbers stay json.Number so amounts
// keep their exact decimal text.
func decodeObject(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("invalid JSON payload: larger than %d bytes", maxBodyBytes)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON payload: extra content")
	}
	if raw == nil {
		return nil, errors.New("invalid JSON payload: expected an object")
	}
	return raw, nil
}

// draftFromMap reads the record form fields. Every value is taken as text;
// amounts may be sent as numbers or strings. The note is kept verbatim.
func draftFromMap(raw map[string]any) core.Draft {
	field := func(key string) string {
		s, _ := codec.Text(raw[key])
		return sanitizeInput(s)
	}
	note, _ := codec.Text(raw["note"])
	return core.Draft{
		ID:       field("id"),
		Kind:     field("type"),
		Title:    field("title"),
		Amount:   field("amount"),
		Category: field("category"),
		Method:   field("method"),
		Date:     field("date"),
		Note:     note,
	}
}

// parseMonth returns the month query parameter, defaulting to the current
// month when absent.
func parseMonth(query url.Values, now time.Time) (string, error) {
	month := strings.TrimSpace(query.Get("month"))
	if month == "" {
		return core.FormatMonth(now), nil
	}
	if !core.IsMonth(month) {
		return "", errInvalidMonth
	}
	return month, nil
}

// parseQuery builds view parameters from the query string. Filter values
// are kept as typed; the engine ignores the ones it cannot use.
func parseQuery(query url.Values, now time.Time) (ledger.Query, error) {
	month, err := parseMonth(query, now)
	if err != nil {
		return ledger.Query{}, err
	}
	get := func(key string) string { return sanitizeInput(query.Get(key)) }
	sort := ledger.SortKey(get("sort"))
	if sort == "" {
		sort = ledger.SortNewest
	}
	return ledger.Query{
		Month: month,
		Filter: ledger.Filter{
			Query:     get("q"),
			Category:  get("category"),
			Method:    get("method"),
			DateFrom:  get("from"),
			DateTo:    get("to"),
			AmountMin: get("min"),
			AmountMax: get("max"),
		},
		Sort: sort,
	}, nil
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
