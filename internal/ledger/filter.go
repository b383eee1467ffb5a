package ledger

import (
	"strings"

	"bilancio/internal/core"
)

// AllOption is the category and method value that disables that predicate.
const AllOption = "All"

// Predicate reports whether a record belongs to a view.
type Predicate func(core.Record) bool

// Filter holds the user-facing filter fields. Every field is optional and
// kept as typed, so an unparsable amount bound simply does not constrain.
type Filter struct {
	Query     string `json:"q"`
	Category  string `json:"category"`
	Method    string `json:"method"`
	DateFrom  string `json:"from"`
	DateTo    string `json:"to"`
	AmountMin string `json:"min"`
	AmountMax string `json:"max"`
}

// ScopeMonth keeps the records whose date starts with month (YYYY-MM).
func ScopeMonth(records []core.Record, month string) []core.Record {
	return Select(records, func(r core.Record) bool {
		return strings.HasPrefix(r.Date, month)
	})
}

// Select keeps, in order, the records every predicate accepts.
func Select(records []core.Record, preds ...Predicate) []core.Record {
	out := make([]core.Record, 0, len(records))
next:
	for _, r := range records {
		for _, p := range preds {
			if !p(r) {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

// Apply returns the records matching every active field of f.
func (f Filter) Apply(records []core.Record) []core.Record {
	return Select(records, f.Predicates()...)
}

// Predicates returns one predicate per active field. The predicates are
// independent of each other, so their order does not affect the result.
func (f Filter) Predicates() []Predicate {
	var preds []Predicate

	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		preds = append(preds, func(r core.Record) bool {
			return strings.Contains(strings.ToLower(r.Title), q) ||
				strings.Contains(strings.ToLower(r.Note), q)
		})
	}
	if c := f.Category; c != "" && c != AllOption {
		preds = append(preds, func(r core.Record) bool { return r.Category == c })
	}
	if m := f.Method; m != "" && m != AllOption {
		preds = append(preds, func(r core.Record) bool { return r.Method == m })
	}
	if from := f.DateFrom; from != "" {
		preds = append(preds, func(r core.Record) bool { return r.Date >= from })
	}
	if to := f.DateTo; to != "" {
		preds = append(preds, func(r core.Record) bool { return r.Date <= to })
	}
	if min, ok := core.ParseNumber(f.AmountMin); ok {
		preds = append(preds, func(r core.Record) bool { return r.Amount.GreaterThanOrEqual(min) })
	}
	if max, ok := core.ParseNumber(f.AmountMax); ok {
		preds = append(preds, func(r core.Record) bool { return r.Amount.LessThanOrEqual(max) })
	}
	return preds
}

// IsZero reports whether no field is set.
func (f Filter) IsZero() bool {
	return len(f.Predicates()) == 0
}
