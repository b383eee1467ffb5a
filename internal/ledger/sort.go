package ledger

import (
	"slices"
	"strings"

	"bilancio/internal/core"
)

// SortKey names a table ordering.
type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortOldest     SortKey = "oldest"
	SortAmountDesc SortKey = "amount_desc"
	SortAmountAsc  SortKey = "amount_asc"
)

func (k SortKey) IsValid() bool {
	switch k {
	case SortNewest, SortOldest, SortAmountDesc, SortAmountAsc:
		return true
	}
	return false
}

// Sort returns a stably sorted copy. Equal keys keep their input order and
// an unknown key returns the input order unchanged.
func Sort(records []core.Record, key SortKey) []core.Record {
	out := slices.Clone(records)
	if out == nil {
		out = []core.Record{}
	}
	var cmp func(a, b core.Record) int
	switch key {
	case SortNewest:
		cmp = func(a, b core.Record) int { return strings.Compare(b.Date, a.Date) }
	case SortOldest:
		cmp = func(a, b core.Record) int { return strings.Compare(a.Date, b.Date) }
	case SortAmountDesc:
		cmp = func(a, b core.Record) int { return b.Amount.Cmp(a.Amount) }
	case SortAmountAsc:
		cmp = func(a, b core.Record) int { return a.Amount.Cmp(b.Amount) }
	default:
		return out
	}
	slices.SortStableFunc(out, cmp)
	return out
}
