// Package ledger holds the record collection and the pure pipeline that turns
// it into month views: scoping, filtering, sorting and aggregation.
//
// A Ledger is a value. Every transition returns a new Ledger and leaves the
// receiver untouched, so readers can keep a snapshot while a writer moves on.
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"bilancio/internal/core"
)

var ErrNotFound = errors.New("record not found")

var (
	DefaultCategories = []string{"Food", "Groceries", "Transport", "Rent", "Bills", "Shopping", "Health", "Entertainment", "Other"}
	DefaultMethods    = []string{"Cash", "Card", "Online", "Bank Transfer"}
)

// Ledger is the whole persisted state. Records are ordered most recently
// added first and every id appears once.
type Ledger struct {
	Categories []string      `json:"categories"`
	Methods    []string      `json:"methods"`
	Records    []core.Record `json:"records"`
}

// Default returns an empty ledger with the built-in vocabularies.
func Default() Ledger {
	return New(DefaultCategories, DefaultMethods, nil)
}

// New builds a ledger, dropping blank and repeated vocabulary entries.
func New(categories, methods []string, records []core.Record) Ledger {
	return Ledger{
		Categories: dedupe(categories),
		Methods:    dedupe(methods),
		Records:    slices.Clone(records),
	}
}

// Clone returns a deep copy.
func (l Ledger) Clone() Ledger {
	return Ledger{
		Categories: slices.Clone(l.Categories),
		Methods:    slices.Clone(l.Methods),
		Records:    slices.Clone(l.Records),
	}
}

// Find returns the record with the given id.
func (l Ledger) Find(id string) (core.Record, bool) {
	i := l.index(id)
	if i < 0 {
		return core.Record{}, false
	}
	return l.Records[i], true
}

// Upsert validates d and either creates a new record at the front of the
// ledger (empty id) or replaces the whole record carrying d's id.
// Replacing an unknown id fails with ErrNotFound.
func (l Ledger) Upsert(d core.Draft, gen core.Generator) (Ledger, core.Record, error) {
	id := strings.TrimSpace(d.ID)
	if id == "" {
		r, err := d.Record(gen.NewID(), gen.Today())
		if err != nil {
			return l, core.Record{}, err
		}
		return l.Prepend(r), r, nil
	}

	if l.index(id) < 0 {
		return l, core.Record{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	r, err := d.Record(id, gen.Today())
	if err != nil {
		return l, core.Record{}, err
	}
	next, err := l.Replace(r)
	return next, r, err
}

// Replace swaps in r for the record with the same id, keeping its position.
// r is stored as given, without validation.
func (l Ledger) Replace(r core.Record) (Ledger, error) {
	i := l.index(r.ID)
	if i < 0 {
		return l, fmt.Errorf("update %s: %w", r.ID, ErrNotFound)
	}
	next := l.Clone()
	next.Records[i] = r
	return next, nil
}

// Delete removes the record with the given id.
func (l Ledger) Delete(id string) (Ledger, error) {
	i := l.index(id)
	if i < 0 {
		return l, fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	next := l.Clone()
	next.Records = slices.Delete(next.Records, i, i+1)
	return next, nil
}

// Prepend puts records in front of the existing ones, keeping their order.
// Ids are not checked; use Import when they come from outside.
func (l Ledger) Prepend(records ...core.Record) Ledger {
	next := l.Clone()
	next.Records = append(slices.Clone(records), l.Records...)
	return next
}

// Import prepends normalized external records, resolving id collisions
// according to policy. It returns the new ledger and the records as stored.
func (l Ledger) Import(records []core.Record, policy IDPolicy, gen core.Generator) (Ledger, []core.Record) {
	incoming := slices.Clone(records)
	if policy != PolicyKeep {
		seen := make(map[string]struct{}, len(l.Records)+len(incoming))
		for _, r := range l.Records {
			seen[r.ID] = struct{}{}
		}
		for i := range incoming {
			if _, dup := seen[incoming[i].ID]; dup || incoming[i].ID == "" {
				incoming[i].ID = gen.NewID()
			}
			seen[incoming[i].ID] = struct{}{}
		}
	}
	return l.Prepend(incoming...), incoming
}

// Months lists the distinct YYYY-MM prefixes present, newest first.
func (l Ledger) Months() []string {
	set := make(map[string]struct{})
	for _, r := range l.Records {
		if len(r.Date) >= len(core.MonthLayout) && core.IsMonth(r.Date[:len(core.MonthLayout)]) {
			set[r.Date[:len(core.MonthLayout)]] = struct{}{}
		}
	}
	months := make([]string, 0, len(set))
	for m := range set {
		months = append(months, m)
	}
	slices.Sort(months)
	slices.Reverse(months)
	return months
}

func (l Ledger) index(id string) int {
	return slices.IndexFunc(l.Records, func(r core.Record) bool { return r.ID == id })
}

// dedupe keeps the first occurrence of each trimmed, non-empty value.
func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
