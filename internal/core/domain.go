package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

type (
	// Kind tells whether a record takes money out of or brings money into the ledger.
	Kind string

	// Record is one transaction. Date is kept in canonical YYYY-MM-DD form so
	// that string comparison orders records chronologically.
	Record struct {
		ID       string          `json:"id"`
		Kind     Kind            `json:"type"`
		Title    string          `json:"title"`
		Amount   decimal.Decimal `json:"amount"`
		Category string          `json:"category"`
		Method   string          `json:"method"`
		Date     string          `json:"date"`
		Note     string          `json:"note"`
	}

	// Draft is interactive input for creating or replacing a record.
	// Amount stays textual until Validate has accepted it.
	Draft struct {
		ID       string `json:"id,omitempty"`
		Kind     string `json:"type"`
		Title    string `json:"title"`
		Amount   string `json:"amount"`
		Category string `json:"category"`
		Method   string `json:"method"`
		Date     string `json:"date"`
		Note     string `json:"note"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidKind   = errors.New("invalid type")
)

// ValidationError reports every rejected field of a Draft at once.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// IsExpense reports whether the record counts toward spending aggregates.
func (r Record) IsExpense() bool {
	return r.Kind == KindExpense
}

// IsIncome reports whether the record counts toward income totals.
func (r Record) IsIncome() bool {
	return r.Kind == KindIncome
}

// ParseKind maps free text to a Kind. Empty input defaults to expense.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindExpense:
		return KindExpense, nil
	case KindIncome:
		return KindIncome, nil
	default:
		return "", ErrInvalidKind
	}
}

// Validate checks the draft the way the entry form does. A nil return means
// Record will succeed.
func (d Draft) Validate() error {
	verr := &ValidationError{}
	if _, err := ParseKind(d.Kind); err != nil {
		verr.add("type", "Type must be expense or income")
	}
	if strings.TrimSpace(d.Title) == "" {
		verr.add("title", "Title is required")
	}
	if _, err := ParseAmount(d.Amount); err != nil {
		verr.add("amount", "Amount must be > 0")
	}
	if date := strings.TrimSpace(d.Date); date != "" && !IsCanonicalDate(date) {
		verr.add("date", "Date must be YYYY-MM-DD")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Record builds the strict record for a validated draft. id is used when the
// draft carries none; an empty date becomes today.
func (d Draft) Record(id, today string) (Record, error) {
	if err := d.Validate(); err != nil {
		return Record{}, err
	}
	kind, _ := ParseKind(d.Kind)
	amount, _ := ParseAmount(d.Amount)
	if strings.TrimSpace(d.ID) != "" {
		id = strings.TrimSpace(d.ID)
	}
	date := strings.TrimSpace(d.Date)
	if date == "" {
		date = today
	}
	return Record{
		ID:       id,
		Kind:     kind,
		Title:    strings.TrimSpace(d.Title),
		Amount:   amount,
		Category: strings.TrimSpace(d.Category),
		Method:   strings.TrimSpace(d.Method),
		Date:     date,
		Note:     d.Note,
	}, nil
}

// DraftOf returns the editable form of an existing record.
func DraftOf(r Record) Draft {
	return Draft{
		ID:       r.ID,
		Kind:     string(r.Kind),
		Title:    r.Title,
		Amount:   r.Amount.String(),
		Category: r.Category,
		Method:   r.Method,
		Date:     r.Date,
		Note:     r.Note,
	}
}
