package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bilancio/internal/amqp"
	"bilancio/internal/codec"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
)

// ErrInvalidExpense is returned when a legacy expense lacks a date or a
// positive amount.
var ErrInvalidExpense = errors.New("date and amount (>0) are required")

// Expense is the narrow record shape of the legacy expenses API. It maps
// onto ledger records of type expense; title and method are derived.
type Expense struct {
	ID       string          `json:"id"`
	Date     string          `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Note     string          `json:"note"`
}

// ExpensePatch carries the fields present in a legacy request body. Nil
// means the field was not sent.
type ExpensePatch struct {
	Date     *string
	Amount   *decimal.Decimal
	Category *string
	Note     *string
}

// ExpensePatchFromMap reads a decoded JSON object. Values are stringified
// the way imports are; an amount that is not numeric becomes 0 and, for
// ok, false.
func ExpensePatchFromMap(raw map[string]any) ExpensePatch {
	var p ExpensePatch
	text := func(key string) *string {
		if s, ok := codec.Text(raw[key]); ok {
			return &s
		}
		return nil
	}
	p.Date = text("date")
	p.Category = text("category")
	p.Note = text("note")
	if v, ok := raw["amount"]; ok && v != nil {
		d, _ := codec.CoerceAmount(v)
		p.Amount = &d
	}
	return p
}

func expenseOf(r core.Record) Expense {
	return Expense{ID: r.ID, Date: r.Date, Amount: r.Amount, Category: r.Category, Note: r.Note}
}

// legacyTitle is the title given to records created through the legacy API.
func legacyTitle(note, category string) string {
	if strings.TrimSpace(note) != "" {
		return note
	}
	return category
}

// ListExpenses returns every expense record in ledger order.
func (s *LedgerService) ListExpenses() []Expense {
	l, _ := s.Snapshot()
	out := []Expense{}
	for _, r := range l.Records {
		if r.IsExpense() {
			out = append(out, expenseOf(r))
		}
	}
	return out
}

// CreateExpense adds a legacy expense at the front of the ledger.
func (s *LedgerService) CreateExpense(ctx context.Context, p ExpensePatch) (Expense, error) {
	if p.Date == nil || strings.TrimSpace(*p.Date) == "" || p.Amount == nil || !p.Amount.IsPositive() {
		return Expense{}, ErrInvalidExpense
	}
	r := core.Record{
		ID:       s.gen.NewID(),
		Kind:     core.KindExpense,
		Amount:   *p.Amount,
		Category: codec.DefaultCategory,
		Method:   codec.DefaultMethod,
		Date:     *p.Date,
	}
	if p.Category != nil && *p.Category != "" {
		r.Category = *p.Category
	}
	if p.Note != nil {
		r.Note = *p.Note
	}
	r.Title = legacyTitle(r.Note, r.Category)

	s.mu.Lock()
	version := s.commit(s.current.Prepend(r))
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Legacy expense created",
		log.NewFields().WithOperation(log.OpCreate).WithRecord(r).WithVersion(version).ToSlice()...)
	s.announce(ctx, version, amqp.OperationCreate, []string{r.ID}, []string{monthOf(r.Date)})
	return expenseOf(r), nil
}

// UpdateExpense merges p into an existing expense record. A title that was
// derived from note or category follows their new values.
func (s *LedgerService) UpdateExpense(ctx context.Context, id string, p ExpensePatch) (Expense, error) {
	s.mu.Lock()
	before, ok := s.current.Find(id)
	if !ok || !before.IsExpense() {
		s.mu.Unlock()
		return Expense{}, fmt.Errorf("update expense %s: %w", id, ledger.ErrNotFound)
	}
	r := before
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Note != nil {
		r.Note = *p.Note
	}
	if before.Title == legacyTitle(before.Note, before.Category) {
		r.Title = legacyTitle(r.Note, r.Category)
	}
	next, err := s.current.Replace(r)
	if err != nil {
		s.mu.Unlock()
		return Expense{}, err
	}
	version := s.commit(next)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Legacy expense updated",
		log.NewFields().WithOperation(log.OpUpdate).WithRecord(r).WithVersion(version).ToSlice()...)

	s.announce(ctx, version, amqp.OperationUpdate, []string{id}, []string{monthOf(before.Date), monthOf(r.Date)})
	return expenseOf(r), nil
}

// DeleteExpense removes an expense record.
func (s *LedgerService) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	before, ok := s.current.Find(id)
	if !ok || !before.IsExpense() {
		s.mu.Unlock()
		return fmt.Errorf("delete expense %s: %w", id, ledger.ErrNotFound)
	}
	next, err := s.current.Delete(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	version := s.commit(next)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Legacy expense deleted",
		log.NewFields().WithOperation(log.OpDelete).WithRecord(before).WithVersion(version).ToSlice()...)
	s.announce(ctx, version, amqp.OperationDelete, []string{id}, []string{monthOf(before.Date)})
	return nil
}
