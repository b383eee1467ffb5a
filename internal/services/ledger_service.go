// Package services owns the live ledger. LedgerService is its single writer:
// it serializes mutations, versions every state, and fans each change out to
// persistence and change notifications.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"bilancio/internal/amqp"
	"bilancio/internal/codec"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

// Publisher announces ledger changes. Publishing is best effort.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// Options configure a LedgerService. Zero values select defaults.
type Options struct {
	Generator core.Generator
	IDPolicy  ledger.IDPolicy
	// Fresh is the ledger used when storage holds nothing usable.
	Fresh     func() ledger.Ledger
	Publisher Publisher
	Views     *ViewCache
}

type LedgerService struct {
	logger    *log.Logger
	persister *Persister
	publisher Publisher
	views     *ViewCache
	gen       core.Generator
	policy    ledger.IDPolicy

	// mu serializes writers; readers take snapshots under RLock.
	mu      sync.RWMutex
	current ledger.Ledger
	version int64
}

// Open loads the ledger from repo. A missing or unreadable snapshot is not
// an error: the service starts from opts.Fresh and logs a warning for the
// unreadable case.
func Open(ctx context.Context, repo storage.Repository, persister *Persister, opts Options, logger *log.Logger) *LedgerService {
	if opts.Generator == nil {
		opts.Generator = core.SystemGenerator{}
	}
	if opts.IDPolicy == "" {
		opts.IDPolicy = ledger.PolicyRegenerate
	}
	if opts.Fresh == nil {
		opts.Fresh = ledger.Default
	}
	logger = logger.WithComponent(log.ComponentLedger)

	l, err := repo.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNoSnapshot):
		logger.InfoContext(ctx, "No stored ledger, starting fresh")
		l = opts.Fresh()
	case err != nil:
		logger.WarnContext(ctx, "Stored ledger unreadable, starting fresh",
			log.NewFields().WithOperation(log.OpLoad).WithError(err).ToSlice()...)
		l = opts.Fresh()
	default:
		logger.InfoContext(ctx, "Ledger loaded", log.FieldRecordCount, len(l.Records))
	}

	return &LedgerService{
		logger:    logger,
		persister: persister,
		publisher: opts.Publisher,
		views:     opts.Views,
		gen:       opts.Generator,
		policy:    opts.IDPolicy,
		current:   l,
	}
}

// Snapshot returns the current ledger and its version. The ledger must not
// be modified by the caller.
func (s *LedgerService) Snapshot() (ledger.Ledger, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.version
}

func (s *LedgerService) Vocabulary() ledger.Vocabulary {
	l, _ := s.Snapshot()
	return ledger.VocabularyOf(l)
}

// Months lists the months that have records, newest first.
func (s *LedgerService) Months() []string {
	l, _ := s.Snapshot()
	return l.Months()
}

// Get returns one record.
func (s *LedgerService) Get(id string) (core.Record, error) {
	l, _ := s.Snapshot()
	r, ok := l.Find(id)
	if !ok {
		return core.Record{}, fmt.Errorf("get %s: %w", id, ledger.ErrNotFound)
	}
	return r, nil
}

// View derives the month view for q, from cache when possible.
func (s *LedgerService) View(q ledger.Query) ledger.View {
	l, version := s.Snapshot()
	if s.views == nil {
		return ledger.Run(l, q)
	}
	return s.views.Get(version, q, func() ledger.View { return ledger.Run(l, q) })
}

// MonthRecords returns the month-scoped records in ledger order. Exports use
// this set; view filters do not apply to them.
func (s *LedgerService) MonthRecords(month string) []core.Record {
	l, _ := s.Snapshot()
	return ledger.ScopeMonth(l.Records, month)
}

// Upsert creates a record (draft without id) or replaces one.
func (s *LedgerService) Upsert(ctx context.Context, d core.Draft) (core.Record, error) {
	id := strings.TrimSpace(d.ID)
	s.mu.Lock()
	before, existed := s.current.Find(id)
	next, r, err := s.current.Upsert(d, s.gen)
	if err != nil {
		s.mu.Unlock()
		return core.Record{}, err
	}
	op := amqp.OperationCreate
	months := []string{monthOf(r.Date)}
	if id != "" && existed {
		op = amqp.OperationUpdate
		months = append(months, monthOf(before.Date))
	}
	version := s.commit(next)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Record saved",
		log.NewFields().WithOperation(op).WithRecord(r).WithVersion(version).ToSlice()...)
	s.announce(ctx, version, op, []string{r.ID}, months)
	return r, nil
}

func (s *LedgerService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	before, _ := s.current.Find(id)
	next, err := s.current.Delete(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	version := s.commit(next)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Record deleted",
		log.NewFields().WithOperation(log.OpDelete).WithRecord(before).WithVersion(version).ToSlice()...)
	s.announce(ctx, version, amqp.OperationDelete, []string{id}, []string{monthOf(before.Date)})
	return nil
}

// Import reads a JSON array payload and prepends its records. The payload
// is read and decoded before the ledger is locked; a malformed payload
// leaves the ledger untouched.
func (s *LedgerService) Import(ctx context.Context, r io.Reader) ([]core.Record, error) {
	records, err := codec.DecodeJSON(r, s.gen)
	if err != nil {
		s.logger.WarnContext(ctx, "Import rejected",
			log.NewFields().WithOperation(log.OpImport).WithError(err).ToSlice()...)
		return nil, err
	}
	return s.ImportRecords(ctx, records), nil
}

// ImportRecords prepends already normalized records as one state change.
func (s *LedgerService) ImportRecords(ctx context.Context, records []core.Record) []core.Record {
	s.mu.Lock()
	next, stored := s.current.Import(records, s.policy, s.gen)
	version := s.commit(next)
	s.mu.Unlock()

	ids := make([]string, len(stored))
	months := make([]string, 0, len(stored))
	for i, r := range stored {
		ids[i] = r.ID
		months = append(months, monthOf(r.Date))
	}
	s.logger.InfoContext(ctx, "Records imported",
		log.FieldOperation, log.OpImport,
		log.FieldRecordCount, len(stored),
		log.FieldVersion, version)
	s.announce(ctx, version, amqp.OperationImport, ids, months)
	return stored
}

// ExportCSV writes the month's records in the CSV export format.
func (s *LedgerService) ExportCSV(w io.Writer, month string) error {
	return codec.WriteCSV(w, s.MonthRecords(month))
}

// ExportXLSX writes the month's records as a workbook.
func (s *LedgerService) ExportXLSX(w io.Writer, month string) error {
	return codec.WriteXLSX(w, month, s.MonthRecords(month))
}

// commit installs next as the current state and queues its snapshot.
// Callers hold s.mu, which keeps snapshots in mutation order.
func (s *LedgerService) commit(next ledger.Ledger) int64 {
	s.current = next
	s.version++
	if s.persister != nil {
		s.persister.Enqueue(s.version, next)
	}
	return s.version
}

func (s *LedgerService) announce(ctx context.Context, version int64, op string, ids, months []string) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(version, op, ids, compactMonths(months))
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		// Don't fail the request, the change is already applied.
		s.logger.ErrorContext(ctx, "Failed to publish ledger change",
			log.NewFields().WithOperation(op).WithVersion(version).WithError(err).ToSlice()...)
	}
}

// Close drains pending snapshots and closes storage.
func (s *LedgerService) Close(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Close(ctx); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}

func monthOf(date string) string {
	if len(date) < len(core.MonthLayout) {
		return ""
	}
	m := date[:len(core.MonthLayout)]
	if !core.IsMonth(m) {
		return ""
	}
	return m
}

// compactMonths drops blanks and repeats, keeping first-seen order.
func compactMonths(months []string) []string {
	out := make([]string, 0, len(months))
	for _, m := range months {
		if m != "" && !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}
