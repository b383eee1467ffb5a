// Package worker keeps external mirrors in step with the ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
	"bilancio/internal/sheets"
	"bilancio/internal/storage"
)

// Loader reads the shared ledger snapshot.
type Loader interface {
	Load(ctx context.Context) (ledger.Ledger, error)
}

// Consumer delivers ledger change events.
type Consumer interface {
	ConsumeLedgerChanged(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error
}

// MirrorWorker rewrites the spreadsheet tabs of months touched by a ledger
// change. Events carry no record data, so every event reloads the snapshot.
type MirrorWorker struct {
	loader Loader
	sheets sheets.MonthWriter
	logger *log.Logger
	// retryDelay is how long to wait before reloading a snapshot that does
	// not reflect the event yet.
	retryDelay time.Duration
}

func NewMirrorWorker(loader Loader, writer sheets.MonthWriter, retryDelay time.Duration, logger *log.Logger) *MirrorWorker {
	return &MirrorWorker{
		loader:     loader,
		sheets:     writer,
		logger:     logger.WithComponent(log.ComponentWorker),
		retryDelay: retryDelay,
	}
}

// Run consumes events until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer) error {
	err := consumer.ConsumeLedgerChanged(ctx, w.HandleLedgerChanged)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleLedgerChanged mirrors the months named by msg. A returned error
// requeues the event.
func (w *MirrorWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldVersion, msg.Version,
		log.FieldOperation, msg.Operation,
		"months", msg.Months)

	if len(msg.Months) == 0 {
		return nil
	}

	l, err := w.load(ctx)
	if err != nil && !errors.Is(err, storage.ErrNoSnapshot) {
		return err
	}
	// The writer persists asynchronously, so the snapshot can trail the
	// event. Give it one more chance before mirroring what is there.
	if !reflects(l, msg) && w.retryDelay > 0 {
		w.logger.DebugContext(ctx, "Snapshot behind event, reloading", log.FieldVersion, msg.Version)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.retryDelay):
		}
		if l, err = w.load(ctx); err != nil && !errors.Is(err, storage.ErrNoSnapshot) {
			return err
		}
	}

	for _, month := range msg.Months {
		if err := w.writeMonth(ctx, l, month); err != nil {
			return err
		}
	}
	return nil
}

// SyncAll mirrors every month present in the snapshot. Used at startup to
// recover from events missed while the worker was down.
func (w *MirrorWorker) SyncAll(ctx context.Context) error {
	l, err := w.load(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		w.logger.InfoContext(ctx, "No stored ledger, nothing to mirror")
		return nil
	}
	if err != nil {
		return err
	}

	months := l.Months()
	synced := 0
	for _, month := range months {
		if err := w.writeMonth(ctx, l, month); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror month", log.FieldMonth, month, log.FieldError, err)
			continue
		}
		synced++
	}
	w.logger.InfoContext(ctx, "Startup mirror completed", "total", len(months), "synced", synced)
	return nil
}

// load returns an empty ledger alongside storage.ErrNoSnapshot.
func (w *MirrorWorker) load(ctx context.Context) (ledger.Ledger, error) {
	l, err := w.loader.Load(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		return ledger.Default(), err
	}
	if err != nil {
		return ledger.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}
	return l, nil
}

func (w *MirrorWorker) writeMonth(ctx context.Context, l ledger.Ledger, month string) error {
	records := ledger.Sort(ledger.ScopeMonth(l.Records, month), ledger.SortOldest)
	if err := w.sheets.WriteMonth(ctx, month, records); err != nil {
		return fmt.Errorf("mirror %s: %w", month, err)
	}
	return nil
}

// reflects reports whether l already shows the effect of msg on its records.
func reflects(l ledger.Ledger, msg *amqp.LedgerChangedMessage) bool {
	present := func(id string) bool {
		return slices.ContainsFunc(l.Records, func(r core.Record) bool { return r.ID == id })
	}
	for _, id := range msg.RecordIDs {
		if present(id) == (msg.Operation == amqp.OperationDelete) {
			return false
		}
	}
	return true
}
