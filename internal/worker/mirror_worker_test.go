package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
	"bilancio/internal/sheets/memory"
	"bilancio/internal/storage"
)

func rec(id, date, amount string) core.Record {
	return core.Record{
		ID: id, Kind: core.KindExpense, Title: id, Amount: decimal.RequireFromString(amount),
		Category: "Food", Method: "Cash", Date: date,
	}
}

// sequenceLoader returns its snapshots in turn, repeating the last one.
type sequenceLoader struct {
	mu    sync.Mutex
	snaps []ledger.Ledger
	err   error
	calls int
}

func (l *sequenceLoader) Load(context.Context) (ledger.Ledger, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return ledger.Ledger{}, l.err
	}
	i := min(l.calls-1, len(l.snaps)-1)
	return l.snaps[i], nil
}

type failingWriter struct{}

func (failingWriter) WriteMonth(context.Context, string, []core.Record) error {
	return errors.New("quota exceeded")
}

func TestHandleLedgerChangedWritesTouchedMonths(t *testing.T) {
	l := ledger.New(nil, nil, []core.Record{
		rec("c", "2024-03-20", "5"),
		rec("b", "2024-02-10", "7"),
		rec("a", "2024-03-01", "3"),
	})
	loader := &sequenceLoader{snaps: []ledger.Ledger{l}}
	sheet := memory.New()
	w := NewMirrorWorker(loader, sheet, 0, log.Discard())

	msg := amqp.NewLedgerChangedMessage(3, amqp.OperationCreate, []string{"c"}, []string{"2024-03"})
	if err := w.HandleLedgerChanged(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows, ok := sheet.Tab("2024-03")
	if !ok {
		t.Fatalf("2024-03 not mirrored")
	}
	if len(rows) != 3 || rows[1][0] != "a" || rows[2][0] != "c" {
		t.Fatalf("expected header + a, c in date order, got %v", rows)
	}
	if _, ok := sheet.Tab("2024-02"); ok {
		t.Fatalf("untouched month was rewritten")
	}
}

func TestHandleLedgerChangedReloadsStaleSnapshot(t *testing.T) {
	before := ledger.New(nil, nil, []core.Record{rec("a", "2024-03-01", "3")})
	after := ledger.New(nil, nil, []core.Record{rec("b", "2024-03-02", "4"), rec("a", "2024-03-01", "3")})
	loader := &sequenceLoader{snaps: []ledger.Ledger{before, after}}
	sheet := memory.New()
	w := NewMirrorWorker(loader, sheet, time.Millisecond, log.Discard())

	msg := amqp.NewLedgerChangedMessage(2, amqp.OperationCreate, []string{"b"}, []string{"2024-03"})
	if err := w.HandleLedgerChanged(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected a reload, got %d loads", loader.calls)
	}
	rows, _ := sheet.Tab("2024-03")
	if len(rows) != 3 {
		t.Fatalf("expected both records mirrored, got %v", rows)
	}
}

func TestHandleLedgerChangedDeleteEmptiesMonth(t *testing.T) {
	loader := &sequenceLoader{snaps: []ledger.Ledger{ledger.Default()}}
	sheet := memory.New()
	w := NewMirrorWorker(loader, sheet, time.Millisecond, log.Discard())

	msg := amqp.NewLedgerChangedMessage(4, amqp.OperationDelete, []string{"a"}, []string{"2024-03"})
	if err := w.HandleLedgerChanged(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("deleted record is absent, no reload expected; got %d loads", loader.calls)
	}
	rows, ok := sheet.Tab("2024-03")
	if !ok || len(rows) != 1 {
		t.Fatalf("expected header only, got %v", rows)
	}
}

func TestHandleLedgerChangedErrors(t *testing.T) {
	msg := amqp.NewLedgerChangedMessage(1, amqp.OperationUpdate, []string{"a"}, []string{"2024-03"})
	ctx := context.Background()

	w := NewMirrorWorker(&sequenceLoader{err: errors.New("disk gone")}, memory.New(), 0, log.Discard())
	if err := w.HandleLedgerChanged(ctx, msg); err == nil {
		t.Fatal("expected load error to be returned for requeue")
	}

	l := ledger.New(nil, nil, []core.Record{rec("a", "2024-03-01", "3")})
	w = NewMirrorWorker(&sequenceLoader{snaps: []ledger.Ledger{l}}, failingWriter{}, 0, log.Discard())
	if err := w.HandleLedgerChanged(ctx, msg); err == nil {
		t.Fatal("expected sheet error to be returned for requeue")
	}
}

func TestHandleLedgerChangedWithoutMonths(t *testing.T) {
	loader := &sequenceLoader{err: errors.New("must not load")}
	w := NewMirrorWorker(loader, memory.New(), 0, log.Discard())
	msg := amqp.NewLedgerChangedMessage(1, amqp.OperationImport, nil, nil)
	if err := w.HandleLedgerChanged(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if loader.calls != 0 {
		t.Fatalf("expected no load, got %d", loader.calls)
	}
}

func TestSyncAll(t *testing.T) {
	l := ledger.New(nil, nil, []core.Record{
		rec("a", "2024-03-01", "3"),
		rec("b", "2024-02-10", "7"),
		rec("c", "2023-12-31", "1"),
	})
	sheet := memory.New()
	w := NewMirrorWorker(&sequenceLoader{snaps: []ledger.Ledger{l}}, sheet, 0, log.Discard())
	if err := w.SyncAll(context.Background()); err != nil {
		t.Fatalf("sync all: %v", err)
	}
	got := sheet.Months()
	if len(got) != 3 || got[0] != "2023-12" || got[2] != "2024-03" {
		t.Fatalf("unexpected mirrored months: %v", got)
	}

	empty := NewMirrorWorker(&sequenceLoader{err: storage.ErrNoSnapshot}, memory.New(), 0, log.Discard())
	if err := empty.SyncAll(context.Background()); err != nil {
		t.Fatalf("missing snapshot should not fail startup: %v", err)
	}
}

type fakeConsumer struct {
	msgs []*amqp.LedgerChangedMessage
	errs []error
}

func (c *fakeConsumer) ConsumeLedgerChanged(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error {
	for _, m := range c.msgs {
		c.errs = append(c.errs, handler(ctx, m))
	}
	return context.Canceled
}

func TestRunTreatsCancellationAsCleanStop(t *testing.T) {
	l := ledger.New(nil, nil, []core.Record{rec("a", "2024-03-01", "3")})
	sheet := memory.New()
	w := NewMirrorWorker(&sequenceLoader{snaps: []ledger.Ledger{l}}, sheet, 0, log.Discard())
	consumer := &fakeConsumer{msgs: []*amqp.LedgerChangedMessage{
		amqp.NewLedgerChangedMessage(1, amqp.OperationCreate, []string{"a"}, []string{"2024-03"}),
	}}

	if err := w.Run(context.Background(), consumer); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(consumer.errs) != 1 || consumer.errs[0] != nil {
		t.Fatalf("unexpected handler results: %v", consumer.errs)
	}
	if sheet.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", sheet.Writes())
	}
}
