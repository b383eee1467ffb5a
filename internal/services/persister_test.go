package services

import (
	"context"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

func TestPersisterWritesInOrder(t *testing.T) {
	repo := &flakyRepository{}
	p := NewPersister(repo, 2, log.Discard())

	l := ledger.Default()
	for i := 0; i < 5; i++ {
		l = l.Prepend(core.Record{ID: string(rune('a' + i))})
		p.Enqueue(int64(i+1), l)
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(repo.saved) != 5 {
		t.Fatalf("expected 5 saves, got %d", len(repo.saved))
	}
	for i, s := range repo.saved {
		if len(s.Records) != i+1 {
			t.Fatalf("save %d out of order: %d records", i, len(s.Records))
		}
	}
}

func TestPersisterEnqueueAfterClose(t *testing.T) {
	repo := storage.NewMemoryRepository()
	p := NewPersister(repo, 1, log.Discard())
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	p.Enqueue(1, ledger.Default())
	if repo.Saves() != 0 {
		t.Fatalf("expected no save after close")
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

type slowRepository struct {
	storage.MemoryRepository
	delay time.Duration
}

func (r *slowRepository) Save(ctx context.Context, l ledger.Ledger) error {
	time.Sleep(r.delay)
	return r.MemoryRepository.Save(ctx, l)
}

func TestPersisterCloseHonorsContext(t *testing.T) {
	repo := &slowRepository{delay: 200 * time.Millisecond}
	p := NewPersister(repo, 1, log.Discard())
	p.Enqueue(1, ledger.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Close(ctx); err == nil {
		t.Fatalf("expected drain timeout")
	}
}

func TestSlowStorageDoesNotBlockService(t *testing.T) {
	repo := &slowRepository{delay: 300 * time.Millisecond}
	logger := log.Discard()
	svc := Open(context.Background(), repo, NewPersister(repo, 1, logger), Options{Generator: &seqGen{}}, logger)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := svc.Upsert(context.Background(), core.Draft{Title: "Coffee", Amount: "2", Date: "2024-03-05"}); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}
	svc.View(ledger.Query{Month: "2024-03"})
	if _, version := svc.Snapshot(); version != 3 {
		t.Fatalf("version = %d, want 3", version)
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Fatalf("mutations and reads waited %v for storage", elapsed)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := repo.Saves(); got != 3 {
		t.Fatalf("saves = %d, want one per mutation", got)
	}
}

func TestPersisterBacklogIsUnbounded(t *testing.T) {
	repo := &slowRepository{delay: 50 * time.Millisecond}
	p := NewPersister(repo, 2, log.Discard())

	start := time.Now()
	for i := 0; i < 10; i++ {
		p.Enqueue(int64(i+1), ledger.Default())
	}
	if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
		t.Fatalf("Enqueue blocked for %v", elapsed)
	}
	if p.Pending() == 0 {
		t.Fatal("expected a backlog behind the slow repository")
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if p.Pending() != 0 || repo.Saves() != 10 {
		t.Fatalf("pending=%d saves=%d after close", p.Pending(), repo.Saves())
	}
}
