package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

func sampleLedger() ledger.Ledger {
	return ledger.New(
		[]string{"Food", "Rent"},
		[]string{"Cash", "Card"},
		[]core.Record{
			{ID: "a", Kind: core.KindExpense, Title: `Pizza, "large"`, Amount: decimal.RequireFromString("12.50"), Category: "Food", Method: "Card", Date: "2024-03-05"},
			{ID: "b", Kind: core.KindIncome, Title: "Salary", Amount: decimal.RequireFromString("1500"), Category: "Other", Method: "Bank Transfer", Date: "2024-03-01", Note: "march"},
			{ID: "b", Kind: core.KindExpense, Title: "dup id", Amount: decimal.Zero, Category: "", Method: "", Date: ""},
		},
	)
}

func assertLedgerEqual(t *testing.T, want, got ledger.Ledger) {
	t.Helper()
	if len(got.Categories) != len(want.Categories) || len(got.Methods) != len(want.Methods) {
		t.Fatalf("vocabulary mismatch: want %v/%v got %v/%v", want.Categories, want.Methods, got.Categories, got.Methods)
	}
	for i := range want.Categories {
		if got.Categories[i] != want.Categories[i] {
			t.Fatalf("category %d: want %s got %s", i, want.Categories[i], got.Categories[i])
		}
	}
	if len(got.Records) != len(want.Records) {
		t.Fatalf("want %d records, got %d", len(want.Records), len(got.Records))
	}
	for i, w := range want.Records {
		g := got.Records[i]
		if !g.Amount.Equal(w.Amount) {
			t.Fatalf("record %d amount: want %s got %s", i, w.Amount, g.Amount)
		}
		g.Amount, w.Amount = decimal.Zero, decimal.Zero
		if g != w {
			t.Fatalf("record %d: want %+v got %+v", i, w, g)
		}
	}
}

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	if _, err := repo.Load(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot on empty store, got %v", err)
	}

	first := sampleLedger()
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertLedgerEqual(t, first, got)

	second, err := first.Delete("a")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	assertLedgerEqual(t, second, got)

	empty := ledger.Default()
	if err := repo.Save(ctx, empty); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	got, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(got.Records) != 0 || len(got.Categories) != len(ledger.DefaultCategories) {
		t.Fatalf("expected empty default ledger, got %+v", got)
	}
}

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	exerciseRepository(t, repo)
	if repo.Saves() != 3 {
		t.Fatalf("expected 3 saves, got %d", repo.Saves())
	}
}

func TestMemoryRepositoryIsolatesSnapshots(t *testing.T) {
	repo := NewMemoryRepository()
	l := sampleLedger()
	_ = repo.Save(context.Background(), l)
	l.Records[0].Title = "mutated"

	got, _ := repo.Load(context.Background())
	if got.Records[0].Title == "mutated" {
		t.Fatalf("stored snapshot shares memory with caller")
	}
}

func TestFileRepository(t *testing.T) {
	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "nested", "ledger.json"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	exerciseRepository(t, repo)
}

func TestFileRepositoryCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	repo, _ := NewFileRepository(path)
	_, err := repo.Load(context.Background())
	if err == nil || errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestFileRepositoryLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	repo, _ := NewFileRepository(filepath.Join(dir, "ledger.json"))
	if err := repo.Save(context.Background(), sampleLedger()); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only ledger.json, got %d entries", len(entries))
	}
}

func TestBoltRepository(t *testing.T) {
	repo, err := NewBoltRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestSQLiteRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	exerciseRepository(t, repo)
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening runs migrations again and sees the last snapshot.
	again, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if again.SchemaVersion() != 1 {
		t.Errorf("schema version = %d, want 1", again.SchemaVersion())
	}
	if _, err := again.Load(context.Background()); err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
}

func TestRedisRepository(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	repo, err := NewRedisRepository(ctx, RedisOptions{Addr: addr, Key: "bilancio:test:" + t.Name()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer repo.Close()
	repo.client.Del(ctx, repo.key)
	defer repo.client.Del(ctx, repo.key)
	exerciseRepository(t, repo)
}
