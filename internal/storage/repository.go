package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores the ledger in relational tables. A snapshot is
// replaced as a whole inside one transaction.
type SQLiteRepository struct {
	db     *sql.DB
	schema uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	schema, err := migrateUp(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLiteRepository{db: db, schema: schema}, nil
}

// SchemaVersion is the migration version the database was opened at.
func (r *SQLiteRepository) SchemaVersion() uint { return r.schema }

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context) (ledger.Ledger, error) {
	var savedAt string
	err := r.db.QueryRowContext(ctx, `SELECT saved_at FROM snapshot_meta WHERE singleton = 1`).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Ledger{}, ErrNoSnapshot
	}
	if err != nil {
		return ledger.Ledger{}, fmt.Errorf("read snapshot meta: %w", err)
	}

	categories, err := r.vocabulary(ctx, "category")
	if err != nil {
		return ledger.Ledger{}, err
	}
	methods, err := r.vocabulary(ctx, "method")
	if err != nil {
		return ledger.Ledger{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, title, amount, category, method, date, note
		FROM records ORDER BY position`)
	if err != nil {
		return ledger.Ledger{}, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var (
			rec    core.Record
			kind   string
			amount string
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.Title, &amount, &rec.Category, &rec.Method, &rec.Date, &rec.Note); err != nil {
			return ledger.Ledger{}, fmt.Errorf("scan record: %w", err)
		}
		rec.Kind = core.Kind(kind)
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return ledger.Ledger{}, fmt.Errorf("decode amount of %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return ledger.Ledger{}, fmt.Errorf("iterate records: %w", err)
	}
	return ledger.New(categories, methods, records), nil
}

func (r *SQLiteRepository) vocabulary(ctx context.Context, kind string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM vocabulary WHERE kind = ? ORDER BY position`, kind)
	if err != nil {
		return nil, fmt.Errorf("query %s vocabulary: %w", kind, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Save(ctx context.Context, l ledger.Ledger) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM records`, `DELETE FROM vocabulary`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
	}

	vocab, err := tx.PrepareContext(ctx, `INSERT INTO vocabulary (kind, position, name) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare vocabulary insert: %w", err)
	}
	defer vocab.Close()
	for i, c := range l.Categories {
		if _, err := vocab.ExecContext(ctx, "category", i, c); err != nil {
			return fmt.Errorf("insert category %q: %w", c, err)
		}
	}
	for i, m := range l.Methods {
		if _, err := vocab.ExecContext(ctx, "method", i, m); err != nil {
			return fmt.Errorf("insert method %q: %w", m, err)
		}
	}

	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO records (position, id, type, title, amount, category, method, date, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare record insert: %w", err)
	}
	defer ins.Close()
	for i, rec := range l.Records {
		if _, err := ins.ExecContext(ctx, i, rec.ID, string(rec.Kind), rec.Title, rec.Amount.String(), rec.Category, rec.Method, rec.Date, rec.Note); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (singleton, saved_at) VALUES (1, ?)
		ON CONFLICT(singleton) DO UPDATE SET saved_at = excluded.saved_at`,
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
