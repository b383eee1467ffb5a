package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bilancio/internal/ledger"
)

// FileRepository stores the snapshot as a JSON document. Writes go to a
// temporary file in the same directory which then replaces the target, so a
// crash never leaves a half-written ledger behind.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileRepository{path: path}, nil
}

func (f *FileRepository) Load(_ context.Context) (ledger.Ledger, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ledger.Ledger{}, ErrNoSnapshot
	}
	if err != nil {
		return ledger.Ledger{}, fmt.Errorf("read %s: %w", f.path, err)
	}
	return decodeSnapshot(data)
}

func (f *FileRepository) Save(_ context.Context, l ledger.Ledger) error {
	data, err := encodeSnapshot(l)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

func (f *FileRepository) Close() error { return nil }
