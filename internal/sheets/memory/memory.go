// Package memory is a process-local MonthWriter, used by tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"slices"
	"sync"

	"bilancio/internal/core"
	"bilancio/internal/sheets"
)

var _ sheets.MonthWriter = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	tabs   map[string][][]any
	writes int
}

func New() *Store {
	return &Store{tabs: make(map[string][][]any)}
}

// WriteMonth replaces the tab of month with the rows of records.
func (s *Store) WriteMonth(_ context.Context, month string, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[month] = sheets.Rows(records)
	s.writes++
	return nil
}

// Tab returns the rows last written for month.
func (s *Store) Tab(month string) ([][]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[month]
	return slices.Clone(rows), ok
}

// Months lists the written tabs in order.
func (s *Store) Months() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tabs))
	for m := range s.tabs {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
