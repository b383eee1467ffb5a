// Package sheets defines the spreadsheet mirror port and the row layout
// shared by its adapters.
package sheets

import (
	"context"

	"bilancio/internal/codec"
	"bilancio/internal/core"
)

// MonthWriter replaces the mirrored rows of one month.
type MonthWriter interface {
	WriteMonth(ctx context.Context, month string, records []core.Record) error
}

// Rows lays records out as a value matrix: the export header followed by
// one row per record in the export column order.
func Rows(records []core.Record) [][]any {
	rows := make([][]any, 0, len(records)+1)
	header := make([]any, len(codec.Header))
	for i, h := range codec.Header {
		header[i] = h
	}
	rows = append(rows, header)
	for _, r := range records {
		rows = append(rows, []any{
			r.ID,
			string(r.Kind),
			r.Title,
			r.Amount.InexactFloat64(),
			r.Category,
			r.Method,
			r.Date,
			r.Note,
		})
	}
	return rows
}
