package sheets

import (
	"testing"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

func TestRows(t *testing.T) {
	rows := Rows([]core.Record{{
		ID: "a", Kind: core.KindIncome, Title: "Salary", Amount: decimal.RequireFromString("1200.50"),
		Category: "Other", Method: "Bank Transfer", Date: "2024-03-01", Note: "march",
	}})
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][7] != "note" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "income" || rows[1][3] != 1200.5 || rows[1][6] != "2024-03-01" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
}

func TestRowsEmpty(t *testing.T) {
	rows := Rows(nil)
	if len(rows) != 1 {
		t.Fatalf("expected only the header, got %v", rows)
	}
}
