//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

// Requires real service account credentials:
// go test -tags=integration ./internal/sheets/google

func TestIntegration_WriteMonth(t *testing.T) {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewClient(ctx, spreadsheetID, "Test", log.Discard())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	records := []core.Record{{
		ID: "it-1", Kind: core.KindExpense, Title: "Integration", Amount: decimal.RequireFromString("1.23"),
		Category: "Other", Method: "Cash", Date: "2099-01-15",
	}}
	if err := client.WriteMonth(ctx, "2099-01", records); err != nil {
		t.Fatalf("WriteMonth: %v", err)
	}
	// Second write hits the remembered tab.
	if err := client.WriteMonth(ctx, "2099-01", nil); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
}
