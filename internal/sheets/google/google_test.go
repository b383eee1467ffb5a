package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bilancio/internal/log"
)

func TestNewClient_MissingSpreadsheetID(t *testing.T) {
	_, err := NewClient(context.Background(), "  ", DefaultPrefix, log.Discard())
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTabName(t *testing.T) {
	tests := []struct {
		prefix, month, want string
	}{
		{"Bilancio", "2024-03", "Bilancio 2024-03"},
		{"  Home ", "2023-12", "Home 2023-12"},
		{"", "2024-01", "2024-01"},
	}
	for _, tt := range tests {
		if got := TabName(tt.prefix, tt.month); got != tt.want {
			t.Errorf("TabName(%q, %q) = %q, want %q", tt.prefix, tt.month, got, tt.want)
		}
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatalf("write creds: %v", err)
	}
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}

	got, err := credentialsFromEnv(env(map[string]string{
		"GOOGLE_SERVICE_ACCOUNT_JSON": `{"inline":true}`,
		"GOOGLE_SERVICE_ACCOUNT_FILE": path,
	}))
	if err != nil || string(got) != `{"inline":true}` {
		t.Fatalf("inline json should win: %q %v", got, err)
	}

	got, err = credentialsFromEnv(env(map[string]string{"GOOGLE_APPLICATION_CREDENTIALS": path}))
	if err != nil || !strings.Contains(string(got), "service_account") {
		t.Fatalf("expected file credentials: %q %v", got, err)
	}

	if _, err := credentialsFromEnv(env(map[string]string{"GOOGLE_SERVICE_ACCOUNT_FILE": filepath.Join(dir, "missing.json")})); err == nil {
		t.Fatal("expected error for unreadable file")
	}
	if _, err := credentialsFromEnv(env(nil)); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestWriteMonthWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "test", tabs: map[string]struct{}{}, logger: log.Discard()}
	if err := c.WriteMonth(context.Background(), "2024-03", nil); err == nil {
		t.Fatal("expected error with nil service")
	}
}
