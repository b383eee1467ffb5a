package http

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"bilancio/internal/ledger"
)

func TestParseQuery(t *testing.T) {
	now := time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)

	q, err := parseQuery(url.Values{}, now)
	if err != nil {
		t.Fatalf("parseQuery: %v", err)
	}
	if q.Month != "2024-07" || q.Sort != ledger.SortNewest || !q.Filter.IsZero() {
		t.Fatalf("unexpected defaults: %+v", q)
	}

	q, err = parseQuery(url.Values{
		"month": {"2024-03"}, "q": {" coffee "}, "category": {"Food"}, "method": {"All"},
		"from": {"2024-03-02"}, "to": {"2024-03-09"}, "min": {"abc"}, "max": {"10"}, "sort": {"oldest"},
	}, now)
	if err != nil {
		t.Fatalf("parseQuery: %v", err)
	}
	want := ledger.Filter{Query: "coffee", Category: "Food", Method: "All", DateFrom: "2024-03-02", DateTo: "2024-03-09", AmountMin: "abc", AmountMax: "10"}
	if q.Month != "2024-03" || q.Sort != ledger.SortOldest || q.Filter != want {
		t.Fatalf("unexpected query: %+v", q)
	}

	if _, err := parseQuery(url.Values{"month": {"2024-3"}}, now); err == nil {
		t.Fatal("expected error for malformed month")
	}
}

func TestDecodeObjectAndDraft(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"Tea\u0007","amount":3.10,"type":"income"}`))
	raw, err := decodeObject(req)
	if err != nil {
		t.Fatalf("decodeObject: %v", err)
	}
	d := draftFromMap(raw)
	if d.Title != "Tea" || d.Amount != "3.10" || d.Kind != "income" || d.Date != "" {
		t.Fatalf("unexpected draft: %+v", d)
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"Tea","amount":"1","note":"  two spaces\nand a line  "}`))
	raw, err = decodeObject(req)
	if err != nil {
		t.Fatalf("decodeObject: %v", err)
	}
	if d := draftFromMap(raw); d.Note != "  two spaces\nand a line  " {
		t.Fatalf("note should be kept verbatim, got %q", d.Note)
	}

	huge := `{"note":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	req = httptest.NewRequest("POST", "/", strings.NewReader(huge))
	if _, err := decodeObject(req); err == nil || !strings.Contains(err.Error(), "larger than") {
		t.Errorf("oversized body error = %v", err)
	}

	for _, body := range []string{`[1,2]`, `{"a":1} {"b":2}`, `null`, ``} {
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))
		if _, err := decodeObject(req); err == nil {
			t.Errorf("expected error for %q", body)
		}
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "203.0.113.7:5555", "", "", "203.0.113.7"},
		{"untrusted proxy ignored", "203.0.113.7:5555", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy xff", "10.0.0.2:80", "198.51.100.1, 10.0.0.3", "", "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:80", "garbage", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy no headers", "192.168.1.1:80", "", "", "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Fatalf("extractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	m := &securityMetrics{}
	if detectSuspiciousRequest(httptest.NewRequest("GET", "/api/view?month=2024-03", nil), m) {
		t.Fatal("plain request flagged")
	}
	if !detectSuspiciousRequest(httptest.NewRequest("GET", "/.env", nil), m) {
		t.Fatal("scanner request not flagged")
	}
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("User-Agent", "sqlmap/1.7")
	if !detectSuspiciousRequest(req, m) {
		t.Fatal("scanner agent not flagged")
	}
	if got := m.snapshot().SuspiciousRequests; got != 2 {
		t.Fatalf("suspicious count = %d, want 2", got)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.allow("a"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	now = now.Add(20 * time.Second)
	ok, wait := rl.allow("a")
	if ok {
		t.Fatal("third request in the window should be refused")
	}
	if wait != 40*time.Second {
		t.Fatalf("retry after = %v, want 40s", wait)
	}
	if ok, _ := rl.allow("b"); !ok {
		t.Fatal("clients are limited independently")
	}

	now = now.Add(40 * time.Second)
	if removed := rl.CleanExpired(); removed != 1 {
		t.Fatalf("CleanExpired() = %d, want 1 (only a's window ended)", removed)
	}
	if ok, _ := rl.allow("a"); !ok {
		t.Fatal("a new window should reset the budget")
	}
	if got := rl.clients(); got != 2 {
		t.Fatalf("tracked clients = %d, want 2", got)
	}
}
