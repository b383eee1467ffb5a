package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/sheets"
)

// DefaultPrefix names month tabs when no prefix is configured.
const DefaultPrefix = "Bilancio"

var _ sheets.MonthWriter = (*Client)(nil)

// Client mirrors ledger months into a Google spreadsheet, one tab per month.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	prefix        string
	logger        *log.Logger

	mu   sync.Mutex
	tabs map[string]struct{}
}

// NewClient creates a Sheets client authenticated with a service account.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS, in that order.
func NewClient(ctx context.Context, spreadsheetID, prefix string, logger *log.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentialsFromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger = logger.WithComponent(log.ComponentSheets)
	logger.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		prefix:        prefix,
		logger:        logger,
		tabs:          make(map[string]struct{}),
	}, nil
}

func credentialsFromEnv(getenv func(string) string) ([]byte, error) {
	inline := strings.TrimSpace(getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// TabName returns the tab title used for month.
func TabName(prefix, month string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return month
	}
	return prefix + " " + month
}

// WriteMonth replaces the contents of the month's tab, creating it if needed.
func (c *Client) WriteMonth(ctx context.Context, month string, records []core.Record) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if !core.IsMonth(month) {
		return fmt.Errorf("invalid month: %q", month)
	}
	tab := TabName(c.prefix, month)
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	rng := fmt.Sprintf("'%s'!A:H", tab)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	start := fmt.Sprintf("'%s'!A1", tab)
	vr := &gsheet.ValueRange{Values: sheets.Rows(records)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, start, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", start, err)
	}

	c.logger.InfoContext(ctx, "Month mirrored", log.FieldMonth, month, log.FieldRecordCount, len(records))
	return nil
}

// ensureTab adds the tab when the spreadsheet does not have it yet. Known
// tabs are remembered for the life of the client.
func (c *Client) ensureTab(ctx context.Context, tab string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tabs[tab]; ok {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.tabs[sh.Properties.Title] = struct{}{}
		}
	}
	if _, ok := c.tabs[tab]; ok {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", tab, err)
	}
	c.tabs[tab] = struct{}{}
	c.logger.InfoContext(ctx, "Sheet tab created", "tab", tab)
	return nil
}
