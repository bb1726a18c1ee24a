// Package google writes collections to a Google spreadsheet, one tab
// per collection, using a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/log"
	"github.com/BurairCodes/Expense-tracker/internal/sheets"
)

type Config struct {
	SpreadsheetID string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger

	// known caches tab names that exist so each export does not
	// re-fetch spreadsheet metadata.
	mu    sync.Mutex
	known map[string]bool
}

var _ sheets.Exporter = (*Client)(nil)

// New creates a Sheets client from service account credentials. Extra
// client options are appended after the credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	var clientOpts []goption.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		clientOpts = append(clientOpts, goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(filepath.Clean(cfg.CredentialsFile))
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(data))
	case len(opts) == 0:
		return nil, errors.New("missing service account credentials")
	}
	clientOpts = append(clientOpts, goption.WithScopes(gsheet.SpreadsheetsScope))
	clientOpts = append(clientOpts, opts...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
		known:         make(map[string]bool),
	}, nil
}

// Export rewrites the collection's tab with the given records.
func (c *Client) Export(ctx context.Context, kind core.Kind, records []core.Record) error {
	if !kind.IsValid() {
		return core.ErrInvalidKind
	}
	start := time.Now()
	name := sheets.SheetName(kind)

	if err := c.ensureSheet(ctx, name); err != nil {
		return err
	}

	rng := fmt.Sprintf("%s!A:I", name)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", name, err)
	}

	rows := sheets.Rows(records)
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("%s!A1", name), vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	c.logger.InfoContext(ctx, "Sheet exported",
		"sheet", name,
		"rows", len(records),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// ensureSheet adds the tab when the spreadsheet does not have it yet.
func (c *Client) ensureSheet(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.known[name] {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.known[sh.Properties.Title] = true
		}
	}
	if c.known[name] {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	c.logger.InfoContext(ctx, "Sheet created", "sheet", name)
	c.known[name] = true
	return nil
}
