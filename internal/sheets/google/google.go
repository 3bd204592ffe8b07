package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"

	ports "viaggi/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Budgets"

// Options configures the Sheets client. Credentials come from
// ServiceAccountJSON or ServiceAccountFile unless HTTPClient is set.
type Options struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string

	// HTTPClient, when set, is used as-is and must already authenticate.
	HTTPClient *http.Client
	// Endpoint overrides the API base URL.
	Endpoint string
	// RowCacheTTL bounds how long the trip id to row mapping is trusted.
	RowCacheTTL time.Duration
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// Row index cache: trip id -> 1-based sheet row.
	mu                 sync.Mutex
	rows               map[string]int
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
	sheetID            *int64
}

// Ensure interface conformance
var (
	_ ports.BudgetExporter = (*Client)(nil)
	_ ports.BudgetLister   = (*Client)(nil)
)

// New creates a Sheets client for the budget sheet.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	ttl := opts.RowCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		var err error
		httpClient, err = newServiceAccountClient(ctx, opts)
		if err != nil {
			return nil, err
		}
	}

	clientOpts := []goption.ClientOption{goption.WithHTTPClient(httpClient)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, goption.WithEndpoint(opts.Endpoint))
	}
	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		sheetName:          sheetName,
		rows:               make(map[string]int),
		cacheValidDuration: ttl,
	}, nil
}

// newServiceAccountClient builds an authenticated HTTP client from service
// account credentials, on top of a pooled transport.
func newServiceAccountClient(ctx context.Context, opts Options) (*http.Client, error) {
	credentialsJSON, err := readCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}

	cfg, err := oauthgoogle.JWTConfigFromJSON(credentialsJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	base := newHTTPClientWithPooling()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, cfg.TokenSource(ctx))
	client.Timeout = base.Timeout

	slog.InfoContext(ctx, "Google Sheets client created with service account",
		"client_email", cfg.Email)
	return client, nil
}

func readCredentials(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.ServiceAccountJSON)
	file := strings.TrimSpace(opts.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// UpsertTripBudget writes the budget row of a trip, appending it when the
// trip has no row yet. The header row is written to an empty sheet first.
func (c *Client) UpsertTripBudget(ctx context.Context, row ports.BudgetRow) (string, error) {
	if strings.TrimSpace(row.TripID) == "" {
		return "", errors.New("budget row without trip id")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rowNum, found, count, err := c.locate(ctx, row.TripID)
	if err != nil {
		return "", err
	}
	if count == 0 {
		if err := c.writeRow(ctx, 1, headerCells()); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		count = 1
	}
	if !found {
		rowNum = count + 1
	}

	if err := c.writeRow(ctx, rowNum, row.Cells()); err != nil {
		c.invalidateRowCache()
		return "", err
	}

	c.mu.Lock()
	c.rows[row.TripID] = rowNum
	if rowNum > c.cachedRowCount {
		c.cachedRowCount = rowNum
	}
	c.mu.Unlock()

	return fmt.Sprintf("%s!A%d:K%d", c.sheetName, rowNum, rowNum), nil
}

// valueInputOption stores cells exactly as sent. Trip names are user input,
// so the sheet must never evaluate them as formulas.
const valueInputOption = "RAW"

func (c *Client) writeRow(ctx context.Context, rowNum int, cells []any) error {
	rng := fmt.Sprintf("%s!A%d:K%d", c.sheetName, rowNum, rowNum)
	vr := &gsheet.ValueRange{Values: [][]any{cells}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return nil
}

// DeleteTripBudget removes the row of a trip and shifts the rows below it up.
func (c *Client) DeleteTripBudget(ctx context.Context, tripID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rowNum, found, _, err := c.locate(ctx, tripID)
	if err != nil {
		return err
	}
	if !found {
		slog.DebugContext(ctx, "No budget row to delete", "trip_id", tripID)
		return nil
	}

	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowNum - 1),
					EndIndex:   int64(rowNum),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", rowNum, c.sheetName, err)
	}

	// Rows below the deleted one moved.
	c.invalidateRowCache()
	slog.InfoContext(ctx, "Deleted budget row", "trip_id", tripID, "row", rowNum)
	return nil
}

// ListTripBudgets reads every data row of the budget sheet. Rows that cannot
// be parsed are skipped.
func (c *Client) ListTripBudgets(ctx context.Context) ([]ports.BudgetRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:K", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([]ports.BudgetRow, 0, len(resp.Values))
	for i, cells := range resp.Values {
		row, err := parseBudgetRow(cells)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable budget row", "row", i+2, "error", err)
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// locate returns the sheet row of tripID, whether it was found and the
// number of non-empty rows in column A.
func (c *Client) locate(ctx context.Context, tripID string) (int, bool, int, error) {
	c.mu.Lock()
	if time.Now().Before(c.cacheExpiresAt) {
		row, ok := c.rows[tripID]
		count := c.cachedRowCount
		c.mu.Unlock()
		return row, ok, count, nil
	}
	c.mu.Unlock()

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, false, 0, fmt.Errorf("failed to read trip ids from %s: %w", c.sheetName, err)
	}
	rows := indexTripRows(resp.Values)

	c.mu.Lock()
	c.rows = rows
	c.cachedRowCount = len(resp.Values)
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	row, ok := c.rows[tripID]
	count := c.cachedRowCount
	c.mu.Unlock()

	return row, ok, count, nil
}

func (c *Client) invalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheExpiresAt = time.Time{}
}

func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	if c.sheetID != nil {
		id := *c.sheetID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	sp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet properties: %w", err)
	}
	for _, sh := range sp.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			id := sh.Properties.SheetId
			c.mu.Lock()
			c.sheetID = &id
			c.mu.Unlock()
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

func headerCells() []any {
	out := make([]any, len(ports.BudgetHeader))
	for i, h := range ports.BudgetHeader {
		out[i] = h
	}
	return out
}
