package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/core"
	ports "fintrack/internal/sheets"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ ports.Mirror = (*Client)(nil)

// Client mirrors ledger transactions into a single sheet, one row per
// transaction with the ID in column A.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

func New(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// Credentials carries either a service account key or an installed-app
// OAuth client plus a saved token.
type Credentials struct {
	ServiceAccountJSON []byte
	OAuthClientJSON    []byte
	OAuthToken         *oauth2.Token
}

// CredentialsFromConfig reads whichever credential files are configured,
// preferring a service account.
func CredentialsFromConfig(cfg *config.Config) (Credentials, error) {
	switch {
	case strings.TrimSpace(cfg.GoogleServiceAccountJSON) != "":
		return Credentials{ServiceAccountJSON: []byte(cfg.GoogleServiceAccountJSON)}, nil
	case cfg.GoogleServiceAccountFile != "":
		b, err := os.ReadFile(cfg.GoogleServiceAccountFile)
		if err != nil {
			return Credentials{}, fmt.Errorf("read service account file: %w", err)
		}
		return Credentials{ServiceAccountJSON: b}, nil
	case cfg.GoogleOAuthClientFile != "" && cfg.GoogleOAuthTokenFile != "":
		clientJSON, err := os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			return Credentials{}, fmt.Errorf("read oauth client file: %w", err)
		}
		tokenJSON, err := os.ReadFile(cfg.GoogleOAuthTokenFile)
		if err != nil {
			return Credentials{}, fmt.Errorf("read oauth token file: %w", err)
		}
		var tok oauth2.Token
		if err := json.Unmarshal(tokenJSON, &tok); err != nil {
			return Credentials{}, fmt.Errorf("decode oauth token: %w", err)
		}
		return Credentials{OAuthClientJSON: clientJSON, OAuthToken: &tok}, nil
	default:
		return Credentials{}, errors.New("missing google credentials")
	}
}

// TokenSource builds an oauth2 token source for the Sheets scope.
func (c Credentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	switch {
	case len(c.ServiceAccountJSON) > 0:
		jwtCfg, err := goauth.JWTConfigFromJSON(c.ServiceAccountJSON, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("service account config: %w", err)
		}
		return jwtCfg.TokenSource(ctx), nil
	case len(c.OAuthClientJSON) > 0 && c.OAuthToken != nil:
		oauthCfg, err := goauth.ConfigFromJSON(c.OAuthClientJSON, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("oauth config: %w", err)
		}
		return oauthCfg.TokenSource(ctx, c.OAuthToken), nil
	default:
		return nil, errors.New("missing google credentials")
	}
}

// NewFromConfig authenticates and returns a client for the configured sheet.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	if err := cfg.ValidateSheets(); err != nil {
		return nil, err
	}
	creds, err := CredentialsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	// Token refreshes run on the pooled client too.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	ts, err := creds.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets mirror ready",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName,
		"service_account", len(creds.ServiceAccountJSON) > 0)
	return New(svc, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName), nil
}

// newHTTPClientWithPooling keeps connections to the Sheets API warm between
// events.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

func (c *Client) rng(cells string) string {
	return quoteSheet(c.sheetName) + "!" + cells
}

// EnsureHeader writes the header row when A1 does not already hold it.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A1:H1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 && fmt.Sprint(resp.Values[0][0]) == ports.Header[0] {
		return nil
	}
	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rng("A1:H1"), &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// findRow returns the 1-based row holding id, or 0.
func (c *Client) findRow(ctx context.Context, id string) (int, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A:A")).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read id column: %w", err)
	}
	for i, row := range resp.Values {
		if i == 0 || len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (c *Client) Upsert(ctx context.Context, t core.Transaction) (string, error) {
	if t.ID == "" {
		return "", errors.New("upsert: empty transaction id")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	row, err := c.findRow(ctx, t.ID)
	if err != nil {
		return "", err
	}
	vr := &gsheet.ValueRange{Values: [][]any{transactionToRow(t)}}

	if row == 0 {
		resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rng("A:H"), vr).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("append row: %w", err)
		}
		if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
			return resp.Updates.UpdatedRange, nil
		}
		return c.rng("A:H"), nil
	}

	ref := c.rng(fmt.Sprintf("A%d:H%d", row, row))
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("update row %d: %w", row, err)
	}
	return ref, nil
}

// Delete clears the row holding id. The blank row is skipped by
// ListTransactions and reused by later appends.
func (c *Client) Delete(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		slog.DebugContext(ctx, "Transaction not in sheet, nothing to delete", "transaction_id", id)
		return nil
	}
	ref := c.rng(fmt.Sprintf("A%d:H%d", row, row))
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, ref, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear row %d: %w", row, err)
	}
	return nil
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A:H")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	var out []core.Transaction
	for i, row := range resp.Values {
		if i == 0 {
			continue
		}
		t, ok := rowToTransaction(row)
		if !ok {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Replace clears every data row and writes txns below the header.
func (c *Client) Replace(ctx context.Context, txns []core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.EnsureHeader(ctx); err != nil {
		return err
	}
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.rng("A2:H"), &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear rows: %w", err)
	}
	if len(txns) == 0 {
		return nil
	}
	rows := make([][]any, len(txns))
	for i, t := range txns {
		rows[i] = transactionToRow(t)
	}
	ref := c.rng(fmt.Sprintf("A2:H%d", len(rows)+1))
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
