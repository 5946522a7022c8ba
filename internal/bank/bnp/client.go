// Package bnp implements the bank.Connector contract against the BNP
// customer-area JSON API.
package bnp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fabrahaingo/CashCrawler/internal/bank"
)

// API paths under the customer-area base URL.
const (
	pathLogin          = "/auth/session"
	pathExportMetadata = "/export/metadata/latest"
	pathRequests       = "/export/requests"
)

// wireDate is the date form the API speaks.
const wireDate = "2006-01-02"

// Client talks to the BNP customer-area API over HTTPS with bearer
// authorization and a correlation id per request.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	clientNumber string
	clientSecret string
	userAgent    string
}

// New builds a client from a source configuration.
func New(cfg bank.SourceConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("bnp: base URL is required")
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: timeout},
		clientNumber: cfg.ClientNumber,
		clientSecret: cfg.ClientSecret,
		userAgent:    "CashCrawler",
	}, nil
}

// HTTPError is a non-success response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

type loginRequest struct {
	ClientNumber string `json:"clientNumber"`
	ClientSecret string `json:"clientSecret"`
}

type loginResponse struct {
	Accounts []struct {
		ContractID string `json:"contractId"`
		Label      string `json:"label"`
	} `json:"accounts"`
	SessionStorage map[string]string `json:"sessionStorage"`
}

// Authenticate logs in and snapshots what the login leaves behind: the
// enumerated accounts, the session storage, and any authorization header
// observed on the login exchange itself.
func (c *Client) Authenticate(ctx context.Context) (*bank.Session, error) {
	if c.clientNumber == "" || c.clientSecret == "" {
		return nil, fmt.Errorf("bnp: client credentials are not set")
	}
	body, err := json.Marshal(loginRequest{ClientNumber: c.clientNumber, ClientSecret: c.clientSecret})
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+pathLogin, "", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bnp: login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: "login rejected"}
	}

	var decoded loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("bnp: decode login response: %w", err)
	}

	sess := &bank.Session{
		ObservedAuthorization: resp.Header.Get("Authorization"),
		Storage:               decoded.SessionStorage,
	}
	for _, acct := range decoded.Accounts {
		sess.Accounts = append(sess.Accounts, bank.Account{ID: acct.ContractID, Name: acct.Label})
	}
	return sess, nil
}

type metadataResponse struct {
	Accounts []struct {
		AccountID   string `json:"accountId"`
		AccountName string `json:"accountName"`
	} `json:"accounts"`
}

// LastExportMetadata returns per-account identifiers from the most recent
// prior export.
func (c *Client) LastExportMetadata(ctx context.Context, auth string) ([]bank.ExportMetadata, error) {
	var decoded metadataResponse
	if err := c.getJSON(ctx, auth, c.baseURL+pathExportMetadata, &decoded); err != nil {
		return nil, fmt.Errorf("bnp: last export metadata: %w", err)
	}
	meta := make([]bank.ExportMetadata, 0, len(decoded.Accounts))
	for _, a := range decoded.Accounts {
		meta = append(meta, bank.ExportMetadata{AccountID: a.AccountID, AccountName: a.AccountName})
	}
	return meta, nil
}

type requestsResponse struct {
	Requests []wireRequest `json:"requests"`
}

type wireRequest struct {
	AccountID   string `json:"accountId"`
	RequestID   string `json:"requestId"`
	WindowStart string `json:"windowStart"`
	WindowEnd   string `json:"windowEnd"`
	PreparedAt  string `json:"preparedAt"`
}

// ListDownloadRequests returns every download request the server holds,
// preserving the server's most-recent-first ordering.
func (c *Client) ListDownloadRequests(ctx context.Context, auth string) ([]bank.DownloadRequest, error) {
	var decoded requestsResponse
	if err := c.getJSON(ctx, auth, c.baseURL+pathRequests, &decoded); err != nil {
		return nil, fmt.Errorf("bnp: list download requests: %w", err)
	}
	out := make([]bank.DownloadRequest, 0, len(decoded.Requests))
	for _, w := range decoded.Requests {
		req := bank.DownloadRequest{AccountID: w.AccountID, RequestID: w.RequestID}
		req.WindowStart, _ = time.ParseInLocation(wireDate, w.WindowStart, time.UTC)
		req.WindowEnd, _ = time.ParseInLocation(wireDate, w.WindowEnd, time.UTC)
		if w.PreparedAt != "" {
			req.PreparedAt, _ = time.Parse(time.RFC3339, w.PreparedAt)
		}
		out = append(out, req)
	}
	return out, nil
}

type createRequestBody struct {
	AccountID   string `json:"accountId"`
	WindowStart string `json:"windowStart"`
	WindowEnd   string `json:"windowEnd"`
}

// CreateDownloadRequest asks the server to prepare an export for one account
// and window. Acceptance is asynchronous.
func (c *Client) CreateDownloadRequest(ctx context.Context, auth string, accountID string, window bank.Window) error {
	body, err := json.Marshal(createRequestBody{
		AccountID:   accountID,
		WindowStart: window.Start.Format(wireDate),
		WindowEnd:   window.End.Format(wireDate),
	})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+pathRequests, auth, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bnp: create download request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Message: "create download request rejected"}
	}
	return nil
}

type prepareResponse struct {
	ExportURL string `json:"exportUrl"`
}

// PrepareDownload exchanges a ready request for its transient export URL.
// A malformed payload or an absent URL field is an error; the engine treats
// it as a soft per-account failure.
func (c *Client) PrepareDownload(ctx context.Context, auth string, requestID string) (string, error) {
	url := fmt.Sprintf("%s%s/%s/prepare", c.baseURL, pathRequests, requestID)
	req, err := c.newRequest(ctx, http.MethodPost, url, auth, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("bnp: prepare download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Message: "prepare download rejected"}
	}
	var decoded prepareResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("bnp: prepare download: malformed response: %w", err)
	}
	if strings.TrimSpace(decoded.ExportURL) == "" {
		return "", fmt.Errorf("bnp: prepare download: response carries no export url")
	}
	return decoded.ExportURL, nil
}

// FetchExport retrieves the raw export content behind a transient URL. The
// URL is single-use; the caller gets exactly one attempt.
func (c *Client) FetchExport(ctx context.Context, auth string, exportURL string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, exportURL, auth, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("bnp: fetch export: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Message: "export fetch rejected"}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("bnp: fetch export: %w", err)
	}
	return string(raw), nil
}

// getJSON performs an authorized GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, auth, url string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, url, auth, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

// newRequest builds a request with the shared headers. auth may be empty;
// the call still goes out and the server rejects it.
func (c *Client) newRequest(ctx context.Context, method, url, auth string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Accept", "application/json, text/csv")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Correlation-Id", uuid.NewString())
	return req, nil
}
