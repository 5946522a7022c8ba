package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/fabrahaingo/CashCrawler/internal/bank"
)

// fakeConnector is a scripted bank.Connector for tests. Every call is
// recorded so tests can assert on exactly which remote operations ran.
type fakeConnector struct {
	mu sync.Mutex

	sess    *bank.Session
	authErr error

	meta    []bank.ExportMetadata
	metaErr error

	// listBatches is consumed one batch per ListDownloadRequests call; the
	// last batch repeats once exhausted.
	listBatches [][]bank.DownloadRequest
	listErr     error
	listCalls   int

	createErrs  map[string]error // accountID -> error
	createCalls []string

	prepareURLs  map[string]string // requestID -> export URL
	prepareErrs  map[string]error
	prepareCalls []string

	exports    map[string]string // export URL -> raw content
	fetchErrs  map[string]error
	fetchCalls []string
}

func (f *fakeConnector) Authenticate(ctx context.Context) (*bank.Session, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.sess, nil
}

func (f *fakeConnector) LastExportMetadata(ctx context.Context, auth string) ([]bank.ExportMetadata, error) {
	return f.meta, f.metaErr
}

func (f *fakeConnector) ListDownloadRequests(ctx context.Context, auth string) ([]bank.DownloadRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	idx := f.listCalls
	f.listCalls++
	if len(f.listBatches) == 0 {
		return nil, nil
	}
	if idx >= len(f.listBatches) {
		idx = len(f.listBatches) - 1
	}
	return f.listBatches[idx], nil
}

func (f *fakeConnector) CreateDownloadRequest(ctx context.Context, auth string, accountID string, window bank.Window) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, accountID)
	if err, ok := f.createErrs[accountID]; ok {
		return err
	}
	return nil
}

func (f *fakeConnector) PrepareDownload(ctx context.Context, auth string, requestID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepareCalls = append(f.prepareCalls, requestID)
	if err, ok := f.prepareErrs[requestID]; ok {
		return "", err
	}
	url, ok := f.prepareURLs[requestID]
	if !ok {
		return "", fmt.Errorf("no export url scripted for request %s", requestID)
	}
	return url, nil
}

func (f *fakeConnector) FetchExport(ctx context.Context, auth string, exportURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls = append(f.fetchCalls, exportURL)
	if err, ok := f.fetchErrs[exportURL]; ok {
		return "", err
	}
	content, ok := f.exports[exportURL]
	if !ok {
		return "", fmt.Errorf("no export scripted for url %s", exportURL)
	}
	return content, nil
}

// fakeLedger records ledger writes in memory.
type fakeLedger struct {
	runs    []Run
	results map[string][]AccountResult
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{results: map[string][]AccountResult{}}
}

func (l *fakeLedger) RecordRun(ctx context.Context, run Run) error {
	l.runs = append(l.runs, run)
	return nil
}

func (l *fakeLedger) RecordAccountResults(ctx context.Context, runID string, results []AccountResult) error {
	l.results[runID] = append(l.results[runID], results...)
	return nil
}
