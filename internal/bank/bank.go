// Package bank defines the contract between the reconciliation engine and a
// bank source. Each supported bank is a self-contained connector implementing
// the capability set in Connector; the engine itself never knows which bank
// it is talking to.
package bank

import (
	"context"
	"time"
)

// Account identifies one account at the bank: a stable contract identifier on
// the remote side plus the human-readable label shown to the customer.
// Accounts are enumerated fresh on every login and are never persisted as
// records of their own; the label keys the local archive, the contract ID
// keys every remote call.
type Account struct {
	ID   string
	Name string
}

// Session is the result of a successful login.
//
// ObservedAuthorization is an authorization header value seen on an in-flight
// request while the login was performed. When present it is authoritative.
// Storage is a snapshot of the key/value session storage accumulated during
// login; the credential resolver scans it when no authorization value was
// observed directly.
type Session struct {
	ObservedAuthorization string
	Storage               map[string]string
	Accounts              []Account
}

// Window is the inclusive [Start, End] date range an export should cover.
// Only the calendar date matters; time-of-day components are ignored.
type Window struct {
	Start time.Time
	End   time.Time
}

// Equal reports whether both windows cover the same calendar dates.
func (w Window) Equal(other Window) bool {
	return sameDate(w.Start, other.Start) && sameDate(w.End, other.End)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DownloadRequest is a server-owned resource representing a prepared export
// for one account and window. The engine observes and creates these, never
// mutates or deletes them; several may exist per account over time.
type DownloadRequest struct {
	AccountID   string
	RequestID   string
	WindowStart time.Time
	WindowEnd   time.Time
	PreparedAt  time.Time
}

// Window returns the request's export window.
func (r DownloadRequest) Window() Window {
	return Window{Start: r.WindowStart, End: r.WindowEnd}
}

// ExportMetadata describes the most recent prior export known to the server
// for one account. The engine uses it only to discover per-account contract
// identifiers, never for reconciliation decisions.
type ExportMetadata struct {
	AccountID   string
	AccountName string
}

// Connector is the capability set a bank source must provide.
//
// Authenticate establishes a session; it is the only operation that does not
// take an authorization value. All other operations receive the value
// produced by the credential resolver, which may be empty — connectors must
// still issue the call and let the server reject it.
type Connector interface {
	// Authenticate logs in and returns the session, including the freshly
	// enumerated account listing.
	Authenticate(ctx context.Context) (*Session, error)

	// LastExportMetadata returns per-account metadata from the most recent
	// prior export, if any.
	LastExportMetadata(ctx context.Context, auth string) ([]ExportMetadata, error)

	// ListDownloadRequests returns every download-request resource the server
	// currently holds, most relevant first.
	ListDownloadRequests(ctx context.Context, auth string) ([]DownloadRequest, error)

	// CreateDownloadRequest asks the server to prepare an export of the given
	// window for one account. Preparation is asynchronous; a nil error means
	// the request was accepted, not that the export is ready.
	CreateDownloadRequest(ctx context.Context, auth string, accountID string, window Window) error

	// PrepareDownload exchanges a ready request for a transient, single-use
	// export URL.
	PrepareDownload(ctx context.Context, auth string, requestID string) (string, error)

	// FetchExport retrieves the raw export content behind a transient URL.
	FetchExport(ctx context.Context, auth string, exportURL string) (string, error)
}
