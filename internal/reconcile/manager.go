package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fabrahaingo/CashCrawler/internal/bank"
)

// RequestState tracks one account's position in the reconciliation state
// machine for the current run.
type RequestState string

const (
	// StateNeedsCheck is the initial state before remote state is inspected.
	StateNeedsCheck RequestState = "needs_check"
	// StateReusable means an existing remote request exactly matches today's
	// window and can serve as-is.
	StateReusable RequestState = "reusable"
	// StateNeedsCreate means a fresh request must be issued.
	StateNeedsCreate RequestState = "needs_create"
	// StateReady means a request exists for today's window and can be
	// exchanged for an export.
	StateReady RequestState = "ready"
	// StateUnavailable means no request materialized after the preparation
	// wait; the account is skipped for this run.
	StateUnavailable RequestState = "unavailable"
	// StateFailed means the request was ready but the export could not be
	// prepared, fetched, or archived.
	StateFailed RequestState = "failed"
)

// AccountPlan is the manager's verdict for one account.
type AccountPlan struct {
	Account   bank.Account
	State     RequestState
	RequestID string
}

// Manager reconciles remote download-request state for a set of accounts.
//
// The remote requests are server-owned shared state: a previous run, a
// browser session, or a concurrent invocation may all have created some.
// The manager only observes and creates, never deletes.
type Manager struct {
	conn   bank.Connector
	window bank.Window
	// prepWait is the single fixed wait granted for asynchronous server-side
	// preparation. There is no polling loop; this is a latency assumption,
	// not a guarantee.
	prepWait time.Duration
	// createPause spaces consecutive create calls as a politeness measure
	// toward the source's rate limits.
	createPause time.Duration
	log         *slog.Logger

	sleep func(time.Duration)
}

// NewManager builds a manager for one run's window.
func NewManager(conn bank.Connector, window bank.Window, prepWait, createPause time.Duration, log *slog.Logger) *Manager {
	return &Manager{
		conn:        conn,
		window:      window,
		prepWait:    prepWait,
		createPause: createPause,
		log:         log,
		sleep:       time.Sleep,
	}
}

// inspection is the read-only half of reconciliation: the retained request
// per account and whether all of them can be reused.
type inspection struct {
	retained map[string]bank.DownloadRequest
	reusable bool
}

// Inspect queries remote state without side effects and decides reusability.
//
// For each target account only the single most relevant listed request is
// retained (first seen wins, honoring the server's most-recent-first
// ordering). The reuse test is all-or-nothing: every target account must
// hold a retained request whose window equals today's window exactly.
// Recreating for all accounts when even one is stale trades extra requests
// for a simpler protocol; that trade-off is deliberate.
func (m *Manager) Inspect(ctx context.Context, auth string, accounts []bank.Account) (*inspection, error) {
	requests, err := m.conn.ListDownloadRequests(ctx, auth)
	if err != nil {
		return nil, fmt.Errorf("list download requests: %w", err)
	}
	retained := retainPerAccount(requests, accounts)

	reusable := true
	for _, acct := range accounts {
		req, ok := retained[acct.ID]
		if !ok || !req.Window().Equal(m.window) {
			reusable = false
			break
		}
	}
	m.log.Debug("remote requests inspected",
		"listed", len(requests),
		"retained", len(retained),
		"reusable", reusable)
	return &inspection{retained: retained, reusable: reusable}, nil
}

// Reconcile drives every account to Ready or Unavailable.
//
// Reusable state short-circuits to Ready with the retained request ids.
// Otherwise a create-request is issued for every account (failures on one
// account never block the others), a fixed preparation wait elapses, and the
// request list is re-queried exactly once. Accounts with no matching request
// after the re-query end Unavailable.
//
// Fatal: when zero create calls succeed no export is possible anywhere and
// the whole run aborts.
func (m *Manager) Reconcile(ctx context.Context, auth string, accounts []bank.Account) ([]AccountPlan, error) {
	insp, err := m.Inspect(ctx, auth, accounts)
	if err != nil {
		return nil, err
	}

	if insp.reusable {
		plans := make([]AccountPlan, 0, len(accounts))
		for _, acct := range accounts {
			plans = append(plans, AccountPlan{
				Account:   acct,
				State:     StateReady,
				RequestID: insp.retained[acct.ID].RequestID,
			})
		}
		m.log.Info("reusing existing download requests", "accounts", len(plans))
		return plans, nil
	}

	created := 0
	for i, acct := range accounts {
		if i > 0 && m.createPause > 0 {
			m.sleep(m.createPause)
		}
		if err := m.conn.CreateDownloadRequest(ctx, auth, acct.ID, m.window); err != nil {
			m.log.Warn("create download request failed",
				"account", acct.Name, "error", err)
			continue
		}
		created++
	}
	if created == 0 {
		return nil, newError(ErrCodeAllCreatesFailed, "no download request could be created for any account")
	}
	m.log.Info("download requests created", "succeeded", created, "total", len(accounts))

	// Server-side preparation is asynchronous; grant it one fixed delay,
	// then verify with a single re-query.
	m.sleep(m.prepWait)

	requests, err := m.conn.ListDownloadRequests(ctx, auth)
	if err != nil {
		return nil, fmt.Errorf("verify download requests: %w", err)
	}
	retained := retainPerAccount(requests, accounts)

	plans := make([]AccountPlan, 0, len(accounts))
	for _, acct := range accounts {
		req, ok := retained[acct.ID]
		if !ok {
			m.log.Warn("download request never appeared", "account", acct.Name)
			plans = append(plans, AccountPlan{Account: acct, State: StateUnavailable})
			continue
		}
		plans = append(plans, AccountPlan{Account: acct, State: StateReady, RequestID: req.RequestID})
	}
	return plans, nil
}

// retainPerAccount keeps the first listed request per target account.
func retainPerAccount(requests []bank.DownloadRequest, accounts []bank.Account) map[string]bank.DownloadRequest {
	targets := make(map[string]struct{}, len(accounts))
	for _, acct := range accounts {
		targets[acct.ID] = struct{}{}
	}
	retained := make(map[string]bank.DownloadRequest)
	for _, req := range requests {
		if _, isTarget := targets[req.AccountID]; !isTarget {
			continue
		}
		if _, have := retained[req.AccountID]; have {
			continue
		}
		retained[req.AccountID] = req
	}
	return retained
}
