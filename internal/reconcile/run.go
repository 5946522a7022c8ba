package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fabrahaingo/CashCrawler/internal/bank"
	"github.com/fabrahaingo/CashCrawler/internal/session"
)

// Config carries every tunable the engine needs. It is passed in at
// construction; the engine holds no package-level state.
type Config struct {
	BankID string
	// ArchiveRoot is the directory under which per-bank, per-account
	// archives live.
	ArchiveRoot string
	// LookbackDays is the source-imposed ceiling on how far back a single
	// export can reach.
	LookbackDays int
	// PreparationWait is the fixed delay granted for asynchronous
	// server-side export preparation.
	PreparationWait time.Duration
	// CreatePause spaces consecutive create-request calls.
	CreatePause time.Duration
	// DryRun reports what would happen without issuing create calls or
	// touching archives.
	DryRun bool
}

// Run outcome values recorded in the ledger.
const (
	OutcomeCompleted = "completed"
	OutcomeFresh     = "fresh"
	OutcomeDryRun    = "dry-run"
	OutcomeFailed    = "failed"
)

// Run is one engine invocation as recorded in the run ledger.
type Run struct {
	ID         string
	BankID     string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	Total      int
	Succeeded  int
	Skipped    int
	Error      string
}

// AccountResult is the per-account outcome of a run.
type AccountResult struct {
	Account     string
	State       RequestState
	ArchivePath string
}

// Ledger records run history. The engine treats it as append-only.
type Ledger interface {
	RecordRun(ctx context.Context, run Run) error
	RecordAccountResults(ctx context.Context, runID string, results []AccountResult) error
}

// Summary is what a run reports back to the caller.
type Summary struct {
	RunID       string          `json:"run_id"`
	BankID      string          `json:"bank_id"`
	Fresh       bool            `json:"fresh,omitempty"`
	DryRun      bool            `json:"dry_run,omitempty"`
	Reusable    bool            `json:"reusable,omitempty"`
	Total       int             `json:"total"`
	Succeeded   int             `json:"succeeded"`
	Unavailable int             `json:"unavailable"`
	Failed      int             `json:"failed"`
	Results     []AccountResult `json:"results,omitempty"`
}

// Engine acquires a bounded-window transaction export for every account of
// one bank and accumulates it into the unbounded local archive.
//
// The flow is strictly sequential: freshness guard, login, credential
// resolution, remote request reconciliation, export fetch, merge. Accounts
// are processed in the order the login enumerated them; per-account failures
// never abort the run.
type Engine struct {
	cfg    Config
	conn   bank.Connector
	ledger Ledger
	log    *slog.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// New builds an engine. ledger may be nil when no run history is wanted.
func New(cfg Config, conn bank.Connector, ledger Ledger, log *slog.Logger) (*Engine, error) {
	if cfg.BankID == "" {
		return nil, newError(ErrCodeConfig, "bank id is required")
	}
	if cfg.ArchiveRoot == "" {
		return nil, newError(ErrCodeConfig, "archive root is required")
	}
	if cfg.LookbackDays <= 0 {
		return nil, newError(ErrCodeConfig, "lookback days must be positive")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		conn:   conn,
		ledger: ledger,
		log:    log.With("bank", cfg.BankID),
		now:    time.Now,
		sleep:  time.Sleep,
	}, nil
}

// Run executes one reconciliation pass and returns its summary.
//
// Cancellation is caller-level only: the context is threaded through every
// network call, but remote requests created before a cancellation are not
// rolled back.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	started := e.now()
	summary := Summary{
		RunID:  uuid.Must(uuid.NewV7()).String(),
		BankID: e.cfg.BankID,
		DryRun: e.cfg.DryRun,
	}

	sess, err := e.conn.Authenticate(ctx)
	if err != nil {
		e.record(ctx, summary, started, OutcomeFailed, err)
		return summary, err
	}
	accounts := sess.Accounts
	summary.Total = len(accounts)
	e.log.Info("authenticated", "accounts", len(accounts))

	if ArchivesFreshToday(e.cfg.ArchiveRoot, e.cfg.BankID, accounts, e.now()) {
		summary.Fresh = true
		e.log.Info("archives already reconciled today, nothing to do")
		e.record(ctx, summary, started, OutcomeFresh, nil)
		return summary, nil
	}

	auth, ok := session.ResolveAuthorization(sess)
	if !ok {
		// Soft: proceed without authorization and let downstream calls
		// surface the failure.
		e.log.Warn("no authorization value resolved from session",
			"code", string(ErrCodeAuthUnresolved))
	}

	accounts = e.backfillAccountIDs(ctx, auth, accounts)

	window := CurrentWindow(e.now(), e.cfg.LookbackDays)
	mgr := NewManager(e.conn, window, e.cfg.PreparationWait, e.cfg.CreatePause, e.log)
	mgr.sleep = e.sleep

	if e.cfg.DryRun {
		insp, err := mgr.Inspect(ctx, auth, accounts)
		if err != nil {
			e.record(ctx, summary, started, OutcomeFailed, err)
			return summary, err
		}
		summary.Reusable = insp.reusable
		e.record(ctx, summary, started, OutcomeDryRun, nil)
		return summary, nil
	}

	plans, err := mgr.Reconcile(ctx, auth, accounts)
	if err != nil {
		e.record(ctx, summary, started, OutcomeFailed, err)
		return summary, err
	}

	results := e.fetchAndMerge(ctx, auth, window, plans)
	for _, res := range results {
		switch res.State {
		case StateReady:
			summary.Succeeded++
		case StateUnavailable:
			summary.Unavailable++
		case StateFailed:
			summary.Failed++
		}
	}
	summary.Results = results

	e.log.Info("run finished",
		"succeeded", summary.Succeeded,
		"unavailable", summary.Unavailable,
		"failed", summary.Failed)
	e.record(ctx, summary, started, OutcomeCompleted, nil)
	return summary, nil
}

// backfillAccountIDs fills missing contract identifiers from the most recent
// prior export's metadata. A failed metadata call is not fatal; accounts
// keep whatever identifiers the login produced.
func (e *Engine) backfillAccountIDs(ctx context.Context, auth string, accounts []bank.Account) []bank.Account {
	missing := false
	for _, acct := range accounts {
		if acct.ID == "" {
			missing = true
			break
		}
	}
	if !missing {
		return accounts
	}
	meta, err := e.conn.LastExportMetadata(ctx, auth)
	if err != nil {
		e.log.Warn("last export metadata unavailable", "error", err)
		return accounts
	}
	byName := make(map[string]string, len(meta))
	for _, m := range meta {
		byName[m.AccountName] = m.AccountID
	}
	out := make([]bank.Account, len(accounts))
	copy(out, accounts)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = byName[out[i].Name]
		}
	}
	return out
}

func (e *Engine) record(ctx context.Context, s Summary, started time.Time, outcome string, runErr error) {
	if e.ledger == nil {
		return
	}
	run := Run{
		ID:         s.RunID,
		BankID:     s.BankID,
		StartedAt:  started,
		FinishedAt: e.now(),
		Outcome:    outcome,
		Total:      s.Total,
		Succeeded:  s.Succeeded,
		Skipped:    s.Unavailable + s.Failed,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := e.ledger.RecordRun(ctx, run); err != nil {
		e.log.Warn("run ledger write failed", "error", err)
		return
	}
	if len(s.Results) > 0 {
		if err := e.ledger.RecordAccountResults(ctx, run.ID, s.Results); err != nil {
			e.log.Warn("account result ledger write failed", "error", err)
		}
	}
}

// IsFatal reports whether err aborts a run rather than skipping an account.
func IsFatal(err error) bool {
	var rerr *ReconcileError
	if errors.As(err, &rerr) {
		return rerr.Code == ErrCodeAllCreatesFailed || rerr.Code == ErrCodeConfig
	}
	return err != nil
}
