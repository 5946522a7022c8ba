package store

import (
	"context"
	"fmt"
	"time"

	"github.com/fabrahaingo/CashCrawler/internal/reconcile"
)

// timeLayout stores timestamps as RFC 3339 text, sortable lexically.
const timeLayout = time.RFC3339

// RecordRun inserts one run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate run ids are
// silently ignored.
func (s *Store) RecordRun(ctx context.Context, run reconcile.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, bank_id, started_at, finished_at, outcome, accounts_total, accounts_succeeded, accounts_skipped, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.BankID,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Outcome,
		run.Total,
		run.Succeeded,
		run.Skipped,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// RecordAccountResults inserts the per-account outcomes of one run.
func (s *Store) RecordAccountResults(ctx context.Context, runID string, results []reconcile.AccountResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record account results: %w", err)
	}
	defer tx.Rollback()

	for _, res := range results {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO account_results (run_id, account_name, state, archive_path)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(run_id, account_name) DO NOTHING
		`, runID, res.Account, string(res.State), res.ArchivePath)
		if err != nil {
			return fmt.Errorf("record account result: %w", err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]reconcile.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bank_id, started_at, finished_at, outcome,
		       accounts_total, accounts_succeeded, accounts_skipped, error
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var runs []reconcile.Run
	for rows.Next() {
		var run reconcile.Run
		var started, finished string
		if err := rows.Scan(&run.ID, &run.BankID, &started, &finished, &run.Outcome,
			&run.Total, &run.Succeeded, &run.Skipped, &run.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AccountResults returns the per-account outcomes recorded for one run, in
// account-name order.
func (s *Store) AccountResults(ctx context.Context, runID string) ([]reconcile.AccountResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_name, state, archive_path
		FROM account_results
		WHERE run_id = ?
		ORDER BY account_name ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("account results: %w", err)
	}
	defer rows.Close()

	var results []reconcile.AccountResult
	for rows.Next() {
		var res reconcile.AccountResult
		var state string
		if err := rows.Scan(&res.Account, &state, &res.ArchivePath); err != nil {
			return nil, fmt.Errorf("scan account result: %w", err)
		}
		res.State = reconcile.RequestState(state)
		results = append(results, res)
	}
	return results, rows.Err()
}
