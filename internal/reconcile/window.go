package reconcile

import (
	"time"

	"github.com/fabrahaingo/CashCrawler/internal/bank"
)

// CurrentWindow computes the reconciliation window for a run starting now:
// the window ends today and starts a fixed lookback earlier — the source's
// ceiling on how far back a single export can reach, independent of how far
// the local archive has accumulated.
//
// A request prepared for any other window, even one whose end date lags by a
// single day, is stale for this run.
func CurrentWindow(now time.Time, lookbackDays int) bank.Window {
	today := truncateToDate(now)
	return bank.Window{
		Start: today.AddDate(0, 0, -lookbackDays),
		End:   today,
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
