package reconcile

import (
	"os"
	"time"

	"github.com/fabrahaingo/CashCrawler/internal/archive"
	"github.com/fabrahaingo/CashCrawler/internal/bank"
)

// ArchivesFreshToday reports whether every account already has an archive
// file whose last-modified date is today's calendar date.
//
// This is an optimization, not a correctness guarantee: it trusts filesystem
// timestamps as a proxy for "already reconciled today", which only holds
// under the single-process assumption. Any missing file or older timestamp
// means reconciliation must run. Read-only.
func ArchivesFreshToday(root, bankID string, accounts []bank.Account, now time.Time) bool {
	for _, acct := range accounts {
		existing, err := archive.FindExisting(archive.AccountDir(root, bankID, acct.Name))
		if err != nil || existing == nil {
			return false
		}
		info, err := os.Stat(existing.Path)
		if err != nil {
			return false
		}
		if !sameCalendarDate(info.ModTime(), now) {
			return false
		}
	}
	return true
}

func sameCalendarDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
