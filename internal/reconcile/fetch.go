package reconcile

import (
	"context"

	"github.com/fabrahaingo/CashCrawler/internal/archive"
	"github.com/fabrahaingo/CashCrawler/internal/bank"
)

// fetchAndMerge turns every Ready plan into an archived export.
//
// Per account: exchange the request for a transient export URL, fetch the
// raw content, decode it to UTF-8, merge it into the existing archive, and
// persist under the anchor-dated filename. Any failure along the way is a
// soft, per-account failure; the remaining accounts still proceed.
func (e *Engine) fetchAndMerge(ctx context.Context, auth string, window bank.Window, plans []AccountPlan) []AccountResult {
	results := make([]AccountResult, 0, len(plans))
	for _, plan := range plans {
		res := AccountResult{Account: plan.Account.Name, State: plan.State}
		if plan.State != StateReady {
			results = append(results, res)
			continue
		}

		path, err := e.downloadOne(ctx, auth, window, plan)
		if err != nil {
			e.log.Warn("account download failed",
				"account", plan.Account.Name,
				"code", string(ErrCodeDownloadFailed),
				"error", err)
			res.State = StateFailed
			results = append(results, res)
			continue
		}
		res.ArchivePath = path
		results = append(results, res)
		e.log.Info("account archived", "account", plan.Account.Name, "path", path)
	}
	return results
}

func (e *Engine) downloadOne(ctx context.Context, auth string, window bank.Window, plan AccountPlan) (string, error) {
	url, err := e.conn.PrepareDownload(ctx, auth, plan.RequestID)
	if err != nil {
		return "", newAccountError(ErrCodeDownloadFailed, plan.Account.Name, "prepare download", err)
	}
	raw, err := e.conn.FetchExport(ctx, auth, url)
	if err != nil {
		return "", newAccountError(ErrCodeDownloadFailed, plan.Account.Name, "fetch export", err)
	}
	fresh := archive.DecodeExport(raw)

	dir := archive.AccountDir(e.cfg.ArchiveRoot, e.cfg.BankID, plan.Account.Name)
	existingContent := ""
	existing, err := archive.FindExisting(dir)
	if err != nil {
		return "", newAccountError(ErrCodeDownloadFailed, plan.Account.Name, "locate archive", err)
	}
	if existing != nil {
		existingContent, err = archive.Load(existing.Path)
		if err != nil {
			return "", newAccountError(ErrCodeDownloadFailed, plan.Account.Name, "load archive", err)
		}
	}

	merged := archive.Merge(existingContent, fresh)
	path, err := archive.Save(e.cfg.ArchiveRoot, e.cfg.BankID, plan.Account.Name, window.Start, merged)
	if err != nil {
		return "", newAccountError(ErrCodeDownloadFailed, plan.Account.Name, "save archive", err)
	}
	return path, nil
}
