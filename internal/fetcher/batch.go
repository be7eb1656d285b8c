// internal/fetcher/batch.go
package fetcher

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"starcorn/internal/model"
)

// UserResult is the outcome of one user's run within a batch.
type UserResult struct {
	Username string
	Result   model.FetchResult
}

// FetchAll runs one Fetch per distinct username, at most limit at a time.
// Each run walks its own pages sequentially and fails on its own; results
// come back in input order. onProgress may be called from several
// goroutines at once.
func (f *Fetcher) FetchAll(ctx context.Context, usernames []string, token string, limit int, onProgress func(username string, p model.Progress)) []UserResult {
	usernames = dedupe(usernames)
	results := make([]UserResult, len(usernames))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	f.logger.Info("Starting batch fetch", "users", len(usernames), "concurrency", limit)

	for i, username := range usernames {
		i, username := i, username
		g.Go(func() error {
			var progress func(model.Progress)
			if onProgress != nil {
				progress = func(p model.Progress) { onProgress(username, p) }
			}
			results[i] = UserResult{
				Username: username,
				Result:   f.Fetch(ctx, username, token, progress),
			}
			return nil
		})
	}

	// Runs report failures through their results, never as errors.
	_ = g.Wait()
	f.logger.Info("Batch fetch finished", "users", len(usernames))
	return results
}

// dedupe drops repeated usernames, ignoring case, keeping the first spelling.
func dedupe(usernames []string) []string {
	seen := make(map[string]bool, len(usernames))
	out := make([]string, 0, len(usernames))
	for _, u := range usernames {
		key := strings.ToLower(strings.TrimSpace(u))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(u))
	}
	return out
}
