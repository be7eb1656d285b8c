// internal/fetcher/fetcher.go
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	custom_errors "starcorn/internal/errors"
	"starcorn/internal/github"
	"starcorn/internal/model"
)

// Unauthenticated runs stop after the first page when the estimated
// number of stars exceeds this.
const unauthenticatedLimit = 500

const (
	msgNotFound         = "Oops! We couldn't find that user. Double-check the username?"
	msgBadCredentials   = "Bad credentials. Check your GitHub token and try again."
	msgRateLimited      = "Rate limit exceeded. Add a GitHub token to continue, or wait a bit."
	msgAccessDenied     = "Access denied. The user's stars may be private."
	msgCancelled        = "Fetch cancelled"
	msgConnectionLost   = "Connection lost. Check your internet and try again."
	msgShowingSoFar     = "Showing %d stars fetched so far."
	msgRateLimitedLater = "Rate limit hit after %d stars. Add a token to continue."
)

// StarLister fetches one page of a user's starred repositories.
type StarLister interface {
	ListStarred(ctx context.Context, username string, page int) (*github.StarPage, error)
}

// ListerFactory builds a StarLister that authenticates with token.
// An empty token means anonymous access.
type ListerFactory func(token string) StarLister

// Fetcher walks the starred listing page by page and reduces every
// failure to a FetchResult.
type Fetcher struct {
	newLister ListerFactory
	logger    *slog.Logger
}

// New creates a new Fetcher instance.
func New(newLister ListerFactory, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		newLister: newLister,
		logger:    logger,
	}
}

// run is the state owned by a single Fetch call.
type run struct {
	token          string
	repos          []model.Repository
	totalPages     int
	estimatedTotal int
	rate           *model.RateLimit
}

// Fetch retrieves every public repository starred by username.
//
// Pages are requested one at a time. ctx is checked before each request;
// cancelling it yields a partial result. onProgress, if non-nil, is called
// after each page is integrated. Expected failures never escape as errors:
// they are described by the returned result.
func (f *Fetcher) Fetch(ctx context.Context, username, token string, onProgress func(model.Progress)) model.FetchResult {
	logger := f.logger.With("username", username, "authenticated", token != "")

	if err := ValidateUsername(username); err != nil {
		logger.Warn("Rejected username", "error", err)
		return model.FetchResult{Repos: []model.Repository{}, Error: err.Error()}
	}

	lister := f.newLister(token)
	st := &run{token: token, repos: []model.Repository{}, totalPages: 1}

	logger.Info("Fetching starred repositories")
	for page := 1; page <= st.totalPages; page++ {
		if err := ctx.Err(); err != nil {
			return st.failure(logger, page, err)
		}

		p, err := lister.ListStarred(ctx, username, page)
		if err != nil {
			return st.failure(logger, page, err)
		}
		if p.Rate != nil {
			st.rate = p.Rate
		}

		st.integrate(p.Repos)
		if page == 1 {
			st.totalPages = max(p.LastPage, 1)
			st.estimatedTotal = st.totalPages * github.PerPage
		}
		logger.Debug("Integrated page", "page", page, "total_pages", st.totalPages, "fetched", len(st.repos))

		if onProgress != nil {
			onProgress(model.Progress{
				CurrentPage:    page,
				TotalPages:     st.totalPages,
				FetchedCount:   len(st.repos),
				EstimatedTotal: st.estimatedTotal,
			})
		}

		if page == 1 && st.totalPages > 1 && token == "" && st.estimatedTotal > unauthenticatedLimit {
			logger.Info("Stopping unauthenticated fetch after first page", "estimated_total", st.estimatedTotal)
			result := st.result(true, fmt.Sprintf("This user has ~%d stars. Add a token to fetch them all.", st.estimatedTotal))
			result.RequiresToken = true
			return result
		}
	}

	logger.Info("Fetched starred repositories", "count", len(st.repos), "pages", st.totalPages)
	return st.result(false, "")
}

// integrate appends the public repositories of a page.
func (st *run) integrate(repos []model.Repository) {
	for _, r := range repos {
		if r.Private {
			continue
		}
		st.repos = append(st.repos, r)
	}
}

func (st *run) result(partial bool, message string) model.FetchResult {
	return model.FetchResult{
		Repos:          st.repos,
		IsPartial:      partial,
		Error:          message,
		EstimatedTotal: st.estimatedTotal,
		RateLimit:      st.rate,
	}
}

// failure turns an error on page into the terminal result for the run.
func (st *run) failure(logger *slog.Logger, page int, err error) model.FetchResult {
	fetched := len(st.repos)
	logger = logger.With("page", page, "fetched", fetched)

	var apiErr *custom_errors.APIError
	if errors.As(err, &apiErr) && apiErr.Rate != nil {
		st.rate = apiErr.Rate
	}

	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("Fetch cancelled")
		msg := msgCancelled
		if fetched > 0 {
			msg += ". " + fmt.Sprintf(msgShowingSoFar, fetched)
		}
		return st.result(true, msg)

	case apiErr != nil:
		logger.Warn("GitHub API request failed", "kind", apiErr.Kind.String(), "status", apiErr.StatusCode)
		return st.apiFailure(page, apiErr)

	default:
		logger.Warn("Connection lost", "error", err)
		if fetched == 0 {
			return st.result(false, msgConnectionLost)
		}
		return st.result(true, "Connection lost. "+fmt.Sprintf(msgShowingSoFar, fetched))
	}
}

func (st *run) apiFailure(page int, apiErr *custom_errors.APIError) model.FetchResult {
	first := page == 1
	fetched := len(st.repos)

	switch {
	case first && apiErr.Kind == custom_errors.KindNotFound:
		return st.result(false, msgNotFound)

	case first && apiErr.Kind == custom_errors.KindUnauthorized:
		return st.result(false, msgBadCredentials)

	case apiErr.Kind == custom_errors.KindRateLimited:
		msg := msgRateLimited
		if !first {
			msg = fmt.Sprintf(msgRateLimitedLater, fetched)
		}
		if st.token != "" {
			msg = st.quotaResetMessage(first)
		}
		result := st.result(!first, msg)
		// With a token already in use, asking for one would not help.
		result.RequiresToken = st.token == ""
		return result

	case apiErr.Kind == custom_errors.KindAccessDenied:
		return st.result(!first, msgAccessDenied)

	case first:
		return st.result(false, fmt.Sprintf("GitHub API error: %d", apiErr.StatusCode))

	default:
		return st.result(true, fmt.Sprintf("Error on page %d. "+msgShowingSoFar, page, fetched))
	}
}

// quotaResetMessage is used when a token is already present, so adding
// one would not help.
func (st *run) quotaResetMessage(first bool) string {
	prefix := "Rate limit exceeded."
	if !first {
		prefix = fmt.Sprintf("Rate limit hit after %d stars.", len(st.repos))
	}
	if st.rate == nil || st.rate.ResetAt.IsZero() {
		return prefix + " Wait a bit and try again."
	}
	return fmt.Sprintf("%s Try again after %s.", prefix, st.rate.ResetAt.UTC().Format(time.Kitchen+" MST"))
}
