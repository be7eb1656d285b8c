// internal/github/client.go
package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "starcorn/internal/errors"
	"starcorn/internal/model"
)

// PerPage is the fixed page size used for the starred listing.
const PerPage = 30

// StarPage is one page of a user's starred repositories.
type StarPage struct {
	Repos []model.Repository
	// LastPage is the page number named by the rel="last" link, or the
	// requested page when the response has no such link.
	LastPage int
	Rate     *model.RateLimit
}

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// WithBaseURL points the client at a GitHub Enterprise (or test) API root.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithHTTPClient sets the underlying http.Client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTimeout bounds every single request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// NewClient creates and configures a new Client instance.
// A non-empty token is attached as a bearer credential on every request.
func NewClient(token string, logger *slog.Logger, opts ...Option) *Client {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	hc := &http.Client{}
	if o.httpClient != nil {
		copied := *o.httpClient
		hc = &copied
	}

	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		tc.Timeout = hc.Timeout
		hc = tc
	}
	if o.timeout > 0 {
		hc.Timeout = o.timeout
	}

	gh := github.NewClient(hc)
	if o.baseURL != "" {
		u, err := url.Parse(o.baseURL)
		if err != nil {
			logger.Warn("Ignoring invalid GitHub API URL", "url", o.baseURL, "error", err)
		} else {
			if !strings.HasSuffix(u.Path, "/") {
				u.Path += "/"
			}
			gh.BaseURL = u
		}
	}

	return &Client{
		gh:     gh,
		logger: logger,
	}
}

// ListStarred fetches a single page of the repositories starred by username.
// Failed responses come back as *custom_errors.APIError; transport and
// context errors are returned as they are.
func (c *Client) ListStarred(ctx context.Context, username string, page int) (*StarPage, error) {
	c.logger.Debug("Fetching starred page", "username", username, "page", page)

	opts := &github.ActivityListStarredOptions{
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: PerPage,
		},
	}

	starred, resp, err := c.gh.Activity.ListStarred(ctx, username, opts)
	if err != nil {
		return nil, classifyError(err, resp)
	}

	repos := make([]model.Repository, 0, len(starred))
	for _, s := range starred {
		if s.GetRepository() == nil {
			continue
		}
		repos = append(repos, toInternalRepository(s.GetRepository()))
	}

	lastPage := resp.LastPage
	if lastPage == 0 {
		lastPage = page
	}

	return &StarPage{
		Repos:    repos,
		LastPage: lastPage,
		Rate:     toRateLimit(resp.Rate),
	}, nil
}

// classifyError maps a go-github error onto an APIError kind.
func classifyError(err error, resp *github.Response) error {
	var rate *model.RateLimit
	if resp != nil {
		rate = toRateLimit(resp.Rate)
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse

	switch {
	case errors.As(err, &rateErr):
		if r := toRateLimit(rateErr.Rate); r != nil {
			rate = r
		}
		return &custom_errors.APIError{Kind: custom_errors.KindRateLimited, StatusCode: statusCode(rateErr.Response), Rate: rate, Err: err}
	case errors.As(err, &abuseErr):
		return &custom_errors.APIError{Kind: custom_errors.KindUnexpectedStatus, StatusCode: statusCode(abuseErr.Response), Rate: rate, Err: err}
	case errors.As(err, &respErr):
		status := statusCode(respErr.Response)
		kind := custom_errors.KindUnexpectedStatus
		switch status {
		case http.StatusNotFound:
			kind = custom_errors.KindNotFound
		case http.StatusUnauthorized:
			kind = custom_errors.KindUnauthorized
		case http.StatusTooManyRequests:
			// Throttling with quota left is not exhaustion; a token would not help.
			if quotaExhausted(respErr.Response) {
				kind = custom_errors.KindRateLimited
			}
		case http.StatusForbidden:
			kind = custom_errors.KindAccessDenied
			if quotaExhausted(respErr.Response) {
				kind = custom_errors.KindRateLimited
			}
		}
		return &custom_errors.APIError{Kind: kind, StatusCode: status, Rate: rate, Err: err}
	}

	return err
}

func quotaExhausted(r *http.Response) bool {
	return r != nil && r.Header.Get("X-RateLimit-Remaining") == "0"
}

func statusCode(r *http.Response) int {
	if r == nil {
		return 0
	}
	return r.StatusCode
}

// toRateLimit returns nil when the response carried no quota headers.
func toRateLimit(r github.Rate) *model.RateLimit {
	if r.Limit == 0 {
		return nil
	}
	return &model.RateLimit{
		Remaining: r.Remaining,
		Limit:     r.Limit,
		ResetAt:   r.Reset.Time,
	}
}

// toInternalRepository translates a github.Repository object to our internal model.Repository.
func toInternalRepository(r *github.Repository) model.Repository {
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}
	return model.Repository{
		ID:          r.GetID(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.Description,
		URL:         r.GetHTMLURL(),
		StarsCount:  r.GetStargazersCount(),
		Language:    r.Language,
		Topics:      topics,
		Owner: model.Owner{
			Login:     r.GetOwner().GetLogin(),
			AvatarURL: r.GetOwner().GetAvatarURL(),
		},
		UpdatedAt: r.GetUpdatedAt().Time,
		Fork:      r.GetFork(),
		Private:   r.GetPrivate(),
	}
}
