// internal/errors/errors.go
package errors

import (
	"fmt"

	"starcorn/internal/model"
)

// ErrInvalidUsername is returned when a username fails the GitHub login format check.
type ErrInvalidUsername struct {
	Username string
	Reason   string
}

func (e *ErrInvalidUsername) Error() string {
	return e.Reason
}

// Kind classifies a failed upstream response.
type Kind int

const (
	KindUnexpectedStatus Kind = iota
	KindNotFound
	KindUnauthorized
	KindRateLimited
	KindAccessDenied
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindAccessDenied:
		return "access_denied"
	default:
		return "unexpected_status"
	}
}

// APIError is a non-success response from the GitHub API.
// Rate is the quota snapshot carried by that response, if any.
type APIError struct {
	Kind       Kind
	StatusCode int
	Rate       *model.RateLimit
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api: %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ErrInvalidRepoFormat is returned when a repository is not written as "owner/name".
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format %q, expected owner/name", e.Repo)
}
