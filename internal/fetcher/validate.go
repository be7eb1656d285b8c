// internal/fetcher/validate.go
package fetcher

import (
	"regexp"
	"strings"

	custom_errors "starcorn/internal/errors"
)

const maxUsernameLength = 39

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// ValidateUsername checks username against GitHub's login format.
func ValidateUsername(username string) error {
	reason := ""
	switch {
	case strings.TrimSpace(username) == "":
		reason = "Please enter a username"
	case strings.HasPrefix(username, "-"):
		reason = "Username cannot start with a hyphen"
	case !usernamePattern.MatchString(username):
		reason = "Username can only contain letters, numbers, and hyphens"
	case len(username) > maxUsernameLength:
		reason = "Username is too long"
	}
	if reason == "" {
		return nil
	}
	return &custom_errors.ErrInvalidUsername{Username: username, Reason: reason}
}
