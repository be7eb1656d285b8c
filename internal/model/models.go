// internal/model/models.go
package model

import (
	"time"
)

// Owner identifies the account a repository belongs to.
type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// Repository is a snapshot of one starred repository.
type Repository struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description *string   `json:"description"`
	URL         string    `json:"html_url"`
	StarsCount  int       `json:"stargazers_count"`
	Language    *string   `json:"language"`
	Topics      []string  `json:"topics"`
	Owner       Owner     `json:"owner"`
	UpdatedAt   time.Time `json:"updated_at"`
	Fork        bool      `json:"fork"`
	Private     bool      `json:"private"`
}

// DescriptionOrEmpty returns the description, or "" when the repository has none.
func (r Repository) DescriptionOrEmpty() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}

// LanguageOrEmpty returns the primary language, or "" when unknown.
func (r Repository) LanguageOrEmpty() string {
	if r.Language == nil {
		return ""
	}
	return *r.Language
}

// Progress describes where a retrieval run is after integrating a page.
type Progress struct {
	CurrentPage    int
	TotalPages     int
	FetchedCount   int
	EstimatedTotal int
}

// RateLimit is the quota snapshot taken from the latest response headers.
type RateLimit struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// FetchResult is the terminal value of one retrieval run.
type FetchResult struct {
	Repos          []Repository
	IsPartial      bool
	Error          string
	RequiresToken  bool
	EstimatedTotal int
	RateLimit      *RateLimit
}

// Failed reports whether the run produced an error message and no data.
func (r FetchResult) Failed() bool {
	return r.Error != "" && len(r.Repos) == 0
}
