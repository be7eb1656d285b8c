// internal/github/githubtest/server.go

// Package githubtest provides an in-memory stand-in for the GitHub starred
// listing, for use in tests.
package githubtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Repo is the subset of repository fields the fake server renders.
type Repo struct {
	ID          int64
	Name        string
	Owner       string
	Description string
	Language    string
	Topics      []string
	Stars       int
	Private     bool
}

// Page describes how the server answers one page request.
type Page struct {
	// Status defaults to 200.
	Status int
	Repos  []Repo
	// Remaining is sent as X-RateLimit-Remaining. A successful page with
	// Remaining 0 is sent as 59 so the client keeps going.
	Remaining int
	// Drop closes the connection without writing a response.
	Drop bool
	// Message and DocumentationURL override the error body of a failed page.
	Message          string
	DocumentationURL string
}

// User is one user's starred listing.
type User struct {
	LastPage int
	Pages    map[int]Page
}

// Request records what the server saw.
type Request struct {
	Username      string
	Page          int
	PerPage       int
	Authorization string
}

// Server is a fake GitHub API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]User
	requests []Request
}

// NewServer starts a fake GitHub API. Close it when done.
func NewServer() *Server {
	s := &Server{users: make(map[string]User)}

	r := chi.NewRouter()
	r.Get("/users/{username}/starred", s.handleStarred)
	s.Server = httptest.NewServer(r)
	return s
}

// SetUser registers (or replaces) a user's listing.
func (s *Server) SetUser(username string, u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(username)] = u
}

// Requests returns the requests served so far, in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestedPages returns the page numbers requested so far.
func (s *Server) RequestedPages() []int {
	var pages []int
	for _, r := range s.Requests() {
		pages = append(pages, r.Page)
	}
	return pages
}

func (s *Server) handleStarred(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page == 0 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Username:      username,
		Page:          page,
		PerPage:       perPage,
		Authorization: r.Header.Get("Authorization"),
	})
	user, ok := s.users[strings.ToLower(username)]
	s.mu.Unlock()

	if !ok {
		writeRateHeaders(w, 59)
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	p := user.Pages[page]
	if p.Drop {
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
				return
			}
		}
		panic(http.ErrAbortHandler)
	}

	status := p.Status
	if status == 0 {
		status = http.StatusOK
	}
	remaining := p.Remaining
	if status == http.StatusOK && remaining == 0 {
		remaining = 59
	}
	writeRateHeaders(w, remaining)

	if status != http.StatusOK {
		message := "Forbidden"
		if remaining == 0 {
			message = "API rate limit exceeded"
		}
		if p.Message != "" {
			message = p.Message
		}
		body := map[string]string{"message": message}
		if p.DocumentationURL != "" {
			body["documentation_url"] = p.DocumentationURL
		}
		writeJSON(w, status, body)
		return
	}

	if link := linkHeader(s.URL, username, page, user.LastPage); link != "" {
		w.Header().Set("Link", link)
	}

	body := make([]map[string]any, 0, len(p.Repos))
	for _, repo := range p.Repos {
		body = append(body, map[string]any{
			"starred_at": "2024-01-01T00:00:00Z",
			"repo":       renderRepo(repo),
		})
	}
	writeJSON(w, http.StatusOK, body)
}

func renderRepo(r Repo) map[string]any {
	out := map[string]any{
		"id":               r.ID,
		"name":             r.Name,
		"full_name":        r.Owner + "/" + r.Name,
		"html_url":         "https://github.com/" + r.Owner + "/" + r.Name,
		"stargazers_count": r.Stars,
		"topics":           r.Topics,
		"owner": map[string]any{
			"login":      r.Owner,
			"avatar_url": "https://avatars.githubusercontent.com/" + r.Owner,
		},
		"updated_at": "2024-06-01T12:00:00Z",
		"fork":       false,
		"private":    r.Private,
	}
	if r.Description != "" {
		out["description"] = r.Description
	}
	if r.Language != "" {
		out["language"] = r.Language
	}
	return out
}

func linkHeader(base, username string, page, lastPage int) string {
	if lastPage <= 1 {
		return ""
	}
	link := func(p int, rel string) string {
		return fmt.Sprintf(`<%s/users/%s/starred?per_page=30&page=%d>; rel="%s"`, base, username, p, rel)
	}

	var links []string
	if page < lastPage {
		links = append(links, link(page+1, "next"), link(lastPage, "last"))
	}
	if page > 1 {
		links = append(links, link(page-1, "prev"), link(1, "first"))
	}
	return strings.Join(links, ", ")
}

func writeRateHeaders(w http.ResponseWriter, remaining int) {
	w.Header().Set("X-RateLimit-Limit", "60")
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Repos builds n public repositories named <prefix>-<i> with sequential ids from firstID.
func Repos(prefix string, firstID int64, n int) []Repo {
	repos := make([]Repo, n)
	for i := range repos {
		repos[i] = Repo{
			ID:    firstID + int64(i),
			Name:  fmt.Sprintf("%s-%d", prefix, i),
			Owner: "octo",
			Stars: i,
		}
	}
	return repos
}
