// cmd/starcorn/main_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "starcorn/internal/errors"
	"starcorn/internal/github/githubtest"
)

// execute runs the CLI with a clean environment and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	for _, key := range []string{"LOG_LEVEL", "LOG_FORMAT", "GITHUB_TOKEN", "GITHUB_API_URL", "REQUEST_TIMEOUT", "CATEGORIES_FILE", "MAX_CONCURRENT_USERS"} {
		t.Setenv(key, "")
	}

	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func setupServer(t *testing.T) *githubtest.Server {
	server := githubtest.NewServer()
	t.Cleanup(server.Close)
	return server
}

func TestFetch_CSV(t *testing.T) {
	server := setupServer(t)
	server.SetUser("octocat", githubtest.User{
		LastPage: 1,
		Pages: map[int]githubtest.Page{
			1: {Repos: []githubtest.Repo{
				{ID: 1, Name: "llama-runner", Owner: "octo", Description: "Run an LLM locally", Stars: 1200, Language: "Go", Topics: []string{"llm"}},
				{ID: 2, Name: "zzz", Owner: "octo", Stars: 3},
			}},
		},
	})

	stdout, stderr, err := execute(t, "fetch", "octocat", "--api-url", server.URL, "--format", "csv")

	require.NoError(t, err)
	assert.Equal(t,
		"Category,Name,Description,URL,Stars,Language,Topics\n"+
			"AI & Machine Learning,octo/llama-runner,Run an LLM locally,https://github.com/octo/llama-runner,1200,Go,llm\n"+
			"Uncategorized,octo/zzz,,https://github.com/octo/zzz,3,,\n",
		stdout)
	assert.Contains(t, stderr, "octocat: page 1/1, 2 stars")
}

func TestFetch_UnknownUserFails(t *testing.T) {
	server := setupServer(t)

	stdout, stderr, err := execute(t, "fetch", "ghost", "--api-url", server.URL, "--quiet")

	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "ghost: Oops! We couldn't find that user. Double-check the username?")
}

func TestFetch_PartialResultStillSucceeds(t *testing.T) {
	server := setupServer(t)
	server.SetUser("starfan", githubtest.User{
		LastPage: 20,
		Pages: map[int]githubtest.Page{
			1: {Repos: githubtest.Repos("a", 1, 30)},
		},
	})

	stdout, stderr, err := execute(t, "fetch", "starfan", "--api-url", server.URL, "--format", "json", "--quiet")

	require.NoError(t, err)
	assert.Contains(t, stdout, `"totalStars": 30`)
	assert.Contains(t, stderr, "starfan: This user has ~600 stars. Add a token to fetch them all.")
	assert.Contains(t, stderr, "set GITHUB_TOKEN or pass --token")
	assert.Equal(t, []int{1}, server.RequestedPages())
}

func TestFetch_CategoryAndOutputDirectory(t *testing.T) {
	server := setupServer(t)
	server.SetUser("octocat", githubtest.User{
		LastPage: 1,
		Pages: map[int]githubtest.Page{
			1: {Repos: []githubtest.Repo{
				{ID: 1, Name: "llama-runner", Owner: "octo", Description: "Run an LLM locally", Stars: 1200},
				{ID: 2, Name: "zzz", Owner: "octo", Stars: 3},
			}},
		},
	})
	dir := t.TempDir()

	stdout, _, err := execute(t, "fetch", "octocat", "--api-url", server.URL,
		"--format", "markdown", "--category", "ai & machine learning", "--output", dir, "--quiet")

	require.NoError(t, err)
	assert.Empty(t, stdout)

	content, err := os.ReadFile(filepath.Join(dir, "octocat-stars.md"))
	require.NoError(t, err)
	assert.Equal(t,
		"# GitHub Stars - @octocat\n\n"+
			"## AI & Machine Learning (1)\n\n"+
			"- [octo/llama-runner](https://github.com/octo/llama-runner) - Run an LLM locally - ⭐ 1,200\n\n",
		string(content))
}

func TestFetch_RejectsBadFlags(t *testing.T) {
	_, _, err := execute(t, "fetch", "octocat", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, _, err = execute(t, "fetch", "octocat", "--sort", "random")
	assert.ErrorContains(t, err, "unknown sort option")

	_, _, err = execute(t, "fetch", "octocat", "--category", "Gardening")
	assert.ErrorContains(t, err, "unknown category")
}

func TestCategories(t *testing.T) {
	stdout, _, err := execute(t, "categories")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 17)
	assert.True(t, strings.HasPrefix(lines[0], "CATEGORY"))
	assert.True(t, strings.HasPrefix(lines[1], "AI & Machine Learning"))
	assert.True(t, strings.HasPrefix(lines[16], "Uncategorized"))
}

func TestCategories_CustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cats.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: Games\n  topics: [game]\n  priority: 3\n"), 0o600))

	stdout, _, err := execute(t, "categories", "--categories-file", path)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Games")
	assert.NotContains(t, stdout, "Developer Tools")
}

func TestExplain(t *testing.T) {
	stdout, _, err := execute(t, "explain", "octo/thing", "--topics", "cli,ai", "--description", "wraps openai")

	require.NoError(t, err)
	assert.Contains(t, stdout, "AI & Machine Learning")
	assert.Contains(t, stdout, "Developer Tools")
	assert.Contains(t, stdout, "topic")
	assert.Contains(t, stdout, "octo/thing -> AI & Machine Learning")
}

func TestExplain_InvalidName(t *testing.T) {
	_, _, err := execute(t, "explain", "not-a-full-name")

	var formatErr *custom_errors.ErrInvalidRepoFormat
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, "not-a-full-name", formatErr.Repo)
}
