// cmd/starcorn/fetch.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"starcorn/internal/category"
	"starcorn/internal/export"
	"starcorn/internal/fetcher"
	"starcorn/internal/model"
)

type fetchOptions struct {
	format    string
	sort      string
	filter    string
	category  string
	hideEmpty bool
	outputDir string
	quiet     bool
}

func (a *app) fetchCmd() *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch <username>...",
		Short: "Fetch and categorize the repositories starred by one or more users",
		Long: "Fetch every public repository starred by each user and group them into categories.\n" +
			"Without a token, users with more than 500 stars are cut off after the first page.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFetch(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(export.FormatText), "output format: text, markdown, json or csv")
	cmd.Flags().StringVarP(&opts.sort, "sort", "s", string(category.SortStarsDesc), "order within each category: "+sortOptionList())
	cmd.Flags().StringVar(&opts.filter, "filter", "", "keep repositories whose name or description contains this text")
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "show only this category")
	cmd.Flags().BoolVar(&opts.hideEmpty, "hide-empty", false, "leave out categories with no repositories")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "write one file per user into this directory instead of stdout")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print progress")
	return cmd
}

func (a *app) runFetch(cmd *cobra.Command, usernames []string, opts fetchOptions) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	sortBy, err := category.ParseSortOption(opts.sort)
	if err != nil {
		return err
	}
	cat, err := a.categorizer()
	if err != nil {
		return err
	}
	if opts.category != "" && !hasCategory(cat, opts.category) {
		return fmt.Errorf("unknown category %q, see 'starcorn categories'", opts.category)
	}

	var progress func(string, model.Progress)
	if !opts.quiet {
		progress = progressPrinter(a.stderr)
	}

	results := a.newFetcher().FetchAll(cmd.Context(), usernames, a.cfg.GithubToken, a.cfg.MaxConcurrentUsers, progress)

	var failed []string
	for _, ur := range results {
		a.report(ur)
		if ur.Result.Failed() {
			failed = append(failed, ur.Username)
			continue
		}

		repos := category.Filter(ur.Result.Repos, opts.filter)
		categories := selectCategories(cat.Categorize(repos), opts.category, opts.hideEmpty)
		for i := range categories {
			categories[i].Repos = category.Sort(categories[i].Repos, sortBy)
		}

		exportOpts := export.Options{
			Username:   ur.Username,
			Categories: categories,
			TotalRepos: len(repos),
			ExportedAt: time.Now(),
		}
		if err := a.writeExport(format, opts.outputDir, exportOpts); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("no stars fetched for %s", strings.Join(failed, ", "))
	}
	return nil
}

// report prints a run's advisory message and quota to stderr.
func (a *app) report(ur fetcher.UserResult) {
	r := ur.Result
	if r.Error != "" {
		fmt.Fprintf(a.stderr, "%s: %s\n", ur.Username, r.Error)
	}
	if r.RequiresToken {
		fmt.Fprintf(a.stderr, "%s: set GITHUB_TOKEN or pass --token to fetch everything.\n", ur.Username)
	}
	if r.RateLimit != nil {
		fmt.Fprintf(a.stderr, "%s: rate limit %d/%d remaining, resets at %s\n",
			ur.Username, r.RateLimit.Remaining, r.RateLimit.Limit, r.RateLimit.ResetAt.Local().Format(time.Kitchen))
	}
}

func (a *app) writeExport(format export.Format, dir string, opts export.Options) error {
	if dir == "" {
		return export.Write(a.stdout, format, opts)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, export.Filename(opts.Username, format))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := export.Write(f, format, opts); err != nil {
		return errors.Join(fmt.Errorf("writing %s: %w", path, err), f.Close())
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(a.stderr, "%s: wrote %s\n", opts.Username, path)
	return nil
}

// progressPrinter serializes progress lines from concurrent runs.
func progressPrinter(w io.Writer) func(string, model.Progress) {
	var mu sync.Mutex
	return func(username string, p model.Progress) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "%s: page %d/%d, %d stars\n", username, p.CurrentPage, p.TotalPages, p.FetchedCount)
	}
}

func selectCategories(categories []category.Category, only string, hideEmpty bool) []category.Category {
	out := make([]category.Category, 0, len(categories))
	for _, c := range categories {
		if only != "" && !strings.EqualFold(c.Name, only) {
			continue
		}
		if hideEmpty && len(c.Repos) == 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

func hasCategory(c *category.Categorizer, name string) bool {
	for _, n := range c.Names() {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func sortOptionList() string {
	names := make([]string, len(category.SortOptions))
	for i, o := range category.SortOptions {
		names[i] = string(o)
	}
	return strings.Join(names, ", ")
}
