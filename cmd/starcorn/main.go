// cmd/starcorn/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"starcorn/internal/category"
	"starcorn/internal/config"
	"starcorn/internal/fetcher"
	"starcorn/internal/github"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "starcorn:", err)
		os.Exit(1)
	}
}

func run() error {
	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// app carries what every command needs once flags are parsed.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "starcorn",
		Short:         "Fetch a GitHub user's starred repositories and sort them into categories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(a.fetchCmd(), a.categoriesCmd(), a.explainCmd())
	return root
}

// setup loads configuration and installs the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	// Logs go to stderr; stdout carries command output.
	logLevel := new(slog.LevelVar)
	setLogLevel(cfg.LogLevel, logLevel)
	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler = slog.NewTextHandler(a.stderr, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(a.stderr, opts)
	}
	a.logger = slog.New(handler)
	slog.SetDefault(a.logger)

	a.logger.Debug("Configuration loaded", "authenticated", cfg.GithubToken != "", "api_url", cfg.GithubAPIURL)
	return nil
}

// newFetcher builds a Fetcher whose runs each get a fresh GitHub client.
func (a *app) newFetcher() *fetcher.Fetcher {
	opts := []github.Option{github.WithTimeout(a.cfg.RequestTimeout)}
	if a.cfg.GithubAPIURL != "" {
		opts = append(opts, github.WithBaseURL(a.cfg.GithubAPIURL))
	}

	return fetcher.New(func(token string) fetcher.StarLister {
		return github.NewClient(token, a.logger, opts...)
	}, a.logger)
}

// categorizer uses CATEGORIES_FILE when set, the built-in table otherwise.
func (a *app) categorizer() (*category.Categorizer, error) {
	if a.cfg.CategoriesFile == "" {
		return category.NewDefault(), nil
	}

	f, err := os.Open(a.cfg.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("opening categories file: %w", err)
	}
	defer f.Close()

	defs, err := category.LoadDefinitions(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", a.cfg.CategoriesFile, err)
	}
	a.logger.Debug("Loaded category table", "file", a.cfg.CategoriesFile, "categories", len(defs))
	return category.New(defs), nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
