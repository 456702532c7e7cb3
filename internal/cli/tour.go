package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tobiasbaum/reviewtool-sub002/internal/cache"
	"github.com/tobiasbaum/reviewtool-sub002/internal/config"
	"github.com/tobiasbaum/reviewtool-sub002/internal/gitctx"
	"github.com/tobiasbaum/reviewtool-sub002/internal/ordering"
	"github.com/tobiasbaum/reviewtool-sub002/internal/output"
	"github.com/tobiasbaum/reviewtool-sub002/internal/tour"
)

// Shared tour flags
var (
	flagPaths        string
	flagExclude      string
	flagContextLines int
	flagMaxDiffBytes int
	flagFormat       string
	flagOut          string
	flagMatchers     string
	flagNoRedact     bool
	flagNoCache      bool
	flagSnippets     bool
)

func addTourFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().IntVar(&flagContextLines, "context-lines", 0, "Number of context lines in diff")
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagMatchers, "matchers", "", "Relation matchers in priority order (comma-separated)")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable snippet redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Neither read nor write the tour cache")
	cmd.Flags().BoolVar(&flagSnippets, "snippets", false, "Show the changed lines of each stop in text output")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagContextLines > 0 {
		m["contextLines"] = strconv.Itoa(flagContextLines)
	}
	if flagMaxDiffBytes > 0 {
		m["maxDiffBytes"] = strconv.Itoa(flagMaxDiffBytes)
	}
	if flagMatchers != "" {
		m["matchers"] = flagMatchers
	}
	return m
}

func buildDiffOpts(cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		ContextLines: cfg.ContextLines,
		MaxDiffBytes: cfg.MaxDiffBytes,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
	}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(append([]string(nil), opts.Exclude...), splitComma(flagExclude)...)
	}
	return opts
}

func splitComma(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// loadConfig loads the effective config, reading the project file from the
// root of the enclosing repository when there is one.
func loadConfig(ctx context.Context) (config.Config, error) {
	var projectDir string
	if meta, err := gitctx.GetRepoMeta(ctx); err == nil {
		projectDir = meta.Root
	}
	return config.Load(projectDir, buildOverrides())
}

// collector gathers the diff a tour subcommand works on.
type collector func(ctx context.Context, cmd *cobra.Command, args []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error)

func tourRunE(collect collector) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		start := time.Now()
		diff, err := collect(ctx, cmd, args, buildDiffOpts(cfg))
		if err != nil {
			fail(cmd, err)
			return nil
		}
		runTour(ctx, cmd, diff, cfg, time.Since(start).Milliseconds())
		return nil
	}
}

// computeTour runs the tour engine with the cache and logger the flags and
// config ask for.
func computeTour(ctx context.Context, cmd *cobra.Command, diff gitctx.DiffResult, cfg config.Config) (*tour.Report, error) {
	logger := newLogger(cfg.LogLevel)
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		cfg.Privacy.RedactPaths = nil
		fmt.Fprintln(cmd.ErrOrStderr(), "WARNING: snippet redaction is disabled")
	}

	opts := tour.Options{Logger: logger}
	if cfg.Cache.Enabled && !flagNoCache {
		c, err := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			logger.Warn("Cache unavailable", slog.String("error", err.Error()))
		} else {
			opts.Cache = c
		}
	}
	return tour.Run(ctx, diff, cfg, opts)
}

func runTour(ctx context.Context, cmd *cobra.Command, diff gitctx.DiffResult, cfg config.Config, gitMs int64) {
	report, err := computeTour(ctx, cmd, diff, cfg)
	if err != nil {
		fail(cmd, err)
		return
	}
	report.Timing.GitMs = gitMs

	if err := output.WriteReport(report, cfg.Format, flagOut, flagSnippets); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
	}
}

// fail reports err and sets the matching exit code.
func fail(cmd *cobra.Command, err error) {
	if errors.Is(err, ordering.ErrCanceled) || errors.Is(err, context.Canceled) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Canceled: %v\n", err)
		exitCode = ExitCanceled
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exitCode = ExitRuntimeError
}

var tourCmd = &cobra.Command{
	Use:   "tour",
	Short: "Compute a review tour",
	Long:  "Compute the review tour of a set of changes. Use subcommands to choose the changes.",
}

var tourUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Tour unstaged changes (working tree vs index)",
	Args:  cobra.NoArgs,
	RunE: tourRunE(func(ctx context.Context, _ *cobra.Command, _ []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Unstaged(ctx, opts)
	}),
}

var tourStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Tour staged changes (index vs HEAD)",
	Args:  cobra.NoArgs,
	RunE: tourRunE(func(ctx context.Context, _ *cobra.Command, _ []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Staged(ctx, opts)
	}),
}

var flagParent string

var tourCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Tour a specific commit",
	Args:  cobra.ExactArgs(1),
	RunE: tourRunE(func(ctx context.Context, _ *cobra.Command, args []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Commit(ctx, args[0], flagParent, opts)
	}),
}

var flagMergeBase bool

var tourRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Tour a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: tourRunE(func(ctx context.Context, _ *cobra.Command, args []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Range(ctx, args[0], flagMergeBase, opts)
	}),
}

var (
	flagSnippetPath string
	flagSnippetBase string
)

var tourSnippetCmd = &cobra.Command{
	Use:   "snippet",
	Short: "Tour code read from stdin",
	Args:  cobra.NoArgs,
	RunE: tourRunE(func(ctx context.Context, cmd *cobra.Command, _ []string, _ gitctx.DiffOptions) (gitctx.DiffResult, error) {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return gitctx.DiffResult{}, fmt.Errorf("reading stdin: %w", err)
		}
		var base string
		if flagSnippetBase != "" {
			data, err := os.ReadFile(flagSnippetBase)
			if err != nil {
				return gitctx.DiffResult{}, fmt.Errorf("reading base file: %w", err)
			}
			base = string(data)
		}
		path := flagSnippetPath
		if path == "" {
			path = "stdin"
		}
		return gitctx.Snippet(ctx, string(content), path, base)
	}),
}

func init() {
	tourCmd.AddCommand(tourUnstagedCmd)
	tourCmd.AddCommand(tourStagedCmd)
	tourCmd.AddCommand(tourCommitCmd)
	tourCmd.AddCommand(tourRangeCmd)
	tourCmd.AddCommand(tourSnippetCmd)

	for _, cmd := range []*cobra.Command{
		tourUnstagedCmd,
		tourStagedCmd,
		tourCommitCmd,
		tourRangeCmd,
		tourSnippetCmd,
	} {
		addTourFlags(cmd)
	}

	tourCommitCmd.Flags().StringVar(&flagParent, "parent", "", "Override parent SHA (for merge commits)")
	tourRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")
	tourSnippetCmd.Flags().StringVar(&flagSnippetPath, "path", "", "File path (selects the language of the declaration matcher)")
	tourSnippetCmd.Flags().StringVar(&flagSnippetBase, "base", "", "Base file to diff against")
}
