package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tobiasbaum/reviewtool-sub002/internal/gitctx"
	"github.com/tobiasbaum/reviewtool-sub002/internal/output"
	"github.com/tobiasbaum/reviewtool-sub002/internal/watch"
)

var flagDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompute the tour of unstaged changes whenever files change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		meta, err := gitctx.GetRepoMeta(ctx)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		logger := newLogger(cfg.LogLevel)
		opts := buildDiffOpts(cfg)

		var outAbs string
		if flagOut != "" {
			outAbs, _ = filepath.Abs(flagOut)
		}
		w, err := watch.New(meta.Root, watch.Options{
			Debounce: flagDebounce,
			Ignore: func(rel string) bool {
				return gitctx.MatchesAny(rel, opts.Exclude) ||
					(outAbs != "" && filepath.Join(meta.Root, filepath.FromSlash(rel)) == outAbs)
			},
			Logger: logger,
		})
		if err != nil {
			fail(cmd, err)
			return nil
		}
		defer w.Close()

		logger.Info("Watching for changes", slog.String("root", meta.Root))
		err = w.Run(ctx, func(ctx context.Context) error {
			start := time.Now()
			diff, err := gitctx.Unstaged(ctx, opts)
			if err != nil {
				logger.Warn("Cannot collect changes", slog.String("error", err.Error()))
				return nil
			}
			gitMs := time.Since(start).Milliseconds()
			report, err := computeTour(ctx, cmd, diff, cfg)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Warn("Cannot compute tour", slog.String("error", err.Error()))
				return nil
			}
			report.Timing.GitMs = gitMs
			if flagOut == "" && cfg.Format == "text" {
				fmt.Fprintf(cmd.OutOrStdout(), "\n=== %s ===\n", time.Now().Format(time.TimeOnly))
			}
			return output.WriteReport(report, cfg.Format, flagOut, flagSnippets)
		})
		if err != nil {
			fail(cmd, err)
		}
		return nil
	},
}

func init() {
	addTourFlags(watchCmd)
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", watch.DefaultDebounce, "Quiet period before recomputing")
}
