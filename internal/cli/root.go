package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tobiasbaum/reviewtool-sub002/internal/tour"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitRuntimeError = 4
	ExitCanceled     = 5
)

var flagLogLevel string

var rootCmd = &cobra.Command{
	Use:   "reviewtour",
	Short: "Order code changes into a review tour",
	Long: "reviewtour splits a diff into change parts, relates them and orders them so that related\n" +
		"changes are reviewed together, with declarations before their uses.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(tourCmd)
	rootCmd.AddCommand(githubCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print reviewtour version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", tour.Tool, tour.Version)
	},
}

// newLogger builds the stderr logger. The --log-level flag wins over the
// configured level; unknown levels mean INFO.
func newLogger(configured string) *slog.Logger {
	level := configured
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}
