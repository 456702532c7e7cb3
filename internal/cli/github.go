package cli

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tobiasbaum/reviewtool-sub002/internal/github"
	"github.com/tobiasbaum/reviewtool-sub002/internal/gitctx"
	"github.com/tobiasbaum/reviewtool-sub002/internal/output"
)

var (
	flagGHOwner   string
	flagGHRepo    string
	flagGHComment bool
)

var githubCmd = &cobra.Command{
	Use:   "github <pr-number>",
	Short: "Tour a GitHub pull request",
	Long:  "Fetch a PR diff from GitHub, compute its tour and optionally post the tour as a PR comment.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prNumber, err := strconv.Atoi(args[0])
		if err != nil || prNumber <= 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: invalid PR number %q\n", args[0])
			exitCode = ExitUsageError
			return nil
		}

		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		owner, repo := flagGHOwner, flagGHRepo
		if owner == "" || repo == "" {
			detectedOwner, detectedRepo, err := github.DetectRepo(ctx)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\nUse --owner and --repo flags to specify manually.\n", err)
				exitCode = ExitUsageError
				return nil
			}
			if owner == "" {
				owner = detectedOwner
			}
			if repo == "" {
				repo = detectedRepo
			}
		}

		client, err := github.NewClient()
		if err != nil {
			fail(cmd, err)
			return nil
		}

		start := time.Now()
		fmt.Fprintf(cmd.ErrOrStderr(), "Fetching PR #%d from %s/%s...\n", prNumber, owner, repo)
		pr, err := client.GetPR(ctx, owner, repo, prNumber)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		raw, err := client.GetPRDiff(ctx, owner, repo, prNumber)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		diff, err := gitctx.FromDiff(ctx, raw, "github-pr", fmt.Sprintf("#%d", prNumber), pr.Head.SHA, buildDiffOpts(cfg))
		if err != nil {
			fail(cmd, err)
			return nil
		}
		gitMs := time.Since(start).Milliseconds()

		report, err := computeTour(ctx, cmd, diff, cfg)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		report.Timing.GitMs = gitMs

		if err := output.WriteReport(report, cfg.Format, flagOut, flagSnippets); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if !flagGHComment {
			return nil
		}
		var md bytes.Buffer
		if err := (&output.MarkdownWriter{}).Write(&md, report); err != nil {
			fail(cmd, err)
			return nil
		}
		updated, err := client.UpsertTourComment(ctx, owner, repo, prNumber, md.String())
		if err != nil {
			fail(cmd, err)
			return nil
		}
		if updated {
			fmt.Fprintf(cmd.ErrOrStderr(), "Updated tour comment on PR #%d.\n", prNumber)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Posted tour comment to PR #%d.\n", prNumber)
		}
		return nil
	},
}

func init() {
	addTourFlags(githubCmd)
	githubCmd.Flags().StringVar(&flagGHOwner, "owner", "", "GitHub repository owner (auto-detected if omitted)")
	githubCmd.Flags().StringVar(&flagGHRepo, "repo", "", "GitHub repository name (auto-detected if omitted)")
	githubCmd.Flags().BoolVar(&flagGHComment, "comment", false, "Post the tour as a PR comment, replacing an earlier one")
}
