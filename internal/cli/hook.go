package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookName        = "post-commit"
	hookMarkerStart = "# >>> reviewtour post-commit hook >>>"
	hookMarkerEnd   = "# <<< reviewtour post-commit hook <<<"
)

var (
	hookFormat string
	hookOut    string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git post-commit hook that prints the tour of each new commit",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install reviewtour as a git post-commit hook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := hookPath(cmd.Context())
		if err != nil {
			fail(cmd, err)
			return nil
		}

		existing, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			fail(cmd, fmt.Errorf("reading hook file: %w", err))
			return nil
		}
		content := upsertHookSection(string(existing), hookSection(hookFormat, hookOut))

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fail(cmd, fmt.Errorf("creating hooks directory: %w", err))
			return nil
		}
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			fail(cmd, fmt.Errorf("writing hook file: %w", err))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed reviewtour %s hook at %s\n", hookName, path)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the reviewtour post-commit hook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := hookPath(cmd.Context())
		if err != nil {
			fail(cmd, err)
			return nil
		}

		existing, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s hook found.\n", hookName)
			return nil
		}
		if err != nil {
			fail(cmd, fmt.Errorf("reading hook file: %w", err))
			return nil
		}

		content := removeHookSection(string(existing))
		if isEmptyScript(content) {
			if err := os.Remove(path); err != nil {
				fail(cmd, fmt.Errorf("removing hook file: %w", err))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", path)
			return nil
		}
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			fail(cmd, fmt.Errorf("writing hook file: %w", err))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed reviewtour section from %s\n", path)
		return nil
	},
}

// hookPath asks git where the hook lives, which honors core.hooksPath and
// linked worktrees.
func hookPath(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "git", "rev-parse", "--git-path", "hooks/"+hookName).Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-path failed)")
	}
	return strings.TrimSpace(string(out)), nil
}

// hookSection is the marked script block. The tour never blocks a commit;
// a failure only prints a note.
func hookSection(format, out string) string {
	command := "reviewtour tour commit HEAD --format " + format
	if out != "" {
		command += " --out '" + strings.ReplaceAll(out, "'", `'\''`) + "'"
	}
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString(command + " || echo \"reviewtour: could not compute the tour of this commit\" >&2\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

// upsertHookSection replaces the marked block of script, appends it when
// there is none, and starts a new script when script is empty.
func upsertHookSection(script, section string) string {
	if strings.TrimSpace(script) == "" {
		return "#!/bin/sh\n" + section
	}
	start := strings.Index(script, hookMarkerStart)
	end := strings.Index(script, hookMarkerEnd)
	if start < 0 || end < start {
		if !strings.HasSuffix(script, "\n") {
			script += "\n"
		}
		return script + section
	}
	rest := strings.TrimPrefix(script[end+len(hookMarkerEnd):], "\n")
	return script[:start] + section + rest
}

func removeHookSection(script string) string {
	start := strings.Index(script, hookMarkerStart)
	end := strings.Index(script, hookMarkerEnd)
	if start < 0 || end < start {
		return script
	}
	return script[:start] + strings.TrimPrefix(script[end+len(hookMarkerEnd):], "\n")
}

// isEmptyScript reports whether only a shebang line is left.
func isEmptyScript(script string) bool {
	s := strings.TrimSpace(script)
	return s == "" || (strings.HasPrefix(s, "#!") && !strings.Contains(s, "\n"))
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format of the printed tour (text, json, markdown)")
	hookInstallCmd.Flags().StringVar(&hookOut, "out", "", "Write the tour to this file instead of the terminal")
}
