package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DiffOptions controls how diffs are gathered.
type DiffOptions struct {
	ContextLines int
	MaxDiffBytes int
	Include      []string
	Exclude      []string
}

// DiffResult holds the collected diff and metadata.
type DiffResult struct {
	Diff  string
	Files []string
	Mode  string
	Range string
	Repo  RepoMeta
	// Revision names the version the new side of Diff was taken from:
	// empty for the working tree, IndexRevision for the index, or a commit.
	Revision string

	// memory holds file content for snippets, which exist only in memory.
	memory Memory
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string `json:"root,omitempty"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta(ctx context.Context) (RepoMeta, error) {
	root, err := gitOutput(ctx, "", "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput(ctx, "", "rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput(ctx, "", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// Unstaged returns the diff of working tree vs index.
func Unstaged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	args := buildDiffArgs(opts)
	diff, err := gitOutput(ctx, "", append([]string{"diff"}, args...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff: %w", err)
	}
	return buildResult(ctx, diff, "unstaged", "", "", opts)
}

// Staged returns the diff of index vs HEAD.
func Staged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	args := buildDiffArgs(opts)
	diff, err := gitOutput(ctx, "", append([]string{"diff", "--cached"}, args...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff --cached: %w", err)
	}
	return buildResult(ctx, diff, "staged", "", IndexRevision, opts)
}

// Commit returns the diff for a specific commit vs its parent.
func Commit(ctx context.Context, sha string, parent string, opts DiffOptions) (DiffResult, error) {
	args := buildDiffArgs(opts)
	if parent != "" {
		cmdArgs := append([]string{"diff", parent, sha}, args...)
		diff, err := gitOutput(ctx, "", cmdArgs...)
		if err != nil {
			return DiffResult{}, fmt.Errorf("git diff %s %s: %w", parent, sha, err)
		}
		return buildResult(ctx, diff, "commit", sha, sha, opts)
	}
	cmdArgs := append([]string{"diff", sha + "~1", sha}, args...)
	diff, err := gitOutput(ctx, "", cmdArgs...)
	if err != nil {
		// Might be the initial commit.
		showArgs := append([]string{"show", "--format=", sha}, args...)
		diff, err = gitOutput(ctx, "", showArgs...)
		if err != nil {
			return DiffResult{}, fmt.Errorf("git show %s: %w", sha, err)
		}
	}
	return buildResult(ctx, diff, "commit", sha, sha, opts)
}

// Range returns the combined diff for a revision range.
func Range(ctx context.Context, revRange string, mergeBase bool, opts DiffOptions) (DiffResult, error) {
	args := buildDiffArgs(opts)
	diffRange := revRange
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		diffRange = strings.Replace(revRange, "..", "...", 1)
	}
	cmdArgs := append([]string{"diff", diffRange}, args...)
	diff, err := gitOutput(ctx, "", cmdArgs...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff %s: %w", revRange, err)
	}
	return buildResult(ctx, diff, "range", revRange, rangeTip(revRange), opts)
}

// FromDiff wraps a diff obtained elsewhere, such as from a code host. Include
// patterns are the caller's concern; excludes and the size limit apply.
// revision names the commit holding the new side, if it is known locally.
func FromDiff(ctx context.Context, diff, mode, rangeStr, revision string, opts DiffOptions) (DiffResult, error) {
	return buildResult(ctx, diff, mode, rangeStr, revision, opts)
}

// rangeTip returns the revision holding the new side of a range diff.
// A single revision is diffed against the working tree.
func rangeTip(revRange string) string {
	i := strings.Index(revRange, "..")
	if i < 0 {
		return ""
	}
	tip := strings.TrimLeft(revRange[i:], ".")
	if tip == "" {
		return "HEAD"
	}
	return tip
}

// Snippet wraps raw content as a "diff" for review. If base is provided,
// computes a real diff against it. The content is served from memory.
func Snippet(ctx context.Context, content, path, base string) (DiffResult, error) {
	var diff string
	if base != "" {
		tmpDir, err := os.MkdirTemp("", "reviewtour-snippet-*")
		if err != nil {
			return DiffResult{}, fmt.Errorf("creating temp dir: %w", err)
		}
		defer os.RemoveAll(tmpDir)

		baseName := filepath.Base(path)
		aFile := filepath.Join(tmpDir, "a", baseName)
		bFile := filepath.Join(tmpDir, "b", baseName)
		for file, data := range map[string]string{aFile: base, bFile: content} {
			if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
				return DiffResult{}, err
			}
			if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
				return DiffResult{}, err
			}
		}

		// git diff --no-index exits 1 when files differ.
		diff, err = gitOutput(ctx, "", "diff", "--no-index", aFile, bFile)
		if err != nil && diff == "" {
			return DiffResult{}, fmt.Errorf("git diff --no-index: %w", err)
		}
		diff = strings.ReplaceAll(diff, "a"+filepath.ToSlash(aFile), "a/"+path)
		diff = strings.ReplaceAll(diff, "b"+filepath.ToSlash(bFile), "b/"+path)
	} else {
		lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
		var b strings.Builder
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", path, path)
		fmt.Fprintf(&b, "new file mode 100644\n")
		fmt.Fprintf(&b, "--- /dev/null\n")
		fmt.Fprintf(&b, "+++ b/%s\n", path)
		fmt.Fprintf(&b, "@@ -0,0 +1,%d @@\n", len(lines))
		for _, line := range lines {
			fmt.Fprintf(&b, "+%s\n", line)
		}
		diff = b.String()
	}

	return DiffResult{
		Diff:   diff,
		Files:  []string{path},
		Mode:   "snippet",
		memory: Memory{path: []byte(content)},
	}, nil
}

func buildDiffArgs(opts DiffOptions) []string {
	var args []string
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	args = append(args, "--")
	for _, p := range opts.Include {
		if p != "**/*" {
			args = append(args, p)
		}
	}
	return args
}

func buildResult(ctx context.Context, diff, mode, rangeStr, revision string, opts DiffOptions) (DiffResult, error) {
	meta, err := GetRepoMeta(ctx)
	if err != nil {
		meta = RepoMeta{}
	}

	// Filter excludes before truncating so excluded files don't consume the byte budget
	if len(opts.Exclude) > 0 {
		diff = filterExcluded(diff, opts.Exclude)
	}
	files := extractFiles(diff)

	if opts.MaxDiffBytes > 0 && len(diff) > opts.MaxDiffBytes {
		diff = diff[:opts.MaxDiffBytes] + "\n... (diff truncated at max-diff-bytes limit)\n"
	}

	return DiffResult{
		Diff:     diff,
		Files:    files,
		Mode:     mode,
		Range:    rangeStr,
		Repo:     meta,
		Revision: revision,
	}, nil
}

func extractFiles(diff string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, section := range splitDiffSections(diff) {
		f := extractPathFromSection(section)
		if f != "" && !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

func filterExcluded(diff string, excludes []string) string {
	var kept []string
	for _, section := range splitDiffSections(diff) {
		path := extractPathFromSection(section)
		if path == "" || !MatchesAny(path, excludes) {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, "")
}

func splitDiffSections(diff string) []string {
	if diff == "" {
		return nil
	}
	var sections []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

// extractPathFromSection returns the file a diff section changes: the new
// path, the old path of a deleted file, or the header path of a section
// without hunks such as a binary change.
func extractPathFromSection(section string) string {
	var header, old string
	for _, line := range strings.Split(section, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ b/"):
			return strings.TrimPrefix(line, "+++ b/")
		case strings.HasPrefix(line, "--- a/"):
			old = strings.TrimPrefix(line, "--- a/")
		case strings.HasPrefix(line, "@@"):
			return old
		case strings.HasPrefix(line, "diff --git "):
			header = headerPath(line)
		}
	}
	if old != "" {
		return old
	}
	return header
}

// headerPath returns the b/ path of a "diff --git a/x b/y" line.
func headerPath(line string) string {
	i := strings.LastIndex(line, " b/")
	if i < 0 {
		return ""
	}
	return line[i+len(" b/"):]
}

// MatchesAny returns true if the path matches any of the given doublestar
// patterns. A pattern without a slash also matches the base name.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, err := doublestar.Match(pattern, filepath.Base(path)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
