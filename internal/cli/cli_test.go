package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tobiasbaum/reviewtool-sub002/internal/config"
	"github.com/tobiasbaum/reviewtool-sub002/internal/ordering"
)

// resetFlags resets the package-level flag variables and the exit code, and
// isolates config and cache directories.
func resetFlags(t *testing.T) {
	t.Helper()
	flagPaths = ""
	flagExclude = ""
	flagContextLines = 0
	flagMaxDiffBytes = 0
	flagFormat = ""
	flagOut = ""
	flagMatchers = ""
	flagNoRedact = false
	flagNoCache = false
	flagSnippets = false
	flagParent = ""
	flagMergeBase = true
	flagSnippetPath = ""
	flagSnippetBase = ""
	flagGHOwner = ""
	flagGHRepo = ""
	flagGHComment = false
	flagLogLevel = ""

	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "cache"))
	for _, env := range []string{"REVIEWTOUR_FORMAT", "REVIEWTOUR_MATCHERS", "REVIEWTOUR_TIMEOUT", "REVIEWTOUR_LOG_LEVEL", "REVIEWTOUR_CONTEXT_LINES"} {
		t.Setenv(env, "")
	}

	saved := exitCode
	exitCode = ExitSuccess
	t.Cleanup(func() { exitCode = saved })
}

func TestSplitComma(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", nil},
		{"single value", "foo", []string{"foo"}},
		{"whitespace trimmed", " a , b , c ", []string{"a", "b", "c"}},
		{"empty parts skipped", "a,,b", []string{"a", "b"}},
		{"all empty", ",,,", nil},
		{"glob patterns", "*.go,src/**/*.ts", []string{"*.go", "src/**/*.ts"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitComma(tt.input))
		})
	}
}

func TestBuildOverrides(t *testing.T) {
	resetFlags(t)
	assert.Empty(t, buildOverrides())

	flagFormat = "json"
	flagContextLines = 5
	flagMaxDiffBytes = 1000
	flagMatchers = "samefile,directory"
	assert.Equal(t, map[string]string{
		"format":       "json",
		"contextLines": "5",
		"maxDiffBytes": "1000",
		"matchers":     "samefile,directory",
	}, buildOverrides())
}

func TestBuildDiffOpts(t *testing.T) {
	resetFlags(t)
	cfg := config.Config{
		ContextLines: 5,
		MaxDiffBytes: 100000,
		Include:      []string{"**/*"},
		Exclude:      []string{"vendor/**"},
	}

	opts := buildDiffOpts(cfg)
	assert.Equal(t, 5, opts.ContextLines)
	assert.Equal(t, 100000, opts.MaxDiffBytes)
	assert.Equal(t, []string{"**/*"}, opts.Include)
	assert.Equal(t, []string{"vendor/**"}, opts.Exclude)

	flagPaths = "src/**/*.go,lib/**/*.go"
	flagExclude = "test/**"
	opts = buildDiffOpts(cfg)
	assert.Equal(t, []string{"src/**/*.go", "lib/**/*.go"}, opts.Include)
	assert.Equal(t, []string{"vendor/**", "test/**"}, opts.Exclude)
	assert.Equal(t, []string{"vendor/**"}, cfg.Exclude, "config slice must not be modified")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewLogger_FlagWins(t *testing.T) {
	resetFlags(t)
	flagLogLevel = "error"
	logger := newLogger("debug")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestFail_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"runtime", errors.New("git failed"), ExitRuntimeError},
		{"canceled", fmt.Errorf("%w: %w", ordering.ErrCanceled, context.DeadlineExceeded), ExitCanceled},
		{"interrupted", context.Canceled, ExitCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			var stderr bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetErr(&stderr)
			fail(cmd, tt.err)
			assert.Equal(t, tt.want, exitCode)
			assert.Contains(t, stderr.String(), tt.err.Error())
		})
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "reviewtour version ")
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 0, ExitSuccess)
	assert.Equal(t, 2, ExitUsageError)
	assert.Equal(t, 4, ExitRuntimeError)
	assert.Equal(t, 5, ExitCanceled)
}

func TestConfigInit_CreatesFile(t *testing.T) {
	resetFlags(t)
	configCmd.SetArgs([]string{"init"})
	require.NoError(t, configCmd.Execute())

	path, err := config.ConfigPath()
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, config.Default().Matchers, cfg.Matchers)
}

func TestConfigInit_AlreadyExists(t *testing.T) {
	resetFlags(t)
	path, err := config.ConfigPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("format: json\n"), 0o644))

	configCmd.SetArgs([]string{"init"})
	require.NoError(t, configCmd.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "format: json\n", string(data))
}

func TestConfigSet(t *testing.T) {
	resetFlags(t)
	configCmd.SetArgs([]string{"set", "boundaryDepth", "2"})
	require.NoError(t, configCmd.Execute())

	cfg, err := config.LoadFile()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.BoundaryDepth)
}

func TestConfigSet_Errors(t *testing.T) {
	resetFlags(t)
	for _, args := range [][]string{
		{"set", "unknownKey", "value"},
		{"set", "boundaryDepth", "0"},
		{"set", "format"},
	} {
		configCmd.SetArgs(args)
		assert.Error(t, configCmd.Execute(), "%v", args)
	}
}

func TestConfigShow(t *testing.T) {
	resetFlags(t)
	chdir(t, t.TempDir())
	var out bytes.Buffer
	configShowCmd.SetOut(&out)
	t.Cleanup(func() { configShowCmd.SetOut(nil) })

	configCmd.SetArgs([]string{"show"})
	require.NoError(t, configCmd.Execute())
	assert.Contains(t, out.String(), "matchers:")
	assert.Contains(t, out.String(), "boundaryDepth: 1")
}

func TestCacheCommands(t *testing.T) {
	resetFlags(t)
	chdir(t, t.TempDir())
	dir := filepath.Join(os.Getenv("XDG_CACHE_HOME"), "reviewtour")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.mp"), []byte("x"), 0o644))

	var out bytes.Buffer
	cacheClearCmd.SetOut(&out)
	t.Cleanup(func() { cacheClearCmd.SetOut(nil) })
	cacheCmd.SetArgs([]string{"clear"})
	require.NoError(t, cacheCmd.Execute())
	assert.Contains(t, out.String(), "1 entries removed")

	_, err := os.Stat(filepath.Join(dir, "abc.mp"))
	assert.True(t, os.IsNotExist(err))

	cacheCmd.SetArgs([]string{"show"})
	assert.NoError(t, cacheCmd.Execute())
}

func TestGithubCmd_InvalidPRNumber(t *testing.T) {
	resetFlags(t)
	var stderr bytes.Buffer
	githubCmd.SetErr(&stderr)
	t.Cleanup(func() { githubCmd.SetErr(nil) })

	githubCmd.SetArgs([]string{"abc"})
	require.NoError(t, githubCmd.Execute())
	assert.Equal(t, ExitUsageError, exitCode)
	assert.Contains(t, stderr.String(), `invalid PR number "abc"`)
}

func TestGithubCmd_MissingArg(t *testing.T) {
	resetFlags(t)
	githubCmd.SetArgs([]string{})
	assert.Error(t, githubCmd.Execute())
}

func TestTourCmd_HasSubcommands(t *testing.T) {
	var names []string
	for _, sub := range tourCmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"unstaged", "staged", "commit", "range", "snippet"}, names)
}

func TestTourCmd_MissingArgs(t *testing.T) {
	resetFlags(t)
	for _, args := range [][]string{{"commit"}, {"range"}} {
		tourCmd.SetArgs(args)
		assert.Error(t, tourCmd.Execute(), "%v", args)
	}
}

func TestTourSnippet_JSON(t *testing.T) {
	resetFlags(t)
	chdir(t, t.TempDir())
	out := filepath.Join(t.TempDir(), "tour.json")

	tourSnippetCmd.SetIn(bytes.NewBufferString("package p\n\nfunc Price() int { return 1 }\n"))
	t.Cleanup(func() { tourSnippetCmd.SetIn(nil) })
	tourCmd.SetArgs([]string{"snippet", "--path", "p/price.go", "--format", "json", "--out", out, "--no-cache"})
	require.NoError(t, tourCmd.Execute())
	assert.Equal(t, ExitSuccess, exitCode)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"path": "p/price.go"`)
	assert.Contains(t, string(data), `"mode": "snippet"`)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
