package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName = "reviewtour"
	// ProjectFile is the per-repository config file read from the repository
	// root, layered between the user file and the environment.
	ProjectFile = ".reviewtour.yaml"
)

// Config represents the reviewtour configuration.
type Config struct {
	Format               string        `yaml:"format" json:"format"`
	ContextLines         int           `yaml:"contextLines" json:"contextLines"`
	Include              []string      `yaml:"include" json:"include"`
	Exclude              []string      `yaml:"exclude" json:"exclude"`
	MaxDiffBytes         int           `yaml:"maxDiffBytes" json:"maxDiffBytes"`
	Matchers             []string      `yaml:"matchers" json:"matchers"`
	PathGroups           []PathGroup   `yaml:"pathGroups,omitempty" json:"pathGroups,omitempty"`
	IrrelevantCategories []string      `yaml:"irrelevantCategories,omitempty" json:"irrelevantCategories,omitempty"`
	BoundaryDepth        int           `yaml:"boundaryDepth" json:"boundaryDepth"`
	TimeoutSeconds       int           `yaml:"timeoutSeconds" json:"timeoutSeconds"`
	FastModeAfterSeconds int           `yaml:"fastModeAfterSeconds" json:"fastModeAfterSeconds"`
	LogLevel             string        `yaml:"logLevel" json:"logLevel"`
	Cache                CacheConfig   `yaml:"cache" json:"cache"`
	Privacy              PrivacyConfig `yaml:"privacy" json:"privacy"`
}

// PathGroup names a set of glob patterns whose matching files belong
// together in a tour.
type PathGroup struct {
	Name     string   `yaml:"name" json:"name"`
	Patterns []string `yaml:"patterns" json:"patterns"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Dir        string `yaml:"dir,omitempty" json:"dir,omitempty"`
	TTLSeconds int    `yaml:"ttlSeconds" json:"ttlSeconds"`
}

// PrivacyConfig controls redaction of snippets in reports.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redactSecrets" json:"redactSecrets"`
	RedactPaths   []string `yaml:"redactPaths,omitempty" json:"redactPaths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Format:               "text",
		ContextLines:         3,
		Include:              []string{"**/*"},
		Exclude:              []string{"vendor/**", "**/*.gen.go", "**/dist/**"},
		MaxDiffBytes:         500000,
		Matchers:             []string{"declaration", "pathgroups", "samefile", "directory"},
		IrrelevantCategories: []string{"whitespace"},
		BoundaryDepth:        1,
		TimeoutSeconds:       60,
		FastModeAfterSeconds: 10,
		LogLevel:             "info",
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// Timeout is the overall limit of a tour computation. Zero means none.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FastModeAfter is the elapsed time after which ordering skips fold
// minimization. Zero means never.
func (c Config) FastModeAfter() time.Duration {
	return time.Duration(c.FastModeAfterSeconds) * time.Second
}

// Validate checks value ranges that the merge steps cannot.
func (c Config) Validate() error {
	var errs []error
	switch c.Format {
	case "text", "json", "markdown":
	default:
		errs = append(errs, fmt.Errorf("unknown format %q (want text, json or markdown)", c.Format))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if c.BoundaryDepth < 1 {
		errs = append(errs, fmt.Errorf("boundaryDepth must be at least 1, got %d", c.BoundaryDepth))
	}
	if c.ContextLines < 0 {
		errs = append(errs, fmt.Errorf("contextLines must not be negative, got %d", c.ContextLines))
	}
	if c.TimeoutSeconds < 0 || c.FastModeAfterSeconds < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	for _, g := range c.PathGroups {
		if g.Name == "" || len(g.Patterns) == 0 {
			errs = append(errs, fmt.Errorf("path group %q needs a name and at least one pattern", g.Name))
		}
	}
	return errors.Join(errs...)
}

// ConfigDir returns the platform-appropriate config directory for reviewtour.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return filepath.Join(home, "AppData", "Roaming", appName), nil
	default:
		return filepath.Join(home, ".config", appName), nil
	}
}

// ConfigPath returns the full path to the user config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile returns the defaults overlaid with the user config file. A missing
// file yields the defaults.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := mergeFile(&cfg, path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the config to the user config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging:
// defaults <- user file <- project file <- env <- overrides.
// projectDir may be empty to skip the project file. The overrides map comes
// from CLI flags (only non-zero values should be set).
func Load(projectDir string, overrides map[string]string) (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	if projectDir != "" {
		if err := mergeFile(&cfg, filepath.Join(projectDir, ProjectFile)); err != nil {
			return Config{}, err
		}
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// mergeFile decodes the YAML file at path onto dst. Keys absent from the
// file keep their current value, so explicit false booleans are honored.
func mergeFile(dst *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

var envKeys = map[string]string{
	"REVIEWTOUR_FORMAT":        "format",
	"REVIEWTOUR_MATCHERS":      "matchers",
	"REVIEWTOUR_TIMEOUT":       "timeoutSeconds",
	"REVIEWTOUR_LOG_LEVEL":     "logLevel",
	"REVIEWTOUR_CONTEXT_LINES": "contextLines",
}

func mergeEnv(cfg *Config) error {
	for env, key := range envKeys {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for k, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, k, v); err != nil {
			return fmt.Errorf("flag %s: %w", k, err)
		}
	}
	return nil
}

// SetField sets a single config field by key name.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "format":
		cfg.Format = value
	case "contextLines":
		return setInt(&cfg.ContextLines, key, value)
	case "maxDiffBytes":
		return setInt(&cfg.MaxDiffBytes, key, value)
	case "matchers":
		cfg.Matchers = splitList(value)
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "irrelevantCategories":
		cfg.IrrelevantCategories = splitList(value)
	case "boundaryDepth":
		return setInt(&cfg.BoundaryDepth, key, value)
	case "timeoutSeconds":
		return setInt(&cfg.TimeoutSeconds, key, value)
	case "fastModeAfterSeconds":
		return setInt(&cfg.FastModeAfterSeconds, key, value)
	case "logLevel":
		cfg.LogLevel = value
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, key, value)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		return setInt(&cfg.Cache.TTLSeconds, key, value)
	case "privacy.redactSecrets":
		return setBool(&cfg.Privacy.RedactSecrets, key, value)
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
