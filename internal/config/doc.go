// Package config loads and merges reviewtour configuration from multiple
// sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (REVIEWTOUR_FORMAT, REVIEWTOUR_MATCHERS,
//     REVIEWTOUR_TIMEOUT, REVIEWTOUR_LOG_LEVEL, REVIEWTOUR_CONTEXT_LINES)
//  3. Project file (.reviewtour.yaml at the repository root)
//  4. User file ($XDG_CONFIG_HOME/reviewtour/config.yaml)
//  5. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write the user file and
// [SetField] to update a single key.
package config
