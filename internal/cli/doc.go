// Package cli wires together the Cobra command tree for the reviewtour binary.
//
// It defines the root command and all subcommands (tour, github, watch,
// config, cache, hook, version), binds flags, reads configuration, invokes
// the tour engine and returns deterministic exit codes.
package cli
