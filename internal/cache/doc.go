// Package cache provides a file-based cache for computed review tours.
//
// Entries are keyed by a SHA-256 hash of a configuration fingerprint and the
// diff text. Each entry is a msgpack envelope holding a creation timestamp,
// a TTL in seconds and the msgpack-encoded value. Expired entries are
// skipped on read and counted by [Cache.GetStats].
//
// The default cache directory is $XDG_CACHE_HOME/reviewtour (or the
// OS-appropriate equivalent). Snippets stored in cached reports have already
// been through secret redaction.
package cache
