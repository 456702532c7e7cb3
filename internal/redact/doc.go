// Package redact removes secrets from snippets before a tour is rendered or
// cached.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens and provider-specific tokens (Anthropic, OpenAI, GitHub, Slack).
//
// Path-based redaction is also supported: stops in files whose paths match
// configured doublestar patterns show a single [REDACTED] line instead of
// their snippet.
package redact
