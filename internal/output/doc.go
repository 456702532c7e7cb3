// Package output formats review tours for display or machine consumption.
//
// Three formats are supported:
//   - text: human-readable terminal output (default), colored on terminals
//   - json: the full structured report
//   - markdown: PR-comment-friendly, with snippets in a collapsible section
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*tour.Report]. [WriteReport]
// handles destination selection.
package output
