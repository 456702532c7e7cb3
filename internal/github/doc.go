// Package github is a small GitHub REST client for touring pull requests.
//
// It fetches the diff and head revision of a PR and posts the markdown tour
// as a single PR comment, which later runs edit in place. The token comes
// from GITHUB_TOKEN; GITHUB_API_URL selects an enterprise host.
package github
