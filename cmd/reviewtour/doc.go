// Reviewtour orders the changes of a diff into a review tour.
//
// It splits unstaged, staged, commit, range, snippet and pull-request diffs
// into change parts, relates parts that belong together (a declaration and
// its uses, configured path groups, the same file, the same directory) and
// prints them in an order that keeps related parts adjacent, grouped under
// a heading per relation.
//
// Usage:
//
//	reviewtour tour unstaged                 # tour working tree changes
//	reviewtour tour staged                   # tour staged changes
//	reviewtour tour commit <sha>             # tour a specific commit
//	reviewtour tour range origin/main..HEAD  # tour a revision range
//	reviewtour tour snippet --path a.go      # tour code from stdin
//	reviewtour github 42 --comment           # tour a PR and post it
//	reviewtour watch                         # re-tour on every save
package main
