// Package gitctx extracts diffs and commit metadata from a git repository
// and turns them into change fragments.
//
// It supports the unstaged, staged, commit, range and snippet modes by
// shelling out to git with appropriate arguments. Results are filtered by
// include/exclude doublestar patterns and truncated to a configurable
// maximum byte size.
//
// [ParseFragments] converts a unified diff into fragments, and
// [DiffResult.ContentSource] tells where the new version of each file can be
// read: the working tree, the index, a commit or memory.
package gitctx
