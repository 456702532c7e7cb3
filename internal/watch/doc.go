// Package watch re-runs a callback when files of a directory tree change.
//
// Events are collected with fsnotify and coalesced: the callback runs once
// the tree has been quiet for the debounce period. Hidden and vendor
// directories are not watched.
package watch
