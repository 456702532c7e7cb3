package gitctx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tobiasbaum/reviewtool-sub002/internal/changepart"
)

// IndexRevision is the Revision of staged diffs: content is read from the
// index.
const IndexRevision = ":"

// WorkingTree reads files below Root.
type WorkingTree struct {
	Root string
}

func (w WorkingTree) Content(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := filepath.FromSlash(path)
	if filepath.IsAbs(rel) || !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("path %q escapes the working tree", path)
	}
	return os.ReadFile(filepath.Join(w.Root, rel))
}

// Revision reads files as of Rev with git show, running in Dir.
type Revision struct {
	Dir string
	Rev string
}

func (r Revision) Content(ctx context.Context, path string) ([]byte, error) {
	object := r.Rev + ":" + path
	if r.Rev == IndexRevision {
		object = ":" + path
	}
	out, err := gitOutput(ctx, r.Dir, "show", object)
	if err != nil {
		return nil, fmt.Errorf("git show %s: %w", object, err)
	}
	return []byte(out), nil
}

// Memory serves content held in memory, keyed by path.
type Memory map[string][]byte

func (m Memory) Content(ctx context.Context, path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return data, nil
}

// ContentSource returns where the new version of the changed files can be
// read.
func (d DiffResult) ContentSource() changepart.ContentSource {
	switch {
	case d.memory != nil:
		return d.memory
	case d.Revision != "":
		return Revision{Dir: d.Repo.Root, Rev: d.Revision}
	case d.Repo.Root != "":
		return WorkingTree{Root: d.Repo.Root}
	default:
		return WorkingTree{Root: "."}
	}
}
