package tour

import (
	"github.com/tobiasbaum/reviewtool-sub002/internal/ordering"
)

const (
	Tool    = "reviewtour"
	Version = "0.1.0"
)

// LineRange represents a range of line numbers in the new version of a file.
// A deletion has End == Start-1.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Stop is one change part of the tour.
type Stop struct {
	ID        string    `json:"id"`
	Index     int       `json:"index"`
	Path      string    `json:"path"`
	Lines     LineRange `json:"lines"`
	Fragments int       `json:"fragments"`
	Binary    bool      `json:"binary,omitempty"`
	Category  string    `json:"category,omitempty"`
	Snippet   []string  `json:"snippet,omitempty"`
}

// Node is an element of the tour tree: either a stop, referenced by ID, or a
// titled group of nodes.
type Node struct {
	Title    string `json:"title,omitempty"`
	Stop     string `json:"stop,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// IsGroup reports whether n is a titled group.
func (n Node) IsGroup() bool { return len(n.Children) > 0 }

// GroupInfo describes a relation that is honored by the tour.
type GroupInfo struct {
	Description string   `json:"description"`
	Stops       []string `json:"stops"`
	Explicit    bool     `json:"explicit,omitempty"`
	ViaFolding  bool     `json:"viaFolding,omitempty"`
}

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root"`
	Head   string `json:"head"`
	Branch string `json:"branch"`
}

// InputInfo describes what the tour was computed for.
type InputInfo struct {
	Mode     string   `json:"mode"`
	Range    string   `json:"range,omitempty"`
	Revision string   `json:"revision,omitempty"`
	Files    []string `json:"files,omitempty"`
	Matchers []string `json:"matchers"`
}

// Summary provides an overview of the ordering.
type Summary struct {
	Stops       int            `json:"stops"`
	Groups      int            `json:"groups"`
	Unsatisfied []string       `json:"unsatisfied,omitempty"`
	Stats       ordering.Stats `json:"stats"`
}

// Timing contains performance metrics.
type Timing struct {
	GitMs       int64 `json:"gitMs"`
	PartitionMs int64 `json:"partitionMs"`
	MatchMs     int64 `json:"matchMs"`
	OrderMs     int64 `json:"orderMs"`
	TotalMs     int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool    string      `json:"tool"`
	Version string      `json:"version"`
	RunID   string      `json:"runId"`
	Repo    RepoInfo    `json:"repo"`
	Inputs  InputInfo   `json:"inputs"`
	Summary Summary     `json:"summary"`
	Stops   []Stop      `json:"stops"`
	Tour    []Node      `json:"tour"`
	Groups  []GroupInfo `json:"groups,omitempty"`
	Timing  Timing      `json:"timing"`
	Cached  bool        `json:"cached,omitempty"`
}

// StopByID returns the stop with the given ID.
func (r *Report) StopByID(id string) (Stop, bool) {
	for _, s := range r.Stops {
		if s.ID == id {
			return s, true
		}
	}
	return Stop{}, false
}
