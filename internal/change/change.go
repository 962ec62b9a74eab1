package change

import "time"

// Kind classifies a file-level difference.
type Kind string

const (
	Added    Kind = "added"
	Modified Kind = "modified"
	Deleted  Kind = "deleted"
)

// FileChange is one file's difference observed in a session window.
type FileChange struct {
	Path      string `json:"path"`
	Kind      Kind   `json:"kind"`
	Diff      string `json:"diff,omitempty"`
	Size      int    `json:"size"` // bytes of the (possibly truncated) diff body
	Binary    bool   `json:"binary,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Changeset is the normalized set of differences observed in one session.
// Paths are unique and sorted lexicographically, so two extractions over an
// identical repository state compare equal.
type Changeset struct {
	Repo        string       `json:"repo"`
	WindowStart time.Time    `json:"window_start"`
	WindowEnd   time.Time    `json:"window_end"`
	Changes     []FileChange `json:"changes"`
}

// Empty reports whether the changeset carries no changes. An empty changeset
// short-circuits the session: no summarization, no record, marker advances.
func (cs *Changeset) Empty() bool {
	return len(cs.Changes) == 0
}

// Paths returns the changed paths in changeset order.
func (cs *Changeset) Paths() []string {
	paths := make([]string, len(cs.Changes))
	for i, fc := range cs.Changes {
		paths[i] = fc.Path
	}
	return paths
}

// TotalSize returns the summed diff body size in bytes.
func (cs *Changeset) TotalSize() int {
	total := 0
	for _, fc := range cs.Changes {
		total += fc.Size
	}
	return total
}
