package record

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/worklog/internal/change"
	"github.com/fakeyudi/worklog/internal/summarize"
)

// Entry pairs one changed path with its portion of the session summary.
type Entry struct {
	Path    string      `json:"path"`
	Kind    change.Kind `json:"kind"`
	Bullets []string    `json:"bullets,omitempty"`
}

// Record is the durable artifact of one session: immutable once written,
// one file and one commit per session in the tracking repository.
type Record struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"` // session end time
	SourceRepo   string    `json:"source_repo"`
	Entries      []Entry   `json:"entries"`
	Summary      string    `json:"summary"` // raw scrubbed summary text
	Truncated    bool      `json:"truncated,omitempty"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	DiffBytes    int       `json:"diff_bytes"`
}

// Build assembles a Record from a changeset and its summary. Each bullet is
// attached to every path it mentions (by path or base name); every changed
// path yields an entry even when no bullet names it, so the record always
// recovers the changeset's path set.
func Build(cs *change.Changeset, res *summarize.Result) *Record {
	bullets := splitBullets(res.Text)

	entries := make([]Entry, len(cs.Changes))
	for i, fc := range cs.Changes {
		entries[i] = Entry{Path: fc.Path, Kind: fc.Kind}
		base := path.Base(fc.Path)
		for _, b := range bullets {
			if strings.Contains(b, fc.Path) || strings.Contains(b, base) {
				entries[i].Bullets = append(entries[i].Bullets, b)
			}
		}
	}

	return &Record{
		ID:           uuid.New().String(),
		Timestamp:    cs.WindowEnd,
		SourceRepo:   cs.Repo,
		Entries:      entries,
		Summary:      res.Text,
		Truncated:    res.Truncated,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		DiffBytes:    cs.TotalSize(),
	}
}

// Paths returns the recorded paths in entry order.
func (r *Record) Paths() []string {
	paths := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		paths[i] = e.Path
	}
	return paths
}

// splitBullets breaks scrubbed summary text into individual bullet items,
// folding indented continuation lines into their bullet.
func splitBullets(text string) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "- ") {
			bullets = append(bullets, strings.TrimPrefix(line, "- "))
		} else if len(bullets) > 0 {
			bullets[len(bullets)-1] += " " + strings.TrimSpace(line)
		}
	}
	return bullets
}
