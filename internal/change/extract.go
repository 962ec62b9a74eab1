package change

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/fakeyudi/worklog/internal/gitrepo"
	"github.com/fakeyudi/worklog/internal/snapshot"
)

// TruncationMarker terminates a diff body that was cut to fit a size bound.
// Oversized diffs are truncated explicitly, never dropped.
const TruncationMarker = "[diff truncated]"

// binarySniffLen bounds how many bytes are examined for NUL when deciding
// whether a file is binary.
const binarySniffLen = 8000

// Extractor computes the Changeset of a source repository against the last
// recorded marker.
type Extractor struct {
	Repo           string
	Git            *gitrepo.Git
	MaxDiffBytes   int // per-file diff body bound; 0 means unbounded
	IgnorePatterns []string
	Now            func() time.Time // if nil, time.Now
}

// Extract enumerates the dirty working tree, skips paths whose content
// digest already matches the marker, and returns the changeset together
// with the candidate next marker (current time + full digest map). The
// caller advances the marker only per the durability rules.
func (e *Extractor) Extract(ctx context.Context, since *snapshot.Marker) (*Changeset, *snapshot.Marker, error) {
	if err := e.Git.Validate(ctx, e.Repo); err != nil {
		return nil, nil, err
	}

	entries, err := e.Git.Status(ctx, e.Repo)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}

	var windowStart time.Time
	if since != nil {
		windowStart = since.Timestamp
	}

	patterns := e.loadIgnorePatterns()
	digests := make(map[string]string)
	var changes []FileChange

	for _, entry := range entries {
		// Status lists untracked files individually, but a directory entry
		// can still appear (e.g. unusual status configuration); digesting
		// one would fail the whole session.
		if strings.HasSuffix(entry.Path, "/") {
			continue
		}
		if isIgnored(entry.Path, patterns) {
			continue
		}
		if _, dup := digests[entry.Path]; dup {
			continue // paths are unique within a changeset
		}

		digest, err := e.digestPath(entry.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("digesting %s: %w", entry.Path, err)
		}
		digests[entry.Path] = digest

		// Unchanged since the last session: accounted for already.
		if since != nil && since.Digests[entry.Path] == digest {
			continue
		}

		fc, err := e.buildChange(ctx, entry)
		if err != nil {
			return nil, nil, err
		}
		changes = append(changes, fc)
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})

	cs := &Changeset{
		Repo:        e.Repo,
		WindowStart: windowStart,
		WindowEnd:   now,
		Changes:     changes,
	}
	next := &snapshot.Marker{Timestamp: now, Digests: digests}
	return cs, next, nil
}

// buildChange classifies one dirty path and captures its bounded diff body.
func (e *Extractor) buildChange(ctx context.Context, entry gitrepo.StatusEntry) (FileChange, error) {
	kind := classify(entry.Code)
	fc := FileChange{Path: entry.Path, Kind: kind}

	if entry.Code == "??" {
		// Untracked: git has no diff for it, synthesize an addition diff.
		data, err := os.ReadFile(filepath.Join(e.Repo, entry.Path))
		if err != nil {
			if os.IsNotExist(err) {
				return fc, nil // raced with a delete, report path only
			}
			return fc, fmt.Errorf("reading %s: %w", entry.Path, err)
		}
		if looksBinary(data) {
			fc.Binary = true
			return fc, nil
		}
		fc.Diff = additionDiff(entry.Path, string(data))
	} else {
		diff, err := e.Git.DiffPath(ctx, e.Repo, entry.Path)
		if err != nil {
			return fc, err
		}
		if isBinaryDiff(diff) {
			fc.Binary = true
			return fc, nil
		}
		fc.Diff = diff
	}

	fc.Diff, fc.Truncated = boundDiff(fc.Diff, e.MaxDiffBytes)
	fc.Size = len(fc.Diff)
	return fc, nil
}

// classify maps a porcelain status code to a change kind.
func classify(code string) Kind {
	switch {
	case code == "??":
		return Added
	case strings.Contains(code, "A"):
		return Added
	case strings.Contains(code, "D"):
		return Deleted
	default:
		return Modified
	}
}

// digestPath returns the sha256 of the working-tree content of path, or the
// tombstone digest when the file is gone.
func (e *Extractor) digestPath(path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(e.Repo, path))
	if err != nil {
		if os.IsNotExist(err) {
			return snapshot.DigestGone, nil
		}
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// isBinaryDiff reports whether diff is git's binary-file notice. The check
// is anchored to a full line so a text diff whose added or context lines
// happen to mention "Binary files" is not misread; git's own message starts
// at column zero, while diff body lines carry a +/-/space prefix.
func isBinaryDiff(diff string) bool {
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "Binary files ") && strings.HasSuffix(line, " differ") {
			return true
		}
	}
	return false
}

// looksBinary reports whether data contains a NUL byte in its head.
func looksBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// boundDiff cuts body at a line boundary so it fits maxBytes, appending the
// truncation marker. A zero maxBytes leaves the body untouched.
func boundDiff(body string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(body) <= maxBytes {
		return body, false
	}
	cut := body[:maxBytes]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + "\n" + TruncationMarker, true
}

// additionDiff renders a new file as a unified-style pure-addition diff.
func additionDiff(path, content string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars("", content)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- /dev/null\n+++ b/%s\n", path)
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffInsert {
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			sb.WriteString("+")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
