package record

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fakeyudi/worklog/internal/gitrepo"
)

// recordsDir is the subdirectory of the tracking repository that holds one
// file per session.
const recordsDir = "sessions"

// PersistError reports a failed write or commit of a session record. The
// session is abandoned and the marker left unchanged; the next interval
// reprocesses an overlapping window.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist session record %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Filename names a record file by its UTC session timestamp, so lexicographic
// order matches chronological order.
func Filename(t time.Time) string {
	return t.UTC().Format("20060102T150405Z") + ".md"
}

// Persister writes session records into the tracking repository, one file
// and one atomic commit per session.
type Persister struct {
	Git          *gitrepo.Git
	TrackingRepo string
}

// Persist renders rec, writes it as a new file, and commits it. Returning
// nil is the durability boundary: only then may the snapshot marker advance.
// The file is created exclusively; a collision means the window was already
// recorded and surfaces as an error instead of a silent overwrite.
func (p *Persister) Persist(ctx context.Context, rec *Record) (string, error) {
	data, err := Render(rec)
	if err != nil {
		return "", &PersistError{Err: err}
	}

	dir := filepath.Join(p.TrackingRepo, recordsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &PersistError{Path: dir, Err: err}
	}

	name := Filename(rec.Timestamp)
	fullPath := filepath.Join(dir, name)
	relPath := filepath.Join(recordsDir, name)

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", &PersistError{Path: fullPath, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", &PersistError{Path: fullPath, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return "", &PersistError{Path: fullPath, Err: err}
	}

	message := fmt.Sprintf("worklog: session %s", rec.Timestamp.UTC().Format(time.RFC3339))
	if err := p.Git.CommitFile(ctx, p.TrackingRepo, relPath, message); err != nil {
		// Leave no half-recorded session behind; the retry next interval
		// re-creates the file under a fresh timestamp.
		os.Remove(fullPath)
		return "", &PersistError{Path: fullPath, Err: err}
	}

	return fullPath, nil
}
