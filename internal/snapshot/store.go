package snapshot

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoMarker is returned by Load when no marker exists yet for the source
// repository, i.e. on the first-ever run.
var ErrNoMarker = errors.New("no snapshot marker")

// Store persists the Marker for one source repository. Advance must only be
// called after a session's record has been durably committed (or after an
// empty session); a failed session leaves the marker untouched.
type Store interface {
	Load() (*Marker, error) // returns ErrNoMarker if none exists
	Advance(m *Marker) error
	Path() string // location of the marker file, for diagnostics
}

// diskStore is the concrete Store that writes to the XDG data directory.
type diskStore struct {
	path string // full path to marker.json
}

// NewStore returns a Store for the given source repository, backed by the
// XDG data directory. Each source repository gets its own marker, keyed by
// a hash of its absolute path:
// $XDG_DATA_HOME/worklog/<sha1(source)>/marker.json
func NewStore(sourceRepo string) (Store, error) {
	abs, err := filepath.Abs(sourceRepo)
	if err != nil {
		return nil, fmt.Errorf("resolving source path: %w", err)
	}
	dir, err := dataDir(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &diskStore{path: filepath.Join(dir, "marker.json")}, nil
}

// dataDir returns the worklog data directory for one source repository.
func dataDir(absSource string) (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	sum := sha1.Sum([]byte(absSource))
	return filepath.Join(base, "worklog", hex.EncodeToString(sum[:])), nil
}

func (d *diskStore) Path() string {
	return d.path
}

// Load reads and unmarshals the marker file.
func (d *diskStore) Load() (*Marker, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoMarker
		}
		return nil, fmt.Errorf("failed to read snapshot marker: %w", err)
	}

	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot marker: %w", err)
	}
	return &m, nil
}

// Advance marshals m to JSON and writes it atomically via a temp file +
// os.Rename, so a crash mid-write can never leave a corrupt marker behind.
func (d *diskStore) Advance(m *Marker) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to persist snapshot marker: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), "marker-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist snapshot marker: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist snapshot marker: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist snapshot marker: %w", err)
	}

	if err = os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to persist snapshot marker: %w", err)
	}
	return nil
}
