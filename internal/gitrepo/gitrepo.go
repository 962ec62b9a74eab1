package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a git command in dir and returns its stdout.
// This abstraction allows mocking in tests.
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

// DefaultRunner runs git as a real subprocess.
func DefaultRunner(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	return string(out), err
}

// Git wraps the git binary for the two repositories the pipeline touches:
// read-only status/diff queries on the source repository and single-file
// commits into the tracking repository.
type Git struct {
	Run Runner // if nil, uses the real git subprocess
}

func New() *Git {
	return &Git{Run: DefaultRunner}
}

func (g *Git) runner() Runner {
	if g.Run != nil {
		return g.Run
	}
	return DefaultRunner
}

// InvalidRepositoryError reports that a path is not a usable git repository.
type InvalidRepositoryError struct {
	Path string
	Err  error
}

func (e *InvalidRepositoryError) Error() string {
	return fmt.Sprintf("not a git repository: %s", e.Path)
}

func (e *InvalidRepositoryError) Unwrap() error {
	return e.Err
}

// Validate checks that dir is inside a git work tree.
// Returns *InvalidRepositoryError when it is not.
func (g *Git) Validate(ctx context.Context, dir string) error {
	_, err := g.runner()(ctx, dir, "rev-parse", "--git-dir")
	if err != nil {
		if isExitCode128(err) {
			return &InvalidRepositoryError{Path: dir, Err: err}
		}
		return fmt.Errorf("validating repository %s: %w", dir, err)
	}
	return nil
}

// StatusEntry is one line of porcelain status output.
type StatusEntry struct {
	Path string
	Code string // two-character XY status code, e.g. " M", "??", "D "
}

// Status returns the dirty paths of the working tree relative to HEAD.
// Untracked files are listed individually (--untracked-files=all), never
// collapsed into a single directory entry.
func (g *Git) Status(ctx context.Context, dir string) ([]StatusEntry, error) {
	out, err := g.runner()(ctx, dir, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		if isExitCode128(err) {
			return nil, &InvalidRepositoryError{Path: dir, Err: err}
		}
		return nil, fmt.Errorf("git status in %s: %w", dir, err)
	}
	return parseStatus(out), nil
}

// DiffPath returns the unified diff of a single path against HEAD.
func (g *Git) DiffPath(ctx context.Context, dir, path string) (string, error) {
	out, err := g.runner()(ctx, dir, "diff", "HEAD", "--", path)
	if err != nil {
		return "", fmt.Errorf("git diff for %s: %w", path, err)
	}
	return out, nil
}

// CommitFile stages relPath and creates a commit containing only that path.
// A failed commit unstages the path again, so the tracking index carries no
// leftovers into the next session.
func (g *Git) CommitFile(ctx context.Context, dir, relPath, message string) error {
	run := g.runner()
	if _, err := run(ctx, dir, "add", "--", relPath); err != nil {
		return fmt.Errorf("git add %s: %w", relPath, err)
	}
	if _, err := run(ctx, dir, "commit", "-m", message, "--", relPath); err != nil {
		// Best effort: the commit error is what the caller needs to see.
		run(ctx, dir, "rm", "--cached", "--", relPath)
		return fmt.Errorf("git commit %s: %w", relPath, err)
	}
	return nil
}

// isExitCode128 reports whether err is an *exec.ExitError with exit code 128,
// git's "not a repository" exit status.
func isExitCode128(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == 128
	}
	return false
}

// parseStatus splits porcelain output into entries. Rename lines keep the
// destination path; quoted paths are unquoted naively.
func parseStatus(out string) []StatusEntry {
	lines := strings.Split(out, "\n")
	entries := make([]StatusEntry, 0, len(lines))
	for _, line := range lines {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		path := line[3:]
		if i := strings.Index(path, " -> "); i >= 0 {
			path = path[i+4:]
		}
		path = strings.Trim(path, `"`)
		entries = append(entries, StatusEntry{Path: path, Code: code})
	}
	return entries
}
