package gitrepo

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

// exitCode128Error returns a real *exec.ExitError with exit code 128
// by running a shell command that exits with that code.
func exitCode128Error() error {
	cmd := exec.Command("sh", "-c", "exit 128")
	return cmd.Run()
}

func TestValidateNotARepository(t *testing.T) {
	exitErr := exitCode128Error()
	if exitErr == nil {
		t.Fatal("expected exit code 128 error, got nil")
	}

	g := &Git{Run: func(ctx context.Context, dir string, args ...string) (string, error) {
		return "", exitErr
	}}

	err := g.Validate(context.Background(), "/some/dir")
	var invalid *InvalidRepositoryError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidRepositoryError, got %v", err)
	}
	if invalid.Path != "/some/dir" {
		t.Errorf("Path = %q, want /some/dir", invalid.Path)
	}
}

func TestValidateSuccess(t *testing.T) {
	g := &Git{Run: func(ctx context.Context, dir string, args ...string) (string, error) {
		return ".git\n", nil
	}}
	if err := g.Validate(context.Background(), "/some/dir"); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	out := " M internal/app.go\n" +
		"?? notes.txt\n" +
		"D  removed.go\n" +
		`R  old.go -> new.go` + "\n" +
		`?? "space name.txt"` + "\n" +
		"\n"

	entries := parseStatus(out)
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d: %+v", len(entries), entries)
	}

	want := []StatusEntry{
		{Path: "internal/app.go", Code: " M"},
		{Path: "notes.txt", Code: "??"},
		{Path: "removed.go", Code: "D "},
		{Path: "new.go", Code: "R "},
		{Path: "space name.txt", Code: "??"},
	}
	for i, w := range want {
		if entries[i] != w {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], w)
		}
	}
}

func TestStatusListsUntrackedFilesIndividually(t *testing.T) {
	var gotArgs []string
	g := &Git{Run: func(ctx context.Context, dir string, args ...string) (string, error) {
		gotArgs = args
		return "?? newdir/fresh.go\n", nil
	}}

	entries, err := g.Status(context.Background(), "/some/dir")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "--untracked-files=all") {
		t.Errorf("status args = %v, want --untracked-files=all so new directories expand to files", gotArgs)
	}
	if len(entries) != 1 || entries[0].Path != "newdir/fresh.go" {
		t.Errorf("entries = %+v, want the untracked file itself", entries)
	}
}

func TestCommitFileStagesThenCommits(t *testing.T) {
	var calls [][]string
	g := &Git{Run: func(ctx context.Context, dir string, args ...string) (string, error) {
		calls = append(calls, args)
		return "", nil
	}}

	err := g.CommitFile(context.Background(), "/tracking", "sessions/x.md", "worklog: session")
	if err != nil {
		t.Fatalf("CommitFile: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected 2 git invocations, got %d", len(calls))
	}
	if calls[0][0] != "add" || calls[0][len(calls[0])-1] != "sessions/x.md" {
		t.Errorf("first call = %v, want add of sessions/x.md", calls[0])
	}
	if calls[1][0] != "commit" || calls[1][len(calls[1])-1] != "sessions/x.md" {
		t.Errorf("second call = %v, want commit limited to sessions/x.md", calls[1])
	}
}

func TestCommitFileFailedCommitUnstages(t *testing.T) {
	var calls [][]string
	g := &Git{Run: func(ctx context.Context, dir string, args ...string) (string, error) {
		calls = append(calls, args)
		if args[0] == "commit" {
			return "", errors.New("gc running")
		}
		return "", nil
	}}

	err := g.CommitFile(context.Background(), "/tracking", "sessions/x.md", "msg")
	if err == nil || !strings.Contains(err.Error(), "git commit") {
		t.Fatalf("expected commit failure, got %v", err)
	}

	// add, commit, then the cleanup that keeps the index empty.
	if len(calls) != 3 {
		t.Fatalf("expected 3 git invocations, got %d: %v", len(calls), calls)
	}
	last := calls[2]
	if last[0] != "rm" || last[1] != "--cached" || last[len(last)-1] != "sessions/x.md" {
		t.Errorf("cleanup call = %v, want rm --cached of sessions/x.md", last)
	}
}

func TestCommitFileAddFailureStops(t *testing.T) {
	var calls [][]string
	g := &Git{Run: func(ctx context.Context, dir string, args ...string) (string, error) {
		calls = append(calls, args)
		return "", errors.New("disk full")
	}}

	err := g.CommitFile(context.Background(), "/tracking", "sessions/x.md", "msg")
	if err == nil || !strings.Contains(err.Error(), "git add") {
		t.Fatalf("expected add failure, got %v", err)
	}
	if len(calls) != 1 {
		t.Errorf("expected no commit after failed add, got %d calls", len(calls))
	}
}
