package poller_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/worklog/internal/change"
	"github.com/fakeyudi/worklog/internal/config"
	"github.com/fakeyudi/worklog/internal/poller"
	"github.com/fakeyudi/worklog/internal/record"
	"github.com/fakeyudi/worklog/internal/snapshot"
	"github.com/fakeyudi/worklog/internal/summarize"
)

type fakeExtractor struct {
	cs    *change.Changeset
	next  *snapshot.Marker
	err   error
	calls int
	since *snapshot.Marker
}

func (f *fakeExtractor) Extract(ctx context.Context, since *snapshot.Marker) (*change.Changeset, *snapshot.Marker, error) {
	f.calls++
	f.since = since
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.cs, f.next, nil
}

type fakeSummarizer struct {
	res   *summarize.Result
	err   error
	calls int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, cs *change.Changeset) (*summarize.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fakePersister struct {
	err   error
	calls int
	rec   *record.Record
}

func (f *fakePersister) Persist(ctx context.Context, rec *record.Record) (string, error) {
	f.calls++
	f.rec = rec
	if f.err != nil {
		return "", f.err
	}
	return "/tracking/sessions/x.md", nil
}

func newStore(t *testing.T) snapshot.Store {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	store, err := snapshot.NewStore("/work/project")
	require.NoError(t, err)
	return store
}

func seedMarker(t *testing.T, store snapshot.Store) *snapshot.Marker {
	t.Helper()
	m := &snapshot.Marker{
		Timestamp: time.Date(2026, 3, 14, 14, 30, 0, 0, time.UTC),
		Digests:   map[string]string{"api_handler.py": "aaaa"},
	}
	require.NoError(t, store.Advance(m))
	return m
}

func markerBytes(t *testing.T, store snapshot.Store) []byte {
	t.Helper()
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	return data
}

func nonEmptyChangeset() *change.Changeset {
	return &change.Changeset{
		Repo:      "/work/project",
		WindowEnd: time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC),
		Changes: []change.FileChange{
			{Path: "api_handler.py", Kind: change.Modified, Diff: "+x\n", Size: 3},
		},
	}
}

func nextMarker() *snapshot.Marker {
	return &snapshot.Marker{
		Timestamp: time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC),
		Digests:   map[string]string{"api_handler.py": "bbbb"},
	}
}

func TestEmptyChangesetAdvancesWithoutSummarizing(t *testing.T) {
	store := newStore(t)
	seedMarker(t, store)

	ext := &fakeExtractor{cs: &change.Changeset{}, next: nextMarker()}
	sum := &fakeSummarizer{}
	per := &fakePersister{}
	c := poller.New(ext, sum, per, store)

	require.NoError(t, c.RunSession(context.Background()))

	assert.Equal(t, 0, sum.calls, "no summarizer call for a no-op interval")
	assert.Equal(t, 0, per.calls, "no record for a no-op interval")

	m, err := store.Load()
	require.NoError(t, err)
	assert.True(t, m.Timestamp.Equal(nextMarker().Timestamp), "the window is still accounted for")
}

func TestSuccessfulSessionRecordsOnceAndAdvances(t *testing.T) {
	store := newStore(t)
	prev := seedMarker(t, store)

	ext := &fakeExtractor{cs: nonEmptyChangeset(), next: nextMarker()}
	sum := &fakeSummarizer{res: &summarize.Result{Text: "- changed api_handler.py"}}
	per := &fakePersister{}
	c := poller.New(ext, sum, per, store)

	require.NoError(t, c.RunSession(context.Background()))

	assert.Equal(t, 1, sum.calls)
	assert.Equal(t, 1, per.calls)
	require.NotNil(t, ext.since)
	assert.True(t, ext.since.Timestamp.Equal(prev.Timestamp), "extraction is bounded by the loaded marker")
	require.NotNil(t, per.rec)
	assert.Equal(t, []string{"api_handler.py"}, per.rec.Paths())

	m, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "bbbb", m.Digests["api_handler.py"])
	assert.Equal(t, poller.StateIdle, c.State())
}

func TestSummarizeFailureLeavesMarkerUntouched(t *testing.T) {
	store := newStore(t)
	seedMarker(t, store)
	before := markerBytes(t, store)

	ext := &fakeExtractor{cs: nonEmptyChangeset(), next: nextMarker()}
	sum := &fakeSummarizer{err: &summarize.ServiceUnavailableError{Err: errors.New("down")}}
	per := &fakePersister{}
	c := poller.New(ext, sum, per, store)

	require.Error(t, c.RunSession(context.Background()))

	assert.Equal(t, 0, per.calls, "no record after a failed summarization")
	assert.Equal(t, before, markerBytes(t, store), "marker must be byte-identical")
}

func TestPersistFailureLeavesMarkerUntouched(t *testing.T) {
	store := newStore(t)
	seedMarker(t, store)
	before := markerBytes(t, store)

	ext := &fakeExtractor{cs: nonEmptyChangeset(), next: nextMarker()}
	sum := &fakeSummarizer{res: &summarize.Result{Text: "- change"}}
	per := &fakePersister{err: &record.PersistError{Err: errors.New("disk full")}}
	c := poller.New(ext, sum, per, store)

	require.Error(t, c.RunSession(context.Background()))

	assert.Equal(t, before, markerBytes(t, store), "marker must be byte-identical")
}

func TestExtractFailureAbandonsSession(t *testing.T) {
	store := newStore(t)
	seedMarker(t, store)
	before := markerBytes(t, store)

	ext := &fakeExtractor{err: errors.New("status failed")}
	sum := &fakeSummarizer{}
	per := &fakePersister{}
	c := poller.New(ext, sum, per, store)

	require.Error(t, c.RunSession(context.Background()))
	assert.Equal(t, 0, sum.calls)
	assert.Equal(t, before, markerBytes(t, store))
}

func TestFirstRunBaselineNowSeedsMarkerWithoutRecording(t *testing.T) {
	store := newStore(t)

	ext := &fakeExtractor{cs: nonEmptyChangeset(), next: nextMarker()}
	sum := &fakeSummarizer{}
	per := &fakePersister{}
	c := poller.New(ext, sum, per, store)
	c.Baseline = config.BaselineNow

	require.NoError(t, c.RunSession(context.Background()))

	assert.Nil(t, ext.since, "baseline now extracts against no prior marker")
	assert.Equal(t, 0, sum.calls, "baseline establishment summarizes nothing")
	assert.Equal(t, 0, per.calls)

	m, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "bbbb", m.Digests["api_handler.py"])
}

func TestFirstRunBaselineInceptionSummarizesEverything(t *testing.T) {
	store := newStore(t)

	ext := &fakeExtractor{cs: nonEmptyChangeset(), next: nextMarker()}
	sum := &fakeSummarizer{res: &summarize.Result{Text: "- all current work"}}
	per := &fakePersister{}
	c := poller.New(ext, sum, per, store)
	c.Baseline = config.BaselineInception

	require.NoError(t, c.RunSession(context.Background()))

	require.NotNil(t, ext.since, "inception runs against an empty marker")
	assert.Empty(t, ext.since.Digests)
	assert.Equal(t, 1, sum.calls)
	assert.Equal(t, 1, per.calls)
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	store := newStore(t)
	seedMarker(t, store)

	ext := &fakeExtractor{cs: &change.Changeset{}, next: nextMarker()}
	c := poller.New(ext, &fakeSummarizer{}, &fakePersister{}, store)
	c.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, "clean shutdown returns nil")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	assert.GreaterOrEqual(t, ext.calls, 2, "ticks kept sessions running until cancel")
}
