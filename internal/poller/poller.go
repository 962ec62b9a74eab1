package poller

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/worklog/internal/change"
	"github.com/fakeyudi/worklog/internal/config"
	"github.com/fakeyudi/worklog/internal/logging"
	"github.com/fakeyudi/worklog/internal/record"
	"github.com/fakeyudi/worklog/internal/snapshot"
	"github.com/fakeyudi/worklog/internal/summarize"
)

// State is the controller's position in one session.
type State int

const (
	StateIdle State = iota
	StateExtracting
	StateSummarizing
	StateRecording
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExtracting:
		return "extracting"
	case StateSummarizing:
		return "summarizing"
	case StateRecording:
		return "recording"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Extractor produces one session's changeset and the candidate next marker.
type Extractor interface {
	Extract(ctx context.Context, since *snapshot.Marker) (*change.Changeset, *snapshot.Marker, error)
}

// Summarizer produces a single terminal outcome per changeset.
type Summarizer interface {
	Summarize(ctx context.Context, cs *change.Changeset) (*summarize.Result, error)
}

// Persister durably writes one record; returning nil is the point after
// which the marker may advance.
type Persister interface {
	Persist(ctx context.Context, rec *record.Record) (string, error)
}

// Controller orchestrates one session per interval tick:
// Idle -> Extracting -> (empty: Idle) | Summarizing -> Recording -> Idle,
// with Error absorbing any active-state failure and returning to Idle after
// logging. Sessions never overlap: the controller is a single blocking loop.
type Controller struct {
	Extractor  Extractor
	Summarizer Summarizer
	Persister  Persister
	Store      snapshot.Store

	Baseline     string        // config.BaselineNow | config.BaselineInception
	Interval     time.Duration // tick interval
	StageTimeout time.Duration // per-stage guard; 0 means 5 minutes
	NudgeSpacing time.Duration // min gap honored by fs nudges; 0 means 30s

	log         *logrus.Entry
	nudge       chan struct{}
	state       State
	lastSession time.Time
}

func New(ext Extractor, sum Summarizer, per Persister, store snapshot.Store) *Controller {
	return &Controller{
		Extractor:  ext,
		Summarizer: sum,
		Persister:  per,
		Store:      store,
		Baseline:   config.BaselineNow,
		Interval:   30 * time.Minute,
		log:        logging.NewLogger("poller"),
		nudge:      make(chan struct{}, 1),
	}
}

// State returns the controller's current position. Sessions run on a single
// goroutine; this is for status reporting and tests.
func (c *Controller) State() State {
	return c.state
}

// Run drives the poll loop until ctx is cancelled: one session immediately,
// then one per tick. Session failures are logged and absorbed, never fatal
// to the loop. Returns nil on clean shutdown.
func (c *Controller) Run(ctx context.Context) error {
	c.runLogged(ctx)

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("poll loop shutting down")
			return nil
		case <-ticker.C:
			c.runLogged(ctx)
		case <-c.nudge:
			// File-change nudge: run early, but keep a minimum spacing so
			// save storms don't turn the poller into a hot loop.
			if time.Since(c.lastSession) >= c.nudgeSpacing() {
				c.log.Debug("early tick from file-change nudge")
				c.runLogged(ctx)
			}
		}
	}
}

func (c *Controller) runLogged(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	c.lastSession = time.Now()
	// Failures are already logged with stage context; the loop absorbs them.
	_ = c.RunSession(ctx)
}

// RunSession executes exactly one session to completion or failure. The
// marker advances only after the record is durably committed, or when the
// window turns out to be empty; any failure leaves it untouched.
func (c *Controller) RunSession(ctx context.Context) error {
	defer func() { c.state = StateIdle }()

	marker, err := c.Store.Load()
	firstRun := false
	if err != nil {
		if !errors.Is(err, snapshot.ErrNoMarker) {
			return c.fail("load-marker", err)
		}
		firstRun = true
		marker = nil
	}
	if firstRun && c.Baseline == config.BaselineInception {
		// Everything currently uncommitted counts as new work.
		marker = &snapshot.Marker{Digests: map[string]string{}}
		firstRun = false
	}

	c.state = StateExtracting
	sctx, cancel := context.WithTimeout(ctx, c.stageTimeout())
	cs, next, err := c.Extractor.Extract(sctx, marker)
	cancel()
	if err != nil {
		return c.fail("extract", err)
	}

	if firstRun {
		// Baseline "now": seed the marker from the current dirty state and
		// account nothing retroactively.
		if err := c.Store.Advance(next); err != nil {
			return c.fail("advance", err)
		}
		c.log.WithField("digests", len(next.Digests)).Info("baseline established")
		return nil
	}

	if cs.Empty() {
		// No work, but the window is accounted for: no summarizer call, no
		// record, marker still advances.
		if err := c.Store.Advance(next); err != nil {
			return c.fail("advance", err)
		}
		c.log.Debug("no changes this window")
		return nil
	}

	c.state = StateSummarizing
	sctx, cancel = context.WithTimeout(ctx, c.stageTimeout())
	res, err := c.Summarizer.Summarize(sctx, cs)
	cancel()
	if err != nil {
		return c.fail("summarize", err)
	}

	c.state = StateRecording
	rec := record.Build(cs, res)
	sctx, cancel = context.WithTimeout(ctx, c.stageTimeout())
	recordPath, err := c.Persister.Persist(sctx, rec)
	cancel()
	if err != nil {
		return c.fail("persist", err)
	}

	if err := c.Store.Advance(next); err != nil {
		// The record is committed but the marker is stale: the next window
		// overlaps and may duplicate coverage, which downstream tolerates.
		return c.fail("advance", err)
	}

	c.log.WithFields(logrus.Fields{
		"record":     recordPath,
		"files":      len(cs.Changes),
		"tokens_in":  res.InputTokens,
		"tokens_out": res.OutputTokens,
	}).Info("session recorded")
	return nil
}

func (c *Controller) fail(stage string, err error) error {
	c.state = StateError
	c.log.WithError(err).WithField("stage", stage).Error("session failed")
	return err
}

func (c *Controller) stageTimeout() time.Duration {
	if c.StageTimeout > 0 {
		return c.StageTimeout
	}
	return 5 * time.Minute
}

func (c *Controller) nudgeSpacing() time.Duration {
	if c.NudgeSpacing > 0 {
		return c.NudgeSpacing
	}
	return 30 * time.Second
}
