package cmd

import (
	"context"
	"time"

	"github.com/fakeyudi/worklog/internal/change"
	"github.com/fakeyudi/worklog/internal/gitrepo"
	"github.com/fakeyudi/worklog/internal/poller"
	"github.com/fakeyudi/worklog/internal/record"
	"github.com/fakeyudi/worklog/internal/snapshot"
	"github.com/fakeyudi/worklog/internal/summarize"
)

// buildController wires the full pipeline for one source/tracking pair.
// Repository validation happens here, at startup: an invalid --source or
// --tracking is fatal to the process, unlike per-interval failures.
func buildController(ctx context.Context, source, tracking string, interval time.Duration) (*poller.Controller, error) {
	g := gitrepo.New()
	if err := g.Validate(ctx, source); err != nil {
		return nil, err
	}
	if err := g.Validate(ctx, tracking); err != nil {
		return nil, err
	}

	store, err := snapshot.NewStore(source)
	if err != nil {
		return nil, err
	}

	extractor := &change.Extractor{
		Repo:           source,
		Git:            g,
		MaxDiffBytes:   cfg.MaxDiffBytes,
		IgnorePatterns: cfg.IgnorePatterns,
	}

	client := summarize.NewOllamaClient(cfg.OllamaURL, cfg.Model, 2*time.Minute)
	policy := summarize.DefaultRetryPolicy()
	policy.MaximumAttempts = cfg.MaxAttempts
	summarizer := summarize.NewSummarizer(client, cfg.TokenBudget, policy)

	persister := &record.Persister{Git: g, TrackingRepo: tracking}

	c := poller.New(extractor, summarizer, persister, store)
	c.Baseline = cfg.Baseline
	if interval > 0 {
		c.Interval = interval
	}
	return c, nil
}

// intervalFromFlag resolves the effective tick interval: flag, then config.
func intervalFromFlag(flagSeconds int) time.Duration {
	if flagSeconds > 0 {
		return time.Duration(flagSeconds) * time.Second
	}
	return time.Duration(cfg.IntervalSeconds) * time.Second
}
