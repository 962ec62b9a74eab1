package summarize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/worklog/internal/change"
	"github.com/fakeyudi/worklog/internal/logging"
)

// Result is the cleaned natural-language summary for one changeset.
type Result struct {
	Text         string `json:"text"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	// Truncated is true when the changeset was cut anywhere to fit request
	// limits, by the extractor or by prompt budgeting.
	Truncated bool `json:"truncated"`
}

// Summarizer turns a changeset into a bounded request, invokes the service
// once per session (plus bounded retries), and validates the response.
type Summarizer struct {
	Client      ChatClient
	TokenBudget int
	Policy      RetryPolicy

	log *logrus.Entry
}

func NewSummarizer(client ChatClient, tokenBudget int, policy RetryPolicy) *Summarizer {
	return &Summarizer{
		Client:      client,
		TokenBudget: tokenBudget,
		Policy:      policy,
		log:         logging.NewLogger("summarize"),
	}
}

// Summarize produces a single terminal outcome for the session: a Result,
// or a typed failure once the attempt cap is reached.
func (s *Summarizer) Summarize(ctx context.Context, cs *change.Changeset) (*Result, error) {
	prompt, promptCut := buildPrompt(cs, s.TokenBudget)
	messages := []Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: prompt},
	}

	truncated := promptCut
	for _, fc := range cs.Changes {
		if fc.Truncated {
			truncated = true
		}
	}

	maxAttempts := s.Policy.MaximumAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		reply, err := s.Client.Chat(ctx, messages)
		if err == nil {
			text := scrub(reply.Content)
			if text == "" {
				err = &InvalidResponseError{Reason: "empty summary after scrubbing"}
			} else {
				return &Result{
					Text:         text,
					InputTokens:  reply.InputTokens,
					OutputTokens: reply.OutputTokens,
					Truncated:    truncated,
				}, nil
			}
		}

		lastErr = err
		if !retryable(err) || attempt == maxAttempts {
			break
		}

		delay := s.Policy.NextDelay(attempt)
		s.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay,
		}).WithError(err).Warn("summarization attempt failed, retrying")

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("summarization failed after %d attempts: %w", attempts, lastErr)
}

// retryable reports whether the retry loop should continue after err.
// Context cancellation is terminal; service and response failures are not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var unavailable *ServiceUnavailableError
	var invalid *InvalidResponseError
	return errors.As(err, &unavailable) || errors.As(err, &invalid)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
