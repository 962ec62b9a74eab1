package summarize

import "fmt"

// ServiceUnavailableError covers network failures, auth rejections,
// throttling, and server errors from the text-generation service. It is
// retryable within a session up to the attempt cap.
type ServiceUnavailableError struct {
	Status int // HTTP status, 0 for transport-level failures
	Err    error
}

func (e *ServiceUnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("summarization service unavailable (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("summarization service unavailable: %v", e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error {
	return e.Err
}

// InvalidResponseError reports an empty or malformed response from the
// service. Retried the same way as ServiceUnavailableError.
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return "invalid summarization response: " + e.Reason
}
