package snapshot

import "time"

// DigestGone is the tombstone digest recorded for a path that is deleted
// from the working tree but still dirty relative to HEAD.
const DigestGone = "gone"

// Marker is the durable pointer to the last accounted-for repository state.
// It bounds the next session's extraction window: a dirty path whose content
// digest matches the marker's entry has already been summarized.
type Marker struct {
	// Timestamp is the end time of the last successful session.
	Timestamp time.Time `json:"timestamp"`
	// Digests maps each dirty path to the sha256 of its working-tree
	// content at the time the marker was advanced.
	Digests map[string]string `json:"digests"`
}
