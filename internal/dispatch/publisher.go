package dispatch

import "context"

// Publisher is the abstract re-enqueue capability the Engine depends
// on, breaking the cycle described in SPEC_FULL.md §6: the Engine
// both consumes from and re-enqueues onto the main queue, so it must
// not import the queue package directly. internal/queue's adapter
// over datastore.Client implements this.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}
