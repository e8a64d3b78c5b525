package events

import (
	"context"
	"sync"
)

// Publisher sends events to a downstream backend.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Noop discards every event. It is used when no queue is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Message) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Message
}

func (r *Recorder) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.events = append(r.events, msg)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.events...)
}

var (
	_ Publisher = Noop{}
	_ Publisher = (*Recorder)(nil)
)
