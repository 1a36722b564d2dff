package engine

import (
	"context"
	"sync"
)

// Transcript is a Replier that records every reply in order.
type Transcript struct {
	mu      sync.Mutex
	replies []Reply
}

// Send records reply.
func (t *Transcript) Send(_ context.Context, reply Reply) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies = append(t.replies, reply)
	return nil
}

// Replies returns the recorded replies.
func (t *Transcript) Replies() []Reply {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Reply, len(t.replies))
	copy(out, t.replies)
	return out
}

// Texts returns the text of every recorded reply.
func (t *Transcript) Texts() []string {
	replies := t.Replies()
	texts := make([]string, len(replies))
	for i, r := range replies {
		texts[i] = r.Text
	}
	return texts
}

// ReplierFunc adapts a function to a Replier.
type ReplierFunc func(ctx context.Context, reply Reply) error

// Send calls f.
func (f ReplierFunc) Send(ctx context.Context, reply Reply) error {
	return f(ctx, reply)
}
