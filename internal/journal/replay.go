package journal

import (
	"context"
	"fmt"

	"github.com/streamcheck/streamcheck/internal/capture"
)

// ReplaySource re-emits a journaled session's events in their original
// order. It satisfies the harness Source interface so a recorded
// capture can be pushed back through a buffer and verified offline.
type ReplaySource struct {
	events []capture.Event
}

// Replay loads a session's events for replay. Fails if the session has
// no events, which almost always means a mistyped session id.
func (j *Journal) Replay(ctx context.Context, session string) (*ReplaySource, error) {
	events, err := j.ReadSession(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("session %q has no journaled events", session)
	}
	return &ReplaySource{events: events}, nil
}

// Events returns a channel that yields the session's events in order
// and is closed afterwards.
func (s *ReplaySource) Events() <-chan capture.Event {
	ch := make(chan capture.Event, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return ch
}

// Len returns the number of events the source will emit.
func (s *ReplaySource) Len() int {
	return len(s.events)
}
