package testutil

import (
	"io"
	"log/slog"

	"github.com/streamcheck/streamcheck/internal/capture"
)

// FixedSource is an event source that emits a predetermined sequence
// and then closes its channel.
//
// This enables deterministic test execution and golden snapshot
// comparison: the same events in the same order produce byte-identical
// captured traces.
//
// Thread-safety: the channel is filled before any consumer sees it, so
// the source is safe to hand to concurrent producers.
type FixedSource struct {
	ch chan capture.Event
}

// NewFixedSource creates a source that will emit the given events in
// order.
func NewFixedSource(events ...capture.Event) *FixedSource {
	ch := make(chan capture.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return &FixedSource{ch: ch}
}

// Events returns the source channel. The channel is closed once every
// event has been consumed.
func (s *FixedSource) Events() <-chan capture.Event {
	return s.ch
}

// DiscardLogger returns a logger that drops everything. Tests pass it
// to keep harness output quiet.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
