package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/streamcheck/streamcheck/internal/record"
)

// Event is one captured change event: the topic it was published on and
// the decoded record. The producer owns and publishes events; the
// buffer takes shared read-only custody once accepted.
type Event struct {
	Topic  string
	Record *record.Struct
}

// OverflowPolicy governs what Accept does once the expected number of
// events has already arrived.
type OverflowPolicy int

const (
	// RejectOverflow fails the producing call immediately. Default.
	RejectOverflow OverflowPolicy = iota
	// AcceptSilently enqueues extra events without touching the
	// countdown. Whether such events are surfaced to assertions is the
	// caller's choice; the buffer just keeps them drainable.
	AcceptSilently
)

// Buffer decouples concurrent event producers from a single consuming
// test goroutine that blocks until a known number of relevant events
// has arrived, or times out.
//
// The queue is FIFO and unbounded so producers never block. A
// resettable countdown tracks outstanding expected events: unlike a
// one-shot latch, the count may be raised again via Expects once it has
// reached zero, so one buffer serves multiple verification rounds.
//
// Thread-safety: Accept may be called from any number of goroutines.
// Await, Remove, ForEachRemaining, and Clear are consumer-side and are
// meant for a single consuming goroutine.
type Buffer struct {
	mu          sync.Mutex
	queue       []Event
	outstanding int
	received    int
	prefixes    []string
	policy      OverflowPolicy
	done        chan struct{} // closed when outstanding reaches zero
}

// Option configures a Buffer at construction time.
type Option func(*Buffer)

// WithTopicPrefixes restricts the buffer to events whose topic starts
// with one of the given prefixes. Matching is a literal string-prefix
// test, not a pattern match. Non-matching events are dropped silently.
func WithTopicPrefixes(prefixes ...string) Option {
	return func(b *Buffer) {
		b.prefixes = append(b.prefixes, prefixes...)
	}
}

// WithOverflowPolicy sets the behavior for events arriving after the
// expected count has been reached.
func WithOverflowPolicy(p OverflowPolicy) Option {
	return func(b *Buffer) {
		b.policy = p
	}
}

// New creates a buffer expecting the given number of events.
func New(expected int, opts ...Option) *Buffer {
	b := &Buffer{
		outstanding: expected,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.outstanding == 0 {
		close(b.done)
	}
	return b
}

// Accept delivers one event into the buffer. Safe for unsynchronized
// concurrent invocation from producers; never blocks.
//
// Events not matching the topic filters are dropped without affecting
// the queue or the countdown. Once the countdown is exhausted, behavior
// follows the overflow policy: RejectOverflow returns an overflow error
// to the producing call, AcceptSilently enqueues without decrementing.
//
// The enqueue and the countdown decrement happen atomically with
// respect to Await: a consumer that returns from Await observes every
// event that decremented the count already queued.
func (b *Buffer) Accept(ev Event) error {
	if b.ignoreTopic(ev.Topic) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.outstanding == 0 {
		if b.policy == RejectOverflow {
			return newOverflowError()
		}
		b.queue = append(b.queue, ev)
		b.received++
		return nil
	}

	b.queue = append(b.queue, ev)
	b.received++
	b.outstanding--
	if b.outstanding == 0 {
		close(b.done)
	}
	return nil
}

// ignoreTopic reports whether the topic fails all configured filters.
func (b *Buffer) ignoreTopic(topic string) bool {
	if len(b.prefixes) == 0 {
		return false
	}
	for _, prefix := range b.prefixes {
		if strings.HasPrefix(topic, prefix) {
			return false
		}
	}
	return true
}

// Await blocks until the countdown reaches zero, the timeout elapses,
// or the context is canceled. On timeout it returns a TIMEOUT error
// carrying the outstanding and received counts; queued events are kept
// so the caller can inspect partial results.
func (b *Buffer) Await(ctx context.Context, timeout time.Duration) error {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		b.mu.Lock()
		outstanding, received := b.outstanding, b.received
		b.mu.Unlock()
		if outstanding == 0 {
			// Count reached zero as the timer fired; satisfied.
			return nil
		}
		return newTimeoutError(outstanding, received)
	}
}

// Expects raises the countdown by n for another verification round.
// Only valid between rounds, when the countdown is at zero; calling it
// with outstanding expectations is a usage error reported at the call
// site. Already-queued events are kept.
func (b *Buffer) Expects(n int) error {
	if n <= 0 {
		return &Error{
			Code:    ErrCodeInvalidCount,
			Message: fmt.Sprintf("expected count must be positive, got %d", n),
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.outstanding != 0 {
		return &Error{
			Code:        ErrCodePendingExpectation,
			Message:     "previous expectation round still outstanding",
			Outstanding: b.outstanding,
			Received:    b.received,
		}
	}

	b.outstanding = n
	b.received = 0
	b.done = make(chan struct{})
	return nil
}

// Remove pops and returns the oldest queued event. Returns an
// EMPTY_BUFFER error if the queue is empty.
func (b *Buffer) Remove() (Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return Event{}, &Error{
			Code:    ErrCodeEmptyBuffer,
			Message: "no captured events queued",
		}
	}

	ev := b.queue[0]
	// Zero the slot so the backing array does not retain the record.
	b.queue[0] = Event{}
	if len(b.queue) == 1 {
		b.queue = b.queue[:0]
	} else {
		b.queue = b.queue[1:]
	}
	return ev, nil
}

// IsEmpty reports whether the queue is empty.
func (b *Buffer) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue) == 0
}

// Len returns the number of queued events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// ForEachRemaining visits every queued event in FIFO order without
// draining the queue.
func (b *Buffer) ForEachRemaining(visit func(Event)) {
	b.mu.Lock()
	snapshot := make([]Event, len(b.queue))
	copy(snapshot, b.queue)
	b.mu.Unlock()

	for _, ev := range snapshot {
		visit(ev)
	}
}

// Clear discards all queued events. The countdown is unaffected.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = nil
}

// Outstanding returns the number of events still expected in the
// current round.
func (b *Buffer) Outstanding() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outstanding
}

// Received returns the number of events accepted in the current round.
func (b *Buffer) Received() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.received
}
