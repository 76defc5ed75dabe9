package capture

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamcheck/streamcheck/internal/record"
)

func event(topic string) Event {
	return Event{
		Topic:  topic,
		Record: record.NewStruct(nil, record.Field{Name: "id", Value: record.String(topic)}),
	}
}

func TestBuffer_AcceptAwait(t *testing.T) {
	b := New(3)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Accept(event(fmt.Sprintf("db.t%d", i))))
	}

	err := b.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Outstanding())
	assert.Equal(t, 3, b.Received())
}

func TestBuffer_FIFO(t *testing.T) {
	b := New(3)

	for _, topic := range []string{"a", "b", "c"} {
		require.NoError(t, b.Accept(event(topic)))
	}

	for _, want := range []string{"a", "b", "c"} {
		ev, err := b.Remove()
		require.NoError(t, err)
		assert.Equal(t, want, ev.Topic)
	}
	assert.True(t, b.IsEmpty())
}

func TestBuffer_TopicFilters(t *testing.T) {
	b := New(2, WithTopicPrefixes("db."))

	require.NoError(t, b.Accept(event("db.public.users")))
	require.NoError(t, b.Accept(event("heartbeat")))
	require.NoError(t, b.Accept(event("other.topic")))
	require.NoError(t, b.Accept(event("db.public.orders")))

	require.NoError(t, b.Await(context.Background(), time.Second))
	assert.Equal(t, 2, b.Len(), "non-matching topics must not be enqueued")

	ev, err := b.Remove()
	require.NoError(t, err)
	assert.Equal(t, "db.public.users", ev.Topic)
}

func TestBuffer_OverflowReject(t *testing.T) {
	b := New(1)

	require.NoError(t, b.Accept(event("a")))

	err := b.Accept(event("b"))
	require.Error(t, err)
	assert.True(t, IsOverflow(err))
	assert.Contains(t, err.Error(), "more events than expected")
	assert.Equal(t, 1, b.Len(), "rejected event must not be enqueued")
}

func TestBuffer_OverflowAcceptSilently(t *testing.T) {
	b := New(1, WithOverflowPolicy(AcceptSilently))

	require.NoError(t, b.Accept(event("a")))
	require.NoError(t, b.Accept(event("b")))

	assert.Equal(t, 0, b.Outstanding(), "count must not go negative")
	assert.Equal(t, 2, b.Len(), "extra event is queued")
}

func TestBuffer_AwaitTimeout(t *testing.T) {
	b := New(2)
	require.NoError(t, b.Accept(event("a")))

	start := time.Now()
	err := b.Await(context.Background(), 50*time.Millisecond)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Outstanding)
	assert.Equal(t, 1, ce.Received)

	// Queued events survive the timeout for partial inspection.
	assert.Equal(t, 1, b.Len())
}

func TestBuffer_AwaitContextCanceled(t *testing.T) {
	b := New(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Await(ctx, time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuffer_ConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 25

	b := New(producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := b.Accept(event(fmt.Sprintf("p%d.e%d", p, i))); err != nil {
					t.Errorf("accept: %v", err)
					return
				}
			}
		}(p)
	}

	err := b.Await(context.Background(), 5*time.Second)
	wg.Wait()
	require.NoError(t, err)

	// A consumer returning from Await must observe every event that
	// decremented the count already enqueued.
	assert.Equal(t, producers*perProducer, b.Len())

	// FIFO within each producer's own submission order.
	next := make(map[string]int, producers)
	b.ForEachRemaining(func(ev Event) {
		var p, i int
		_, err := fmt.Sscanf(ev.Topic, "p%d.e%d", &p, &i)
		require.NoError(t, err)
		key := fmt.Sprintf("p%d", p)
		assert.Equal(t, next[key], i, "producer %d events reordered", p)
		next[key]++
	})
}

func TestBuffer_ExpectsSecondRound(t *testing.T) {
	b := New(1)
	require.NoError(t, b.Accept(event("a")))
	require.NoError(t, b.Await(context.Background(), time.Second))

	// Recount for another round without discarding queued events.
	require.NoError(t, b.Expects(2))
	assert.Equal(t, 2, b.Outstanding())
	assert.Equal(t, 1, b.Len())

	require.NoError(t, b.Accept(event("b")))
	require.NoError(t, b.Accept(event("c")))
	require.NoError(t, b.Await(context.Background(), time.Second))
	assert.Equal(t, 3, b.Len())
}

func TestBuffer_ExpectsWhilePending(t *testing.T) {
	b := New(2)
	require.NoError(t, b.Accept(event("a")))

	err := b.Expects(1)
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodePendingExpectation, ce.Code)
}

func TestBuffer_ExpectsInvalidCount(t *testing.T) {
	b := New(0)

	err := b.Expects(0)
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeInvalidCount, ce.Code)
}

func TestBuffer_RemoveEmpty(t *testing.T) {
	b := New(1)

	_, err := b.Remove()
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeEmptyBuffer, ce.Code)
}

func TestBuffer_ClearKeepsCountdown(t *testing.T) {
	b := New(2)
	require.NoError(t, b.Accept(event("a")))

	b.Clear()
	assert.True(t, b.IsEmpty())
	assert.Equal(t, 1, b.Outstanding(), "clear must not affect the countdown")
}

func TestBuffer_ZeroExpected(t *testing.T) {
	b := New(0)

	// Nothing outstanding: Await is immediately satisfied.
	require.NoError(t, b.Await(context.Background(), 10*time.Millisecond))
}
