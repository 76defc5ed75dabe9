// Package harness executes capture-and-verify scenarios against a
// change-event stream.
//
// A scenario wires the two core pieces together: producer goroutines
// push events into a capture.Buffer, the harness blocks until the
// declared number of relevant events arrived (or times out), then
// drains the buffer and verifies each captured record against the
// scenario's expectation trees with the structural verifier.
//
// Scenarios are YAML files; see Scenario for the format. Golden
// snapshot comparison of the captured trace is available through
// RunWithGolden.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/streamcheck/streamcheck/internal/capture"
	"github.com/streamcheck/streamcheck/internal/journal"
	"github.com/streamcheck/streamcheck/internal/verify"
)

// defaultTimeout bounds Await when the scenario does not set one.
const defaultTimeout = 5 * time.Second

// drainGrace bounds the wait for the producer to finish consuming a
// closed source after the expected count is reached, so late overflow
// is still reported.
const drainGrace = 100 * time.Millisecond

// Source is the collaborator's delivery mechanism: anything that can
// emit captured events over a channel. The channel should be closed
// when the source is exhausted; live sources may leave it open, the
// harness stops consuming after its own timeout.
type Source interface {
	Events() <-chan capture.Event
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: all expected events arrived and
	// every captured record matched its expectation tree.
	Pass bool `json:"pass"`

	// Errors contains verification error messages. Empty if Pass.
	Errors []string `json:"errors,omitempty"`

	// Events holds the captured events in arrival order, for
	// inspection and golden comparison.
	Events []capture.Event `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a verification error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Options tune a scenario run.
type Options struct {
	// Logger receives progress events. Defaults to a discard logger.
	Logger *slog.Logger

	// Recorder, when set, journals every event the source emits before
	// it reaches the buffer.
	Recorder *journal.Recorder
}

// Run executes a scenario against an event source.
//
// Infrastructure failures (bad expectations, journal errors) are
// returned as an error; verification failures (timeout, overflow,
// structural mismatches) are reported in the result.
func Run(ctx context.Context, scenario *Scenario, source Source, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Compile expectations up front so fixture mistakes surface before
	// any event is consumed.
	expectations := make([][]verify.Expected, len(scenario.Records))
	for i, rec := range scenario.Records {
		exps, err := rec.Compile()
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		expectations[i] = exps
	}

	buffer := capture.New(scenario.Expect,
		capture.WithTopicPrefixes(scenario.TopicPrefixes...),
		capture.WithOverflowPolicy(scenario.overflowPolicy()),
	)

	// Producer side: pump the source into the buffer. Accept failures
	// (overflow under the reject policy) are collected, not dropped.
	var (
		produceMu   sync.Mutex
		produceErrs []string
	)
	produceDone := make(chan struct{})
	go func() {
		defer close(produceDone)
		for ev := range source.Events() {
			if opts.Recorder != nil {
				if err := opts.Recorder.Record(ctx, ev); err != nil {
					logger.Warn("journal write failed", "topic", ev.Topic, "error", err)
				}
			}
			if err := buffer.Accept(ev); err != nil {
				produceMu.Lock()
				produceErrs = append(produceErrs, err.Error())
				produceMu.Unlock()
			}
		}
	}()

	timeout := defaultTimeout
	if scenario.TimeoutMs > 0 {
		timeout = time.Duration(scenario.TimeoutMs) * time.Millisecond
	}

	result := NewResult()
	if err := buffer.Await(ctx, timeout); err != nil {
		if capture.IsTimeout(err) {
			result.AddError(err.Error())
		} else {
			return nil, err
		}
	}
	logger.Info("capture round finished",
		"received", buffer.Received(), "outstanding", buffer.Outstanding())

	// Replayed and exhausted sources close their channel; wait for the
	// producer so overflow errors and extra events land in the result.
	// Live sources that never close get the grace period only.
	select {
	case <-produceDone:
	case <-time.After(drainGrace):
	case <-ctx.Done():
	}

	// Drain and verify in arrival order against the declared records.
	for i, rec := range scenario.Records {
		ev, err := buffer.Remove()
		if err != nil {
			result.AddError(fmt.Sprintf("records[%d]: %v", i, err))
			break
		}
		result.Events = append(result.Events, ev)

		if ev.Topic != rec.Topic {
			result.AddError(fmt.Sprintf("records[%d]: topic %q, want %q", i, ev.Topic, rec.Topic))
		}
		if err := verify.VerifyAll(expectations[i], ev.Record); err != nil {
			result.AddError(fmt.Sprintf("records[%d] (topic %s): %v", i, ev.Topic, err))
		}
	}

	// Extra queued events (accept-silently overflow) stay inspectable.
	buffer.ForEachRemaining(func(ev capture.Event) {
		result.Events = append(result.Events, ev)
	})

	produceMu.Lock()
	for _, msg := range produceErrs {
		result.AddError(msg)
	}
	produceMu.Unlock()

	return result, nil
}
