package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/streamcheck/streamcheck/internal/capture"
	"github.com/streamcheck/streamcheck/internal/record"
)

// Snapshot renders captured events as deterministic JSON: topics as
// plain strings, records in canonical form (NFC strings, declaration
// field order, base64 bytes). Suitable for golden file comparison.
func Snapshot(scenarioName string, events []capture.Event) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(`{"scenario":`)
	name, err := json.Marshal(scenarioName)
	if err != nil {
		return nil, err
	}
	buf.Write(name)
	buf.WriteString(`,"events":[`)

	for i, ev := range events {
		if i > 0 {
			buf.WriteByte(',')
		}
		topic, err := json.Marshal(ev.Topic)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`{"topic":`)
		buf.Write(topic)
		buf.WriteString(`,"record":`)

		rec, err := record.MarshalCanonical(ev.Record)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		buf.Write(rec)
		buf.WriteByte('}')
	}

	buf.WriteString("]}\n")
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares the captured trace
// against a golden file at testdata/<scenario.Name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result for further assertions. Golden mismatch fails the
// test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario, source Source, opts Options) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario, source, opts)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}

	snapshot, err := Snapshot(scenario.Name, result.Events)
	if err != nil {
		t.Fatalf("scenario %s: snapshot: %v", scenario.Name, err)
	}

	g := goldie.New(t)
	g.Assert(t, scenario.Name, snapshot)

	return result
}
