package journal

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/streamcheck/streamcheck/internal/capture"
)

// Recorder journals captured events under one session with a monotonic
// sequence number per event.
//
// Session and event ids are UUIDv7: the embedded timestamp makes them
// sortable by creation time, which keeps journal ordering stable even
// when two events share a sequence number (they never should, but the
// ORDER BY tiebreaks on id regardless).
//
// Thread-safety: Record is safe for concurrent use; the sequence is an
// atomic counter.
type Recorder struct {
	journal *Journal
	session string
	seq     atomic.Int64
}

// NewRecorder creates a recorder with a fresh UUIDv7 session id.
func NewRecorder(j *Journal) *Recorder {
	return &Recorder{
		journal: j,
		session: uuid.Must(uuid.NewV7()).String(),
	}
}

// Session returns the recorder's session id.
func (r *Recorder) Session() string {
	return r.session
}

// Record journals one captured event. Suitable as a tee next to
// capture.Buffer.Accept in the producer's delivery path.
func (r *Recorder) Record(ctx context.Context, ev capture.Event) error {
	seq := r.seq.Add(1)
	id := uuid.Must(uuid.NewV7()).String()
	return r.journal.WriteEvent(ctx, id, r.session, seq, ev)
}
