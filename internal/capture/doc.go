// Package capture provides a thread-safe buffer for collecting change
// events emitted by concurrent producers.
//
// A Buffer combines a FIFO queue with a resettable countdown: it is
// created expecting N relevant events, producers call Accept as events
// arrive, and a consumer blocks in Await until the count is reached or
// a deadline passes. Relevance is decided by topic prefix filters, and
// events beyond the expected count follow the configured overflow
// policy. Once Await returns, the consumer drains the queue with Remove
// and hands each record to the verifier.
//
// The linearizability contract matters here: when Await returns nil,
// every accepted event is already visible in the queue. Accept performs
// the enqueue and the countdown under one lock, so the happens-before
// edge from the countdown reaching zero covers the queue contents.
package capture
