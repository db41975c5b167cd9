// Package correlator implements the request_id -> pending response
// table a PlantWorker uses to route inbound frames back to the caller
// that sent the matching request. The table is a private concurrent
// map guarded by a mutex held only across O(1) operations, never
// across a channel send or receive.
package correlator

import (
	"sync"

	"github.com/arjunrv/rti-go/codec"
)

// Kind distinguishes a one-shot completion from a multi-part stream.
type Kind int

const (
	Single Kind = iota
	Stream
)

// Result is what a Single pending request resolves to.
type Result struct {
	Message codec.TypedMessage
	Err     error
}

// StreamSink is what a Stream pending request delivers to. Data frames
// arrive on Data; Err receives at most one value immediately before
// Data is closed, for a consumer to distinguish clean end-of-stream
// from a dropped connection or a mid-stream reject.
type StreamSink struct {
	Data chan codec.TypedMessage
	Err  chan error
}

// PendingRequest is one correlator table entry.
type PendingRequest struct {
	Kind   Kind
	single chan Result
	stream StreamSink
}

// NewSingle constructs a Single pending request and returns it along
// with the channel the caller should receive from.
func NewSingle() (PendingRequest, <-chan Result) {
	ch := make(chan Result, 1)
	return PendingRequest{Kind: Single, single: ch}, ch
}

// NewStream constructs a Stream pending request and returns it along
// with the sink the caller should consume from.
func NewStream() (PendingRequest, StreamSink) {
	sink := StreamSink{
		Data: make(chan codec.TypedMessage, 16),
		Err:  make(chan error, 1),
	}
	return PendingRequest{Kind: Stream, stream: sink}, sink
}

// Table is the per-plant request_id -> PendingRequest map. Each
// PlantWorker owns exactly one Table.
type Table struct {
	mu      sync.Mutex
	entries map[string]PendingRequest
}

// New returns an empty Table.
func New() *Table {
	return &Table{entries: make(map[string]PendingRequest)}
}

// Insert registers a new pending entry under id. It is an invariant
// violation for id to already be present — the monotonic RequestId
// allocator guarantees this doesn't happen for Single and Stream
// entries issued by the same Client — so Insert reports the collision
// rather than silently overwriting a live request.
func (t *Table) Insert(id string, entry PendingRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[id]; exists {
		return &DuplicateIDError{ID: id}
	}
	t.entries[id] = entry
	return nil
}

// CompleteSingle removes the entry for id and fulfills its single-shot
// sink. Reports ok=false if no matching Single entry is pending (the
// frame is dropped by the caller with a warning).
func (t *Table) CompleteSingle(id string, msg codec.TypedMessage, err error) (ok bool) {
	t.mu.Lock()
	entry, exists := t.entries[id]
	if !exists || entry.Kind != Single {
		t.mu.Unlock()
		return false
	}
	delete(t.entries, id)
	t.mu.Unlock()

	entry.single <- Result{Message: msg, Err: err}
	return true
}

// PushStream delivers msg to the stream sink registered for id without
// removing the entry. Reports ok=false if no matching Stream entry is
// pending.
func (t *Table) PushStream(id string, msg codec.TypedMessage) (ok bool) {
	t.mu.Lock()
	entry, exists := t.entries[id]
	t.mu.Unlock()

	if !exists || entry.Kind != Stream {
		return false
	}

	select {
	case entry.stream.Data <- msg:
	default:
		// Consumer has fallen behind or abandoned the channel; the
		// protocol gives no backpressure signal, so the frame is
		// dropped rather than blocking the reader goroutine.
	}
	return true
}

// EndStream removes the entry for id, reporting err (nil for a clean
// end-of-stream) on its Err channel before closing Data. Reports
// ok=false if no matching Stream entry is pending.
func (t *Table) EndStream(id string, err error) (ok bool) {
	t.mu.Lock()
	entry, exists := t.entries[id]
	if !exists || entry.Kind != Stream {
		t.mu.Unlock()
		return false
	}
	delete(t.entries, id)
	t.mu.Unlock()

	if err != nil {
		entry.stream.Err <- err
	}
	close(entry.stream.Data)
	return true
}

// Cancel removes the entry for id without completing or closing its
// sink, for a caller that has abandoned its future/stream (context
// cancellation, caller walked away). Any response that later arrives
// for id is routed nowhere and dropped by the caller with a warning.
func (t *Table) Cancel(id string) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}

// FailAll drains the table, completing every Single entry and ending
// every Stream entry with err. Called once, on socket close.
func (t *Table) FailAll(err error) {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[string]PendingRequest)
	t.mu.Unlock()

	for _, entry := range entries {
		switch entry.Kind {
		case Single:
			entry.single <- Result{Err: err}
		case Stream:
			entry.stream.Err <- err
			close(entry.stream.Data)
		}
	}
}

// Len reports the number of entries currently pending, for tests that
// assert the table drains to empty.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// DuplicateIDError is returned by Insert when id is already pending.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return "correlator: request id " + e.ID + " already pending"
}
