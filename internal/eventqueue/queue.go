// Package eventqueue implements the simulation's min-heap of scheduled
// events, ordered by (tick, sequence).
package eventqueue

import (
	"container/heap"
	"encoding/json"
)

// Kind distinguishes what a scheduled event should do when it fires.
// The simulation kernel owns the actual payload types; the queue only
// orders opaque events.
type Kind string

// ScheduledEvent is one entry in the queue.
type ScheduledEvent struct {
	Tick     uint64          `json:"tick"`
	Sequence uint64          `json:"sequence"`
	Kind     Kind            `json:"kind"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type innerHeap []ScheduledEvent

func (h innerHeap) Len() int { return len(h) }
func (h innerHeap) Less(i, j int) bool {
	if h[i].Tick != h[j].Tick {
		return h[i].Tick < h[j].Tick
	}
	return h[i].Sequence < h[j].Sequence
}
func (h innerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *innerHeap) Push(x interface{}) {
	*h = append(*h, x.(ScheduledEvent))
}
func (h *innerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Queue is a min-heap by (tick, sequence) with a monotonic internal
// sequence counter that is never reset, even across serialization.
type Queue struct {
	heap         innerHeap
	nextSequence uint64
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Schedule inserts an event at tick, assigning it the next monotonic
// sequence number, and returns that sequence.
func (q *Queue) Schedule(tick uint64, kind Kind, payload json.RawMessage) uint64 {
	seq := q.nextSequence
	q.nextSequence++
	heap.Push(&q.heap, ScheduledEvent{Tick: tick, Sequence: seq, Kind: kind, Payload: payload})
	return seq
}

// PeekTick returns the earliest scheduled tick without popping, and
// false if the queue is empty.
func (q *Queue) PeekTick() (uint64, bool) {
	if len(q.heap) == 0 {
		return 0, false
	}
	return q.heap[0].Tick, true
}

// PopIfReady pops and returns the earliest event only if its tick is
// <= t. Returns ok=false if the queue is empty or the earliest event's
// tick is still in the future.
func (q *Queue) PopIfReady(t uint64) (ScheduledEvent, bool) {
	if len(q.heap) == 0 || q.heap[0].Tick > t {
		return ScheduledEvent{}, false
	}
	return heap.Pop(&q.heap).(ScheduledEvent), true
}

// Len returns the number of pending events.
func (q *Queue) Len() int { return len(q.heap) }

type wireForm struct {
	Events       []ScheduledEvent `json:"events"`
	NextSequence uint64           `json:"next_sequence"`
}

// MarshalJSON serializes the full queue including the unexposed
// nextSequence counter, so a restored queue never reissues a sequence
// number.
func (q *Queue) MarshalJSON() ([]byte, error) {
	events := make([]ScheduledEvent, len(q.heap))
	copy(events, q.heap)
	return json.Marshal(wireForm{Events: events, NextSequence: q.nextSequence})
}

// UnmarshalJSON restores a queue captured by MarshalJSON.
func (q *Queue) UnmarshalJSON(data []byte) error {
	var w wireForm
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	q.heap = innerHeap(w.Events)
	heap.Init(&q.heap)
	q.nextSequence = w.NextSequence
	return nil
}
