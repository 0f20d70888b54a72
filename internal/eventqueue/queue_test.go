package eventqueue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPopIfReadyReturnsSmallestTickSequence(t *testing.T) {
	q := New()
	q.Schedule(5, "a", nil)
	q.Schedule(3, "b", nil)
	q.Schedule(3, "c", nil)

	e, ok := q.PopIfReady(10)
	require.True(t, ok)
	require.Equal(t, Kind("b"), e.Kind)

	e, ok = q.PopIfReady(10)
	require.True(t, ok)
	require.Equal(t, Kind("c"), e.Kind)
}

func TestPopIfReadyRespectsHorizon(t *testing.T) {
	q := New()
	q.Schedule(100, "far", nil)

	_, ok := q.PopIfReady(50)
	require.False(t, ok)

	_, ok = q.PopIfReady(100)
	require.True(t, ok)
}

func TestPopIfReadyEmptyQueue(t *testing.T) {
	q := New()
	_, ok := q.PopIfReady(0)
	require.False(t, ok)
}

func TestPeekTickDoesNotPop(t *testing.T) {
	q := New()
	q.Schedule(7, "x", nil)
	tick, ok := q.PeekTick()
	require.True(t, ok)
	require.Equal(t, uint64(7), tick)
	require.Equal(t, 1, q.Len())
}

func TestSequenceNeverResets(t *testing.T) {
	q := New()
	s1 := q.Schedule(1, "a", nil)
	s2 := q.Schedule(1, "b", nil)
	require.Less(t, s1, s2)
}

func TestSerializationPreservesOrderAndSequence(t *testing.T) {
	q := New()
	q.Schedule(2, "b", nil)
	q.Schedule(1, "a", nil)

	data, err := json.Marshal(q)
	require.NoError(t, err)

	restored := New()
	require.NoError(t, json.Unmarshal(data, restored))

	e, ok := restored.PopIfReady(10)
	require.True(t, ok)
	require.Equal(t, Kind("a"), e.Kind)

	nextSeq := restored.Schedule(1, "c", nil)
	require.GreaterOrEqual(t, nextSeq, uint64(2))
}
