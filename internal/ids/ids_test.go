package ids

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/khaaarl/elven-canopy/internal/prng"
)

func TestSimUuidVersionAndVariant(t *testing.T) {
	s := prng.New(42)
	for i := 0; i < 1000; i++ {
		id := NewSimUuid(s)
		u := uuid.UUID(id)
		require.Equal(t, uuid.Version(4), u.Version())
		require.Equal(t, uuid.RFC4122, u.Variant())
	}
}

func TestSimUuidTextRoundTrip(t *testing.T) {
	s := prng.New(1)
	id := NewSimUuid(s)

	text, err := id.MarshalText()
	require.NoError(t, err)

	var restored SimUuid
	require.NoError(t, restored.UnmarshalText(text))
	require.Equal(t, id, restored)
}

func TestSimUuidDeterministicFromSeed(t *testing.T) {
	a := NewSimUuid(prng.New(7))
	b := NewSimUuid(prng.New(7))
	require.Equal(t, a, b)
}

func TestVoxelCoordOrdering(t *testing.T) {
	a := VoxelCoord{0, 0, 0}
	b := VoxelCoord{0, 0, 1}
	c := VoxelCoord{1, 0, 0}
	require.True(t, a.Less(b))
	require.True(t, b.Less(c))
	require.False(t, c.Less(a))
}
