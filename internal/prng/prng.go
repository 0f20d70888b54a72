// Package prng implements the simulation's single source of
// non-determinism: a seeded xoshiro256++ stream. Every random draw
// anywhere in the simulation kernel must route through a Stream so that
// two independently constructed sims fed the same command stream stay
// bit-identical forever.
package prng

import "fmt"

// Stream is a xoshiro256++ generator. The zero value is not usable;
// construct one with New or NewFromState.
type Stream struct {
	s [4]uint64
}

// New seeds a Stream by running SplitMix64 four times over seed, the
// standard way to expand a 64-bit seed into xoshiro256's 256-bit state.
func New(seed uint64) *Stream {
	sm := splitMix64{state: seed}
	var s [4]uint64
	for i := range s {
		s[i] = sm.next()
	}
	return &Stream{s: s}
}

// State returns the raw 256-bit generator state, in the order consumed
// by NewFromState, for serialization.
func (s *Stream) State() [4]uint64 {
	return s.s
}

// NewFromState restores a Stream from a previously captured State, so
// the continuation is identical to the original instance's.
func NewFromState(state [4]uint64) *Stream {
	return &Stream{s: state}
}

type splitMix64 struct{ state uint64 }

func (sm *splitMix64) next() uint64 {
	sm.state += 0x9E3779B97F4A7C15
	z := sm.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func rotl(x uint64, k uint) uint64 {
	return (x << k) | (x >> (64 - k))
}

// NextU64 advances the stream and returns the next 64-bit word.
// Only wrapping integer arithmetic and bit rotation are used, required
// for identical behavior across platforms and Go versions.
func (s *Stream) NextU64() uint64 {
	result := rotl(s.s[0]+s.s[3], 23) + s.s[0]

	t := s.s[1] << 17

	s.s[2] ^= s.s[0]
	s.s[3] ^= s.s[1]
	s.s[1] ^= s.s[2]
	s.s[0] ^= s.s[3]

	s.s[2] ^= t

	s.s[3] = rotl(s.s[3], 45)

	return result
}

// NextF32 returns a float32 in [0,1), built from the top 24 bits of one
// draw divided by 2^24.
func (s *Stream) NextF32() float32 {
	bits := s.NextU64() >> (64 - 24)
	return float32(bits) / float32(1<<24)
}

// NextF64 returns a float64 in [0,1), built from the top 53 bits of one
// draw divided by 2^53.
func (s *Stream) NextF64() float64 {
	bits := s.NextU64() >> (64 - 53)
	return float64(bits) / float64(1<<53)
}

// NextBool draws a single bit.
func (s *Stream) NextBool() bool {
	return s.NextU64()&1 == 1
}

// Next128Bits emits two consecutive u64 draws as 16 little-endian bytes,
// the primitive SimUuid generation draws from.
func (s *Stream) Next128Bits() [16]byte {
	var out [16]byte
	lo := s.NextU64()
	hi := s.NextU64()
	for i := 0; i < 8; i++ {
		out[i] = byte(lo >> (8 * i))
		out[8+i] = byte(hi >> (8 * i))
	}
	return out
}

// RangeU64 returns a uniform value in [lo, hi) using rejection
// sampling against the threshold (-span) mod span, with a mask fast
// path when span is a power of two, eliminating modulo bias. Panics if
// lo >= hi.
func (s *Stream) RangeU64(lo, hi uint64) uint64 {
	if lo >= hi {
		panic(fmt.Sprintf("prng: invalid range [%d, %d)", lo, hi))
	}
	span := hi - lo

	if span&(span-1) == 0 {
		return lo + (s.NextU64() & (span - 1))
	}

	threshold := (-span) % span
	for {
		v := s.NextU64()
		if v >= threshold {
			return lo + v%span
		}
	}
}

// RangeU64Inclusive returns a uniform value in [lo, hi], reaching both
// bounds.
func (s *Stream) RangeU64Inclusive(lo, hi uint64) uint64 {
	if hi == ^uint64(0) {
		if lo == 0 {
			return s.NextU64()
		}
		return s.RangeU64(lo-1, hi) + 1
	}
	return s.RangeU64(lo, hi+1)
}

// RangeInt returns a uniform value in [lo, hi). Panics if lo >= hi.
func (s *Stream) RangeInt(lo, hi int) int {
	if lo >= hi {
		panic(fmt.Sprintf("prng: invalid range [%d, %d)", lo, hi))
	}
	return lo + int(s.RangeU64(0, uint64(hi-lo)))
}
