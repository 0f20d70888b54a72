package ids

import (
	"github.com/google/uuid"

	"github.com/khaaarl/elven-canopy/internal/prng"
)

// SimUuid is a deterministic RFC-4122 v4 identifier. It is produced
// only by drawing 16 bytes from the simulation's own PRNG stream and
// then fixing up the version/variant bits — never by the operating
// system's random source. Reusing uuid.UUID gives us the canonical
// 8-4-4-4-12 hex string form and byte-exact round-tripping for free.
type SimUuid uuid.UUID

// NewSimUuid draws the next 128 bits from stream and shapes them into a
// version-4, variant-RFC4122 UUID.
func NewSimUuid(stream *prng.Stream) SimUuid {
	raw := stream.Next128Bits()
	u := uuid.UUID(raw)
	u[6] = (u[6] & 0x0f) | 0x40 // version 4
	u[8] = (u[8] & 0x3f) | 0x80 // variant 10 (RFC 4122)
	return SimUuid(u)
}

func (id SimUuid) String() string {
	return uuid.UUID(id).String()
}

// MarshalText implements encoding.TextMarshaler so SimUuid can serve as
// a JSON object key and plain JSON string.
func (id SimUuid) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *SimUuid) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = SimUuid(u)
	return nil
}

// Less gives SimUuid a total, byte-lexicographic order so sets of ids
// (e.g. a task's assignees) can iterate deterministically.
func (id SimUuid) Less(o SimUuid) bool {
	for i := range id {
		if id[i] != o[i] {
			return id[i] < o[i]
		}
	}
	return false
}

// Newtype wrappers per entity kind. Identical underlying
// representation, distinct Go types, so a TreeId can never be passed
// where a CreatureId is expected.

type TreeId SimUuid
type CreatureId SimUuid
type PlayerId SimUuid
type StructureId SimUuid
type ProjectId SimUuid
type TaskId SimUuid

func (id TreeId) String() string      { return SimUuid(id).String() }
func (id CreatureId) String() string  { return SimUuid(id).String() }
func (id PlayerId) String() string    { return SimUuid(id).String() }
func (id StructureId) String() string { return SimUuid(id).String() }
func (id ProjectId) String() string   { return SimUuid(id).String() }
func (id TaskId) String() string      { return SimUuid(id).String() }

func (id TreeId) MarshalText() ([]byte, error)      { return SimUuid(id).MarshalText() }
func (id CreatureId) MarshalText() ([]byte, error)  { return SimUuid(id).MarshalText() }
func (id PlayerId) MarshalText() ([]byte, error)    { return SimUuid(id).MarshalText() }
func (id StructureId) MarshalText() ([]byte, error) { return SimUuid(id).MarshalText() }
func (id ProjectId) MarshalText() ([]byte, error)   { return SimUuid(id).MarshalText() }
func (id TaskId) MarshalText() ([]byte, error)      { return SimUuid(id).MarshalText() }

func (id *TreeId) UnmarshalText(text []byte) error {
	return (*SimUuid)(id).UnmarshalText(text)
}
func (id *CreatureId) UnmarshalText(text []byte) error {
	return (*SimUuid)(id).UnmarshalText(text)
}
func (id *PlayerId) UnmarshalText(text []byte) error {
	return (*SimUuid)(id).UnmarshalText(text)
}
func (id *StructureId) UnmarshalText(text []byte) error {
	return (*SimUuid)(id).UnmarshalText(text)
}
func (id *ProjectId) UnmarshalText(text []byte) error {
	return (*SimUuid)(id).UnmarshalText(text)
}
func (id *TaskId) UnmarshalText(text []byte) error {
	return (*SimUuid)(id).UnmarshalText(text)
}

func (id CreatureId) Less(o CreatureId) bool { return SimUuid(id).Less(SimUuid(o)) }
func (id TaskId) Less(o TaskId) bool         { return SimUuid(id).Less(SimUuid(o)) }
func (id TreeId) Less(o TreeId) bool         { return SimUuid(id).Less(SimUuid(o)) }
