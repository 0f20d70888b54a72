// Package ids holds the simulation's strongly typed identifiers: the
// spatial VoxelCoord primitive and the per-entity-kind SimUuid
// newtypes drawn from the simulation's own PRNG.
package ids

import "fmt"

// VoxelCoord is a signed integer voxel position. It has a total order
// (lexicographic on x, then y, then z) so it can serve as a
// deterministic map key and be sorted reproducibly across platforms.
type VoxelCoord struct {
	X, Y, Z int32
}

// Less implements the total order required wherever voxel coordinates
// feed a deterministic iteration.
func (c VoxelCoord) Less(o VoxelCoord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.Z < o.Z
}

func (c VoxelCoord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Add returns the component-wise sum.
func (c VoxelCoord) Add(o VoxelCoord) VoxelCoord {
	return VoxelCoord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

// ManhattanDistance is the L1 distance between two coordinates, used by
// the pathfinder's admissible heuristic.
func ManhattanDistance(a, b VoxelCoord) int64 {
	return int64(abs32(a.X-b.X)) + int64(abs32(a.Y-b.Y)) + int64(abs32(a.Z-b.Z))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
