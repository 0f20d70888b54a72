// Package voxel implements the dense 3-D material grid the simulation
// world is built from.
package voxel

import "github.com/khaaarl/elven-canopy/internal/ids"

// Type enumerates the material occupying a voxel cell.
type Type uint8

const (
	Air Type = iota
	Trunk
	Branch
	Leaf
	Fruit
	Root
	ForestFloor
	GrownPlatform
	GrownWall
	GrownStairs
	Bridge
)

// Walkable reports whether a creature can stand on or traverse this
// material when building the nav graph.
func (t Type) Walkable() bool {
	switch t {
	case ForestFloor, GrownPlatform, GrownStairs, Bridge, Branch:
		return true
	default:
		return false
	}
}

// World is a flat-indexed, bounds-checked voxel grid. Out-of-bounds
// reads return Air; out-of-bounds writes are silently ignored. The
// single mutator, Set, is the only way to write a cell, so every
// change to the world passes through one choke point.
type World struct {
	SizeX, SizeY, SizeZ int32
	cells               []Type
}

// New allocates an all-Air world of the given dimensions.
func New(sizeX, sizeY, sizeZ int32) *World {
	return &World{
		SizeX: sizeX,
		SizeY: sizeY,
		SizeZ: sizeZ,
		cells: make([]Type, int(sizeX)*int(sizeY)*int(sizeZ)),
	}
}

func (w *World) inBounds(c ids.VoxelCoord) bool {
	return c.X >= 0 && c.X < w.SizeX &&
		c.Y >= 0 && c.Y < w.SizeY &&
		c.Z >= 0 && c.Z < w.SizeZ
}

func (w *World) index(c ids.VoxelCoord) int {
	return int(c.X) + int(c.Z)*int(w.SizeX) + int(c.Y)*int(w.SizeX)*int(w.SizeZ)
}

// Get returns the material at c, or Air if c is out of bounds.
func (w *World) Get(c ids.VoxelCoord) Type {
	if !w.inBounds(c) {
		return Air
	}
	return w.cells[w.index(c)]
}

// Set writes the material at c. Out-of-bounds writes are ignored.
func (w *World) Set(c ids.VoxelCoord, t Type) {
	if !w.inBounds(c) {
		return
	}
	w.cells[w.index(c)] = t
}

// Each visits every in-bounds coordinate in ascending (y, z, x) storage
// order, the order the flat index implies, so callers that fold over
// the whole world get a deterministic traversal.
func (w *World) Each(fn func(c ids.VoxelCoord, t Type)) {
	for y := int32(0); y < w.SizeY; y++ {
		for z := int32(0); z < w.SizeZ; z++ {
			for x := int32(0); x < w.SizeX; x++ {
				c := ids.VoxelCoord{X: x, Y: y, Z: z}
				fn(c, w.cells[w.index(c)])
			}
		}
	}
}
