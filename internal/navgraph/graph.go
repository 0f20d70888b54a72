// Package navgraph builds the walkable-voxel graph the pathfinder
// searches. Node and edge ids are plain array indices into one graph,
// so they need not be globally unique; a serialized graph keeps its
// nodes and edges in index order, so ids stay valid after a restore.
package navgraph

import (
	"sort"

	"github.com/khaaarl/elven-canopy/internal/ids"
	"github.com/khaaarl/elven-canopy/internal/voxel"
)

type NodeId int32
type EdgeId int32

// EdgeType names the kind of traversal an edge represents.
type EdgeType uint8

const (
	ForestFloorEdge EdgeType = iota
	TrunkClimbEdge
	BranchWalkEdge
	PlatformWalkEdge
)

// Node is a walkable position in the graph.
type Node struct {
	Coord ids.VoxelCoord
}

// Edge is a directed, costed traversal between two nodes.
type Edge struct {
	From, To NodeId
	Type     EdgeType
	Cost     float64
}

// Graph holds nodes, edges, and each node's outgoing adjacency list of
// edge indices, rebuilt whenever the world mutates in a way that could
// change walkability.
type Graph struct {
	Nodes     []Node
	Edges     []Edge
	adjacency [][]EdgeId
	byCoord   map[ids.VoxelCoord]NodeId
}

// Build scans every voxel in w and constructs walkable nodes plus the
// edges connecting horizontally (x/z) adjacent walkable cells. Every
// edge is a ForestFloorEdge of cost 1; no vertical edges are built.
func Build(w *voxel.World) *Graph {
	g := &Graph{byCoord: make(map[ids.VoxelCoord]NodeId)}

	w.Each(func(c ids.VoxelCoord, t voxel.Type) {
		if !t.Walkable() {
			return
		}
		above := w.Get(ids.VoxelCoord{X: c.X, Y: c.Y + 1, Z: c.Z})
		if above != voxel.Air {
			return
		}
		id := NodeId(len(g.Nodes))
		g.byCoord[c] = id
		g.Nodes = append(g.Nodes, Node{Coord: c})
	})

	g.adjacency = make([][]EdgeId, len(g.Nodes))

	neighborOffsets := []ids.VoxelCoord{
		{X: 1}, {X: -1}, {Z: 1}, {Z: -1},
	}
	for from, node := range g.Nodes {
		for _, off := range neighborOffsets {
			neighborCoord := node.Coord.Add(off)
			to, ok := g.byCoord[neighborCoord]
			if !ok {
				continue
			}
			g.addEdge(NodeId(from), to, ForestFloorEdge, 1.0)
		}
	}

	return g
}

func (g *Graph) addEdge(from, to NodeId, t EdgeType, cost float64) {
	id := EdgeId(len(g.Edges))
	g.Edges = append(g.Edges, Edge{From: from, To: to, Type: t, Cost: cost})
	g.adjacency[from] = append(g.adjacency[from], id)
}

// NodeAt returns the node id at coord, if any walkable node exists
// there.
func (g *Graph) NodeAt(coord ids.VoxelCoord) (NodeId, bool) {
	id, ok := g.byCoord[coord]
	return id, ok
}

// OutgoingEdges returns, in construction order, the edge ids leaving
// node.
func (g *Graph) OutgoingEdges(node NodeId) []EdgeId {
	return g.adjacency[node]
}

// NearestNode returns the walkable node closest to coord by Manhattan
// distance, breaking ties on ascending node id for determinism. Returns
// false if the graph has no nodes.
func (g *Graph) NearestNode(coord ids.VoxelCoord) (NodeId, bool) {
	if len(g.Nodes) == 0 {
		return 0, false
	}
	best := NodeId(0)
	bestDist := ids.ManhattanDistance(coord, g.Nodes[0].Coord)
	for i := 1; i < len(g.Nodes); i++ {
		d := ids.ManhattanDistance(coord, g.Nodes[i].Coord)
		if d < bestDist {
			bestDist = d
			best = NodeId(i)
		}
	}
	return best, true
}

// SortedNodeIds returns every node id in ascending order, used by
// iteration sites that need a deterministic full sweep.
func (g *Graph) SortedNodeIds() []NodeId {
	out := make([]NodeId, len(g.Nodes))
	for i := range out {
		out[i] = NodeId(i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
