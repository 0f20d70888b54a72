package navgraph

import (
	"encoding/json"

	"github.com/khaaarl/elven-canopy/internal/ids"
)

type wireGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// MarshalJSON serializes nodes and edges; adjacency and the coordinate
// index are rebuilt on load since they're a pure function of the two.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireGraph{Nodes: g.Nodes, Edges: g.Edges})
}

// UnmarshalJSON restores a graph captured by MarshalJSON.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var wg wireGraph
	if err := json.Unmarshal(data, &wg); err != nil {
		return err
	}
	g.Nodes = wg.Nodes
	g.Edges = wg.Edges
	g.byCoord = make(map[ids.VoxelCoord]NodeId, len(g.Nodes))
	for i, n := range g.Nodes {
		g.byCoord[n.Coord] = NodeId(i)
	}
	g.adjacency = make([][]EdgeId, len(g.Nodes))
	for i, e := range g.Edges {
		g.adjacency[e.From] = append(g.adjacency[e.From], EdgeId(i))
	}
	return nil
}
