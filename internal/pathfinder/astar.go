// Package pathfinder implements deterministic A* search over a
// navgraph.Graph.
package pathfinder

import (
	"container/heap"

	"github.com/khaaarl/elven-canopy/internal/ids"
	"github.com/khaaarl/elven-canopy/internal/navgraph"
)

// Result is a found path: the node sequence from start to goal
// inclusive, the edges walked between them, and the summed cost.
type Result struct {
	Nodes []navgraph.NodeId
	Edges []navgraph.EdgeId
	Cost  float64
}

// heuristic returns manhattan_distance / maxSpeed, admissible because
// every edge's cost is at least length/maxSpeed.
func heuristic(g *navgraph.Graph, from, goal navgraph.NodeId, maxSpeed float64) float64 {
	d := ids.ManhattanDistance(g.Nodes[from].Coord, g.Nodes[goal].Coord)
	return float64(d) / maxSpeed
}

type openEntry struct {
	node    navgraph.NodeId
	fScore  float64
	heapIdx int
}

type openHeap []*openEntry

func (h openHeap) Len() int { return len(h) }
func (h openHeap) Less(i, j int) bool {
	if h[i].fScore != h[j].fScore {
		return totalCmpLess(h[i].fScore, h[j].fScore)
	}
	return h[i].node < h[j].node
}
func (h openHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}
func (h *openHeap) Push(x interface{}) {
	e := x.(*openEntry)
	e.heapIdx = len(*h)
	*h = append(*h, e)
}
func (h *openHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// totalCmpLess orders floats with a total order (NaN sorts as greater
// than everything) so the open-set heap never produces indeterminate
// comparisons across platforms.
func totalCmpLess(a, b float64) bool {
	aNaN, bNaN := a != a, b != b
	if aNaN && bNaN {
		return false
	}
	if aNaN {
		return false
	}
	if bNaN {
		return true
	}
	return a < b
}

// AStar finds the lowest-cost path from start to goal. maxSpeed scales
// the heuristic and must match the fastest mover that could traverse
// this graph. Returns ok=false if no path exists. start == goal returns
// a zero-cost single-node result.
func AStar(g *navgraph.Graph, start, goal navgraph.NodeId, maxSpeed float64) (Result, bool) {
	return astarFiltered(g, start, goal, maxSpeed, nil)
}

// AStarFiltered behaves like AStar but only traverses edges whose Type
// is present in allowed; all other edges are skipped entirely.
func AStarFiltered(g *navgraph.Graph, start, goal navgraph.NodeId, maxSpeed float64, allowed []navgraph.EdgeType) (Result, bool) {
	allowSet := make(map[navgraph.EdgeType]struct{}, len(allowed))
	for _, t := range allowed {
		allowSet[t] = struct{}{}
	}
	return astarFiltered(g, start, goal, maxSpeed, allowSet)
}

func astarFiltered(g *navgraph.Graph, start, goal navgraph.NodeId, maxSpeed float64, allowed map[navgraph.EdgeType]struct{}) (Result, bool) {
	if start == goal {
		return Result{Nodes: []navgraph.NodeId{start}}, true
	}

	gScore := map[navgraph.NodeId]float64{start: 0}
	cameFromNode := map[navgraph.NodeId]navgraph.NodeId{}
	cameFromEdge := map[navgraph.NodeId]navgraph.EdgeId{}
	inOpen := map[navgraph.NodeId]*openEntry{}
	closed := map[navgraph.NodeId]bool{}

	h := &openHeap{}
	heap.Init(h)
	startEntry := &openEntry{node: start, fScore: heuristic(g, start, goal, maxSpeed)}
	heap.Push(h, startEntry)
	inOpen[start] = startEntry

	for h.Len() > 0 {
		current := heap.Pop(h).(*openEntry)
		delete(inOpen, current.node)
		if current.node == goal {
			return reconstruct(cameFromNode, cameFromEdge, gScore, start, goal), true
		}
		closed[current.node] = true

		for _, edgeId := range g.OutgoingEdges(current.node) {
			edge := g.Edges[edgeId]
			if allowed != nil {
				if _, ok := allowed[edge.Type]; !ok {
					continue
				}
			}
			if closed[edge.To] {
				continue
			}
			tentative := gScore[current.node] + edge.Cost
			existing, has := gScore[edge.To]
			if has && tentative >= existing {
				continue
			}
			gScore[edge.To] = tentative
			cameFromNode[edge.To] = current.node
			cameFromEdge[edge.To] = edgeId
			f := tentative + heuristic(g, edge.To, goal, maxSpeed)

			if entry, ok := inOpen[edge.To]; ok {
				entry.fScore = f
				heap.Fix(h, entry.heapIdx)
			} else {
				entry := &openEntry{node: edge.To, fScore: f}
				heap.Push(h, entry)
				inOpen[edge.To] = entry
			}
		}
	}

	return Result{}, false
}

func reconstruct(cameFromNode map[navgraph.NodeId]navgraph.NodeId, cameFromEdge map[navgraph.NodeId]navgraph.EdgeId, gScore map[navgraph.NodeId]float64, start, goal navgraph.NodeId) Result {
	var nodes []navgraph.NodeId
	var edges []navgraph.EdgeId
	n := goal
	for n != start {
		nodes = append(nodes, n)
		edges = append(edges, cameFromEdge[n])
		n = cameFromNode[n]
	}
	nodes = append(nodes, start)

	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}

	return Result{Nodes: nodes, Edges: edges, Cost: gScore[goal]}
}
