package roadway

import (
	"container/heap"
	"fmt"

	"github.com/theoremus-urban-solutions/roadway-wrangler/attr"
)

// GraphOptions control how a links/nodes pair is converted to a search
// graph.
type GraphOptions struct {
	// WeightColumn is the link column supplying shortest-path weights.
	// Missing values count as 1.
	WeightColumn string
	// WeightFactor multiplies the weight column value; the edge weight is
	// 1 + value*factor so original-filter matches (value 0) cost 1 and each
	// expansion iteration costs substantially more.
	WeightFactor float64
}

type graphEdge struct {
	linkID int
	to     int
	weight float64
	// attrs carries only simple scalar attributes; scoped and composite
	// values are dropped, the graph cannot store them.
	attrs map[string]any
}

// searchGraph is a directed multigraph keyed by node ID. It is rebuilt fresh
// for every segment search; graphs are never cached across mutations.
type searchGraph struct {
	adj   map[int][]graphEdge
	nodes map[int]Point
}

// buildSearchGraph converts a subset of links plus the nodes table into a
// directed multigraph. Every link endpoint must exist in the nodes table.
func buildSearchGraph(links *LinksTable, linkIDs []int, nodes *NodesTable, opts GraphOptions) (*searchGraph, error) {
	if links == nil || nodes == nil {
		return nil, &GraphBuildError{Msg: "links and nodes tables are required to build a graph"}
	}
	if opts.WeightColumn == "" {
		opts.WeightColumn = "i"
	}
	if opts.WeightFactor == 0 {
		opts.WeightFactor = 100
	}

	g := &searchGraph{adj: map[int][]graphEdge{}, nodes: map[int]Point{}}
	for _, id := range linkIDs {
		l, ok := links.Get(id)
		if !ok {
			return nil, &GraphBuildError{Msg: fmt.Sprintf("link %d not in links table", id)}
		}
		for _, end := range []int{l.A, l.B} {
			nd, ok := nodes.Get(end)
			if !ok {
				return nil, &GraphBuildError{Msg: fmt.Sprintf("link %d endpoint node %d not in nodes table", id, end)}
			}
			g.nodes[end] = nd.Geometry()
		}

		w := 1.0
		if v, ok := l.Attrs[opts.WeightColumn]; ok {
			if s, err := attr.Resolve(v, nil, nil); err == nil {
				if f, numeric := s.Float(); numeric {
					w = f
				}
			}
		} else {
			// Column absent: initialize to 1 for every link.
			w = 1
		}
		g.adj[l.A] = append(g.adj[l.A], graphEdge{
			linkID: id,
			to:     l.B,
			weight: 1 + w*opts.WeightFactor,
			attrs:  scalarAttrs(l),
		})
	}
	return g, nil
}

// scalarAttrs extracts the simple scalar attributes of a link. Scoped values
// and composite types are dropped.
func scalarAttrs(l *Link) map[string]any {
	out := map[string]any{}
	for name, v := range l.Attrs {
		s, ok := v.(attr.Scalar)
		if !ok {
			continue
		}
		switch s.V.(type) {
		case int, float64, string, bool:
			out[name] = s.V
		}
	}
	return out
}

// pqItem is one entry in the Dijkstra frontier.
type pqItem struct {
	node int
	dist float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)         { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// shortestPath runs Dijkstra from origin to destination and returns the
// ordered node route. Ties between equal-weight paths break on heap pop
// order and are not deterministic.
func (g *searchGraph) shortestPath(origin, destination int) ([]int, bool) {
	if _, ok := g.nodes[origin]; !ok {
		return nil, false
	}
	if _, ok := g.nodes[destination]; !ok {
		return nil, false
	}

	dist := map[int]float64{origin: 0}
	prev := map[int]int{}
	done := map[int]bool{}

	pq := &priorityQueue{{node: origin, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if done[cur.node] {
			continue
		}
		done[cur.node] = true
		if cur.node == destination {
			break
		}
		for _, e := range g.adj[cur.node] {
			nd := cur.dist + e.weight
			if d, seen := dist[e.to]; !seen || nd < d {
				dist[e.to] = nd
				prev[e.to] = cur.node
				heap.Push(pq, pqItem{node: e.to, dist: nd})
			}
		}
	}

	if !done[destination] {
		return nil, false
	}
	route := []int{destination}
	for route[len(route)-1] != origin {
		route = append(route, prev[route[len(route)-1]])
	}
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	return route, true
}
