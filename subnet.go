package roadway

import (
	"fmt"

	"github.com/theoremus-urban-solutions/roadway-wrangler/attr"
)

// Subnet is a growing selection of links on which a segment search runs.
// Links are copied out of the network with an iteration tag in the weight
// column: initial facility matches carry 0, links added on the k-th breadth
// expansion carry k, so detours through non-matching links cost more in the
// shortest-path search.
type Subnet struct {
	net   *Network
	modes []string
	links *LinksTable
	i     int
}

// newSubnet copies the given links into a fresh subnet with iteration tag 0.
func newSubnet(net *Network, linkIDs []int, modes []string) *Subnet {
	s := &Subnet{net: net, modes: modes, links: NewLinksTable()}
	s.links.EnsureColumn(net.cfg.Search.WeightColumn, ColNumeric)
	for _, id := range linkIDs {
		s.addLink(id, 0)
	}
	return s
}

func (s *Subnet) addLink(id int, iteration int) {
	l, ok := s.net.Links.Get(id)
	if !ok {
		return
	}
	c := l.clone()
	c.Attrs[s.net.cfg.Search.WeightColumn] = attr.NewScalar(iteration)
	_ = s.links.Append(c)
}

// NumLinks returns the number of links currently in the subnet.
func (s *Subnet) NumLinks() int { return s.links.Len() }

// Iterations returns how many breadth expansions have run.
func (s *Subnet) Iterations() int { return s.i }

func (s *Subnet) nodeSet() map[int]bool {
	set := map[int]bool{}
	for _, id := range s.links.order {
		l := s.links.rows[id]
		set[l.A] = true
		set[l.B] = true
	}
	return set
}

func (s *Subnet) containsNodes(ids ...int) bool {
	set := s.nodeSet()
	for _, id := range ids {
		if !set[id] {
			return false
		}
	}
	return true
}

// expandBreadth adds one degree of breadth: every modal link with exactly one
// endpoint touching the subnet, plus links whose endpoints are both touching
// but which are not yet members. All qualifying links are added in one round,
// no intra-round ordering is imposed.
func (s *Subnet) expandBreadth() {
	s.i++
	nodes := s.nodeSet()

	modal := s.net.filterLinksToModes(s.net.Links.IDs(), s.modes)
	added := 0
	for _, id := range modal {
		if _, in := s.links.Get(id); in {
			continue
		}
		l, _ := s.net.Links.Get(id)
		aIn, bIn := nodes[l.A], nodes[l.B]
		if aIn || bIn {
			s.addLink(id, s.i)
			added++
		}
	}
	s.net.log.Debug("expanded subnet breadth",
		"iteration", s.i, "added", added, "links", s.links.Len())
}

// expandToNodes grows the subnet until all the given nodes are incident to
// it, up to maxBreadth expansions.
func (s *Subnet) expandToNodes(nodeIDs []int, maxBreadth int) error {
	for !s.containsNodes(nodeIDs...) && s.i <= maxBreadth {
		s.expandBreadth()
	}
	if !s.containsNodes(nodeIDs...) {
		return fmt.Errorf("cannot reach nodes %v within %d subnet expansions", nodeIDs, maxBreadth)
	}
	return nil
}

// graph builds the weighted search graph over the current subnet membership.
func (s *Subnet) graph() (*searchGraph, error) {
	return buildSearchGraph(s.links, s.links.IDs(), s.net.Nodes, GraphOptions{
		WeightColumn: s.net.cfg.Search.WeightColumn,
		WeightFactor: s.net.cfg.Search.WeightFactor,
	})
}
