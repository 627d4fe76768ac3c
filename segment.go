package roadway

import (
	"fmt"
)

// facilityFilterKeys are the selection keys that define the initial segment
// subnet. Every other link-filter key is an additional attribute filter
// applied after the path is found.
var facilityFilterKeys = map[string]bool{"name": true, "ref": true}

// Segment is the connected path of links discovered between two nodes when a
// selection names a facility instead of explicit link IDs. It is scratch
// state owned by the selection that created it.
type Segment struct {
	FromNodeID int
	ToNodeID   int

	subnet     *Subnet
	routeNodes []int
	linkIDs    []int
}

// RouteNodes returns the ordered node IDs along the found path.
func (s *Segment) RouteNodes() []int { return append([]int(nil), s.routeNodes...) }

// LinkIDs returns the links induced by the found path, in path order.
func (s *Segment) LinkIDs() []int { return append([]int(nil), s.linkIDs...) }

// Iterations returns how many breadth expansions the search needed.
func (s *Segment) Iterations() int { return s.subnet.i }

// facilityFilterOptions generates fallback variants of the facility filter:
// as-is, then searching ref values in the name field, then name values in
// the ref field. The first variant that selects any links wins.
func facilityFilterOptions(fields map[string]any) []map[string]any {
	options := []map[string]any{fields}

	if ref, ok := fields["ref"]; ok {
		if name, ok2 := fields["name"]; ok2 {
			merged := map[string]any{}
			for k, v := range fields {
				merged[k] = v
			}
			merged["name"] = append(filterValueList(name), filterValueList(ref)...)
			delete(merged, "ref")
			options = append(options, merged)
		}
	}
	if name, ok := fields["name"]; ok {
		swapped := map[string]any{}
		for k, v := range fields {
			swapped[k] = v
		}
		swapped["ref"] = name
		delete(swapped, "name")
		options = append(options, swapped)
	}
	return options
}

// resolveEndpointNode finds the single node matching an endpoint identifier
// mapping (e.g. {"model_node_id": 10}). Zero or multiple matches fail.
func (n *Network) resolveEndpointNode(fields map[string]any) (int, error) {
	if len(fields) == 0 {
		return 0, &SegmentSelectionError{Msg: "segment endpoint selection is empty"}
	}
	matches := n.filterNodeIDsToFields(n.Nodes.IDs(), fields)
	if len(matches) != 1 {
		return 0, &SegmentSelectionError{
			Msg: fmt.Sprintf("segment endpoint selection %v is not unique: found %d nodes", fields, len(matches)),
		}
	}
	return matches[0], nil
}

// findSegment resolves a segment-search selection: it grows a subnet from
// the facility filter until origin and destination are reachable, then runs
// a shortest path preferring links that matched the initial filter, retrying
// with one more breadth expansion per failed attempt up to the configured
// maximum.
func (n *Network) findSegment(dict SelectionDict, modes []string) (*Segment, error) {
	from, err := n.resolveEndpointNode(dict.From)
	if err != nil {
		return nil, err
	}
	to, err := n.resolveEndpointNode(dict.To)
	if err != nil {
		return nil, err
	}

	facility := map[string]any{}
	for k, v := range dict.Links.Fields {
		if facilityFilterKeys[k] {
			facility[k] = v
		}
	}
	if len(facility) == 0 {
		return nil, &SegmentSelectionError{
			FromNodeID: from, ToNodeID: to,
			Msg: "segment selection has no facility filter (name or ref)",
		}
	}

	modal := n.filterLinksToModes(n.Links.IDs(), modes)
	var initial []int
	for _, option := range facilityFilterOptions(facility) {
		initial = n.filterLinkIDsToFields(modal, option)
		if len(initial) > 0 {
			break
		}
	}
	if len(initial) == 0 {
		return nil, &SegmentSelectionError{
			FromNodeID: from, ToNodeID: to,
			Msg: fmt.Sprintf("no links found matching facility filter %v", facility),
		}
	}

	maxBreadth := n.cfg.Search.MaxBreadth
	seg := &Segment{FromNodeID: from, ToNodeID: to, subnet: newSubnet(n, initial, modes)}

	// Grow until both endpoints are at least incident to the subnet.
	if err := seg.subnet.expandToNodes([]int{from, to}, maxBreadth); err != nil {
		return nil, &SegmentSelectionError{FromNodeID: from, ToNodeID: to, Msg: err.Error()}
	}

	found := seg.attemptPath()
	for !found && seg.subnet.i <= maxBreadth {
		seg.subnet.expandBreadth()
		found = seg.attemptPath()
	}
	if !found {
		return nil, &SegmentSelectionError{
			FromNodeID: from, ToNodeID: to,
			Msg: "no connected path found",
		}
	}

	seg.linkIDs = n.linksAlongRoute(seg.routeNodes, modes)
	n.log.Debug("segment found",
		"from", from, "to", to,
		"route_nodes", len(seg.routeNodes), "links", len(seg.linkIDs),
		"iterations", seg.subnet.i)
	return seg, nil
}

func (s *Segment) attemptPath() bool {
	g, err := s.subnet.graph()
	if err != nil {
		return false
	}
	route, ok := g.shortestPath(s.FromNodeID, s.ToNodeID)
	if !ok {
		return false
	}
	s.routeNodes = route
	return true
}

// linksAlongRoute selects the modal links whose A/B endpoints are
// consecutive on the route, in path order.
func (n *Network) linksAlongRoute(route []int, modes []string) []int {
	modal := map[int]bool{}
	for _, id := range n.filterLinksToModes(n.Links.IDs(), modes) {
		modal[id] = true
	}
	var out []int
	for i := 0; i+1 < len(route); i++ {
		u, v := route[i], route[i+1]
		for _, id := range n.Links.order {
			l := n.Links.rows[id]
			if modal[id] && l.A == u && l.B == v {
				out = append(out, id)
			}
		}
	}
	return out
}
