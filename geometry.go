package roadway

// propagateNodeGeometry rewrites derived geometry after a node moved: every
// incident link gets its matching endpoint coordinate updated, and each such
// link's shape gets its first or last point moved to match. Intermediate
// shape vertices are left where they are.
func (n *Network) propagateNodeGeometry(nodeID int) {
	nd, ok := n.Nodes.Get(nodeID)
	if !ok {
		return
	}
	p := nd.Geometry()

	for _, linkID := range n.LinksIncidentToNode(nodeID) {
		l, _ := n.Links.Get(linkID)
		if l.A == nodeID {
			l.Geometry[0] = p
			if s, ok := n.Shapes.Get(l.ShapeID); ok && len(s.Points) > 0 {
				s.Points[0] = p
			}
		}
		if l.B == nodeID {
			l.Geometry[1] = p
			if s, ok := n.Shapes.Get(l.ShapeID); ok && len(s.Points) > 0 {
				s.Points[len(s.Points)-1] = p
			}
		}
	}
}
