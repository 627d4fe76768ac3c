package roadway

import (
	"fmt"
)

// DeleteLinkOptions tune link deletion. A nil options pointer means the
// defaults: missing IDs are skipped with a warning, nodes orphaned by the
// deletion are removed, and shapes are kept.
type DeleteLinkOptions struct {
	// IgnoreMissing skips requested IDs that are not in the network instead
	// of failing.
	IgnoreMissing bool
	// CleanNodes removes nodes left with no incident links.
	CleanNodes bool
	// CleanShapes removes shapes no remaining link references.
	CleanShapes bool
}

func defaultDeleteLinkOptions() DeleteLinkOptions {
	return DeleteLinkOptions{IgnoreMissing: true, CleanNodes: true}
}

// DeleteNodeOptions tune node deletion.
type DeleteNodeOptions struct {
	// IgnoreMissing skips requested IDs that are not in the network instead
	// of failing.
	IgnoreMissing bool
}

// DeleteLinks removes the given links. Nodes and shapes cascade per the
// options; a node is orphaned only when no link outside the deleted set
// still touches it.
func (n *Network) DeleteLinks(linkIDs []int, opts *DeleteLinkOptions) error {
	o := defaultDeleteLinkOptions()
	if opts != nil {
		o = *opts
	}

	doomed := map[int]bool{}
	for _, id := range linkIDs {
		if _, ok := n.Links.Get(id); !ok {
			if !o.IgnoreMissing {
				return &LinkDeletionError{Msg: fmt.Sprintf("link %d not in network", id)}
			}
			n.log.Warn("requested link not in network", "model_link_id", id)
			continue
		}
		doomed[id] = true
	}

	touchedNodes := map[int]bool{}
	touchedShapes := map[string]bool{}
	for id := range doomed {
		l, _ := n.Links.Get(id)
		touchedNodes[l.A] = true
		touchedNodes[l.B] = true
		if l.ShapeID != "" {
			touchedShapes[l.ShapeID] = true
		}
	}

	for id := range doomed {
		n.Links.remove(id)
	}

	orphanedNodes := 0
	if o.CleanNodes {
		for nodeID := range touchedNodes {
			if len(n.LinksIncidentToNode(nodeID)) == 0 {
				n.Nodes.remove(nodeID)
				orphanedNodes++
			}
		}
	}

	orphanedShapes := 0
	if o.CleanShapes {
		stillUsed := map[string]bool{}
		for _, id := range n.Links.order {
			if sid := n.Links.rows[id].ShapeID; sid != "" {
				stillUsed[sid] = true
			}
		}
		for shapeID := range touchedShapes {
			if !stillUsed[shapeID] {
				n.Shapes.remove(shapeID)
				orphanedShapes++
			}
		}
	}

	n.log.Info("deleted links",
		"links", len(doomed), "orphaned_nodes", orphanedNodes, "orphaned_shapes", orphanedShapes)
	return nil
}

// DeleteNodes removes the given nodes. A node that still has incident links
// always fails the whole call; links never cascade from node deletion.
func (n *Network) DeleteNodes(nodeIDs []int, opts *DeleteNodeOptions) error {
	o := DeleteNodeOptions{IgnoreMissing: true}
	if opts != nil {
		o = *opts
	}

	doomed := map[int]bool{}
	for _, id := range nodeIDs {
		if _, ok := n.Nodes.Get(id); !ok {
			if !o.IgnoreMissing {
				return &NodeDeletionError{Msg: fmt.Sprintf("node %d not in network", id)}
			}
			n.log.Warn("requested node not in network", "model_node_id", id)
			continue
		}
		if incident := n.LinksIncidentToNode(id); len(incident) > 0 {
			return &NodeDeletionError{
				Msg: fmt.Sprintf("node %d still has %d incident links", id, len(incident)),
			}
		}
		doomed[id] = true
	}

	for id := range doomed {
		n.Nodes.remove(id)
	}
	n.log.Info("deleted nodes", "nodes", len(doomed))
	return nil
}

// DeleteLinksBySelection resolves a link selection and deletes its links.
func (n *Network) DeleteLinksBySelection(d SelectionDict, opts *DeleteLinkOptions) error {
	sel, err := n.Selection(d, nil)
	if err != nil {
		return err
	}
	return n.DeleteLinks(sel.LinkIDs(), opts)
}

// DeleteNodesBySelection resolves a node selection and deletes its nodes.
func (n *Network) DeleteNodesBySelection(d SelectionDict, opts *DeleteNodeOptions) error {
	sel, err := n.Selection(d, nil)
	if err != nil {
		return err
	}
	return n.DeleteNodes(sel.NodeIDs(), opts)
}
