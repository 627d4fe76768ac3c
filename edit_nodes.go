package roadway

import (
	"fmt"

	"github.com/theoremus-urban-solutions/roadway-wrangler/attr"
)

// ApplyNodePropertyChanges applies each property change to every selected
// node, in order. Changing X or Y moves the node and rewrites the geometry of
// its incident links and their shapes.
func (n *Network) ApplyNodePropertyChanges(nodeIDs []int, changes []PropertyChange, opts EditOptions) error {
	strict := opts.StrictExisting || n.cfg.Edits.ExistingValueConflictError

	for _, id := range nodeIDs {
		if _, ok := n.Nodes.Get(id); !ok {
			return &PropertyChangeError{Msg: fmt.Sprintf("node %d not in network", id)}
		}
	}

	for _, pc := range changes {
		if pc.Property == "model_node_id" {
			return &PropertyChangeError{
				Msg: "property \"model_node_id\" cannot be changed; delete and re-add the node instead",
			}
		}
		if pc.Property == "X" || pc.Property == "Y" {
			if err := n.applyNodeCoordinateChange(nodeIDs, pc, strict); err != nil {
				return err
			}
			n.log.Info("applied node property change",
				"property", pc.Property, "nodes", len(nodeIDs))
			continue
		}

		newValues, err := n.stageNodeChange(nodeIDs, pc, strict)
		if err != nil {
			return err
		}
		for id, v := range newValues {
			nd, _ := n.Nodes.Get(id)
			nd.Attrs[pc.Property] = v
		}
		n.reconcileNodeColumnKind(pc.Property, newValues)
		n.log.Info("applied node property change",
			"property", pc.Property, "nodes", len(nodeIDs))
	}
	return nil
}

func (n *Network) stageNodeChange(nodeIDs []int, pc PropertyChange, strict bool) (map[int]attr.Value, error) {
	if !pc.HasOperation() {
		return nil, &PropertyChangeError{
			Msg: fmt.Sprintf("property %q change has no set, change, timeofday or group", pc.Property),
		}
	}
	if !n.Nodes.HasColumn(pc.Property) && pc.Change != nil && pc.Set == nil && pc.Existing == nil {
		return nil, &PropertyChangeError{
			Msg: fmt.Sprintf("cannot apply change to property %q: not in network", pc.Property),
		}
	}

	out := make(map[int]attr.Value, len(nodeIDs))
	for _, id := range nodeIDs {
		existing, present := n.Nodes.Value(id, pc.Property)
		if !present {
			existing = nil
		}
		if pc.Existing != nil && present {
			if err := n.checkExisting(fmt.Sprintf("node %d", id), pc.Property, existing, *pc.Existing, strict); err != nil {
				return nil, err
			}
		}
		v, err := attr.ApplyChange(existing, pc.ChangeSpec)
		if err != nil {
			return nil, &PropertyChangeError{
				Msg: fmt.Sprintf("node %d property %q: %v", id, pc.Property, err),
			}
		}
		out[id] = v
	}
	return out, nil
}

// applyNodeCoordinateChange handles X/Y edits. Coordinates are plain numbers,
// scoped specs make no sense here.
func (n *Network) applyNodeCoordinateChange(nodeIDs []int, pc PropertyChange, strict bool) error {
	if len(pc.Timespan) > 0 || len(pc.Group) > 0 {
		return &PropertyChangeError{
			Msg: fmt.Sprintf("property %q cannot carry time-of-day values", pc.Property),
		}
	}
	for _, id := range nodeIDs {
		nd, _ := n.Nodes.Get(id)
		cur := nd.X
		if pc.Property == "Y" {
			cur = nd.Y
		}
		if pc.Existing != nil {
			if err := n.checkExisting(fmt.Sprintf("node %d", id), pc.Property,
				attr.NewScalar(cur), *pc.Existing, strict); err != nil {
				return err
			}
		}

		var next float64
		switch {
		case pc.Set != nil:
			f, ok := pc.Set.Float()
			if !ok {
				return &PropertyChangeError{
					Msg: fmt.Sprintf("property %q must be set to a number, got %s", pc.Property, pc.Set),
				}
			}
			next = f
		case pc.Change != nil:
			next = cur + *pc.Change
		default:
			return &PropertyChangeError{
				Msg: fmt.Sprintf("property %q change has no set or change", pc.Property),
			}
		}

		if pc.Property == "X" {
			nd.X = next
		} else {
			nd.Y = next
		}
		n.propagateNodeGeometry(id)
	}
	return nil
}

func (n *Network) reconcileNodeColumnKind(property string, values map[int]attr.Value) {
	var sample attr.Value
	for _, v := range values {
		sample = v
		break
	}
	if sample == nil {
		return
	}
	newKind := inferKind(sample)
	declared, ok := n.Nodes.Kind(property)
	switch {
	case !ok:
		n.Nodes.EnsureColumn(property, newKind)
	case declared == newKind:
	case newKind == ColScoped && (declared == ColNumeric || declared == ColText):
		n.Nodes.setKind(property, ColScoped)
	default:
		n.Nodes.setKind(property, ColUntyped)
	}
}
