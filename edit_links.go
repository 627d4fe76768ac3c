package roadway

import (
	"fmt"

	"github.com/theoremus-urban-solutions/roadway-wrangler/attr"
)

// PropertyChange pairs a target column with a change specification.
type PropertyChange struct {
	Property        string `yaml:"property"`
	attr.ChangeSpec `yaml:",inline"`
}

// EditOptions tune how property changes are applied.
type EditOptions struct {
	// StrictExisting fails the edit when a row's current value does not match
	// the change's declared existing value. Off, mismatches are logged.
	StrictExisting bool
}

// linkProtectedCols are the link columns property changes may not touch:
// the primary key and the node foreign keys.
var linkProtectedCols = map[string]bool{"model_link_id": true, "A": true, "B": true}

// ApplyLinkPropertyChanges applies each property change to every selected
// link, in order. Each change is validated against the whole selection before
// any row is written, so a failing change leaves the table untouched.
func (n *Network) ApplyLinkPropertyChanges(linkIDs []int, changes []PropertyChange, opts EditOptions) error {
	strict := opts.StrictExisting || n.cfg.Edits.ExistingValueConflictError

	for _, id := range linkIDs {
		if _, ok := n.Links.Get(id); !ok {
			return &PropertyChangeError{Msg: fmt.Sprintf("link %d not in network", id)}
		}
	}

	for _, pc := range changes {
		if linkProtectedCols[pc.Property] {
			return &PropertyChangeError{
				Msg: fmt.Sprintf("property %q cannot be changed; delete and re-add the link instead", pc.Property),
			}
		}
		newValues, err := n.stageLinkChange(linkIDs, pc, strict)
		if err != nil {
			return err
		}
		for id, v := range newValues {
			l, _ := n.Links.Get(id)
			l.Attrs[pc.Property] = v
		}
		n.reconcileLinkColumnKind(pc.Property, newValues)
		n.log.Info("applied link property change",
			"property", pc.Property, "links", len(linkIDs))
	}
	return nil
}

// stageLinkChange computes the new value for every row without writing any.
func (n *Network) stageLinkChange(linkIDs []int, pc PropertyChange, strict bool) (map[int]attr.Value, error) {
	if !pc.HasOperation() {
		return nil, &PropertyChangeError{
			Msg: fmt.Sprintf("property %q change has no set, change, timeofday or group", pc.Property),
		}
	}
	hasColumn := n.Links.HasColumn(pc.Property)
	if !hasColumn && pc.Change != nil && pc.Set == nil && pc.Existing == nil {
		return nil, &PropertyChangeError{
			Msg: fmt.Sprintf("cannot apply change to property %q: not in network", pc.Property),
		}
	}

	out := make(map[int]attr.Value, len(linkIDs))
	for _, id := range linkIDs {
		existing, present := n.Links.Value(id, pc.Property)
		if !present {
			existing = nil
		}
		if pc.Existing != nil && present {
			if err := n.checkExisting(fmt.Sprintf("link %d", id), pc.Property, existing, *pc.Existing, strict); err != nil {
				return nil, err
			}
		}
		v, err := attr.ApplyChange(existing, pc.ChangeSpec)
		if err != nil {
			return nil, &PropertyChangeError{
				Msg: fmt.Sprintf("link %d property %q: %v", id, pc.Property, err),
			}
		}
		out[id] = v
	}
	return out, nil
}

// checkExisting compares a row's current value to the change's declared
// existing value. Scoped values compare by default.
func (n *Network) checkExisting(row, property string, current attr.Value, want attr.Scalar, strict bool) error {
	cur, err := attr.Resolve(current, nil, nil)
	if err != nil {
		cur = attr.Scalar{}
	}
	if cur.Equal(want) {
		return nil
	}
	if strict {
		return &PropertyChangeError{
			Msg: fmt.Sprintf("%s property %q is %s, expected %s", row, property, cur, want),
		}
	}
	n.log.Warn("existing value mismatch",
		"row", row, "property", property, "current", cur.String(), "expected", want.String())
	return nil
}

// reconcileLinkColumnKind registers or widens the column kind after a change.
// A scoped result on a numeric column narrows to scoped; any other kind
// conflict widens the column to untyped.
func (n *Network) reconcileLinkColumnKind(property string, values map[int]attr.Value) {
	var sample attr.Value
	for _, v := range values {
		sample = v
		break
	}
	if sample == nil {
		return
	}
	newKind := inferKind(sample)
	declared, ok := n.Links.Kind(property)
	switch {
	case !ok:
		n.Links.EnsureColumn(property, newKind)
	case declared == newKind:
	case newKind == ColScoped && (declared == ColNumeric || declared == ColText):
		n.Links.setKind(property, ColScoped)
	default:
		n.Links.setKind(property, ColUntyped)
	}
}
