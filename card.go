package roadway

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RoadwayPropertyChange selects links or nodes and applies property changes
// to them.
type RoadwayPropertyChange struct {
	Selection       SelectionDict    `yaml:"selection"`
	PropertyChanges []PropertyChange `yaml:"property_changes"`
}

// RoadwayDeletion deletes the links or nodes a filter selects.
type RoadwayDeletion struct {
	Links       SelectionFilter `yaml:"links,omitempty"`
	Nodes       SelectionFilter `yaml:"nodes,omitempty"`
	CleanShapes bool            `yaml:"clean_shapes,omitempty"`
	// CleanNodes defaults to true; set false to keep orphaned nodes.
	CleanNodes *bool `yaml:"clean_nodes,omitempty"`
}

// RoadwayAddition adds new nodes and links.
type RoadwayAddition struct {
	Nodes []NewNode `yaml:"nodes,omitempty"`
	Links []NewLink `yaml:"links,omitempty"`
}

// CardChange is one entry of a change card. Exactly one of the fields is set.
type CardChange struct {
	RoadwayPropertyChange *RoadwayPropertyChange `yaml:"roadway_property_change,omitempty"`
	RoadwayDeletion       *RoadwayDeletion       `yaml:"roadway_deletion,omitempty"`
	RoadwayAddition       *RoadwayAddition       `yaml:"roadway_addition,omitempty"`
}

// ChangeCard is a declarative list of network edits, applied in order.
type ChangeCard struct {
	Project string       `yaml:"project"`
	Changes []CardChange `yaml:"changes"`
}

// ParseChangeCard decodes a YAML change card and checks that every entry
// carries exactly one change type.
func ParseChangeCard(data []byte) (ChangeCard, error) {
	var card ChangeCard
	if err := yaml.Unmarshal(data, &card); err != nil {
		return ChangeCard{}, fmt.Errorf("decoding change card: %w", err)
	}
	for i, c := range card.Changes {
		count := 0
		if c.RoadwayPropertyChange != nil {
			count++
		}
		if c.RoadwayDeletion != nil {
			count++
		}
		if c.RoadwayAddition != nil {
			count++
		}
		if count != 1 {
			return ChangeCard{}, fmt.Errorf(
				"change %d must have exactly one of roadway_property_change, roadway_deletion, roadway_addition", i)
		}
	}
	return card, nil
}

// ApplyCard runs every change of a card against the network, in order. The
// first failing change stops the card; earlier changes stay applied.
func (n *Network) ApplyCard(card ChangeCard) error {
	for i, c := range card.Changes {
		var err error
		switch {
		case c.RoadwayPropertyChange != nil:
			err = n.applyPropertyChangeEntry(*c.RoadwayPropertyChange)
		case c.RoadwayDeletion != nil:
			err = n.applyDeletionEntry(*c.RoadwayDeletion)
		case c.RoadwayAddition != nil:
			err = n.Add(c.RoadwayAddition.Nodes, c.RoadwayAddition.Links)
		default:
			err = fmt.Errorf("empty change entry")
		}
		if err != nil {
			return fmt.Errorf("change %d of card %q: %w", i, card.Project, err)
		}
	}
	return nil
}

func (n *Network) applyPropertyChangeEntry(pc RoadwayPropertyChange) error {
	sel, err := n.Selection(pc.Selection, nil)
	if err != nil {
		return err
	}
	switch sel.Type {
	case SelectionExplicitNodeID, SelectionAllNodes:
		return n.ApplyNodePropertyChanges(sel.NodeIDs(), pc.PropertyChanges, EditOptions{})
	default:
		return n.ApplyLinkPropertyChanges(sel.LinkIDs(), pc.PropertyChanges, EditOptions{})
	}
}

func (n *Network) applyDeletionEntry(d RoadwayDeletion) error {
	if !d.Links.IsZero() {
		cleanNodes := true
		if d.CleanNodes != nil {
			cleanNodes = *d.CleanNodes
		}
		err := n.DeleteLinksBySelection(SelectionDict{Links: d.Links}, &DeleteLinkOptions{
			IgnoreMissing: true,
			CleanNodes:    cleanNodes,
			CleanShapes:   d.CleanShapes,
		})
		if err != nil {
			return err
		}
	}
	if !d.Nodes.IsZero() {
		if err := n.DeleteNodesBySelection(SelectionDict{Nodes: d.Nodes}, nil); err != nil {
			return err
		}
	}
	return nil
}
