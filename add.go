package roadway

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/theoremus-urban-solutions/roadway-wrangler/attr"
)

var validate = validator.New()

// NewNode is the payload for adding one node. Attribute columns beyond the
// intrinsic fields inline into Attrs.
type NewNode struct {
	ModelNodeID int            `yaml:"model_node_id" validate:"required,gt=0"`
	X           float64        `yaml:"X"`
	Y           float64        `yaml:"Y"`
	Attrs       map[string]any `yaml:",inline"`
}

// NewLink is the payload for adding one link. A and B must reference existing
// nodes (or nodes added in the same batch via Add).
type NewLink struct {
	ModelLinkID int            `yaml:"model_link_id" validate:"required,gt=0"`
	A           int            `yaml:"A" validate:"required,gt=0"`
	B           int            `yaml:"B" validate:"required,gt=0,nefield=A"`
	ShapeID     string         `yaml:"shape_id"`
	Attrs       map[string]any `yaml:",inline"`
}

func toAttrValues(in map[string]any) map[string]attr.Value {
	out := make(map[string]attr.Value, len(in))
	for k, v := range in {
		out[k] = attr.NewScalar(v)
	}
	return out
}

// AddNodes validates and appends a batch of nodes. The whole batch is checked
// before any row is written.
func (n *Network) AddNodes(nodes []NewNode) error {
	seen := map[int]bool{}
	for _, nn := range nodes {
		if err := validate.Struct(nn); err != nil {
			return &NodeAdditionError{Msg: fmt.Sprintf("invalid node payload: %v", err)}
		}
		if seen[nn.ModelNodeID] {
			return &NodeAdditionError{Msg: fmt.Sprintf("duplicate model_node_id %d in batch", nn.ModelNodeID)}
		}
		if _, exists := n.Nodes.Get(nn.ModelNodeID); exists {
			return &NodeAdditionError{Msg: fmt.Sprintf("model_node_id %d already in network", nn.ModelNodeID)}
		}
		seen[nn.ModelNodeID] = true
	}

	for _, nn := range nodes {
		_ = n.Nodes.Append(&Node{
			ModelNodeID: nn.ModelNodeID,
			X:           nn.X,
			Y:           nn.Y,
			Attrs:       toAttrValues(nn.Attrs),
		})
	}
	n.log.Info("added nodes", "count", len(nodes))
	return nil
}

// AddLinks validates and appends a batch of links. Primary keys and directed
// A-B pairs must be unique against both the batch and the network, endpoints
// must exist, and a referenced shape must exist. Link geometry derives from
// the endpoint node positions.
func (n *Network) AddLinks(links []NewLink) error {
	seenID := map[int]bool{}
	seenPair := map[[2]int]bool{}
	existingPairs := map[[2]int]bool{}
	for _, id := range n.Links.order {
		l := n.Links.rows[id]
		existingPairs[[2]int{l.A, l.B}] = true
	}

	for _, nl := range links {
		if err := validate.Struct(nl); err != nil {
			return &LinkAdditionError{Msg: fmt.Sprintf("invalid link payload: %v", err)}
		}
		if seenID[nl.ModelLinkID] {
			return &LinkAdditionError{Msg: fmt.Sprintf("duplicate model_link_id %d in batch", nl.ModelLinkID)}
		}
		if _, exists := n.Links.Get(nl.ModelLinkID); exists {
			return &LinkAdditionError{Msg: fmt.Sprintf("model_link_id %d already in network", nl.ModelLinkID)}
		}
		pair := [2]int{nl.A, nl.B}
		if seenPair[pair] || existingPairs[pair] {
			return &LinkAdditionError{Msg: fmt.Sprintf("link from node %d to node %d already exists", nl.A, nl.B)}
		}
		if _, ok := n.Nodes.Get(nl.A); !ok {
			return &LinkAdditionError{Msg: fmt.Sprintf("link %d references missing A node %d", nl.ModelLinkID, nl.A)}
		}
		if _, ok := n.Nodes.Get(nl.B); !ok {
			return &LinkAdditionError{Msg: fmt.Sprintf("link %d references missing B node %d", nl.ModelLinkID, nl.B)}
		}
		if nl.ShapeID != "" {
			if _, ok := n.Shapes.Get(nl.ShapeID); !ok {
				return &LinkAdditionError{Msg: fmt.Sprintf("link %d references missing shape %q", nl.ModelLinkID, nl.ShapeID)}
			}
		}
		seenID[nl.ModelLinkID] = true
		seenPair[pair] = true
	}

	for _, nl := range links {
		a, _ := n.Nodes.Get(nl.A)
		b, _ := n.Nodes.Get(nl.B)
		_ = n.Links.Append(&Link{
			ModelLinkID: nl.ModelLinkID,
			A:           nl.A,
			B:           nl.B,
			ShapeID:     nl.ShapeID,
			Geometry:    [2]Point{a.Geometry(), b.Geometry()},
			Attrs:       toAttrValues(nl.Attrs),
		})
	}
	n.log.Info("added links", "count", len(links))
	return nil
}

// Add appends nodes then links in one call, so new links may land on nodes
// from the same payload.
func (n *Network) Add(nodes []NewNode, links []NewLink) error {
	if err := n.AddNodes(nodes); err != nil {
		return err
	}
	return n.AddLinks(links)
}
