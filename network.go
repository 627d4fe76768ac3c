package roadway

import (
	"fmt"
	"log/slog"

	"github.com/theoremus-urban-solutions/roadway-wrangler/config"
)

// Network is a mutable roadway network: links, nodes and shapes plus the
// per-network selection cache. Not safe for concurrent use.
type Network struct {
	Links  *LinksTable
	Nodes  *NodesTable
	Shapes *ShapesTable

	cfg config.Config
	log *slog.Logger

	selections map[string]*Selection
}

// Option configures a Network.
type Option func(*Network)

// WithLogger injects the logger used for selection and edit diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(n *Network) { n.log = l }
}

// WithConfig overrides the default search/edit tunables.
func WithConfig(c config.Config) Option {
	return func(n *Network) { n.cfg = c }
}

// NewNetwork assembles a network from its three tables. Nil tables are
// replaced with empty ones.
func NewNetwork(links *LinksTable, nodes *NodesTable, shapes *ShapesTable, opts ...Option) *Network {
	if links == nil {
		links = NewLinksTable()
	}
	if nodes == nil {
		nodes = NewNodesTable()
	}
	if shapes == nil {
		shapes = NewShapesTable()
	}
	n := &Network{
		Links:      links,
		Nodes:      nodes,
		Shapes:     shapes,
		cfg:        config.Default(),
		log:        defaultLogger(),
		selections: map[string]*Selection{},
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Config returns the network's tunables.
func (n *Network) Config() config.Config { return n.cfg }

// Copy returns a deep structural copy of all three tables. The selection
// cache is not carried over.
func (n *Network) Copy() *Network {
	return &Network{
		Links:      n.Links.Copy(),
		Nodes:      n.Nodes.Copy(),
		Shapes:     n.Shapes.Copy(),
		cfg:        n.cfg,
		log:        n.log,
		selections: map[string]*Selection{},
	}
}

// LinksIncidentToNode returns the IDs of links with the node as A or B.
func (n *Network) LinksIncidentToNode(nodeID int) []int {
	var out []int
	for _, id := range n.Links.order {
		l := n.Links.rows[id]
		if l.A == nodeID || l.B == nodeID {
			out = append(out, id)
		}
	}
	return out
}

// Validate checks the referential-integrity invariants: every link A/B exists
// in the nodes table and every link shape_id exists in the shapes table.
func (n *Network) Validate() error {
	for _, id := range n.Links.order {
		l := n.Links.rows[id]
		if _, ok := n.Nodes.Get(l.A); !ok {
			return fmt.Errorf("link %d references missing A node %d", id, l.A)
		}
		if _, ok := n.Nodes.Get(l.B); !ok {
			return fmt.Errorf("link %d references missing B node %d", id, l.B)
		}
		if l.ShapeID != "" {
			if _, ok := n.Shapes.Get(l.ShapeID); !ok {
				return fmt.Errorf("link %d references missing shape %q", id, l.ShapeID)
			}
		}
	}
	return nil
}
