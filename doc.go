/*
Package roadway is the selection and edit engine for roadway networks.

A Network holds three interlinked in-memory tables: links, nodes and shapes.
Project cards describe facilities declaratively (explicit IDs, "all", or a
facility-name search between two nodes); Network.Selection resolves such a
description into a concrete set of link or node IDs, running a shortest-path
segment search when no explicit IDs are given. Property changes, additions and
deletions are then applied against the selected rows while keeping link A/B
foreign keys, ID uniqueness and link/shape geometry consistent.

# Basic Usage

	net := roadway.NewNetwork(links, nodes, shapes)

	sel, err := net.Selection(roadway.SelectionDict{
	    Links: roadway.FieldFilter("name", "Main"),
	    From:  map[string]any{"model_node_id": 10},
	    To:    map[string]any{"model_node_id": 30},
	}, nil)

	err = net.ApplyLinkPropertyChanges(sel.LinkIDs(), []roadway.PropertyChange{
	    {Property: "lanes", ChangeSpec: attr.ChangeSpec{Change: ptr(1.0)}},
	}, roadway.EditOptions{})

Selections are cached per network, keyed by a hash of the selection dictionary,
and transparently re-resolved when the network's content hash changes.

This package performs no file I/O and produces no wire format; loading and
serializing networks is left to callers. A Network is not safe for concurrent
use; callers needing isolation should operate on a Copy.
*/
package roadway
