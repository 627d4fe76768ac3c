package roadway

import (
	"fmt"
	"strings"
)

// SelectionFormatError is raised when a selection dictionary does not match
// any known selection shape.
type SelectionFormatError struct{ Msg string }

func (e *SelectionFormatError) Error() string { return e.Msg }

// SelectionError is raised when a selection references columns that are not
// in the target table, requests IDs that are missing under strict mode, or
// resolves to zero rows.
type SelectionError struct {
	Msg            string
	MissingColumns []string
}

func (e *SelectionError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("selection references unknown columns: %s", strings.Join(e.MissingColumns, ", "))
}

// SegmentSelectionError is raised when no connected path between the origin
// and destination is found within the breadth cap, or when the segment
// endpoints cannot be identified.
type SegmentSelectionError struct {
	FromNodeID int
	ToNodeID   int
	Msg        string
}

func (e *SegmentSelectionError) Error() string {
	if e.FromNodeID != 0 || e.ToNodeID != 0 {
		return fmt.Sprintf("%s (from node %d to node %d)", e.Msg, e.FromNodeID, e.ToNodeID)
	}
	return e.Msg
}

// GraphBuildError is raised when a links/nodes pair cannot be converted to a
// search graph, e.g. a link endpoint references a node that does not exist.
type GraphBuildError struct{ Msg string }

func (e *GraphBuildError) Error() string { return e.Msg }

// LinkAdditionError / NodeAdditionError describe invalid add payloads:
// duplicate primary keys, duplicate A-B pairs or dangling foreign keys.
type LinkAdditionError struct{ Msg string }

func (e *LinkAdditionError) Error() string { return e.Msg }

type NodeAdditionError struct{ Msg string }

func (e *NodeAdditionError) Error() string { return e.Msg }

// LinkDeletionError / NodeDeletionError describe invalid delete requests.
// Deleting a node that still has incident links is always an error.
type LinkDeletionError struct{ Msg string }

func (e *LinkDeletionError) Error() string { return e.Msg }

type NodeDeletionError struct{ Msg string }

func (e *NodeDeletionError) Error() string { return e.Msg }

// PropertyChangeError describes an invalid property-change spec, e.g. a
// change delta against a property that does not exist in the base network.
type PropertyChangeError struct{ Msg string }

func (e *PropertyChangeError) Error() string { return e.Msg }
