package roadway

import (
	"fmt"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"gopkg.in/yaml.v3"

	"github.com/theoremus-urban-solutions/roadway-wrangler/config"
)

// SelectionType classifies what a selection dictionary asks for.
type SelectionType string

const (
	// SelectionExplicitLinkID selects links by enumerated link IDs.
	SelectionExplicitLinkID SelectionType = "explicit_link_id"
	// SelectionExplicitNodeID selects nodes by enumerated node IDs.
	SelectionExplicitNodeID SelectionType = "explicit_node_id"
	// SelectionSegmentSearch selects the links of a shortest path along a
	// named facility between two nodes.
	SelectionSegmentSearch SelectionType = "segment_search"
	// SelectionAllLinks selects every link, optionally filtered.
	SelectionAllLinks SelectionType = "all_links"
	// SelectionAllNodes selects every node, optionally filtered.
	SelectionAllNodes SelectionType = "all_nodes"
)

// linkExplicitIDColumns are checked in order when classifying a link
// selection as explicit. nodeExplicitIDColumns likewise for nodes.
var (
	linkExplicitIDColumns = []string{"model_link_id", "osm_link_id"}
	nodeExplicitIDColumns = []string{"model_node_id", "osm_node_id"}
)

// SelectionFilter is the links: or nodes: part of a selection dictionary.
// In YAML it is either the literal string "all" or a mapping of column names
// to a value or list of acceptable values. "all" may also carry fields by
// writing the mapping with an `all: true` entry.
type SelectionFilter struct {
	All    bool
	Fields map[string]any
}

// FieldFilter builds a filter on a single column. With one value the column
// must match it; with several, any of them.
func FieldFilter(column string, values ...any) SelectionFilter {
	if len(values) == 1 {
		return SelectionFilter{Fields: map[string]any{column: values[0]}}
	}
	return SelectionFilter{Fields: map[string]any{column: values}}
}

// IsZero reports whether the filter selects nothing at all.
func (f SelectionFilter) IsZero() bool { return !f.All && len(f.Fields) == 0 }

// UnmarshalYAML accepts either the scalar "all" or a field mapping.
func (f *SelectionFilter) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if !strings.EqualFold(s, "all") {
			return fmt.Errorf("selection filter scalar must be \"all\", got %q", s)
		}
		f.All = true
		return nil
	case yaml.MappingNode:
		fields := map[string]any{}
		if err := value.Decode(&fields); err != nil {
			return err
		}
		if all, ok := fields["all"]; ok {
			if b, isBool := all.(bool); isBool {
				f.All = b
				delete(fields, "all")
			}
		}
		f.Fields = fields
		return nil
	default:
		return fmt.Errorf("selection filter must be \"all\" or a mapping")
	}
}

// MarshalYAML renders a bare "all" filter back as the scalar form.
func (f SelectionFilter) MarshalYAML() (any, error) {
	if f.All && len(f.Fields) == 0 {
		return "all", nil
	}
	out := map[string]any{}
	for k, v := range f.Fields {
		out[k] = v
	}
	if f.All {
		out["all"] = true
	}
	return out, nil
}

// SelectionDict is the declarative description of a set of links or nodes,
// as written in a project card.
type SelectionDict struct {
	Links SelectionFilter `yaml:"links,omitempty"`
	Nodes SelectionFilter `yaml:"nodes,omitempty"`
	From  map[string]any  `yaml:"from,omitempty"`
	To    map[string]any  `yaml:"to,omitempty"`
	Modes []string        `yaml:"modes,omitempty"`
}

// SelectionOptions tune how a dictionary is resolved. A nil options pointer
// means the defaults: missing explicit IDs are logged and skipped, and a
// cached resolution is reused when the network is unchanged.
type SelectionOptions struct {
	// IgnoreMissing controls whether explicit IDs absent from the network
	// fail the selection or are skipped with a warning.
	IgnoreMissing bool
	// Overwrite forces re-resolution even when a fresh cached result exists.
	Overwrite bool
}

func defaultSelectionOptions() SelectionOptions {
	return SelectionOptions{IgnoreMissing: true}
}

// Selection is a resolved selection: the concrete IDs a dictionary matched
// against a particular network state.
type Selection struct {
	Type SelectionType

	key     string
	netHash string

	linkIDs []int
	nodeIDs []int
	segment *Segment
}

// LinkIDs returns the selected link IDs. Empty for node selections.
func (s *Selection) LinkIDs() []int { return append([]int(nil), s.linkIDs...) }

// NodeIDs returns the selected node IDs. Empty for link selections.
func (s *Selection) NodeIDs() []int { return append([]int(nil), s.nodeIDs...) }

// Segment returns the path found by a segment search, nil otherwise.
func (s *Selection) Segment() *Segment { return s.segment }

// Key returns the cache key derived from the selection dictionary.
func (s *Selection) Key() string { return s.key }

// classifySelection applies the format rules in order:
//  1. links and nodes together is malformed
//  2. neither links nor nodes is malformed
//  3. a node filter is explicit IDs, or "all" with optional extra fields
//  4. a link filter naming an explicit ID column selects those links
//  5. a link "all" filter selects every link, optionally filtered
//  6. a link field filter with from and to is a segment search
func classifySelection(d SelectionDict) (SelectionType, error) {
	hasLinks := !d.Links.IsZero()
	hasNodes := !d.Nodes.IsZero()
	switch {
	case hasLinks && hasNodes:
		return "", &SelectionFormatError{Msg: "selection cannot specify both links and nodes"}
	case !hasLinks && !hasNodes:
		return "", &SelectionFormatError{Msg: "selection must specify links or nodes"}
	}

	if hasNodes {
		for _, col := range nodeExplicitIDColumns {
			if _, ok := d.Nodes.Fields[col]; ok {
				return SelectionExplicitNodeID, nil
			}
		}
		if d.Nodes.All {
			return SelectionAllNodes, nil
		}
		return "", &SelectionFormatError{
			Msg: fmt.Sprintf("node selection needs \"all\" or one of %v", nodeExplicitIDColumns),
		}
	}

	for _, col := range linkExplicitIDColumns {
		if _, ok := d.Links.Fields[col]; ok {
			return SelectionExplicitLinkID, nil
		}
	}
	if d.Links.All {
		return SelectionAllLinks, nil
	}
	if len(d.From) > 0 && len(d.To) > 0 {
		return SelectionSegmentSearch, nil
	}
	return "", &SelectionFormatError{
		Msg: "link selection needs explicit IDs, \"all\", or a field filter with from and to",
	}
}

// Selection resolves a selection dictionary against the current network
// state. Results are cached per dictionary; a cached result is returned only
// while the network content is unchanged.
func (n *Network) Selection(d SelectionDict, opts *SelectionOptions) (*Selection, error) {
	o := defaultSelectionOptions()
	if opts != nil {
		o = *opts
	}

	key := selectionKey(d)
	hash := n.ContentHash()
	if cached, ok := n.selections[key]; ok && !o.Overwrite {
		if cached.netHash == hash {
			n.log.Debug("selection cache hit", "key", key[:12], "type", cached.Type)
			return cached, nil
		}
		delete(n.selections, key)
	}

	sel, err := n.resolveSelection(d, o)
	if err != nil {
		return nil, err
	}
	sel.key = key
	sel.netHash = hash
	n.selections[key] = sel
	n.log.Info("selection resolved",
		"type", sel.Type, "links", len(sel.linkIDs), "nodes", len(sel.nodeIDs))
	return sel, nil
}

func (n *Network) resolveSelection(d SelectionDict, o SelectionOptions) (*Selection, error) {
	st, err := classifySelection(d)
	if err != nil {
		return nil, err
	}

	switch st {
	case SelectionExplicitLinkID:
		return n.resolveExplicitLinks(d, o)
	case SelectionExplicitNodeID:
		return n.resolveExplicitNodes(d, o)
	case SelectionAllLinks:
		return n.resolveAllLinks(d)
	case SelectionAllNodes:
		return n.resolveAllNodes(d)
	case SelectionSegmentSearch:
		return n.resolveSegment(d)
	}
	return nil, &SelectionFormatError{Msg: fmt.Sprintf("unknown selection type %q", st)}
}

// linkSelectionModes defaults an absent modes list for link selections.
// Selecting links of every mode requires an explicit ModeAny.
func linkSelectionModes(modes []string) []string {
	if len(modes) == 0 {
		return config.DefaultSearchModes
	}
	return modes
}

func (n *Network) resolveExplicitLinks(d SelectionDict, o SelectionOptions) (*Selection, error) {
	extra := map[string]any{}
	explicit := map[string]any{}
	for col, v := range d.Links.Fields {
		if containsString(linkExplicitIDColumns, col) {
			explicit[col] = v
		} else {
			extra[col] = v
		}
	}
	if err := n.validateFilterColumns(n.Links.Columns(), extra, "link"); err != nil {
		return nil, err
	}

	idSet := map[int]bool{}
	for col, v := range explicit {
		for _, candidate := range filterValueList(v) {
			var found []int
			if col == "model_link_id" {
				// Non-integer candidates never match an integer primary key.
				if f, ok := asFloat(candidate); ok && f == float64(int(f)) {
					if _, exists := n.Links.Get(int(f)); exists {
						found = []int{int(f)}
					}
				}
			} else {
				found = n.filterLinkIDsToFields(n.Links.IDs(), map[string]any{col: candidate})
			}
			if len(found) == 0 {
				if !o.IgnoreMissing {
					return nil, &SelectionError{
						Msg: fmt.Sprintf("link with %s=%v not found", col, candidate),
					}
				}
				n.log.Warn("requested link not in network", "column", col, "value", candidate)
				continue
			}
			for _, id := range found {
				idSet[id] = true
			}
		}
	}

	ids := make([]int, 0, len(idSet))
	for _, id := range n.Links.order {
		if idSet[id] {
			ids = append(ids, id)
		}
	}
	ids = n.filterLinksToModes(ids, linkSelectionModes(d.Modes))
	ids = n.filterLinkIDsToFields(ids, extra)
	if len(ids) == 0 {
		return nil, &SelectionError{Msg: "selection matched no links"}
	}
	return &Selection{Type: SelectionExplicitLinkID, linkIDs: ids}, nil
}

func (n *Network) resolveExplicitNodes(d SelectionDict, o SelectionOptions) (*Selection, error) {
	extra := map[string]any{}
	explicit := map[string]any{}
	for col, v := range d.Nodes.Fields {
		if containsString(nodeExplicitIDColumns, col) {
			explicit[col] = v
		} else {
			extra[col] = v
		}
	}
	if err := n.validateFilterColumns(n.Nodes.Columns(), extra, "node"); err != nil {
		return nil, err
	}

	idSet := map[int]bool{}
	for col, v := range explicit {
		for _, candidate := range filterValueList(v) {
			var found []int
			if col == "model_node_id" {
				if f, ok := asFloat(candidate); ok && f == float64(int(f)) {
					if _, exists := n.Nodes.Get(int(f)); exists {
						found = []int{int(f)}
					}
				}
			} else {
				found = n.filterNodeIDsToFields(n.Nodes.IDs(), map[string]any{col: candidate})
			}
			if len(found) == 0 {
				if !o.IgnoreMissing {
					return nil, &SelectionError{
						Msg: fmt.Sprintf("node with %s=%v not found", col, candidate),
					}
				}
				n.log.Warn("requested node not in network", "column", col, "value", candidate)
				continue
			}
			for _, id := range found {
				idSet[id] = true
			}
		}
	}

	ids := make([]int, 0, len(idSet))
	for _, id := range n.Nodes.order {
		if idSet[id] {
			ids = append(ids, id)
		}
	}
	ids = n.filterNodeIDsToFields(ids, extra)
	if len(ids) == 0 {
		return nil, &SelectionError{Msg: "selection matched no nodes"}
	}
	return &Selection{Type: SelectionExplicitNodeID, nodeIDs: ids}, nil
}

func (n *Network) resolveAllLinks(d SelectionDict) (*Selection, error) {
	if err := n.validateFilterColumns(n.Links.Columns(), d.Links.Fields, "link"); err != nil {
		return nil, err
	}
	ids := n.filterLinksToModes(n.Links.IDs(), linkSelectionModes(d.Modes))
	ids = n.filterLinkIDsToFields(ids, d.Links.Fields)
	if len(ids) == 0 {
		return nil, &SelectionError{Msg: "selection matched no links"}
	}
	return &Selection{Type: SelectionAllLinks, linkIDs: ids}, nil
}

func (n *Network) resolveAllNodes(d SelectionDict) (*Selection, error) {
	if err := n.validateFilterColumns(n.Nodes.Columns(), d.Nodes.Fields, "node"); err != nil {
		return nil, err
	}
	ids := n.filterNodeIDsToFields(n.Nodes.IDs(), d.Nodes.Fields)
	if len(ids) == 0 {
		return nil, &SelectionError{Msg: "selection matched no nodes"}
	}
	return &Selection{Type: SelectionAllNodes, nodeIDs: ids}, nil
}

func (n *Network) resolveSegment(d SelectionDict) (*Selection, error) {
	if err := n.validateFilterColumns(n.Links.Columns(), d.Links.Fields, "link"); err != nil {
		return nil, err
	}
	seg, err := n.findSegment(d, linkSelectionModes(d.Modes))
	if err != nil {
		return nil, err
	}

	extra := map[string]any{}
	for col, v := range d.Links.Fields {
		if !facilityFilterKeys[col] {
			extra[col] = v
		}
	}
	ids := n.filterLinkIDsToFields(seg.LinkIDs(), extra)
	if len(ids) == 0 {
		return nil, &SelectionError{Msg: "segment search matched no links after filtering"}
	}
	return &Selection{Type: SelectionSegmentSearch, linkIDs: ids, segment: seg}, nil
}

// validateFilterColumns rejects filters on columns the table does not have,
// suggesting the closest existing column name.
func (n *Network) validateFilterColumns(columns []string, fields map[string]any, kind string) error {
	known := map[string]bool{}
	for _, c := range columns {
		known[c] = true
	}
	var missing []string
	for col := range fields {
		if !known[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)

	parts := make([]string, 0, len(missing))
	for _, col := range missing {
		if near := nearestColumn(col, columns); near != "" {
			parts = append(parts, fmt.Sprintf("%q (did you mean %q?)", col, near))
		} else {
			parts = append(parts, fmt.Sprintf("%q", col))
		}
	}
	return &SelectionError{
		Msg:            fmt.Sprintf("%s selection references unknown columns: %s", kind, strings.Join(parts, ", ")),
		MissingColumns: missing,
	}
}

// nearestColumn returns the known column closest to name, or "" when nothing
// is within an edit distance of 3.
func nearestColumn(name string, columns []string) string {
	best, bestDist := "", 4
	for _, c := range columns {
		d := levenshtein.DistanceForStrings([]rune(strings.ToLower(name)), []rune(strings.ToLower(c)), levenshtein.DefaultOptions)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
