package roadway

import (
	"strconv"
	"strings"

	"github.com/theoremus-urban-solutions/roadway-wrangler/attr"
)

// filterValueList normalizes a filter value to a list: a selection may give
// either a single value or a list of acceptable values per column.
func filterValueList(v any) []any {
	switch vals := v.(type) {
	case []any:
		return vals
	case []string:
		out := make([]any, len(vals))
		for i, s := range vals {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(vals))
		for i, n := range vals {
			out[i] = n
		}
		return out
	default:
		return []any{v}
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// scalarMatchesFilter compares one row scalar against one filter value,
// coercing the filter value to the column kind. Text columns match by
// case-insensitive substring (searching "Main" finds "Main St"); numeric and
// bool columns match exactly.
func scalarMatchesFilter(s attr.Scalar, fv any, kind ColKind) bool {
	switch kind {
	case ColNumeric:
		rf, ok1 := s.Float()
		ff, ok2 := asFloat(fv)
		return ok1 && ok2 && rf == ff
	case ColBool:
		rb, ok := s.V.(bool)
		if !ok {
			return false
		}
		switch f := fv.(type) {
		case bool:
			return rb == f
		case string:
			return rb == (strings.EqualFold(f, "true") || f == "1")
		case int:
			return rb == (f != 0)
		}
		return false
	case ColText:
		rs, ok := s.V.(string)
		if !ok {
			rs = s.String()
		}
		fs, ok := fv.(string)
		if !ok {
			fs = attr.NewScalar(fv).String()
		}
		return strings.Contains(strings.ToLower(rs), strings.ToLower(fs))
	default:
		return s.Equal(attr.NewScalar(fv))
	}
}

// linkMatchesFields applies a column->values filter to one link: AND over
// columns, OR over each column's value list. Null row values never match.
func (n *Network) linkMatchesFields(l *Link, fields map[string]any) bool {
	for col, fv := range fields {
		v, ok := n.Links.Value(l.ModelLinkID, col)
		if !ok {
			return false
		}
		s, err := attr.Resolve(v, nil, nil)
		if err != nil {
			return false
		}
		kind, _ := n.Links.Kind(col)
		matched := false
		for _, candidate := range filterValueList(fv) {
			if scalarMatchesFilter(s, candidate, kind) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// nodeMatchesFields applies a column->values filter to one node.
func (n *Network) nodeMatchesFields(nd *Node, fields map[string]any) bool {
	for col, fv := range fields {
		v, ok := n.Nodes.Value(nd.ModelNodeID, col)
		if !ok {
			return false
		}
		s, err := attr.Resolve(v, nil, nil)
		if err != nil {
			return false
		}
		kind, _ := n.Nodes.Kind(col)
		matched := false
		for _, candidate := range filterValueList(fv) {
			if scalarMatchesFilter(s, candidate, kind) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (n *Network) filterLinkIDsToFields(ids []int, fields map[string]any) []int {
	if len(fields) == 0 {
		return ids
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if l, ok := n.Links.Get(id); ok && n.linkMatchesFields(l, fields) {
			out = append(out, id)
		}
	}
	return out
}

func (n *Network) filterNodeIDsToFields(ids []int, fields map[string]any) []int {
	if len(fields) == 0 {
		return ids
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if nd, ok := n.Nodes.Get(id); ok && n.nodeMatchesFields(nd, fields) {
			out = append(out, id)
		}
	}
	return out
}
