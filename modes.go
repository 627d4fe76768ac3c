package roadway

import (
	"github.com/theoremus-urban-solutions/roadway-wrangler/attr"
)

// ModeAny disables mode filtering: every link passes.
const ModeAny = "any"

// linkAllowsMode reports whether a link serves a travel mode. A link serves a
// mode when any of the mode's access columns is truthy; a mode with no
// configured columns matches nothing.
func (n *Network) linkAllowsMode(l *Link, mode string) bool {
	cols, ok := n.cfg.Modes[mode]
	if !ok {
		return false
	}
	for _, col := range cols {
		v, present := l.Attrs[col]
		if !present {
			continue
		}
		if truthy(v) {
			return true
		}
	}
	return false
}

func truthy(v attr.Value) bool {
	s, err := attr.Resolve(v, nil, nil)
	if err != nil {
		return false
	}
	switch val := s.V.(type) {
	case bool:
		return val
	case int:
		return val != 0
	case float64:
		return val != 0
	case string:
		return val == "1" || val == "true" || val == "True"
	}
	return false
}

// filterLinksToModes restricts a set of link IDs to those serving at least
// one of the requested modes. ModeAny (or an empty list) passes everything.
func (n *Network) filterLinksToModes(ids []int, modes []string) []int {
	if len(modes) == 0 {
		return ids
	}
	for _, m := range modes {
		if m == ModeAny {
			return ids
		}
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		l, ok := n.Links.Get(id)
		if !ok {
			continue
		}
		for _, m := range modes {
			if n.linkAllowsMode(l, m) {
				out = append(out, id)
				break
			}
		}
	}
	return out
}
