package roadway

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/theoremus-urban-solutions/roadway-wrangler/attr"
)

// ContentHash is a SHA-256 digest over a canonical serialization of the links
// and nodes tables. Any mutation to either table changes the hash; cached
// selections compare it to detect staleness.
func (n *Network) ContentHash() string {
	h := sha256.New()
	var b strings.Builder
	for _, id := range n.Links.order {
		l := n.Links.rows[id]
		fmt.Fprintf(&b, "L|%d|%d|%d|%s|", id, l.A, l.B, l.ShapeID)
		writeCanonicalAttrs(&b, l.Attrs)
		b.WriteByte('\n')
	}
	for _, id := range n.Nodes.order {
		nd := n.Nodes.rows[id]
		fmt.Fprintf(&b, "N|%d|%g|%g|", id, nd.X, nd.Y)
		writeCanonicalAttrs(&b, nd.Attrs)
		b.WriteByte('\n')
	}
	h.Write([]byte(b.String()))
	return hex.EncodeToString(h.Sum(nil))
}

func writeCanonicalAttrs(b *strings.Builder, attrs map[string]attr.Value) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		writeCanonicalValue(b, attrs[k])
		b.WriteByte(';')
	}
}

func writeCanonicalValue(b *strings.Builder, v attr.Value) {
	switch val := v.(type) {
	case attr.Scalar:
		b.WriteString(val.String())
	case attr.Scoped:
		b.WriteByte('{')
		if val.Default != nil {
			b.WriteString(val.Default.String())
		}
		for _, e := range val.Entries {
			fmt.Fprintf(b, "|%s/%s=%s", e.Timespan, e.Category, e.Value.String())
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "%v", v)
	}
}

// selectionKey hashes the canonical form of a selection dictionary. Two
// dictionaries with the same content produce the same key regardless of map
// iteration order; value-list order is preserved because it is meaningful.
func selectionKey(d SelectionDict) string {
	var b strings.Builder
	writeCanonicalFilter(&b, "links", d.Links)
	writeCanonicalFilter(&b, "nodes", d.Nodes)
	writeCanonicalFieldMap(&b, "from", d.From)
	writeCanonicalFieldMap(&b, "to", d.To)
	b.WriteString("modes:")
	b.WriteString(strings.Join(d.Modes, ","))
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func writeCanonicalFilter(b *strings.Builder, name string, f SelectionFilter) {
	b.WriteString(name)
	b.WriteByte(':')
	if f.All {
		b.WriteString("all")
	}
	writeCanonicalFieldMap(b, "", f.Fields)
	b.WriteByte('\n')
}

func writeCanonicalFieldMap(b *strings.Builder, name string, fields map[string]any) {
	if name != "" {
		b.WriteString(name)
		b.WriteByte(':')
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s=%v;", k, fields[k])
	}
	if name != "" {
		b.WriteByte('\n')
	}
}
