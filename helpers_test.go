package roadway

import (
	"io"
	"log/slog"
	"testing"

	"github.com/theoremus-urban-solutions/roadway-wrangler/attr"
)

func scalarAttrsOf(pairs ...any) map[string]attr.Value {
	out := map[string]attr.Value{}
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i].(string)] = attr.NewScalar(pairs[i+1])
	}
	return out
}

// buildTestNetwork is a small network: a two-link "Main St" corridor from
// node 10 to node 30, side streets, and a disconnected island.
//
//	10 --1-- 20 --2-- 30 --3-- 40        60 --5-- 70
//	           \_______4_______/
func buildTestNetwork(t *testing.T) *Network {
	t.Helper()

	nodes := NewNodesTable()
	coords := map[int][2]float64{
		10: {0, 0}, 20: {1, 0}, 30: {2, 0}, 40: {3, 0},
		60: {10, 10}, 70: {11, 10},
	}
	for _, id := range []int{10, 20, 30, 40, 60, 70} {
		c := coords[id]
		if err := nodes.Append(&Node{ModelNodeID: id, X: c[0], Y: c[1], Attrs: map[string]attr.Value{}}); err != nil {
			t.Fatalf("append node %d: %v", id, err)
		}
	}

	shapes := NewShapesTable()
	if err := shapes.Append(&Shape{
		ShapeID: "sh1",
		Points:  []Point{{0, 0}, {0.5, 0.1}, {1, 0}},
	}); err != nil {
		t.Fatalf("append shape: %v", err)
	}

	type linkDef struct {
		id, a, b int
		shape    string
		attrs    map[string]attr.Value
	}
	defs := []linkDef{
		{1, 10, 20, "sh1", scalarAttrsOf("name", "Main St", "lanes", 3, "drive_access", 1)},
		{2, 20, 30, "", scalarAttrsOf("name", "Main St", "lanes", 3, "drive_access", 1)},
		{3, 30, 40, "", scalarAttrsOf("name", "Elm Ave", "lanes", 2, "drive_access", 1)},
		{4, 20, 40, "", scalarAttrsOf("name", "Oak Blvd", "lanes", 1, "drive_access", 1, "bike_access", 1)},
		{5, 60, 70, "", scalarAttrsOf("name", "Island Rd", "lanes", 1, "drive_access", 1)},
	}
	links := NewLinksTable()
	for _, d := range defs {
		a, _ := nodes.Get(d.a)
		b, _ := nodes.Get(d.b)
		if err := links.Append(&Link{
			ModelLinkID: d.id,
			A:           d.a,
			B:           d.b,
			ShapeID:     d.shape,
			Geometry:    [2]Point{a.Geometry(), b.Geometry()},
			Attrs:       d.attrs,
		}); err != nil {
			t.Fatalf("append link %d: %v", d.id, err)
		}
	}

	return NewNetwork(links, nodes, shapes, WithLogger(quietLogger()))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scalarPtr(v any) *attr.Scalar {
	s := attr.NewScalar(v)
	return &s
}

func floatPtr(f float64) *float64 { return &f }

func specSet(v any) attr.ChangeSpec {
	return attr.ChangeSpec{Set: scalarPtr(v)}
}

func specChange(existing any, delta float64) attr.ChangeSpec {
	spec := attr.ChangeSpec{Change: floatPtr(delta)}
	if existing != nil {
		spec.Existing = scalarPtr(existing)
	}
	return spec
}

func equalIntSlices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
