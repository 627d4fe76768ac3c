package roadway

import (
	"errors"
	"testing"

	"github.com/theoremus-urban-solutions/roadway-wrangler/attr"
)

func resolvedLinkValue(t *testing.T, net *Network, id int, col string) attr.Scalar {
	t.Helper()
	v, ok := net.Links.Value(id, col)
	if !ok {
		t.Fatalf("link %d has no %q", id, col)
	}
	s, err := attr.Resolve(v, nil, nil)
	if err != nil {
		t.Fatalf("resolve link %d %q: %v", id, col, err)
	}
	return s
}

func TestApplyLinkPropertyChanges_Set(t *testing.T) {
	net := buildTestNetwork(t)
	err := net.ApplyLinkPropertyChanges([]int{1, 2}, []PropertyChange{
		{Property: "lanes", ChangeSpec: specSet(4)},
	}, EditOptions{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := resolvedLinkValue(t, net, 1, "lanes"); got.V != 4 {
		t.Errorf("lanes = %v", got.V)
	}
	if got := resolvedLinkValue(t, net, 3, "lanes"); got.V != 2 {
		t.Errorf("unselected link changed: lanes = %v", got.V)
	}
}

func TestApplyLinkPropertyChanges_SetCreatesColumn(t *testing.T) {
	net := buildTestNetwork(t)
	err := net.ApplyLinkPropertyChanges([]int{1}, []PropertyChange{
		{Property: "managed", ChangeSpec: specSet(1)},
	}, EditOptions{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !net.Links.HasColumn("managed") {
		t.Error("set should create the column")
	}
	if got := resolvedLinkValue(t, net, 1, "managed"); got.V != 1 {
		t.Errorf("managed = %v", got.V)
	}
	// Other rows have no value for the new column.
	if _, ok := net.Links.Value(2, "managed"); ok {
		t.Error("column creation should not write other rows")
	}
}

func TestApplyLinkPropertyChanges_ChangeOnMissingColumn(t *testing.T) {
	net := buildTestNetwork(t)
	err := net.ApplyLinkPropertyChanges([]int{1}, []PropertyChange{
		{Property: "price", ChangeSpec: attr.ChangeSpec{Change: floatPtr(1)}},
	}, EditOptions{})
	var pe *PropertyChangeError
	if !errors.As(err, &pe) {
		t.Errorf("expected PropertyChangeError, got %v", err)
	}
}

func TestApplyLinkPropertyChanges_ExistingMismatch(t *testing.T) {
	net := buildTestNetwork(t)

	// Lenient mode logs and applies anyway.
	err := net.ApplyLinkPropertyChanges([]int{1}, []PropertyChange{
		{Property: "lanes", ChangeSpec: specChange(7, 1)},
	}, EditOptions{})
	if err != nil {
		t.Fatalf("lenient apply: %v", err)
	}
	if got := resolvedLinkValue(t, net, 1, "lanes"); got.V != 4 {
		t.Errorf("lanes = %v, want 4", got.V)
	}

	// Strict mode fails and leaves the row untouched.
	err = net.ApplyLinkPropertyChanges([]int{2}, []PropertyChange{
		{Property: "lanes", ChangeSpec: specChange(7, 1)},
	}, EditOptions{StrictExisting: true})
	var pe *PropertyChangeError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PropertyChangeError, got %v", err)
	}
	if got := resolvedLinkValue(t, net, 2, "lanes"); got.V != 3 {
		t.Errorf("failed change wrote the row: lanes = %v", got.V)
	}
}

func TestApplyLinkPropertyChanges_TimeOfDay(t *testing.T) {
	net := buildTestNetwork(t)
	err := net.ApplyLinkPropertyChanges([]int{1}, []PropertyChange{
		{Property: "lanes", ChangeSpec: attr.ChangeSpec{
			Timespan: []attr.ScopedChange{
				{Timespan: attr.Timespan{Start: 6 * 3600, End: 9 * 3600}, Set: scalarPtr(2)},
			},
		}},
	}, EditOptions{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	v, _ := net.Links.Value(1, "lanes")
	peak := attr.Timespan{Start: 7 * 3600, End: 8 * 3600}
	s, err := attr.Resolve(v, &peak, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.V != 2 {
		t.Errorf("peak lanes = %v, want 2", s.V)
	}
	s, err = attr.Resolve(v, nil, nil)
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	if s.V != 3 {
		t.Errorf("default lanes = %v, want 3", s.V)
	}

	if k, _ := net.Links.Kind("lanes"); k != ColScoped {
		t.Errorf("lanes column kind = %s, want scoped", k)
	}
}

func TestApplyLinkPropertyChanges_ProtectedColumns(t *testing.T) {
	net := buildTestNetwork(t)
	for _, col := range []string{"model_link_id", "A", "B"} {
		err := net.ApplyLinkPropertyChanges([]int{1}, []PropertyChange{
			{Property: col, ChangeSpec: specSet(99)},
		}, EditOptions{})
		var pe *PropertyChangeError
		if !errors.As(err, &pe) {
			t.Errorf("editing %q: expected PropertyChangeError, got %v", col, err)
		}
	}
}

func TestApplyLinkPropertyChanges_UnknownLink(t *testing.T) {
	net := buildTestNetwork(t)
	err := net.ApplyLinkPropertyChanges([]int{999}, []PropertyChange{
		{Property: "lanes", ChangeSpec: specSet(1)},
	}, EditOptions{})
	var pe *PropertyChangeError
	if !errors.As(err, &pe) {
		t.Errorf("expected PropertyChangeError, got %v", err)
	}
}

func TestApplyNodePropertyChanges_Attribute(t *testing.T) {
	net := buildTestNetwork(t)
	err := net.ApplyNodePropertyChanges([]int{10, 20}, []PropertyChange{
		{Property: "county", ChangeSpec: specSet("King")},
	}, EditOptions{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	v, ok := net.Nodes.Value(10, "county")
	if !ok {
		t.Fatal("county not written")
	}
	if s, _ := attr.Resolve(v, nil, nil); s.V != "King" {
		t.Errorf("county = %v", s.V)
	}
}

func TestApplyNodePropertyChanges_MoveUpdatesGeometry(t *testing.T) {
	net := buildTestNetwork(t)
	err := net.ApplyNodePropertyChanges([]int{20}, []PropertyChange{
		{Property: "X", ChangeSpec: specSet(1.5)},
		{Property: "Y", ChangeSpec: attr.ChangeSpec{Change: floatPtr(0.25)}},
	}, EditOptions{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	nd, _ := net.Nodes.Get(20)
	if nd.X != 1.5 || nd.Y != 0.25 {
		t.Fatalf("node at (%g, %g), want (1.5, 0.25)", nd.X, nd.Y)
	}

	// Node 20 is B of link 1 and A of links 2 and 4.
	want := Point{X: 1.5, Y: 0.25}
	l1, _ := net.Links.Get(1)
	if l1.Geometry[1] != want {
		t.Errorf("link 1 B endpoint = %+v", l1.Geometry[1])
	}
	if l1.Geometry[0] != (Point{X: 0, Y: 0}) {
		t.Errorf("link 1 A endpoint moved: %+v", l1.Geometry[0])
	}
	l2, _ := net.Links.Get(2)
	if l2.Geometry[0] != want {
		t.Errorf("link 2 A endpoint = %+v", l2.Geometry[0])
	}

	// Link 1's shape has its last point realigned; the middle vertex stays.
	sh, _ := net.Shapes.Get("sh1")
	if sh.Points[len(sh.Points)-1] != want {
		t.Errorf("shape last point = %+v", sh.Points[len(sh.Points)-1])
	}
	if sh.Points[1] != (Point{X: 0.5, Y: 0.1}) {
		t.Errorf("shape middle vertex moved: %+v", sh.Points[1])
	}
}

func TestApplyNodePropertyChanges_CoordinateRejectsTimeOfDay(t *testing.T) {
	net := buildTestNetwork(t)
	err := net.ApplyNodePropertyChanges([]int{10}, []PropertyChange{
		{Property: "X", ChangeSpec: attr.ChangeSpec{
			Timespan: []attr.ScopedChange{
				{Timespan: attr.Timespan{Start: 0, End: 3600}, Set: scalarPtr(1)},
			},
		}},
	}, EditOptions{})
	var pe *PropertyChangeError
	if !errors.As(err, &pe) {
		t.Errorf("expected PropertyChangeError, got %v", err)
	}
}
