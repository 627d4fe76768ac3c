package roadway

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestClassifySelection(t *testing.T) {
	cases := []struct {
		name    string
		dict    SelectionDict
		want    SelectionType
		wantErr bool
	}{
		{
			name: "explicit link ids",
			dict: SelectionDict{Links: FieldFilter("model_link_id", 1, 2)},
			want: SelectionExplicitLinkID,
		},
		{
			name: "osm link ids are explicit too",
			dict: SelectionDict{Links: FieldFilter("osm_link_id", 123)},
			want: SelectionExplicitLinkID,
		},
		{
			name: "explicit node ids",
			dict: SelectionDict{Nodes: FieldFilter("model_node_id", 10)},
			want: SelectionExplicitNodeID,
		},
		{
			name: "all links",
			dict: SelectionDict{Links: SelectionFilter{All: true}},
			want: SelectionAllLinks,
		},
		{
			name: "all nodes",
			dict: SelectionDict{Nodes: SelectionFilter{All: true}},
			want: SelectionAllNodes,
		},
		{
			name: "segment search",
			dict: SelectionDict{
				Links: FieldFilter("name", "Main"),
				From:  map[string]any{"model_node_id": 10},
				To:    map[string]any{"model_node_id": 30},
			},
			want: SelectionSegmentSearch,
		},
		{
			name:    "links and nodes together",
			dict:    SelectionDict{Links: SelectionFilter{All: true}, Nodes: SelectionFilter{All: true}},
			wantErr: true,
		},
		{
			name:    "empty",
			dict:    SelectionDict{},
			wantErr: true,
		},
		{
			name:    "field filter without endpoints",
			dict:    SelectionDict{Links: FieldFilter("name", "Main")},
			wantErr: true,
		},
		{
			name:    "node fields without ids or all",
			dict:    SelectionDict{Nodes: FieldFilter("county", "King")},
			wantErr: true,
		},
	}
	for _, c := range cases {
		got, err := classifySelection(c.dict)
		if c.wantErr {
			var fe *SelectionFormatError
			if !errors.As(err, &fe) {
				t.Errorf("%s: expected SelectionFormatError, got %v", c.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", c.name, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

func TestSelection_ExplicitLinkIDs(t *testing.T) {
	net := buildTestNetwork(t)
	sel, err := net.Selection(SelectionDict{Links: FieldFilter("model_link_id", 1, 3)}, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if sel.Type != SelectionExplicitLinkID {
		t.Errorf("type = %s", sel.Type)
	}
	if !equalIntSlices(sel.LinkIDs(), []int{1, 3}) {
		t.Errorf("links = %v, want [1 3]", sel.LinkIDs())
	}
}

func TestSelection_MissingExplicitIDs(t *testing.T) {
	net := buildTestNetwork(t)

	// Default: missing IDs are skipped.
	sel, err := net.Selection(SelectionDict{Links: FieldFilter("model_link_id", 1, 999)}, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if !equalIntSlices(sel.LinkIDs(), []int{1}) {
		t.Errorf("links = %v, want [1]", sel.LinkIDs())
	}

	// Strict: missing IDs fail.
	_, err = net.Selection(
		SelectionDict{Links: FieldFilter("model_link_id", 1, 999)},
		&SelectionOptions{IgnoreMissing: false})
	var se *SelectionError
	if !errors.As(err, &se) {
		t.Errorf("expected SelectionError, got %v", err)
	}
}

func TestSelection_AllLinksFiltered(t *testing.T) {
	net := buildTestNetwork(t)

	sel, err := net.Selection(SelectionDict{Links: SelectionFilter{All: true}}, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if len(sel.LinkIDs()) != 5 {
		t.Errorf("all links = %v", sel.LinkIDs())
	}

	// Text filters match by case-insensitive substring.
	sel, err = net.Selection(SelectionDict{
		Links: SelectionFilter{All: true, Fields: map[string]any{"name": "main"}},
	}, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if !equalIntSlices(sel.LinkIDs(), []int{1, 2}) {
		t.Errorf("Main St links = %v, want [1 2]", sel.LinkIDs())
	}
}

func TestSelection_AllNodes(t *testing.T) {
	net := buildTestNetwork(t)
	sel, err := net.Selection(SelectionDict{Nodes: SelectionFilter{All: true}}, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if len(sel.NodeIDs()) != 6 {
		t.Errorf("all nodes = %v", sel.NodeIDs())
	}
}

// mixedModeNetwork has a walk-only link next to a drive link, so mode
// filtering is observable on selections that name no modes.
func mixedModeNetwork(t *testing.T) *Network {
	t.Helper()
	nodes := NewNodesTable()
	for i, id := range []int{1, 2, 3} {
		if err := nodes.Append(&Node{ModelNodeID: id, X: float64(i), Y: 0}); err != nil {
			t.Fatalf("append node %d: %v", id, err)
		}
	}
	links := NewLinksTable()
	defs := []*Link{
		{ModelLinkID: 1, A: 1, B: 2, Attrs: scalarAttrsOf("name", "Path", "walk_access", 1)},
		{ModelLinkID: 2, A: 2, B: 3, Attrs: scalarAttrsOf("name", "Road", "drive_access", 1)},
	}
	for _, l := range defs {
		if err := links.Append(l); err != nil {
			t.Fatalf("append link %d: %v", l.ModelLinkID, err)
		}
	}
	return NewNetwork(links, nodes, nil, WithLogger(quietLogger()))
}

func TestSelection_DefaultModeIsDrive(t *testing.T) {
	net := mixedModeNetwork(t)

	// Explicit IDs with no modes key still filter to drive.
	sel, err := net.Selection(SelectionDict{Links: FieldFilter("model_link_id", 1, 2)}, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if !equalIntSlices(sel.LinkIDs(), []int{2}) {
		t.Errorf("explicit ids = %v, want drive-only [2]", sel.LinkIDs())
	}

	// So does "all".
	sel, err = net.Selection(SelectionDict{Links: SelectionFilter{All: true}}, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if !equalIntSlices(sel.LinkIDs(), []int{2}) {
		t.Errorf("all links = %v, want drive-only [2]", sel.LinkIDs())
	}

	// ModeAny opts out of the default.
	sel, err = net.Selection(SelectionDict{
		Links: SelectionFilter{All: true},
		Modes: []string{ModeAny},
	}, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if !equalIntSlices(sel.LinkIDs(), []int{1, 2}) {
		t.Errorf("any-mode links = %v, want [1 2]", sel.LinkIDs())
	}

	// An explicit mode overrides rather than adds.
	sel, err = net.Selection(SelectionDict{
		Links: SelectionFilter{All: true},
		Modes: []string{"walk"},
	}, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if !equalIntSlices(sel.LinkIDs(), []int{1}) {
		t.Errorf("walk links = %v, want [1]", sel.LinkIDs())
	}
}

func TestSelection_FractionalExplicitIDNeverMatches(t *testing.T) {
	net := buildTestNetwork(t)

	// 1.9 must not truncate onto link 1; the other candidate still resolves.
	sel, err := net.Selection(SelectionDict{Links: FieldFilter("model_link_id", 1.9, 2)}, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if !equalIntSlices(sel.LinkIDs(), []int{2}) {
		t.Errorf("links = %v, want [2]", sel.LinkIDs())
	}

	_, err = net.Selection(
		SelectionDict{Links: FieldFilter("model_link_id", 1.9)},
		&SelectionOptions{IgnoreMissing: false})
	var se *SelectionError
	if !errors.As(err, &se) {
		t.Errorf("expected SelectionError, got %v", err)
	}
}

func TestSelection_UnknownColumnSuggestsNearest(t *testing.T) {
	net := buildTestNetwork(t)
	_, err := net.Selection(SelectionDict{
		Links: SelectionFilter{All: true, Fields: map[string]any{"lanez": 3}},
	}, nil)
	var se *SelectionError
	if !errors.As(err, &se) {
		t.Fatalf("expected SelectionError, got %v", err)
	}
	if len(se.MissingColumns) != 1 || se.MissingColumns[0] != "lanez" {
		t.Errorf("missing columns = %v", se.MissingColumns)
	}
	if !strings.Contains(err.Error(), "lanes") {
		t.Errorf("error should suggest \"lanes\": %s", err)
	}
	if strings.Count(err.Error(), "lanez") != 1 {
		t.Errorf("missing column should appear once in the message: %s", err)
	}
}

func TestSelection_ZeroRowsFails(t *testing.T) {
	net := buildTestNetwork(t)
	_, err := net.Selection(SelectionDict{
		Links: SelectionFilter{All: true, Fields: map[string]any{"name": "Nonesuch"}},
	}, nil)
	var se *SelectionError
	if !errors.As(err, &se) {
		t.Errorf("expected SelectionError, got %v", err)
	}
}

func TestSelection_CacheIdempotence(t *testing.T) {
	net := buildTestNetwork(t)
	dict := SelectionDict{Links: FieldFilter("model_link_id", 1, 2)}

	first, err := net.Selection(dict, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	second, err := net.Selection(dict, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if first != second {
		t.Error("unchanged network should return the cached selection")
	}

	// A mutation invalidates the cached result.
	if err := net.ApplyLinkPropertyChanges([]int{1}, []PropertyChange{
		{Property: "lanes", ChangeSpec: specSet(4)},
	}, EditOptions{}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	third, err := net.Selection(dict, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if third == first {
		t.Error("mutated network should re-resolve the selection")
	}

	// Overwrite forces re-resolution even without a mutation.
	fourth, err := net.Selection(dict, &SelectionOptions{IgnoreMissing: true, Overwrite: true})
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if fourth == third {
		t.Error("Overwrite should bypass the cache")
	}
}

func TestSelection_ModeFilter(t *testing.T) {
	net := buildTestNetwork(t)
	sel, err := net.Selection(SelectionDict{
		Links: SelectionFilter{All: true},
		Modes: []string{"bike"},
	}, nil)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if !equalIntSlices(sel.LinkIDs(), []int{4}) {
		t.Errorf("bike links = %v, want [4]", sel.LinkIDs())
	}
}

func TestSelectionFilter_YAML(t *testing.T) {
	var f SelectionFilter
	if err := yaml.Unmarshal([]byte(`all`), &f); err != nil {
		t.Fatalf("unmarshal all: %v", err)
	}
	if !f.All || len(f.Fields) != 0 {
		t.Errorf("got %+v", f)
	}

	f = SelectionFilter{}
	if err := yaml.Unmarshal([]byte(`{name: [Main, Broadway], lanes: 3}`), &f); err != nil {
		t.Fatalf("unmarshal mapping: %v", err)
	}
	if f.All || len(f.Fields) != 2 {
		t.Errorf("got %+v", f)
	}

	if err := yaml.Unmarshal([]byte(`everything`), &f); err == nil {
		t.Error("expected error for unknown scalar")
	}
}
