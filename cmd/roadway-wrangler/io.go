package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	roadway "github.com/theoremus-urban-solutions/roadway-wrangler"
	"github.com/theoremus-urban-solutions/roadway-wrangler/attr"
)

// The network file format is three row arrays. Intrinsic fields are fixed
// keys, everything else on a row is an attribute column. Scoped attribute
// values round-trip through the "default"/"timeofday" object form.
type networkFile struct {
	Links  []map[string]any `json:"links"`
	Nodes  []map[string]any `json:"nodes"`
	Shapes []shapeRow       `json:"shapes,omitempty"`
}

type shapeRow struct {
	ShapeID string       `json:"shape_id"`
	Points  [][2]float64 `json:"points"`
}

type scopedEntryRow struct {
	Timespan []string `json:"timespan"`
	Category string   `json:"category,omitempty"`
	Value    any      `json:"value"`
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	case int:
		return n, true
	}
	return 0, false
}

// decodeAttr turns a JSON value into an attribute value. Objects with a
// "timeofday" key become scoped values; integral numbers become ints.
func decodeAttr(v any) (attr.Value, error) {
	switch val := v.(type) {
	case map[string]any:
		return decodeScoped(val)
	case float64:
		if i, ok := asInt(val); ok {
			return attr.NewScalar(i), nil
		}
		return attr.NewScalar(val), nil
	default:
		return attr.NewScalar(v), nil
	}
}

func decodeScoped(obj map[string]any) (attr.Value, error) {
	raw, ok := obj["timeofday"]
	if !ok {
		return nil, fmt.Errorf("attribute object needs a timeofday list, got keys %v", keysOf(obj))
	}
	out := attr.Scoped{}
	if d, ok := obj["default"]; ok {
		dv, err := decodeAttr(d)
		if err != nil {
			return nil, err
		}
		s, ok := dv.(attr.Scalar)
		if !ok {
			return nil, fmt.Errorf("scoped default must be a scalar")
		}
		out.Default = &s
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("timeofday must be a list")
	}
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		var row scopedEntryRow
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, fmt.Errorf("decoding timeofday entry: %w", err)
		}
		if len(row.Timespan) != 2 {
			return nil, fmt.Errorf("timeofday entry needs a [start, end] timespan")
		}
		ts, err := attr.ParseTimespan(row.Timespan[0], row.Timespan[1])
		if err != nil {
			return nil, err
		}
		vv, err := decodeAttr(row.Value)
		if err != nil {
			return nil, err
		}
		sv, ok := vv.(attr.Scalar)
		if !ok {
			return nil, fmt.Errorf("timeofday entry value must be a scalar")
		}
		out.Entries = append(out.Entries, attr.ScopedEntry{
			Timespan: ts,
			Category: row.Category,
			Value:    sv,
		})
	}
	return out, nil
}

func encodeAttr(v attr.Value) any {
	switch val := v.(type) {
	case attr.Scalar:
		return val.V
	case attr.Scoped:
		obj := map[string]any{}
		if val.Default != nil {
			obj["default"] = val.Default.V
		}
		entries := make([]any, 0, len(val.Entries))
		for _, e := range val.Entries {
			ts, _ := e.Timespan.MarshalYAML()
			row := map[string]any{"timespan": ts, "value": e.Value.V}
			if e.Category != "" {
				row["category"] = e.Category
			}
			entries = append(entries, row)
		}
		obj["timeofday"] = entries
		return obj
	default:
		return fmt.Sprint(v)
	}
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func rowInt(row map[string]any, key string) (int, error) {
	v, ok := row[key]
	if !ok {
		return 0, fmt.Errorf("row is missing %q", key)
	}
	i, ok := asInt(v)
	if !ok {
		return 0, fmt.Errorf("%q must be an integer, got %v", key, v)
	}
	return i, nil
}

func rowFloat(row map[string]any, key string) (float64, error) {
	v, ok := row[key]
	if !ok {
		return 0, fmt.Errorf("row is missing %q", key)
	}
	f, ok := v.(float64)
	if !ok {
		if i, isInt := asInt(v); isInt {
			return float64(i), nil
		}
		return 0, fmt.Errorf("%q must be a number, got %v", key, v)
	}
	return f, nil
}

// loadNetwork reads a network JSON file into tables and derives link
// geometry from the endpoint nodes.
func loadNetwork(path string) (*roadway.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file networkFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding network file %s: %w", path, err)
	}

	nodes := roadway.NewNodesTable()
	for i, row := range file.Nodes {
		id, err := rowInt(row, "model_node_id")
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		x, err := rowFloat(row, "X")
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		y, err := rowFloat(row, "Y")
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		attrs := map[string]attr.Value{}
		for k, v := range row {
			if k == "model_node_id" || k == "X" || k == "Y" {
				continue
			}
			av, err := decodeAttr(v)
			if err != nil {
				return nil, fmt.Errorf("node %d attribute %q: %w", id, k, err)
			}
			attrs[k] = av
		}
		if err := nodes.Append(&roadway.Node{ModelNodeID: id, X: x, Y: y, Attrs: attrs}); err != nil {
			return nil, err
		}
	}

	shapes := roadway.NewShapesTable()
	for _, row := range file.Shapes {
		s := &roadway.Shape{ShapeID: row.ShapeID}
		for _, p := range row.Points {
			s.Points = append(s.Points, roadway.Point{X: p[0], Y: p[1]})
		}
		if err := shapes.Append(s); err != nil {
			return nil, err
		}
	}

	links := roadway.NewLinksTable()
	for i, row := range file.Links {
		id, err := rowInt(row, "model_link_id")
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
		a, err := rowInt(row, "A")
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", id, err)
		}
		b, err := rowInt(row, "B")
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", id, err)
		}
		shapeID, _ := row["shape_id"].(string)

		l := &roadway.Link{ModelLinkID: id, A: a, B: b, ShapeID: shapeID, Attrs: map[string]attr.Value{}}
		for k, v := range row {
			if k == "model_link_id" || k == "A" || k == "B" || k == "shape_id" {
				continue
			}
			av, err := decodeAttr(v)
			if err != nil {
				return nil, fmt.Errorf("link %d attribute %q: %w", id, k, err)
			}
			l.Attrs[k] = av
		}
		if na, ok := nodes.Get(a); ok {
			l.Geometry[0] = na.Geometry()
		}
		if nb, ok := nodes.Get(b); ok {
			l.Geometry[1] = nb.Geometry()
		}
		if err := links.Append(l); err != nil {
			return nil, err
		}
	}

	return roadway.NewNetwork(links, nodes, shapes), nil
}

// saveNetwork writes the tables back out in the same row format.
func saveNetwork(n *roadway.Network, path string) error {
	file := networkFile{}
	for _, id := range n.Links.IDs() {
		l, _ := n.Links.Get(id)
		row := map[string]any{"model_link_id": l.ModelLinkID, "A": l.A, "B": l.B}
		if l.ShapeID != "" {
			row["shape_id"] = l.ShapeID
		}
		for k, v := range l.Attrs {
			row[k] = encodeAttr(v)
		}
		file.Links = append(file.Links, row)
	}
	for _, id := range n.Nodes.IDs() {
		nd, _ := n.Nodes.Get(id)
		row := map[string]any{"model_node_id": nd.ModelNodeID, "X": nd.X, "Y": nd.Y}
		for k, v := range nd.Attrs {
			row[k] = encodeAttr(v)
		}
		file.Nodes = append(file.Nodes, row)
	}
	for _, id := range n.Shapes.IDs() {
		s, _ := n.Shapes.Get(id)
		row := shapeRow{ShapeID: s.ShapeID}
		for _, p := range s.Points {
			row.Points = append(row.Points, [2]float64{p.X, p.Y})
		}
		file.Shapes = append(file.Shapes, row)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
