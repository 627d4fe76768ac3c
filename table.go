package roadway

import (
	"fmt"
	"sort"

	"github.com/theoremus-urban-solutions/roadway-wrangler/attr"
)

// Point is a lon/lat (or projected X/Y) coordinate.
type Point struct {
	X float64
	Y float64
}

// ColKind is the declared type of a table column. Writing a value that cannot
// be coerced to the column kind promotes the column to ColUntyped.
type ColKind int

const (
	ColNumeric ColKind = iota
	ColText
	ColBool
	ColScoped
	ColUntyped
)

func (k ColKind) String() string {
	switch k {
	case ColNumeric:
		return "numeric"
	case ColText:
		return "text"
	case ColBool:
		return "bool"
	case ColScoped:
		return "scoped"
	default:
		return "untyped"
	}
}

func inferKind(v attr.Value) ColKind {
	switch val := v.(type) {
	case attr.Scalar:
		switch val.V.(type) {
		case int, float64:
			return ColNumeric
		case bool:
			return ColBool
		case string:
			return ColText
		default:
			return ColUntyped
		}
	case attr.Scoped:
		return ColScoped
	default:
		return ColUntyped
	}
}

// Link is one row of the links table. A and B are foreign keys into the nodes
// table; Geometry holds the two endpoint coordinates and is derived, never
// authoritative. Everything beyond the intrinsic fields lives in Attrs.
type Link struct {
	ModelLinkID int
	A           int
	B           int
	ShapeID     string
	Geometry    [2]Point
	Attrs       map[string]attr.Value
}

func (l *Link) clone() *Link {
	c := *l
	c.Attrs = make(map[string]attr.Value, len(l.Attrs))
	for k, v := range l.Attrs {
		c.Attrs[k] = v
	}
	return &c
}

// Node is one row of the nodes table. X and Y are the authoritative position;
// node geometry is always derived from them.
type Node struct {
	ModelNodeID int
	X           float64
	Y           float64
	Attrs       map[string]attr.Value
}

// Geometry returns the node position as a point.
func (n *Node) Geometry() Point { return Point{X: n.X, Y: n.Y} }

func (n *Node) clone() *Node {
	c := *n
	c.Attrs = make(map[string]attr.Value, len(n.Attrs))
	for k, v := range n.Attrs {
		c.Attrs[k] = v
	}
	return &c
}

// Shape is a detailed polyline referenced by links via shape_id. Only its
// first and last points are kept aligned with moved endpoint nodes.
type Shape struct {
	ShapeID string
	Points  []Point
}

func (s *Shape) clone() *Shape {
	c := *s
	c.Points = append([]Point(nil), s.Points...)
	return &c
}

var linkIntrinsicCols = map[string]ColKind{
	"model_link_id": ColNumeric,
	"A":             ColNumeric,
	"B":             ColNumeric,
	"shape_id":      ColText,
}

var nodeIntrinsicCols = map[string]ColKind{
	"model_node_id": ColNumeric,
	"X":             ColNumeric,
	"Y":             ColNumeric,
}

// LinksTable holds links keyed by model_link_id in insertion order.
type LinksTable struct {
	rows  map[int]*Link
	order []int
	cols  map[string]ColKind
}

// NewLinksTable returns an empty links table with the intrinsic columns
// declared.
func NewLinksTable() *LinksTable {
	t := &LinksTable{rows: map[int]*Link{}, cols: map[string]ColKind{}}
	for c, k := range linkIntrinsicCols {
		t.cols[c] = k
	}
	return t
}

// Append adds a link row, registering any new attribute columns. The primary
// key must be unique.
func (t *LinksTable) Append(l *Link) error {
	if _, ok := t.rows[l.ModelLinkID]; ok {
		return fmt.Errorf("duplicate model_link_id %d", l.ModelLinkID)
	}
	if l.Attrs == nil {
		l.Attrs = map[string]attr.Value{}
	}
	t.rows[l.ModelLinkID] = l
	t.order = append(t.order, l.ModelLinkID)
	for name, v := range l.Attrs {
		if _, ok := t.cols[name]; !ok {
			t.cols[name] = inferKind(v)
		}
	}
	return nil
}

func (t *LinksTable) remove(id int) {
	if _, ok := t.rows[id]; !ok {
		return
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Get returns the link with the given model_link_id.
func (t *LinksTable) Get(id int) (*Link, bool) {
	l, ok := t.rows[id]
	return l, ok
}

// IDs returns the model_link_ids in insertion order.
func (t *LinksTable) IDs() []int { return append([]int(nil), t.order...) }

// Len returns the number of links.
func (t *LinksTable) Len() int { return len(t.order) }

// HasColumn reports whether the named column is declared, intrinsic or not.
func (t *LinksTable) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Columns returns all declared column names, sorted.
func (t *LinksTable) Columns() []string {
	out := make([]string, 0, len(t.cols))
	for c := range t.cols {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Kind returns the declared kind of a column.
func (t *LinksTable) Kind(name string) (ColKind, bool) {
	k, ok := t.cols[name]
	return k, ok
}

// EnsureColumn declares a column if it is not present yet. Rows without a
// value for the column are treated as null.
func (t *LinksTable) EnsureColumn(name string, kind ColKind) {
	if _, ok := t.cols[name]; !ok {
		t.cols[name] = kind
	}
}

func (t *LinksTable) setKind(name string, kind ColKind) { t.cols[name] = kind }

// Value returns the value of a column for one link, handling intrinsic
// fields. The bool is false when the row or value is absent (null).
func (t *LinksTable) Value(id int, col string) (attr.Value, bool) {
	l, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	switch col {
	case "model_link_id":
		return attr.NewScalar(l.ModelLinkID), true
	case "A":
		return attr.NewScalar(l.A), true
	case "B":
		return attr.NewScalar(l.B), true
	case "shape_id":
		if l.ShapeID == "" {
			return nil, false
		}
		return attr.NewScalar(l.ShapeID), true
	}
	v, ok := l.Attrs[col]
	return v, ok
}

// Copy returns a deep copy of the table.
func (t *LinksTable) Copy() *LinksTable {
	c := &LinksTable{
		rows:  make(map[int]*Link, len(t.rows)),
		order: append([]int(nil), t.order...),
		cols:  make(map[string]ColKind, len(t.cols)),
	}
	for id, l := range t.rows {
		c.rows[id] = l.clone()
	}
	for n, k := range t.cols {
		c.cols[n] = k
	}
	return c
}

// NodesTable holds nodes keyed by model_node_id in insertion order.
type NodesTable struct {
	rows  map[int]*Node
	order []int
	cols  map[string]ColKind
}

// NewNodesTable returns an empty nodes table with the intrinsic columns
// declared.
func NewNodesTable() *NodesTable {
	t := &NodesTable{rows: map[int]*Node{}, cols: map[string]ColKind{}}
	for c, k := range nodeIntrinsicCols {
		t.cols[c] = k
	}
	return t
}

// Append adds a node row, registering any new attribute columns. The primary
// key must be unique.
func (t *NodesTable) Append(n *Node) error {
	if _, ok := t.rows[n.ModelNodeID]; ok {
		return fmt.Errorf("duplicate model_node_id %d", n.ModelNodeID)
	}
	if n.Attrs == nil {
		n.Attrs = map[string]attr.Value{}
	}
	t.rows[n.ModelNodeID] = n
	t.order = append(t.order, n.ModelNodeID)
	for name, v := range n.Attrs {
		if _, ok := t.cols[name]; !ok {
			t.cols[name] = inferKind(v)
		}
	}
	return nil
}

func (t *NodesTable) remove(id int) {
	if _, ok := t.rows[id]; !ok {
		return
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Get returns the node with the given model_node_id.
func (t *NodesTable) Get(id int) (*Node, bool) {
	n, ok := t.rows[id]
	return n, ok
}

// IDs returns the model_node_ids in insertion order.
func (t *NodesTable) IDs() []int { return append([]int(nil), t.order...) }

// Len returns the number of nodes.
func (t *NodesTable) Len() int { return len(t.order) }

// HasColumn reports whether the named column is declared.
func (t *NodesTable) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Columns returns all declared column names, sorted.
func (t *NodesTable) Columns() []string {
	out := make([]string, 0, len(t.cols))
	for c := range t.cols {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Kind returns the declared kind of a column.
func (t *NodesTable) Kind(name string) (ColKind, bool) {
	k, ok := t.cols[name]
	return k, ok
}

// EnsureColumn declares a column if it is not present yet.
func (t *NodesTable) EnsureColumn(name string, kind ColKind) {
	if _, ok := t.cols[name]; !ok {
		t.cols[name] = kind
	}
}

func (t *NodesTable) setKind(name string, kind ColKind) { t.cols[name] = kind }

// Value returns the value of a column for one node, handling intrinsic
// fields.
func (t *NodesTable) Value(id int, col string) (attr.Value, bool) {
	n, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	switch col {
	case "model_node_id":
		return attr.NewScalar(n.ModelNodeID), true
	case "X":
		return attr.NewScalar(n.X), true
	case "Y":
		return attr.NewScalar(n.Y), true
	}
	v, ok := n.Attrs[col]
	return v, ok
}

// Copy returns a deep copy of the table.
func (t *NodesTable) Copy() *NodesTable {
	c := &NodesTable{
		rows:  make(map[int]*Node, len(t.rows)),
		order: append([]int(nil), t.order...),
		cols:  make(map[string]ColKind, len(t.cols)),
	}
	for id, n := range t.rows {
		c.rows[id] = n.clone()
	}
	for name, k := range t.cols {
		c.cols[name] = k
	}
	return c
}

// ShapesTable holds shapes keyed by shape_id in insertion order.
type ShapesTable struct {
	rows  map[string]*Shape
	order []string
}

// NewShapesTable returns an empty shapes table.
func NewShapesTable() *ShapesTable {
	return &ShapesTable{rows: map[string]*Shape{}}
}

// Append adds a shape row. The shape_id must be unique.
func (t *ShapesTable) Append(s *Shape) error {
	if _, ok := t.rows[s.ShapeID]; ok {
		return fmt.Errorf("duplicate shape_id %q", s.ShapeID)
	}
	t.rows[s.ShapeID] = s
	t.order = append(t.order, s.ShapeID)
	return nil
}

func (t *ShapesTable) remove(id string) {
	if _, ok := t.rows[id]; !ok {
		return
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Get returns the shape with the given shape_id.
func (t *ShapesTable) Get(id string) (*Shape, bool) {
	s, ok := t.rows[id]
	return s, ok
}

// IDs returns the shape_ids in insertion order.
func (t *ShapesTable) IDs() []string { return append([]string(nil), t.order...) }

// Len returns the number of shapes.
func (t *ShapesTable) Len() int { return len(t.order) }

// Copy returns a deep copy of the table.
func (t *ShapesTable) Copy() *ShapesTable {
	c := &ShapesTable{
		rows:  make(map[string]*Shape, len(t.rows)),
		order: append([]string(nil), t.order...),
	}
	for id, s := range t.rows {
		c.rows[id] = s.clone()
	}
	return c
}
