package attr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MinScopeOverlap is the minimum overlap, in seconds, for a scoped entry that
// only partially covers a query timespan to still be used as a tolerated match.
const MinScopeOverlap = 3600

// ErrAmbiguousValue is returned when a scoped value cannot be reduced to a
// scalar: no timespan was given and the value has no default.
var ErrAmbiguousValue = errors.New("scoped value has no default and no timespan was given")

// ErrNonNumericChange is returned when a change (delta) is applied against a
// value that is not numeric.
var ErrNonNumericChange = errors.New("change requires a numeric existing value")

// Value is an attribute value: either a Scalar or a Scoped value.
type Value interface {
	isValue()
}

// Scalar holds a plain attribute value: a number, string or bool.
type Scalar struct {
	V any
}

func (Scalar) isValue() {}

// NewScalar wraps v, normalizing integer types to int and float32 to float64.
func NewScalar(v any) Scalar {
	switch n := v.(type) {
	case int8:
		return Scalar{V: int(n)}
	case int16:
		return Scalar{V: int(n)}
	case int32:
		return Scalar{V: int(n)}
	case int64:
		return Scalar{V: int(n)}
	case uint:
		return Scalar{V: int(n)}
	case float32:
		return Scalar{V: float64(n)}
	}
	return Scalar{V: v}
}

// Float returns the scalar as a float64 if it is numeric.
func (s Scalar) Float() (float64, bool) {
	switch n := s.V.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// IsNumeric reports whether the scalar holds an int or float.
func (s Scalar) IsNumeric() bool {
	_, ok := s.Float()
	return ok
}

// Equal compares two scalars tolerantly: numerics compare by value across
// int/float, everything else by string form.
func (s Scalar) Equal(o Scalar) bool {
	if sf, ok := s.Float(); ok {
		if of, ok2 := o.Float(); ok2 {
			return math.Abs(sf-of) < 1e-9
		}
		return false
	}
	return fmt.Sprint(s.V) == fmt.Sprint(o.V)
}

func (s Scalar) String() string {
	if f, ok := s.V.(float64); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprint(s.V)
}

// UnmarshalYAML decodes any YAML scalar (number, string, bool).
func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	*s = NewScalar(v)
	return nil
}

// MarshalYAML writes the raw value.
func (s Scalar) MarshalYAML() (interface{}, error) { return s.V, nil }

// ScopedEntry is one timespan (and optionally category) override inside a
// Scoped value.
type ScopedEntry struct {
	Timespan Timespan
	Category string // empty applies to every category
	Value    Scalar
}

// Scoped is an attribute value with a default and a list of timespan/category
// overrides. Overlapping entries for the same category are not rejected here;
// Resolve is first-match-wins over the entry list.
type Scoped struct {
	Default *Scalar
	Entries []ScopedEntry
}

func (Scoped) isValue() {}

func categoryMatches(entryCategory string, categories []string) bool {
	if entryCategory == "" {
		return true
	}
	for _, c := range categories {
		if strings.EqualFold(c, entryCategory) {
			return true
		}
	}
	return false
}

// Resolve reduces v to a scalar for the given query timespan and categories.
//
// A plain scalar resolves to itself. For a scoped value with no timespan the
// default is returned if present. With a timespan, the first entry whose span
// fully contains the query and whose category matches wins; failing that, the
// entry with the largest overlap of at least MinScopeOverlap seconds is a
// tolerated partial match; failing that the default is returned.
func Resolve(v Value, ts *Timespan, categories []string) (Scalar, error) {
	switch val := v.(type) {
	case nil:
		return Scalar{}, errors.New("cannot resolve nil attribute value")
	case Scalar:
		return val, nil
	case *Scalar:
		return *val, nil
	case Scoped:
		return resolveScoped(val, ts, categories)
	case *Scoped:
		return resolveScoped(*val, ts, categories)
	default:
		return Scalar{}, fmt.Errorf("unknown attribute value type %T", v)
	}
}

func resolveScoped(v Scoped, ts *Timespan, categories []string) (Scalar, error) {
	if ts == nil {
		if v.Default != nil {
			return *v.Default, nil
		}
		return Scalar{}, ErrAmbiguousValue
	}

	for _, e := range v.Entries {
		if e.Timespan.Contains(*ts) && categoryMatches(e.Category, categories) {
			return e.Value, nil
		}
	}

	// No entry fully contains the query. Tolerate the best partial overlap.
	best := -1
	bestOverlap := 0
	for i, e := range v.Entries {
		if !categoryMatches(e.Category, categories) {
			continue
		}
		if ov := e.Timespan.Overlap(*ts); ov > bestOverlap {
			best, bestOverlap = i, ov
		}
	}
	if best >= 0 && bestOverlap >= MinScopeOverlap {
		return v.Entries[best].Value, nil
	}

	if v.Default != nil {
		return *v.Default, nil
	}
	return Scalar{}, ErrAmbiguousValue
}
