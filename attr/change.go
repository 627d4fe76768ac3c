package attr

import (
	"errors"
	"fmt"
)

// ScopedChange is one time-of-day sub-spec within a ChangeSpec: either a
// literal set or a numeric delta against the existing resolved value.
type ScopedChange struct {
	Timespan Timespan `yaml:"timespan"`
	Set      *Scalar  `yaml:"set,omitempty"`
	Change   *float64 `yaml:"change,omitempty"`
}

// GroupChange carries time-of-day sub-specs for one category.
type GroupChange struct {
	Category string         `yaml:"category"`
	Timespan []ScopedChange `yaml:"timeofday"`
}

// ChangeSpec is a property-change specification from a project card.
// Exactly one of Set or Change should be present at the top level; Group and
// Timespan add category/time-of-day overrides on top.
type ChangeSpec struct {
	Existing *Scalar        `yaml:"existing,omitempty"`
	Set      *Scalar        `yaml:"set,omitempty"`
	Change   *float64       `yaml:"change,omitempty"`
	Timespan []ScopedChange `yaml:"timeofday,omitempty"`
	Group    []GroupChange  `yaml:"group,omitempty"`
}

// HasOperation reports whether the spec carries anything to apply.
func (c ChangeSpec) HasOperation() bool {
	return c.Set != nil || c.Change != nil || len(c.Timespan) > 0 || len(c.Group) > 0
}

func (c ChangeSpec) scoped() bool {
	return len(c.Timespan) > 0 || len(c.Group) > 0
}

func changedScalar(existing Scalar, delta float64) (Scalar, error) {
	f, ok := existing.Float()
	if !ok {
		return Scalar{}, fmt.Errorf("%w: existing value is %v (%T)",
			ErrNonNumericChange, existing.V, existing.V)
	}
	v := f + delta
	if _, isInt := existing.V.(int); isInt && v == float64(int(v)) {
		return Scalar{V: int(v)}, nil
	}
	return Scalar{V: v}, nil
}

func scopedEntryFromChange(existing Value, sc ScopedChange, category string) (ScopedEntry, error) {
	entry := ScopedEntry{Timespan: sc.Timespan, Category: category}
	switch {
	case sc.Set != nil:
		entry.Value = *sc.Set
	case sc.Change != nil:
		base, err := Resolve(existing, &sc.Timespan, categoriesFor(category))
		if err != nil {
			return ScopedEntry{}, fmt.Errorf("resolving base value for %s change: %w", sc.Timespan, err)
		}
		v, err := changedScalar(base, *sc.Change)
		if err != nil {
			return ScopedEntry{}, err
		}
		entry.Value = v
	default:
		return ScopedEntry{}, errors.New("scoped property change must have set or change")
	}
	return entry, nil
}

func categoriesFor(category string) []string {
	if category == "" {
		return nil
	}
	return []string{category}
}

// ApplyChange merges a change spec into an existing value and returns the new
// value. The existing value may be nil when the spec carries its own base via
// Set or Existing. Deltas against non-numeric values fail with
// ErrNonNumericChange.
func ApplyChange(existing Value, spec ChangeSpec) (Value, error) {
	if !spec.HasOperation() {
		return nil, errors.New("property change must have at least one of set, change, timeofday or group")
	}

	base := existing
	if base == nil && spec.Existing != nil {
		base = *spec.Existing
	}

	var newDefault *Scalar
	switch {
	case spec.Set != nil:
		v := *spec.Set
		newDefault = &v
	case spec.Change != nil:
		if base == nil {
			return nil, fmt.Errorf("%w: no existing value to change", ErrNonNumericChange)
		}
		cur, err := Resolve(base, nil, nil)
		if err != nil {
			return nil, err
		}
		v, err := changedScalar(cur, *spec.Change)
		if err != nil {
			return nil, err
		}
		newDefault = &v
	default:
		// Scoped-only spec keeps the existing default, if any.
		if base != nil {
			if cur, err := Resolve(base, nil, nil); err == nil {
				v := cur
				newDefault = &v
			}
		}
	}

	if !spec.scoped() {
		if newDefault == nil {
			return nil, errors.New("property change produced no value")
		}
		return *newDefault, nil
	}

	resolveBase := base
	if resolveBase == nil && newDefault != nil {
		resolveBase = *newDefault
	}

	out := Scoped{Default: newDefault}
	for _, sc := range spec.Timespan {
		entry, err := scopedEntryFromChange(resolveBase, sc, "")
		if err != nil {
			return nil, err
		}
		out.Entries = append(out.Entries, entry)
	}
	for _, g := range spec.Group {
		for _, sc := range g.Timespan {
			entry, err := scopedEntryFromChange(resolveBase, sc, g.Category)
			if err != nil {
				return nil, err
			}
			out.Entries = append(out.Entries, entry)
		}
	}
	return out, nil
}
