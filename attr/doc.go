// Package attr models roadway attribute values that may vary by time of day
// and vehicle category.
//
// A value is either a plain Scalar or a Scoped value: a default plus a list of
// timespan/category overrides. Scoped values appear in project cards as, for
// example, a toll price that is 2.50 all day but 5.00 for SOV between 06:00
// and 09:00.
//
// Resolve answers "what is the value for this timespan and these categories"
// and ApplyChange merges a set/change specification from a project card into
// an existing value.
package attr
