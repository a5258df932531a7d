package task

import "fmt"

// Args is a named-argument binding: parameter name to bound value.
//
// Inside a planning pass a value may be a *Node, a *Placeholder, or an
// actor reference; at execution time every value has been resolved to a
// concrete payload.
type Args map[string]any

// Clone returns a shallow copy.
func (a Args) Clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Int returns the named argument as an int.
//
// Numeric values that round-tripped through JSON arrive as float64; those
// are coerced. A missing or non-numeric value is a programmer error inside
// a task body and panics (the flow runner converts the panic into an Err).
func (a Args) Int(name string) int {
	switch v := a[name].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		panic(fmt.Sprintf("argument %q is not an int (got %T)", name, a[name]))
	}
}

// Float returns the named argument as a float64, coercing integer values.
func (a Args) Float(name string) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		panic(fmt.Sprintf("argument %q is not a float (got %T)", name, a[name]))
	}
}

// String returns the named argument as a string.
func (a Args) String(name string) string {
	if v, ok := a[name].(string); ok {
		return v
	}
	panic(fmt.Sprintf("argument %q is not a string (got %T)", name, a[name]))
}

// Bool returns the named argument as a bool.
func (a Args) Bool(name string) bool {
	if v, ok := a[name].(bool); ok {
		return v
	}
	panic(fmt.Sprintf("argument %q is not a bool (got %T)", name, a[name]))
}
