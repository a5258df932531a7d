package task

import "fmt"

// Kind is the declared (or inferred) value kind of a parameter.
//
// It drives CLI flag parsing and the input type emitted into a compiled
// workflow document.
type Kind int

const (
	KindUnset Kind = iota
	KindString
	KindInt
	KindBool
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	default:
		return "string"
	}
}

// Param declares one named formal parameter.
//
// A nil Default marks the parameter required. Kind may be left unset, in
// which case it is inferred from the default value (string when there is
// no default); an explicit Kind always wins over inference.
type Param struct {
	Name    string
	Default any
	Kind    Kind
}

// Required reports whether the parameter has no default.
func (p Param) Required() bool { return p.Default == nil }

// EffectiveKind returns the declared kind, or the kind inferred from the
// default value when the declaration left it unset.
func (p Param) EffectiveKind() Kind {
	if p.Kind != KindUnset {
		return p.Kind
	}
	switch p.Default.(type) {
	case int, int32, int64:
		return KindInt
	case bool:
		return KindBool
	case float32, float64:
		return KindFloat
	default:
		return KindString
	}
}

func validateParams(owner string, params []Param) error {
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if p.Name == "" {
			return fmt.Errorf("%s: parameter name is required", owner)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%s: duplicate parameter %q", owner, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// BindArgs validates args against params and returns the full binding with
// defaults applied. Flows use this for their own formal parameters; tasks
// use Info.Bind.
func BindArgs(owner string, params []Param, args Args) Args {
	return bindArgs(owner, params, args)
}

// bindArgs validates args against params and returns the full binding with
// defaults applied.
//
// An unknown or missing name is a programmer error (a declaration/planning
// failure, not an execution failure) and panics loudly, at planning time and
// at direct call time alike.
func bindArgs(owner string, params []Param, args Args) Args {
	declared := make(map[string]Param, len(params))
	for _, p := range params {
		declared[p.Name] = p
	}
	for name := range args {
		if _, ok := declared[name]; !ok {
			panic(fmt.Sprintf("unexpected keyword argument %q for %s", name, owner))
		}
	}

	bound := make(Args, len(params))
	for _, p := range params {
		if v, ok := args[p.Name]; ok {
			bound[p.Name] = v
			continue
		}
		if p.Required() {
			panic(fmt.Sprintf("missing required keyword argument %q for %s", p.Name, owner))
		}
		bound[p.Name] = p.Default
	}
	return bound
}
