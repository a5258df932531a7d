package task

// Placeholder is a symbolic stand-in for a value not known until a later
// stage — a workflow-trigger input resolved only by the CI system. It is
// interchangeable with a recorded Node wherever a bound argument is
// expected: it mimics the success surface and Value returns the
// placeholder itself.
type Placeholder struct {
	// Name is the input name the placeholder renders as.
	Name string
	// Type is an optional type annotation carried through to the compiled
	// workflow input.
	Type string
}

// Input returns a placeholder for the named workflow input.
func Input(name string) *Placeholder {
	return &Placeholder{Name: name}
}

// String renders the placeholder in workflow expression form.
func (p *Placeholder) String() string {
	return "${{ inputs." + p.Name + " }}"
}

// OK always reports true.
func (p *Placeholder) OK() bool { return true }

// Failed always reports false.
func (p *Placeholder) Failed() bool { return false }

// Err always returns "".
func (p *Placeholder) Err() string { return "" }

// Value returns the placeholder itself.
func (p *Placeholder) Value() any { return p }
