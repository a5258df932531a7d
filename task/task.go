package task

import (
	"context"
	"fmt"

	"taskflow/result"
)

// Func is an executable task body. It receives the fully bound arguments
// (defaults applied) and reports its outcome as a Result.
type Func func(args Args) result.Result

// Info is the immutable descriptor of a declared task: name, owning
// module, formal parameter signature, documentation, and the executable
// body. Created once at declaration, never mutated.
type Info struct {
	name   string
	module string
	doc    string
	params []Param
	run    Func
}

// Spec declares a task.
type Spec struct {
	Name   string
	Module string
	Doc    string
	Params []Param
	Run    Func
}

// NewInfo builds a task descriptor. A nil Run is allowed here (actor
// method descriptors are invoked through their actor binding instead).
func NewInfo(spec Spec) (*Info, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("task name is required")
	}
	if err := validateParams("task "+spec.Name, spec.Params); err != nil {
		return nil, err
	}
	params := make([]Param, len(spec.Params))
	copy(params, spec.Params)
	return &Info{
		name:   spec.Name,
		module: spec.Module,
		doc:    spec.Doc,
		params: params,
		run:    spec.Run,
	}, nil
}

// Name returns the declared task name.
func (i *Info) Name() string { return i.name }

// Module returns the owning-module identifier, if any.
func (i *Info) Module() string { return i.module }

// Doc returns the documentation string, if any.
func (i *Info) Doc() string { return i.doc }

// Params returns a copy of the formal parameter signature.
func (i *Info) Params() []Param {
	out := make([]Param, len(i.params))
	copy(out, i.params)
	return out
}

// Bind validates args against the formal signature and returns the full
// binding with defaults applied. Unknown or missing names panic.
func (i *Info) Bind(args Args) Args {
	return bindArgs("task "+i.name, i.params, args)
}

// Invoke runs the task body with already-bound arguments.
func (i *Info) Invoke(args Args) result.Result {
	if i.run == nil {
		panic(fmt.Sprintf("task %q has no directly executable body", i.name))
	}
	return i.run(args)
}

// Task is the dual-mode callable produced from a declared function.
type Task struct {
	info *Info
}

// New declares a task. An invalid declaration (empty name, nil body,
// duplicate parameters) is a programmer error and panics at declaration
// time.
func New(spec Spec) *Task {
	if spec.Run == nil {
		panic(fmt.Sprintf("task %q: body is required", spec.Name))
	}
	info, err := NewInfo(spec)
	if err != nil {
		panic(err.Error())
	}
	return &Task{info: info}
}

// Info returns the task's immutable descriptor.
func (t *Task) Info() *Info { return t.info }

// Name returns the declared task name.
func (t *Task) Name() string { return t.info.name }

// Call invokes the task with named arguments.
//
// Outside a planning context the body runs immediately and its Result is
// returned. Inside a planning context (a Recorder on ctx) the body is not
// executed: a Node is recorded into the plan under construction and
// returned in its place. Argument validation happens in both modes.
func (t *Task) Call(ctx context.Context, args Args) result.Value {
	bound := t.info.Bind(args)
	if rec, planning := RecorderFrom(ctx); planning {
		return rec.Record(t.info, bound, NodeTask, nil)
	}
	return t.info.Invoke(bound)
}
