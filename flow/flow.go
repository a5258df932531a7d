// Package flow composes tasks and actor calls into ordered, plannable
// pipelines.
//
// A Flow's body is simulated exactly once per set of input bindings: the
// body runs inside a planning context so every task and actor call records
// a node instead of executing, and the collected sequence becomes an
// immutable Plan. The same flow can be re-planned with different bindings
// (literal values for execution, placeholders for workflow compilation).
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskflow/result"
	"taskflow/task"
)

// ErrNoTasks marks a flow whose body recorded zero nodes during planning.
var ErrNoTasks = errors.New("flow has no tasks")

// Body is a flow body. Its statements are task/actor calls threading ctx;
// during planning those calls record nodes rather than executing.
type Body func(ctx context.Context, args task.Args)

// Spec declares a flow.
type Spec struct {
	Name   string
	Doc    string
	Params []task.Param
	Body   Body
}

// Flow is an immutable flow declaration: name, formal parameters (each
// with or without a default), documentation, and the body that rebuilds a
// Plan for a given binding.
type Flow struct {
	name   string
	doc    string
	params []task.Param
	body   Body
}

// New declares a flow. Invalid declarations panic at declaration time.
func New(spec Spec) *Flow {
	if spec.Name == "" {
		panic("flow name is required")
	}
	if spec.Body == nil {
		panic(fmt.Sprintf("flow %q: body is required", spec.Name))
	}
	if err := validateFlowParams(spec.Name, spec.Params); err != nil {
		panic(err.Error())
	}
	params := make([]task.Param, len(spec.Params))
	copy(params, spec.Params)
	return &Flow{name: spec.Name, doc: spec.Doc, params: params, body: spec.Body}
}

func validateFlowParams(name string, params []task.Param) error {
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if p.Name == "" {
			return fmt.Errorf("flow %q: parameter name is required", name)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("flow %q: duplicate parameter %q", name, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// Name returns the declared flow name.
func (f *Flow) Name() string { return f.name }

// Doc returns the flow's documentation string.
func (f *Flow) Doc() string { return f.doc }

// KebabName returns the flow name rendered for command-line and workflow
// use: underscores replaced with dashes.
func (f *Flow) KebabName() string { return strings.ReplaceAll(f.name, "_", "-") }

// Params returns a copy of the flow's formal parameters.
func (f *Flow) Params() []task.Param {
	out := make([]task.Param, len(f.params))
	copy(out, f.params)
	return out
}

// Bind validates args against the flow's formal parameters and returns
// the full binding with defaults applied. Unknown or missing names panic.
func (f *Flow) Bind(args task.Args) task.Args {
	return task.BindArgs("flow "+f.name, f.params, args)
}

// Plan simulates the flow body once under a fresh planning recorder and
// returns the resulting immutable Plan.
//
// No task body executes during planning; only shape is recorded. A flow
// that records zero nodes is a declaration error (ErrNoTasks). Planning is
// re-runnable: each call rebuilds a fresh Plan for the given bindings.
func (f *Flow) Plan(args task.Args) (*Plan, error) {
	bound := f.Bind(args)
	rec := task.NewRecorder()
	ctx := task.WithRecorder(context.Background(), rec)
	f.body(ctx, bound)

	nodes := rec.Nodes()
	if len(nodes) == 0 {
		return nil, fmt.Errorf("flow %q: %w", f.name, ErrNoTasks)
	}
	return newPlan(nodes), nil
}

// Run plans the flow with the given bindings and executes the plan's
// nodes in recorded order.
//
// The returned error reports planning failures (programmer errors); task
// failures never surface as errors — they are captured in the Result,
// which is Err for the first failing node or Ok(nil) once every node has
// succeeded. Flows carry no return value of their own.
func (f *Flow) Run(ctx context.Context, args task.Args) (result.Result, error) {
	p, err := f.Plan(args)
	if err != nil {
		return result.Err(err.Error()), err
	}
	return p.Execute(), nil
}
