// Package executor runs one named step of a flow plan at a time, across
// independent process invocations, coordinated through a shared workspace.
//
// This decouples an actor's logical lifetime (the whole flow) from a
// process's lifetime (one step): between steps an actor exists only as a
// serialized snapshot keyed by its stable id, and the snapshot is the
// single source of truth.
package executor

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"taskflow/flow"
	"taskflow/result"
	"taskflow/task"
	"taskflow/workspace"
)

// Runner executes flow steps against a workspace.
type Runner struct {
	ws     *workspace.Workspace
	logger *zap.Logger
}

// NewRunner returns a step runner. A nil logger disables logging.
func NewRunner(ws *workspace.Workspace, logger *zap.Logger) (*Runner, error) {
	if ws == nil {
		return nil, fmt.Errorf("nil workspace")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{ws: ws, logger: logger}, nil
}

// SetupWorkspace idempotently initializes the workspace for a run of the
// flow and persists the canonical input bindings (defaults merged with
// the provided values). Later RunStep invocations replan from these
// persisted bindings.
func (r *Runner) SetupWorkspace(f *flow.Flow, args task.Args) error {
	bound := f.Bind(args)
	if err := r.ws.Init(f.Name(), bound); err != nil {
		return err
	}
	r.logger.Info("workspace initialized",
		zap.String("flow", f.Name()),
		zap.String("dir", r.ws.Dir()))
	return nil
}

// RunStep looks up stepName in the flow's rebuilt plan and executes that
// single node, reading upstream results and actor snapshots from the
// workspace and persisting this step's own output back into it.
//
// Execution failures (including a step-name lookup failure) are reported
// through the returned Result, never raised.
func (r *Runner) RunStep(f *flow.Flow, stepName string) result.Result {
	flowName, params, err := r.ws.Manifest()
	if err != nil {
		return result.Errf("load workspace: %v", err)
	}
	if flowName != f.Name() {
		return result.Errf("workspace %s belongs to flow %q, not %q", r.ws.Dir(), flowName, f.Name())
	}

	p, err := f.Plan(task.Args(params))
	if err != nil {
		return result.Errf("plan flow %q: %v", f.Name(), err)
	}

	step, ok := p.Step(stepName)
	if !ok {
		return result.Errf("unknown step %q in flow %q (valid steps: %s)",
			stepName, f.Name(), strings.Join(stepNames(p), ", "))
	}

	r.logger.Info("running step",
		zap.String("flow", f.Name()),
		zap.String("step", stepName),
		zap.String("kind", step.Node.Kind().String()))

	args, err := r.resolveArgs(p, step.Node)
	if err != nil {
		return result.Errf("resolve arguments for step %q: %v", stepName, err)
	}

	res := r.executeNode(p, step, args)
	if res.Failed() {
		r.logger.Error("step failed",
			zap.String("flow", f.Name()),
			zap.String("step", stepName),
			zap.String("error", res.Err()))
		return res
	}
	r.logger.Info("step completed",
		zap.String("flow", f.Name()),
		zap.String("step", stepName))
	return res
}

// resolveArgs dereferences recorded references against the workspace:
// upstream node arguments load that step's persisted payload, actor
// references load and decode the actor's current snapshot.
func (r *Runner) resolveArgs(p *flow.Plan, n *task.Node) (task.Args, error) {
	out := make(task.Args, len(n.Args()))
	for name, v := range n.Args() {
		switch ref := v.(type) {
		case *task.Node:
			data, err := r.ws.ReadStepResult(p.StepName(ref))
			if err != nil {
				return nil, err
			}
			var payload any
			if err := json.Unmarshal(data, &payload); err != nil {
				return nil, fmt.Errorf("decode result of step %q: %w", p.StepName(ref), err)
			}
			out[name] = payload
		case task.ActorRef:
			state, err := r.loadActorState(p, ref.ActorID())
			if err != nil {
				return nil, err
			}
			out[name] = state
		case *task.Placeholder:
			return nil, fmt.Errorf("argument %q is an unresolved input placeholder %s", name, ref)
		default:
			out[name] = v
		}
	}
	return out, nil
}

func (r *Runner) loadActorState(p *flow.Plan, id string) (any, error) {
	binding := actorBinding(p, id)
	if binding == nil {
		return nil, fmt.Errorf("no node for actor %q in plan", id)
	}
	data, err := r.ws.ReadActorState(id)
	if err != nil {
		return nil, err
	}
	return binding.Decode(data)
}

// actorBinding finds any node of the plan carrying the actor's binding;
// the init node always precedes uses, so one is guaranteed to exist.
func actorBinding(p *flow.Plan, id string) *task.ActorBinding {
	for _, n := range p.Nodes() {
		if a := n.Actor(); a != nil && a.ID == id {
			return a
		}
	}
	return nil
}

// executeNode runs one node and persists its outputs. Every successful
// step writes its Ok payload under its step name, whatever the node kind:
// a later step may have bound this node's value as an argument, and the
// dereference in resolveArgs reads it back from the workspace.
func (r *Runner) executeNode(p *flow.Plan, step flow.Step, args task.Args) result.Result {
	n := step.Node
	switch n.Kind() {
	case task.NodeActorInit:
		var state any
		res := capturePanics(func() result.Result {
			state = n.Actor().Init(args)
			return result.Ok(nil)
		})
		if res.Failed() {
			return res
		}
		if err := r.writeActorState(n.Actor(), state); err != nil {
			return result.Errf("persist actor %q: %v", n.Actor().ID, err)
		}
		return r.persistStepResult(step, res)

	case task.NodeActorMethod:
		state, err := r.loadActorState(p, n.Actor().ID)
		if err != nil {
			return result.Errf("load actor %q: %v", n.Actor().ID, err)
		}
		res := capturePanics(func() result.Result {
			return n.Actor().Invoke(state, args)
		})
		if res.Failed() {
			return res
		}
		if err := r.writeActorState(n.Actor(), state); err != nil {
			return result.Errf("persist actor %q: %v", n.Actor().ID, err)
		}
		return r.persistStepResult(step, res)

	default:
		res := capturePanics(func() result.Result {
			return n.Info().Invoke(args)
		})
		if res.Failed() {
			return res
		}
		return r.persistStepResult(step, res)
	}
}

func (r *Runner) persistStepResult(step flow.Step, res result.Result) result.Result {
	data, err := json.Marshal(res.Value())
	if err != nil {
		return result.Errf("encode result of step %q: %v", step.Name, err)
	}
	if err := r.ws.WriteStepResult(step.Name, data); err != nil {
		return result.Errf("persist result of step %q: %v", step.Name, err)
	}
	return res
}

func (r *Runner) writeActorState(a *task.ActorBinding, state any) error {
	data, err := a.Encode(state)
	if err != nil {
		return err
	}
	return r.ws.WriteActorState(a.ID, data)
}

func capturePanics(fn func() result.Result) (res result.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = result.Errf("Task exception: %T: %v", rec, rec)
		}
	}()
	return fn()
}

func stepNames(p *flow.Plan) []string {
	steps := p.Steps()
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}
