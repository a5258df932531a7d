package flow

import (
	"fmt"

	"taskflow/result"
	"taskflow/task"
)

// Step is one uniquely named, independently invocable unit of a Plan.
type Step struct {
	Name string
	Node *task.Node
}

// Plan is the ordered, append-only sequence of nodes produced by one
// planning pass.
//
// Invariant: every dependency of a node appears earlier in the sequence.
// Construction is single-pass and forward-only, so cycles are structurally
// impossible.
type Plan struct {
	nodes []*task.Node
	steps []Step
}

func newPlan(nodes []*task.Node) *Plan {
	steps := make([]Step, len(nodes))
	for i, n := range nodes {
		steps[i] = Step{
			Name: fmt.Sprintf("step_%d_%s", i+1, n.Name()),
			Node: n,
		}
	}
	return &Plan{nodes: nodes, steps: steps}
}

// Nodes returns the plan's nodes in recorded order.
func (p *Plan) Nodes() []*task.Node {
	out := make([]*task.Node, len(p.nodes))
	copy(out, p.nodes)
	return out
}

// Steps returns the stable (step name, node) pairs. Step names embed the
// 1-based node index, so they stay unique even when the same task is
// invoked multiple times.
func (p *Plan) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Step looks up a step by name.
func (p *Plan) Step(name string) (Step, bool) {
	for _, s := range p.steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// StepName returns the step name assigned to a node of this plan.
func (p *Plan) StepName(n *task.Node) string {
	return p.steps[n.Index()].Name
}

// Execute walks the plan's nodes in recorded order, resolving each bound
// node argument to its already-computed value and each actor reference to
// the actor's current state.
//
// Execution is fail-fast: the first node yielding Err (or panicking — the
// panic is captured as "Task exception: <type>: <message>") stops the walk
// and becomes the flow's result. Otherwise the result is Ok(nil).
func (p *Plan) Execute() result.Result {
	computed := make(map[*task.Node]any, len(p.nodes))
	actors := make(map[string]any)

	for _, n := range p.nodes {
		args := resolveArgs(n.Args(), computed, actors)
		res := runNode(n, args, actors)
		if res.Failed() {
			return res
		}
		computed[n] = res.Value()
	}
	return result.Ok(nil)
}

// resolveArgs replaces recorded references among bound arguments with
// their runtime values. Literals pass through untouched.
func resolveArgs(args task.Args, computed map[*task.Node]any, actors map[string]any) task.Args {
	out := make(task.Args, len(args))
	for name, v := range args {
		switch ref := v.(type) {
		case *task.Node:
			val, ok := computed[ref]
			if !ok {
				panic(fmt.Sprintf("argument %q references step %q which has not executed", name, ref.Name()))
			}
			out[name] = val
		case task.ActorRef:
			state, ok := actors[ref.ActorID()]
			if !ok {
				panic(fmt.Sprintf("argument %q references actor %q with no live state", name, ref.ActorID()))
			}
			out[name] = state
		case *task.Placeholder:
			panic(fmt.Sprintf("argument %q is an unresolved input placeholder %s", name, ref))
		default:
			out[name] = v
		}
	}
	return out
}

// runNode executes a single node, converting any panic raised by the body
// into an Err so failures always flow through Result at the flow boundary.
func runNode(n *task.Node, args task.Args, actors map[string]any) (res result.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = result.Errf("Task exception: %T: %v", r, r)
		}
	}()

	switch n.Kind() {
	case task.NodeActorInit:
		actors[n.Actor().ID] = n.Actor().Init(args)
		return result.Ok(nil)
	case task.NodeActorMethod:
		return n.Actor().Invoke(actors[n.Actor().ID], args)
	default:
		return n.Info().Invoke(args)
	}
}
