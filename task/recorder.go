package task

import (
	"context"
	"fmt"
	"sort"
)

// Recorder is the planning context: while one is active on the context,
// every Task call and actor call records a Node instead of executing.
//
// The recorder owns the append-only node sequence and the per-actor
// "latest mutation" pointers. Both are discarded once planning completes;
// only the node sequence escapes (into a flow plan). Planning is
// single-threaded and non-reentrant.
type Recorder struct {
	nodes []*Node
	heads map[string]*Node
}

// NewRecorder returns an empty planning recorder.
func NewRecorder() *Recorder {
	return &Recorder{heads: make(map[string]*Node)}
}

// Nodes returns the recorded nodes in recording order.
func (r *Recorder) Nodes() []*Node {
	out := make([]*Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// Record appends a node for the given invocation, deriving its dependency
// set from the bound arguments (and, for actor nodes, from the actor's
// current head). For actor nodes it then advances the actor's head to the
// new node.
//
// Dependency order is deterministic: argument-derived edges are collected
// in sorted parameter-name order, the implicit actor edge first.
func (r *Recorder) Record(info *Info, args Args, kind NodeKind, actor *ActorBinding) *Node {
	n := &Node{
		info:  info,
		args:  args,
		kind:  kind,
		actor: actor,
		index: len(r.nodes),
	}

	seen := make(map[*Node]struct{})
	addDep := func(dep *Node) {
		if dep == nil {
			return
		}
		if _, dup := seen[dep]; dup {
			return
		}
		seen[dep] = struct{}{}
		n.deps = append(n.deps, dep)
	}

	if kind == NodeActorMethod {
		head, ok := r.heads[actor.ID]
		if !ok {
			panic(fmt.Sprintf("actor %q has no recorded initialization in this plan", actor.ID))
		}
		addDep(head)
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch v := args[name].(type) {
		case *Node:
			addDep(v)
		case ActorRef:
			head, ok := r.heads[v.ActorID()]
			if !ok {
				panic(fmt.Sprintf("actor %q passed as argument %q was not instantiated in this plan", v.ActorID(), name))
			}
			addDep(head)
		}
	}

	r.nodes = append(r.nodes, n)
	if actor != nil {
		r.heads[actor.ID] = n
	}
	return n
}

// NextActorID returns the id for an actor about to record its init node.
// Ids derive from the class name and the recording position, so replanning
// the same flow with the same bindings reproduces them — snapshots keyed
// by actor id stay addressable across process boundaries.
func (r *Recorder) NextActorID(class string) string {
	return fmt.Sprintf("%s_%d", class, len(r.nodes)+1)
}

type recorderKey struct{}

// WithRecorder returns a context carrying the planning recorder. Every
// task/actor call observing this context records instead of executing.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

// RecorderFrom extracts the active planning recorder, if any.
func RecorderFrom(ctx context.Context) (*Recorder, bool) {
	r, ok := ctx.Value(recorderKey{}).(*Recorder)
	return r, ok
}
