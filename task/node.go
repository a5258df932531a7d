package task

import "taskflow/result"

// NodeKind distinguishes plain task nodes from the two actor node shapes.
type NodeKind int

const (
	NodeTask NodeKind = iota
	NodeActorInit
	NodeActorMethod
)

func (k NodeKind) String() string {
	switch k {
	case NodeActorInit:
		return "actor-init"
	case NodeActorMethod:
		return "actor-method"
	default:
		return "task"
	}
}

// ActorRef identifies a stateful object recorded inside a plan. Passing an
// ActorRef as an ordinary bound argument wires a dependency edge to the
// node holding that actor's most recent mutation.
type ActorRef interface {
	ActorID() string
}

// ActorBinding carries everything an executor needs to run an actor node
// without importing the actor package: the stable actor id, the state
// constructor (init nodes), the method invoker (method nodes), and the
// snapshot codec used by out-of-process execution.
type ActorBinding struct {
	ID     string
	Init   func(args Args) any
	Invoke func(state any, args Args) result.Result
	Encode func(state any) ([]byte, error)
	Decode func(data []byte) (any, error)
}

// Node is a recorded, not-yet-executed invocation.
//
// A Node mimics the read-only surface of a resolved result (always ok,
// never failed) so downstream planning code can consume it exactly like a
// value; Value returns the node itself, which is how a caller explicitly
// wires a dependency edge.
type Node struct {
	info  *Info
	args  Args
	kind  NodeKind
	actor *ActorBinding
	deps  []*Node
	index int
}

// Info returns the immutable task descriptor this node was recorded from.
func (n *Node) Info() *Info { return n.info }

// Name returns the node's task name.
func (n *Node) Name() string { return n.info.name }

// Args returns the bound arguments. The map is owned by the node and must
// not be mutated.
func (n *Node) Args() Args { return n.args }

// Kind returns the node kind.
func (n *Node) Kind() NodeKind { return n.kind }

// Actor returns the actor binding, or nil for a plain task node.
func (n *Node) Actor() *ActorBinding { return n.actor }

// Index returns the node's zero-based position in the plan under
// construction.
func (n *Node) Index() int { return n.index }

// Dependencies returns the nodes this node depends on: every node among
// its bound arguments plus, for actor methods, the node that last mutated
// the same actor.
func (n *Node) Dependencies() []*Node {
	out := make([]*Node, len(n.deps))
	copy(out, n.deps)
	return out
}

// OK always reports true: a recorded node stands in for a success value.
func (n *Node) OK() bool { return true }

// Failed always reports false.
func (n *Node) Failed() bool { return false }

// Err always returns "".
func (n *Node) Err() string { return "" }

// Value returns the node itself.
func (n *Node) Value() any { return n }

var (
	_ result.Value = (*Node)(nil)
	_ result.Value = (*Placeholder)(nil)
)
