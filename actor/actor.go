// Package actor extends task recording to stateful objects.
//
// A Class declares a constructor plus a set of task methods over a single
// state value. Outside a planning context a Handle behaves like a normal
// object: construction and method calls execute immediately and mutate
// state in place. Inside a planning context every call records a node
// instead, and the per-instance calls form a linear dependency chain — a
// single-writer log per actor — which is what gives deterministic state
// visibility without general mutable aliasing.
package actor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"taskflow/result"
	"taskflow/task"
)

// MethodSpec declares one task method of an actor class.
type MethodSpec struct {
	Name   string
	Doc    string
	Params []task.Param
	Run    func(state any, args task.Args) result.Result
}

// Spec declares an actor class.
type Spec struct {
	Name   string
	Module string
	Doc    string
	// Params is the constructor's formal signature.
	Params []task.Param
	// Init builds a fresh state from bound constructor arguments. The
	// returned value must be a pointer so method bodies mutate in place.
	Init func(args task.Args) any
	// State returns a zero state pointer for snapshot decoding.
	State func() any
	Methods []MethodSpec
}

type method struct {
	info *task.Info
	run  func(state any, args task.Args) result.Result
}

// Class is an immutable actor declaration.
type Class struct {
	name     string
	initInfo *task.Info
	initFn   func(task.Args) any
	stateFn  func() any
	methods  map[string]*method
}

// NewClass declares an actor class. Invalid declarations panic at
// declaration time.
func NewClass(spec Spec) *Class {
	if spec.Name == "" {
		panic("actor class name is required")
	}
	if spec.Init == nil {
		panic(fmt.Sprintf("actor class %q: Init is required", spec.Name))
	}
	if spec.State == nil {
		panic(fmt.Sprintf("actor class %q: State is required", spec.Name))
	}
	initInfo, err := task.NewInfo(task.Spec{
		Name:   spec.Name + "_init",
		Module: spec.Module,
		Doc:    spec.Doc,
		Params: spec.Params,
	})
	if err != nil {
		panic(err.Error())
	}

	methods := make(map[string]*method, len(spec.Methods))
	for _, m := range spec.Methods {
		if m.Run == nil {
			panic(fmt.Sprintf("actor class %q: method %q has no body", spec.Name, m.Name))
		}
		if _, dup := methods[m.Name]; dup {
			panic(fmt.Sprintf("actor class %q: duplicate method %q", spec.Name, m.Name))
		}
		info, err := task.NewInfo(task.Spec{
			Name:   m.Name,
			Module: spec.Module,
			Doc:    m.Doc,
			Params: m.Params,
		})
		if err != nil {
			panic(err.Error())
		}
		methods[m.Name] = &method{info: info, run: m.Run}
	}

	return &Class{
		name:     spec.Name,
		initInfo: initInfo,
		initFn:   spec.Init,
		stateFn:  spec.State,
		methods:  methods,
	}
}

// Name returns the declared class name.
func (c *Class) Name() string { return c.name }

// InitInfo returns the constructor's task descriptor.
func (c *Class) InitInfo() *task.Info { return c.initInfo }

func (c *Class) encode(state any) ([]byte, error) {
	return json.Marshal(state)
}

func (c *Class) decode(data []byte) (any, error) {
	state := c.stateFn()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decode %s state: %w", c.name, err)
	}
	return state, nil
}

func (c *Class) initBinding(id string) *task.ActorBinding {
	return &task.ActorBinding{
		ID:     id,
		Init:   c.initFn,
		Encode: c.encode,
		Decode: c.decode,
	}
}

func (c *Class) methodBinding(id string, m *method) *task.ActorBinding {
	return &task.ActorBinding{
		ID:     id,
		Invoke: m.run,
		Encode: c.encode,
		Decode: c.decode,
	}
}

// Handle is one logical instance of an actor class.
//
// In direct mode it owns live state. In planning mode it carries only the
// generated actor id; the recorded node chain is the instance's real
// lifetime, and state is reconstructed from snapshots between steps.
type Handle struct {
	class   *Class
	id      string
	state   any
	planned bool
}

// New instantiates the class.
//
// Inside a planning context this records the constructor node (bound
// arguments plus the actor id assigned by the recorder, stable across
// replans) and returns a planned handle. Outside one it constructs live
// state immediately under a throwaway uuid identity.
func (c *Class) New(ctx context.Context, args task.Args) *Handle {
	bound := c.initInfo.Bind(args)
	if rec, planning := task.RecorderFrom(ctx); planning {
		id := rec.NextActorID(c.name)
		rec.Record(c.initInfo, bound, task.NodeActorInit, c.initBinding(id))
		return &Handle{class: c, id: id, planned: true}
	}
	return &Handle{class: c, id: uuid.NewString(), state: c.initFn(bound)}
}

// ActorID returns the handle's actor id.
func (h *Handle) ActorID() string { return h.id }

// State returns the live state (direct mode only).
func (h *Handle) State() any { return h.state }

// Call invokes the named task method with named arguments.
//
// Only task-declared methods are callable through a handle; an unknown
// name is a capability violation and panics at plan-construction time
// rather than being deferred to execution.
func (h *Handle) Call(ctx context.Context, name string, args task.Args) result.Value {
	m, ok := h.class.methods[name]
	if !ok {
		panic(fmt.Sprintf("actor class %q has no task method %q: only task-declared methods may be called on an actor inside a flow", h.class.name, name))
	}
	bound := m.info.Bind(args)
	if rec, planning := task.RecorderFrom(ctx); planning {
		if !h.planned {
			panic(fmt.Sprintf("actor %q was instantiated outside the planning context", h.class.name))
		}
		return rec.Record(m.info, bound, task.NodeActorMethod, h.class.methodBinding(h.id, m))
	}
	return m.run(h.state, bound)
}

var _ task.ActorRef = (*Handle)(nil)
