package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"taskflow/actor"
	"taskflow/result"
	"taskflow/task"
)

func okTask(t *testing.T, name string, hits *int) *task.Task {
	t.Helper()
	return task.New(task.Spec{
		Name: name,
		Run: func(task.Args) result.Result {
			if hits != nil {
				*hits++
			}
			return result.Ok(name)
		},
	})
}

func TestPlanDeterminism(t *testing.T) {
	a := okTask(t, "a", nil)
	b := task.New(task.Spec{
		Name:   "b",
		Params: []task.Param{{Name: "in"}},
		Run:    func(task.Args) result.Result { return result.Ok(nil) },
	})
	f := New(Spec{
		Name: "det_flow",
		Body: func(ctx context.Context, args task.Args) {
			first := a.Call(ctx, nil)
			b.Call(ctx, task.Args{"in": first.Value()})
		},
	})

	p1, err := f.Plan(nil)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	p2, err := f.Plan(nil)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	s1, s2 := p1.Steps(), p2.Steps()
	if len(s1) != len(s2) {
		t.Fatalf("plans differ in length: %d vs %d", len(s1), len(s2))
	}
	for i := range s1 {
		if s1[i].Name != s2[i].Name {
			t.Fatalf("step %d differs: %q vs %q", i, s1[i].Name, s2[i].Name)
		}
		d1, d2 := s1[i].Node.Dependencies(), s2[i].Node.Dependencies()
		if len(d1) != len(d2) {
			t.Fatalf("step %d dependency sets differ", i)
		}
		for j := range d1 {
			if d1[j].Index() != d2[j].Index() {
				t.Fatalf("step %d dep %d differs: %d vs %d", i, j, d1[j].Index(), d2[j].Index())
			}
		}
	}
}

func TestNoForwardReferences(t *testing.T) {
	a := okTask(t, "a", nil)
	join := task.New(task.Spec{
		Name:   "join",
		Params: []task.Param{{Name: "x"}, {Name: "y"}},
		Run:    func(task.Args) result.Result { return result.Ok(nil) },
	})
	f := New(Spec{
		Name: "fan_in",
		Body: func(ctx context.Context, args task.Args) {
			first := a.Call(ctx, nil)
			second := a.Call(ctx, nil)
			join.Call(ctx, task.Args{"x": first.Value(), "y": second.Value()})
		},
	})

	p, err := f.Plan(nil)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, n := range p.Nodes() {
		for _, dep := range n.Dependencies() {
			if dep.Index() >= n.Index() {
				t.Fatalf("forward reference: node %d depends on node %d", n.Index(), dep.Index())
			}
		}
	}
}

func TestStepNamesUniqueForRepeatedTask(t *testing.T) {
	a := okTask(t, "work", nil)
	f := New(Spec{
		Name: "repeat_flow",
		Body: func(ctx context.Context, args task.Args) {
			a.Call(ctx, nil)
			a.Call(ctx, nil)
		},
	})
	p, err := f.Plan(nil)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	steps := p.Steps()
	if steps[0].Name != "step_1_work" || steps[1].Name != "step_2_work" {
		t.Fatalf("unexpected step names: %q %q", steps[0].Name, steps[1].Name)
	}
}

func TestEmptyFlowIsError(t *testing.T) {
	f := New(Spec{
		Name: "empty_flow",
		Body: func(ctx context.Context, args task.Args) {},
	})
	_, err := f.Plan(nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrNoTasks) {
		t.Fatalf("expected ErrNoTasks, got %v", err)
	}
}

func TestPlanningExecutesNoBodies(t *testing.T) {
	hits := 0
	a := okTask(t, "a", &hits)
	f := New(Spec{
		Name: "quiet_flow",
		Body: func(ctx context.Context, args task.Args) {
			a.Call(ctx, nil)
		},
	})
	if _, err := f.Plan(nil); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if hits != 0 {
		t.Fatalf("planning must not execute task bodies, got %d executions", hits)
	}
}

func TestRunFailFast(t *testing.T) {
	firstHits, thirdHits := 0, 0
	first := okTask(t, "first", &firstHits)
	failing := task.New(task.Spec{
		Name: "failing",
		Run:  func(task.Args) result.Result { return result.Err("second task broke") },
	})
	third := okTask(t, "third", &thirdHits)

	f := New(Spec{
		Name: "fail_fast_flow",
		Body: func(ctx context.Context, args task.Args) {
			first.Call(ctx, nil)
			failing.Call(ctx, nil)
			third.Call(ctx, nil)
		},
	})

	res, err := f.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected planning error: %v", err)
	}
	if !res.Failed() {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(res.Err(), "second task broke") {
		t.Fatalf("unexpected error: %q", res.Err())
	}
	if firstHits != 1 {
		t.Fatalf("first task should have run once, got %d", firstHits)
	}
	if thirdHits != 0 {
		t.Fatalf("third task must never execute after a failure, got %d", thirdHits)
	}
}

func TestRunCapturesPanicsAsErr(t *testing.T) {
	boom := task.New(task.Spec{
		Name: "boom",
		Run: func(task.Args) result.Result {
			panic(errors.New("kaput"))
		},
	})
	f := New(Spec{
		Name: "panicky_flow",
		Body: func(ctx context.Context, args task.Args) {
			boom.Call(ctx, nil)
		},
	})

	res, err := f.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected planning error: %v", err)
	}
	if !res.Failed() {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(res.Err(), "Task exception") {
		t.Fatalf("error must be marked as a task exception: %q", res.Err())
	}
	if !strings.Contains(res.Err(), "kaput") {
		t.Fatalf("error must carry the panic message: %q", res.Err())
	}
}

func TestRunSuccessReturnsOkNil(t *testing.T) {
	a := okTask(t, "a", nil)
	f := New(Spec{
		Name: "simple_flow",
		Body: func(ctx context.Context, args task.Args) {
			a.Call(ctx, nil)
		},
	})
	res, err := f.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK() {
		t.Fatalf("expected Ok, got %q", res.Err())
	}
	if res.Value() != nil {
		t.Fatalf("flows carry no return value")
	}
}

func TestRunResolvesNodeArguments(t *testing.T) {
	var seen any
	produce := task.New(task.Spec{
		Name: "produce",
		Run:  func(task.Args) result.Result { return result.Ok(41) },
	})
	consume := task.New(task.Spec{
		Name:   "consume",
		Params: []task.Param{{Name: "in"}},
		Run: func(args task.Args) result.Result {
			seen = args["in"]
			return result.Ok(nil)
		},
	})
	f := New(Spec{
		Name: "pipe_flow",
		Body: func(ctx context.Context, args task.Args) {
			v := produce.Call(ctx, nil)
			consume.Call(ctx, task.Args{"in": v.Value()})
		},
	})

	if _, err := f.Run(context.Background(), nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if seen != 41 {
		t.Fatalf("node argument not resolved to computed value, got %v", seen)
	}
}

type chainState struct {
	Count int `json:"count"`
}

func newChainCounter(t *testing.T) *actor.Class {
	t.Helper()
	return actor.NewClass(actor.Spec{
		Name:   "counter",
		Params: []task.Param{{Name: "start", Default: 0}},
		Init: func(args task.Args) any {
			return &chainState{Count: args.Int("start")}
		},
		State: func() any { return &chainState{} },
		Methods: []actor.MethodSpec{
			{
				Name:   "increment",
				Params: []task.Param{{Name: "amount", Default: 1}},
				Run: func(state any, args task.Args) result.Result {
					c := state.(*chainState)
					c.Count += args.Int("amount")
					return result.Ok(c.Count)
				},
			},
			{
				Name: "double",
				Run: func(state any, _ task.Args) result.Result {
					c := state.(*chainState)
					c.Count *= 2
					return result.Ok(c.Count)
				},
			},
		},
	})
}

func TestRunThreadsActorState(t *testing.T) {
	counter := newChainCounter(t)
	var final int
	check := task.New(task.Spec{
		Name:   "check",
		Params: []task.Param{{Name: "c"}},
		Run: func(args task.Args) result.Result {
			final = args["c"].(*chainState).Count
			return result.Ok(nil)
		},
	})

	f := New(Spec{
		Name: "counter_flow",
		Body: func(ctx context.Context, args task.Args) {
			h := counter.New(ctx, task.Args{"start": 1})
			h.Call(ctx, "increment", task.Args{"amount": 2})
			h.Call(ctx, "double", nil)
			h.Call(ctx, "increment", task.Args{"amount": 3})
			check.Call(ctx, task.Args{"c": h})
		},
	})

	res, err := f.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err())
	}
	if final != 9 {
		t.Fatalf("expected ((1+2)*2)+3 = 9, got %d", final)
	}
}

func TestReplanWithDifferentBindings(t *testing.T) {
	var got []string
	record := task.New(task.Spec{
		Name:   "record",
		Params: []task.Param{{Name: "who"}},
		Run: func(args task.Args) result.Result {
			got = append(got, args.String("who"))
			return result.Ok(nil)
		},
	})
	f := New(Spec{
		Name:   "arg_flow",
		Params: []task.Param{{Name: "who", Default: "world"}},
		Body: func(ctx context.Context, args task.Args) {
			record.Call(ctx, task.Args{"who": args["who"]})
		},
	})

	if _, err := f.Run(context.Background(), nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := f.Run(context.Background(), task.Args{"who": "gopher"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 2 || got[0] != "world" || got[1] != "gopher" {
		t.Fatalf("unexpected executions: %v", got)
	}
}
