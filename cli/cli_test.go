package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"taskflow/actor"
	"taskflow/config"
	"taskflow/flow"
	"taskflow/result"
	"taskflow/task"
)

type fixtures struct {
	app    *App
	out    *bytes.Buffer
	errOut *bytes.Buffer

	argSeen  *int
	hitCount *int
}

func newFixtures(t *testing.T) *fixtures {
	t.Helper()

	hitCount := new(int)
	argSeen := new(int)

	work := task.New(task.Spec{
		Name: "work",
		Run: func(task.Args) result.Result {
			*hitCount++
			return result.Ok(nil)
		},
	})
	breakThings := task.New(task.Spec{
		Name: "break_things",
		Run:  func(task.Args) result.Result { return result.Err("things broke") },
	})
	useArg := task.New(task.Spec{
		Name:   "use_arg",
		Params: []task.Param{{Name: "initial"}},
		Run: func(args task.Args) result.Result {
			*argSeen = args.Int("initial")
			return result.Ok(nil)
		},
	})
	echo := task.New(task.Spec{
		Name:   "echo",
		Params: []task.Param{{Name: "msg", Default: "hello"}},
		Run: func(args task.Args) result.Result {
			return result.Ok(args.String("msg"))
		},
	})

	simple := flow.New(flow.Spec{
		Name: "simple_flow",
		Body: func(ctx context.Context, _ task.Args) {
			work.Call(ctx, nil)
		},
	})
	failFast := flow.New(flow.Spec{
		Name: "fail_fast_flow",
		Body: func(ctx context.Context, _ task.Args) {
			work.Call(ctx, nil)
			breakThings.Call(ctx, nil)
			work.Call(ctx, nil)
		},
	})
	argFlow := flow.New(flow.Spec{
		Name:   "arg_flow",
		Params: []task.Param{{Name: "initial", Kind: task.KindInt}},
		Body: func(ctx context.Context, args task.Args) {
			useArg.Call(ctx, task.Args{"initial": args["initial"]})
		},
	})

	type counterState struct {
		Count int `json:"count"`
	}
	counter := actor.NewClass(actor.Spec{
		Name:   "counter",
		Params: []task.Param{{Name: "start", Default: 0}},
		Init: func(args task.Args) any {
			return &counterState{Count: args.Int("start")}
		},
		State: func() any { return &counterState{} },
		Methods: []actor.MethodSpec{
			{
				Name:   "increment",
				Params: []task.Param{{Name: "amount", Default: 1}},
				Run: func(state any, args task.Args) result.Result {
					c := state.(*counterState)
					c.Count += args.Int("amount")
					return result.Ok(c.Count)
				},
			},
		},
	})
	countFlow := flow.New(flow.Spec{
		Name:   "count_flow",
		Params: []task.Param{{Name: "count_to", Default: 10}},
		Body: func(ctx context.Context, args task.Args) {
			h := counter.New(ctx, nil)
			h.Call(ctx, "increment", task.Args{"amount": args["count_to"]})
		},
	})

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	app := New(
		WithFlows(simple, failFast, argFlow, countFlow),
		WithTasks(echo),
		WithConfig(&config.Config{
			WorkspaceDir: filepath.Join(t.TempDir(), "workspaces"),
			LogLevel:     "info",
		}),
		WithOutput(out, errOut),
	)
	return &fixtures{app: app, out: out, errOut: errOut, argSeen: argSeen, hitCount: hitCount}
}

func (fx *fixtures) run(t *testing.T, args ...string) int {
	t.Helper()
	return fx.app.Execute(context.Background(), args)
}

func TestSimpleFlowExitsZero(t *testing.T) {
	fx := newFixtures(t)
	if code := fx.run(t, "simple-flow"); code != ExitSuccess {
		t.Fatalf("exit %d, stderr: %s", code, fx.errOut)
	}
	if *fx.hitCount != 1 {
		t.Fatalf("expected one task execution, got %d", *fx.hitCount)
	}
}

func TestFailFastFlowExitsNonZero(t *testing.T) {
	fx := newFixtures(t)
	code := fx.run(t, "fail-fast-flow")
	if code != ExitFailure {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(fx.errOut.String(), "things broke") {
		t.Fatalf("stderr should carry the task error: %s", fx.errOut)
	}
	// The step after the failure must not have run.
	if *fx.hitCount != 1 {
		t.Fatalf("expected fail-fast after one task, got %d executions", *fx.hitCount)
	}
}

func TestArgFlowParsesNamedParameter(t *testing.T) {
	fx := newFixtures(t)
	if code := fx.run(t, "arg-flow", "--initial", "42"); code != ExitSuccess {
		t.Fatalf("exit %d, stderr: %s", code, fx.errOut)
	}
	if *fx.argSeen != 42 {
		t.Fatalf("parameter not threaded through, saw %d", *fx.argSeen)
	}
}

func TestMissingRequiredFlagFails(t *testing.T) {
	fx := newFixtures(t)
	if code := fx.run(t, "arg-flow"); code == ExitSuccess {
		t.Fatalf("missing required flag must not exit zero")
	}
}

func TestUnknownFlowNameFails(t *testing.T) {
	fx := newFixtures(t)
	if code := fx.run(t, "no-such-flow"); code == ExitSuccess {
		t.Fatalf("unknown command must not exit zero")
	}
}

func TestDirectTaskInvocationPrintsValue(t *testing.T) {
	fx := newFixtures(t)
	if code := fx.run(t, "echo", "--msg", "hi there"); code != ExitSuccess {
		t.Fatalf("exit %d, stderr: %s", code, fx.errOut)
	}
	if !strings.Contains(fx.out.String(), "hi there") {
		t.Fatalf("stdout should carry the payload: %q", fx.out.String())
	}
}

func TestStepModeEndToEnd(t *testing.T) {
	fx := newFixtures(t)
	if code := fx.run(t, "setup-workspace", "count-flow", "--count_to", "5"); code != ExitSuccess {
		t.Fatalf("setup exit %d, stderr: %s", code, fx.errOut)
	}
	if code := fx.run(t, "run-step", "count-flow", "step_1_counter_init"); code != ExitSuccess {
		t.Fatalf("init step exit %d, stderr: %s", code, fx.errOut)
	}
	if code := fx.run(t, "run-step", "count-flow", "step_2_increment"); code != ExitSuccess {
		t.Fatalf("increment step exit %d, stderr: %s", code, fx.errOut)
	}
}

func TestRunStepUnknownStepExitsNonZero(t *testing.T) {
	fx := newFixtures(t)
	if code := fx.run(t, "setup-workspace", "count-flow"); code != ExitSuccess {
		t.Fatalf("setup exit %d, stderr: %s", code, fx.errOut)
	}
	code := fx.run(t, "run-step", "count-flow", "step_9_bogus")
	if code != ExitFailure {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(fx.errOut.String(), "unknown step") {
		t.Fatalf("stderr should name the problem: %s", fx.errOut)
	}
}

func TestRenderWorkflowWritesDocument(t *testing.T) {
	fx := newFixtures(t)
	if code := fx.run(t, "render-workflow", "count-flow", "--script", "pipeline.sh"); code != ExitSuccess {
		t.Fatalf("exit %d, stderr: %s", code, fx.errOut)
	}
	doc := fx.out.String()
	if !strings.Contains(doc, "workflow_dispatch") {
		t.Fatalf("document should declare a dispatch trigger:\n%s", doc)
	}
	if !strings.Contains(doc, "--count_to ${{ inputs.count_to }}") {
		t.Fatalf("setup step should substitute the input placeholder:\n%s", doc)
	}
}
