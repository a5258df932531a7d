// Package cli maps declared flows and tasks onto a command-line surface.
//
// Each registered flow and task becomes a command named after it in
// kebab-case, with one typed flag per formal parameter (parameter names
// are used verbatim). Step-mode execution is exposed through
// setup-workspace and run-step, and the workflow compiler through
// render-workflow. Exit code 0 means Ok; any Err result exits non-zero
// with the error printed to stderr.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"taskflow/config"
	"taskflow/flow"
	"taskflow/task"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// exitError carries a semantic exit code out of a command body.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func failuref(format string, args ...any) error {
	return &exitError{code: ExitFailure, msg: fmt.Sprintf(format, args...)}
}

// App is a configured CLI surface over a set of declared flows and tasks.
type App struct {
	binary string

	flows     map[string]*flow.Flow // by kebab-case name
	flowOrder []string
	tasks     map[string]*task.Task
	taskOrder []string

	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
	errOut io.Writer
}

// Option configures an App.
type Option func(*App)

// WithFlows registers flows, addressable by their kebab-case names.
func WithFlows(flows ...*flow.Flow) Option {
	return func(a *App) {
		for _, f := range flows {
			name := f.KebabName()
			if _, dup := a.flows[name]; dup {
				panic(fmt.Sprintf("duplicate flow command %q", name))
			}
			a.flows[name] = f
			a.flowOrder = append(a.flowOrder, name)
		}
	}
}

// WithTasks registers directly invocable tasks.
func WithTasks(tasks ...*task.Task) Option {
	return func(a *App) {
		for _, t := range tasks {
			name := kebab(t.Name())
			if _, dup := a.tasks[name]; dup {
				panic(fmt.Sprintf("duplicate task command %q", name))
			}
			a.tasks[name] = t
			a.taskOrder = append(a.taskOrder, name)
		}
	}
}

// WithConfig overrides the runtime configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) { a.cfg = cfg }
}

// WithLogger sets the structured logger used by step execution.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithOutput redirects standard and error output (used by tests).
func WithOutput(out, errOut io.Writer) Option {
	return func(a *App) {
		a.out = out
		a.errOut = errOut
	}
}

// WithBinaryName sets the name the root command reports in usage text.
func WithBinaryName(name string) Option {
	return func(a *App) { a.binary = name }
}

// New assembles an App.
func New(opts ...Option) *App {
	a := &App{
		binary: "taskflow",
		flows:  make(map[string]*flow.Flow),
		tasks:  make(map[string]*task.Task),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cfg == nil {
		a.cfg = config.Default()
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Execute dispatches the argument slice (excluding argv[0]) and returns
// the process exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	root := a.buildRoot()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	if err := root.ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(a.errOut, ee.msg)
			}
			return ee.code
		}
		fmt.Fprintln(a.errOut, err)
		return ExitUsage
	}
	return ExitSuccess
}

func (a *App) flowByKebab(name string) (*flow.Flow, error) {
	f, ok := a.flows[name]
	if !ok {
		return nil, fmt.Errorf("unknown flow %q", name)
	}
	return f, nil
}
