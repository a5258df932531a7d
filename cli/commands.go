package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"taskflow/ci"
	"taskflow/executor"
	"taskflow/flow"
	"taskflow/task"
	"taskflow/workspace"
)

func kebab(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

func (a *App) buildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           a.binary,
		Short:         "task/flow orchestration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	for _, name := range a.flowOrder {
		root.AddCommand(a.flowCommand(a.flows[name]))
	}
	for _, name := range a.taskOrder {
		root.AddCommand(a.taskCommand(a.tasks[name]))
	}
	root.AddCommand(a.setupWorkspaceCommand())
	root.AddCommand(a.runStepCommand())
	root.AddCommand(a.renderWorkflowCommand())
	return root
}

// flowCommand invokes the flow directly: plan, then execute every step in
// recorded order in this process.
func (a *App) flowCommand(f *flow.Flow) *cobra.Command {
	cmd := &cobra.Command{
		Use:   f.KebabName(),
		Short: shortDoc(f.Doc()),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := paramFlagValues(cmd, f.Params())
			if err != nil {
				return err
			}
			res, err := f.Run(cmd.Context(), args)
			if err != nil {
				return failuref("%v", err)
			}
			if res.Failed() {
				return failuref("%s", res.Err())
			}
			return nil
		},
	}
	registerParamFlags(cmd, f.Params())
	return cmd
}

// taskCommand invokes a single task immediately, outside any plan.
func (a *App) taskCommand(t *task.Task) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kebab(t.Name()),
		Short: shortDoc(t.Info().Doc()),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := paramFlagValues(cmd, t.Info().Params())
			if err != nil {
				return err
			}
			res := t.Call(cmd.Context(), args)
			if res.Failed() {
				return failuref("%s", res.Err())
			}
			if v := res.Value(); v != nil {
				fmt.Fprintln(a.out, v)
			}
			return nil
		},
	}
	registerParamFlags(cmd, t.Info().Params())
	return cmd
}

// setupWorkspaceCommand has one subcommand per registered flow, because
// the parameter flags differ per flow.
func (a *App) setupWorkspaceCommand() *cobra.Command {
	parent := &cobra.Command{
		Use:   "setup-workspace <flow>",
		Short: "initialize the step-mode workspace for a flow run",
	}
	for _, name := range a.flowOrder {
		f := a.flows[name]
		sub := &cobra.Command{
			Use:  f.KebabName(),
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				args, err := paramFlagValues(cmd, f.Params())
				if err != nil {
					return err
				}
				runner, err := a.runner(f)
				if err != nil {
					return failuref("%v", err)
				}
				if err := runner.SetupWorkspace(f, args); err != nil {
					return failuref("%v", err)
				}
				return nil
			},
		}
		registerParamFlags(sub, f.Params())
		parent.AddCommand(sub)
	}
	return parent
}

func (a *App) runStepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run-step <flow> <step>",
		Short: "execute one named step of a flow against its workspace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.flowByKebab(args[0])
			if err != nil {
				return err
			}
			runner, err := a.runner(f)
			if err != nil {
				return failuref("%v", err)
			}
			res := runner.RunStep(f, args[1])
			if res.Failed() {
				return failuref("%s", res.Err())
			}
			return nil
		},
	}
}

func (a *App) renderWorkflowCommand() *cobra.Command {
	var script string
	var output string
	cmd := &cobra.Command{
		Use:   "render-workflow <flow>",
		Short: "compile a flow into a dispatch-triggered workflow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.flowByKebab(args[0])
			if err != nil {
				return err
			}
			wf, err := ci.RenderFlowWorkflow(f, script, ci.Options{})
			if err != nil {
				return failuref("%v", err)
			}
			data, err := wf.Encode()
			if err != nil {
				return failuref("%v", err)
			}
			if output == "" {
				fmt.Fprint(a.out, string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return failuref("%v", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&script, "script", "taskflow", "command line the generated workflow invokes")
	cmd.Flags().StringVar(&output, "output", "", "write the document to a file instead of stdout")
	return cmd
}

func (a *App) runner(f *flow.Flow) (*executor.Runner, error) {
	ws, err := workspace.New(filepath.Join(a.cfg.WorkspaceDir, f.KebabName()))
	if err != nil {
		return nil, err
	}
	return executor.NewRunner(ws, a.logger)
}

func shortDoc(doc string) string {
	if i := strings.IndexByte(doc, '\n'); i >= 0 {
		return doc[:i]
	}
	return doc
}
