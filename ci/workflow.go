// Package ci lowers a flow plan into a declarative, dispatch-triggered
// workflow document.
//
// The flow is planned with one input placeholder per formal parameter, so
// every bound value in every node is either a literal default or a
// symbolic `${{ inputs.<name> }}` reference the CI system substitutes at
// trigger time. The document serializes deterministically (yaml.v3 sorts
// map keys), which makes it snapshot-testable.
package ci

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"taskflow/flow"
	"taskflow/task"
)

// Input is one workflow_dispatch trigger input.
type Input struct {
	Required bool   `yaml:"required"`
	Type     string `yaml:"type"`
	// Default keeps its native type: integer defaults stay integers.
	Default any `yaml:"default,omitempty"`
}

// Dispatch is the workflow_dispatch trigger block.
type Dispatch struct {
	Inputs map[string]Input `yaml:"inputs,omitempty"`
}

// Triggers is the workflow `on` block.
type Triggers struct {
	WorkflowDispatch Dispatch `yaml:"workflow_dispatch"`
}

// JobStep is one step of a workflow job.
type JobStep struct {
	Name string `yaml:"name"`
	Run  string `yaml:"run"`
}

// Job is one workflow job.
type Job struct {
	RunsOn string    `yaml:"runs-on"`
	Steps  []JobStep `yaml:"steps"`
}

// Workflow is the compiled pipeline document.
type Workflow struct {
	Name string         `yaml:"name"`
	On   Triggers       `yaml:"on"`
	Jobs map[string]Job `yaml:"jobs"`
}

// Encode serializes the workflow document.
func (w *Workflow) Encode() ([]byte, error) {
	return yaml.Marshal(w)
}

// Options tune workflow rendering.
type Options struct {
	// RunsOn selects the job runner label. Defaults to "ubuntu-latest".
	RunsOn string
}

// RenderFlowWorkflow compiles the flow into a workflow document whose
// first step invokes scriptPath to set up the workspace (substituting each
// parameter's placeholder rendering into a --<name> <value> flag) and
// whose remaining steps invoke run-step for each plan step in order.
func RenderFlowWorkflow(f *flow.Flow, scriptPath string, opts Options) (*Workflow, error) {
	if f == nil {
		return nil, fmt.Errorf("nil flow")
	}
	if strings.TrimSpace(scriptPath) == "" {
		return nil, fmt.Errorf("script path is required")
	}
	runsOn := opts.RunsOn
	if runsOn == "" {
		runsOn = "ubuntu-latest"
	}

	params := f.Params()
	bindings := make(task.Args, len(params))
	placeholders := make(map[string]*task.Placeholder, len(params))
	inputs := make(map[string]Input, len(params))
	for _, p := range params {
		ph := task.Input(p.Name)
		ph.Type = inputType(p.EffectiveKind())
		placeholders[p.Name] = ph
		bindings[p.Name] = ph

		in := Input{Required: p.Required(), Type: ph.Type}
		if !p.Required() {
			in.Default = p.Default
		}
		inputs[p.Name] = in
	}

	p, err := f.Plan(bindings)
	if err != nil {
		return nil, err
	}

	setup := strings.Builder{}
	setup.WriteString(scriptPath)
	setup.WriteString(" setup-workspace ")
	setup.WriteString(f.KebabName())
	for _, prm := range params {
		setup.WriteString(" --")
		setup.WriteString(prm.Name)
		setup.WriteString(" ")
		setup.WriteString(placeholders[prm.Name].String())
	}

	steps := make([]JobStep, 0, len(p.Steps())+1)
	steps = append(steps, JobStep{Name: "Setup workspace", Run: setup.String()})
	for _, s := range p.Steps() {
		steps = append(steps, JobStep{
			Name: s.Name,
			Run:  fmt.Sprintf("%s run-step %s %s", scriptPath, f.KebabName(), s.Name),
		})
	}

	return &Workflow{
		Name: f.Name(),
		On:   Triggers{WorkflowDispatch: Dispatch{Inputs: inputs}},
		Jobs: map[string]Job{
			f.Name(): {RunsOn: runsOn, Steps: steps},
		},
	}, nil
}

func inputType(k task.Kind) string {
	switch k {
	case task.KindInt, task.KindFloat:
		return "number"
	case task.KindBool:
		return "boolean"
	default:
		return "string"
	}
}
