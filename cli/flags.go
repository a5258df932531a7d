package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskflow/task"
)

// registerParamFlags declares one typed flag per formal parameter, using
// the parameter name verbatim. Parameters without a default are marked
// required.
func registerParamFlags(cmd *cobra.Command, params []task.Param) {
	for _, p := range params {
		usage := fmt.Sprintf("value for parameter %q", p.Name)
		switch p.EffectiveKind() {
		case task.KindInt:
			cmd.Flags().Int(p.Name, intDefault(p.Default), usage)
		case task.KindBool:
			def, _ := p.Default.(bool)
			cmd.Flags().Bool(p.Name, def, usage)
		case task.KindFloat:
			cmd.Flags().Float64(p.Name, floatDefault(p.Default), usage)
		default:
			def, _ := p.Default.(string)
			cmd.Flags().String(p.Name, def, usage)
		}
		if p.Required() {
			_ = cmd.MarkFlagRequired(p.Name)
		}
	}
}

// paramFlagValues collects the parsed flag values into a named binding.
func paramFlagValues(cmd *cobra.Command, params []task.Param) (task.Args, error) {
	out := make(task.Args, len(params))
	for _, p := range params {
		var v any
		var err error
		switch p.EffectiveKind() {
		case task.KindInt:
			v, err = cmd.Flags().GetInt(p.Name)
		case task.KindBool:
			v, err = cmd.Flags().GetBool(p.Name)
		case task.KindFloat:
			v, err = cmd.Flags().GetFloat64(p.Name)
		default:
			v, err = cmd.Flags().GetString(p.Name)
		}
		if err != nil {
			return nil, err
		}
		out[p.Name] = v
	}
	return out, nil
}

func intDefault(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func floatDefault(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
