package main

import (
	"context"
	"fmt"

	"taskflow/actor"
	"taskflow/flow"
	"taskflow/result"
	"taskflow/task"
)

// Demo declarations exercising the whole surface: a plain task, an actor
// class with a linear method chain, and two flows over them.

var greetTask = task.New(task.Spec{
	Name:   "greet",
	Module: "demo",
	Doc:    "build a greeting for a name",
	Params: []task.Param{{Name: "name"}},
	Run: func(args task.Args) result.Result {
		return result.Ok(fmt.Sprintf("Hello, %s!", args.String("name")))
	},
})

var announceTask = task.New(task.Spec{
	Name:   "announce",
	Module: "demo",
	Doc:    "print a previously built greeting",
	Params: []task.Param{{Name: "greeting"}},
	Run: func(args task.Args) result.Result {
		fmt.Println(args.String("greeting"))
		return result.Ok(nil)
	},
})

type counterState struct {
	Count int `json:"count"`
}

var counterClass = actor.NewClass(actor.Spec{
	Name:   "counter",
	Module: "demo",
	Doc:    "a counter whose mutations form a single-writer chain",
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
		{
			Name: "report",
			Run: func(state any, _ task.Args) result.Result {
				c := state.(*counterState)
				fmt.Printf("count is %d\n", c.Count)
				return result.Ok(c.Count)
			},
		},
	},
})

var greetFlow = flow.New(flow.Spec{
	Name:   "greet_flow",
	Doc:    "greet a name and announce the greeting",
	Params: []task.Param{{Name: "name"}},
	Body: func(ctx context.Context, args task.Args) {
		greeting := greetTask.Call(ctx, task.Args{"name": args["name"]})
		announceTask.Call(ctx, task.Args{"greeting": greeting.Value()})
	},
})

var countFlow = flow.New(flow.Spec{
	Name:   "count_flow",
	Doc:    "count up to a bound with a stateful counter",
	Params: []task.Param{{Name: "count_to", Default: 10}},
	Body: func(ctx context.Context, args task.Args) {
		c := counterClass.New(ctx, task.Args{"start": 0})
		c.Call(ctx, "increment", task.Args{"amount": args["count_to"]})
		c.Call(ctx, "report", nil)
	},
})
