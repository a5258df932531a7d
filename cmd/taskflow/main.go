package main

import (
	"context"
	"fmt"
	"os"

	"taskflow/cli"
	"taskflow/config"
	"taskflow/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(cli.ExitFailure)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(cli.ExitFailure)
	}
	defer logger.Sync()

	app := cli.New(
		cli.WithConfig(cfg),
		cli.WithLogger(logger),
		cli.WithFlows(greetFlow, countFlow),
		cli.WithTasks(greetTask),
	)
	os.Exit(app.Execute(context.Background(), os.Args[1:]))
}
