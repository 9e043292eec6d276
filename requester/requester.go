package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/PeladoCollado/requester/requester/app"
	"github.com/PeladoCollado/requester/requester/logger"
)

func main() {
	defer logger.Sync()

	cfg, err := app.ParseConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Unable to parse configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if _, err := app.Run(ctx, cfg, app.RunOptions{Stdin: os.Stdin, Stdout: os.Stdout}); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to run requester: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}
