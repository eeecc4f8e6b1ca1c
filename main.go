// goecho - a network echo probe: bring up a link with bounded retry,
// then run a single timed echo transaction.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"goecho/cmd"
	ncerr "goecho/internal/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "goecho: %v\n", err)
		os.Exit(ncerr.ExitCode(err))
	}
}
