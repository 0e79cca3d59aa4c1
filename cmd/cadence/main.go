package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cadence/internal/services"
)

const (
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.Execute()
	code := exitCode(err)
	if err != nil && code != exitInterrupted {
		fmt.Fprintln(stderr, err)
	}
	return code
}

// exitCode maps command errors onto exit statuses. Invalid input exits 2 and
// an interrupt exits 130 without a message.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, services.ErrValidation):
		return exitUsage
	default:
		return exitFailure
	}
}
