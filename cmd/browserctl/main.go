// File: cmd/browserctl/main.go
/*
Copyright © 2025 Kyle McAllister (xkilldash9x@proton.me)
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	json "github.com/json-iterator/go"
	"github.com/xkilldash9x/browserctl/cmd"
	"github.com/xkilldash9x/browserctl/internal/observability"
)

// Define function variables for dependency injection/mocking in tests.
var (
	// Allows mocking os.Exit in tests.
	osExit = os.Exit
	// Allows swapping the command runner in tests.
	execute = cmd.Execute
)

// main is the entry point of the application.
func main() {
	defer handlePanic()

	// Set up a context that listens for interrupt signals (SIGINT, SIGTERM) for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	osExit(run(ctx))
}

// run executes the command line and maps the outcome to an exit code.
func run(ctx context.Context) int {
	if err := execute(ctx); err != nil {
		// An interrupted command already reported itself; leave quietly.
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return 130
		}
		return 1
	}
	return 0
}

// handlePanic reports a crash in the same JSON shape as any other failure.
func handlePanic() {
	if r := recover(); r != nil {
		observability.Sync()
		line, _ := json.Marshal(map[string]string{"error": fmt.Sprintf("panic: %v", r)})
		fmt.Fprintln(os.Stderr, string(line))
		observability.GetLogger().Sugar().Errorf("panic: %v\n%s", r, debug.Stack())
		observability.Sync()
		osExit(1)
	}
}
