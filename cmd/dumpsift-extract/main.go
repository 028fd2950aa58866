// Command dumpsift-extract streams zstd ndjson dumps through the record filters
// and writes the matches as csv, txt or zst
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
)

// exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the root command and maps the outcome to a process exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	runID := uuid.NewString()
	deps, closer, err := rootDeps(stderr, runID)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return exitConfig
	}
	defer func() { _ = closer.Close() }()

	a := &app{deps: deps, runID: runID}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCode(err)
	}
	return a.code
}
