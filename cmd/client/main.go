// Package main is the trailkeeper terminal client: it wires the session,
// query cache and mutation coordinator to a cobra command tree and an
// interactive shell.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func orNA(s string) string {
	return cmp.Or(s, "N/A")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{in: os.Stdin, out: os.Stdout, open: openStore}
	err := newRootCmd(c).ExecuteContext(ctx)
	if c.app != nil {
		c.app.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		stop()
		os.Exit(1)
	}
}
