package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newShellCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run an interactive session",
		Long: `shell keeps one client running so that listings and details are served
from the cache between commands. Type 'help' for the command list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.inShell = true
			defer func() {
				c.inShell = false
				if c.app != nil {
					c.app.Close()
					c.app = nil
				}
			}()
			repl(cmd.Context(), c)
			return nil
		},
	}
}

// repl reads commands until "exit" or the end of input. Each line runs
// against a fresh command tree so flags do not leak between lines.
func repl(ctx context.Context, c *cli) {
	// the prompter owns the input so forms and commands share one buffer
	p := c.app.prompt

	for {
		if path := c.app.nav.Path(); path != "" {
			fmt.Fprintf(c.out, "trailkeeper %s> ", path)
		} else {
			fmt.Fprint(c.out, "trailkeeper> ")
		}
		line, err := p.Next()
		if err != nil {
			fmt.Fprintln(c.out)
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "exit", "quit":
			fmt.Fprintln(c.out, "Bye")
			return
		case "back":
			c.app.nav.Back()
			continue
		}

		sub := &cobra.Command{Use: "", SilenceUsage: true, SilenceErrors: true}
		sub.SetOut(c.out)
		sub.SetErr(c.out)
		sub.AddCommand(newCommands(c)...)
		sub.SetArgs(args)
		if err := sub.ExecuteContext(ctx); err != nil {
			fmt.Fprintln(c.out, "Error:", describeError(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}
