// Command tripctl drives the itinerary service from the terminal.
//
//	tripctl [-api URL] [-token T] [-user N] <command> [args]
//
// Commands: list, summary, route <id>, create -f trip.yaml, delete <id>,
// add-activity <itinerary> <destination> <type> <name>, watch, version.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "tripctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli, rest, err := parseGlobal(args, stderr)
	if err != nil {
		return err
	}
	cli.out = stdout
	cli.logger = log.New(stderr, "tripctl: ", 0)
	if len(rest) == 0 {
		return errUsage
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}
	return cmd(ctx, cli, rest[1:])
}
