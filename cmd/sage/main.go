// Command sage answers D&D 5e rules questions from the SRD.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/cli"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := newWiring()
	defer func() {
		if err := w.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: close: %v\n", err)
		}
	}()

	cli.SetVersion(version)
	cli.SetWiring(w)

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
