// Command branchctl registers and updates company branches, stored
// as event-sourced aggregates in the configured Event Store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/get-eventually/eventcore/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(nil).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "branchctl:", err)
		stop()
		os.Exit(1)
	}
}
