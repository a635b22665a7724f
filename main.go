// Package main provides the entry point for the Lumina Kitchen command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Raikerian/go-lumina-kitchen/internal/commands"
)

func main() {
	// Cancelled on Ctrl+C or SIGTERM; each command then shuts its application
	// down gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
