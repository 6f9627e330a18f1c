package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"calhours/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.0.1-dev"

func main() {
	// Cancel on SIGINT/SIGTERM so an in-flight calendar download stops.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:])
	stop()

	os.Exit(code)
}

func execute(ctx context.Context, args []string) int {
	rootCmd := cli.NewRootCmd(version)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var argErr *cli.ArgumentError
	if errors.As(err, &argErr) {
		fmt.Fprint(os.Stderr, rootCmd.UsageString())
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}
