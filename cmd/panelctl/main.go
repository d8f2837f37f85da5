package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ayatskii/panel-sub002/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(cli.ExitCode(run(os.Args[1:])))
}

// run executes one command. SIGINT and SIGTERM cancel its context, which stops
// watch loops and in-flight requests; teardown still flushes the journal.
func run(args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := cli.NewRootCmd(version)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
