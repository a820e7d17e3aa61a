// Command sphx-indextool builds, verifies, and inspects sphx index file
// sets. It is a thin wrapper over the internal/ packages; the interesting
// work happens there.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
)

var gitCommitSHA = ""

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			slog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}

		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "sphx-indextool",
		Version:     gitCommitSHA,
		Description: "Build, verify, and inspect sphx on-disk search index file sets.",
		Commands: []*cli.Command{
			newCmdBuild(),
			newCmdVerify(),
			newCmdDumpDict(),
			newCmdLookup(),
		},
	}

	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("sphx-indextool exited with error", "error", err)
		os.Exit(1)
	}
}
