package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rpcpool/sphx-index/internal/sphxfile"
)

func newCmdVerify() *cli.Command {
	return &cli.Command{
		Name:        "verify",
		Description: "Check an index's current file set has a valid header and every required extension present.",
		ArgsUsage:   "<index-dir> <index-name>",
		Action: func(c *cli.Context) error {
			indexDir := c.Args().Get(0)
			indexName := c.Args().Get(1)
			if indexDir == "" || indexName == "" {
				return cli.Exit("index-dir and index-name are required", 1)
			}

			curSet := sphxfile.Set{Dir: indexDir, Name: indexName, Lifecycle: sphxfile.LifecycleCur}

			headerBuf, err := os.ReadFile(curSet.Path("sph"))
			if err != nil {
				return fmt.Errorf("read header: %w", err)
			}
			header, err := sphxfile.ReadHeader(headerBuf)
			if err != nil {
				return fmt.Errorf("header invalid: %w", err)
			}
			slog.Info("header ok", "version", header.Version, "build_id", header.BuildID)

			required := []string{"spd", "spp", "spe", "spi"}
			for _, ext := range required {
				if _, err := os.Stat(curSet.Path(ext)); err != nil {
					return fmt.Errorf("missing required file %s.%s: %w", indexName, ext, err)
				}
			}
			slog.Info("file set ok", "required_extensions", required)
			return nil
		},
	}
}
