package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rpcpool/sphx-index/internal/dict"
	"github.com/rpcpool/sphx-index/internal/dictreader"
	"github.com/rpcpool/sphx-index/internal/sphxfile"
)

// openDictionary loads the current dictionary and its dict_mode from the
// header metadata the build command stamped, returning the reader and the
// mode it was opened with.
func openDictionary(indexDir, indexName string) (*dictreader.Reader, dict.Mode, error) {
	curSet := sphxInputSet(indexDir, indexName)

	headerBuf, err := os.ReadFile(curSet.Path("sph"))
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	header, err := sphxfile.ReadHeader(headerBuf)
	if err != nil {
		return nil, 0, fmt.Errorf("header invalid: %w", err)
	}
	modeVal, _ := header.Meta.GetUint64([]byte("dict_mode"))
	mode := dict.Mode(modeVal)

	cpBuf, err := os.ReadFile(curSet.Path("spc"))
	if err != nil {
		return nil, 0, fmt.Errorf("read checkpoints: %w", err)
	}
	checkpoints, err := dict.DecodeCheckpoints(mode, cpBuf)
	if err != nil {
		return nil, 0, fmt.Errorf("decode checkpoints: %w", err)
	}

	r, err := dictreader.Open(curSet.Path("spi"), mode, checkpoints)
	if err != nil {
		return nil, 0, fmt.Errorf("open dictionary: %w", err)
	}
	return r, mode, nil
}

func newCmdDumpDict() *cli.Command {
	return &cli.Command{
		Name:        "dump-dict",
		Description: "Print the keyword-to-offset mapping for every checkpoint boundary in an index's dictionary.",
		ArgsUsage:   "<index-dir> <index-name>",
		Action: func(c *cli.Context) error {
			indexDir := c.Args().Get(0)
			indexName := c.Args().Get(1)
			if indexDir == "" || indexName == "" {
				return cli.Exit("index-dir and index-name are required", 1)
			}

			curSet := sphxInputSet(indexDir, indexName)
			cpBuf, err := os.ReadFile(curSet.Path("spc"))
			if err != nil {
				return fmt.Errorf("read checkpoints: %w", err)
			}
			headerBuf, err := os.ReadFile(curSet.Path("sph"))
			if err != nil {
				return fmt.Errorf("read header: %w", err)
			}
			header, err := sphxfile.ReadHeader(headerBuf)
			if err != nil {
				return err
			}
			modeVal, _ := header.Meta.GetUint64([]byte("dict_mode"))
			mode := dict.Mode(modeVal)

			checkpoints, err := dict.DecodeCheckpoints(mode, cpBuf)
			if err != nil {
				return err
			}
			for i, cp := range checkpoints {
				if mode == dict.CRCDictMode {
					fmt.Printf("checkpoint %d: first_word_id=%d offset=%d\n", i, cp.WordID, cp.Offset)
				} else {
					fmt.Printf("checkpoint %d: first_keyword=%q offset=%d\n", i, cp.FirstKeyword, cp.Offset)
				}
			}
			return nil
		},
	}
}

func sphxInputSet(dir, name string) sphxfile.Set {
	return sphxfile.Set{Dir: dir, Name: name, Lifecycle: sphxfile.LifecycleCur}
}
