package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/rpcpool/sphx-index/internal/dict"
	"github.com/rpcpool/sphx-index/internal/hitbuilder"
)

func printDictEntry(e hitbuilder.DictEntry) {
	fmt.Printf("word_id=%d doclist_offset=%d doc_count=%d hit_count=%d skiplist_offset=%d hitless=%t\n",
		e.WordID, e.DoclistOffset, e.DocCount, e.HitCount, e.SkiplistOffset, e.Hitless)
}

func newCmdLookup() *cli.Command {
	return &cli.Command{
		Name:        "lookup",
		Description: "Look up one keyword (or, in crc dict mode, one word id) in an index's dictionary.",
		ArgsUsage:   "<index-dir> <index-name> <keyword-or-word-id>",
		Action: func(c *cli.Context) error {
			indexDir := c.Args().Get(0)
			indexName := c.Args().Get(1)
			key := c.Args().Get(2)
			if indexDir == "" || indexName == "" || key == "" {
				return cli.Exit("index-dir, index-name, and a lookup key are required", 1)
			}

			r, mode, err := openDictionary(indexDir, indexName)
			if err != nil {
				return err
			}
			defer r.Close()

			if mode == dict.CRCDictMode {
				wordID, err := strconv.ParseUint(key, 10, 64)
				if err != nil {
					return cli.Exit(fmt.Sprintf("crc dict mode requires a numeric word id: %v", err), 1)
				}
				got, ok, err := r.LookupWordID(wordID)
				if err != nil {
					return err
				}
				if !ok {
					return cli.Exit(fmt.Sprintf("word id %d not found", wordID), 1)
				}
				printDictEntry(got)
				return nil
			}

			got, ok, err := r.Lookup([]byte(key))
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit(fmt.Sprintf("keyword %q not found", key), 1)
			}
			printDictEntry(got)
			return nil
		},
	}
}
