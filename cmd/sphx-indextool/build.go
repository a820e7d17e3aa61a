package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/rpcpool/sphx-index/internal/dict"
	"github.com/rpcpool/sphx-index/internal/hitbuilder"
	"github.com/rpcpool/sphx-index/internal/ioutil"
	"github.com/rpcpool/sphx-index/internal/sphxfile"
)

func newCmdBuild() *cli.Command {
	var dictMode string
	var inlineHits bool
	return &cli.Command{
		Name:        "build",
		Description: "Build an sphx index from a hit dump: lines of \"keyword\\tdocID\\tfield\\tpos\", grouped by keyword.",
		ArgsUsage:   "<hit-dump-path> <index-dir> <index-name>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dict-mode",
				Usage:       "crc or keywords",
				Value:       "crc",
				Destination: &dictMode,
			},
			&cli.BoolFlag{
				Name:        "inline-hits",
				Usage:       "use the inline single-hit doclist shortcut",
				Value:       true,
				Destination: &inlineHits,
			},
		},
		Action: func(c *cli.Context) error {
			dumpPath := c.Args().Get(0)
			indexDir := c.Args().Get(1)
			indexName := c.Args().Get(2)
			if dumpPath == "" || indexDir == "" || indexName == "" {
				return cli.Exit("hit-dump-path, index-dir, and index-name are required", 1)
			}

			mode := dict.CRCDictMode
			if dictMode == "keywords" {
				mode = dict.WordDictMode
			}

			startedAt := time.Now()
			defer func() {
				slog.Info("build finished", "elapsed", time.Since(startedAt))
			}()

			newSet := sphxfile.Set{Dir: indexDir, Name: indexName, Lifecycle: sphxfile.LifecycleNew}

			keywords, err := readHitDump(dumpPath)
			if err != nil {
				return err
			}

			table := dict.NewTable(nil)
			bar := progressbar.Default(int64(len(keywords)), "indexing hits")

			builder, err := hitbuilder.New(
				newSet.Path("spd"),
				newSet.Path("spp"),
				newSet.Path("spe"),
				hitbuilder.Options{InlineHitFormat: inlineHits},
			)
			if err != nil {
				return err
			}

			var scratch []dict.Entry
			for _, kw := range keywords {
				wordID := table.Intern([]byte(kw.word))
				for _, h := range kw.hits {
					if err := builder.Feed(hitbuilder.Hit{
						WordID:  wordID,
						DocID:   h.docID,
						WordPos: hitbuilder.MakeWordPos(h.field, h.pos),
					}, 0); err != nil {
						return fmt.Errorf("feed %q: %w", kw.word, err)
					}
				}
				bar.Add(1)
			}
			if err := builder.Feed(hitbuilder.Hit{}, 0); err != nil {
				return err
			}
			if err := builder.CloseAndFinalize(); err != nil {
				return err
			}

			entries := builder.Entries()
			for i, kw := range keywords {
				scratch = append(scratch, dict.Entry{Keyword: []byte(kw.word), DictEntry: entries[i]})
			}
			sort.Slice(scratch, func(i, j int) bool {
				if mode == dict.CRCDictMode {
					return scratch[i].DictEntry.WordID < scratch[j].DictEntry.WordID
				}
				return string(scratch[i].Keyword) < string(scratch[j].Keyword)
			})

			scratchPath := filepath.Join(os.TempDir(), indexName+".dictscratch")
			sw, err := dict.CreateScratchWriter(scratchPath)
			if err != nil {
				return err
			}
			if err := sw.WriteBatch(scratch); err != nil {
				return err
			}
			if err := sw.Close(); err != nil {
				return err
			}
			defer os.Remove(scratchPath)

			dictOut, err := ioutil.CreateWriter(newSet.Path("spi"), nil)
			if err != nil {
				return err
			}
			if _, err := dictOut.Write([]byte{0xD1}); err != nil {
				return err
			}
			finalizer := &dict.Finalizer{Mode: mode}
			checkpoints, err := finalizer.Finalize([]string{scratchPath}, 0, dictOut)
			if err != nil {
				return err
			}
			if err := dictOut.CloseAndFinalize(); err != nil {
				return err
			}
			if err := os.WriteFile(newSet.Path("spc"), dict.EncodeCheckpoints(mode, checkpoints), 0o644); err != nil {
				return err
			}

			header := sphxfile.NewHeader()
			if err := header.Meta.AddString([]byte("name"), indexName); err != nil {
				return err
			}
			if err := header.Meta.AddUint64([]byte("keyword_count"), uint64(len(keywords))); err != nil {
				return err
			}
			if err := header.Meta.AddUint64([]byte("dict_mode"), uint64(mode)); err != nil {
				return err
			}
			headerBuf, err := header.Bytes()
			if err != nil {
				return err
			}
			if err := os.WriteFile(newSet.Path("sph"), headerBuf, 0o644); err != nil {
				return err
			}

			if err := sphxfile.Rotate(indexDir, indexName); err != nil {
				return err
			}

			dictSize, _ := os.Stat(filepath.Join(indexDir, fmt.Sprintf("cur.%s.spi", indexName)))
			if dictSize != nil {
				slog.Info("dictionary written", "bytes", humanize.Bytes(uint64(dictSize.Size())))
			}
			return nil
		},
	}
}

type hitLine struct {
	docID uint64
	field uint32
	pos   uint32
}

type keywordHits struct {
	word string
	hits []hitLine
}

// readHitDump reads a tab-separated hit dump and groups consecutive and
// non-consecutive occurrences of the same keyword together, sorting each
// keyword's hits by (doc, field, position) ascending so they satisfy the
// hit builder's ordering contract.
func readHitDump(path string) ([]keywordHits, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hit dump: %w", err)
	}
	defer f.Close()

	byWord := map[string][]hitLine{}
	var order []string

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed hit dump line %q", line)
		}
		docID, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad doc id in %q: %w", line, err)
		}
		field, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad field in %q: %w", line, err)
		}
		pos, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad position in %q: %w", line, err)
		}
		word := fields[0]
		if _, ok := byWord[word]; !ok {
			order = append(order, word)
		}
		byWord[word] = append(byWord[word], hitLine{docID: docID, field: uint32(field), pos: uint32(pos)})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sort.Strings(order)
	result := make([]keywordHits, 0, len(order))
	for _, word := range order {
		hits := byWord[word]
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].docID != hits[j].docID {
				return hits[i].docID < hits[j].docID
			}
			if hits[i].field != hits[j].field {
				return hits[i].field < hits[j].field
			}
			return hits[i].pos < hits[j].pos
		})
		result = append(result, keywordHits{word: word, hits: hits})
	}
	return result, nil
}
