// Copyright (C) 2025-2026, VileTech contributors
//
// This file is part of the VileTech toolkit.
//
// VileTech is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// VileTech is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VileTech.  If not, see <https://www.gnu.org/licenses/>.

// vbmap rebuilds the BLOCKMAP lump of every level in a WAD. Levels are
// independent, so each gets its own builder on its own goroutine.
package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Brugarolas/viletech/blockmap"
	"github.com/Brugarolas/viletech/wad"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
)

// Set at build.
var version = "v0.1.0"

type config struct {
	Input     string `cli:"" env:"VBMAP_INPUT"     help:"Input WAD file."`
	Output    string `cli:"" env:"VBMAP_OUTPUT"    help:"Output WAD file."`
	Packed    bool   `cli:"" env:"VBMAP_PACKED"    help:"Share identical and suffix cell lists across cells."`
	Levels    string `cli:"" env:"VBMAP_LEVELS"    help:"Comma-separated level names to rebuild (all when empty)."`
	LogLevel  string `cli:"" env:"VBMAP_LOG_LEVEL" help:"Log level (debug|info|warning|error)."`
	LogIndent bool   `cli:"" env:"VBMAP_LOG_INDENT" help:"Indent logs."`
	Version   bool   `cli:"" env:"-"               help:"Show version."`
	Help      bool   `cli:"" env:"-"               help:"Show help."`
}

type buildResult struct {
	ref wad.LevelRef
	bm  *blockmap.Blockmap
	err error
}

func main() {
	conf := config{
		Packed:   true,
		LogLevel: logs.InfoLevel.String(),
	}

	cli.Register().
		Help("Rebuilds BLOCKMAP lumps in a WAD.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	if conf.Input == "" || conf.Output == "" {
		logs.Fatal(errors.New("both input and output paths are required"))
	}

	f, err := wad.ReadFile(conf.Input)
	if err != nil {
		logs.Fatal(err)
	}

	refs := filterLevels(f.Levels(), conf.Levels)
	if len(refs) == 0 {
		logs.Fatal(errors.New("no matching levels in input").
			WithTag("path", conf.Input).
			WithTag("filter", conf.Levels))
	}

	results := make([]buildResult, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref wad.LevelRef) {
			defer wg.Done()
			results[i] = buildLevel(f, ref, conf.Packed)
		}(i, ref)
	}
	wg.Wait()

	failed := false
	for _, res := range results {
		if res.err != nil {
			failed = true
			logs.WithTag("level", res.ref.Name).Error(res.err)
			continue
		}
		report(res)
	}
	// Inserting a missing BLOCKMAP lump shifts every later marker index, so
	// lumps are applied back to front to keep the remaining refs valid.
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].err == nil {
			f.SetLevelLump(results[i].ref, "BLOCKMAP", results[i].bm.Bytes())
		}
	}
	if failed {
		os.Exit(1)
	}

	if err := f.WriteFile(conf.Output); err != nil {
		logs.Fatal(err)
	}
	logs.WithTag("path", conf.Output).
		WithTag("levels", len(refs)).
		Info("wad written")
}

func buildLevel(f *wad.File, ref wad.LevelRef, packed bool) buildResult {
	geo, err := f.LoadGeometry(ref)
	if err != nil {
		return buildResult{ref: ref, err: err}
	}
	if b, ok := geo.Bounds(); ok {
		logs.WithTag("level", ref.Name).
			WithTag("lines", geo.Len()).
			WithTag("min_x", b.MinX).
			WithTag("min_y", b.MinY).
			WithTag("max_x", b.MaxX).
			WithTag("max_y", b.MaxY).
			Debug("level geometry loaded")
	}
	bm, err := blockmap.NewBuilder(blockmap.Config{Packed: packed}).Build(geo)
	if err != nil {
		return buildResult{ref: ref, err: errors.New("blockmap build failed").
			WithTag("level", ref.Name).
			Wrap(err)}
	}
	return buildResult{ref: ref, bm: bm}
}

func report(res buildResult) {
	l := logs.WithTag("level", res.ref.Name).
		WithTag("bytes", res.bm.Size()).
		WithTag("largest_offset", res.bm.LargestOffset)
	if res.bm.TooBigForVanilla {
		// Offsets past 32767 read as negative in engines treating them as
		// signed. Ports reading unsigned are fine.
		l.Warn("blockmap exceeds the vanilla signed-offset limit")
		return
	}
	l.Info("blockmap built")
}

func filterLevels(refs []wad.LevelRef, filter string) []wad.LevelRef {
	if filter == "" {
		return refs
	}
	wanted := map[string]bool{}
	for _, name := range strings.Split(filter, ",") {
		wanted[strings.ToUpper(strings.TrimSpace(name))] = true
	}
	var out []wad.LevelRef
	for _, ref := range refs {
		if wanted[ref.Name] {
			out = append(out, ref)
		}
	}
	return out
}
