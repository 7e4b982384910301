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

package blockmap

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Config selects the encoding strategy for one build.
type Config struct {
	// Packed enables cross-cell payload sharing. Off, every cell gets a
	// private run.
	Packed bool
}

type builderState int

const (
	stateIdle builderState = iota
	stateRasterizing
	stateEncoding
	stateDone
	stateFailed
)

// Builder compiles one LineSet into one Blockmap. A Builder is single-use:
// it owns all intermediate state for the duration of one Build call and
// hands the result to the caller atomically on success. Nothing is shared
// between Builder instances, so independent levels can be built
// concurrently with one Builder each.
type Builder struct {
	cfg   Config
	state builderState
	cells *cellStore
}

func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

// Build derives the grid from the geometry extent, rasterizes every
// segment into per-cell lists and encodes them. The build is a pure
// function of the line set and the configuration: retrying with the same
// inputs yields the same outcome.
func (b *Builder) Build(lines LineSet) (*Blockmap, error) {
	if b.state != stateIdle {
		return nil, errors.New("builder is single-use and was already driven").
			WithType(ErrTypeInvariantViolation).
			WithTag("state", int(b.state))
	}

	header, err := deriveGrid(lines)
	if err != nil {
		b.state = stateFailed
		return nil, err
	}

	b.state = stateRasterizing
	b.rasterize(lines, header)

	b.state = stateEncoding
	enc := newEncoder(header, b.cells)
	if b.cfg.Packed {
		err = enc.encodePacked()
	} else {
		err = enc.encodeUnpacked()
	}
	if err != nil {
		b.state = stateFailed
		return nil, err
	}

	bm := &Blockmap{
		Header:           header,
		Packed:           b.cfg.Packed,
		LargestOffset:    enc.largest,
		TooBigForVanilla: enc.tooBigVan,
		words:            enc.words,
	}
	bm.seal()
	b.state = stateDone
	b.cells = nil

	logs.WithTag("width", header.Width).
		WithTag("height", header.Height).
		WithTag("bytes", bm.Size()).
		WithTag("largest_offset", bm.LargestOffset).
		WithTag("packed", bm.Packed).
		Debug("blockmap built")
	return bm, nil
}

// deriveGrid computes origin and dimensions from the geometry extent. The
// origin snaps down to a multiple of the cell size; width and height round
// up so every vertex lies within range. Geometry with no segments (or a
// zero-area extent, which needs no special case) collapses to a minimal
// valid 1x1 grid.
func deriveGrid(lines LineSet) (Header, error) {
	if lines.Len() > MaxSegments {
		return Header{}, errors.New("segment count exceeds the 16-bit index space").
			WithType(ErrTypeGeometryOverflow).
			WithTag("segments", lines.Len()).
			WithTag("limit", MaxSegments)
	}

	minX, minY, maxX, maxY := 0, 0, 0, 0
	if lines.Len() > 0 {
		x1, y1, x2, y2 := lines.XY(0)
		minX, minY, maxX, maxY = x1, y1, x1, y1
		for i := 0; i < lines.Len(); i++ {
			x1, y1, x2, y2 = lines.XY(i)
			minX, maxX = minMax(minX, maxX, x1)
			minY, maxY = minMax(minY, maxY, y1)
			minX, maxX = minMax(minX, maxX, x2)
			minY, maxY = minMax(minY, maxY, y2)
		}
	}

	orgX := minX &^ (BlockWidth - 1)
	orgY := minY &^ (BlockWidth - 1)
	width := ((maxX - orgX) >> BlockBits) + 1
	height := ((maxY - orgY) >> BlockBits) + 1

	// The first payload word must itself be addressable, which bounds the
	// offset table.
	if headerWords+width*height > maxWordOffset {
		return Header{}, errors.New("grid cell count exceeds the 16-bit address space").
			WithType(ErrTypeGeometryOverflow).
			WithTag("width", width).
			WithTag("height", height)
	}

	return Header{
		OrgX:   int16(orgX),
		OrgY:   int16(orgY),
		Width:  uint16(width),
		Height: uint16(height),
	}, nil
}

func (b *Builder) rasterize(lines LineSet, header Header) {
	width := int(header.Width)
	b.cells = newCellStore(width * int(header.Height))
	xmin := int(header.OrgX)
	ymin := int(header.OrgY)
	for i := 0; i < lines.Len(); i++ {
		x1, y1, x2, y2 := lines.XY(i)
		seg := uint16(i)
		visitSegmentCells(x1, y1, x2, y2, xmin, ymin, width, func(cell int) {
			b.cells.add(cell, seg)
		})
	}
}

func minMax(lo, hi, v int) (int, int) {
	if v < lo {
		lo = v
	}
	if v > hi {
		hi = v
	}
	return lo, hi
}
