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

// Package blockmap compiles raw 2D level geometry into the classic grid
// lookup structure consumed by Doom-family engines: a header, one 16-bit
// offset per grid cell, and per-cell runs of segment indices terminated by
// a sentinel word. A built blockmap answers "which segments pass near this
// point or region" without scanning the whole level.
package blockmap

import (
	"encoding/binary"
)

const (
	// BlockWidth is the side of one grid cell in map units. BlockBits
	// replaces division by BlockWidth with a right shift.
	BlockWidth = 128
	BlockBits  = 7

	// Sentinel terminates every per-cell segment-index run.
	Sentinel = uint16(0xFFFF)

	// MaxSegments is the largest segment count the 16-bit payload can
	// represent. Index 0xFFFF would collide with the sentinel, so indices
	// stop at 0xFFFE.
	MaxSegments = 65535

	// Header is origin X, origin Y, width, height: four words.
	headerWords = 4

	// Offsets and the words they address share one 16-bit space.
	maxWordOffset = 0xFFFF

	// Offsets at or past this value break engines that read them as
	// signed 16-bit integers. Not an error, only worth a warning.
	vanillaOffsetLimit = 32768

	// Word written at the start of every fresh payload run. Cell offsets
	// address it; consumers skip one word, then read until the sentinel.
	markerWord = uint16(0x0000)
)

// Error type strings, matched with errors.IsType.
const (
	// ErrTypeGeometryOverflow: segment count, cell count, or an emitted
	// offset does not fit the 16-bit address space.
	ErrTypeGeometryOverflow = "blockmap:geometry-overflow"

	// ErrTypeInvariantViolation: an internally inconsistent state, such as
	// a registered dedup position without a sentinel behind it, or reuse
	// of a spent builder.
	ErrTypeInvariantViolation = "blockmap:invariant-violation"
)

// LineSet is a read-only ordered collection of line segments, the geometry
// side of the build. Implementations must be stateless so one set can feed
// several builders concurrently. *level.Level satisfies it.
type LineSet interface {
	// Len returns the number of segments.
	Len() int
	// XY returns the endpoints of segment i in whole map units, in the
	// order X1, Y1, X2, Y2.
	XY(i int) (int, int, int, int)
}

// Header describes the grid: origin (south-west corner, map units, snapped
// down to a multiple of BlockWidth) and dimensions in cells.
type Header struct {
	OrgX   int16
	OrgY   int16
	Width  uint16
	Height uint16
}

// Blockmap is a finished build result. The encoded buffer is owned by the
// caller once Build returns it; nothing in this package aliases it
// afterwards.
type Blockmap struct {
	Header Header

	// Packed records which encoding produced the buffer.
	Packed bool

	// LargestOffset is the biggest cell offset emitted, for diagnostics.
	LargestOffset int

	// TooBigForVanilla is set when LargestOffset only fits an unsigned
	// 16-bit read. The buffer is still valid for ports that read offsets
	// unsigned.
	TooBigForVanilla bool

	words []uint16
	data  []byte
}

// Bytes returns the encoded blockmap: little-endian 16-bit words laid out
// as header, offset table, payload.
func (bm *Blockmap) Bytes() []byte {
	return bm.data
}

// Size returns the encoded length in bytes.
func (bm *Blockmap) Size() int {
	return len(bm.data)
}

// CellLines decodes the segment-index run of cell (x, y). Out-of-range
// coordinates yield nil. The returned slice is freshly allocated.
func (bm *Blockmap) CellLines(x, y int) []uint16 {
	if x < 0 || y < 0 || x >= int(bm.Header.Width) || y >= int(bm.Header.Height) {
		return nil
	}
	return bm.decodeRun(int(bm.words[headerWords+y*int(bm.Header.Width)+x]))
}

// CellAt maps a map-unit coordinate to its cell, reporting false when the
// point lies outside the grid.
func (bm *Blockmap) CellAt(x, y int) (int, int, bool) {
	bx := (x - int(bm.Header.OrgX)) >> BlockBits
	by := (y - int(bm.Header.OrgY)) >> BlockBits
	if bx < 0 || by < 0 || bx >= int(bm.Header.Width) || by >= int(bm.Header.Height) {
		return 0, 0, false
	}
	return bx, by, true
}

// decodeRun reads a cell's list the way engines do: skip the word the
// offset addresses (a marker, or the preceding word of a shared run), then
// collect until the sentinel.
func (bm *Blockmap) decodeRun(off int) []uint16 {
	run := []uint16{}
	for i := off + 1; i < len(bm.words) && bm.words[i] != Sentinel; i++ {
		run = append(run, bm.words[i])
	}
	return run
}

// seal serializes words into the little-endian byte form handed to lump
// writers.
func (bm *Blockmap) seal() {
	bm.data = make([]byte, len(bm.words)*2)
	a := 0
	for _, w := range bm.words {
		binary.LittleEndian.PutUint16(bm.data[a:], w)
		a += 2
	}
}
