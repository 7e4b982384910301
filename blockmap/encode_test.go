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
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func offsetOf(bm *Blockmap, x, y int) uint16 {
	i := headerWords + y*int(bm.Header.Width) + x
	return binary.LittleEndian.Uint16(bm.Bytes()[i*2:])
}

func TestPackedUnpackedDecodeEqual(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	lines := make(segLines, 0, 300)
	for i := 0; i < 300; i++ {
		lines = append(lines, [4]int{
			rng.Intn(2000), rng.Intn(2000), rng.Intn(2000), rng.Intn(2000),
		})
	}

	unpacked := build(t, lines, false)
	packed := build(t, lines, true)

	require.Equal(t, unpacked.Header, packed.Header)
	for y := 0; y < int(unpacked.Header.Height); y++ {
		for x := 0; x < int(unpacked.Header.Width); x++ {
			require.Equal(t, unpacked.CellLines(x, y), packed.CellLines(x, y),
				"cell (%d,%d)", x, y)
		}
	}
	require.LessOrEqual(t, packed.Size(), unpacked.Size())
}

func TestPackedEmptyCellsShareOneSentinel(t *testing.T) {
	// One short segment in a wide extent: almost every cell is empty.
	lines := segLines{{0, 0, 10, 0}, {0, 500, 700, 500}}
	bm := build(t, lines, true)
	require.Greater(t, int(bm.Header.Width)*int(bm.Header.Height), 4)

	var emptyOffset uint16
	found := false
	for y := 0; y < int(bm.Header.Height); y++ {
		for x := 0; x < int(bm.Header.Width); x++ {
			if len(bm.CellLines(x, y)) != 0 {
				continue
			}
			off := offsetOf(bm, x, y)
			if !found {
				emptyOffset = off
				found = true
			}
			require.Equal(t, emptyOffset, off, "cell (%d,%d)", x, y)
		}
	}
	require.True(t, found)
}

func TestPackedSuffixSharing(t *testing.T) {
	// Segment 0 lives only in cell (0,0); segment 1 crosses (0,0) and
	// (1,0). Cell (1,0)'s list [1] is an exact suffix of cell (0,0)'s
	// list [0 1], so its offset must point inside the first run.
	lines := segLines{{10, 10, 20, 20}, {10, 30, 300, 30}}
	bm := build(t, lines, true)

	require.Equal(t, []uint16{0, 1}, bm.CellLines(0, 0))
	require.Equal(t, []uint16{1}, bm.CellLines(1, 0))
	require.Equal(t, offsetOf(bm, 0, 0)+1, offsetOf(bm, 1, 0))
}

func TestOffsetsAddressRunLeadIn(t *testing.T) {
	// Engines skip the word at the offset, then read until the sentinel. A
	// reader doing exactly that must recover every cell's full list, first
	// segment included, for fresh and suffix-shared runs alike.
	lines := segLines{{10, 10, 20, 20}, {10, 30, 300, 30}}
	want := map[[2]int][]uint16{
		{0, 0}: {0, 1},
		{1, 0}: {1},
		{2, 0}: {1},
	}
	for _, packed := range []bool{false, true} {
		bm := build(t, lines, packed)
		require.Equal(t, uint16(3), bm.Header.Width)
		require.Equal(t, uint16(1), bm.Header.Height)

		data := bm.Bytes()
		words := make([]uint16, len(data)/2)
		for i := range words {
			words[i] = binary.LittleEndian.Uint16(data[i*2:])
		}
		for x := 0; x < 3; x++ {
			off := int(words[headerWords+x])
			got := []uint16{}
			for i := off + 1; words[i] != Sentinel; i++ {
				got = append(got, words[i])
			}
			require.Equal(t, want[[2]int{x, 0}], got, "packed=%v cell (%d,0)", packed, x)
		}
	}
}

func TestVanillaOffsetLimitFlagged(t *testing.T) {
	// One diagonal over a 120x100-cell extent. The unpacked offsets land
	// between 32768 and 0xFFFF: legal, but past the range engines reading
	// offsets as signed 16-bit can follow.
	lines := segLines{{0, 0, 15232, 12672}}
	unpacked, err := NewBuilder(Config{Packed: false}).Build(lines)
	require.NoError(t, err)
	require.True(t, unpacked.TooBigForVanilla)
	require.GreaterOrEqual(t, unpacked.LargestOffset, vanillaOffsetLimit)
	require.LessOrEqual(t, unpacked.LargestOffset, maxWordOffset)

	// Packed, every crossed cell shares one [0] run and every empty cell
	// one sentinel, keeping all offsets in the signed range.
	packed, err := NewBuilder(Config{Packed: true}).Build(lines)
	require.NoError(t, err)
	require.False(t, packed.TooBigForVanilla)
}

func TestPackedIdenticalListsShareOneRun(t *testing.T) {
	// One long horizontal segment: every crossed cell holds the identical
	// list [0].
	bm := build(t, segLines{{0, 5, 1000, 5}}, true)
	first := offsetOf(bm, 0, 0)
	for x := 1; x < int(bm.Header.Width); x++ {
		require.Equal(t, first, offsetOf(bm, x, 0))
	}
}

func TestPackedSmallerOnRepetitiveGeometry(t *testing.T) {
	lines := make(segLines, 0, 64)
	for k := 0; k < 64; k++ {
		lines = append(lines, [4]int{0, k, 1000, k})
	}
	unpacked := build(t, lines, false)
	packed := build(t, lines, true)
	require.Less(t, packed.Size(), unpacked.Size())
}

// repetitiveHeavy is geometry whose private-run payload blows the 16-bit
// address space while the deduplicated payload stays tiny: 2000 horizontal
// segments stacked over 16 rows, every cell of a row holding that row's
// identical ~128-segment list.
func repetitiveHeavy() segLines {
	lines := make(segLines, 0, 2000)
	for k := 0; k < 2000; k++ {
		lines = append(lines, [4]int{0, k, 5120, k})
	}
	return lines
}

func TestUnpackedOffsetOverflowFailsExplicitly(t *testing.T) {
	_, err := NewBuilder(Config{Packed: false}).Build(repetitiveHeavy())
	require.Error(t, err)
	require.Equal(t, ErrTypeGeometryOverflow, errors.Type(err))
}

func TestPackedFitsWhereUnpackedOverflows(t *testing.T) {
	bm, err := NewBuilder(Config{Packed: true}).Build(repetitiveHeavy())
	require.NoError(t, err)
	require.LessOrEqual(t, bm.LargestOffset, maxWordOffset)

	// Spot-check one middle-of-grid cell decodes to that row's segments.
	run := bm.CellLines(20, 4)
	require.NotEmpty(t, run)
	for _, seg := range run {
		require.Equal(t, 4, int(seg)>>BlockBits, "segment %d in wrong row", seg)
	}
}
