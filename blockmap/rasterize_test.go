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
	"testing"

	"github.com/stretchr/testify/require"
)

// segLines is a minimal LineSet over literal map-unit endpoints.
type segLines [][4]int

func (s segLines) Len() int { return len(s) }

func (s segLines) XY(i int) (int, int, int, int) {
	return s[i][0], s[i][1], s[i][2], s[i][3]
}

// cellsHolding scans the whole grid for cells whose list contains seg.
func cellsHolding(bm *Blockmap, seg uint16) [][2]int {
	var out [][2]int
	for y := 0; y < int(bm.Header.Height); y++ {
		for x := 0; x < int(bm.Header.Width); x++ {
			for _, s := range bm.CellLines(x, y) {
				if s == seg {
					out = append(out, [2]int{x, y})
				}
			}
		}
	}
	return out
}

func build(t *testing.T, lines LineSet, packed bool) *Blockmap {
	t.Helper()
	bm, err := NewBuilder(Config{Packed: packed}).Build(lines)
	require.NoError(t, err)
	return bm
}

func TestSingleCellSegment(t *testing.T) {
	bm := build(t, segLines{{10, 10, 100, 90}}, false)
	require.Equal(t, [][2]int{{0, 0}}, cellsHolding(bm, 0))
	require.Equal(t, []uint16{0}, bm.CellLines(0, 0))
}

func TestAxisAlignedSpan(t *testing.T) {
	// 300 map units cross cell boundaries at 128 and 256: exactly three
	// cells, nothing else.
	bm := build(t, segLines{{0, 0, 300, 0}}, false)
	require.Equal(t, [][2]int{{0, 0}, {1, 0}, {2, 0}}, cellsHolding(bm, 0))
}

func TestVerticalSpan(t *testing.T) {
	bm := build(t, segLines{{5, 0, 5, 400}}, false)
	require.Equal(t, [][2]int{{0, 0}, {0, 1}, {0, 2}, {0, 3}}, cellsHolding(bm, 0))
}

func TestZeroLengthSegment(t *testing.T) {
	// The origin snaps down to 128, so the lone point sits in the grid's
	// single cell.
	bm := build(t, segLines{{200, 200, 200, 200}}, false)
	require.Equal(t, Header{OrgX: 128, OrgY: 128, Width: 1, Height: 1}, bm.Header)
	require.Equal(t, [][2]int{{0, 0}}, cellsHolding(bm, 0))
}

func TestDiagonalCornerGraze(t *testing.T) {
	// A 45-degree segment through the corner point (128,128). The corner
	// tie-break keeps the horizontally adjacent cell, so the grazed (1,0)
	// is registered alongside the two cells the segment plainly occupies.
	bm := build(t, segLines{{0, 0, 255, 255}}, false)
	require.Equal(t, [][2]int{{0, 0}, {1, 0}, {1, 1}}, cellsHolding(bm, 0))
}

func TestDiagonalSpansOnlyCrossedCells(t *testing.T) {
	// Shallow diagonal staying strictly inside rows 0 and 1.
	bm := build(t, segLines{{10, 10, 500, 200}}, false)
	got := cellsHolding(bm, 0)
	for _, c := range got {
		require.Less(t, c[1], 2, "diagonal never leaves rows 0-1, got cell %v", c)
	}
	// End cells must always be present.
	require.Contains(t, got, [2]int{0, 0})
	require.Contains(t, got, [2]int{3, 1})
	// No cell may hold the segment twice.
	for y := 0; y < int(bm.Header.Height); y++ {
		for x := 0; x < int(bm.Header.Width); x++ {
			n := 0
			for _, s := range bm.CellLines(x, y) {
				if s == 0 {
					n++
				}
			}
			require.LessOrEqual(t, n, 1)
		}
	}
}

func TestDiagonalYMajorSpan(t *testing.T) {
	// Steep diagonal: the column advances only when the walk finishes a
	// column's rows, and the final column is walked down to the end cell.
	bm := build(t, segLines{{10, 10, 200, 500}}, false)
	require.Equal(t, [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 2}, {1, 3}},
		cellsHolding(bm, 0))
}

func TestOriginSnapsToCellSize(t *testing.T) {
	bm := build(t, segLines{{-300, -200, 100, 100}}, false)
	require.Equal(t, int16(-384), bm.Header.OrgX)
	require.Equal(t, int16(-256), bm.Header.OrgY)
	// Every vertex, -300 and +100 included, must fall inside the grid.
	_, _, ok := bm.CellAt(-300, -200)
	require.True(t, ok)
	_, _, ok = bm.CellAt(100, 100)
	require.True(t, ok)
}
