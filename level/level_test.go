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

package level

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromMapUnits(t *testing.T) {
	require.Equal(t, int32(0), FromMapUnits(0))
	require.Equal(t, int32(1<<FracBits), FromMapUnits(1))
	require.Equal(t, int32(-128<<FracBits), FromMapUnits(-128))
	require.Equal(t, int32(32767<<FracBits), FromMapUnits(32767))
	require.Equal(t, int32(-32768<<FracBits), FromMapUnits(-32768))
}

func TestXYFloorsFractionalParts(t *testing.T) {
	l := &Level{
		Vertices: []Vertex{
			{X: 5*FracUnit + FracUnit/2, Y: -3*FracUnit - FracUnit/2},
			{X: 0, Y: FracUnit - 1},
		},
		Lines: []Line{{V1: 0, V2: 1}},
	}
	x1, y1, x2, y2 := l.XY(0)
	require.Equal(t, 5, x1)
	require.Equal(t, -4, y1, "negative coordinates floor, not truncate")
	require.Equal(t, 0, x2)
	require.Equal(t, 0, y2)
}

func TestBoundsEmpty(t *testing.T) {
	l := &Level{Vertices: []Vertex{{X: 10 * FracUnit, Y: 10 * FracUnit}}}
	b, ok := l.Bounds()
	require.False(t, ok)
	require.Equal(t, Bounds{}, b)
}

func TestBoundsIgnoresUnreferencedVertices(t *testing.T) {
	l := &Level{
		Vertices: []Vertex{
			{X: FromMapUnits(-100), Y: FromMapUnits(50)},
			{X: FromMapUnits(200), Y: FromMapUnits(-40)},
			{X: FromMapUnits(9000), Y: FromMapUnits(9000)}, // orphan
		},
		Lines: []Line{{V1: 0, V2: 1}},
	}
	b, ok := l.Bounds()
	require.True(t, ok)
	require.Equal(t, Bounds{MinX: -100, MinY: -40, MaxX: 200, MaxY: 50}, b)
}

func TestBoundsSingleVertexLine(t *testing.T) {
	l := &Level{
		Vertices: []Vertex{{X: FromMapUnits(7), Y: FromMapUnits(-7)}},
		Lines:    []Line{{V1: 0, V2: 0}},
	}
	b, ok := l.Bounds()
	require.True(t, ok)
	require.Equal(t, Bounds{MinX: 7, MinY: -7, MaxX: 7, MaxY: -7}, b)
}
