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

// Package level holds the immutable level geometry model consumed by the
// blockmap builder: fixed-point vertices and the line segments connecting
// them. The model is built once (by the WAD loader or by a caller
// constructing it directly) and is read-only afterwards.
package level

// Coordinates are 16.16 fixed point. Binary map formats store whole map
// units, so their values are shifted left on load.
const (
	FracBits = 16
	FracUnit = 1 << FracBits
)

// Vertex is a 2D point in 16.16 fixed-point map coordinates.
type Vertex struct {
	X int32
	Y int32
}

// Line is a segment between two vertices, referenced by index. Grid
// membership of a line is direction-independent, so V1/V2 order carries no
// meaning for spatial indexing.
type Line struct {
	V1 uint16
	V2 uint16
}

// Level is the finished geometry set. Both slices are ordered: segment
// index i in any blockmap output refers to Lines[i].
type Level struct {
	Name     string
	Vertices []Vertex
	Lines    []Line
}

// FromMapUnits converts whole map units to fixed point.
func FromMapUnits(v int16) int32 {
	return int32(v) << FracBits
}

// Len returns the number of line segments.
func (l *Level) Len() int {
	return len(l.Lines)
}

// XY returns both endpoints of segment i in whole map units, in the order
// X1, Y1, X2, Y2. Fractional parts are floored, the same way the original
// node builders truncate fixed_t before rasterizing.
func (l *Level) XY(i int) (int, int, int, int) {
	ld := l.Lines[i]
	v1 := l.Vertices[ld.V1]
	v2 := l.Vertices[ld.V2]
	return int(v1.X >> FracBits), int(v1.Y >> FracBits),
		int(v2.X >> FracBits), int(v2.Y >> FracBits)
}

// Bounds is the bounding box of used geometry, in whole map units.
type Bounds struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Bounds computes the bounding box over the vertices referenced by at least
// one line. Vertices left over from editing (or added by a node builder)
// that no segment references do not participate. The second return value is
// false when there are no segments at all, in which case the box is zero.
func (l *Level) Bounds() (Bounds, bool) {
	if len(l.Lines) == 0 {
		return Bounds{}, false
	}
	b := Bounds{
		MinX: int(^uint(0) >> 1), MinY: int(^uint(0) >> 1),
		MaxX: -int(^uint(0)>>1) - 1, MaxY: -int(^uint(0)>>1) - 1,
	}
	for i := range l.Lines {
		x1, y1, x2, y2 := l.XY(i)
		b.grow(x1, y1)
		b.grow(x2, y2)
	}
	return b, true
}

func (b *Bounds) grow(x, y int) {
	if x < b.MinX {
		b.MinX = x
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if y > b.MaxY {
		b.MaxY = y
	}
}
