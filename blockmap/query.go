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

import "math"

// Query is the read side of a built blockmap: it walks the cells a probe
// line crosses (the same walk rasterization uses, so probe and build agree
// on corner cases) and reports every segment stored in them. A segment
// listed in several crossed cells is reported once per query; the seen set
// is a bit array rather than a map, sized for the full 16-bit index range.
type Query struct {
	bm   *Blockmap
	seen [65536 / 8]uint8
}

func NewQuery(bm *Blockmap) *Query {
	return &Query{bm: bm}
}

// Line calls visit for every segment registered in a cell crossed by the
// probe segment (x1,y1)-(x2,y2), in map units. Returning false from visit
// stops the query. Each segment is visited at most once.
func (q *Query) Line(x1, y1, x2, y2 int, visit func(seg uint16) bool) {
	for i := range q.seen {
		q.seen[i] = 0
	}
	bm := q.bm
	w := int(bm.Header.Width)
	h := int(bm.Header.Height)
	xmin := int(bm.Header.OrgX)
	ymin := int(bm.Header.OrgY)

	// The walk assumes coordinates inside the grid; a probe sticking out
	// past the last column would alias into the next row. Clip first.
	x1, y1, x2, y2, inside := clipToGrid(x1, y1, x2, y2,
		xmin, ymin, xmin+w*BlockWidth-1, ymin+h*BlockWidth-1)
	if !inside {
		return
	}

	stop := false
	visitSegmentCells(x1, y1, x2, y2, xmin, ymin, w, func(cell int) {
		if stop || cell < 0 || cell >= w*h {
			return
		}
		// Offsets address the run's lead-in word; indices follow it.
		off := int(bm.words[headerWords+cell])
		for i := off + 1; i < len(bm.words) && bm.words[i] != Sentinel; i++ {
			seg := bm.words[i]
			if q.seen[seg>>3]&(1<<(seg&7)) != 0 {
				continue
			}
			q.seen[seg>>3] |= 1 << (seg & 7)
			if !visit(seg) {
				stop = true
				return
			}
		}
	})
}

// Point reports the segments registered in the cell containing (x, y).
func (q *Query) Point(x, y int, visit func(seg uint16) bool) {
	q.Line(x, y, x, y, visit)
}

// clipToGrid trims the segment to the rectangle [xmin,xmax]x[ymin,ymax]
// (Liang-Barsky). Returns false when the segment misses the rectangle
// entirely. Clipped endpoints are rounded; for a cell-granular query the
// sub-unit error cannot change which cells the remainder crosses by more
// than a grazed border cell.
func clipToGrid(x1, y1, x2, y2, xmin, ymin, xmax, ymax int) (int, int, int, int, bool) {
	fx1, fy1 := float64(x1), float64(y1)
	dx := float64(x2 - x1)
	dy := float64(y2 - y1)
	t0, t1 := 0.0, 1.0

	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
		return true
	}

	if !clip(-dx, fx1-float64(xmin)) ||
		!clip(dx, float64(xmax)-fx1) ||
		!clip(-dy, fy1-float64(ymin)) ||
		!clip(dy, float64(ymax)-fy1) {
		return 0, 0, 0, 0, false
	}

	round := func(v float64) int {
		return int(math.Floor(v + 0.5))
	}
	return round(fx1 + t0*dx), round(fy1 + t0*dy),
		round(fx1 + t1*dx), round(fy1 + t1*dy), true
}
