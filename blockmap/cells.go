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

// cellStore accumulates, per grid cell, the ordered de-duplicated list of
// segment indices that intersect it.
//
// A grid can have six-figure cell counts while most lists stay tiny, so the
// lists are not held as [][]uint16: that is one pointer-carrying slice
// header per cell for the garbage collector to trace on every cycle.
// Instead lists live inside large shared pages and each cell keeps a
// pointer-free descriptor (page, start, count, capacity). Growth amortizes
// over the total incidence count, and a sparse grid costs only the
// descriptor table.
type cellStore struct {
	pages []cellPage
	runs  []cellRun

	// stamps[cell] holds 1+index of the last segment appended to the
	// cell. Rasterization streams one segment at a time, so comparing the
	// stamp suppresses every duplicate (segment, cell) visit in O(1).
	stamps []uint16

	firstFree int // first page whose tail still has room
}

const cellPageSize = 65536

type cellPage struct {
	data []uint16
	tail int // unused cells at the end of the page
}

// cellRun locates one cell's list inside the pages.
type cellRun struct {
	page     int32
	start    int32
	count    int32
	capacity int32
}

func newCellStore(cellCount int) *cellStore {
	pages := make([]cellPage, 1)
	pages[0].data = make([]uint16, cellPageSize)
	pages[0].tail = cellPageSize
	return &cellStore{
		pages:  pages,
		runs:   make([]cellRun, cellCount),
		stamps: make([]uint16, cellCount),
	}
}

// add appends segment seg to the cell's list unless the cell already holds
// it. First-seen order is preserved.
func (cs *cellStore) add(cell int, seg uint16) {
	if cs.stamps[cell] == seg+1 {
		return
	}
	cs.stamps[cell] = seg + 1
	run := &cs.runs[cell]
	if run.count == run.capacity {
		cs.grow(cell, int(run.count)+1)
		run = &cs.runs[cell]
	}
	cs.pages[run.page].data[run.start+run.count] = seg
	run.count++
}

// lines returns the cell's list as a view into the backing page. Valid
// until the next add to the same cell.
func (cs *cellStore) lines(cell int) []uint16 {
	run := cs.runs[cell]
	return cs.pages[run.page].data[run.start : run.start+run.count]
}

func (cs *cellStore) count(cell int) int {
	return int(cs.runs[cell].count)
}

// totalWords returns the word size of the whole payload region when every
// cell gets a private run: marker + indices + sentinel per cell.
func (cs *cellStore) totalWords() int {
	total := 0
	for i := range cs.runs {
		total += int(cs.runs[i].count) + 2
	}
	return total
}

// roundUpCapacity keeps reallocation rare for short lists without wasting
// page space on the occasional huge one.
func roundUpCapacity(min int) int {
	if min <= 8 {
		return 8
	}
	if min < 512 {
		return min + min>>1
	}
	return min + 16
}

func (cs *cellStore) grow(cell int, minCapacity int) {
	run := cs.runs[cell]

	// When the run sits at its page's tail the capacity can be extended in
	// place.
	atTail := int(run.start+run.capacity)+cs.pages[run.page].tail == len(cs.pages[run.page].data)
	if atTail && int(run.capacity)+cs.pages[run.page].tail >= minCapacity {
		cs.pages[run.page].tail -= minCapacity - int(run.capacity)
		cs.runs[cell].capacity = int32(minCapacity)
		return
	}

	minCapacity = roundUpCapacity(minCapacity)
	target := -1
	if minCapacity > cellPageSize {
		// Oversized list gets a dedicated page.
		cs.pages = append(cs.pages, cellPage{
			data: make([]uint16, minCapacity),
			tail: minCapacity,
		})
		target = len(cs.pages) - 1
	} else {
		for i := cs.firstFree; i < len(cs.pages); i++ {
			if cs.pages[i].tail >= minCapacity {
				target = i
				break
			}
		}
		if target == -1 {
			cs.pages = append(cs.pages, cellPage{
				data: make([]uint16, cellPageSize),
				tail: cellPageSize,
			})
			target = len(cs.pages) - 1
		}
	}

	dst := &cs.pages[target]
	newStart := len(dst.data) - dst.tail
	if run.count > 0 {
		src := cs.pages[run.page].data[run.start : run.start+run.count]
		copy(dst.data[newStart:newStart+int(run.count)], src)
	}
	dst.tail -= minCapacity
	if atTail && target != int(run.page) {
		// The vacated tail block can be handed out again.
		cs.pages[run.page].tail += int(run.capacity)
		if run.page < int32(cs.firstFree) {
			cs.firstFree = int(run.page)
		}
	}
	for cs.firstFree < len(cs.pages) && cs.pages[cs.firstFree].tail == 0 {
		cs.firstFree++
	}
	cs.runs[cell] = cellRun{
		page:     int32(target),
		start:    int32(newStart),
		count:    run.count,
		capacity: int32(minCapacity),
	}
}
