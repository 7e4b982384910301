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
)

// Both layouts serialize the same logical content: header, one offset word
// per cell, payload. Every fresh payload run is written as a marker word,
// the cell's segment indices, and the sentinel; the cell's offset addresses
// the marker, so classic consumers skip the first word and read until the
// sentinel. The unpacked layout gives every cell a private run. The packed
// layout reuses an already-emitted run when the cell's list equals it word
// for word, or is an exact suffix of it; a suffix-shared offset addresses
// the word before the suffix, which stands in for the marker. The empty
// list is the empty suffix of any run, so all empty cells share one
// sentinel.

const dedupBuckets = 4096

type encoder struct {
	header Header
	cells  *cellStore

	words   []uint16 // header + offset table + payload, in words
	payload int      // word offset where the payload region starts

	largest   int
	tooBigVan bool

	// Content-addressed index over emitted payload: buckets by run hash,
	// chained through links (parallel to payload words, 0 terminated;
	// position 0 is header space, never a payload word). Every suffix
	// position of every fresh run is registered, so identical and suffix
	// matches come out of one near-constant-time lookup.
	buckets [dedupBuckets]int32
	links   []int32
}

func newEncoder(header Header, cells *cellStore) *encoder {
	cellCount := int(header.Width) * int(header.Height)
	e := &encoder{
		header:  header,
		cells:   cells,
		payload: headerWords + cellCount,
	}
	e.words = make([]uint16, e.payload, e.payload+cells.totalWords())
	e.words[0] = uint16(header.OrgX)
	e.words[1] = uint16(header.OrgY)
	e.words[2] = header.Width
	e.words[3] = header.Height
	return e
}

// encodeUnpacked emits one private run per cell. Simplest, always correct,
// largest.
func (e *encoder) encodeUnpacked() error {
	cellCount := int(e.header.Width) * int(e.header.Height)
	for i := 0; i < cellCount; i++ {
		off, err := e.emitRun(e.cells.lines(i))
		if err != nil {
			return err
		}
		e.words[headerWords+i] = uint16(off)
	}
	return nil
}

// encodePacked reuses emitted runs for cells with identical or suffix
// content. When several registered positions match, the most recently
// registered one wins: the chain is prepend-ordered and the first hit is
// taken. Consumers treat the payload purely as a lookup table, so the
// choice only has to be deterministic.
func (e *encoder) encodePacked() error {
	cellCount := int(e.header.Width) * int(e.header.Height)
	for i := 0; i < cellCount; i++ {
		run := e.cells.lines(i)
		if pos, ok, err := e.findRun(run); err != nil {
			return err
		} else if ok {
			// pos addresses the suffix's first word; the word before it
			// plays the marker's role for this cell.
			if err := e.limitCheck(pos - 1); err != nil {
				return err
			}
			e.words[headerWords+i] = uint16(pos - 1)
			continue
		}
		off, err := e.emitRun(run)
		if err != nil {
			return err
		}
		e.words[headerWords+i] = uint16(off)
		e.registerSuffixes(off+1, len(run))
	}
	return nil
}

// emitRun appends marker+indices+sentinel and returns the word offset of
// the marker.
func (e *encoder) emitRun(run []uint16) (int, error) {
	off := len(e.words)
	if err := e.limitCheck(off); err != nil {
		return 0, err
	}
	e.words = append(e.words, markerWord)
	e.words = append(e.words, run...)
	e.words = append(e.words, Sentinel)
	return off, nil
}

// runHash is the ZDBSP block hash.
func runHash(run []uint16) uint32 {
	h := uint32(0)
	for _, v := range run {
		h = h*12235 + uint32(v)
	}
	return h & 0x7fffffff
}

// findRun looks for an emitted position whose remaining words are exactly
// run followed by the sentinel.
func (e *encoder) findRun(run []uint16) (int, bool, error) {
	h := runHash(run) % dedupBuckets
	for pos := e.buckets[h]; pos != 0; {
		p := int(pos)
		if p <= e.payload || p >= len(e.words) {
			// Chain entries always address emitted payload words. Anything
			// else means the dedup index is corrupt.
			return 0, false, errors.New("dedup index points outside emitted payload").
				WithType(ErrTypeInvariantViolation).
				WithTag("position", p)
		}
		end := p + len(run)
		if end < len(e.words) && e.words[end] == Sentinel && runEqual(e.words[p:end], run) {
			return p, true, nil
		}
		pos = e.links[p-e.payload]
	}
	return 0, false, nil
}

// registerSuffixes indexes every suffix position of the run just emitted,
// the empty suffix (the sentinel itself) included. off addresses the run's
// first index word, one past the marker.
func (e *encoder) registerSuffixes(off, runLen int) {
	for len(e.links) < len(e.words)-e.payload {
		e.links = append(e.links, 0)
	}
	for k := 0; k <= runLen; k++ {
		pos := off + k
		h := runHash(e.words[pos:off+runLen]) % dedupBuckets
		e.links[pos-e.payload] = e.buckets[h]
		e.buckets[h] = int32(pos)
	}
}

func runEqual(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// limitCheck records the largest emitted offset and fails the build the
// moment an offset leaves the unsigned 16-bit range. Offsets past the
// signed range are legal for most ports and only flagged.
func (e *encoder) limitCheck(off int) error {
	if off > e.largest {
		e.largest = off
	}
	if off >= vanillaOffsetLimit {
		e.tooBigVan = true
	}
	if off > maxWordOffset {
		return errors.New("cell offset exceeds the 16-bit address space").
			WithType(ErrTypeGeometryOverflow).
			WithTag("offset", off).
			WithTag("limit", maxWordOffset)
	}
	return nil
}
