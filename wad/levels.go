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

package wad

import (
	"encoding/binary"

	"github.com/Brugarolas/viletech/level"
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// A level is a zero-length marker lump (E1M1, MAP01, anything) followed by
// a run of the well-known level lumps. Membership of the run, not the
// marker's name, is what identifies a level.
var levelLumpNames = map[string]bool{
	"THINGS": true, "LINEDEFS": true, "SIDEDEFS": true, "VERTEXES": true,
	"SEGS": true, "SSECTORS": true, "NODES": true, "SECTORS": true,
	"REJECT": true, "BLOCKMAP": true, "BEHAVIOR": true,
}

const (
	vertexRecSize  = 4  // x int16, y int16
	linedefRecSize = 14 // v1, v2, flags, special, tag, sidenum[2]
)

// LevelRef addresses one level inside a File by its marker lump index.
type LevelRef struct {
	Marker int
	Name   string
}

// Levels finds every level in directory order.
func (f *File) Levels() []LevelRef {
	var refs []LevelRef
	for i := 0; i+1 < len(f.Lumps); i++ {
		next := f.Lumps[i+1].Name
		if len(f.Lumps[i].Data) == 0 && !levelLumpNames[f.Lumps[i].Name] &&
			(next == "THINGS" || next == "LINEDEFS") {
			refs = append(refs, LevelRef{Marker: i, Name: f.Lumps[i].Name})
		}
	}
	return refs
}

// levelLump locates a named lump within the level's run, or -1.
func (f *File) levelLump(lv LevelRef, name string) int {
	for i := lv.Marker + 1; i < len(f.Lumps) && levelLumpNames[f.Lumps[i].Name]; i++ {
		if f.Lumps[i].Name == name {
			return i
		}
	}
	return -1
}

// levelEnd returns the directory index one past the level's lump run.
func (f *File) levelEnd(lv LevelRef) int {
	i := lv.Marker + 1
	for i < len(f.Lumps) && levelLumpNames[f.Lumps[i].Name] {
		i++
	}
	return i
}

// LoadGeometry builds the immutable geometry model from the level's
// VERTEXES and LINEDEFS lumps (binary Doom format; vertex map units are
// promoted to fixed point).
func (f *File) LoadGeometry(lv LevelRef) (*level.Level, error) {
	vi := f.levelLump(lv, "VERTEXES")
	li := f.levelLump(lv, "LINEDEFS")
	if vi == -1 || li == -1 {
		return nil, errors.New("level is missing required geometry lumps").
			WithTag("level", lv.Name)
	}

	vraw := f.Lumps[vi].Data
	if len(vraw)%vertexRecSize != 0 {
		return nil, errors.New("vertexes lump size is not a whole number of records").
			WithTag("level", lv.Name).
			WithTag("size", len(vraw))
	}
	vertices := make([]level.Vertex, len(vraw)/vertexRecSize)
	for i := range vertices {
		rec := vraw[i*vertexRecSize:]
		vertices[i] = level.Vertex{
			X: level.FromMapUnits(int16(binary.LittleEndian.Uint16(rec[0:2]))),
			Y: level.FromMapUnits(int16(binary.LittleEndian.Uint16(rec[2:4]))),
		}
	}

	lraw := f.Lumps[li].Data
	if len(lraw)%linedefRecSize != 0 {
		return nil, errors.New("linedefs lump size is not a whole number of records").
			WithTag("level", lv.Name).
			WithTag("size", len(lraw))
	}
	lines := make([]level.Line, len(lraw)/linedefRecSize)
	for i := range lines {
		rec := lraw[i*linedefRecSize:]
		v1 := binary.LittleEndian.Uint16(rec[0:2])
		v2 := binary.LittleEndian.Uint16(rec[2:4])
		if int(v1) >= len(vertices) || int(v2) >= len(vertices) {
			return nil, errors.New("linedef references a vertex out of range").
				WithTag("level", lv.Name).
				WithTag("linedef", i)
		}
		lines[i] = level.Line{V1: v1, V2: v2}
	}

	return &level.Level{Name: lv.Name, Vertices: vertices, Lines: lines}, nil
}

// SetLevelLump replaces the named lump inside the level's run, or inserts
// it at the end of the run when absent. Marker indices of later levels
// shift accordingly; callers holding LevelRefs should re-query Levels
// after inserting.
func (f *File) SetLevelLump(lv LevelRef, name string, data []byte) {
	if i := f.levelLump(lv, name); i != -1 {
		f.Lumps[i].Data = data
		return
	}
	at := f.levelEnd(lv)
	f.Lumps = append(f.Lumps, Lump{})
	copy(f.Lumps[at+1:], f.Lumps[at:])
	f.Lumps[at] = Lump{Name: name, Data: data}
}
