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

// Package wad reads and writes the WAD container format: a 12-byte header,
// a run of lump bodies, and a directory of (position, size, name) entries.
// Only the containment model lives here; lump payloads are opaque bytes
// except for the level-geometry lumps the blockmap tool needs.
package wad

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	headerSize   = 12
	dirEntrySize = 16
)

// Lump is one named blob. Names are at most 8 characters, upper case by
// convention, zero-padded on disk.
type Lump struct {
	Name string
	Data []byte
}

// File is a fully loaded WAD: kind ("IWAD" or "PWAD") plus the ordered
// lump directory with bodies attached.
type File struct {
	Kind  string
	Lumps []Lump
}

// lumpEntry mirrors one on-disk directory record.
type lumpEntry struct {
	FilePos uint32
	Size    uint32
	Name    [8]byte
}

// nameBeforeTerm cuts the zero padding off an on-disk lump name.
func nameBeforeTerm(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i != -1 {
		return b[:i]
	}
	return b
}

// Decode parses a complete WAD image.
func Decode(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, errors.New("file too short for a wad header").
			WithTag("size", len(data))
	}
	kind := string(data[0:4])
	if kind != "IWAD" && kind != "PWAD" {
		return nil, errors.New("not a wad file").WithTag("magic", kind)
	}
	numLumps := binary.LittleEndian.Uint32(data[4:8])
	dirPos := binary.LittleEndian.Uint32(data[8:12])
	dirEnd := int64(dirPos) + int64(numLumps)*dirEntrySize
	if int64(dirPos) < headerSize || dirEnd > int64(len(data)) {
		return nil, errors.New("wad directory out of range").
			WithTag("dir_pos", dirPos).
			WithTag("num_lumps", numLumps)
	}

	f := &File{Kind: kind, Lumps: make([]Lump, 0, numLumps)}
	for i := uint32(0); i < numLumps; i++ {
		raw := data[dirPos+i*dirEntrySize:]
		var e lumpEntry
		e.FilePos = binary.LittleEndian.Uint32(raw[0:4])
		e.Size = binary.LittleEndian.Uint32(raw[4:8])
		copy(e.Name[:], raw[8:16])
		end := int64(e.FilePos) + int64(e.Size)
		if end > int64(len(data)) {
			return nil, errors.New("lump body out of range").
				WithTag("lump", string(nameBeforeTerm(e.Name[:]))).
				WithTag("file_pos", e.FilePos).
				WithTag("size", e.Size)
		}
		body := make([]byte, e.Size)
		copy(body, data[e.FilePos:end])
		f.Lumps = append(f.Lumps, Lump{
			Name: string(nameBeforeTerm(e.Name[:])),
			Data: body,
		})
	}
	return f, nil
}

// ReadFile loads a WAD from disk.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("reading wad file failed").
			WithTag("path", path).
			Wrap(err)
	}
	f, err := Decode(data)
	if err != nil {
		return nil, errors.New("decoding wad file failed").
			WithTag("path", path).
			Wrap(err)
	}
	return f, nil
}

// Encode serializes the file: header, lump bodies in directory order, then
// the directory itself.
func (f *File) Encode() []byte {
	size := headerSize
	for i := range f.Lumps {
		size += len(f.Lumps[i].Data)
	}
	dirPos := size
	size += len(f.Lumps) * dirEntrySize

	out := make([]byte, size)
	copy(out[0:4], f.Kind)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(f.Lumps)))
	binary.LittleEndian.PutUint32(out[8:12], uint32(dirPos))

	pos := headerSize
	dir := dirPos
	for i := range f.Lumps {
		l := &f.Lumps[i]
		copy(out[pos:], l.Data)
		binary.LittleEndian.PutUint32(out[dir:], uint32(pos))
		binary.LittleEndian.PutUint32(out[dir+4:], uint32(len(l.Data)))
		copy(out[dir+8:dir+16], l.Name)
		pos += len(l.Data)
		dir += dirEntrySize
	}
	return out
}

// WriteFile writes the encoded WAD to disk.
func (f *File) WriteFile(path string) error {
	if err := os.WriteFile(path, f.Encode(), 0o644); err != nil {
		return errors.New("writing wad file failed").
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}
