package mesh

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/achilleasa/lumen/types"
)

const (
	cacheMagic   uint32 = 0x48534d4c // "LMSH"
	cacheVersion uint32 = 1
)

var (
	ErrBadCache = errors.New("mesh: invalid cache file")
)

type cacheHeader struct {
	Magic       uint32
	Version     uint32
	VertexCount uint32
	IndexCount  uint32
}

// Serialize mesh vertices and indices into the binary cache format: a fixed
// header followed by the raw little-endian vertex and index arrays.
func WriteCache(w io.Writer, m *Mesh) error {
	header := cacheHeader{
		Magic:       cacheMagic,
		Version:     cacheVersion,
		VertexCount: uint32(len(m.Vertices)),
		IndexCount:  uint32(len(m.Indices)),
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.Vertices); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, m.Indices)
}

// Read a mesh previously written by WriteCache.
func ReadCache(r io.Reader, name string) (*Mesh, error) {
	var header cacheHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadCache, err.Error())
	}
	if header.Magic != cacheMagic || header.Version != cacheVersion {
		return nil, fmt.Errorf("%w: unexpected header %x/%d", ErrBadCache, header.Magic, header.Version)
	}

	m := &Mesh{
		Name:     name,
		Vertices: make([]types.Vec3, header.VertexCount),
		Indices:  make([]uint32, header.IndexCount),
	}
	if err := binary.Read(r, binary.LittleEndian, m.Vertices); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadCache, err.Error())
	}
	if err := binary.Read(r, binary.LittleEndian, m.Indices); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadCache, err.Error())
	}
	return m, nil
}
