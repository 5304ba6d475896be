/*
Package meshio reads and writes tetrahedral meshes in a small
keyword/block binary format modeled on the companion neighbours
example's actual collaborator, libMeshb: a versioned header followed
by fixed-size blocks of vertex, tetrahedron, and triangle records.

Open and WriteTo require dim=3 and reject meshes without vertices,
matching the mesh file contract the rest of this module expects.
*/
package meshio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const magicNumber uint32 = 0x4c504d33 // "LPM3"

// Sentinel errors for errors.Is matching.
var (
	ErrBadMagic             = errors.New("meshio: not an lplib mesh file")
	ErrUnsupportedDimension = errors.New("meshio: only 3-dimensional meshes are supported")
	ErrNoVertices           = errors.New("meshio: mesh has no vertices")
)

// A Mesh is an in-memory tetrahedral mesh: vertices, tetrahedra, and
// (usually derived) boundary triangles. Vertices, Tetrahedra, and
// Triangles are stored 0-indexed in memory; the scheduler's 1-based
// packet ranges index into them with an offset of one, documented at
// that boundary.
type Mesh struct {
	Version    int
	Dim        int
	Vertices   []Vertex
	Tetrahedra []Tetrahedron
	Triangles  []Triangle
}

// A Vertex is a 3D point with a material/boundary reference.
type Vertex struct {
	Coord [3]float64
	Ref   int
}

// A Tetrahedron is four 1-based vertex indices with a reference.
type Tetrahedron struct {
	Idx [4]int
	Ref int
}

// A Triangle is three 1-based vertex indices with a reference: 0 for
// an external (no-neighbour) boundary face, 1 for a material
// interface between two tetrahedra of differing Ref.
type Triangle struct {
	Idx [3]int
	Ref int
}

type header struct {
	Magic   uint32
	Version int32
	Dim     int32
	NmbVer  int32
	NmbTet  int32
	NmbTri  int32
}

/*
Open reads a mesh from path.

It returns ErrUnsupportedDimension if the mesh is not 3-dimensional,
and ErrNoVertices if it has no vertices, matching the core's
requirements exactly.
*/
func Open(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("meshio: open %s: %w", path, err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("meshio: %s: read header: %w", path, err)
	}
	if h.Magic != magicNumber {
		return nil, fmt.Errorf("meshio: %s: %w", path, ErrBadMagic)
	}
	if h.Dim != 3 {
		return nil, fmt.Errorf("meshio: %s: %w", path, ErrUnsupportedDimension)
	}
	if h.NmbVer == 0 {
		return nil, fmt.Errorf("meshio: %s: %w", path, ErrNoVertices)
	}

	verRaw := make([]byte, int(h.NmbVer)*vertexRecordSize)
	if _, err := io.ReadFull(r, verRaw); err != nil {
		return nil, fmt.Errorf("meshio: %s: read vertices: %w", path, err)
	}
	vertices, err := decodeVertices(verRaw)
	if err != nil {
		return nil, fmt.Errorf("meshio: %s: %w", path, err)
	}

	tetRaw := make([]byte, int(h.NmbTet)*tetRecordSize)
	if _, err := io.ReadFull(r, tetRaw); err != nil {
		return nil, fmt.Errorf("meshio: %s: read tetrahedra: %w", path, err)
	}
	tets, err := decodeTetrahedra(tetRaw)
	if err != nil {
		return nil, fmt.Errorf("meshio: %s: %w", path, err)
	}

	triRaw := make([]byte, int(h.NmbTri)*triRecordSize)
	if _, err := io.ReadFull(r, triRaw); err != nil {
		return nil, fmt.Errorf("meshio: %s: read triangles: %w", path, err)
	}
	tris, err := decodeTriangles(triRaw)
	if err != nil {
		return nil, fmt.Errorf("meshio: %s: %w", path, err)
	}

	return &Mesh{
		Version:    int(h.Version),
		Dim:        3,
		Vertices:   vertices,
		Tetrahedra: tets,
		Triangles:  tris,
	}, nil
}

/*
WriteTo writes m to path in the same format Open reads.

It returns ErrUnsupportedDimension if m.Dim != 3, and ErrNoVertices if
m has no vertices, matching the core's requirements exactly.
*/
func (m *Mesh) WriteTo(path string) error {
	if m.Dim != 3 {
		return fmt.Errorf("meshio: %s: %w", path, ErrUnsupportedDimension)
	}
	if len(m.Vertices) == 0 {
		return fmt.Errorf("meshio: %s: %w", path, ErrNoVertices)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("meshio: create %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	h := header{
		Magic:   magicNumber,
		Version: int32(m.Version),
		Dim:     3,
		NmbVer:  int32(len(m.Vertices)),
		NmbTet:  int32(len(m.Tetrahedra)),
		NmbTri:  int32(len(m.Triangles)),
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("meshio: %s: write header: %w", path, err)
	}

	if err := encodeVertices(w, m.Vertices); err != nil {
		return fmt.Errorf("meshio: %s: write vertices: %w", path, err)
	}
	if err := encodeTetrahedra(w, m.Tetrahedra); err != nil {
		return fmt.Errorf("meshio: %s: write tetrahedra: %w", path, err)
	}
	if err := encodeTriangles(w, m.Triangles); err != nil {
		return fmt.Errorf("meshio: %s: write triangles: %w", path, err)
	}

	return w.Flush()
}
