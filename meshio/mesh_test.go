package meshio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func sampleMesh() *Mesh {
	return &Mesh{
		Version: 2,
		Dim:     3,
		Vertices: []Vertex{
			{Coord: [3]float64{0, 0, 0}, Ref: 0},
			{Coord: [3]float64{1, 0, 0}, Ref: 0},
			{Coord: [3]float64{0, 1, 0}, Ref: 0},
			{Coord: [3]float64{0, 0, 1}, Ref: 0},
			{Coord: [3]float64{1, 1, 1}, Ref: 1},
		},
		Tetrahedra: []Tetrahedron{
			{Idx: [4]int{1, 2, 3, 4}, Ref: 1},
			{Idx: [4]int{1, 2, 3, 5}, Ref: 1},
		},
		Triangles: []Triangle{
			{Idx: [3]int{2, 3, 4}, Ref: 0},
			{Idx: [3]int{3, 1, 4}, Ref: 0},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.meshb")
	want := sampleMesh()
	if err := want.WriteTo(path); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if len(got.Vertices) != len(want.Vertices) {
		t.Fatalf("vertices: got %d, want %d", len(got.Vertices), len(want.Vertices))
	}
	for i := range want.Vertices {
		if got.Vertices[i] != want.Vertices[i] {
			t.Errorf("vertex %d: got %+v, want %+v", i, got.Vertices[i], want.Vertices[i])
		}
	}
	if len(got.Tetrahedra) != len(want.Tetrahedra) {
		t.Fatalf("tetrahedra: got %d, want %d", len(got.Tetrahedra), len(want.Tetrahedra))
	}
	for i := range want.Tetrahedra {
		if got.Tetrahedra[i] != want.Tetrahedra[i] {
			t.Errorf("tet %d: got %+v, want %+v", i, got.Tetrahedra[i], want.Tetrahedra[i])
		}
	}
	if len(got.Triangles) != len(want.Triangles) {
		t.Fatalf("triangles: got %d, want %d", len(got.Triangles), len(want.Triangles))
	}
	for i := range want.Triangles {
		if got.Triangles[i] != want.Triangles[i] {
			t.Errorf("triangle %d: got %+v, want %+v", i, got.Triangles[i], want.Triangles[i])
		}
	}
}

func TestWriteToRejectsMissingVertices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.meshb")
	m := &Mesh{Version: 2, Dim: 3}
	if err := m.WriteTo(path); err == nil {
		t.Fatal("expected WriteTo to reject a mesh without vertices")
	}
	if _, err := os.Stat(path); err == nil {
		t.Fatal("WriteTo must not create a file when it rejects the mesh")
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.meshb")
	if err := os.WriteFile(path, []byte("not a mesh file, just some bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil || !errors.Is(err, ErrBadMagic) {
		t.Fatalf("got %v, want ErrBadMagic", err)
	}
}

func TestWriteToRejectsNon3D(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flat.meshb")
	m := sampleMesh()
	m.Dim = 2
	err := m.WriteTo(path)
	if err == nil || !errors.Is(err, ErrUnsupportedDimension) {
		t.Fatalf("got %v, want ErrUnsupportedDimension", err)
	}
}
