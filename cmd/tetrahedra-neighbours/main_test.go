package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/exascience/lplib/meshio"
)

func writeSampleMesh(t *testing.T, path string) {
	t.Helper()
	m := &meshio.Mesh{
		Version: 2,
		Dim:     3,
		Vertices: []meshio.Vertex{
			{Coord: [3]float64{0, 0, 0}},
			{Coord: [3]float64{1, 0, 0}},
			{Coord: [3]float64{0, 1, 0}},
			{Coord: [3]float64{0, 0, 1}},
		},
		Tetrahedra: []meshio.Tetrahedron{
			{Idx: [4]int{1, 2, 3, 4}},
		},
	}
	if err := m.WriteTo(path); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
}

func TestRunNoArgsPrintsUsageAndExitsZero(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	code := run(nil, w)
	w.Close()
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestRunMissingInputExitsOne(t *testing.T) {
	r, w, _ := os.Pipe()
	defer r.Close()
	code := run([]string{"-out", "x"}, w)
	w.Close()
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRunHappyPath(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.meshb")
	out := filepath.Join(dir, "out.meshb")
	writeSampleMesh(t, in)

	r, w, _ := os.Pipe()
	defer r.Close()
	code := run([]string{"-in", in, "-out", out, "-nproc", "2"}, w)
	w.Close()
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	got, err := meshio.Open(out)
	if err != nil {
		t.Fatalf("Open output: %v", err)
	}
	if len(got.Triangles) != 4 {
		t.Errorf("triangles = %d, want 4", len(got.Triangles))
	}
}

func TestRunUnreadableMeshExitsOne(t *testing.T) {
	r, w, _ := os.Pipe()
	defer r.Close()
	code := run([]string{"-in", filepath.Join(t.TempDir(), "missing"), "-out", "x"}, w)
	w.Close()
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRunAppliesConfigFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.meshb")
	out := filepath.Join(dir, "out.meshb")
	writeSampleMesh(t, in)

	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("num_workers: 1\ncoloring_constant_k: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, w, _ := os.Pipe()
	defer r.Close()
	code := run([]string{"-in", in, "-out", out, "-config", configPath}, w)
	w.Close()
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	got, err := meshio.Open(out)
	if err != nil {
		t.Fatalf("Open output: %v", err)
	}
	if len(got.Triangles) != 4 {
		t.Errorf("triangles = %d, want 4", len(got.Triangles))
	}
}

func TestRunMissingConfigFileExitsOne(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.meshb")
	writeSampleMesh(t, in)

	r, w, _ := os.Pipe()
	defer r.Close()
	code := run([]string{"-in", in, "-out", filepath.Join(dir, "out.meshb"), "-config", filepath.Join(dir, "missing.yaml")}, w)
	w.Close()
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
