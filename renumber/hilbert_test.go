package renumber

import (
	"math/rand"
	"testing"
)

func TestHilbertEmpty(t *testing.T) {
	perm := Hilbert(nil, 8)
	if perm == nil || len(perm) != 0 {
		t.Fatalf("got %v, want empty non-nil slice", perm)
	}
}

func TestHilbertPanicsOnBadOrder(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for order 0")
		}
	}()
	Hilbert([][3]float64{{0, 0, 0}}, 0)
}

func TestHilbertIsAPermutation(t *testing.T) {
	coords := make([][3]float64, 500)
	rng := rand.New(rand.NewSource(1))
	for i := range coords {
		coords[i] = [3]float64{rng.Float64(), rng.Float64(), rng.Float64()}
	}
	perm := Hilbert(coords, 10)
	if len(perm) != len(coords) {
		t.Fatalf("got %d entries, want %d", len(perm), len(coords))
	}
	seen := make([]bool, len(coords))
	for _, p := range perm {
		if p < 0 || p >= len(coords) {
			t.Fatalf("index %d out of range", p)
		}
		if seen[p] {
			t.Fatalf("index %d appears twice", p)
		}
		seen[p] = true
	}
}

func TestHilbertDeterministic(t *testing.T) {
	coords := make([][3]float64, 300)
	rng := rand.New(rand.NewSource(7))
	for i := range coords {
		coords[i] = [3]float64{rng.Float64() * 10, rng.Float64() * 10, rng.Float64() * 10}
	}
	first := Hilbert(coords, 12)
	second := Hilbert(coords, 12)
	if len(first) != len(second) {
		t.Fatalf("length mismatch")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non-deterministic at %d: %d vs %d", i, first[i], second[i])
		}
	}
}

// TestHilbertPreservesLocality checks the defining property of a
// space-filling curve ordering: points on a fine integer grid that are
// adjacent on the curve should, on average, be much closer in 3-space
// than a pair of points picked at random. It is a weak statistical
// check, not an exact one, because the curve is a surjection from 1
// dimension onto 3 and short-range jumps do occur.
func TestHilbertPreservesLocality(t *testing.T) {
	const side = 8
	var coords [][3]float64
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			for z := 0; z < side; z++ {
				coords = append(coords, [3]float64{float64(x), float64(y), float64(z)})
			}
		}
	}
	perm := Hilbert(coords, 6)

	dist2 := func(a, b [3]float64) float64 {
		dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
		return dx*dx + dy*dy + dz*dz
	}

	var curveSum float64
	for i := 1; i < len(perm); i++ {
		curveSum += dist2(coords[perm[i-1]], coords[perm[i]])
	}
	curveMean := curveSum / float64(len(perm)-1)

	rng := rand.New(rand.NewSource(42))
	var randomSum float64
	const trials = 2000
	for i := 0; i < trials; i++ {
		a := coords[rng.Intn(len(coords))]
		b := coords[rng.Intn(len(coords))]
		randomSum += dist2(a, b)
	}
	randomMean := randomSum / float64(trials)

	if curveMean >= randomMean {
		t.Fatalf("curve-adjacent mean squared distance %.3f not smaller than random-pair mean %.3f", curveMean, randomMean)
	}
}

func TestHilbertDegenerateAxis(t *testing.T) {
	// All points share the same x coordinate: the bounding box has
	// zero span on that axis, which quantize must not divide by.
	coords := [][3]float64{
		{5, 0, 0},
		{5, 1, 0},
		{5, 0, 1},
		{5, 1, 1},
	}
	perm := Hilbert(coords, 4)
	if len(perm) != 4 {
		t.Fatalf("got %d entries, want 4", len(perm))
	}
}
