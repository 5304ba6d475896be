/*
Package renumber computes cache-friendly vertex orderings for meshes.

Hilbert is a pure function, independent of any Scheduler, that orders a point set along a
space-filling curve so that points close in 3-space end up close in
the returned permutation. Renumbering a mesh by this permutation before
registering it with a Scheduler improves the locality of the packet
ranges the scheduler later hands to worker goroutines, though nothing
in this package knows that; it only sorts points.
*/
package renumber

import (
	lsort "github.com/exascience/lplib/sort"

	"github.com/exascience/lplib/parallel"
)

// MaxOrder is the largest curve order this package accepts: three axes
// at MaxOrder bits each must fit in a uint64 Hilbert index.
const MaxOrder = 21

type box struct {
	min, max [3]float64
}

func pointBox(p [3]float64) box {
	return box{min: p, max: p}
}

func unionBox(a, b box) box {
	var r box
	for k := 0; k < 3; k++ {
		r.min[k] = a.min[k]
		if b.min[k] < r.min[k] {
			r.min[k] = b.min[k]
		}
		r.max[k] = a.max[k]
		if b.max[k] > r.max[k] {
			r.max[k] = b.max[k]
		}
	}
	return r
}

// boundingBox computes the axis-aligned bounding box of coords in
// parallel, halving the range recursively the way parallel.RangeReduce
// does for every other tree reduction in this module.
func boundingBox(coords [][3]float64) box {
	n := len(coords)
	result, err := parallel.RangeReduce(0, n, 0,
		func(low, high int) (interface{}, error) {
			b := pointBox(coords[low])
			for i := low + 1; i < high; i++ {
				b = unionBox(b, pointBox(coords[i]))
			}
			return b, nil
		},
		func(x, y interface{}) (interface{}, error) {
			return unionBox(x.(box), y.(box)), nil
		},
	)
	if err != nil {
		// reduce and pair above never return a non-nil error
		panic(err)
	}
	return result.(box)
}

// quantize maps a point's coordinates into [0, 2^order - 1] integer
// grid coordinates within bb, clamping against floating-point
// round-off at the box's own extremes.
func quantize(p [3]float64, bb box, order int) [3]uint32 {
	top := float64((uint64(1) << uint(order)) - 1)
	var q [3]uint32
	for k := 0; k < 3; k++ {
		span := bb.max[k] - bb.min[k]
		var frac float64
		if span > 0 {
			frac = (p[k] - bb.min[k]) / span
		}
		v := frac * top
		switch {
		case v < 0:
			v = 0
		case v > top:
			v = top
		}
		q[k] = uint32(v)
	}
	return q
}

// axesToTranspose is Skilling's bit-interleaving transform: it turns
// n integer axis coordinates of b bits each into the "transposed"
// representation whose bit-interleaving is the point's Hilbert
// distance along the curve of order b in n dimensions.
func axesToTranspose(x *[3]uint32, b uint) {
	const n = 3
	m := uint32(1) << (b - 1)
	for q := m; q > 1; q >>= 1 {
		p := q - 1
		for i := 0; i < n; i++ {
			if x[i]&q != 0 {
				x[0] ^= p
			} else {
				t := (x[0] ^ x[i]) & p
				x[0] ^= t
				x[i] ^= t
			}
		}
	}
	for i := 1; i < n; i++ {
		x[i] ^= x[i-1]
	}
	var t uint32
	for q := m; q > 1; q >>= 1 {
		if x[n-1]&q != 0 {
			t ^= q - 1
		}
	}
	for i := 0; i < n; i++ {
		x[i] ^= t
	}
}

// interleave packs the b-bit transposed axis words of x into a single
// integer, most significant bit first, axis 0 first within each bit
// level, giving the point's Hilbert distance.
func interleave(x [3]uint32, b uint) uint64 {
	var h uint64
	for bit := int(b) - 1; bit >= 0; bit-- {
		for i := 0; i < 3; i++ {
			h <<= 1
			h |= uint64((x[i] >> uint(bit)) & 1)
		}
	}
	return h
}

func hilbertDistance(p [3]float64, bb box, order int) uint64 {
	x := quantize(p, bb, order)
	axesToTranspose(&x, uint(order))
	return interleave(x, uint(order))
}

// distIndex pairs a point's Hilbert distance with its original index,
// so the final sort both orders by distance and, on ties, breaks them
// by index for a result that never depends on sort stability alone.
type distIndex struct {
	dist uint64
	idx  int
}

type distIndexSlice []distIndex

func (s distIndexSlice) Len() int { return len(s) }
func (s distIndexSlice) Less(i, j int) bool {
	if s[i].dist != s[j].dist {
		return s[i].dist < s[j].dist
	}
	return s[i].idx < s[j].idx
}
func (s distIndexSlice) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s distIndexSlice) SequentialSort(i, j int) {
	sub := s[i:j]
	// insertion sort is fine here: SequentialSort is only ever called
	// on sizes below the quicksort grain size.
	for a := 1; a < len(sub); a++ {
		for b := a; b > 0 && sub.Less(b, b-1); b-- {
			sub.Swap(b, b-1)
		}
	}
}

/*
Hilbert orders the points in coords along a 3-dimensional Hilbert
curve of the given order (bits per axis, 1 <= order <= MaxOrder) and
returns a permutation perm such that coords[perm[0]], coords[perm[1]],
... visits every point in curve order.

Hilbert panics if order is out of range. An empty coords returns an
empty, non-nil perm.
*/
func Hilbert(coords [][3]float64, order int) (perm []int) {
	if order < 1 || order > MaxOrder {
		panic("renumber: order out of range")
	}
	n := len(coords)
	if n == 0 {
		return []int{}
	}

	bb := boundingBox(coords)
	keys := make(distIndexSlice, n)
	err := parallel.Range(0, n, 0, func(low, high int) error {
		for i := low; i < high; i++ {
			keys[i] = distIndex{dist: hilbertDistance(coords[i], bb, order), idx: i}
		}
		return nil
	})
	if err != nil {
		panic(err)
	}

	lsort.Sort(keys)

	perm = make([]int, n)
	for i, k := range keys {
		perm[i] = k.idx
	}
	return perm
}
