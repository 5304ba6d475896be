package renumber

import (
	"math/rand"
	"testing"

	"github.com/exascience/lplib/sequential"
)

// sequentialBoundingBox recomputes a bounding box via the sequential
// package's single-threaded RangeReduce, as an independent oracle for
// boundingBox's parallel tree reduction: same reduce/pair functions,
// no concurrency, so any divergence points at boundingBox's own
// batching rather than at a race.
func sequentialBoundingBox(coords [][3]float64) box {
	result, err := sequential.RangeReduce(0, len(coords), 0,
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
		panic(err)
	}
	return result.(box)
}

func TestBoundingBoxMatchesSequentialOracle(t *testing.T) {
	coords := make([][3]float64, 1000)
	rng := rand.New(rand.NewSource(3))
	for i := range coords {
		coords[i] = [3]float64{rng.Float64()*200 - 100, rng.Float64()*200 - 100, rng.Float64()*200 - 100}
	}

	parallelBox := boundingBox(coords)
	sequentialBox := sequentialBoundingBox(coords)

	if parallelBox != sequentialBox {
		t.Fatalf("parallel bounding box %+v != sequential oracle %+v", parallelBox, sequentialBox)
	}
}
