package coloring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/lplib/partition"
)

// assertClassesDisjoint re-derives every link's touched-index sets and
// fails the test if any two packets of the same class share a touched
// index, the property the coloring engine promises.
func assertClassesDisjoint(t *testing.T, packets []partition.Packet, links []Link, classes []ColorClass) {
	t.Helper()
	for ci, class := range classes {
		for _, link := range links {
			seen := make(map[int]int) // touched index -> owning packet in this class
			for _, p := range class {
				for _, idx := range link.Observe(packets[p].Begin+1, packets[p].End) {
					if owner, ok := seen[idx]; ok {
						t.Fatalf("class %d: packets %d and %d both touch target index %d via link %d", ci, owner, p, idx, link.Target)
					}
					seen[idx] = p
				}
			}
		}
	}
}

func assertClassesCoverAllPackets(t *testing.T, n int, classes []ColorClass) {
	t.Helper()
	seen := make([]bool, n)
	count := 0
	for _, class := range classes {
		for _, p := range class {
			require.False(t, seen[p], "packet %d colored twice", p)
			seen[p] = true
			count++
		}
	}
	require.Equal(t, n, count, "coloring must color every packet exactly once")
}

func TestColorNoLinksSingleClass(t *testing.T) {
	packets := partition.Packets(1000, 4, 4)
	classes := Color(packets, nil)
	require.Len(t, classes, 1)
	assert.Len(t, classes[0], len(packets))
	assertClassesCoverAllPackets(t, len(packets), classes)
}

func TestColorEmptyFamily(t *testing.T) {
	classes := Color(nil, nil)
	assert.Nil(t, classes)
}

func TestColorDisjointWithinClass(t *testing.T) {
	cardinality, nWorkers, k := 1000, 8, 4
	packets := partition.Packets(cardinality, nWorkers, k)

	// Every packet of W also writes, through an indirection, into
	// target index (i mod 100) of a dependent family T for every index
	// i of its range. Packets whose ranges share a residue conflict.
	link := Link{
		Target: 0,
		Observe: func(begin, end int) []int {
			touched := make(map[int]struct{})
			for i := begin; i <= end; i++ {
				touched[i%100] = struct{}{}
			}
			out := make([]int, 0, len(touched))
			for idx := range touched {
				out = append(out, idx)
			}
			return out
		},
	}

	classes := Color(packets, []Link{link})
	assertClassesCoverAllPackets(t, len(packets), classes)
	assertClassesDisjoint(t, packets, []Link{link}, classes)
}

func TestColorDeterministic(t *testing.T) {
	cardinality, nWorkers, k := 12345, 7, 4
	packets := partition.Packets(cardinality, nWorkers, k)
	link := Link{
		Target: 0,
		Observe: func(begin, end int) []int {
			return []int{begin % 37, end % 37}
		},
	}

	first := Color(packets, []Link{link})
	for i := 0; i < 5; i++ {
		again := Color(packets, []Link{link})
		require.Equal(t, len(first), len(again), "run %d: class count differs", i)
		for c := range first {
			require.Equal(t, first[c], again[c], "run %d: class %d differs", i, c)
		}
	}
}

// TestColorSelfDependencyModulo100 is the scenario of a family with
// cardinality 10000 and a single self-dependency mapping every index
// to i mod 100, with packets small enough (size 1) that the conflict
// graph is exactly a disjoint union of 100 cliques of size 100. The
// engine must produce exactly 100 color classes of size 100 each.
func TestColorSelfDependencyModulo100(t *testing.T) {
	const cardinality = 10000
	packets := make([]partition.Packet, cardinality)
	for i := range packets {
		packets[i] = partition.Packet{Begin: i, End: i + 1}
	}

	link := Link{
		Target: 0,
		Observe: func(begin, end int) []int {
			return []int{begin % 100}
		},
	}

	classes := Color(packets, []Link{link})
	require.Len(t, classes, 100)
	for _, class := range classes {
		assert.Len(t, class, 100)
	}
	assertClassesCoverAllPackets(t, cardinality, classes)
	assertClassesDisjoint(t, packets, []Link{link}, classes)
}

func TestColorTwoIndependentLinks(t *testing.T) {
	cardinality, nWorkers, k := 5000, 4, 4
	packets := partition.Packets(cardinality, nWorkers, k)
	links := []Link{
		{Target: 0, Observe: func(begin, end int) []int { return []int{begin % 17} }},
		{Target: 1, Observe: func(begin, end int) []int { return []int{end % 23} }},
	}

	classes := Color(packets, links)
	assertClassesCoverAllPackets(t, len(packets), classes)
	assertClassesDisjoint(t, packets, links, classes)
}
