/*
Package coloring implements the scheduler's greedy graph-coloring
engine.

Given a family's packets and the set of dependency links it writes
through, Color groups the packets into color classes such that no two
packets of the same class ever touch the same cell of any dependent
family. The algorithm is deterministic: ties are always broken by
ascending packet index, so that identical inputs produce identical
colorings across platforms, which is required for reproducible test
vectors and for property 5 of the scheduler's testable properties.
*/
package coloring

import (
	"sort"

	"github.com/exascience/lplib"
	"github.com/exascience/lplib/internal"
	"github.com/exascience/lplib/parallel"
	"github.com/exascience/lplib/partition"
	"github.com/exascience/lplib/speculative"
	lsync "github.com/exascience/lplib/sync"
	lsort "github.com/exascience/lplib/sort"
)

// A Link records that packets of the family being colored touch cells
// of a target family (identified only by an opaque, caller-chosen
// Target value) through the given observation function. Observe must
// be stateless and side-effect-free.
type Link struct {
	Target  int
	Observe lplib.ObserveFunc
}

// A ColorClass is an ordered list of packet indices (into the slice
// passed to Color) that may execute concurrently.
type ColorClass []int

type intKey int

// Hash implements lsync.Hasher so touched target indices can be
// accumulated in a split, lock-sharded map while links are observed
// in parallel.
func (k intKey) Hash() uint64 {
	// Fibonacci hashing spreads small sequential indices, which is
	// the common case for mesh index spaces, across splits evenly.
	return uint64(k) * 11400714819323198485
}

type packetBucket struct {
	mu      chan struct{} // binary semaphore; avoids importing sync.Mutex twice under the lsync alias
	packets []int
}

func newPacketBucket() *packetBucket {
	b := &packetBucket{mu: make(chan struct{}, 1)}
	b.mu <- struct{}{}
	return b
}

func (b *packetBucket) add(packetIdx int) {
	<-b.mu
	b.packets = append(b.packets, packetIdx)
	b.mu <- struct{}{}
}

// conflictSets[i] holds the set of packet indices that conflict with
// packet i through at least one link.
type conflictSets []map[int]struct{}

func (c conflictSets) add(i, j int) {
	if c[i] == nil {
		c[i] = make(map[int]struct{})
	}
	c[i][j] = struct{}{}
}

func buildConflicts(nPackets int, packets []partition.Packet, links []Link) conflictSets {
	conflicts := make(conflictSets, nPackets)
	for _, link := range links {
		groups := lsync.NewMap(0)
		parallel.Range(0, nPackets, 0, func(low, high int) error {
			for i := low; i < high; i++ {
				begin, end := packets[i].Begin+1, packets[i].End
				for _, touched := range link.Observe(begin, end) {
					bucket, _ := groups.LoadOrCompute(intKey(touched), func() interface{} {
						return newPacketBucket()
					})
					bucket.(*packetBucket).add(i)
				}
			}
			return nil
		})
		groups.Range(func(_, value interface{}) bool {
			bucket := value.(*packetBucket)
			members := bucket.packets
			for a := 0; a < len(members); a++ {
				for b := a + 1; b < len(members); b++ {
					conflicts.add(members[a], members[b])
					conflicts.add(members[b], members[a])
				}
			}
			return true
		})
	}
	return conflicts
}

// degreeOrder sorts packet indices by descending conflict degree,
// breaking ties by ascending packet index, exactly as the coloring
// algorithm requires for reproducibility.
type degreeOrder struct {
	order  []int
	degree []int
}

func (o *degreeOrder) Len() int      { return len(o.order) }
func (o *degreeOrder) Swap(i, j int) { o.order[i], o.order[j] = o.order[j], o.order[i] }
func (o *degreeOrder) Less(i, j int) bool {
	di, dj := o.degree[o.order[i]], o.degree[o.order[j]]
	if di != dj {
		return di > dj
	}
	return o.order[i] < o.order[j]
}

// SequentialSort implements lsort.SequentialSorter so degreeOrder can
// also be sorted by the package's parallel quicksort for large packet
// counts, falling back to the standard library below the grain size.
func (o *degreeOrder) SequentialSort(i, j int) {
	sort.Stable(&subOrder{o, i, j})
}

type subOrder struct {
	o    *degreeOrder
	i, j int
}

func (s *subOrder) Len() int           { return s.j - s.i }
func (s *subOrder) Less(i, j int) bool { return s.o.Less(s.i+i, s.i+j) }
func (s *subOrder) Swap(i, j int)      { s.o.Swap(s.i+i, s.i+j) }

/*
Color assigns a color to every packet such that, for every Link and
every resulting ColorClass, the touched-target-index sets of any two
packets in that class are disjoint.

The algorithm is the greedy, deterministic procedure specified for the
scheduler's coloring engine:

 1. materialize every packet's touched-index set for every link;
 2. build, per touched index, the list of packets that touch it;
 3. order packets by descending conflict degree, ties broken by
    ascending packet id;
 4. assign each packet the smallest color not already used by an
    already-assigned conflicting neighbour;
 5. group packets by color into ColorClasses, in ascending color
    order, each class listing its packets in ascending packet order.

When links is empty, Color returns a single class containing every
packet in ascending order.
*/
func Color(packets []partition.Packet, links []Link) []ColorClass {
	n := len(packets)
	if n == 0 {
		return nil
	}
	if len(links) == 0 {
		class := make(ColorClass, n)
		for i := range class {
			class[i] = i
		}
		return []ColorClass{class}
	}

	conflicts := buildConflicts(n, packets, links)

	order := make([]int, n)
	degree := make([]int, n)
	for i := range order {
		order[i] = i
		degree[i] = len(conflicts[i])
	}
	o := &degreeOrder{order: order, degree: degree}
	lsort.Sort(o)

	colors := make([]int, n)
	for i := range colors {
		colors[i] = -1
	}
	var maxColor int
	for _, p := range order {
		used := make(map[int]struct{}, len(conflicts[p]))
		for nb := range conflicts[p] {
			if colors[nb] >= 0 {
				used[colors[nb]] = struct{}{}
			}
		}
		c := 0
		for {
			if _, taken := used[c]; !taken {
				break
			}
			c++
		}
		colors[p] = c
		if c > maxColor {
			maxColor = c
		}
	}

	classes := make([]ColorClass, maxColor+1)
	for i := 0; i < n; i++ {
		classes[colors[i]] = append(classes[colors[i]], i)
	}

	if internal.DebugBuild {
		assertDisjoint(packets, links, classes)
	}

	return classes
}

// assertDisjoint re-derives every link's touched-index sets and
// verifies, for every class, that no two packets of that class share
// a touched index for any link. It is only compiled into debug
// builds (see internal.DebugBuild) because it is quadratic in the
// largest class size.
func assertDisjoint(packets []partition.Packet, links []Link, classes []ColorClass) {
	for _, class := range classes {
		for _, link := range links {
			touched := make([][]int, len(class))
			for i, p := range class {
				touched[i] = link.Observe(packets[p].Begin+1, packets[p].End)
			}
			ok := speculative.And(pairwiseDisjointPredicates(touched)...)
			internal.Assert(ok, "coloring: class contains conflicting packets for link target %d", link.Target)
		}
	}
}

func pairwiseDisjointPredicates(touched [][]int) []lplib.Predicate {
	var preds []lplib.Predicate
	for a := 0; a < len(touched); a++ {
		for b := a + 1; b < len(touched); b++ {
			ta, tb := touched[a], touched[b]
			preds = append(preds, func() bool {
				seen := make(map[int]struct{}, len(ta))
				for _, v := range ta {
					seen[v] = struct{}{}
				}
				for _, v := range tb {
					if _, ok := seen[v]; ok {
						return false
					}
				}
				return true
			})
		}
	}
	return preds
}
