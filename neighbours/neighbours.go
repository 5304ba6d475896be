/*
Package neighbours is a worked example that uses a Scheduler to
compute tetrahedron-to-tetrahedron face adjacency, and from it the
boundary surface of a volume mesh, without ever taking a lock.

The algorithm runs in two launches. The first builds, per worker, a
private open-addressing hash table keyed by each face's canonical
vertex triple; whenever two tetrahedra processed by the same worker
share a face, both sides of the adjacency are linked immediately. The
second launch lets every tetrahedron still missing a neighbour on some
face probe the workers' tables (read-only), skipping its own stored
face, for a match across the first launch's subdomain boundaries. A worker only ever writes
into its own table and into adjacency cells for tetrahedra it itself
processed, on both launches, so no synchronization beyond the
Scheduler's own barrier is required.
*/
package neighbours

import (
	"math"

	"github.com/exascience/lplib/internal"
	"github.com/exascience/lplib/meshio"
	"github.com/exascience/lplib/scheduler"
)

// tvpf lists, for face j (the face opposite local vertex j of a
// tetrahedron), the three remaining local vertex positions in the
// order that gives the face its outward orientation.
var tvpf = [4][3]int{{1, 2, 3}, {2, 0, 3}, {3, 0, 1}, {0, 2, 1}}

// hashSlot is one entry of a worker's private table: the face it
// stores (identified by its owning tet and the position within that
// tet, voy), the three sorted vertex positions forming its canonical
// key, and the index of the next slot in its overflow chain, 0 for
// none.
type hashSlot struct {
	tet                int
	voy, min, mid, max int
	next               int
}

// hashTableSize picks H, a power of two, the same way the original
// example sizes its per-worker table from the average tets-per-worker
// load, rather than from the worker's actual (possibly uneven) packet
// assignment.
func hashTableSize(nTets, nWorkers int) int {
	ratio := 1. + 2.*float64(nTets)/float64(nWorkers)
	dec := int(math.Ceil(math.Log2(ratio)))
	if dec < 0 {
		dec = 0
	}
	return 1 << uint(dec)
}

// canonicalFace returns the local vertex positions of tet, other than
// face, sorted ascending by the vertex index they name: min, mid,
// max. 6-min-max-face is mid's constant-time identity once
// {min,mid,max,face} = {0,1,2,3}.
func canonicalFace(idx [4]int, face int) (min, mid, max int) {
	min, max = (face+1)%4, (face+1)%4
	for k := 0; k < 4; k++ {
		if k == face {
			continue
		}
		if idx[k] < idx[min] {
			min = k
		} else if idx[k] > idx[max] {
			max = k
		}
	}
	mid = 6 - min - max - face
	return
}

func hashKey(idx [4]int, min, mid, max int, mask int64) int64 {
	return (31*int64(idx[min]) + 7*int64(idx[mid]) + 3*int64(idx[max])) & mask
}

// growHashTable doubles a worker's private table when its overflow
// chain cursor has reached the end of the slice, preserving every
// existing slot and its chain links (which are absolute indices into
// the table, so they remain valid after the copy).
func growHashTable(table []hashSlot) []hashSlot {
	grown := make([]hashSlot, len(table)*2)
	copy(grown, table)
	return grown
}

// insertFace inserts tet i's face into table, or, if a face with the
// same canonical vertex key is already present, records the match in
// neighbours and reports it through touch. It returns the table
// (possibly grown) and the advanced overflow cursor, both of which the
// caller must persist for the next call.
//
// table is replaced by a larger copy, via growHashTable, whenever the overflow
// chain cursor has caught up with the table's current length:
// hashTableSize sizes a worker's table from nTets/nWorkers, the
// *average* load, but a worker can legitimately be handed far more
// than its average share of packets in one launch, in which case its
// table must be allowed to outgrow that initial estimate.
func insertFace(
	table []hashSlot, cursor int64,
	tets []meshio.Tetrahedron, neighbours [][4]int, touch func(workerID, i int),
	mask int64, workerID, i, face int, idx [4]int,
) (newTable []hashSlot, newCursor int64) {
	min, mid, max := canonicalFace(idx, face)
	key := hashKey(idx, min, mid, max, mask)

	if table[key].tet == 0 {
		table[key] = hashSlot{tet: i, voy: face, min: min, mid: mid, max: max}
		return table, cursor
	}

	for {
		slot := table[key]
		otherIdx := tets[slot.tet-1].Idx
		if otherIdx[slot.min] == idx[min] && otherIdx[slot.mid] == idx[mid] && otherIdx[slot.max] == idx[max] {
			neighbours[i][face] = slot.tet
			touch(workerID, i)
			neighbours[slot.tet][slot.voy] = i
			touch(workerID, slot.tet)
			return table, cursor
		}
		if slot.next != 0 {
			key = int64(slot.next)
			continue
		}
		if int(cursor) >= len(table) {
			table = growHashTable(table)
		}
		table[key].next = int(cursor)
		key = cursor
		cursor++
		table[key] = hashSlot{tet: i, voy: face, min: min, mid: mid, max: max}
		return table, cursor
	}
}

/*
SetNeighbours computes, for every tetrahedron in tets and each of its
four faces, the 1-based index of the tetrahedron sharing that face (0
meaning the face is on the boundary), by launching two passes on s.

The returned adjacency table is 1-indexed like tets itself: index 0 is
unused, and neighbours[i][j] corresponds to tets[i-1]'s face j.
Triangles holds the extracted boundary and material-interface faces,
oriented per the tvpf table and referenced 0 for an external face, 1
for an interface between two tetrahedra of differing Ref.
*/
func SetNeighbours(s *scheduler.Scheduler, tets []meshio.Tetrahedron) (neighbours [][4]int, triangles []meshio.Triangle, err error) {
	n := len(tets)
	neighbours = make([][4]int, n+1)
	if n == 0 {
		return neighbours, nil, nil
	}

	nWorkers, _ := s.Info()
	h := hashTableSize(n, nWorkers)
	mask := int64(h - 1)

	tables := make([][]hashSlot, nWorkers)
	cursors := make([]int64, nWorkers)
	for w := range tables {
		tables[w] = make([]hashSlot, 5*h)
		cursors[w] = int64(h)
	}
	matches := make([]int, n+1)
	var owner []int // debug-only: which worker last touched matches[i]
	if internal.DebugBuild {
		owner = make([]int, n+1)
		for i := range owner {
			owner[i] = -1
		}
	}

	touch := func(workerID, i int) {
		matches[i]++
		if internal.DebugBuild {
			if owner[i] != -1 && owner[i] != workerID {
				internal.Assert(false, "neighbours: tet %d's match count written by worker %d after worker %d", i, workerID, owner[i])
			}
			owner[i] = workerID
		}
	}

	fam := s.RegisterFamily(n)

	if _, err = s.Launch(fam, func(begin, end, workerID int, arg interface{}) {
		table := tables[workerID]
		cursor := cursors[workerID]
		for i := begin; i <= end; i++ {
			idx := tets[i-1].Idx
			for face := 0; face < 4; face++ {
				table, cursor = insertFace(table, cursor, tets, neighbours, touch, mask, workerID, i, face, idx)
			}
		}
		tables[workerID] = table
		cursors[workerID] = cursor
	}, nil); err != nil {
		return nil, nil, err
	}

	if nWorkers > 1 {
		if _, err = s.Launch(fam, func(begin, end, workerID int, arg interface{}) {
			for i := begin; i <= end; i++ {
				if matches[i] == 4 {
					continue
				}
				idx := tets[i-1].Idx
				for face := 0; face < 4; face++ {
					if neighbours[i][face] != 0 {
						continue
					}
					min, mid, max := canonicalFace(idx, face)
					base := hashKey(idx, min, mid, max, mask)

					// The scheduler does not hand a packet to the same
					// worker on both launches, so every table is probed;
					// the tet's own stored face is skipped by id.
					for other := 0; other < nWorkers; other++ {
						table := tables[other]
						key := base
						found := false
						for {
							slot := table[key]
							if slot.tet == 0 {
								break
							}
							otherIdx := tets[slot.tet-1].Idx
							if slot.tet != i && otherIdx[slot.min] == idx[min] && otherIdx[slot.mid] == idx[mid] && otherIdx[slot.max] == idx[max] {
								neighbours[i][face] = slot.tet
								found = true
								break
							}
							if slot.next == 0 {
								break
							}
							key = int64(slot.next)
						}
						if found {
							break
						}
					}
				}
			}
		}, nil); err != nil {
			return nil, nil, err
		}
	}

	triangles = extractBoundary(tets, neighbours)
	return neighbours, triangles, nil
}

// extractBoundary mirrors the original example's sequential two-pass
// extraction: count first, then fill, so the triangle slice is
// allocated exactly once at its final size.
func extractBoundary(tets []meshio.Tetrahedron, neighbours [][4]int) []meshio.Triangle {
	n := len(tets)
	count := 0
	for i := 1; i <= n; i++ {
		for face := 0; face < 4; face++ {
			if isBoundaryFace(tets, neighbours, i, face) {
				count++
			}
		}
	}

	triangles := make([]meshio.Triangle, 0, count)
	for i := 1; i <= n; i++ {
		idx := tets[i-1].Idx
		for face := 0; face < 4; face++ {
			ngbIdx := neighbours[i][face]
			if !isBoundaryFace(tets, neighbours, i, face) {
				continue
			}
			var tri meshio.Triangle
			for k := 0; k < 3; k++ {
				tri.Idx[k] = idx[tvpf[face][k]]
			}
			if ngbIdx != 0 {
				tri.Ref = 1
			}
			triangles = append(triangles, tri)
		}
	}
	return triangles
}

func isBoundaryFace(tets []meshio.Tetrahedron, neighbours [][4]int, i, face int) bool {
	ngbIdx := neighbours[i][face]
	if ngbIdx == 0 {
		return true
	}
	return tets[i-1].Ref != tets[ngbIdx-1].Ref && i > ngbIdx
}
