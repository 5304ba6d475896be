// Package lplib provides a shared-memory parallel loop scheduler
// specialized for unstructured-mesh computations. It lets a caller
// describe an array-indexed computation over one or more mesh entity
// families (vertices, edges, triangles, tetrahedra, ...) and have it
// executed concurrently by a fixed worker pool while guaranteeing that
// no two workers simultaneously write to the same cell of any family
// declared to be written through an indirection.
//
// LPlib provides the following subpackages:
//
// lplib/scheduler provides the Scheduler type itself: a fixed worker
// pool, an entity type registry, and the Launch contract that drives a
// parallel loop through coloring, barrier, packet dispatch, and
// dependency waits.
//
// lplib/partition splits a family's index range into fixed-size,
// contiguous packets.
//
// lplib/coloring groups a family's packets into color classes such
// that no two packets in the same class ever touch the same cell of a
// dependent family through an indirection.
//
// lplib/neighbours is a worked example that uses the scheduler to
// build tetrahedron-to-tetrahedron face adjacency by per-subdomain
// hashing followed by cross-subdomain stitching.
//
// lplib/meshio, lplib/renumber, and lplib/xtime are the mesh file,
// Hilbert renumbering, and wall-clock collaborators used by the
// example program, kept separate from the scheduler itself.
//
// lplib/parallel, lplib/speculative, lplib/sequential, lplib/sort, and
// lplib/sync are general-purpose parallel building blocks that the
// coloring engine and the renumbering utility use internally; they are
// not specific to meshes and can be used on their own.
//
// lplib/pipeline provides functions and data structures to construct
// and execute parallel pipelines, used by lplib/meshio to decode mesh
// blocks.
package lplib

import "fmt"

type (
	// A FamilyID identifies one registered entity type (family) within
	// a Scheduler. The zero FamilyID is never issued by RegisterFamily.
	FamilyID int

	// A UserFunc is the function a caller supplies to Launch. It
	// receives a packet's 1-based, end-inclusive range, the dense
	// worker identity that is executing it, and the caller-supplied
	// argument.
	UserFunc func(begin, end, workerID int, arg interface{})

	// An ObserveFunc enumerates the indices of a target family that a
	// packet of a writer family touches through an indirection. It
	// must be stateless and side-effect-free: the coloring engine may
	// call it repeatedly, and never while a launch is active.
	ObserveFunc func(begin, end int) []int
)

// A PacketWorker is any value that can execute one packet. UserFunc
// values can be adapted to this interface with PacketWorkerFunc; this
// is the capability-abstraction alternative to passing a bare function
// pointer, for callers that want a named, reusable worker.
type PacketWorker interface {
	Run(begin, end, workerID int, arg interface{})
}

// PacketWorkerFunc adapts a UserFunc to the PacketWorker interface.
type PacketWorkerFunc UserFunc

// Run implements the PacketWorker interface.
func (f PacketWorkerFunc) Run(begin, end, workerID int, arg interface{}) {
	f(begin, end, workerID, arg)
}

/*
ComputePacketSize determines the packet size used to partition a
family of cardinality C for N workers, given a freedom constant k.

The result is max(1, ceil(C / (k*N))), matching the scheduler's
partitioning rule: a small k (4 is the library default) leaves the
coloring engine enough packets of freedom to find few-color solutions,
while keeping packets large enough to preserve cache locality.

ComputePacketSize panics if C < 1, N < 1, or k < 1.
*/
func ComputePacketSize(cardinality, nWorkers, k int) int {
	if cardinality < 1 || nWorkers < 1 || k < 1 {
		panic(fmt.Sprintf("invalid partition parameters: C=%v N=%v k=%v", cardinality, nWorkers, k))
	}
	size := ((cardinality - 1) / (k * nWorkers)) + 1
	if size < 1 {
		size = 1
	}
	return size
}

// ClampWorkerCount clamps n into the scheduler's supported worker
// range of [1, 128].
func ClampWorkerCount(n int) int {
	switch {
	case n < 1:
		return 1
	case n > 128:
		return 128
	default:
		return n
	}
}
