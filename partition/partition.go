/*
Package partition splits a family's index range into fixed-size,
contiguous packets.

Packets are the unit of parallel dispatch for the scheduler: contiguous
indices per packet maximize L1/L2 cache reuse, and a deterministic
packet sequence (given the same cardinality, worker count, and freedom
constant) is required for the coloring engine's bit-reproducibility
guarantee.
*/
package partition

import (
	"fmt"

	"github.com/exascience/lplib"
)

// A Packet is a contiguous, half-open range [Begin, End) in a family's
// 0-based index space. Packet is immutable once created.
type Packet struct {
	Begin, End int
}

// Len returns the number of indices covered by p.
func (p Packet) Len() int {
	return p.End - p.Begin
}

/*
Packets splits [0, cardinality) into fixed-size packets of size
lplib.ComputePacketSize(cardinality, nWorkers, k), the last packet
possibly shorter, and returns them in ascending order.

Packets panics if cardinality < 1, nWorkers < 1, or k < 1.

The returned sequence is deterministic: repeated calls with the same
arguments produce bit-identical results, which is what makes the
coloring engine's output reproducible across platforms and worker
counts.
*/
func Packets(cardinality, nWorkers, k int) []Packet {
	size := lplib.ComputePacketSize(cardinality, nWorkers, k)
	n := ((cardinality - 1) / size) + 1
	packets := make([]Packet, n)
	for i := 0; i < n; i++ {
		begin := i * size
		end := begin + size
		if end > cardinality {
			end = cardinality
		}
		packets[i] = Packet{Begin: begin, End: end}
	}
	return packets
}

// Validate checks that packets exactly partitions [0, cardinality):
// no gap, no overlap, packets sorted by Begin. It is used by tests and
// by the scheduler's debug-build assertions to verify invariant 1.
func Validate(packets []Packet, cardinality int) error {
	expected := 0
	for i, p := range packets {
		if p.Begin != expected {
			return fmt.Errorf("partition: packet %d begins at %d, expected %d", i, p.Begin, expected)
		}
		if p.End < p.Begin {
			return fmt.Errorf("partition: packet %d has end %d before begin %d", i, p.End, p.Begin)
		}
		expected = p.End
	}
	if expected != cardinality {
		return fmt.Errorf("partition: packets cover [0,%d), expected [0,%d)", expected, cardinality)
	}
	return nil
}
