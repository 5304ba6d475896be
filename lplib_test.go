package lplib_test

import (
	"testing"

	"github.com/exascience/lplib"
)

// recordingWorker is a named PacketWorker, the kind of reusable value
// PacketWorkerFunc exists to let a caller avoid writing: the closure
// form (UserFunc) is preferred everywhere else in this module, but
// both must satisfy the same contract.
type recordingWorker struct {
	ranges [][2]int
}

func (w *recordingWorker) Run(begin, end, workerID int, arg interface{}) {
	w.ranges = append(w.ranges, [2]int{begin, end})
}

func TestPacketWorkerFuncAdaptsUserFunc(t *testing.T) {
	var got [2]int
	fn := lplib.UserFunc(func(begin, end, workerID int, arg interface{}) {
		got = [2]int{begin, end}
	})

	var worker lplib.PacketWorker = lplib.PacketWorkerFunc(fn)
	worker.Run(3, 9, 0, nil)

	if got != [2]int{3, 9} {
		t.Fatalf("got %v, want [3 9]", got)
	}
}

func TestPacketWorkerNamedType(t *testing.T) {
	w := &recordingWorker{}
	var worker lplib.PacketWorker = w
	worker.Run(1, 5, 0, nil)
	worker.Run(6, 10, 1, nil)

	want := [][2]int{{1, 5}, {6, 10}}
	if len(w.ranges) != len(want) {
		t.Fatalf("ranges = %v, want %v", w.ranges, want)
	}
	for i := range want {
		if w.ranges[i] != want[i] {
			t.Fatalf("ranges[%d] = %v, want %v", i, w.ranges[i], want[i])
		}
	}
}

func TestComputePacketSize(t *testing.T) {
	cases := []struct {
		cardinality, nWorkers, k, want int
	}{
		{cardinality: 1000, nWorkers: 4, k: 4, want: 63},
		{cardinality: 1, nWorkers: 1, k: 1, want: 1},
		{cardinality: 16, nWorkers: 4, k: 4, want: 1},
	}
	for _, c := range cases {
		if got := lplib.ComputePacketSize(c.cardinality, c.nWorkers, c.k); got != c.want {
			t.Errorf("ComputePacketSize(%d, %d, %d) = %d, want %d", c.cardinality, c.nWorkers, c.k, got, c.want)
		}
	}
}

func TestComputePacketSizePanicsOnInvalidInput(t *testing.T) {
	cases := []struct{ cardinality, nWorkers, k int }{
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	for _, c := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("ComputePacketSize(%d, %d, %d) did not panic", c.cardinality, c.nWorkers, c.k)
				}
			}()
			lplib.ComputePacketSize(c.cardinality, c.nWorkers, c.k)
		}()
	}
}

func TestClampWorkerCount(t *testing.T) {
	cases := []struct{ n, want int }{
		{-1, 1},
		{0, 1},
		{1, 1},
		{128, 128},
		{129, 128},
		{1000, 128},
	}
	for _, c := range cases {
		if got := lplib.ClampWorkerCount(c.n); got != c.want {
			t.Errorf("ClampWorkerCount(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}
