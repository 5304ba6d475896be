package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchCoverageAndNoDoubleExecution(t *testing.T) {
	s := New(4)
	defer s.Shutdown()

	const cardinality = 10007
	fam := s.RegisterFamily(cardinality)

	covered := make([]int32, cardinality+1) // 1-indexed; index 0 unused
	_, err := s.Launch(fam, func(begin, end, workerID int, arg interface{}) {
		for i := begin; i <= end; i++ {
			atomic.AddInt32(&covered[i], 1)
		}
	}, nil)
	require.NoError(t, err)

	for i := 1; i <= cardinality; i++ {
		assert.Equal(t, int32(1), covered[i], "index %d executed %d times, want exactly 1", i, covered[i])
	}
}

func TestLaunchUnknownFamily(t *testing.T) {
	s := New(2)
	defer s.Shutdown()

	_, err := s.Launch(FamilyID(999), func(begin, end, workerID int, arg interface{}) {}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownFamily))
}

func TestLaunchWhileActiveReturnsError(t *testing.T) {
	s := New(4)
	defer s.Shutdown()

	fam := s.RegisterFamily(1000)
	release := make(chan struct{})
	var launchErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, launchErr = s.Launch(fam, func(begin, end, workerID int, arg interface{}) {
			<-release
		}, nil)
	}()

	// Give the first launch time to mark itself active.
	time.Sleep(20 * time.Millisecond)
	_, err := s.Launch(fam, func(begin, end, workerID int, arg interface{}) {}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLaunchActive))

	close(release)
	wg.Wait()
	require.NoError(t, launchErr)
}

// TestLaunchBarrierOrdering checks property 4 indirectly: when every
// packet of a family conflicts with every other (they all touch the
// same single target index), the coloring engine must give each
// packet its own singleton color class, and the barrier between
// classes must never let two conflicting packets' user-function calls
// overlap. It verifies this by tracking, with a mutex, that at most
// one packet is "inside" its user function at any instant.
func TestLaunchBarrierOrdering(t *testing.T) {
	s := New(4)
	defer s.Shutdown()

	fam := s.RegisterFamily(32)
	target := s.RegisterFamily(1)
	require.NoError(t, s.AddDependency(fam, target, func(begin, end int) []int {
		return []int{1}
	}))

	var mu sync.Mutex
	inside := 0
	maxInside := 0
	calls := 0

	_, err := s.Launch(fam, func(begin, end, workerID int, arg interface{}) {
		mu.Lock()
		inside++
		if inside > maxInside {
			maxInside = inside
		}
		calls++
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		inside--
		mu.Unlock()
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, maxInside, "every packet must conflict with every other, so classes must never overlap")
	assert.Equal(t, len(s.families[fam].packets), calls)
	for _, class := range s.families[fam].colors {
		assert.Len(t, class, 1, "complete conflict graph must color into singleton classes")
	}
}

func TestResizeRepartitionsAndDirtiesDependents(t *testing.T) {
	s := New(2)
	defer s.Shutdown()

	writer := s.RegisterFamily(100)
	target := s.RegisterFamily(10)
	require.NoError(t, s.AddDependency(writer, target, func(begin, end int) []int {
		return []int{1}
	}))

	// First launch to settle coloring.
	_, err := s.Launch(writer, func(begin, end, workerID int, arg interface{}) {}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Resize(target, 20))

	f := s.families[writer]
	assert.True(t, f.dirty, "resizing target must dirty writer")
}

func TestResizeWhileLaunchActive(t *testing.T) {
	s := New(4)
	defer s.Shutdown()

	fam := s.RegisterFamily(1000)
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Launch(fam, func(begin, end, workerID int, arg interface{}) {
			<-release
		}, nil)
	}()

	time.Sleep(20 * time.Millisecond)
	err := s.Resize(fam, 2000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResizeWhileActive))

	close(release)
	wg.Wait()
}

func TestInfoReportsWorkersAndFamilies(t *testing.T) {
	s := New(6)
	defer s.Shutdown()

	s.RegisterFamily(10)
	s.RegisterFamily(20)

	nWorkers, nFamilies := s.Info()
	assert.Equal(t, 6, nWorkers)
	assert.Equal(t, 2, nFamilies)
}

func TestColoringDeterministicAcrossLaunches(t *testing.T) {
	s := New(8)
	defer s.Shutdown()

	fam := s.RegisterFamily(5000)
	target := s.RegisterFamily(50)
	require.NoError(t, s.AddDependency(fam, target, func(begin, end int) []int {
		return []int{(begin % 50) + 1}
	}))

	_, err := s.Launch(fam, func(begin, end, workerID int, arg interface{}) {}, nil)
	require.NoError(t, err)
	first := s.families[fam].colors

	// Launching again must not recolor (not dirty), so the class
	// structure is identical by construction.
	_, err = s.Launch(fam, func(begin, end, workerID int, arg interface{}) {}, nil)
	require.NoError(t, err)
	second := s.families[fam].colors

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestShutdownJoinsWorkers(t *testing.T) {
	s := New(4)
	fam := s.RegisterFamily(100)
	_, err := s.Launch(fam, func(begin, end, workerID int, arg interface{}) {}, nil)
	require.NoError(t, err)
	s.Shutdown()
}

func TestLaunchRecoversPacketPanic(t *testing.T) {
	s := New(4)
	defer s.Shutdown()

	fam := s.RegisterFamily(1000)
	_, err := s.Launch(fam, func(begin, end, workerID int, arg interface{}) {
		if begin <= 500 && 500 <= end {
			panic("boom")
		}
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPacketPanic))
	assert.Contains(t, err.Error(), "boom")

	// The scheduler itself must still be usable for a later launch.
	_, err = s.Launch(fam, func(begin, end, workerID int, arg interface{}) {}, nil)
	require.NoError(t, err)
}
