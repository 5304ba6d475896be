/*
Package scheduler implements LPlib's parallel loop scheduler: a fixed
worker pool, an entity-type registry, and the Launch contract that
drives a parallel loop through coloring, barrier, packet dispatch, and
dependency waits with negligible per-iteration overhead.

Only one Launch runs at a time on a given Scheduler. Families and
dependency links must be mutated only between launches; the scheduler
tracks a generation counter so debug builds can assert on concurrent
misuse (see internal.Assert).
*/
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/exascience/lplib"
	"github.com/exascience/lplib/coloring"
	"github.com/exascience/lplib/internal"
	"github.com/exascience/lplib/partition"
	"github.com/exascience/lplib/xtime"
)

const coloringConstantK = 4

// A FamilyID identifies one registered entity type within a
// Scheduler. It is an alias of the root package's FamilyID so callers
// never need to import both packages just to name one.
type FamilyID = lplib.FamilyID

// UserFunc and ObserveFunc are aliases of the root package's function
// types, kept local so scheduler's own godoc reads self-contained.
type (
	UserFunc    = lplib.UserFunc
	ObserveFunc = lplib.ObserveFunc
)

type link struct {
	target  FamilyID
	observe ObserveFunc
}

// family holds the per-entity-type state a registered entity type
// needs: a cardinality, a deterministic packet table, the current
// coloring, the outgoing dependency links that coloring must respect,
// and a dirty flag meaning "coloring must be recomputed before the
// next launch".
type family struct {
	cardinality int
	packets     []partition.Packet
	colors      []coloring.ColorClass
	links       []link
	dirty       bool
}

// workItem binds one packet, already converted to the 1-based
// inclusive range the user function expects, to the function and
// argument of the launch currently in progress.
type workItem struct {
	begin, end int
	fn         UserFunc
	arg        interface{}
}

/*
A Scheduler is process-wide-per-instance parallel-loop execution state:
a fixed worker pool, a packet queue, a per-family table, and a
dependency graph across families.

The zero Scheduler is not valid; use New.
*/
type Scheduler struct {
	id     uuid.UUID
	logger *slog.Logger

	n       int
	wg      sync.WaitGroup
	mu      sync.Mutex
	workC   *sync.Cond // workers wait on this for "work available"
	idleC   *sync.Cond // Launch waits on this for "all workers idle"
	stopped bool

	round    uint64 // bumped each time a new batch of packets is queued
	items    []workItem
	cursor   int64 // atomic fetch-add cursor into items
	total    int
	idle     int
	panicErr error // first recovered packet panic of the current launch, if any

	families   map[FamilyID]*family
	nextID     FamilyID
	generation uint64
	launching  bool
	coloringK  int
}

// New creates a Scheduler with nWorkers workers, clamped to [1, 128],
// and starts the worker pool. The coloring freedom constant k is the
// library default (schedconfig.DefaultColoringConstantK); use
// NewWithColoringConstant to override it.
func New(nWorkers int) *Scheduler {
	return NewWithColoringConstant(nWorkers, coloringConstantK)
}

/*
NewWithColoringConstant creates a Scheduler the same way New does, but
with an explicit coloring freedom constant k instead of the library
default.

k controls how finely RegisterFamily subdivides a family into packets
relative to the worker count (see ComputePacketSize): a smaller k
yields fewer, larger packets and less coloring freedom; a larger k
yields more, smaller packets and lets the coloring engine find fewer
color classes at the cost of per-packet overhead. Changing k changes
the packet table and therefore the exact coloring a family receives,
so callers that rely on bit-reproducible coloring across runs must
keep k fixed.
*/
func NewWithColoringConstant(nWorkers, k int) *Scheduler {
	if k < 1 {
		panic(fmt.Sprintf("scheduler: invalid coloring constant: %v", k))
	}
	n := lplib.ClampWorkerCount(nWorkers)
	s := &Scheduler{
		id:        uuid.New(),
		logger:    slog.Default(),
		n:         n,
		coloringK: k,
		families:  make(map[FamilyID]*family),
	}
	s.workC = sync.NewCond(&s.mu)
	s.idleC = sync.NewCond(&s.mu)
	s.wg.Add(n)
	for worker := 0; worker < n; worker++ {
		go func(workerID int) {
			defer s.wg.Done()
			s.runWorker(workerID)
		}(worker)
	}
	s.logger.Debug("scheduler started", "run_id", s.id, "workers", n, "coloring_k", k)
	return s
}

// SetLogger attaches l as the scheduler's structured logger. A nil
// logger disables debug-level launch/dependency logging entirely.
func (s *Scheduler) SetLogger(l *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

// runWorker is the body of one worker goroutine: wait for a new round
// of work, claim packets by atomic fetch-add on the shared cursor
// until the round is drained, report idle, and repeat until Shutdown.
func (s *Scheduler) runWorker(workerID int) {
	var seen uint64
	for {
		s.mu.Lock()
		for s.round == seen && !s.stopped {
			s.workC.Wait()
		}
		if s.stopped && s.round == seen {
			s.mu.Unlock()
			return
		}
		seen = s.round
		total := int64(s.total)
		s.mu.Unlock()

		for {
			i := atomic.AddInt64(&s.cursor, 1) - 1
			if i >= total {
				break
			}
			item := s.items[i]
			if !s.runPacket(item, workerID) {
				break
			}
		}

		s.mu.Lock()
		s.idle++
		if s.idle == s.n {
			s.idleC.Signal()
		}
		s.mu.Unlock()
	}
}

// runPacket executes one packet, recovering any panic into s.panicErr
// so Launch can turn it into an error once every worker has reported
// idle. It returns false if the packet panicked, telling the caller to
// stop claiming further packets from this round: the round is still
// drained by the other workers, but a worker that has just panicked
// has no further guarantee about the validity of its own stack.
func (s *Scheduler) runPacket(item workItem, workerID int) (ok bool) {
	defer func() {
		if err := internal.Recover(recover()); err != nil {
			s.mu.Lock()
			if s.panicErr == nil {
				s.panicErr = err
			}
			s.mu.Unlock()
			ok = false
		}
	}()
	item.fn(item.begin, item.end, workerID, item.arg)
	return true
}

// Shutdown stops the worker pool and joins every worker. Shutdown
// must not be called while a launch is active.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.stopped = true
	s.workC.Broadcast()
	s.mu.Unlock()
	s.wg.Wait()
}

// RegisterFamily registers a new entity type of the given cardinality
// and returns its FamilyID. The family starts dirty: its coloring is
// computed lazily on first Launch.
func (s *Scheduler) RegisterFamily(cardinality int) FamilyID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	f := &family{cardinality: cardinality}
	s.repartitionLocked(f)
	s.families[id] = f
	return id
}

// repartitionLocked rebuilds f's packet table from its current
// cardinality and marks f dirty. Callers must hold s.mu.
func (s *Scheduler) repartitionLocked(f *family) {
	f.packets = partition.Packets(f.cardinality, s.n, s.coloringK)
	f.dirty = true
}

// AddDependency records that packets of writer touch cells of target
// through observe, and marks writer dirty so its coloring is rebuilt
// before the next launch.
func (s *Scheduler) AddDependency(writer, target FamilyID, observe ObserveFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.families[writer]
	if !ok {
		return fmt.Errorf("scheduler: add dependency: %w: writer family %d", ErrUnknownFamily, writer)
	}
	if _, ok := s.families[target]; !ok {
		return fmt.Errorf("scheduler: add dependency: %w: target family %d", ErrUnknownFamily, target)
	}
	w.links = append(w.links, link{target: target, observe: observe})
	w.dirty = true
	s.generation++
	if s.logger != nil {
		s.logger.Debug("dependency added", "run_id", s.id, "writer", writer, "target", target)
	}
	return nil
}

// RemoveDependency erases the link from writer to target, if any, and
// marks writer dirty.
func (s *Scheduler) RemoveDependency(writer, target FamilyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.families[writer]
	if !ok {
		return fmt.Errorf("scheduler: remove dependency: %w: writer family %d", ErrUnknownFamily, writer)
	}
	kept := w.links[:0]
	for _, l := range w.links {
		if l.target != target {
			kept = append(kept, l)
		}
	}
	w.links = kept
	w.dirty = true
	s.generation++
	if s.logger != nil {
		s.logger.Debug("dependency removed", "run_id", s.id, "writer", writer, "target", target)
	}
	return nil
}

// Resize updates family's cardinality, repartitions it, and marks
// every family with an outgoing link to it dirty. Resize returns
// ErrResizeWhileActive if a launch is in progress.
func (s *Scheduler) Resize(family FamilyID, newCardinality int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launching {
		return fmt.Errorf("scheduler: resize: %w", ErrResizeWhileActive)
	}
	f, ok := s.families[family]
	if !ok {
		return fmt.Errorf("scheduler: resize: %w: family %d", ErrUnknownFamily, family)
	}
	f.cardinality = newCardinality
	s.repartitionLocked(f)
	for _, other := range s.families {
		for _, l := range other.links {
			if l.target == family {
				other.dirty = true
				break
			}
		}
	}
	s.generation++
	if s.logger != nil {
		s.logger.Debug("family resized", "run_id", s.id, "family", family, "cardinality", newCardinality)
	}
	return nil
}

// Info reports the scheduler's worker count and the number of
// registered families.
func (s *Scheduler) Info() (nWorkers, nFamilies int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n, len(s.families)
}

/*
Launch recomputes family's coloring if it is dirty, then drives the
worker pool through each color class in turn: enqueue every packet of
the class, wake the workers, block until the queue is drained and every
worker reports idle, advance to the next class. It returns the
wall-clock time elapsed, or an error if family is unknown, a launch is
already active, or fn panicked while processing some packet.

fn receives each packet's 1-based, end-inclusive range, the dense
worker identity that executed it, and arg. A panic inside fn is
recovered by the worker that raised it and reported back as an error
wrapping ErrPacketPanic once every worker has gone idle; it does not
bring down the process, but Launch still abandons any remaining color
classes, since a family whose coloring already built on the panicking
packet's side effects cannot safely continue.
*/
func (s *Scheduler) Launch(family FamilyID, fn UserFunc, arg interface{}) (elapsed time.Duration, err error) {
	s.mu.Lock()
	if s.launching {
		s.mu.Unlock()
		return 0, fmt.Errorf("scheduler: launch: %w", ErrLaunchActive)
	}
	f, ok := s.families[family]
	if !ok {
		s.mu.Unlock()
		return 0, fmt.Errorf("scheduler: launch: %w: family %d", ErrUnknownFamily, family)
	}
	s.launching = true
	s.panicErr = nil
	gen := s.generation
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		mutated := s.generation != gen
		s.launching = false
		s.mu.Unlock()
		internal.Assert(!mutated, "scheduler: families or dependency links changed during a launch")
	}()

	if f.dirty {
		s.recolor(f)
	}

	sw := xtime.New()
	for _, class := range f.colors {
		items := make([]workItem, len(class))
		for i, p := range class {
			pkt := f.packets[p]
			items[i] = workItem{begin: pkt.Begin + 1, end: pkt.End, fn: fn, arg: arg}
		}
		s.dispatch(items)

		s.mu.Lock()
		panicErr := s.panicErr
		s.mu.Unlock()
		if panicErr != nil {
			return sw.Elapsed(), fmt.Errorf("scheduler: launch: %w: %v", ErrPacketPanic, panicErr)
		}
	}
	elapsed = sw.Elapsed()

	if s.logger != nil {
		s.logger.Debug("launch complete", "run_id", s.id, "family", family, "classes", len(f.colors), "elapsed", elapsed)
	}
	return elapsed, nil
}

// recolor rebuilds f's coloring from its current packet table and
// dependency links. Callers must not hold s.mu (coloring.Color may
// call observe functions that take nontrivial time).
func (s *Scheduler) recolor(f *family) {
	links := make([]coloring.Link, len(f.links))
	for i, l := range f.links {
		observe := l.observe
		links[i] = coloring.Link{Target: int(l.target), Observe: observe}
	}
	f.colors = coloring.Color(f.packets, links)
	f.dirty = false
	if internal.DebugBuild {
		covered := 0
		for _, class := range f.colors {
			covered += len(class)
		}
		internal.Assert(covered == len(f.packets), "scheduler: recolor dropped packets: got %d, want %d", covered, len(f.packets))
	}
}

// dispatch enqueues items as the current round, wakes every worker,
// and blocks until all of them report idle. It is the barrier between
// two color classes.
func (s *Scheduler) dispatch(items []workItem) {
	s.mu.Lock()
	s.items = items
	atomic.StoreInt64(&s.cursor, 0)
	s.total = len(items)
	s.idle = 0
	s.round++
	s.workC.Broadcast()
	for s.idle < s.n {
		s.idleC.Wait()
	}
	s.mu.Unlock()
}
