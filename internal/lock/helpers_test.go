package lock_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mrz1836/lockgate/internal/lock"
	"github.com/mrz1836/lockgate/internal/store"
)

var errDiskFull = errors.New("disk full")

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// manualScheduler records armed callbacks and fires them on demand.
type manualScheduler struct {
	mu       sync.Mutex
	next     int
	active   map[int]func()
	interval time.Duration
	armed    int
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{active: make(map[int]func())}
}

func (s *manualScheduler) Every(interval time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.active[id] = fn
	s.interval = interval
	s.armed++
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.active, id)
	}
}

// Fire runs every armed callback once.
func (s *manualScheduler) Fire() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.active))
	for _, fn := range s.active {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *manualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// faultyStore wraps a store and fails writes on demand.
type faultyStore struct {
	lock.Store

	mu        sync.Mutex
	failSave  bool
	failTouch bool
	loadErr   error
}

func (f *faultyStore) Load() (lock.Settings, error) {
	f.mu.Lock()
	err := f.loadErr
	f.mu.Unlock()
	if err != nil {
		return lock.DefaultSettings(), err
	}
	return f.Store.Load()
}

func (f *faultyStore) Save(s lock.Settings) error {
	f.mu.Lock()
	fail := f.failSave
	f.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return f.Store.Save(s)
}

func (f *faultyStore) SaveLastActivity(t time.Time) error {
	f.mu.Lock()
	fail := f.failTouch
	f.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return f.Store.SaveLastActivity(t)
}

// scriptedBio is a biometric provider with a fixed answer.
type scriptedBio struct {
	available bool
	modality  lock.Modality
	ok        bool
	err       error
	gate      chan struct{}
	calls     int
	mu        sync.Mutex
}

func (b *scriptedBio) Available() bool         { return b.available }
func (b *scriptedBio) Modality() lock.Modality { return b.modality }

func (b *scriptedBio) Authenticate(ctx context.Context, _ string) (bool, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.gate != nil {
		<-b.gate
	}
	return b.ok, b.err
}

type harness struct {
	engine *lock.Engine
	store  *store.Store
	clock  *fakeClock
	sched  *manualScheduler
}

func newHarness(opts ...lock.Option) *harness {
	h := &harness{
		store: store.NewMemory(),
		clock: newFakeClock(),
		sched: newManualScheduler(),
	}
	base := []lock.Option{lock.WithClock(h.clock), lock.WithScheduler(h.sched)}
	h.engine = lock.NewEngine(h.store, append(base, opts...)...)
	return h
}

// reopen simulates a process restart on the same store.
func (h *harness) reopen(opts ...lock.Option) *lock.Engine {
	base := []lock.Option{lock.WithClock(h.clock), lock.WithScheduler(h.sched)}
	h.engine = lock.NewEngine(h.store, append(base, opts...)...)
	return h.engine
}
