package assemblyline

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// slots is a bounded index to value store. A slot is reserved before it is filled, and freed when taken,
// so the count of filled plus reserved slots never exceeds the capacity.
type slots[T any] struct {
	mu       sync.Mutex
	entries  map[int64]T
	capacity int
	free     *semaphore.Weighted
}

func newSlots[T any](capacity int) *slots[T] {
	return &slots[T]{
		entries:  make(map[int64]T, capacity),
		capacity: capacity,
		free:     semaphore.NewWeighted(int64(capacity)),
	}
}

// reserve blocks until a slot is free or ctx is done.
func (s *slots[T]) reserve(ctx context.Context) error {
	return s.free.Acquire(ctx, 1)
}

func (s *slots[T]) tryReserve() bool {
	return s.free.TryAcquire(1)
}

// fill stores v in a previously reserved slot.
func (s *slots[T]) fill(index int64, v T) {
	s.mu.Lock()
	s.entries[index] = v
	s.mu.Unlock()
}

func (s *slots[T]) peek(index int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[index]
	return v, ok
}

// take removes the value at index and frees its slot.
func (s *slots[T]) take(index int64) (T, bool) {
	s.mu.Lock()
	v, ok := s.entries[index]
	if ok {
		delete(s.entries, index)
	}
	s.mu.Unlock()
	if ok {
		s.free.Release(1)
	}
	return v, ok
}

// dropAfter removes every value past index and frees their slots.
func (s *slots[T]) dropAfter(index int64) []T {
	var dropped []T
	s.mu.Lock()
	for i, v := range s.entries {
		if i > index {
			dropped = append(dropped, v)
			delete(s.entries, i)
		}
	}
	s.mu.Unlock()
	if len(dropped) > 0 {
		s.free.Release(int64(len(dropped)))
	}
	return dropped
}

func (s *slots[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// signal is a wake-up flag: notifications sent while nobody waits are coalesced into one.
type signal chan struct{}

func newSignal() signal { return make(signal, 1) }

func (s signal) notify() {
	select {
	case s <- struct{}{}:
	default:
	}
}
