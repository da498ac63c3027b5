// Package viewstate holds screen snapshots and publishes them to observers.
package viewstate

import "sync"

// Phase is the lifecycle stage of a screen operation.
type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "unknown"
}

// Store holds one snapshot value. Values are replaced whole; callers must
// treat slices and maps inside a published snapshot as read-only.
//
// Each subscriber has a single-slot buffer. When it falls behind, the
// pending value is replaced by the newer one so publishers never block.
type Store[T any] struct {
	mu   sync.Mutex
	cur  T
	subs map[int]chan T
	next int
}

func New[T any](initial T) *Store[T] {
	return &Store[T]{cur: initial, subs: make(map[int]chan T)}
}

func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(v)
}

// Update replaces the snapshot with fn(current) atomically and returns the
// new value.
func (s *Store[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := fn(s.cur)
	s.publishLocked(v)
	return v
}

// UpdateIf is Update for callers that may decline the change: nothing is
// published when fn returns false.
func (s *Store[T]) UpdateIf(fn func(T) (T, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := fn(s.cur)
	if ok {
		s.publishLocked(v)
	}
	return ok
}

func (s *Store[T]) publishLocked(v T) {
	s.cur = v
	for _, ch := range s.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// drop the stale pending value
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Subscribe returns a channel that first yields the current snapshot and
// then the latest value after every change. cancel closes the channel.
func (s *Store[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan T, 1)
	ch <- s.cur
	id := s.next
	s.next++
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}
