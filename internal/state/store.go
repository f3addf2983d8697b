package state

import (
	"context"
	"sync"
	"time"
)

// Store owns one State and applies actions to it one at a time.
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   map[int]chan State
	nextID int
}

func NewStore(initial State) *Store {
	return &Store{
		state: initial.Clone(),
		subs:  map[int]chan State{},
	}
}

// State returns a snapshot safe to read without holding the store.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Dispatch reduces a into the current state, notifies subscribers and
// returns the resulting snapshot.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, a)
	snap := s.state.Clone()
	for _, ch := range s.subs {
		offer(ch, snap.Clone())
	}
	return snap
}

// Subscribe delivers the latest snapshot after every dispatch. A slow reader
// only ever sees the newest state. The returned func unsubscribes.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan State, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// offer replaces any unread snapshot with v. Only Dispatch sends, under the
// store lock, so the second send cannot block.
func offer(ch chan State, v State) {
	select {
	case ch <- v:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// RunAutoplay advances the slider on a fixed cadence until ctx ends. Manual
// navigation does not reset the ticker; pauses are honored by the reducer.
func RunAutoplay(ctx context.Context, store *Store, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Dispatch(AutoAdvance{})
		}
	}
}
