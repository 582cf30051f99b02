package recordsync

import (
	"log/slog"
	"sync"
)

// Listener receives the collection after every change. The value is a
// snapshot shared by all listeners of one notification and must be treated
// as read-only.
type Listener func(Collection)

type subscription struct {
	id uint64
	fn Listener
}

// Store holds the canonical Collection and fans out change notifications.
// Create one with NewStore and pass it to every consumer.
//
// Mutations and their notification pass are serialized, so listeners observe
// changes in mutation order. A listener may read the store but must not
// mutate it synchronously.
type Store struct {
	writeMu sync.Mutex

	mu        sync.RWMutex
	data      Collection
	listeners []subscription
	nextID    uint64

	log *slog.Logger
}

// NewStore returns an empty store. Only WithLogger is relevant here.
func NewStore(opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{data: Collection{}, log: o.logger()}
}

// Data returns an independent copy of the current collection.
func (s *Store) Data() Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// SetData replaces the whole collection and notifies listeners. No
// validation happens here.
func (s *Store) SetData(c Collection) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	s.data = c.Clone()
	s.mu.Unlock()
	s.notifyListeners("set")
}

// AddItem appends r and notifies listeners. Id uniqueness is not checked.
func (s *Store) AddItem(r Record) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	s.data = append(s.data, r)
	s.mu.Unlock()
	s.notifyListeners("add")
}

// Subscribe registers l and returns a func that removes exactly this
// registration. Calling it more than once is harmless.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: l})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// notifyListeners runs one synchronous pass over the listeners registered at
// call time. Must be called with writeMu held.
func (s *Store) notifyListeners(op string) {
	s.mu.RLock()
	snapshot := s.data.Clone()
	ls := make([]subscription, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.RUnlock()

	s.log.Debug("collection changed", "op", op, "records", len(snapshot), "listeners", len(ls))
	for _, sub := range ls {
		sub.fn(snapshot)
	}
}
