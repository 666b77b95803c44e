package editor

import (
	"sort"
	"sync"

	"github.com/alexanderramin/appraise/internal/domain"
)

// Change is published to subscribers after every write. Snapshot is shared
// between subscribers and must be treated as read-only.
type Change struct {
	SectionID string
	Version   uint64
	Snapshot  domain.SectionMap
}

// Store is the section map of one editing session. Reads always see the
// latest completed write; subscribers are notified synchronously, in write
// order, before Update returns.
//
// Subscribers must not call Update or Reset.
type Store struct {
	writeMu sync.Mutex // orders write + publish

	mu       sync.RWMutex
	sections domain.SectionMap
	version  uint64

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// NewStore creates a store holding a copy of initial.
func NewStore(initial domain.SectionMap) *Store {
	s := &Store{subs: map[int]func(Change){}}
	s.sections = initial.Clone()
	return s
}

// Update merges payload over the record for sectionID. The payload is
// copied; later changes to it do not reach the store.
func (s *Store) Update(sectionID string, payload domain.SectionRecord) Change {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writeLocked(sectionID, payload)
}

// UpdateFunc derives a write from the current map and applies it with no
// other write in between. fn gets a copy of the map and must not touch the
// store. If fn fails nothing is written.
func (s *Store) UpdateFunc(fn func(current domain.SectionMap) (sectionID string, payload domain.SectionRecord, err error)) (Change, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	sectionID, payload, err := fn(s.Snapshot())
	if err != nil {
		return Change{}, err
	}
	return s.writeLocked(sectionID, payload), nil
}

// writeLocked is called with writeMu held.
func (s *Store) writeLocked(sectionID string, payload domain.SectionRecord) Change {
	s.mu.Lock()
	s.sections[sectionID] = s.sections[sectionID].Merge(payload.Clone())
	s.version++
	change := Change{SectionID: sectionID, Version: s.version, Snapshot: s.sections.Clone()}
	s.mu.Unlock()

	s.publish(change)
	return change
}

// Reset replaces the whole map, as on hydration.
func (s *Store) Reset(sections domain.SectionMap) Change {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.sections = sections.Clone()
	s.version++
	change := Change{Version: s.version, Snapshot: s.sections.Clone()}
	s.mu.Unlock()

	s.publish(change)
	return change
}

// Snapshot returns a deep copy of the current map.
func (s *Store) Snapshot() domain.SectionMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sections.Clone()
}

// Get returns a copy of one record and whether it exists.
func (s *Store) Get(sectionID string) (domain.SectionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sections[sectionID]
	return rec.Clone(), ok
}

// Version increments on every write.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe registers fn for every subsequent change and returns a func
// that removes it.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish(change Change) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	fns := make([]func(Change), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
