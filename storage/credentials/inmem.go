package credentials

import (
	"sync"

	"github.com/darasahq/darasa/core/session"
)

// InMemStore keeps the Record in memory; handy for tests and throwaway dev
// sessions.
type InMemStore struct {
	mu  sync.Mutex
	rec session.Record
}

var _ session.Credentials = (*InMemStore)(nil)

func NewInMemStore() *InMemStore {
	return &InMemStore{}
}

func (s *InMemStore) Load() (session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec, nil
}

func (s *InMemStore) Save(rec session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
	return nil
}

func (s *InMemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = session.Record{}
	return nil
}
