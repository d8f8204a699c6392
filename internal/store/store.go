// Package store is the SQLite-backed record store. Every committed mutation
// of items or catalog entries is announced to subscribers.
package store

import (
	"database/sql"
	"strings"
	"sync"
)

// Store wraps the database and the change notifier.
type Store struct {
	db *sql.DB

	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

// New returns a store over an open database with the schema applied.
func New(db *sql.DB) *Store {
	return &Store{db: db, subs: make(map[int]chan struct{})}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Subscribe returns a channel that receives a value after every committed
// item or catalog mutation, and a function that ends the subscription.
// Notifications carry no payload and are coalesced: a subscriber that has
// not drained its channel receives one pending value for many mutations.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// notify announces a committed mutation.
func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
