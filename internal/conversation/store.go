// Package conversation keeps bounded, in-memory per-user dialogue history.
// All state is volatile; nothing survives a restart.
package conversation

import (
	"sync"

	"github.com/dmwangi/relaybot/internal/models"
)

// DefaultMaxTurns bounds how many turns are retained per user. Older turns
// are discarded at write time so long-lived processes keep bounded memory.
const DefaultMaxTurns = 50

type Store struct {
	mu       sync.RWMutex
	threads  map[string][]models.Turn
	maxTurns int
}

func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Store{
		threads:  make(map[string][]models.Turn),
		maxTurns: maxTurns,
	}
}

// Append pushes a turn onto the user's history, creating the thread on first
// use and trimming the oldest turns past the retention cap.
func (s *Store) Append(userID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.threads[userID], models.Turn{Role: role, Content: content})
	if len(turns) > s.maxTurns {
		turns = turns[len(turns)-s.maxTurns:]
	}
	s.threads[userID] = turns
}

// Window returns a copy of the last maxTurns turns for the user in insertion
// order, or all of them if fewer exist. Unknown users get an empty slice.
// The stored history is never mutated.
func (s *Store) Window(userID string, maxTurns int) []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.threads[userID]
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	window := make([]models.Turn, len(turns))
	copy(window, turns)
	return window
}

// Size reports how many distinct users have at least one turn.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads)
}
