package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the append-only, ordered list of turns. Only Clear truncates it.
type Store struct {
	mu      sync.RWMutex
	turns   []Turn
	welcome *Turn
	now     func() time.Time
}

// NewStore returns an empty store. A non-empty welcome message seeds the
// store with an assistant turn that survives Clear.
func NewStore(welcome string) *Store {
	s := &Store{now: time.Now}
	if welcome != "" {
		turn := s.stamp(assistantText(welcome))
		s.welcome = &turn
		s.turns = []Turn{turn}
	}
	return s
}

func (s *Store) stamp(t Turn) Turn {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	return t
}

// Append adds t at the end and returns it with its ID and timestamp set.
func (s *Store) Append(t Turn) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	t = s.stamp(t)
	s.turns = append(s.turns, t)
	return t
}

// Turns returns a copy of the conversation in order.
func (s *Store) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len reports the number of turns, welcome included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Clear drops every turn except the welcome message.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.welcome != nil {
		s.turns = []Turn{*s.welcome}
		return
	}
	s.turns = nil
}

// Restore replaces the conversation with previously saved turns, keeping the
// welcome message in front when one is configured.
func (s *Store) Restore(turns []Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	restored := make([]Turn, 0, len(turns)+1)
	if s.welcome != nil {
		restored = append(restored, *s.welcome)
		if len(turns) > 0 && turns[0].Role == RoleAssistant && turns[0].Content == s.welcome.Content {
			turns = turns[1:]
		}
	}
	for _, t := range turns {
		restored = append(restored, s.stamp(t))
	}
	s.turns = restored
}
