package state

import (
	"context"
	"maps"
	"sync"
)

type session struct {
	state     State
	draft     map[string]string
	adminMode bool
	last      *LastMessage
}

func (s *session) empty() bool {
	return s.state == StateIdle && len(s.draft) == 0 && !s.adminMode && s.last == nil
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*session
}

// NewMemoryStore constructs a process-local Store. Its contents do not survive a restart.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[int64]*session)}
}

// update runs fn on the user's session, creating it on demand and dropping it once empty.
func (m *memoryStore) update(userID int64, fn func(*session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = &session{}
	}
	fn(s)
	if s.empty() {
		delete(m.sessions, userID)
		return
	}
	m.sessions[userID] = s
}

func (m *memoryStore) read(userID int64) (session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return session{}, false
	}
	out := *s
	out.draft = maps.Clone(s.draft)
	if s.last != nil {
		last := *s.last
		out.last = &last
	}
	return out, true
}

func (m *memoryStore) State(_ context.Context, userID int64) (State, error) {
	s, _ := m.read(userID)
	return s.state, nil
}

func (m *memoryStore) SetState(_ context.Context, userID int64, st State) error {
	m.update(userID, func(s *session) { s.state = st })
	return nil
}

func (m *memoryStore) ClearState(_ context.Context, userID int64) error {
	m.update(userID, func(s *session) {
		s.state = StateIdle
		s.draft = nil
	})
	return nil
}

func (m *memoryStore) Draft(_ context.Context, userID int64) (map[string]string, error) {
	s, _ := m.read(userID)
	if s.draft == nil {
		return map[string]string{}, nil
	}
	return s.draft, nil
}

func (m *memoryStore) UpdateDraft(_ context.Context, userID int64, values map[string]string) error {
	m.update(userID, func(s *session) {
		if s.draft == nil {
			s.draft = make(map[string]string, len(values))
		}
		maps.Copy(s.draft, values)
	})
	return nil
}

func (m *memoryStore) AdminMode(_ context.Context, userID int64) (bool, error) {
	s, _ := m.read(userID)
	return s.adminMode, nil
}

func (m *memoryStore) SetAdminMode(_ context.Context, userID int64, on bool) error {
	m.update(userID, func(s *session) { s.adminMode = on })
	return nil
}

func (m *memoryStore) LastMessage(_ context.Context, userID int64) (LastMessage, bool, error) {
	s, _ := m.read(userID)
	if s.last == nil {
		return LastMessage{}, false, nil
	}
	return *s.last, true, nil
}

func (m *memoryStore) SetLastMessage(_ context.Context, userID int64, msg LastMessage) error {
	m.update(userID, func(s *session) { s.last = &msg })
	return nil
}

func (m *memoryStore) ClearLastMessage(_ context.Context, userID int64) error {
	m.update(userID, func(s *session) { s.last = nil })
	return nil
}

func (m *memoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
