package state

import (
	"context"
	"fmt"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Machine maps conversation states to their step handlers.
type Machine struct {
	store Store

	mu       sync.RWMutex
	handlers map[State]tele.HandlerFunc
}

// NewMachine creates a Machine reading the current state from store.
func NewMachine(store Store) *Machine {
	return &Machine{store: store, handlers: make(map[State]tele.HandlerFunc)}
}

// Store returns the backing session store.
func (m *Machine) Store() Store { return m.store }

// Handle binds a handler to a state. Registering the idle state is rejected.
func (m *Machine) Handle(st State, h tele.HandlerFunc) error {
	if st == StateIdle || h == nil {
		return fmt.Errorf("state: invalid handler registration for %q", st)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.handlers[st]; exists {
		return fmt.Errorf("state: handler already registered for %q", st)
	}
	m.handlers[st] = h
	return nil
}

func (m *Machine) lookup(st State) (tele.HandlerFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handlers[st]
	return h, ok
}

// InProgress reports whether the user is in a state the machine handles.
func (m *Machine) InProgress(ctx context.Context, userID int64) bool {
	st, err := m.store.State(ctx, userID)
	if err != nil || st == StateIdle {
		return false
	}
	_, ok := m.lookup(st)
	return ok
}

// Dispatch invokes the handler bound to the sender's current state.
// It returns false when no handler applies.
func (m *Machine) Dispatch(ctx context.Context, c tele.Context) (bool, error) {
	if c.Sender() == nil {
		return false, nil
	}
	st, err := m.store.State(ctx, c.Sender().ID)
	if err != nil {
		return false, err
	}
	h, ok := m.lookup(st)
	if !ok {
		return false, nil
	}
	return true, h(c)
}
