package state

import "context"

// State identifies a finite-state-machine step used in conversations.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = ""

// LastMessage records the most recent bot-authored screen in a chat.
type LastMessage struct {
	ChatID    int64
	MessageID int
	HasPhoto  bool
}

// Store keeps conversation state per user.
type Store interface {
	State(ctx context.Context, userID int64) (State, error)
	SetState(ctx context.Context, userID int64, st State) error
	// ClearState resets the state to idle and drops the draft.
	ClearState(ctx context.Context, userID int64) error

	Draft(ctx context.Context, userID int64) (map[string]string, error)
	UpdateDraft(ctx context.Context, userID int64, values map[string]string) error

	AdminMode(ctx context.Context, userID int64) (bool, error)
	SetAdminMode(ctx context.Context, userID int64, on bool) error

	// LastMessage reports ok=false when nothing is recorded.
	LastMessage(ctx context.Context, userID int64) (LastMessage, bool, error)
	SetLastMessage(ctx context.Context, userID int64, msg LastMessage) error
	ClearLastMessage(ctx context.Context, userID int64) error

	// Clear removes everything stored for the user.
	Clear(ctx context.Context, userID int64) error
}
