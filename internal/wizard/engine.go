package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/core/metrics"
	"github.com/unimeeting/unimeetbot/core/telegram/state"
)

// ErrNoStep means the user's current state belongs to no registered flow.
var ErrNoStep = errors.New("wizard: no active step")

// Step binds a session state to the field it collects.
type Step struct {
	State state.State
	Field string
}

// FinishFunc persists a completed draft and returns the state to move into.
// Returning state.StateIdle ends the conversation and drops the draft.
type FinishFunc func(ctx context.Context, userID int64, draft map[string]string) (state.State, error)

// Flow is an ordered list of steps.
type Flow struct {
	Name   string
	Steps  []Step
	Finish FinishFunc
}

// Outcome describes what one Advance call did.
type Outcome struct {
	Flow string
	// Step is the step that consumed the input.
	Step Step
	// Rejected is set when validation failed; the state is unchanged.
	Rejected *ValidationError
	// Next is the following step when the flow continues.
	Next *Step
	// Done is set after Finish ran; State is what it returned.
	Done  bool
	State state.State
	Draft map[string]string
}

type position struct {
	flow  *Flow
	index int
}

// Engine dispatches input to the step matching the user's state.
type Engine struct {
	store   state.Store
	policy  Policy
	metrics *metrics.Metrics

	mu    sync.RWMutex
	flows map[string]*Flow
	steps map[state.State]position
}

// NewEngine creates an Engine. m may be nil.
func NewEngine(store state.Store, policy Policy, m *metrics.Metrics) *Engine {
	return &Engine{
		store:   store,
		policy:  policy,
		metrics: m,
		flows:   make(map[string]*Flow),
		steps:   make(map[state.State]position),
	}
}

// Policy returns the validation rules in use.
func (e *Engine) Policy() Policy { return e.policy }

// Register adds a flow. Names and step states must be unique.
func (e *Engine) Register(f Flow) error {
	if f.Name == "" || len(f.Steps) == 0 || f.Finish == nil {
		return fmt.Errorf("wizard: invalid flow %q", f.Name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.flows[f.Name]; exists {
		return fmt.Errorf("wizard: flow %q already registered", f.Name)
	}
	for _, st := range f.Steps {
		if st.State == state.StateIdle {
			return fmt.Errorf("wizard: flow %q has an idle step", f.Name)
		}
		if _, exists := e.steps[st.State]; exists {
			return fmt.Errorf("wizard: state %q already bound", st.State)
		}
	}
	flow := f
	e.flows[f.Name] = &flow
	for i, st := range flow.Steps {
		e.steps[st.State] = position{flow: &flow, index: i}
	}
	return nil
}

// States lists every step state of every flow.
func (e *Engine) States() []state.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]state.State, 0, len(e.steps))
	for _, f := range e.flows {
		for _, st := range f.Steps {
			out = append(out, st.State)
		}
	}
	return out
}

// Begin puts the user on the first step of the named flow. seed values are
// merged into the draft, e.g. the id of the record being edited.
func (e *Engine) Begin(ctx context.Context, userID int64, name string, seed map[string]string) (Step, error) {
	e.mu.RLock()
	f, ok := e.flows[name]
	e.mu.RUnlock()
	if !ok {
		return Step{}, fmt.Errorf("wizard: unknown flow %q", name)
	}
	if len(seed) > 0 {
		if err := e.store.UpdateDraft(ctx, userID, seed); err != nil {
			return Step{}, fmt.Errorf("wizard: seed draft: %w", err)
		}
	}
	first := f.Steps[0]
	if err := e.store.SetState(ctx, userID, first.State); err != nil {
		return Step{}, fmt.Errorf("wizard: set state: %w", err)
	}
	logger.LogEvent(ctx, logger.Wizard, slog.LevelDebug, "wizard.begin",
		slog.String("flow", name),
		slog.String("state", string(first.State)),
	)
	return first, nil
}

// Current returns the step the user is on.
func (e *Engine) Current(ctx context.Context, userID int64) (Step, bool) {
	st, err := e.store.State(ctx, userID)
	if err != nil {
		return Step{}, false
	}
	e.mu.RLock()
	pos, ok := e.steps[st]
	e.mu.RUnlock()
	if !ok {
		return Step{}, false
	}
	return pos.flow.Steps[pos.index], true
}

// Advance feeds in to the user's current step. A validation failure is
// reported in the Outcome, not as an error.
func (e *Engine) Advance(ctx context.Context, userID int64, in Input) (Outcome, error) {
	st, err := e.store.State(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("wizard: read state: %w", err)
	}
	e.mu.RLock()
	pos, ok := e.steps[st]
	e.mu.RUnlock()
	if !ok {
		return Outcome{}, ErrNoStep
	}
	step := pos.flow.Steps[pos.index]
	out := Outcome{Flow: pos.flow.Name, Step: step}

	value, err := e.policy.Validate(step.Field, in)
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return out, err
		}
		e.metrics.ObserveRejection(verr.Field, verr.Kind)
		logger.LogEvent(ctx, logger.Wizard, slog.LevelDebug, "wizard.rejected",
			slog.String("flow", out.Flow),
			slog.String("field", verr.Field),
			slog.String("kind", verr.Kind),
		)
		out.Rejected = verr
		return out, nil
	}

	if err := e.store.UpdateDraft(ctx, userID, map[string]string{step.Field: value}); err != nil {
		return out, fmt.Errorf("wizard: update draft: %w", err)
	}

	if pos.index+1 < len(pos.flow.Steps) {
		next := pos.flow.Steps[pos.index+1]
		if err := e.store.SetState(ctx, userID, next.State); err != nil {
			return out, fmt.Errorf("wizard: set state: %w", err)
		}
		out.Next = &next
		return out, nil
	}

	draft, err := e.store.Draft(ctx, userID)
	if err != nil {
		return out, fmt.Errorf("wizard: read draft: %w", err)
	}
	out.Draft = draft
	next, err := pos.flow.Finish(ctx, userID, draft)
	if err != nil {
		return out, err
	}
	if next == state.StateIdle {
		err = e.store.ClearState(ctx, userID)
	} else {
		err = e.store.SetState(ctx, userID, next)
	}
	if err != nil {
		return out, fmt.Errorf("wizard: finish transition: %w", err)
	}
	out.Done, out.State = true, next
	logger.LogEvent(ctx, logger.Wizard, slog.LevelInfo, "wizard.done",
		slog.String("flow", out.Flow),
		slog.String("next", string(next)),
	)
	return out, nil
}
