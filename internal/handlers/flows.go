package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/core/telegram/state"
	"github.com/unimeeting/unimeetbot/internal/domain"
	"github.com/unimeeting/unimeetbot/internal/presenter"
	"github.com/unimeeting/unimeetbot/internal/wizard"
)

func (h *Handlers) flows() []wizard.Flow {
	return []wizard.Flow{
		{
			Name: flowRegistration,
			Steps: []wizard.Step{
				{State: stCourse, Field: wizard.FieldCourse},
				{State: stMajor, Field: wizard.FieldMajor},
				{State: stAge, Field: wizard.FieldAge},
				{State: stName, Field: wizard.FieldName},
				{State: stDescription, Field: wizard.FieldDescription},
				{State: stPhoto, Field: wizard.FieldPhoto},
			},
			Finish: h.finishRegistration,
		},
		{
			Name:   flowVerification,
			Steps:  []wizard.Step{{State: stStudentCard, Field: wizard.FieldStudentCard}},
			Finish: h.finishVerification,
		},
		{
			Name: flowEventCreate,
			Steps: []wizard.Step{
				{State: stEventName, Field: wizard.FieldEventName},
				{State: stEventDescription, Field: wizard.FieldEventDescription},
			},
			Finish: h.finishEventCreate,
		},
		{
			Name:   flowEventEditName,
			Steps:  []wizard.Step{{State: stEventEditName, Field: wizard.FieldEventName}},
			Finish: h.finishEventEdit,
		},
		{
			Name:   flowEventEditDesc,
			Steps:  []wizard.Step{{State: stEventEditDesc, Field: wizard.FieldEventDescription}},
			Finish: h.finishEventEdit,
		},
	}
}

// draftProfile converts completed registration answers into a profile.
func draftProfile(draft map[string]string) (domain.Profile, error) {
	course, err := strconv.Atoi(draft[wizard.FieldCourse])
	if err != nil {
		return domain.Profile{}, fmt.Errorf("handlers: draft course: %w", err)
	}
	age, err := strconv.Atoi(draft[wizard.FieldAge])
	if err != nil {
		return domain.Profile{}, fmt.Errorf("handlers: draft age: %w", err)
	}
	return domain.Profile{
		Name:        draft[wizard.FieldName],
		Age:         age,
		Course:      course,
		Major:       draft[wizard.FieldMajor],
		Description: draft[wizard.FieldDescription],
		PhotoID:     draft[wizard.FieldPhoto],
	}, nil
}

func (h *Handlers) finishRegistration(ctx context.Context, userID int64, draft map[string]string) (state.State, error) {
	p, err := draftProfile(draft)
	if err != nil {
		return "", err
	}
	if err := h.Store.UpdateProfile(ctx, userID, p); err != nil {
		return "", err
	}
	logger.LogEvent(ctx, logger.Users, slog.LevelInfo, "profile.saved", slog.Int64("user_id", userID))
	return stPreview, nil
}

func (h *Handlers) finishVerification(ctx context.Context, userID int64, draft map[string]string) (state.State, error) {
	if _, err := h.Review.Submit(ctx, userID, draft[wizard.FieldStudentCard]); err != nil {
		return "", err
	}
	return state.StateIdle, nil
}

func (h *Handlers) finishEventCreate(ctx context.Context, userID int64, draft map[string]string) (state.State, error) {
	if _, err := h.Events.Create(ctx, userID, draft[wizard.FieldEventName], draft[wizard.FieldEventDescription]); err != nil {
		return "", err
	}
	return state.StateIdle, nil
}

func (h *Handlers) finishEventEdit(ctx context.Context, _ int64, draft map[string]string) (state.State, error) {
	id, err := strconv.ParseInt(draft[draftEventID], 10, 64)
	if err != nil {
		return "", fmt.Errorf("handlers: draft event id: %w", err)
	}
	if name, ok := draft[wizard.FieldEventName]; ok {
		_, err = h.Events.Rename(ctx, id, name)
	} else {
		_, err = h.Events.Redescribe(ctx, id, draft[wizard.FieldEventDescription])
	}
	if err != nil {
		return "", err
	}
	return state.StateIdle, nil
}

// prompt is the screen asking for step's field. notice, when set, is shown above it.
func (h *Handlers) prompt(step wizard.Step, notice string) presenter.Screen {
	rule := h.Wizard.Policy()[step.Field]
	var text string
	switch step.State {
	case stCourse:
		text = txtAskCourse
	case stMajor:
		text = txtAskMajor
	case stAge:
		text = txtAskAge
	case stName:
		text = txtAskName
	case stDescription:
		text = txtAskDescription
	case stPhoto:
		text = txtAskPhoto
	case stStudentCard:
		text = txtAskCard
	case stEventName:
		text = fmt.Sprintf(txtAskEventName, rule.Min, rule.Max)
	case stEventDescription:
		text = fmt.Sprintf(txtAskEventDesc, rule.Min, rule.Max)
	case stEventEditName:
		text = fmt.Sprintf(txtAskNewName, rule.Min, rule.Max)
	case stEventEditDesc:
		text = fmt.Sprintf(txtAskNewDesc, rule.Min, rule.Max)
	}
	switch step.State {
	case stMajor, stName, stDescription:
		text += fmt.Sprintf("\n_%d-%d characters._", rule.Min, rule.Max)
	case stAge:
		text += fmt.Sprintf("\n_From %d to %d._", rule.Min, rule.Max)
	}
	if notice != "" {
		text = notice + "\n\n" + text
	}
	s := presenter.Screen{Text: text, Markup: cancelKeyboard()}
	if step.State == stCourse {
		s.Markup = courseKeyboard()
	}
	return s
}

// begin resets the user's flows and starts flow at its first step.
func (h *Handlers) begin(ctx context.Context, in Input, flow string, seed map[string]string, intro string) error {
	h.Mode.StartUserOperation(ctx, in.UserID)
	step, err := h.Wizard.Begin(ctx, in.UserID, flow, seed)
	if err != nil {
		return err
	}
	return h.show(ctx, in, h.prompt(step, intro))
}

// step feeds text or photo input into the active wizard step.
func (h *Handlers) step(ctx context.Context, in Input) error {
	return h.advance(ctx, in, wizard.Input{Text: in.Text, PhotoID: in.PhotoFileID})
}

func (h *Handlers) chooseCourse(ctx context.Context, in Input) error {
	return h.advance(ctx, in, wizard.Input{Text: in.Payload})
}

func (h *Handlers) advance(ctx context.Context, in Input, wi wizard.Input) error {
	out, err := h.Wizard.Advance(ctx, in.UserID, wi)
	if err != nil {
		return h.stepFailed(ctx, in, out, err)
	}
	switch {
	case out.Rejected != nil:
		rule := h.Wizard.Policy()[out.Rejected.Field]
		return h.show(ctx, in, h.prompt(out.Step, rejectionText(out.Rejected, rule)))
	case out.Next != nil:
		return h.show(ctx, in, h.prompt(*out.Next, ""))
	case out.Done:
		return h.finished(ctx, in, out)
	}
	return nil
}

// stepFailed maps errors from a flow's Finish onto user-visible outcomes.
func (h *Handlers) stepFailed(ctx context.Context, in Input, out wizard.Outcome, err error) error {
	switch {
	case errors.Is(err, wizard.ErrNoStep):
		return h.notice(ctx, in, "This step has expired. Use the menu.")
	case errors.Is(err, domain.ErrPendingExists):
		h.clear(ctx, in.UserID)
		return h.menuScreen(ctx, in, txtAlreadySent)
	case errors.Is(err, domain.ErrForbidden):
		h.clear(ctx, in.UserID)
		return h.menuScreen(ctx, in, txtNoProfile)
	case errors.Is(err, domain.ErrNotFound) && (out.Flow == flowEventEditName || out.Flow == flowEventEditDesc):
		h.clear(ctx, in.UserID)
		return h.adminEventsWith(ctx, in, txtEventMissing)
	}
	return err
}

func (h *Handlers) finished(ctx context.Context, in Input, out wizard.Outcome) error {
	if out.Draft[draftReturnAdmin] != "" {
		h.Mode.EnterAdminMode(ctx, in.UserID)
	}
	switch out.Flow {
	case flowRegistration:
		p, err := draftProfile(out.Draft)
		if err != nil {
			return err
		}
		return h.show(ctx, in, presenter.Screen{PhotoID: p.PhotoID, Text: profileText(p) + txtPreviewFooter, Markup: previewKeyboard()})
	case flowVerification:
		return h.menuScreen(ctx, in, txtSubmitted)
	case flowEventCreate:
		return h.adminEventsWith(ctx, in, txtEventCreated)
	case flowEventEditName, flowEventEditDesc:
		id, _ := strconv.ParseInt(out.Draft[draftEventID], 10, 64)
		return h.manageEvent(ctx, in, id)
	}
	return h.menuScreen(ctx, in, txtWelcomeBack)
}

// previewInput answers text typed while the preview buttons are shown.
func (h *Handlers) previewInput(ctx context.Context, in Input) error {
	u, err := h.user(ctx, in)
	if err != nil {
		return err
	}
	if !u.HasProfile() {
		return h.restartProfile(ctx, in)
	}
	p := profileOf(u)
	return h.show(ctx, in, presenter.Screen{PhotoID: p.PhotoID, Text: profileText(p) + txtPreviewFooter, Markup: previewKeyboard()})
}

// saveProfile leaves the preview. Users that still need verification go on
// to the student-card step.
func (h *Handlers) saveProfile(ctx context.Context, in Input) error {
	u, err := h.user(ctx, in)
	if err != nil {
		return err
	}
	// Pending and approved users skip the student-card step.
	switch domain.StateOf(u) {
	case domain.UserDraft, domain.UserRejected:
		h.toast(in, "✅ Saved")
		return h.begin(ctx, in, flowVerification, nil, txtSaved)
	}
	h.clear(ctx, in.UserID)
	h.toast(in, "✅ Saved")
	return h.menuScreen(ctx, in, "✅ *Profile saved!*")
}

func (h *Handlers) restartProfile(ctx context.Context, in Input) error {
	if _, err := h.Store.CreateUser(ctx, in.UserID, in.Username); err != nil {
		return err
	}
	return h.begin(ctx, in, flowRegistration, nil, "")
}

// cancel drops the active flow. A flow started from admin mode returns there.
func (h *Handlers) cancel(ctx context.Context, in Input) error {
	draft, err := h.Sessions.Draft(ctx, in.UserID)
	if err == nil && draft[draftReturnAdmin] != "" {
		h.Mode.EnterAdminMode(ctx, in.UserID)
	} else {
		h.clear(ctx, in.UserID)
	}
	return h.menuScreen(ctx, in, txtCancelled)
}

// clear drops the user's wizard state and draft, keeping admin mode.
func (h *Handlers) clear(ctx context.Context, userID int64) {
	if err := h.Sessions.ClearState(ctx, userID); err != nil {
		logger.LogEvent(ctx, logger.Mode, slog.LevelWarn, "mode.store_error",
			slog.String("op", "clear_state"),
			slog.Int64("user_id", userID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 200)),
		)
	}
}
