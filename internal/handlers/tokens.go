package handlers

import (
	"strconv"

	"github.com/unimeeting/unimeetbot/core/telegram/state"
)

// Callback tokens. Prefix tokens carry a numeric id suffix.
const (
	cbCoursePrefix = "course_"
	cbSaveProfile  = "save_profile"
	cbEditProfile  = "edit_profile"
	cbCancel       = "wizard_cancel"

	cbAdminPanel       = "admin_panel"
	cbAdminPending     = "admin_pending"
	cbAdminStats       = "admin_stats"
	cbAdminClose       = "admin_close"
	cbAdminEventsList  = "admin_events_list"
	cbAdminEventsRefr  = "admin_events_refresh"
	cbAdminEventCreate = "admin_event_create"

	cbVerifyView        = "verify_view_"
	cbVerifyProfile     = "verify_profile_"
	cbVerifyHideProfile = "verify_hide_profile_"
	cbVerifyApprove     = "verify_approve_"
	cbVerifyReject      = "verify_reject_"

	cbEventsList    = "events_list"
	cbEventsRefresh = "events_refresh"
	cbEventsClose   = "events_close"
	cbNoEvents      = "no_events"
	cbDummy         = "dummy"
	cbEventView     = "event_view_"
	cbEventJoin     = "event_join_"
	cbEventLeave    = "event_leave_"

	cbEventManage     = "admin_event_manage_"
	cbEventActivate   = "admin_event_activate_"
	cbEventDeactivate = "admin_event_deactivate_"
	cbEventEditName   = "admin_event_edit_name_"
	cbEventEditDesc   = "admin_event_edit_desc_"
	cbEventDelete     = "admin_event_delete_"
)

// Conversation states.
const (
	stCourse      state.State = "reg:course"
	stMajor       state.State = "reg:major"
	stAge         state.State = "reg:age"
	stName        state.State = "reg:name"
	stDescription state.State = "reg:description"
	stPhoto       state.State = "reg:photo"
	stPreview     state.State = "reg:preview"

	stStudentCard state.State = "verify:photo"

	stEventName        state.State = "event:name"
	stEventDescription state.State = "event:description"
	stEventEditName    state.State = "event:edit_name"
	stEventEditDesc    state.State = "event:edit_description"
)

// Flow names.
const (
	flowRegistration  = "registration"
	flowVerification  = "verification"
	flowEventCreate   = "event_create"
	flowEventEditName = "event_edit_name"
	flowEventEditDesc = "event_edit_description"
)

// Draft keys that are not wizard fields.
const (
	draftEventID     = "event_id"
	draftReturnAdmin = "return_admin"
)

func token(prefix string, id int64) string { return prefix + itoa(id) }

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
