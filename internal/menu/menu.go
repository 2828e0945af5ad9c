// Package menu maps a user's lifecycle stage and admin flags onto the reply
// keyboard shown under the chat.
package menu

import (
	"github.com/unimeeting/unimeetbot/core/telegram/keyboard"
	"github.com/unimeeting/unimeetbot/internal/domain"

	tele "gopkg.in/telebot.v4"
)

// Button labels. They double as text commands.
const (
	CreateProfile = "🚀 Create profile"
	About         = "ℹ️ About"
	MyProfile     = "👤 My profile"
	EditProfile   = "✏️ Edit profile"
	SubmitVerify  = "📸 Submit verification"
	VerifyStatus  = "⏳ Verification status"
	FindPeople    = "🔍 Find people"
	Events        = "🎉 Events"
	Reverify      = "📸 Re-verify"
	AdminPanel    = "🔧 Admin panel"
	Help          = "❓ Help"

	PendingRequests = "📋 Pending requests"
	ManageEvents    = "🎉 Manage events"
	Statistics      = "📊 Statistics"
	ExitAdmin       = "🚪 Exit admin"
)

var userRows = map[domain.UserState][][]string{
	domain.UserNew:      {{CreateProfile}, {About}},
	domain.UserDraft:    {{MyProfile, EditProfile}, {SubmitVerify}},
	domain.UserPending:  {{MyProfile}, {VerifyStatus}},
	domain.UserApproved: {{MyProfile, EditProfile}, {FindPeople, Events}},
	domain.UserRejected: {{MyProfile, EditProfile}, {Reverify}},
}

var adminRows = [][]string{
	{PendingRequests},
	{ManageEvents},
	{Statistics},
	{ExitAdmin},
}

// Rows returns the keyboard layout. Admin mode replaces the user layout; an
// admin outside admin mode gets an extra toggle row.
func Rows(st domain.UserState, isAdmin, adminMode bool) [][]string {
	if adminMode {
		return clone(adminRows)
	}
	base, ok := userRows[st]
	if !ok {
		base = userRows[domain.UserNew]
	}
	rows := clone(base)
	if isAdmin {
		rows = append(rows, []string{AdminPanel})
	}
	return append(rows, []string{Help})
}

// Render builds the reply keyboard for Rows.
func Render(st domain.UserState, isAdmin, adminMode bool) *tele.ReplyMarkup {
	return keyboard.ReplyButtons(Rows(st, isAdmin, adminMode)...)
}

// Labels lists every label the renderer can produce.
func Labels() []string {
	return []string{
		CreateProfile, About, MyProfile, EditProfile, SubmitVerify, VerifyStatus,
		FindPeople, Events, Reverify, AdminPanel, Help,
		PendingRequests, ManageEvents, Statistics, ExitAdmin,
	}
}

func clone(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
