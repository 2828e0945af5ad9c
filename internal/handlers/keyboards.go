package handlers

import (
	"fmt"
	"strconv"

	"github.com/unimeeting/unimeetbot/core/telegram/format"
	"github.com/unimeeting/unimeetbot/core/telegram/keyboard"
	"github.com/unimeeting/unimeetbot/internal/domain"
	"github.com/unimeeting/unimeetbot/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

const buttonTextLimit = 40

func courseKeyboard() *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, wizard.CourseMax+1)
	for n := 1; n <= wizard.CourseMax; n++ {
		btns = append(btns, keyboard.Token(strconv.Itoa(n), cbCoursePrefix+strconv.Itoa(n)))
	}
	return keyboard.InlineButtonsRows(btns, []keyboard.InlineBtn{keyboard.CancelButton(cbCancel)})
}

func cancelKeyboard() *tele.ReplyMarkup {
	return keyboard.SingleCancelMarkup(cbCancel)
}

func previewKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{keyboard.Token("✅ Save", cbSaveProfile), keyboard.Token("🔄 Start over", cbEditProfile)},
	)
}

func adminPanelKeyboard(pending int) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		keyboard.Token(fmt.Sprintf("📋 Pending requests (%d)", pending), cbAdminPending),
		keyboard.Token("🎉 Manage events", cbAdminEventsList),
		keyboard.Token("📊 Statistics", cbAdminStats),
		keyboard.Token("❌ Close", cbAdminClose),
	})
}

func backToPanel() keyboard.InlineBtn { return keyboard.Token("⬅️ Back", cbAdminPanel) }

func pendingKeyboard(list []domain.PendingRequest) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(list)+1)
	for _, r := range list {
		btns = append(btns, keyboard.Token(format.Truncate(requestLabel(r), buttonTextLimit), token(cbVerifyView, r.ID)))
	}
	return keyboard.InlineButtons(append(btns, backToPanel()))
}

// requestKeyboard is shown under a request; showingProfile selects the toggle direction.
func requestKeyboard(id int64, showingProfile bool) *tele.ReplyMarkup {
	toggle := keyboard.Token("👤 Profile", token(cbVerifyProfile, id))
	if showingProfile {
		toggle = keyboard.Token("🪪 Request", token(cbVerifyHideProfile, id))
	}
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			keyboard.Token("✅ Approve", token(cbVerifyApprove, id)),
			keyboard.Token("❌ Reject", token(cbVerifyReject, id)),
		},
		[]keyboard.InlineBtn{toggle},
		[]keyboard.InlineBtn{keyboard.Token("⬅️ Back", cbAdminPending)},
	)
}

func decidedKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{keyboard.Token("📋 Next requests", cbAdminPending), backToPanel()})
}

func statsKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{keyboard.Token("🔄 Refresh", cbAdminStats), backToPanel()})
}

func eventsKeyboard(list []domain.Event) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(list)+2)
	for _, ev := range list {
		label := fmt.Sprintf("%s (%d)", ev.Name, ev.ParticipantCount)
		btns = append(btns, keyboard.Token(format.Truncate(label, buttonTextLimit), token(cbEventView, ev.ID)))
	}
	if len(list) == 0 {
		btns = append(btns, keyboard.Token("No events yet", cbNoEvents))
	}
	return keyboard.InlineButtonsRows(
		append(chunk(btns), []keyboard.InlineBtn{
			keyboard.Token("🔄 Refresh", cbEventsRefresh),
			keyboard.Token("❌ Close", cbEventsClose),
		})...,
	)
}

func eventKeyboard(ev *domain.Event, joined bool) *tele.ReplyMarkup {
	action := keyboard.Token("✅ Join", token(cbEventJoin, ev.ID))
	if joined {
		action = keyboard.Token("🚪 Leave", token(cbEventLeave, ev.ID))
	}
	return keyboard.InlineButtons([]keyboard.InlineBtn{action, keyboard.Token("⬅️ All events", cbEventsList)})
}

func adminEventsKeyboard(list []domain.Event) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(list)+3)
	btns = append(btns, keyboard.Token("➕ New event", cbAdminEventCreate))
	for _, ev := range list {
		mark := "🟢"
		if !ev.IsActive {
			mark = "🔴"
		}
		label := fmt.Sprintf("%s %s (%d)", mark, ev.Name, ev.ParticipantCount)
		btns = append(btns, keyboard.Token(format.Truncate(label, buttonTextLimit), token(cbEventManage, ev.ID)))
	}
	btns = append(btns, keyboard.Token("🔄 Refresh", cbAdminEventsRefr), backToPanel())
	return keyboard.InlineButtons(btns)
}

func manageKeyboard(ev *domain.Event) *tele.ReplyMarkup {
	toggle := keyboard.Token("🔴 Deactivate", token(cbEventDeactivate, ev.ID))
	if !ev.IsActive {
		toggle = keyboard.Token("🟢 Activate", token(cbEventActivate, ev.ID))
	}
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{toggle},
		[]keyboard.InlineBtn{
			keyboard.Token("✏️ Name", token(cbEventEditName, ev.ID)),
			keyboard.Token("✏️ Description", token(cbEventEditDesc, ev.ID)),
		},
		[]keyboard.InlineBtn{keyboard.Token("🗑 Delete", token(cbEventDelete, ev.ID))},
		[]keyboard.InlineBtn{keyboard.Token("⬅️ All events", cbAdminEventsList)},
	)
}

func chunk(btns []keyboard.InlineBtn) [][]keyboard.InlineBtn {
	rows := make([][]keyboard.InlineBtn, 0, len(btns))
	for _, b := range btns {
		rows = append(rows, []keyboard.InlineBtn{b})
	}
	return rows
}
