package handlers

import (
	"fmt"
	"strings"

	"github.com/AlekSi/pointer"

	"github.com/unimeeting/unimeetbot/core/telegram/format"
	"github.com/unimeeting/unimeetbot/internal/domain"
	"github.com/unimeeting/unimeetbot/internal/menu"
	"github.com/unimeeting/unimeetbot/internal/wizard"
)

const (
	txtWelcomeNew = "👋 *Welcome to UniMeeting!*\n\n" +
		"Meet students from your university at events.\n" +
		"Create a profile, get verified with your student card and join events."
	txtWelcomeBack = "👋 *Welcome back!*\n\nUse the menu below."
	txtAbout       = "ℹ️ *About UniMeeting*\n\n" +
		"1. Create a profile.\n2. Submit a photo of your student card.\n" +
		"3. After approval, join events and find people who go there too."
	txtHelp = "❓ *Help*\n\n" +
		"/start - main menu\n/profile - your profile\n/edit - edit your profile\n" +
		"/events - upcoming events\n/my\\_events - events you joined\n" +
		"/menu - show the menu\n/cancel - stop the current action"
	txtAdminHelp = "\n\n*Admin*\n/admin\\_panel - admin panel\n/pending - pending requests\n/events\\_admin - manage events"

	txtAskCourse      = "🎓 *Step 1/6.* Choose your course:"
	txtAskMajor       = "📚 *Step 2/6.* What is your major?"
	txtAskAge         = "🎂 *Step 3/6.* How old are you?"
	txtAskName        = "👤 *Step 4/6.* What is your name?"
	txtAskDescription = "📝 *Step 5/6.* Tell others a little about yourself."
	txtAskPhoto       = "📷 *Step 6/6.* Send a photo for your profile."
	txtPreviewFooter  = "\n\nSave this profile or start over?"
	txtSaved          = "✅ *Profile saved!*\n\nNow send a photo of your student card to get verified."
	txtAskCard        = "📸 Send a clear photo of your student card."
	txtSubmitted      = "✅ *Request submitted!*\n\nAn admin will review it soon."
	txtAlreadySent    = "⏳ Your request is already waiting for review."
	txtBusy           = "⏳ Finish what you are doing first: /cancel the current step or leave admin mode."
	txtCancelled      = "❌ Cancelled."
	txtNoProfile      = "You have no profile yet. Press \"" + menu.CreateProfile + "\" to start."
	txtNotApproved    = "🔒 Only verified students can do this."
	txtUnknown        = "🤔 I did not get that. Use the menu below."
	txtUnexpectedPic  = "🤔 I was not expecting a photo. Use the menu below."
	txtError          = "⚠️ Something went wrong. Please try again."
	txtVerifyPending  = "⏳ *Verification status:* waiting for review."
	txtVerifyApproved = "✅ *Verification status:* approved."
	txtVerifyRejected = "❌ *Verification status:* rejected. You can submit a new photo."
	txtVerifyNone     = "📸 *Verification status:* not submitted yet."
	txtApprovedNote   = "🎉 *Your profile was approved!*\n\nYou can now join events and find people."
	txtRejectedNote   = "😔 *Your verification was rejected.*\n\nPlease submit a clearer student card photo."

	txtEvents        = "🎉 *Events*\n\nChoose an event:"
	txtNoEvents      = "🎉 *Events*\n\nThere are no active events right now."
	txtMyEventsEmpty = "📅 You have not joined any events yet."
	txtNoMates       = "🔍 Join an event first to find people there."
	txtMatesEmpty    = "🔍 Nobody else from your events is here yet."

	txtAdminDenied     = "⛔ Admins only."
	txtAdminPanel      = "🔧 *Admin panel*\n\nPending requests: %d"
	txtPendingEmpty    = "📋 There are no pending requests."
	txtPendingList     = "📋 *Pending requests* (%d):"
	txtStale           = "This request was already processed."
	txtAdminEvents     = "🎉 *Manage events* (%d):"
	txtAdminEventsNone = "🎉 *Manage events*\n\nNo events yet."
	txtAskEventName    = "📝 *New event.* Send the name (%d-%d characters)."
	txtAskEventDesc    = "📝 Send the description (%d-%d characters)."
	txtAskNewName      = "✏️ Send the new name (%d-%d characters)."
	txtAskNewDesc      = "✏️ Send the new description (%d-%d characters)."
	txtEventCreated    = "✅ Event created."
	txtEventDeleted    = "🗑 Event deleted."
	txtEventMissing    = "This event no longer exists."
	txtEventClosed     = "This event is closed."
	txtAdminClosed     = "🔧 Admin panel closed."
)

var fieldNames = map[string]string{
	wizard.FieldCourse:           "Course",
	wizard.FieldMajor:            "Major",
	wizard.FieldAge:              "Age",
	wizard.FieldName:             "Name",
	wizard.FieldDescription:      "Description",
	wizard.FieldPhoto:            "Photo",
	wizard.FieldStudentCard:      "Student card",
	wizard.FieldEventName:        "Event name",
	wizard.FieldEventDescription: "Event description",
}

func rejectionText(r *wizard.ValidationError, rule wizard.Rule) string {
	name := fieldNames[r.Field]
	if r.Kind == wizard.KindType {
		switch rule.Kind {
		case wizard.Integer:
			return fmt.Sprintf("❌ %s must be a number.", name)
		case wizard.Photo:
			return "❌ Please send a photo."
		}
		return fmt.Sprintf("❌ %s must be text.", name)
	}
	if rule.Kind == wizard.Integer {
		return fmt.Sprintf("❌ %s must be between %d and %d.", name, r.Min, r.Max)
	}
	return fmt.Sprintf("❌ %s must be %d to %d characters long.", name, r.Min, r.Max)
}

func profileText(p domain.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s, %d\n", format.MD(p.Name), p.Age)
	fmt.Fprintf(&b, "🎓 Course %d, %s\n\n", p.Course, format.MD(p.Major))
	b.WriteString(format.MD(p.Description))
	return b.String()
}

func profileOf(u *domain.User) domain.Profile {
	return domain.Profile{
		Name:        pointer.GetString(u.Name),
		Age:         pointer.GetInt(u.Age),
		Course:      pointer.GetInt(u.Course),
		Major:       pointer.GetString(u.Major),
		Description: pointer.GetString(u.Description),
		PhotoID:     pointer.GetString(u.PhotoID),
	}
}

func statusLine(s domain.VerificationStatus) string {
	switch s {
	case domain.StatusPending:
		return "⏳ pending review"
	case domain.StatusApproved:
		return "✅ verified"
	case domain.StatusRejected:
		return "❌ rejected"
	}
	return "not verified"
}

func myProfileText(u *domain.User) string {
	return profileText(profileOf(u)) + "\n\nStatus: " + statusLine(u.VerificationStatus)
}

func handleOf(username *string, telegramID int64) string {
	if h := pointer.GetString(username); h != "" {
		return "@" + format.MD(h)
	}
	return "id " + itoa(telegramID)
}

func requestHeader(r *domain.PendingRequest) string {
	return fmt.Sprintf("📋 *Request #%d*\n%s (%s), course %d\nSubmitted %s",
		r.ID, format.MD(pointer.GetString(r.Name)), handleOf(r.Username, r.TelegramID),
		pointer.GetInt(r.Course), r.CreatedAt.Format("2006-01-02 15:04"))
}

func requestProfile(r *domain.PendingRequest) string {
	p := domain.Profile{
		Name:        pointer.GetString(r.Name),
		Age:         pointer.GetInt(r.Age),
		Course:      pointer.GetInt(r.Course),
		Major:       pointer.GetString(r.Major),
		Description: pointer.GetString(r.Description),
	}
	return fmt.Sprintf("📋 *Request #%d* (%s)\n\n%s", r.ID, handleOf(r.Username, r.TelegramID), profileText(p))
}

func requestLabel(r domain.PendingRequest) string {
	return fmt.Sprintf("%s (%d)", pointer.GetString(r.Name), pointer.GetInt(r.Course))
}

func decidedText(r *domain.PendingRequest, admin string) string {
	verb := "✅ Approved"
	if r.Status == domain.RequestRejected {
		verb = "❌ Rejected"
	}
	return fmt.Sprintf("%s by %s\n\n%s", verb, format.MD(admin), requestHeader(r))
}

func newRequestText(u *domain.User, req *domain.VerificationRequest) string {
	return fmt.Sprintf("🆕 *New verification request #%d*\n%s (%s)",
		req.ID, format.MD(pointer.GetString(u.Name)), handleOf(u.Username, u.TelegramID))
}

func eventText(ev *domain.Event, joined bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 %s\n\n%s\n\n👥 Participants: %d", format.MD(ev.Name), format.MD(ev.Description), ev.ParticipantCount)
	if joined {
		b.WriteString("\n\n✅ You are going.")
	}
	return b.String()
}

func adminEventText(ev *domain.Event) string {
	status := "🟢 active"
	if !ev.IsActive {
		status = "🔴 inactive"
	}
	return fmt.Sprintf("🎉 %s (#%d)\n\n%s\n\nStatus: %s\n👥 Participants: %d\nCreated %s",
		format.MD(ev.Name), ev.ID, format.MD(ev.Description), status, ev.ParticipantCount,
		ev.CreatedAt.Format("2006-01-02"))
}

func myEventsText(list []domain.JoinedEvent) string {
	var b strings.Builder
	b.WriteString("📅 *My events*\n")
	for _, ev := range list {
		fmt.Fprintf(&b, "\n• %s (joined %s)", format.MD(ev.Name), ev.JoinedAt.Format("2006-01-02"))
		if !ev.IsActive {
			b.WriteString(" - closed")
		}
	}
	return b.String()
}

func matesText(memberships int, mates []domain.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 *People from your events* (%d joined)\n", memberships)
	for i := range mates {
		p := profileOf(&mates[i])
		fmt.Fprintf(&b, "\n👤 %s, %d, course %d, %s (%s)\n%s\n",
			format.MD(p.Name), p.Age, p.Course, format.MD(p.Major),
			handleOf(mates[i].Username, mates[i].TelegramID), format.MD(format.Truncate(p.Description, 120)))
	}
	return b.String()
}

func statsText(s domain.Stats) string {
	return fmt.Sprintf("📊 *Statistics*\n\n"+
		"👥 Users: %d\n✅ Approved: %d\n⏳ Pending: %d\n❌ Rejected: %d\n\n"+
		"🎉 Events: %d (active %d)\n📋 Open requests: %d",
		s.TotalUsers, s.ApprovedUsers, s.PendingUsers, s.RejectedUsers,
		s.TotalEvents, s.ActiveEvents, s.PendingRequests)
}
