package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unimeeting/unimeetbot/internal/domain"
)

func flatten(rows [][]string) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

func TestRowsPerState(t *testing.T) {
	cases := map[domain.UserState][]string{
		domain.UserNew:      {CreateProfile, About, Help},
		domain.UserDraft:    {MyProfile, EditProfile, SubmitVerify, Help},
		domain.UserPending:  {MyProfile, VerifyStatus, Help},
		domain.UserApproved: {MyProfile, EditProfile, FindPeople, Events, Help},
		domain.UserRejected: {MyProfile, EditProfile, Reverify, Help},
	}
	for st, want := range cases {
		assert.Equal(t, want, flatten(Rows(st, false, false)), st)
	}
}

func TestAdminToggleAppended(t *testing.T) {
	rows := Rows(domain.UserApproved, true, false)
	assert.Equal(t, []string{AdminPanel}, rows[len(rows)-2])
	assert.Equal(t, []string{Help}, rows[len(rows)-1])
}

func TestAdminModeOverrides(t *testing.T) {
	want := []string{PendingRequests, ManageEvents, Statistics, ExitAdmin}
	for _, st := range []domain.UserState{domain.UserNew, domain.UserApproved} {
		assert.Equal(t, want, flatten(Rows(st, true, true)))
	}
}

func TestRowsAreDeterministic(t *testing.T) {
	first := Rows(domain.UserDraft, true, false)
	first[0][0] = "mutated"
	assert.Equal(t, Rows(domain.UserDraft, true, false), Rows(domain.UserDraft, true, false))
	assert.Equal(t, MyProfile, Rows(domain.UserDraft, true, false)[0][0])
	assert.Equal(t, flatten(Rows("unknown", false, false)), flatten(Rows(domain.UserNew, false, false)))
}

func TestRenderBuildsReplyKeyboard(t *testing.T) {
	m := Render(domain.UserPending, false, false)
	assert.True(t, m.ResizeKeyboard)
	assert.Len(t, m.ReplyKeyboard, 3)
	assert.Equal(t, MyProfile, m.ReplyKeyboard[0][0].Text)
	assert.Len(t, Labels(), 15)
}
