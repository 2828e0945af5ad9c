package domain

import (
	"testing"

	"github.com/AlekSi/pointer"
	"github.com/stretchr/testify/assert"
)

func TestStateOf(t *testing.T) {
	cases := []struct {
		name string
		user *User
		want UserState
	}{
		{"no record", nil, UserNew},
		{"record without profile", &User{VerificationStatus: StatusNotRequested}, UserNew},
		{"empty name", &User{Name: pointer.ToString("")}, UserNew},
		{"profile saved", &User{Name: pointer.ToString("Ann"), VerificationStatus: StatusNotRequested}, UserDraft},
		{"pending", &User{Name: pointer.ToString("Ann"), VerificationStatus: StatusPending}, UserPending},
		{"approved", &User{Name: pointer.ToString("Ann"), VerificationStatus: StatusApproved}, UserApproved},
		{"rejected", &User{Name: pointer.ToString("Ann"), VerificationStatus: StatusRejected}, UserRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StateOf(tc.user))
		})
	}
}

func TestRequestStatusDecision(t *testing.T) {
	assert.True(t, RequestApproved.Decision())
	assert.True(t, RequestRejected.Decision())
	assert.False(t, RequestPending.Decision())
}
