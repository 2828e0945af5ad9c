// Package domain defines the records the bot stores and the errors its
// services report.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotFound means the record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotPending means the verification request is missing or already processed.
	ErrNotPending = errors.New("not found or already processed")
	// ErrPendingExists means the user already has an open verification request.
	ErrPendingExists = errors.New("verification request already pending")
	// ErrForbidden means the user may not perform the action.
	ErrForbidden = errors.New("forbidden")
	// ErrEventInactive means the event exists but is not open.
	ErrEventInactive = errors.New("event is not active")
	// ErrAlreadyJoined means the membership already exists.
	ErrAlreadyJoined = errors.New("already joined")
)

// VerificationStatus is the review state stored on a user.
type VerificationStatus string

const (
	StatusNotRequested VerificationStatus = "not_requested"
	StatusPending      VerificationStatus = "pending"
	StatusApproved     VerificationStatus = "approved"
	StatusRejected     VerificationStatus = "rejected"
)

// RequestStatus is the state of a verification request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Decision reports whether s is an approve or reject outcome.
func (s RequestStatus) Decision() bool {
	return s == RequestApproved || s == RequestRejected
}

// UserState is the menu-facing lifecycle stage derived from a user record.
type UserState string

const (
	UserNew      UserState = "new"
	UserDraft    UserState = "draft"
	UserPending  UserState = "pending"
	UserApproved UserState = "approved"
	UserRejected UserState = "rejected"
)

// User is a Telegram user with an optional profile.
type User struct {
	ID                 int64              `db:"id"`
	TelegramID         int64              `db:"telegram_id"`
	Username           *string            `db:"username"`
	Name               *string            `db:"name"`
	Age                *int               `db:"age"`
	Course             *int               `db:"course"`
	Major              *string            `db:"major"`
	Description        *string            `db:"description"`
	PhotoID            *string            `db:"photo_id"`
	VerificationStatus VerificationStatus `db:"verification_status"`
	CreatedAt          time.Time          `db:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at"`
}

// HasProfile reports whether the registration wizard was completed.
func (u *User) HasProfile() bool {
	return u != nil && u.Name != nil && *u.Name != ""
}

// StateOf maps a user record onto the menu lifecycle. A nil user is new.
func StateOf(u *User) UserState {
	if u == nil {
		return UserNew
	}
	switch u.VerificationStatus {
	case StatusPending:
		return UserPending
	case StatusApproved:
		return UserApproved
	case StatusRejected:
		return UserRejected
	}
	if u.HasProfile() {
		return UserDraft
	}
	return UserNew
}

// Profile carries the fields collected by the registration wizard.
type Profile struct {
	Name        string
	Age         int
	Course      int
	Major       string
	Description string
	PhotoID     string
}

// VerificationRequest is a submitted student-card photo.
type VerificationRequest struct {
	ID          int64         `db:"id"`
	UserID      int64         `db:"user_id"`
	PhotoID     string        `db:"photo_id"`
	Status      RequestStatus `db:"status"`
	AdminID     *int64        `db:"admin_id"`
	CreatedAt   time.Time     `db:"created_at"`
	ProcessedAt *time.Time    `db:"processed_at"`
}

// PendingRequest is a verification request joined with its user.
type PendingRequest struct {
	VerificationRequest
	TelegramID  int64   `db:"telegram_id"`
	Username    *string `db:"username"`
	Name        *string `db:"name"`
	Age         *int    `db:"age"`
	Course      *int    `db:"course"`
	Major       *string `db:"major"`
	Description *string `db:"description"`
	ProfilePhID *string `db:"profile_photo_id"`
}

// Admin is a bot administrator.
type Admin struct {
	TelegramID   int64     `db:"telegram_id"`
	Username     *string   `db:"username"`
	IsSuperAdmin bool      `db:"is_super_admin"`
	CreatedAt    time.Time `db:"created_at"`
}

// Event is a meetup users can join.
type Event struct {
	ID               int64     `db:"id"`
	Name             string    `db:"name"`
	Description      string    `db:"description"`
	IsActive         bool      `db:"is_active"`
	CreatedBy        int64     `db:"created_by"`
	CreatedAt        time.Time `db:"created_at"`
	ParticipantCount int       `db:"participant_count"`
}

// EventUpdate changes selected event fields; nil fields are kept.
type EventUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// JoinedEvent is an event with the time the user joined it.
type JoinedEvent struct {
	Event
	JoinedAt time.Time `db:"joined_at"`
}

// Stats aggregates counts for the admin dashboard.
type Stats struct {
	TotalUsers      int `db:"total_users"`
	ApprovedUsers   int `db:"approved_users"`
	PendingUsers    int `db:"pending_users"`
	RejectedUsers   int `db:"rejected_users"`
	TotalEvents     int `db:"total_events"`
	ActiveEvents    int `db:"active_events"`
	PendingRequests int `db:"pending_requests"`
}
