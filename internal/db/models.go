package db

import (
	"time"

	"gorm.io/gorm"
)

// User is a runner profile.
//
// ID is assigned by the application as max(id)+1 (0 for the first user), so
// auto-increment is disabled. Display name precedence: FullName, then
// Nickname, then "".
type User struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement:false"`
	FullName      string    `gorm:"size:128"`
	Nickname      string    `gorm:"size:64"`
	Age           *int      `gorm:"type:smallint"`
	Phone         string    `gorm:"size:32"`
	City          string    `gorm:"size:64;index"`
	Street        string    `gorm:"size:128"`
	Gender        string    `gorm:"size:16"`
	Level         *int      `gorm:"type:smallint"`
	Email         string    `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash  string    `gorm:"size:255;not null"`
	Availability  []string  `gorm:"type:text;serializer:json"`
	RunsCount     int64     `gorm:"not null;default:0"`
	PartnersCount int64     `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	StatusPending   InvitationStatus = "pending"
	StatusAccepted  InvitationStatus = "accepted"
	StatusDeclined  InvitationStatus = "declined"
	StatusCancelled InvitationStatus = "cancelled"
	StatusExpired   InvitationStatus = "expired"
)

// ParseInvitationStatus accepts only the closed set of statuses.
func ParseInvitationStatus(s string) (InvitationStatus, bool) {
	switch st := InvitationStatus(s); st {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCancelled, StatusExpired:
		return st, true
	}
	return "", false
}

// Terminal reports whether no further transition is allowed.
func (s InvitationStatus) Terminal() bool {
	return s != StatusPending
}

// CanTransitionTo reports whether moving from s to next is legal.
// Only pending invitations move; identical targets are handled as no-ops by callers.
func (s InvitationStatus) CanTransitionTo(next InvitationStatus) bool {
	return s == StatusPending && next != StatusPending
}

// Invitation is a run invitation from SenderID to ReceiverID.
//
// PendingKey is true while Status is pending and NULL otherwise. Together
// with the unique index over (sender_id, receiver_id, pending_key) it allows
// at most one pending row per ordered pair while any number of decided rows
// may accumulate as history. NULLs never collide in a unique index on MySQL
// or SQLite.
//
// Indexes:
//   - idx_invitation_pending_pair(sender_id, receiver_id, pending_key) UNIQUE
//   - idx_invitation_sender_status_created(sender_id, status, created_at)
//   - idx_invitation_receiver_status_created(receiver_id, status, created_at)
type Invitation struct {
	ID          uint64           `gorm:"primaryKey;autoIncrement"`
	SenderID    uint64           `gorm:"not null;uniqueIndex:idx_invitation_pending_pair,priority:1;index:idx_invitation_sender_status_created,priority:1"`
	ReceiverID  uint64           `gorm:"not null;uniqueIndex:idx_invitation_pending_pair,priority:2;index:idx_invitation_receiver_status_created,priority:1"`
	PendingKey  *bool            `gorm:"uniqueIndex:idx_invitation_pending_pair,priority:3"`
	ScheduledAt time.Time        `gorm:"not null"`
	Status      InvitationStatus `gorm:"size:16;not null;index:idx_invitation_sender_status_created,priority:2;index:idx_invitation_receiver_status_created,priority:2"`
	CreatedAt   time.Time        `gorm:"autoCreateTime;index:idx_invitation_sender_status_created,priority:3;index:idx_invitation_receiver_status_created,priority:3"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime"`
}

// PendingKeyValue is the pending_key column value for a status.
func PendingKeyValue(s InvitationStatus) any {
	if s == StatusPending {
		return true
	}
	return nil
}

// BeforeCreate keeps PendingKey in sync with Status on insert.
func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.Status == "" {
		i.Status = StatusPending
	}
	if i.Status == StatusPending {
		t := true
		i.PendingKey = &t
	} else {
		i.PendingKey = nil
	}
	return nil
}

// RunHistory is one completed run reported by a user's device.
// RunDate is kept as the client-supplied string.
type RunHistory struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement"`
	UserID           uint64    `gorm:"not null;index:idx_run_history_user_created,priority:1"`
	AverageHeartRate float64   `gorm:"not null;default:0"`
	TotalTimeMinutes float64   `gorm:"not null;default:0"`
	AverageSpeedKmh  float64   `gorm:"not null;default:0"`
	TotalDistanceKm  float64   `gorm:"not null;default:0"`
	RunDate          string    `gorm:"size:32;not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index:idx_run_history_user_created,priority:2,sort:desc"`
}

// TableName keeps the collection name used by existing clients.
func (RunHistory) TableName() string { return "run_history" }

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{&User{}, &Invitation{}, &RunHistory{}}
}
