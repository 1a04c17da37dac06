package model

import (
	"time"
)

// Session is a guest session record. The key is opaque and unguessable;
// expiry is fixed at creation, not sliding. Expired rows are equivalent to
// absent rows and are swept by the scheduler.
type Session struct {
	SessionKey string    `gorm:"primarykey;size:64" json:"session_key"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
