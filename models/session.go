package models

import "time"

// Session is the server-side record behind a session cookie.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	// ExpiresAt is zero when the session never expires.
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
