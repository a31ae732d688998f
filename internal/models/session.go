package models

import "time"

// Session binds an opaque token to an authenticated identity.
// The identity fields are a snapshot taken at login.
type Session struct {
	Token       string    `gorm:"primaryKey;size:64" json:"token"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Username    string    `gorm:"size:50" json:"username"`
	DisplayName string    `gorm:"size:100" json:"display_name"`
	AvatarURL   string    `gorm:"size:255" json:"avatar_url"`
	LoginTime   time.Time `gorm:"not null" json:"login_time"`
	ExpiresAt   time.Time `gorm:"index" json:"expires_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Identity returns the cached user fields of the session.
func (s *Session) Identity() PublicUser {
	return PublicUser{
		ID:          s.UserID,
		Username:    s.Username,
		DisplayName: s.DisplayName,
		AvatarURL:   s.AvatarURL,
	}
}

// ExpiredAt reports whether the session is older than lifetime at now.
func (s *Session) ExpiredAt(now time.Time, lifetime time.Duration) bool {
	return now.Sub(s.LoginTime) > lifetime
}
