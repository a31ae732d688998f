package models

import "time"

// Post is a short status update owned by a user.
// Author fields and counters are filled by the read queries and never written.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ImageURL  *string   `gorm:"size:255" json:"image_url"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Username      string `gorm:"->;-:migration" json:"username"`
	DisplayName   string `gorm:"->;-:migration" json:"display_name"`
	AvatarURL     string `gorm:"->;-:migration" json:"avatar_url"`
	LikesCount    int    `gorm:"->;-:migration" json:"likes_count"`
	CommentsCount int    `gorm:"->;-:migration" json:"comments_count"`
	Liked         bool   `gorm:"->;-:migration" json:"-"`

	// IsLikedByUser is only set when the request carries a session.
	IsLikedByUser *bool `gorm:"-" json:"is_liked_by_user,omitempty"`
}
