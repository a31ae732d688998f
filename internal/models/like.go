package models

import "time"

// Like records that a user liked a post. The (user, post) pair is unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`

	Username    string `gorm:"->;-:migration" json:"username"`
	DisplayName string `gorm:"->;-:migration" json:"display_name"`
	AvatarURL   string `gorm:"->;-:migration" json:"avatar_url"`
}
