package models

import "time"

// FeedItem is a denormalized copy of a public check-in kept for timeline
// display. It is a derived, eventually-consistent projection written once at
// check-in creation time; the check-in record stays the source of truth and
// the streak engine never reads the feed back.
type FeedItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CheckInID    uint      `gorm:"index;not null" json:"check_in_id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	DisplayName  string    `gorm:"size:128" json:"display_name"`
	AvatarURL    string    `gorm:"size:512" json:"avatar_url"`
	ActivityType string    `gorm:"size:64;not null" json:"activity_type"`
	Note         string    `gorm:"size:500" json:"note"`
	Tags         string    `gorm:"type:text" json:"tags"`
	PhotoURL     string    `gorm:"size:1024" json:"photo_url"`
	Streak       int       `gorm:"default:0" json:"streak"`
	Likes        int       `gorm:"not null;default:0" json:"likes"`
	CommentCount int       `gorm:"not null;default:0" json:"comment_count"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
