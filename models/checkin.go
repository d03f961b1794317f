package models

import "time"

// Visibility of a check-in. Private check-ins never reach the feed and never
// affect the streak.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// CheckIn represents a single fitness check-in posted by a user.
// Records are immutable after creation except for the Likes counter;
// deletion is a hard delete followed by a streak recompute.
type CheckIn struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	ActivityType string    `gorm:"size:64;not null" json:"activity_type"`
	Note         string    `gorm:"size:500" json:"note"`
	Tags         string    `gorm:"type:text" json:"tags"` // JSON array of tag labels
	PhotoURL     string    `gorm:"size:1024" json:"photo_url"`
	Visibility   string    `gorm:"size:16;not null;default:'public'" json:"visibility"`
	Likes        int       `gorm:"not null;default:0" json:"likes"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	User         User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
}
