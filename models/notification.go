package models

import "time"

// Notification types emitted by the streak engine and the social layer.
const (
	NotificationStreakMilestone = "streak_milestone"
	NotificationStreakAtRisk    = "streak_at_risk"
	NotificationLike            = "like"
	NotificationComment         = "comment"
	NotificationSystem          = "system"
)

// Notification is an in-app notification for a user.
type Notification struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	Type        string     `gorm:"size:32;not null" json:"type"`
	Title       string     `gorm:"size:128" json:"title"`
	Message     string     `gorm:"size:500" json:"message"`
	StreakCount int        `gorm:"default:0" json:"streak_count,omitempty"`
	ActorID     uint       `gorm:"default:0" json:"actor_id,omitempty"`
	CheckInID   uint       `gorm:"default:0" json:"check_in_id,omitempty"`
	Read        bool       `gorm:"index;not null;default:false" json:"read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
