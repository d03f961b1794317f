package models

import "time"

// Like records a single user's like on a check-in. The unique index makes the
// toggle idempotent under concurrent requests.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_like_user_checkin,unique;not null" json:"user_id"`
	CheckInID uint      `gorm:"index:idx_like_user_checkin,unique;index;not null" json:"check_in_id"`
	CreatedAt time.Time `json:"created_at"`
}
