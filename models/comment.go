package models

import "time"

// Comment represents a reply to a check-in.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CheckInID uint      `gorm:"index;not null" json:"check_in_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
}
