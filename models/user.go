package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an application user. Passwords are stored as bcrypt hashes only.
// The fitness stat fields are owned by the check-in service and must only be
// mutated through its transactional update; ad hoc field patches race with the
// streak calculation.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:64;not null" json:"username"`
	DisplayName  string `gorm:"size:128" json:"display_name"`
	Email        string `gorm:"size:255" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Provider     string `gorm:"size:32" json:"provider"`
	ProviderID   string `gorm:"size:255" json:"provider_id"`
	RegisterIP   string `gorm:"size:45" json:"register_ip"`
	AvatarURL    string `gorm:"size:512" json:"avatar_url"`
	Bio          string `gorm:"size:255" json:"bio"`
	// Streak counts consecutive days with a public workout check-in.
	// TotalCheckIns is append-only and never decremented on delete.
	// LastCheckInDate is the YYYY-MM-DD UTC date of the latest public
	// workout check-in, empty when none.
	Streak          int            `gorm:"default:0" json:"streak"`
	TotalCheckIns   int            `gorm:"default:0" json:"total_check_ins"`
	TotalWorkouts   int            `gorm:"default:0" json:"total_workouts"`
	LastCheckInDate string         `gorm:"size:10" json:"last_check_in_date"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	CheckIns        []CheckIn      `json:"-"`
	Comments        []Comment      `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
