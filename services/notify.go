package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Monark-Arkmon/FitCheck/models"
	"github.com/Monark-Arkmon/FitCheck/utils"
)

// streakMilestones are the streak lengths that earn a milestone notification.
var streakMilestones = map[int]bool{
	3: true, 5: true, 7: true, 10: true, 14: true, 21: true,
	30: true, 50: true, 100: true, 200: true, 365: true,
}

// IsStreakMilestone reports whether a streak length is a milestone.
func IsStreakMilestone(streak int) bool {
	return streakMilestones[streak]
}

// Notifier receives events the streak engine and social layer emit. All
// methods are best-effort; a lost notification never fails the triggering
// operation.
type Notifier interface {
	StreakMilestone(userID uint, streak int)
	StreakAtRisk(userID uint, streak int)
	Liked(ownerID uint, actor models.User, checkInID uint)
	Commented(ownerID uint, actor models.User, checkInID uint, preview string)
}

// DBNotifier stores notifications in the notifications table.
type DBNotifier struct {
	db *gorm.DB
}

// NewDBNotifier creates a database-backed notifier.
func NewDBNotifier(db *gorm.DB) *DBNotifier {
	return &DBNotifier{db: db}
}

func (n *DBNotifier) create(note *models.Notification) {
	if err := n.db.Create(note).Error; err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("notification write failed type=%s user=%d err=%v", note.Type, note.UserID, err)
	}
}

// StreakMilestone records a milestone notification. Non-milestone streaks
// are ignored.
func (n *DBNotifier) StreakMilestone(userID uint, streak int) {
	if !IsStreakMilestone(streak) {
		return
	}
	n.create(&models.Notification{
		UserID:      userID,
		Type:        models.NotificationStreakMilestone,
		Title:       "Streak Milestone Reached!",
		Message:     fmt.Sprintf("Congratulations! You've reached a %d-day streak.", streak),
		StreakCount: streak,
	})
}

// StreakAtRisk warns a user their streak lapses unless they check in today.
func (n *DBNotifier) StreakAtRisk(userID uint, streak int) {
	n.create(&models.Notification{
		UserID:      userID,
		Type:        models.NotificationStreakAtRisk,
		Title:       "Streak at Risk!",
		Message:     fmt.Sprintf("Your %d-day streak will be lost if you don't check in today.", streak),
		StreakCount: streak,
	})
}

// Liked notifies a check-in owner about a new like. Self-likes are silent.
func (n *DBNotifier) Liked(ownerID uint, actor models.User, checkInID uint) {
	if ownerID == actor.ID {
		return
	}
	n.create(&models.Notification{
		UserID:    ownerID,
		Type:      models.NotificationLike,
		Title:     "New Like",
		Message:   fmt.Sprintf("%s liked your check-in.", displayName(actor)),
		ActorID:   actor.ID,
		CheckInID: checkInID,
	})
}

// Commented notifies a check-in owner about a new comment.
func (n *DBNotifier) Commented(ownerID uint, actor models.User, checkInID uint, preview string) {
	if ownerID == actor.ID {
		return
	}
	if r := []rune(preview); len(r) > 50 {
		preview = string(r[:50]) + "..."
	}
	n.create(&models.Notification{
		UserID:    ownerID,
		Type:      models.NotificationComment,
		Title:     "New Comment",
		Message:   fmt.Sprintf("%s commented: %q", displayName(actor), preview),
		ActorID:   actor.ID,
		CheckInID: checkInID,
	})
}

func displayName(u models.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
