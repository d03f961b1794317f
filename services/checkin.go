package services

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Monark-Arkmon/FitCheck/models"
	"github.com/Monark-Arkmon/FitCheck/utils"
)

// CheckInPayload carries the client-supplied fields of a new check-in.
type CheckInPayload struct {
	ActivityType string
	Note         string
	Tags         []string
	PhotoURL     string
	Visibility   string
}

// CreateOutcome is the result of creating a check-in. StatsUpdated is false
// when the check-in was written but the streak/stats transaction failed;
// the check-in is kept as the source of truth and the stats heal on the next
// successful update.
type CreateOutcome struct {
	CheckIn      *models.CheckIn
	Streak       int
	StatsUpdated bool
}

// CheckInService orchestrates the streak engine against persistence, the
// feed projection, and the notifier. It is the only writer of the user's
// fitness stats.
type CheckInService struct {
	db       *gorm.DB
	feed     FeedPublisher
	notifier Notifier
	now      func() time.Time
}

// NewCheckInService wires a check-in service.
func NewCheckInService(db *gorm.DB, feed FeedPublisher, notifier Notifier) *CheckInService {
	return &CheckInService{db: db, feed: feed, notifier: notifier, now: time.Now}
}

// Create validates and persists a check-in, updates the owner's streak under
// a row lock, and mirrors public check-ins into the feed. The feed write is
// best-effort and never rolls back the check-in.
func (s *CheckInService) Create(userID uint, payload CheckInPayload) (*CreateOutcome, error) {
	if userID == 0 {
		return nil, fmt.Errorf("missing user id: %w", ErrInvalidArgument)
	}

	activity := strings.TrimSpace(payload.ActivityType)
	if activity == "" {
		activity = ActivityOther
	}
	note := utils.Sanitize(payload.Note)
	if len([]rune(note)) > 500 {
		return nil, fmt.Errorf("note exceeds 500 characters: %w", ErrInvalidArgument)
	}
	visibility := models.VisibilityPublic
	if payload.Visibility == models.VisibilityPrivate {
		visibility = models.VisibilityPrivate
	}

	checkIn := &models.CheckIn{
		UserID:       userID,
		ActivityType: activity,
		Note:         note,
		Tags:         encodeTags(payload.Tags),
		PhotoURL:     normalizePhotoURL(payload.PhotoURL),
		Visibility:   visibility,
	}
	if err := s.db.Create(checkIn).Error; err != nil {
		return nil, fmt.Errorf("create check-in: %v: %w", err, ErrUnavailable)
	}

	today := DateOf(s.now())
	var user models.User
	var prevStreak, nextStreak int
	statsErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&user, userID).Error; err != nil {
			return err
		}
		prevStreak = user.Streak
		// The persisted LastCheckInDate read under this lock is what makes a
		// second same-day check-in a no-op even under concurrency.
		next, err := ComputeNextStreak(user.Streak, user.LastCheckInDate, today, activity, visibility)
		if err != nil {
			return err
		}
		nextStreak = next
		user.Streak = next
		user.TotalCheckIns++
		if IsWorkout(activity) {
			user.TotalWorkouts++
		}
		if visibility == models.VisibilityPublic && IsWorkout(activity) {
			user.LastCheckInDate = today
		}
		return tx.Save(&user).Error
	})

	outcome := &CreateOutcome{CheckIn: checkIn, StatsUpdated: statsErr == nil}
	if statsErr != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("check-in %d persisted but stats update failed user=%d err=%v", checkIn.ID, userID, statsErr)
		}
	} else {
		outcome.Streak = nextStreak
	}

	if visibility == models.VisibilityPublic {
		s.publish(checkIn, &user)
	}
	if statsErr == nil && nextStreak > prevStreak {
		s.notifier.StreakMilestone(userID, nextStreak)
	}
	return outcome, nil
}

// Delete removes a check-in owned by userID. When the deleted record was a
// public workout check-in, the streak is rebuilt from the remaining history
// inside the same transaction so the recompute never observes the deleted
// row.
func (s *CheckInService) Delete(checkInID, userID uint) error {
	if userID == 0 {
		return fmt.Errorf("missing user id: %w", ErrInvalidArgument)
	}

	var checkIn models.CheckIn
	if err := s.db.First(&checkIn, checkInID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("check-in %d: %w", checkInID, ErrNotFound)
		}
		return fmt.Errorf("load check-in: %v: %w", err, ErrUnavailable)
	}
	if checkIn.UserID != userID {
		return fmt.Errorf("check-in %d belongs to another user: %w", checkInID, ErrPermissionDenied)
	}

	loadBearing := checkIn.Visibility == models.VisibilityPublic && IsWorkout(checkIn.ActivityType)
	today := DateOf(s.now())

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.CheckIn{}, checkIn.ID).Error; err != nil {
			return err
		}
		if err := tx.Where("check_in_id = ?", checkIn.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("check_in_id = ?", checkIn.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if !loadBearing {
			return nil
		}

		dates, err := eligibleDates(tx, userID)
		if err != nil {
			return err
		}
		streak, err := RecomputeStreakFromHistory(dates, today)
		if err != nil {
			return err
		}

		var user models.User
		if err := lockForUpdate(tx).First(&user, userID).Error; err != nil {
			return err
		}
		user.Streak = streak
		if len(dates) > 0 {
			user.LastCheckInDate = dates[0]
		} else {
			user.LastCheckInDate = ""
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return fmt.Errorf("delete check-in: %v: %w", err, ErrUnavailable)
	}

	if err := s.feed.Remove(checkIn.ID); err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("feed removal failed check_in=%d err=%v", checkIn.ID, err)
	}
	return nil
}

// EligibleDates returns the distinct UTC calendar dates of a user's
// remaining public workout check-ins, most recent first.
func (s *CheckInService) EligibleDates(userID uint) ([]string, error) {
	return eligibleDates(s.db, userID)
}

func (s *CheckInService) publish(checkIn *models.CheckIn, user *models.User) {
	if user.ID == 0 {
		// Stats transaction never loaded the user; fetch display fields
		// best-effort for the projection.
		if err := s.db.First(user, checkIn.UserID).Error; err != nil {
			if utils.Sugar != nil {
				utils.Sugar.Warnf("feed publish skipped, user load failed user=%d err=%v", checkIn.UserID, err)
			}
			return
		}
	}
	item := &models.FeedItem{
		CheckInID:    checkIn.ID,
		UserID:       checkIn.UserID,
		DisplayName:  displayName(*user),
		AvatarURL:    user.AvatarURL,
		ActivityType: checkIn.ActivityType,
		Note:         checkIn.Note,
		Tags:         checkIn.Tags,
		PhotoURL:     checkIn.PhotoURL,
		Streak:       user.Streak,
		CreatedAt:    checkIn.CreatedAt,
	}
	if err := s.feed.Publish(item); err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("feed publish failed check_in=%d err=%v", checkIn.ID, err)
	}
}

func eligibleDates(tx *gorm.DB, userID uint) ([]string, error) {
	var stamps []time.Time
	err := tx.Model(&models.CheckIn{}).
		Where("user_id = ? AND visibility = ? AND activity_type IN ?",
			userID, models.VisibilityPublic, []string{ActivityWorkingOut, ActivityWorkedOut}).
		Order("created_at DESC").
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(stamps))
	dates := make([]string, 0, len(stamps))
	for _, t := range stamps {
		d := DateOf(t)
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	return dates, nil
}

// lockForUpdate takes a row lock where the dialect supports it. sqlite has
// no row locks; its single-writer model already serializes the update.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func encodeTags(tags []string) string {
	seen := make(map[string]bool, len(tags))
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		clean = append(clean, t)
	}
	if len(clean) == 0 {
		return ""
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return ""
	}
	return string(b)
}

// normalizePhotoURL keeps only well-formed absolute http(s) URLs; anything
// else is stored as absent rather than propagated malformed.
func normalizePhotoURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return raw
}
