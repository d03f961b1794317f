package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Monark-Arkmon/FitCheck/models"
)

type feedRecorder struct {
	published []models.FeedItem
	removed   []uint
}

func (f *feedRecorder) Publish(item *models.FeedItem) error {
	f.published = append(f.published, *item)
	return nil
}

func (f *feedRecorder) Remove(checkInID uint) error {
	f.removed = append(f.removed, checkInID)
	return nil
}

type notifyRecorder struct {
	milestones []int
	atRisk     []uint
}

func (n *notifyRecorder) StreakMilestone(userID uint, streak int) {
	if IsStreakMilestone(streak) {
		n.milestones = append(n.milestones, streak)
	}
}
func (n *notifyRecorder) StreakAtRisk(userID uint, streak int)                  { n.atRisk = append(n.atRisk, userID) }
func (n *notifyRecorder) Liked(ownerID uint, actor models.User, checkInID uint) {}
func (n *notifyRecorder) Commented(ownerID uint, actor models.User, checkInID uint, preview string) {
}

// testNow fixes "today" at 2024-03-11 UTC for every service test.
var testNow = time.Date(2024, 3, 11, 15, 4, 5, 0, time.UTC)

func newTestService(t *testing.T) (*CheckInService, *gorm.DB, *feedRecorder, *notifyRecorder) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.CheckIn{}, &models.Comment{}, &models.Like{}, &models.FeedItem{}, &models.Notification{}); err != nil {
		t.Fatalf("migrate test schema: %v", err)
	}
	feed := &feedRecorder{}
	notify := &notifyRecorder{}
	svc := NewCheckInService(db, feed, notify)
	svc.now = func() time.Time { return testNow }
	return svc, db, feed, notify
}

func seedUser(t *testing.T, db *gorm.DB, streak int, lastDate string) models.User {
	t.Helper()
	user := models.User{
		Username:        "casey",
		DisplayName:     "Casey",
		Streak:          streak,
		LastCheckInDate: lastDate,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedCheckIn(t *testing.T, db *gorm.DB, userID uint, activity, visibility string, at time.Time) models.CheckIn {
	t.Helper()
	checkIn := models.CheckIn{
		UserID:       userID,
		ActivityType: activity,
		Visibility:   visibility,
		CreatedAt:    at,
	}
	if err := db.Create(&checkIn).Error; err != nil {
		t.Fatalf("seed check-in: %v", err)
	}
	return checkIn
}

func loadUser(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	return user
}

func TestCreateFirstWorkoutStartsStreak(t *testing.T) {
	svc, db, feed, _ := newTestService(t)
	user := seedUser(t, db, 0, "")

	outcome, err := svc.Create(user.ID, CheckInPayload{ActivityType: ActivityWorkingOut})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.StatsUpdated {
		t.Fatalf("expected stats to be updated")
	}
	if outcome.Streak != 1 {
		t.Fatalf("expected streak 1, got %d", outcome.Streak)
	}

	stored := loadUser(t, db, user.ID)
	if stored.Streak != 1 || stored.TotalCheckIns != 1 || stored.TotalWorkouts != 1 {
		t.Fatalf("unexpected stats: streak=%d total=%d workouts=%d", stored.Streak, stored.TotalCheckIns, stored.TotalWorkouts)
	}
	if stored.LastCheckInDate != "2024-03-11" {
		t.Fatalf("expected last check-in date 2024-03-11, got %q", stored.LastCheckInDate)
	}
	if len(feed.published) != 1 {
		t.Fatalf("expected one feed item, got %d", len(feed.published))
	}
	if feed.published[0].DisplayName != "Casey" {
		t.Fatalf("feed item missing denormalized display name: %+v", feed.published[0])
	}
}

func TestCreateSameDayIsIdempotentPerDay(t *testing.T) {
	svc, db, feed, _ := newTestService(t)
	user := seedUser(t, db, 0, "")

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(user.ID, CheckInPayload{ActivityType: ActivityWorkedOut}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	stored := loadUser(t, db, user.ID)
	if stored.Streak != 1 {
		t.Fatalf("repeated same-day check-ins must not grow streak, got %d", stored.Streak)
	}
	if stored.TotalCheckIns != 3 {
		t.Fatalf("every check-in counts toward total, got %d", stored.TotalCheckIns)
	}
	if len(feed.published) != 3 {
		t.Fatalf("each public check-in is its own feed item, got %d", len(feed.published))
	}
}

func TestCreateConsecutiveDayExtendsStreak(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	user := seedUser(t, db, 5, "2024-03-10")

	outcome, err := svc.Create(user.ID, CheckInPayload{ActivityType: ActivityWorkedOut})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Streak != 6 {
		t.Fatalf("expected streak 6, got %d", outcome.Streak)
	}
	if got := loadUser(t, db, user.ID).LastCheckInDate; got != "2024-03-11" {
		t.Fatalf("expected last date advanced to today, got %q", got)
	}
}

func TestCreatePrivateLeavesStreakAndFeedAlone(t *testing.T) {
	svc, db, feed, _ := newTestService(t)
	user := seedUser(t, db, 4, "2024-03-10")

	outcome, err := svc.Create(user.ID, CheckInPayload{ActivityType: ActivityWorkingOut, Visibility: models.VisibilityPrivate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Streak != 4 {
		t.Fatalf("private check-in must not change streak, got %d", outcome.Streak)
	}

	stored := loadUser(t, db, user.ID)
	if stored.LastCheckInDate != "2024-03-10" {
		t.Fatalf("private check-in must not advance last date, got %q", stored.LastCheckInDate)
	}
	if stored.TotalCheckIns != 1 {
		t.Fatalf("private check-ins still count toward total, got %d", stored.TotalCheckIns)
	}
	if len(feed.published) != 0 {
		t.Fatalf("private check-in must never reach the feed, got %d items", len(feed.published))
	}
}

func TestCreateSkipResetsStreakKeepsLastDate(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	user := seedUser(t, db, 9, "2024-03-10")

	outcome, err := svc.Create(user.ID, CheckInPayload{ActivityType: ActivitySkip})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Streak != 0 {
		t.Fatalf("skip must reset streak to 0, got %d", outcome.Streak)
	}
	if got := loadUser(t, db, user.ID).LastCheckInDate; got != "2024-03-10" {
		t.Fatalf("skip leaves last check-in date untouched, got %q", got)
	}
}

func TestCreateMilestoneNotification(t *testing.T) {
	svc, db, _, notify := newTestService(t)
	user := seedUser(t, db, 2, "2024-03-10")

	if _, err := svc.Create(user.ID, CheckInPayload{ActivityType: ActivityWorkedOut}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notify.milestones) != 1 || notify.milestones[0] != 3 {
		t.Fatalf("expected a 3-day milestone notification, got %v", notify.milestones)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	user := seedUser(t, db, 0, "")

	if _, err := svc.Create(0, CheckInPayload{ActivityType: ActivityOther}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("missing user id must be rejected, got %v", err)
	}
	long := strings.Repeat("a", 501)
	if _, err := svc.Create(user.ID, CheckInPayload{ActivityType: ActivityOther, Note: long}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("over-long note must be rejected, got %v", err)
	}
	var count int64
	if err := db.Model(&models.CheckIn{}).Count(&count).Error; err != nil || count != 0 {
		t.Fatalf("rejected payloads must not write anything, count=%d err=%v", count, err)
	}
}

func TestCreateDefaultsAndDegradesGracefully(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	user := seedUser(t, db, 0, "")

	outcome, err := svc.Create(user.ID, CheckInPayload{
		PhotoURL: "not a url",
		Tags:     []string{"cardio", "cardio", " strength training ", ""},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.CheckIn.ActivityType != ActivityOther {
		t.Fatalf("missing activity type must default to %q, got %q", ActivityOther, outcome.CheckIn.ActivityType)
	}
	if outcome.CheckIn.PhotoURL != "" {
		t.Fatalf("malformed photo url must be stored as absent, got %q", outcome.CheckIn.PhotoURL)
	}
	if outcome.CheckIn.Tags != `["cardio","strength training"]` {
		t.Fatalf("tags must be trimmed and deduped, got %q", outcome.CheckIn.Tags)
	}

	var stored models.CheckIn
	if err := db.First(&stored, outcome.CheckIn.ID).Error; err != nil {
		t.Fatalf("load stored check-in: %v", err)
	}
	if stored.Visibility != models.VisibilityPublic {
		t.Fatalf("visibility must default to public, got %q", stored.Visibility)
	}
}

func TestDeleteRecomputesStreakFromRemainingHistory(t *testing.T) {
	svc, db, feed, _ := newTestService(t)
	user := seedUser(t, db, 3, "2024-03-11")

	seedCheckIn(t, db, user.ID, ActivityWorkedOut, models.VisibilityPublic, testNow.AddDate(0, 0, -2))
	seedCheckIn(t, db, user.ID, ActivityWorkedOut, models.VisibilityPublic, testNow.AddDate(0, 0, -1))
	todayRec := seedCheckIn(t, db, user.ID, ActivityWorkingOut, models.VisibilityPublic, testNow)

	if err := svc.Delete(todayRec.ID, user.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := loadUser(t, db, user.ID)
	if stored.Streak != 2 {
		t.Fatalf("expected recomputed streak 2, got %d", stored.Streak)
	}
	if stored.LastCheckInDate != "2024-03-10" {
		t.Fatalf("expected last date rolled back to 2024-03-10, got %q", stored.LastCheckInDate)
	}
	if len(feed.removed) != 1 || feed.removed[0] != todayRec.ID {
		t.Fatalf("expected feed projection removal for %d, got %v", todayRec.ID, feed.removed)
	}
}

func TestDeleteLastEligibleClearsHistory(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	user := seedUser(t, db, 1, "2024-03-11")
	only := seedCheckIn(t, db, user.ID, ActivityWorkedOut, models.VisibilityPublic, testNow)

	if err := svc.Delete(only.ID, user.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := loadUser(t, db, user.ID)
	if stored.Streak != 0 || stored.LastCheckInDate != "" {
		t.Fatalf("expected cleared stats, got streak=%d last=%q", stored.Streak, stored.LastCheckInDate)
	}
}

func TestDeleteNonLoadBearingSkipsRecompute(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	user := seedUser(t, db, 6, "2024-03-11")
	private := seedCheckIn(t, db, user.ID, ActivityWorkingOut, models.VisibilityPrivate, testNow)
	rest := seedCheckIn(t, db, user.ID, ActivityRestDay, models.VisibilityPublic, testNow)

	if err := svc.Delete(private.ID, user.ID); err != nil {
		t.Fatalf("delete private: %v", err)
	}
	if err := svc.Delete(rest.ID, user.ID); err != nil {
		t.Fatalf("delete rest day: %v", err)
	}

	stored := loadUser(t, db, user.ID)
	if stored.Streak != 6 || stored.LastCheckInDate != "2024-03-11" {
		t.Fatalf("non-load-bearing deletes must not touch stats, got streak=%d last=%q", stored.Streak, stored.LastCheckInDate)
	}
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	owner := seedUser(t, db, 1, "2024-03-11")
	record := seedCheckIn(t, db, owner.ID, ActivityWorkedOut, models.VisibilityPublic, testNow)

	err := svc.Delete(record.ID, owner.ID+1)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	var count int64
	if err := db.Model(&models.CheckIn{}).Count(&count).Error; err != nil || count != 1 {
		t.Fatalf("denied delete must not mutate anything, count=%d err=%v", count, err)
	}
	if got := loadUser(t, db, owner.ID).Streak; got != 1 {
		t.Fatalf("denied delete must not touch stats, got streak %d", got)
	}
}

func TestDeleteMissingCheckIn(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	user := seedUser(t, db, 0, "")

	if err := svc.Delete(12345, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesCommentsAndLikes(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	user := seedUser(t, db, 1, "2024-03-11")
	record := seedCheckIn(t, db, user.ID, ActivityWorkedOut, models.VisibilityPublic, testNow)

	if err := db.Create(&models.Comment{CheckInID: record.ID, UserID: user.ID, Content: "nice"}).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	if err := db.Create(&models.Like{CheckInID: record.ID, UserID: user.ID}).Error; err != nil {
		t.Fatalf("seed like: %v", err)
	}

	if err := svc.Delete(record.ID, user.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var comments, likes int64
	db.Model(&models.Comment{}).Where("check_in_id = ?", record.ID).Count(&comments)
	db.Model(&models.Like{}).Where("check_in_id = ?", record.ID).Count(&likes)
	if comments != 0 || likes != 0 {
		t.Fatalf("expected dependent rows removed, comments=%d likes=%d", comments, likes)
	}
}

func TestEligibleDatesDistinctDescending(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	user := seedUser(t, db, 0, "")

	seedCheckIn(t, db, user.ID, ActivityWorkedOut, models.VisibilityPublic, testNow.AddDate(0, 0, -3))
	seedCheckIn(t, db, user.ID, ActivityWorkedOut, models.VisibilityPublic, testNow.AddDate(0, 0, -1))
	seedCheckIn(t, db, user.ID, ActivityWorkingOut, models.VisibilityPublic, testNow.AddDate(0, 0, -1).Add(2*time.Hour))
	seedCheckIn(t, db, user.ID, ActivityRestDay, models.VisibilityPublic, testNow)
	seedCheckIn(t, db, user.ID, ActivityWorkedOut, models.VisibilityPrivate, testNow)

	dates, err := svc.EligibleDates(user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2024-03-10", "2024-03-08"}
	if len(dates) != len(want) {
		t.Fatalf("expected %v, got %v", want, dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, dates)
		}
	}
}
