package services

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/Monark-Arkmon/FitCheck/models"
	"github.com/Monark-Arkmon/FitCheck/utils"
)

// StartStreakReminder launches a background goroutine that periodically
// warns users whose streak is alive only through yesterday. Each user gets
// at most one at-risk notification per day, deduplicated through Redis so
// multiple instances don't double-notify. Best-effort; failures are logged.
func StartStreakReminder(db *gorm.DB, notifier Notifier, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			sweepAtRisk(db, notifier, time.Now())
		}
	}()
}

func sweepAtRisk(db *gorm.DB, notifier Notifier, now time.Time) {
	today := DateOf(now)
	yesterday := DateOf(now.AddDate(0, 0, -1))

	var users []models.User
	if err := db.Where("streak > 0 AND last_check_in_date = ?", yesterday).
		Limit(500).Find(&users).Error; err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("streak reminder query failed: %v", err)
		}
		return
	}

	for _, u := range users {
		if !claimAtRiskSlot(u.ID, today) {
			continue
		}
		notifier.StreakAtRisk(u.ID, u.Streak)
	}
}

// claimAtRiskSlot reserves the per-user per-day notification slot. Without
// Redis the sweep still runs but dedup falls back to notifying every pass,
// so the claim fails closed in that case.
func claimAtRiskSlot(userID uint, today string) bool {
	rc := utils.GetRedis()
	if rc == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	key := "streak:atrisk:" + today + ":" + strconv.FormatUint(uint64(userID), 10)
	ok, err := rc.SetNX(ctx, key, "1", 48*time.Hour).Result()
	if err != nil {
		return false
	}
	return ok
}
