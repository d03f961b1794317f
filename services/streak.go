package services

import (
	"fmt"
	"time"

	"github.com/Monark-Arkmon/FitCheck/models"
)

// DateLayout is the calendar date format used for streak bucketing. All
// bucketing happens in UTC; time zone conversion is a presentation concern.
const DateLayout = "2006-01-02"

// Activity types understood by the streak engine. Secondary free-form
// subtypes ("cardio", "strength training", ...) ride along as tags and are
// not streak-relevant.
const (
	ActivityWorkingOut = "Currently working out"
	ActivityWorkedOut  = "Worked out earlier"
	ActivityRestDay    = "Rest day"
	ActivitySkip       = "Skipping today"
	ActivityBusy       = "Busy now"
	ActivityOther      = "Other"
)

// IsWorkout reports whether an activity type counts toward the streak.
func IsWorkout(activityType string) bool {
	return activityType == ActivityWorkingOut || activityType == ActivityWorkedOut
}

// DateOf buckets an instant into its UTC calendar date string.
func DateOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q: %w", s, ErrInvalidArgument)
	}
	return t, nil
}

// ComputeNextStreak decides the streak value after a new check-in.
//
// Private check-ins and non-workout activities leave the streak untouched,
// except for an explicit skip which resets it to zero. For a public workout:
// a check-in the day after the last one extends the streak, a second one on
// the same day is a no-op, and anything else starts over at one. The caller
// must pass the persisted lastCheckInDate read under the same transaction
// that writes the result, otherwise two concurrent check-ins can both
// observe "yesterday" and double-increment.
func ComputeNextStreak(currentStreak int, lastCheckInDate, today, activityType, visibility string) (int, error) {
	if visibility == models.VisibilityPrivate {
		return currentStreak, nil
	}
	if !IsWorkout(activityType) {
		if activityType == ActivitySkip {
			return 0, nil
		}
		return currentStreak, nil
	}

	day, err := parseDate(today)
	if err != nil {
		return 0, err
	}
	if lastCheckInDate == "" {
		return 1, nil
	}
	last, err := parseDate(lastCheckInDate)
	if err != nil {
		return 0, err
	}

	switch {
	case last.Equal(day):
		return currentStreak, nil
	case last.Equal(day.AddDate(0, 0, -1)):
		return currentStreak + 1, nil
	default:
		return 1, nil
	}
}

// RecomputeStreakFromHistory rebuilds the streak after a deletion from the
// remaining eligible history. datesDesc must hold distinct calendar dates in
// descending order, each backed by at least one remaining public workout
// check-in. Returns zero when the history is empty or its most recent date
// is older than yesterday.
func RecomputeStreakFromHistory(datesDesc []string, today string) (int, error) {
	if len(datesDesc) == 0 {
		return 0, nil
	}
	day, err := parseDate(today)
	if err != nil {
		return 0, err
	}
	head, err := parseDate(datesDesc[0])
	if err != nil {
		return 0, err
	}
	if !head.Equal(day) && !head.Equal(day.AddDate(0, 0, -1)) {
		return 0, nil
	}

	streak := 1
	prev := head
	for _, s := range datesDesc[1:] {
		d, err := parseDate(s)
		if err != nil {
			return 0, err
		}
		if !d.Equal(prev.AddDate(0, 0, -1)) {
			break
		}
		streak++
		prev = d
	}
	return streak, nil
}

// EffectiveStreak is the decay-on-read view of a stored streak: it reads as
// zero once the gap between the last eligible check-in and today exceeds one
// day. The stored value is repaired lazily by the next check-in, not by a
// background job.
func EffectiveStreak(streak int, lastCheckInDate, today string) int {
	if streak <= 0 || lastCheckInDate == "" {
		return 0
	}
	day, err := parseDate(today)
	if err != nil {
		return 0
	}
	last, err := parseDate(lastCheckInDate)
	if err != nil {
		return 0
	}
	if last.Equal(day) || last.Equal(day.AddDate(0, 0, -1)) {
		return streak
	}
	return 0
}

// StreakAtRisk reports whether a streak will lapse unless the user checks in
// today.
func StreakAtRisk(streak int, lastCheckInDate, today string) bool {
	if streak <= 0 || lastCheckInDate == "" {
		return false
	}
	day, err := parseDate(today)
	if err != nil {
		return false
	}
	last, err := parseDate(lastCheckInDate)
	if err != nil {
		return false
	}
	return last.Equal(day.AddDate(0, 0, -1))
}
