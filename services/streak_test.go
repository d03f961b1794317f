package services

import (
	"errors"
	"testing"

	"github.com/Monark-Arkmon/FitCheck/models"
)

func TestComputeNextStreakIncrementsAfterYesterday(t *testing.T) {
	got, err := ComputeNextStreak(5, "2024-03-10", "2024-03-11", ActivityWorkedOut, models.VisibilityPublic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 6 {
		t.Fatalf("expected streak 6, got %d", got)
	}
}

func TestComputeNextStreakSameDayIsNoOp(t *testing.T) {
	got, err := ComputeNextStreak(6, "2024-03-11", "2024-03-11", ActivityWorkingOut, models.VisibilityPublic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 6 {
		t.Fatalf("second same-day check-in must not double-increment, got %d", got)
	}
}

func TestComputeNextStreakResetsAfterGap(t *testing.T) {
	got, err := ComputeNextStreak(9, "2024-03-08", "2024-03-11", ActivityWorkedOut, models.VisibilityPublic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("gap of two or more days must reset to 1, got %d", got)
	}
}

func TestComputeNextStreakStartsAtOneWithoutHistory(t *testing.T) {
	got, err := ComputeNextStreak(0, "", "2024-03-11", ActivityWorkingOut, models.VisibilityPublic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("first eligible check-in must start streak at 1, got %d", got)
	}
}

func TestComputeNextStreakExplicitSkipResetsToZero(t *testing.T) {
	got, err := ComputeNextStreak(12, "2024-03-10", "2024-03-11", ActivitySkip, models.VisibilityPublic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("explicit skip must reset streak to 0, got %d", got)
	}
}

func TestComputeNextStreakIneligibleActivityIsNoOp(t *testing.T) {
	for _, activity := range []string{ActivityRestDay, ActivityBusy, ActivityOther} {
		got, err := ComputeNextStreak(4, "2024-03-10", "2024-03-11", activity, models.VisibilityPublic)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", activity, err)
		}
		if got != 4 {
			t.Fatalf("activity %q must leave streak unchanged, got %d", activity, got)
		}
	}
}

func TestComputeNextStreakPrivateNeverChangesStreak(t *testing.T) {
	// Even a workout or a skip stays neutral when private.
	for _, activity := range []string{ActivityWorkingOut, ActivitySkip, ActivityRestDay} {
		got, err := ComputeNextStreak(7, "2024-03-10", "2024-03-11", activity, models.VisibilityPrivate)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", activity, err)
		}
		if got != 7 {
			t.Fatalf("private %q must leave streak unchanged, got %d", activity, got)
		}
	}
}

func TestComputeNextStreakRejectsMalformedDates(t *testing.T) {
	if _, err := ComputeNextStreak(1, "not-a-date", "2024-03-11", ActivityWorkedOut, models.VisibilityPublic); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for malformed last date, got %v", err)
	}
	if _, err := ComputeNextStreak(1, "2024-03-10", "11/03/2024", ActivityWorkedOut, models.VisibilityPublic); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for malformed today, got %v", err)
	}
}

func TestComputeNextStreakCrossesMonthBoundary(t *testing.T) {
	got, err := ComputeNextStreak(3, "2024-02-29", "2024-03-01", ActivityWorkedOut, models.VisibilityPublic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4 {
		t.Fatalf("leap-day to March 1st is consecutive, expected 4, got %d", got)
	}
}

func TestRecomputeStreakFromHistoryEmpty(t *testing.T) {
	got, err := RecomputeStreakFromHistory(nil, "2024-03-11")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("empty history must yield 0, got %d", got)
	}
}

func TestRecomputeStreakFromHistoryLapsedHead(t *testing.T) {
	got, err := RecomputeStreakFromHistory([]string{"2024-03-08", "2024-03-07"}, "2024-03-11")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("history ending before yesterday must yield 0, got %d", got)
	}
}

func TestRecomputeStreakFromHistoryWalksConsecutiveRun(t *testing.T) {
	dates := []string{"2024-03-11", "2024-03-10", "2024-03-09", "2024-03-06"}
	got, err := RecomputeStreakFromHistory(dates, "2024-03-11")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3 {
		t.Fatalf("expected streak 3 up to the first gap, got %d", got)
	}
}

func TestRecomputeStreakFromHistoryHeadYesterday(t *testing.T) {
	got, err := RecomputeStreakFromHistory([]string{"2024-03-10", "2024-03-09"}, "2024-03-11")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Fatalf("a streak alive through yesterday still counts, got %d", got)
	}
}

func TestEffectiveStreakDecaysOnRead(t *testing.T) {
	if got := EffectiveStreak(5, "2024-03-11", "2024-03-11"); got != 5 {
		t.Fatalf("streak through today must read as-is, got %d", got)
	}
	if got := EffectiveStreak(5, "2024-03-10", "2024-03-11"); got != 5 {
		t.Fatalf("streak through yesterday must read as-is, got %d", got)
	}
	if got := EffectiveStreak(5, "2024-03-08", "2024-03-11"); got != 0 {
		t.Fatalf("lapsed streak must read as 0, got %d", got)
	}
	if got := EffectiveStreak(5, "", "2024-03-11"); got != 0 {
		t.Fatalf("no history must read as 0, got %d", got)
	}
}

func TestStreakAtRisk(t *testing.T) {
	if !StreakAtRisk(5, "2024-03-10", "2024-03-11") {
		t.Fatalf("streak alive only through yesterday must be at risk")
	}
	if StreakAtRisk(5, "2024-03-11", "2024-03-11") {
		t.Fatalf("streak already extended today must not be at risk")
	}
	if StreakAtRisk(0, "2024-03-10", "2024-03-11") {
		t.Fatalf("zero streak is never at risk")
	}
}

func TestIsStreakMilestone(t *testing.T) {
	for _, n := range []int{3, 7, 30, 365} {
		if !IsStreakMilestone(n) {
			t.Fatalf("expected %d to be a milestone", n)
		}
	}
	for _, n := range []int{0, 1, 4, 11} {
		if IsStreakMilestone(n) {
			t.Fatalf("did not expect %d to be a milestone", n)
		}
	}
}

// Mirrors the dashboard scenario: streak 5 through 2024-03-10, a workout on
// the 11th extends it, a second workout and a private check-in the same day
// are no-ops, and deleting the 11th's record recomputes back to 5.
func TestStreakScenarioEngineLevel(t *testing.T) {
	streak, err := ComputeNextStreak(5, "2024-03-10", "2024-03-11", ActivityWorkedOut, models.VisibilityPublic)
	if err != nil || streak != 6 {
		t.Fatalf("first workout: expected 6, got %d (%v)", streak, err)
	}
	streak, err = ComputeNextStreak(streak, "2024-03-11", "2024-03-11", ActivityWorkingOut, models.VisibilityPublic)
	if err != nil || streak != 6 {
		t.Fatalf("second same-day workout: expected 6, got %d (%v)", streak, err)
	}
	streak, err = ComputeNextStreak(streak, "2024-03-11", "2024-03-11", ActivityWorkedOut, models.VisibilityPrivate)
	if err != nil || streak != 6 {
		t.Fatalf("private check-in: expected 6, got %d (%v)", streak, err)
	}
	recomputed, err := RecomputeStreakFromHistory(
		[]string{"2024-03-10", "2024-03-09", "2024-03-08", "2024-03-07", "2024-03-06"}, "2024-03-11")
	if err != nil || recomputed != 5 {
		t.Fatalf("after deleting today's record: expected 5, got %d (%v)", recomputed, err)
	}
}
