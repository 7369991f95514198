package ledger

import (
	"testing"
	"time"

	"github.com/okeyenglish/okey-learn-connect-sub016/model"
)

func floatPtr(v float64) *float64 { return &v }

func TestDeriveStatsPrepaidCourse(t *testing.T) {
	// Default duration 60, one payment of 2 academic hours (80 minutes),
	// two future 60-minute sessions with no explicit links.
	now := day(0)
	sessions := []model.LessonSession{
		session("s1", day(1), model.SessionStatusScheduled),
		session("s2", day(8), model.SessionStatusScheduled),
	}
	payments := []model.LessonPayment{payment("p1", 2, 4000)}

	entries := Allocate(sessions, payments, 60)
	st := DeriveStats(entries, payments, nil, now)

	if st.PaidMinutes != 80 {
		t.Errorf("paid minutes: got %d, want 80", st.PaidMinutes)
	}
	if st.UsedMinutes != 0 {
		t.Errorf("used minutes: got %v, want 0", st.UsedMinutes)
	}
	if st.RemainingMinutes != 80 || st.DebtMinutes != 0 {
		t.Errorf("remaining/debt: got %v/%v", st.RemainingMinutes, st.DebtMinutes)
	}
	if st.TotalCourseMinutes != 120 {
		t.Errorf("total course minutes: got %v, want 120", st.TotalCourseMinutes)
	}
	if st.UnpaidMinutes != 40 {
		t.Errorf("unpaid minutes: got %v, want 40", st.UnpaidMinutes)
	}
}

func TestDeriveStatsDebtWithoutPayments(t *testing.T) {
	now := day(0)
	past := session("s1", day(-3), model.SessionStatusCompleted)

	entries := Allocate([]model.LessonSession{past}, nil, 60)
	st := DeriveStats(entries, nil, nil, now)

	if st.PaidMinutes != 0 {
		t.Errorf("paid minutes: got %d, want 0", st.PaidMinutes)
	}
	if st.UsedMinutes != 60 {
		t.Errorf("used minutes: got %v, want 60", st.UsedMinutes)
	}
	if st.DebtMinutes != 60 || st.RemainingMinutes != 0 {
		t.Errorf("debt/remaining: got %v/%v, want 60/0", st.DebtMinutes, st.RemainingMinutes)
	}
}

func TestDeriveStatsCoefficientWeighting(t *testing.T) {
	now := day(0)
	discounted := session("s1", day(-3), model.SessionStatusCompleted)
	discounted.PaymentCoefficient = 0.5

	entries := Allocate([]model.LessonSession{discounted}, nil, 60)
	st := DeriveStats(entries, nil, nil, now)

	if st.UsedMinutes != 30 {
		t.Errorf("weighted used minutes: got %v, want 30", st.UsedMinutes)
	}
}

func TestDeriveStatsExcludedSessionsNeverCount(t *testing.T) {
	now := day(0)
	sessions := []model.LessonSession{
		session("s1", day(-10), model.SessionStatusCancelled),
		session("s2", day(-5), model.SessionStatusFree),
		session("s3", day(5), model.SessionStatusRescheduled),
	}

	entries := Allocate(sessions, nil, 60)
	st := DeriveStats(entries, nil, nil, now)

	if st.UsedMinutes != 0 || st.TotalCourseMinutes != 0 {
		t.Errorf("excluded sessions leaked into totals: used=%v total=%v",
			st.UsedMinutes, st.TotalCourseMinutes)
	}
}

func TestDeriveStatsDebtAndRemainingMutuallyExclusive(t *testing.T) {
	now := day(0)
	cases := []struct {
		name     string
		sessions []model.LessonSession
		payments []model.LessonPayment
	}{
		{
			name: "underused",
			sessions: []model.LessonSession{
				session("s1", day(3), model.SessionStatusScheduled),
			},
			payments: []model.LessonPayment{payment("p1", 3, 6000)},
		},
		{
			name: "overused",
			sessions: []model.LessonSession{
				session("s1", day(-3), model.SessionStatusCompleted),
				session("s2", day(-2), model.SessionStatusCompleted),
			},
			payments: []model.LessonPayment{payment("p1", 1, 2000)},
		},
		{
			name:     "empty lesson",
			sessions: nil,
			payments: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries := Allocate(tc.sessions, tc.payments, 60)
			st := DeriveStats(entries, tc.payments, nil, now)
			if st.RemainingMinutes > 0 && st.DebtMinutes > 0 {
				t.Errorf("both remaining (%v) and debt (%v) nonzero",
					st.RemainingMinutes, st.DebtMinutes)
			}
		})
	}
}

func TestDeriveStatsPricePerMinute(t *testing.T) {
	now := day(0)

	// Explicit price record: 2000 per academic hour -> 50 per minute
	st := DeriveStats(nil, nil, floatPtr(2000), now)
	if st.PricePerMinute != 50 {
		t.Errorf("price from price record: got %v, want 50", st.PricePerMinute)
	}

	// Fallback: derived from payments
	payments := []model.LessonPayment{payment("p1", 2, 4000)} // 80 min for 4000
	st = DeriveStats(nil, payments, nil, now)
	if st.PricePerMinute != 50 {
		t.Errorf("price from payments: got %v, want 50", st.PricePerMinute)
	}

	// No payments and no price record: floor of one minute, never NaN
	st = DeriveStats(nil, nil, nil, now)
	if st.PricePerMinute != 0 {
		t.Errorf("zero-payment price: got %v, want 0", st.PricePerMinute)
	}
}

func TestDeriveStatsZeroSessions(t *testing.T) {
	now := day(0)
	st := DeriveStats(nil, nil, nil, now)
	if st.UsedMinutes != 0 || st.TotalCourseMinutes != 0 || st.UnpaidMinutes != 0 {
		t.Errorf("empty lesson should yield zero aggregates: %+v", st)
	}
}

func TestDeriveStatsTodayNotYetUsed(t *testing.T) {
	// A session dated today is only used once completed; the date compare
	// ignores time of day.
	now := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)
	todays := session("s1", day(0), model.SessionStatusScheduled)

	entries := Allocate([]model.LessonSession{todays}, nil, 60)
	st := DeriveStats(entries, nil, nil, now)
	if st.UsedMinutes != 0 {
		t.Errorf("today's scheduled session counted as used: %v", st.UsedMinutes)
	}

	todays.Status = model.SessionStatusCompleted
	entries = Allocate([]model.LessonSession{todays}, nil, 60)
	st = DeriveStats(entries, nil, nil, now)
	if st.UsedMinutes != 60 {
		t.Errorf("completed session should count regardless of date: %v", st.UsedMinutes)
	}
}
