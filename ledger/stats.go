package ledger

import (
	"time"

	"github.com/okeyenglish/okey-learn-connect-sub016/model"
)

// Stats is the aggregate payment picture of a lesson. Minutes are weighted
// by each session's payment coefficient, so fractional values are possible.
type Stats struct {
	PaidMinutes        int     `json:"paid_minutes"`
	PaidAmount         float64 `json:"paid_amount"`
	UsedMinutes        float64 `json:"used_minutes"`
	UsedAmount         float64 `json:"used_amount"`
	RemainingMinutes   float64 `json:"remaining_minutes"`
	RemainingAmount    float64 `json:"remaining_amount"`
	DebtMinutes        float64 `json:"debt_minutes"`
	DebtAmount         float64 `json:"debt_amount"`
	TotalCourseMinutes float64 `json:"total_course_minutes"`
	UnpaidMinutes      float64 `json:"unpaid_minutes"`
	PricePerMinute     float64 `json:"price_per_minute"`
}

// DeriveStats aggregates a reconciled ledger plus the raw payments into
// Stats. A session counts as used once its calendar date is in the past
// (time of day ignored) or its status is completed. pricePerHour is the
// price of one 40-minute academic hour; when nil the price per minute falls
// back to paid amount over paid minutes, with a floor of one minute so a
// lesson with no payments never divides by zero.
func DeriveStats(entries []Entry, payments []model.LessonPayment, pricePerHour *float64, now time.Time) Stats {
	var st Stats

	for _, p := range payments {
		st.PaidMinutes += p.Minutes()
		st.PaidAmount += p.Amount
	}

	today := dateOnly(now)
	for _, e := range entries {
		if e.Status.ExcludedFromBilling() {
			continue
		}
		weighted := float64(e.DurationMinutes) * e.PaymentCoefficient
		st.TotalCourseMinutes += weighted
		if dateOnly(e.LessonDate).Before(today) || e.Status == model.SessionStatusCompleted {
			st.UsedMinutes += weighted
		}
	}

	if pricePerHour != nil {
		st.PricePerMinute = *pricePerHour / float64(model.AcademicHourMinutes)
	} else {
		minutes := st.PaidMinutes
		if minutes < 1 {
			minutes = 1
		}
		st.PricePerMinute = st.PaidAmount / float64(minutes)
	}

	st.UsedAmount = st.UsedMinutes * st.PricePerMinute

	st.RemainingMinutes = max0(float64(st.PaidMinutes) - st.UsedMinutes)
	st.RemainingAmount = max0(st.PaidAmount - st.UsedAmount)
	st.DebtMinutes = max0(st.UsedMinutes - float64(st.PaidMinutes))
	st.DebtAmount = max0(st.UsedAmount - st.PaidAmount)
	st.UnpaidMinutes = max0(st.TotalCourseMinutes - float64(st.PaidMinutes))

	return st
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
