package ledger

import (
	"sort"
	"time"

	"github.com/okeyenglish/okey-learn-connect-sub016/model"
)

// Entry is one session of the reconciled ledger: the session's own fields
// with the resolved duration and the minutes covered by payment. Entries are
// a read-side view; nothing here is written back to the database.
type Entry struct {
	SessionID          string               `json:"session_id"`
	LessonDate         time.Time            `json:"lesson_date"`
	Status             model.SessionStatus  `json:"status"`
	DurationMinutes    int                  `json:"duration_minutes"`
	PaidMinutes        int                  `json:"paid_minutes"`
	PaymentCoefficient float64              `json:"payment_coefficient"`
	IsAdditional       bool                 `json:"is_additional"`
	Notes              string               `json:"notes,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`

	// Display metadata copied from the explicitly linked payment, if any.
	// Never feeds back into the allocation math.
	PaymentID           *string    `json:"payment_id,omitempty"`
	PaymentDate         *time.Time `json:"payment_date,omitempty"`
	PaymentAmount       *float64   `json:"payment_amount,omitempty"`
	PaymentLessonsCount *int       `json:"payment_lessons_count,omitempty"`
}

// Allocate distributes paid minutes across a lesson's sessions.
//
// Minutes from payments come in 40-minute academic hours. Minutes already
// committed to a session through an explicit payment link are reserved
// first; whatever remains is the floating pool, handed out to the
// earliest-dated billable sessions until exhausted. Sessions on the same
// date are ordered by creation time. The input slices are not mutated and
// the result is fully determined by the inputs.
func Allocate(sessions []model.LessonSession, payments []model.LessonPayment, defaultDuration int) []Entry {
	paymentByID := make(map[string]model.LessonPayment, len(payments))
	for _, p := range payments {
		paymentByID[p.ID] = p
	}

	floating := 0
	for _, p := range payments {
		floating += p.Minutes()
	}

	entries := make([]Entry, 0, len(sessions))
	for _, s := range sessions {
		duration := defaultDuration
		if s.DurationMinutes != nil && *s.DurationMinutes > 0 {
			duration = *s.DurationMinutes
		}
		if duration < 0 {
			duration = 0
		}

		e := Entry{
			SessionID:          s.ID,
			LessonDate:         s.LessonDate,
			Status:             s.Status,
			DurationMinutes:    duration,
			PaymentCoefficient: s.PaymentCoefficient,
			IsAdditional:       s.IsAdditional,
			Notes:              s.Notes,
			CreatedAt:          s.CreatedAt,
			PaymentID:          s.PaymentID,
		}

		// First pass: reserve minutes explicitly committed via payment links
		if s.PaymentID != nil {
			explicit := s.PaidMinutes
			if explicit > duration {
				explicit = duration
			}
			if explicit < 0 {
				explicit = 0
			}
			e.PaidMinutes = explicit

			floating -= explicit
			if floating < 0 {
				floating = 0
			}

			if p, ok := paymentByID[*s.PaymentID]; ok {
				date := p.PaymentDate
				amount := p.Amount
				count := p.LessonsCount
				e.PaymentDate = &date
				e.PaymentAmount = &amount
				e.PaymentLessonsCount = &count
			}
		}

		entries = append(entries, e)
	}

	// Allocation order: lesson date ascending, creation time breaking ties
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].LessonDate.Equal(entries[j].LessonDate) {
			return entries[i].LessonDate.Before(entries[j].LessonDate)
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	// Second pass: hand out the floating pool by date order
	for i := range entries {
		if floating == 0 {
			break
		}
		if entries[i].Status.ExcludedFromBilling() {
			continue
		}

		need := entries[i].DurationMinutes - entries[i].PaidMinutes
		if need <= 0 {
			continue
		}
		grant := need
		if grant > floating {
			grant = floating
		}
		entries[i].PaidMinutes += grant
		floating -= grant
	}

	return entries
}
