package ledger

import (
	"testing"
	"time"

	"github.com/okeyenglish/okey-learn-connect-sub016/model"
)

func day(offset int) time.Time {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func session(id string, date time.Time, status model.SessionStatus) model.LessonSession {
	return model.LessonSession{
		ID:                 id,
		LessonDate:         date,
		Status:             status,
		PaymentCoefficient: 1.0,
		CreatedAt:          date.Add(-24 * time.Hour),
	}
}

func payment(id string, lessons int, amount float64) model.LessonPayment {
	return model.LessonPayment{
		ID:           id,
		LessonsCount: lessons,
		Amount:       amount,
		PaymentDate:  day(-7),
		CreatedAt:    day(-7),
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func TestAllocateSpreadsFloatingMinutesByDate(t *testing.T) {
	// 2 academic hours = 80 minutes across two 60-minute sessions
	sessions := []model.LessonSession{
		session("s2", day(7), model.SessionStatusScheduled),
		session("s1", day(0), model.SessionStatusScheduled),
	}
	payments := []model.LessonPayment{payment("p1", 2, 4000)}

	entries := Allocate(sessions, payments, 60)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].SessionID != "s1" || entries[1].SessionID != "s2" {
		t.Fatalf("entries not in date order: %s, %s", entries[0].SessionID, entries[1].SessionID)
	}
	if entries[0].PaidMinutes != 60 {
		t.Errorf("earliest session should be fully covered, got %d", entries[0].PaidMinutes)
	}
	if entries[1].PaidMinutes != 20 {
		t.Errorf("second session should get the 20 leftover minutes, got %d", entries[1].PaidMinutes)
	}
}

func TestAllocateBounds(t *testing.T) {
	// Overpaid lesson: allocation never exceeds a session's duration
	sessions := []model.LessonSession{
		session("s1", day(0), model.SessionStatusScheduled),
	}
	payments := []model.LessonPayment{payment("p1", 10, 20000)}

	entries := Allocate(sessions, payments, 60)
	if got := entries[0].PaidMinutes; got != 60 {
		t.Errorf("paid_minutes exceeds duration: %d", got)
	}
}

func TestAllocateConservation(t *testing.T) {
	sessions := []model.LessonSession{
		session("s1", day(0), model.SessionStatusScheduled),
		session("s2", day(7), model.SessionStatusScheduled),
		session("s3", day(14), model.SessionStatusScheduled),
	}
	payments := []model.LessonPayment{payment("p1", 2, 4000)} // 80 minutes

	entries := Allocate(sessions, payments, 60)
	total := 0
	for _, e := range entries {
		if e.PaidMinutes < 0 || e.PaidMinutes > e.DurationMinutes {
			t.Fatalf("session %s out of bounds: %d/%d", e.SessionID, e.PaidMinutes, e.DurationMinutes)
		}
		total += e.PaidMinutes
	}
	if total > 80 {
		t.Errorf("allocated %d minutes from an 80-minute pool", total)
	}
}

func TestAllocateReservesExplicitLinks(t *testing.T) {
	// One payment of 80 minutes; 60 already committed to a linked session.
	// Only 20 float to the unlinked one.
	linked := session("s1", day(0), model.SessionStatusCompleted)
	linked.PaymentID = strPtr("p1")
	linked.PaidMinutes = 60

	sessions := []model.LessonSession{
		linked,
		session("s2", day(7), model.SessionStatusScheduled),
	}
	payments := []model.LessonPayment{payment("p1", 2, 4000)}

	entries := Allocate(sessions, payments, 60)
	if entries[0].PaidMinutes != 60 {
		t.Errorf("linked session: got %d", entries[0].PaidMinutes)
	}
	if entries[1].PaidMinutes != 20 {
		t.Errorf("unlinked session: got %d, want 20", entries[1].PaidMinutes)
	}
	if entries[0].PaymentAmount == nil || *entries[0].PaymentAmount != 4000 {
		t.Errorf("linked session missing payment metadata")
	}
}

func TestAllocateSkipsExcludedStatuses(t *testing.T) {
	sessions := []model.LessonSession{
		session("s1", day(0), model.SessionStatusCancelled),
		session("s2", day(1), model.SessionStatusFree),
		session("s3", day(2), model.SessionStatusRescheduled),
		session("s4", day(3), model.SessionStatusScheduled),
	}
	payments := []model.LessonPayment{payment("p1", 1, 2000)}

	entries := Allocate(sessions, payments, 60)
	for _, e := range entries {
		if e.SessionID != "s4" && e.PaidMinutes != 0 {
			t.Errorf("excluded session %s received %d minutes", e.SessionID, e.PaidMinutes)
		}
	}
	if entries[3].PaidMinutes != 40 {
		t.Errorf("billable session got %d, want 40", entries[3].PaidMinutes)
	}
}

func TestAllocateUnknownStatusIsBillable(t *testing.T) {
	// Statuses outside the known set fall through as billable
	sessions := []model.LessonSession{
		session("s1", day(0), model.SessionStatus("trial")),
	}
	payments := []model.LessonPayment{payment("p1", 1, 2000)}

	entries := Allocate(sessions, payments, 60)
	if entries[0].PaidMinutes != 40 {
		t.Errorf("unknown status should receive allocation, got %d", entries[0].PaidMinutes)
	}
}

func TestAllocateSameDateTieBreaksOnCreation(t *testing.T) {
	first := session("s1", day(0), model.SessionStatusScheduled)
	first.CreatedAt = day(-2)
	second := session("s2", day(0), model.SessionStatusScheduled)
	second.CreatedAt = day(-1)

	// Input deliberately reversed
	sessions := []model.LessonSession{second, first}
	payments := []model.LessonPayment{payment("p1", 1, 2000)} // 40 minutes

	entries := Allocate(sessions, payments, 60)
	if entries[0].SessionID != "s1" {
		t.Fatalf("expected earliest-created session first, got %s", entries[0].SessionID)
	}
	if entries[0].PaidMinutes != 40 || entries[1].PaidMinutes != 0 {
		t.Errorf("tie-break allocation wrong: %d/%d", entries[0].PaidMinutes, entries[1].PaidMinutes)
	}
}

func TestAllocateResolvesDurations(t *testing.T) {
	custom := session("s1", day(0), model.SessionStatusScheduled)
	custom.DurationMinutes = intPtr(90)

	sessions := []model.LessonSession{
		custom,
		session("s2", day(7), model.SessionStatusScheduled),
	}

	entries := Allocate(sessions, nil, 60)
	if entries[0].DurationMinutes != 90 {
		t.Errorf("own duration not kept: %d", entries[0].DurationMinutes)
	}
	if entries[1].DurationMinutes != 60 {
		t.Errorf("lesson default not applied: %d", entries[1].DurationMinutes)
	}
}

func TestAllocateIsIdempotentAndPure(t *testing.T) {
	sessions := []model.LessonSession{
		session("s1", day(0), model.SessionStatusScheduled),
		session("s2", day(7), model.SessionStatusScheduled),
	}
	payments := []model.LessonPayment{payment("p1", 2, 4000)}

	first := Allocate(sessions, payments, 60)
	second := Allocate(sessions, payments, 60)
	if len(first) != len(second) {
		t.Fatalf("runs disagree on length")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entry %d differs between runs", i)
		}
	}
	for _, s := range sessions {
		if s.PaidMinutes != 0 {
			t.Errorf("input session %s was mutated", s.ID)
		}
	}
}
