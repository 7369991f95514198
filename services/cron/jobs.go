package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/okeyenglish/okey-learn-connect-sub016/model"
)

// RefreshRecentLedgers recomputes the cached ledger of every lesson with
// session or payment activity in the last 24 hours, so portal views stay
// warm without waiting on a request to pay the recompute cost.
func (m *CronManager) RefreshRecentLedgers() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "refresh_recent_ledgers"
	cutoff := time.Now().Add(-24 * time.Hour)

	var lessonIDs []string
	err := m.db.Model(&model.LessonSession{}).
		Distinct("lesson_id").
		Where("updated_at > ?", cutoff).
		Pluck("lesson_id", &lessonIDs).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query recent sessions: %w", err))
		return
	}

	var paymentLessonIDs []string
	err = m.db.Model(&model.LessonPayment{}).
		Distinct("lesson_id").
		Where("updated_at > ?", cutoff).
		Pluck("lesson_id", &paymentLessonIDs).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query recent payments: %w", err))
		return
	}

	seen := make(map[string]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		seen[id] = true
	}
	for _, id := range paymentLessonIDs {
		if !seen[id] {
			seen[id] = true
			lessonIDs = append(lessonIDs, id)
		}
	}

	if len(lessonIDs) == 0 {
		m.logJobComplete(jobName, "No recently active lessons")
		return
	}

	refreshed := 0
	failed := 0
	for _, id := range lessonIDs {
		if _, err := m.ledgerSvc.Refresh(ctx, id); err != nil {
			log.Printf("[CRON] Failed to refresh ledger for lesson %s: %v", id, err)
			failed++
			continue
		}
		refreshed++
	}

	m.logJobComplete(jobName, fmt.Sprintf("Refreshed %d ledgers, failed %d", refreshed, failed))
}

// CleanupCronLogs removes cron job logs older than 30 days
func (m *CronManager) CleanupCronLogs() {
	jobName := "cleanup_cron_logs"
	cutoff := time.Now().AddDate(0, 0, -30)

	result := m.db.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete old logs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Deleted %d old cron logs", result.RowsAffected))
}

// ExportBalanceSnapshot uploads the daily per-lesson balance CSV
func (m *CronManager) ExportBalanceSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "export_balance_snapshot"

	url, exported, err := m.exportSvc.ExportBalanceSnapshot(ctx)
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Exported %d lessons to %s", exported, url))
}
