package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/okeyenglish/okey-learn-connect-sub016/model"
	"github.com/okeyenglish/okey-learn-connect-sub016/services/spaces"
	"gorm.io/gorm"
)

// ExportService writes balance snapshots of every lesson to Spaces so the
// office has a daily record independent of the live API
type ExportService struct {
	db        *gorm.DB
	ledgerSvc *LedgerService
	spaces    *spaces.Client
}

// NewExportService creates a new export service
func NewExportService(db *gorm.DB, ledgerSvc *LedgerService, spacesClient *spaces.Client) *ExportService {
	return &ExportService{
		db:        db,
		ledgerSvc: ledgerSvc,
		spaces:    spacesClient,
	}
}

// ExportBalanceSnapshot computes the current ledger of every lesson and
// uploads one CSV. Returns the object URL and how many lessons were written.
func (s *ExportService) ExportBalanceSnapshot(ctx context.Context) (string, int, error) {
	var lessons []model.Lesson
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&lessons).Error; err != nil {
		return "", 0, fmt.Errorf("failed to fetch lessons: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"lesson_id", "student", "teacher", "paid_minutes", "used_minutes",
		"remaining_minutes", "debt_minutes", "unpaid_minutes", "paid_amount", "debt_amount",
	}
	if err := w.Write(header); err != nil {
		return "", 0, err
	}

	exported := 0
	for _, lesson := range lessons {
		led, err := s.ledgerSvc.GetLedger(ctx, lesson.ID)
		if err != nil {
			// A broken lesson must not block the rest of the snapshot
			continue
		}
		row := []string{
			lesson.ID,
			lesson.StudentName,
			lesson.TeacherName,
			strconv.Itoa(led.Stats.PaidMinutes),
			formatMinutes(led.Stats.UsedMinutes),
			formatMinutes(led.Stats.RemainingMinutes),
			formatMinutes(led.Stats.DebtMinutes),
			formatMinutes(led.Stats.UnpaidMinutes),
			strconv.FormatFloat(led.Stats.PaidAmount, 'f', 2, 64),
			strconv.FormatFloat(led.Stats.DebtAmount, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return "", 0, err
		}
		exported++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", 0, err
	}

	key := fmt.Sprintf("exports/balances/%s.csv", time.Now().UTC().Format("2006-01-02"))
	url, err := s.spaces.UploadBytes(ctx, key, buf.Bytes(), "text/csv")
	if err != nil {
		return "", 0, err
	}

	return url, exported, nil
}

func formatMinutes(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
