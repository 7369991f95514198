package ledger

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/okeyenglish/okey-learn-connect-sub016/services"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/response"
)

// LedgerHandler serves the reconciled read side: the full ledger, the
// aggregate stats, a manual refresh, and the live SSE stream.
type LedgerHandler struct {
	ledgerSvc *services.LedgerService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerSvc *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// GetLedger handles GET /api/v1/lessons/:lesson_id/ledger
func (h *LedgerHandler) GetLedger(c *fiber.Ctx) error {
	lessonID := c.Params("lesson_id")

	result, err := h.ledgerSvc.GetLedger(c.Context(), lessonID)
	if err != nil {
		if errors.Is(err, services.ErrLessonNotFound) {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to compute ledger")
	}

	return response.Success(c, result)
}

// GetStats handles GET /api/v1/lessons/:lesson_id/stats
func (h *LedgerHandler) GetStats(c *fiber.Ctx) error {
	lessonID := c.Params("lesson_id")

	result, err := h.ledgerSvc.GetLedger(c.Context(), lessonID)
	if err != nil {
		if errors.Is(err, services.ErrLessonNotFound) {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to compute stats")
	}

	return response.Success(c, result.Stats)
}

// RefreshLedger handles POST /api/v1/lessons/:lesson_id/ledger/refresh
func (h *LedgerHandler) RefreshLedger(c *fiber.Ctx) error {
	lessonID := c.Params("lesson_id")

	result, err := h.ledgerSvc.Refresh(c.Context(), lessonID)
	if err != nil {
		if errors.Is(err, services.ErrLessonNotFound) {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to refresh ledger")
	}

	return response.SuccessWithMessage(c, "Ledger refreshed", result)
}
