package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/okeyenglish/okey-learn-connect-sub016/model"
	"github.com/okeyenglish/okey-learn-connect-sub016/services"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/response"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/validation"
	"gorm.io/gorm"
)

// SessionHandler handles the scheduling surface of lesson sessions
type SessionHandler struct {
	db        *gorm.DB
	ledgerSvc *services.LedgerService
	validator *validation.Validator
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(db *gorm.DB, ledgerSvc *services.LedgerService) *SessionHandler {
	return &SessionHandler{
		db:        db,
		ledgerSvc: ledgerSvc,
		validator: validation.NewValidator(),
	}
}

// CreateSessionRequest represents the request body for scheduling a session
type CreateSessionRequest struct {
	LessonDate         string   `json:"lesson_date" validate:"required,datetime=2006-01-02"`
	DurationMinutes    *int     `json:"duration_minutes" validate:"omitempty,min=15,max=240"`
	PaymentCoefficient *float64 `json:"payment_coefficient" validate:"omitempty,gt=0,lte=2"`
	IsAdditional       bool     `json:"is_additional"`
	Notes              string   `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateSessionRequest represents the request body for updating a session
type UpdateSessionRequest struct {
	LessonDate         string   `json:"lesson_date" validate:"omitempty,datetime=2006-01-02"`
	Status             string   `json:"status" validate:"omitempty,oneof=scheduled completed cancelled free rescheduled"`
	DurationMinutes    *int     `json:"duration_minutes" validate:"omitempty,min=15,max=240"`
	PaymentCoefficient *float64 `json:"payment_coefficient" validate:"omitempty,gt=0,lte=2"`
	Notes              *string  `json:"notes" validate:"omitempty,max=2000"`
}

// LinkPaymentRequest ties a session to a payment and commits minutes to it
type LinkPaymentRequest struct {
	PaymentID   string `json:"payment_id" validate:"required,uuid"`
	PaidMinutes int    `json:"paid_minutes" validate:"required,min=1,max=240"`
}

// ListSessions handles GET /api/v1/lessons/:lesson_id/sessions
func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	lessonID := c.Params("lesson_id")

	if err := h.requireLesson(lessonID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	var sessions []model.LessonSession
	if err := h.db.Where("lesson_id = ?", lessonID).
		Order("lesson_date ASC, created_at ASC").
		Find(&sessions).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch sessions")
	}

	return response.Success(c, sessions)
}

// CreateSession handles POST /api/v1/lessons/:lesson_id/sessions
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	lessonID := c.Params("lesson_id")

	if err := h.requireLesson(lessonID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	lessonDate, err := time.Parse("2006-01-02", req.LessonDate)
	if err != nil {
		return response.BadRequest(c, "Invalid lesson date")
	}

	session := model.LessonSession{
		LessonID:           lessonID,
		LessonDate:         lessonDate,
		Status:             model.SessionStatusScheduled,
		DurationMinutes:    req.DurationMinutes,
		PaymentCoefficient: 1.0,
		IsAdditional:       req.IsAdditional,
		Notes:              validation.SanitizeString(req.Notes),
	}
	if req.PaymentCoefficient != nil {
		session.PaymentCoefficient = *req.PaymentCoefficient
	}

	if err := h.db.Create(&session).Error; err != nil {
		return response.InternalServerError(c, "Failed to create session")
	}

	h.ledgerSvc.Invalidate(c.Context(), lessonID)

	return response.Created(c, session)
}

// UpdateSession handles PUT /api/v1/lessons/:lesson_id/sessions/:id
func (h *SessionHandler) UpdateSession(c *fiber.Ctx) error {
	lessonID := c.Params("lesson_id")
	id := c.Params("id")

	session, err := h.findSession(lessonID, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to fetch session")
	}

	var req UpdateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.LessonDate != "" {
		lessonDate, err := time.Parse("2006-01-02", req.LessonDate)
		if err != nil {
			return response.BadRequest(c, "Invalid lesson date")
		}
		updates["lesson_date"] = lessonDate
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.DurationMinutes != nil {
		updates["duration_minutes"] = *req.DurationMinutes
	}
	if req.PaymentCoefficient != nil {
		updates["payment_coefficient"] = *req.PaymentCoefficient
	}
	if req.Notes != nil {
		updates["notes"] = validation.SanitizeString(*req.Notes)
	}
	if len(updates) == 0 {
		return response.BadRequest(c, "Nothing to update")
	}

	if err := h.db.Model(session).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to update session")
	}

	h.ledgerSvc.Invalidate(c.Context(), lessonID)

	return response.Success(c, session)
}

// LinkPayment handles POST /api/v1/lessons/:lesson_id/sessions/:id/link-payment
func (h *SessionHandler) LinkPayment(c *fiber.Ctx) error {
	lessonID := c.Params("lesson_id")
	id := c.Params("id")

	session, err := h.findSession(lessonID, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to fetch session")
	}

	var req LinkPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// The payment must belong to the same lesson
	var payment model.LessonPayment
	if err := h.db.First(&payment, "id = ? AND lesson_id = ?", req.PaymentID, lessonID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Payment not found for this lesson")
		}
		return response.InternalServerError(c, "Failed to fetch payment")
	}

	updates := map[string]interface{}{
		"payment_id":   req.PaymentID,
		"paid_minutes": req.PaidMinutes,
	}
	if err := h.db.Model(session).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to link payment")
	}

	h.ledgerSvc.Invalidate(c.Context(), lessonID)

	return response.Success(c, session)
}

// DeleteSession handles DELETE /api/v1/lessons/:lesson_id/sessions/:id
func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	lessonID := c.Params("lesson_id")
	id := c.Params("id")

	session, err := h.findSession(lessonID, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to fetch session")
	}

	if err := h.db.Delete(session).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete session")
	}

	h.ledgerSvc.Invalidate(c.Context(), lessonID)

	return response.NoContent(c)
}

// requireLesson verifies the lesson exists; the caller maps the error
func (h *SessionHandler) requireLesson(lessonID string) error {
	var lesson model.Lesson
	return h.db.First(&lesson, "id = ?", lessonID).Error
}

func (h *SessionHandler) findSession(lessonID, id string) (*model.LessonSession, error) {
	var session model.LessonSession
	if err := h.db.First(&session, "id = ? AND lesson_id = ?", id, lessonID).Error; err != nil {
		return nil, err
	}
	return &session, nil
}
