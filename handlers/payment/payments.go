package payment

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/okeyenglish/okey-learn-connect-sub016/model"
	"github.com/okeyenglish/okey-learn-connect-sub016/services"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/response"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentHandler handles the billing surface of lesson payments
type PaymentHandler struct {
	db        *gorm.DB
	ledgerSvc *services.LedgerService
	validator *validation.Validator
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB, ledgerSvc *services.LedgerService) *PaymentHandler {
	return &PaymentHandler{
		db:        db,
		ledgerSvc: ledgerSvc,
		validator: validation.NewValidator(),
	}
}

// CreatePaymentRequest represents the request body for recording a payment
type CreatePaymentRequest struct {
	LessonsCount int                    `json:"lessons_count" validate:"required,min=1,max=200"`
	Amount       float64                `json:"amount" validate:"required,gt=0"`
	PaymentDate  string                 `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Method       string                 `json:"method" validate:"omitempty,max=50"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// ListPayments handles GET /api/v1/lessons/:lesson_id/payments
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	lessonID := c.Params("lesson_id")

	if err := h.requireLesson(lessonID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	var payments []model.LessonPayment
	if err := h.db.Where("lesson_id = ?", lessonID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch payments")
	}

	return response.Success(c, payments)
}

// CreatePayment handles POST /api/v1/lessons/:lesson_id/payments
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	lessonID := c.Params("lesson_id")

	if err := h.requireLesson(lessonID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	paymentDate, err := time.Parse("2006-01-02", req.PaymentDate)
	if err != nil {
		return response.BadRequest(c, "Invalid payment date")
	}

	payment := model.LessonPayment{
		LessonID:     lessonID,
		LessonsCount: req.LessonsCount,
		Amount:       req.Amount,
		PaymentDate:  paymentDate,
		Method:       validation.SanitizeString(req.Method),
	}
	if req.Metadata != nil {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			return response.BadRequest(c, "Invalid payment metadata")
		}
		payment.Metadata = datatypes.JSON(raw)
	}

	if err := h.db.Create(&payment).Error; err != nil {
		return response.InternalServerError(c, "Failed to record payment")
	}

	h.ledgerSvc.Invalidate(c.Context(), lessonID)

	return response.Created(c, payment)
}

// DeletePayment handles DELETE /api/v1/lessons/:lesson_id/payments/:id
func (h *PaymentHandler) DeletePayment(c *fiber.Ctx) error {
	lessonID := c.Params("lesson_id")
	id := c.Params("id")

	var payment model.LessonPayment
	if err := h.db.First(&payment, "id = ? AND lesson_id = ?", id, lessonID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to fetch payment")
	}

	// Unlink sessions that committed minutes against this payment first
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.LessonSession{}).
			Where("payment_id = ?", payment.ID).
			Updates(map[string]interface{}{"payment_id": nil, "paid_minutes": 0}).Error; err != nil {
			return err
		}
		return tx.Delete(&payment).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete payment")
	}

	h.ledgerSvc.Invalidate(c.Context(), lessonID)

	return response.NoContent(c)
}

func (h *PaymentHandler) requireLesson(lessonID string) error {
	var lesson model.Lesson
	return h.db.First(&lesson, "id = ?", lessonID).Error
}
