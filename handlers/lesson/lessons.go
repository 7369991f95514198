package lesson

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/okeyenglish/okey-learn-connect-sub016/model"
	"github.com/okeyenglish/okey-learn-connect-sub016/services"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/response"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/validation"
	"gorm.io/gorm"
)

// LessonHandler handles individual-lesson requests
type LessonHandler struct {
	db        *gorm.DB
	ledgerSvc *services.LedgerService
	validator *validation.Validator
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(db *gorm.DB, ledgerSvc *services.LedgerService) *LessonHandler {
	return &LessonHandler{
		db:        db,
		ledgerSvc: ledgerSvc,
		validator: validation.NewValidator(),
	}
}

// CreateLessonRequest represents the request body for creating a lesson
type CreateLessonRequest struct {
	StudentName     string   `json:"student_name" validate:"required,min=2,max=200"`
	TeacherName     string   `json:"teacher_name" validate:"omitempty,max=200"`
	Subject         string   `json:"subject" validate:"omitempty,max=100"`
	DurationMinutes int      `json:"duration_minutes" validate:"omitempty,min=15,max=240"`
	PricePerHour    *float64 `json:"price_per_hour" validate:"omitempty,gt=0"`
}

// UpdateLessonRequest represents the request body for updating a lesson
type UpdateLessonRequest struct {
	StudentName     string   `json:"student_name" validate:"omitempty,min=2,max=200"`
	TeacherName     string   `json:"teacher_name" validate:"omitempty,max=200"`
	Subject         string   `json:"subject" validate:"omitempty,max=100"`
	DurationMinutes *int     `json:"duration_minutes" validate:"omitempty,min=15,max=240"`
	PricePerHour    *float64 `json:"price_per_hour" validate:"omitempty,gt=0"`
}

// ListLessons handles GET /api/v1/lessons
func (h *LessonHandler) ListLessons(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	query := h.db.Model(&model.Lesson{})
	if student := c.Query("student"); student != "" {
		query = query.Where("student_name ILIKE ?", "%"+student+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count lessons")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var lessons []model.Lesson
	if err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&lessons).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch lessons")
	}

	return response.Paginated(c, lessons, pagination)
}

// GetLesson handles GET /api/v1/lessons/:id
func (h *LessonHandler) GetLesson(c *fiber.Ctx) error {
	id := c.Params("id")

	var lesson model.Lesson
	if err := h.db.Preload("Sessions").Preload("Payments").
		First(&lesson, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	return response.Success(c, lesson)
}

// CreateLesson handles POST /api/v1/lessons
func (h *LessonHandler) CreateLesson(c *fiber.Ctx) error {
	var req CreateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	lesson := model.Lesson{
		StudentName:     validation.SanitizeString(req.StudentName),
		TeacherName:     validation.SanitizeString(req.TeacherName),
		Subject:         validation.SanitizeString(req.Subject),
		DurationMinutes: req.DurationMinutes,
		PricePerHour:    req.PricePerHour,
	}
	if lesson.DurationMinutes == 0 {
		lesson.DurationMinutes = 60
	}
	if lesson.Subject == "" {
		lesson.Subject = "english"
	}

	if err := h.db.Create(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to create lesson")
	}

	return response.Created(c, lesson)
}

// UpdateLesson handles PUT /api/v1/lessons/:id
func (h *LessonHandler) UpdateLesson(c *fiber.Ctx) error {
	id := c.Params("id")

	var lesson model.Lesson
	if err := h.db.First(&lesson, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	var req UpdateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.StudentName != "" {
		updates["student_name"] = validation.SanitizeString(req.StudentName)
	}
	if req.TeacherName != "" {
		updates["teacher_name"] = validation.SanitizeString(req.TeacherName)
	}
	if req.Subject != "" {
		updates["subject"] = validation.SanitizeString(req.Subject)
	}
	if req.DurationMinutes != nil {
		updates["duration_minutes"] = *req.DurationMinutes
	}
	if req.PricePerHour != nil {
		updates["price_per_hour"] = *req.PricePerHour
	}
	if len(updates) == 0 {
		return response.BadRequest(c, "Nothing to update")
	}

	if err := h.db.Model(&lesson).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to update lesson")
	}

	// Default duration and price feed the ledger math
	h.ledgerSvc.Invalidate(c.Context(), lesson.ID)

	return response.Success(c, lesson)
}
