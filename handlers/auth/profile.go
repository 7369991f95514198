package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/middleware"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/response"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/validation"
)

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Name        string `json:"name" validate:"omitempty,min=2"`
	StudentName string `json:"student_name" validate:"omitempty,min=2"`
}

// GetProfile handles GET /api/v1/auth/profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	return response.Success(c, UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		StudentName: user.StudentName,
		CreatedAt:   user.CreatedAt,
	})
}

// UpdateProfile handles PUT /api/v1/auth/profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = validation.SanitizeString(req.Name)
	}
	if req.StudentName != "" {
		updates["student_name"] = validation.SanitizeString(req.StudentName)
	}
	if len(updates) == 0 {
		return response.BadRequest(c, "Nothing to update")
	}

	if err := h.db.Model(user).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.SuccessWithMessage(c, "Profile updated", UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		StudentName: user.StudentName,
		CreatedAt:   user.CreatedAt,
	})
}
