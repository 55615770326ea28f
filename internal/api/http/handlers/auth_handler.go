package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/repairflow/workorder-service/internal/api/dto"
	"github.com/repairflow/workorder-service/internal/auth"
	"github.com/repairflow/workorder-service/internal/service"
	apperrors "github.com/repairflow/workorder-service/pkg/util"
)

// AuthHandler manages staff login and account creation.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.service.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.NewUserResponse(result.User),
	}})
}

// Register POST /auth/register. Coordinator only.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	user, err := h.service.Register(c.UserContext(), principal.Actor(), service.RegisterInput{
		Name:          req.Name,
		Username:      req.Username,
		Password:      req.Password,
		Role:          req.Role,
		Phone:         req.Phone,
		ChannelUserID: req.ChannelUserID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
