// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"identity/internal/delivery/api/middleware"
	deliverycontext "identity/internal/delivery/context"
	domainerrors "identity/internal/domain/errors"
	"identity/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
	Username string `json:"username,omitempty" validate:"omitempty,max=100"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is the payload of a successful register or login.
// Error is always false here; failures use the error envelope.
type AuthResponse struct {
	Error    bool   `json:"error"`
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
	UserID   string `json:"userId"`
}

// MeResponse is the payload of GET /auth/me.
type MeResponse struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// AuthHandler holds dependencies for the authentication endpoints.
type AuthHandler struct {
	uc     usecase.UserUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.UserUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		logger: logger,
	}
}

// Register handles the user registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return success(c, http.StatusCreated, output)
}

// Login handles the user login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.uc.Login(c.Request().Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return success(c, http.StatusOK, output)
}

// Me returns the account behind the Bearer token.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		ctx := c.Request().Context()
		deliverycontext.GetLoggerOrDefault(ctx, h.logger).ErrorContext(ctx, "Route served without auth middleware",
			slog.String("path", c.Path()))

		return domainerrors.ErrUnauthorized
	}

	return respond(c, http.StatusOK, MeResponse{
		UserID:   user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
	})
}

func success(c echo.Context, status int, output *usecase.AuthOutput) error {
	return respond(c, status, AuthResponse{
		Error:    false,
		Token:    output.Token,
		Username: output.User.Username,
		UserID:   output.User.ID.String(),
	})
}
