package middleware

import (
	"strings"

	deliverycontext "identity/internal/delivery/context"
	"identity/internal/domain/entity"
	domainerrors "identity/internal/domain/errors"
	"identity/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "
	keyCurrentUser      = "current_user"
)

// AuthMiddleware resolves the Bearer token to a user before the handler runs.
type AuthMiddleware struct {
	userUC usecase.UserUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(userUC usecase.UserUsecase) *AuthMiddleware {
	return &AuthMiddleware{userUC: userUC}
}

// Authenticate rejects the request with 401 unless it carries a valid Bearer token
// for an existing user.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(headerAuthorization)
		if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return domainerrors.ErrUnauthorized
		}

		token := strings.TrimSpace(header[len(bearerPrefix):])
		if token == "" {
			return domainerrors.ErrUnauthorized
		}

		user, err := m.userUC.Authenticate(c.Request().Context(), token)
		if err != nil {
			return err
		}

		deliverycontext.SetSubject(c, user.ID.String())
		c.Set(keyCurrentUser, user)

		return next(c)
	}
}

// CurrentUser returns the user stored by Authenticate.
func CurrentUser(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(keyCurrentUser).(*entity.User)

	return user, ok && user != nil
}
