package errors

import (
	"net/http"
	"testing"

	"identity/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestBaseError_WithDetailsKeepsIdentity(t *testing.T) {
	detailed := ErrPasswordStrength.WithDetails("must contain at least one number")

	assert.True(t, errors.Is(detailed, ErrPasswordStrength))
	assert.False(t, errors.Is(detailed, ErrValidationFailed))
	assert.Equal(t, "must contain at least one number", detailed.Details())
	assert.Contains(t, detailed.Error(), "must contain at least one number")
}

func TestBaseError_WrapMessage(t *testing.T) {
	err := ErrInvalidCredentials.WrapMessage("login failed")

	var appErr AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPCode())
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.ErrorCode())
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestDatabaseExecuteError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewDatabaseExecuteError(cause, "failed to create user")

	assert.Equal(t, http.StatusInternalServerError, err.HTTPCode())
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", err.ErrorCode())
	assert.Equal(t, "failed to create user", err.Details())
	assert.Contains(t, err.Error(), "connection reset")
	assert.True(t, errors.Is(err, cause))
}
