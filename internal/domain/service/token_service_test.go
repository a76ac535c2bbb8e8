package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidTokenError_MatchesSentinel(t *testing.T) {
	cause := errors.New("token is expired")
	err := error(&InvalidTokenError{Reason: ReasonExpired, Cause: cause})

	assert.True(t, errors.Is(err, ErrInvalidToken))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "invalid token (expired): token is expired", err.Error())

	var invalid *InvalidTokenError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, ReasonExpired, invalid.Reason)
}

func TestInvalidTokenError_WithoutCause(t *testing.T) {
	err := &InvalidTokenError{Reason: ReasonMissingSubject}

	assert.Equal(t, "invalid token (missing_subject)", err.Error())
	assert.Nil(t, err.Unwrap())
}
