package context

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newEchoContext() echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestRequestID(t *testing.T) {
	c := newEchoContext()
	assert.Empty(t, GetRequestID(c))

	SetRequestID(c, "req-1")
	assert.Equal(t, "req-1", GetRequestID(c))
}

func TestGetLoggerOrDefault(t *testing.T) {
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	scoped := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.Same(t, fallback, GetLoggerOrDefault(context.Background(), fallback))
	assert.Same(t, scoped, GetLoggerOrDefault(WithLogger(context.Background(), scoped), fallback))
	assert.Same(t, fallback, GetLoggerOrDefault(WithLogger(context.Background(), nil), fallback))
}

func TestSubject(t *testing.T) {
	c := newEchoContext()

	_, ok := GetSubject(c)
	assert.False(t, ok)

	SetSubject(c, "")
	_, ok = GetSubject(c)
	assert.False(t, ok)

	SetSubject(c, "user-1")
	subject, ok := GetSubject(c)
	assert.True(t, ok)
	assert.Equal(t, "user-1", subject)
}
