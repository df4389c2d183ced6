package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wikatalk/wikatalk-api/internal/domain/entity"
	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
	"github.com/wikatalk/wikatalk-api/internal/service"
)

// MockAuthenticator реализует Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Register(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthenticator) GetUser(ctx context.Context, userID uint) (*entity.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		am := new(MockAuthenticator)
		h := NewAuthHandler(am)
		am.On("Login", mock.Anything, "ana@example.com", "password123").Return(&service.AuthResult{
			Token:     "jwt",
			ExpiresAt: time.Now().Add(time.Hour),
			User:      &entity.User{ID: 1, Username: "ana", Email: "ana@example.com", Password: "hash"},
		}, nil).Once()
		c, w := newTestGinContext(http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@example.com", "password": "password123"})

		h.Login(c)

		require.Equal(t, http.StatusOK, w.Code)
		data := parseJSONResponse(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "jwt", data["token"])
		user := data["user"].(map[string]interface{})
		assert.NotContains(t, user, "password")
	})

	t.Run("bad credentials", func(t *testing.T) {
		am := new(MockAuthenticator)
		h := NewAuthHandler(am)
		am.On("Login", mock.Anything, "ana@example.com", "nope").Return(nil, apperrors.ErrUnauthorized).Once()
		c, w := newTestGinContext(http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@example.com", "password": "nope"})

		h.Login(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		am := new(MockAuthenticator)
		h := NewAuthHandler(am)
		c, w := newTestGinContext(http.MethodPost, "/api/auth/login", map[string]string{"email": "not-email"})

		h.Login(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		am.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	am := new(MockAuthenticator)
	h := NewAuthHandler(am)
	am.On("Register", mock.Anything, service.RegisterInput{Username: "ana", Email: "ana@example.com", Password: "password123"}).
		Return(nil, apperrors.ErrConflict).Once()
	c, w := newTestGinContext(http.MethodPost, "/api/auth/register",
		map[string]string{"username": "ana", "email": "ana@example.com", "password": "password123"})

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	am.AssertExpectations(t)
}

func TestAuthHandler_Me(t *testing.T) {
	am := new(MockAuthenticator)
	h := NewAuthHandler(am)
	am.On("GetUser", mock.Anything, uint(7)).Return(&entity.User{ID: 7, Username: "maria", Coins: 25}, nil).Once()
	c, w := newAuthedContext(http.MethodGet, "/api/users/me", nil, 7)

	h.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := parseJSONResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(25), data["coins"])
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	c, w := newTestGinContext(http.MethodGet, "/health", nil)
	NewHealthHandler(map[string]HealthCheck{"postgres": ok}).Health(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", parseJSONResponse(t, w)["status"])

	c, w = newTestGinContext(http.MethodGet, "/health", nil)
	NewHealthHandler(map[string]HealthCheck{"postgres": ok, "redis": down}).Health(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "degraded", resp["status"])
	assert.Equal(t, "up", resp["components"].(map[string]interface{})["postgres"])
}
