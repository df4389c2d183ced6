package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wikatalk/wikatalk-api/internal/domain/entity"
	"github.com/wikatalk/wikatalk-api/internal/handler/dto"
	"github.com/wikatalk/wikatalk-api/internal/handler/helper"
	"github.com/wikatalk/wikatalk-api/internal/service"
)

// Authenticator: операции аутентификации, нужные обработчику
type Authenticator interface {
	Register(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	GetUser(ctx context.Context, userID uint) (*entity.User, error)
}

// AuthHandler обрабатывает регистрацию, вход и профиль
type AuthHandler struct {
	auth Authenticator
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func toAuthResponse(res *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      helper.ToUserResponse(res.User),
	}
}

// Register регистрирует пользователя
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}

	res, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleError(c, "AuthHandler", err, "Failed to register")
		return
	}

	respondOK(c, http.StatusCreated, toAuthResponse(res))
}

// Login выполняет вход по email и паролю
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, "AuthHandler", err, "Failed to login")
		return
	}

	respondOK(c, http.StatusOK, toAuthResponse(res))
}

// Me возвращает профиль текущего пользователя
// GET /api/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, "AuthHandler", err, "Failed to fetch user")
		return
	}

	respondOK(c, http.StatusOK, helper.ToUserResponse(user))
}
