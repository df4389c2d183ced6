package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wikatalk/wikatalk-api/internal/domain/entity"
	"github.com/wikatalk/wikatalk-api/internal/domain/repository"
	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
)

// TokenIssuer выпускает access-токены
type TokenIssuer interface {
	GenerateToken(user *entity.User) (string, time.Time, error)
}

// RegisterInput: данные для регистрации
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult: токен и пользователь после входа или регистрации
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

// AuthService регистрирует пользователей и выдает токены
type AuthService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	now      func() time.Time
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for AuthService")
	}
	if tokens == nil {
		return nil, fmt.Errorf("TokenIssuer is required for AuthService")
	}
	return &AuthService{userRepo: userRepo, tokens: tokens, now: time.Now}, nil
}

// Register создает пользователя и сразу выдает токен
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)

	if n := utf8.RuneCountInString(input.Username); n < 3 || n > 50 {
		return nil, fmt.Errorf("%w: username must be 3-50 characters", apperrors.ErrValidation)
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", apperrors.ErrValidation)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}

	user := &entity.User{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	}
	// Уникальность username и email проверяет база (ErrConflict)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: user with this email or username already exists", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("[AuthService] Зарегистрирован пользователь ID=%d (%s)", user.ID, user.Username)
	return s.issue(user)
}

// Login проверяет пароль и обновляет время последнего входа
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.CheckPassword(password) {
		log.Printf("[AuthService] Неверный пароль для пользователя ID=%d", user.ID)
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	// lastActive в рейтингах берется отсюда; ошибка не мешает входу
	now := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("[AuthService] Не удалось обновить last_login_at для пользователя ID=%d: %v", user.ID, err)
	} else {
		user.LastLoginAt = &now
	}

	log.Printf("[AuthService] Пользователь ID=%d (%s) успешно вошел в систему", user.ID, user.Email)
	return s.issue(user)
}

// GetUser возвращает профиль пользователя
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *AuthService) issue(user *entity.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		log.Printf("[AuthService] Ошибка генерации токена для пользователя ID=%d: %v", user.ID, err)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
