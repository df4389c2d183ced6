package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wikatalk/wikatalk-api/internal/domain/entity"
	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
)

// MockUserRepo реализует repository.UserRepository
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) TouchLastLogin(ctx context.Context, userID uint, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

// MockTokenIssuer реализует TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(user *entity.User) (string, time.Time, error) {
	args := m.Called(user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func newTestAuthService(t *testing.T) (*AuthService, *MockUserRepo, *MockTokenIssuer) {
	t.Helper()
	repo := new(MockUserRepo)
	tokens := new(MockTokenIssuer)
	svc, err := NewAuthService(repo, tokens)
	require.NoError(t, err)
	return svc, repo, tokens
}

func TestAuthService_Register_Success(t *testing.T) {
	// Arrange
	svc, repo, tokens := newTestAuthService(t)
	expires := time.Now().Add(time.Hour)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *entity.User) bool {
		return u.Email == "ana@example.com" && u.Username == "ana"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.User).ID = 11
	}).Return(nil).Once()
	tokens.On("GenerateToken", mock.AnythingOfType("*entity.User")).Return("signed", expires, nil).Once()

	// Act
	res, err := svc.Register(context.Background(), RegisterInput{Username: " ana ", Email: "ANA@example.com ", Password: "password123"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "signed", res.Token)
	assert.Equal(t, uint(11), res.User.ID)
	assert.Equal(t, expires, res.ExpiresAt)
	repo.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"short username", RegisterInput{Username: "ab", Email: "a@b.co", Password: "password123"}},
		{"bad email", RegisterInput{Username: "ana", Email: "not-an-email", Password: "password123"}},
		{"short password", RegisterInput{Username: "ana", Email: "a@b.co", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestAuthService(t)

			_, err := svc.Register(context.Background(), tt.input)

			assert.True(t, errors.Is(err, apperrors.ErrValidation))
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_Register_Conflict(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.On("Create", mock.Anything, mock.Anything).Return(apperrors.ErrConflict).Once()

	_, err := svc.Register(context.Background(), RegisterInput{Username: "ana", Email: "ana@example.com", Password: "password123"})

	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestAuthService_Login(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := func() *entity.User {
		return &entity.User{ID: 3, Email: "ana@example.com", Username: "ana", Password: string(hashed)}
	}

	t.Run("success updates last login", func(t *testing.T) {
		svc, repo, tokens := newTestAuthService(t)
		now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }
		repo.On("GetByEmail", mock.Anything, "ana@example.com").Return(stored(), nil).Once()
		repo.On("TouchLastLogin", mock.Anything, uint(3), now).Return(nil).Once()
		tokens.On("GenerateToken", mock.Anything).Return("tok", now.Add(time.Hour), nil).Once()

		res, err := svc.Login(context.Background(), "Ana@Example.com", "password123")

		require.NoError(t, err)
		require.NotNil(t, res.User.LastLoginAt)
		assert.Equal(t, now, *res.User.LastLoginAt)
		repo.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, repo, tokens := newTestAuthService(t)
		repo.On("GetByEmail", mock.Anything, "ana@example.com").Return(stored(), nil).Once()

		_, err := svc.Login(context.Background(), "ana@example.com", "nope")

		assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
		tokens.AssertNotCalled(t, "GenerateToken", mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, repo, _ := newTestAuthService(t)
		repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperrors.ErrNotFound).Once()

		_, err := svc.Login(context.Background(), "ghost@example.com", "password123")

		assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	})

	t.Run("last login failure does not block", func(t *testing.T) {
		svc, repo, tokens := newTestAuthService(t)
		repo.On("GetByEmail", mock.Anything, "ana@example.com").Return(stored(), nil).Once()
		repo.On("TouchLastLogin", mock.Anything, uint(3), mock.Anything).Return(errors.New("db busy")).Once()
		tokens.On("GenerateToken", mock.Anything).Return("tok", time.Now(), nil).Once()

		res, err := svc.Login(context.Background(), "ana@example.com", "password123")

		require.NoError(t, err)
		assert.Nil(t, res.User.LastLoginAt)
	})
}
