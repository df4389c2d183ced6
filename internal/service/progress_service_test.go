package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wikatalk/wikatalk-api/internal/domain/entity"
	"github.com/wikatalk/wikatalk-api/internal/domain/repository"
	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
)

// MockProgressRepo реализует repository.ProgressRepository
type MockProgressRepo struct {
	mock.Mock
}

func (m *MockProgressRepo) RecordAttempt(ctx context.Context, in repository.AttemptInput) (*entity.Progress, *entity.QuizAttempt, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entity.Progress), args.Get(1).(*entity.QuizAttempt), args.Error(2)
}

func (m *MockProgressRepo) GetByUserAndQuiz(ctx context.Context, userID uint, quizID string, withAttempts bool) (*entity.Progress, error) {
	args := m.Called(ctx, userID, quizID, withAttempts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Progress), args.Error(1)
}

func (m *MockProgressRepo) ListByUser(ctx context.Context, userID uint) ([]entity.Progress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Progress), args.Error(1)
}

func (m *MockProgressRepo) ResetAttempts(ctx context.Context, userID uint, quizID string, cost int64) (*entity.Progress, error) {
	args := m.Called(ctx, userID, quizID, cost)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Progress), args.Error(1)
}

func TestProgressService_RecordAttempt(t *testing.T) {
	// Arrange
	repo := new(MockProgressRepo)
	svc, err := NewProgressService(repo, 0)
	require.NoError(t, err)
	now := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	want := repository.AttemptInput{UserID: 4, QuizID: "greetings-1", TimeSpent: 25, IsCorrect: true, AttemptedAt: now}
	progress := &entity.Progress{UserID: 4, QuizID: "greetings-1", Completed: true, AttemptsCount: 1, TotalTimeSpent: 25}
	attempt := &entity.QuizAttempt{AttemptNumber: 1, TimeSpent: 25, IsCorrect: true, CumulativeTime: 25}
	repo.On("RecordAttempt", mock.Anything, want).Return(progress, attempt, nil).Once()

	// Act
	gotProgress, gotAttempt, err := svc.RecordAttempt(context.Background(), 4, " greetings-1 ", 25, true)

	// Assert
	require.NoError(t, err)
	assert.True(t, gotProgress.Completed)
	assert.Equal(t, 1, gotAttempt.AttemptNumber)
	repo.AssertExpectations(t)
}

func TestProgressService_RecordAttempt_Validation(t *testing.T) {
	repo := new(MockProgressRepo)
	svc, err := NewProgressService(repo, 0)
	require.NoError(t, err)

	_, _, err = svc.RecordAttempt(context.Background(), 1, "", 10, false)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, _, err = svc.RecordAttempt(context.Background(), 1, strings.Repeat("q", 101), 10, false)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, _, err = svc.RecordAttempt(context.Background(), 1, "numbers", -1, false)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	repo.AssertNotCalled(t, "RecordAttempt", mock.Anything, mock.Anything)
}

func TestProgressService_ResetTimer_PassesCost(t *testing.T) {
	repo := new(MockProgressRepo)
	svc, err := NewProgressService(repo, 15)
	require.NoError(t, err)
	repo.On("ResetAttempts", mock.Anything, uint(2), "colors", int64(15)).
		Return(&entity.Progress{UserID: 2, QuizID: "colors", Completed: true}, nil).Once()

	p, err := svc.ResetTimer(context.Background(), 2, "colors")

	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.Equal(t, int64(15), svc.ResetCost())
	repo.AssertExpectations(t)
}

func TestProgressService_ResetTimer_InsufficientCoins(t *testing.T) {
	repo := new(MockProgressRepo)
	svc, err := NewProgressService(repo, 15)
	require.NoError(t, err)
	repo.On("ResetAttempts", mock.Anything, uint(2), "colors", int64(15)).Return(nil, apperrors.ErrConflict).Once()

	_, err = svc.ResetTimer(context.Background(), 2, "colors")

	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestProgressService_GetProgress_LoadsAttempts(t *testing.T) {
	repo := new(MockProgressRepo)
	svc, err := NewProgressService(repo, 0)
	require.NoError(t, err)
	repo.On("GetByUserAndQuiz", mock.Anything, uint(8), "animals", true).Return(nil, apperrors.ErrNotFound).Once()

	_, err = svc.GetProgress(context.Background(), 8, "animals")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	repo.AssertExpectations(t)
}

func TestNewProgressService_RejectsNegativeCost(t *testing.T) {
	_, err := NewProgressService(new(MockProgressRepo), -1)
	assert.Error(t, err)
}
