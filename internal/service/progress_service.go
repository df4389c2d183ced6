package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/wikatalk/wikatalk-api/internal/domain/entity"
	"github.com/wikatalk/wikatalk-api/internal/domain/repository"
	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
)

const maxQuizIDLength = 100

// ProgressService записывает попытки и управляет прогрессом викторин.
// Рейтинги не инвалидируются: новые попытки видны после истечения TTL кеша.
type ProgressService struct {
	repo      repository.ProgressRepository
	resetCost int64
	now       func() time.Time
}

// NewProgressService создает сервис прогресса; resetCost задает цену сброса таймера в монетах
func NewProgressService(repo repository.ProgressRepository, resetCost int64) (*ProgressService, error) {
	if repo == nil {
		return nil, fmt.Errorf("ProgressRepository is required for ProgressService")
	}
	if resetCost < 0 {
		return nil, fmt.Errorf("reset cost must not be negative")
	}
	return &ProgressService{repo: repo, resetCost: resetCost, now: time.Now}, nil
}

func normalizeQuizID(quizID string) (string, error) {
	quizID = strings.TrimSpace(quizID)
	if quizID == "" {
		return "", fmt.Errorf("%w: quizId is required", apperrors.ErrValidation)
	}
	if len(quizID) > maxQuizIDLength {
		return "", fmt.Errorf("%w: quizId is too long", apperrors.ErrValidation)
	}
	return quizID, nil
}

// RecordAttempt сохраняет попытку и возвращает обновленный прогресс
func (s *ProgressService) RecordAttempt(ctx context.Context, userID uint, quizID string, timeSpent int64, isCorrect bool) (*entity.Progress, *entity.QuizAttempt, error) {
	quizID, err := normalizeQuizID(quizID)
	if err != nil {
		return nil, nil, err
	}
	if timeSpent < 0 {
		return nil, nil, fmt.Errorf("%w: timeSpent must not be negative", apperrors.ErrValidation)
	}

	progress, attempt, err := s.repo.RecordAttempt(ctx, repository.AttemptInput{
		UserID:      userID,
		QuizID:      quizID,
		TimeSpent:   timeSpent,
		IsCorrect:   isCorrect,
		AttemptedAt: s.now(),
	})
	if err != nil {
		log.Printf("[ProgressService] Ошибка записи попытки user=%d quiz=%s: %v", userID, quizID, err)
		return nil, nil, fmt.Errorf("failed to record attempt: %w", err)
	}
	return progress, attempt, nil
}

// ListProgress возвращает все документы прогресса пользователя
func (s *ProgressService) ListProgress(ctx context.Context, userID uint) ([]entity.Progress, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetProgress возвращает прогресс по викторине вместе с попытками
func (s *ProgressService) GetProgress(ctx context.Context, userID uint, quizID string) (*entity.Progress, error) {
	quizID, err := normalizeQuizID(quizID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByUserAndQuiz(ctx, userID, quizID, true)
}

// ResetTimer удаляет попытки по викторине и обнуляет время. Завершение сохраняется.
// Нехватка монет дает ErrConflict.
func (s *ProgressService) ResetTimer(ctx context.Context, userID uint, quizID string) (*entity.Progress, error) {
	quizID, err := normalizeQuizID(quizID)
	if err != nil {
		return nil, err
	}

	progress, err := s.repo.ResetAttempts(ctx, userID, quizID, s.resetCost)
	if err != nil {
		return nil, err
	}
	log.Printf("[ProgressService] Таймер викторины %s сброшен для пользователя ID=%d (стоимость %d)", quizID, userID, s.resetCost)
	return progress, nil
}

// ResetCost возвращает цену сброса таймера
func (s *ProgressService) ResetCost() int64 {
	return s.resetCost
}
