package repository

import (
	"context"
	"time"

	"github.com/wikatalk/wikatalk-api/internal/domain/entity"
)

// AttemptInput: данные одной отправленной попытки
type AttemptInput struct {
	UserID      uint
	QuizID      string
	TimeSpent   int64
	IsCorrect   bool
	AttemptedAt time.Time
}

// ProgressRepository определяет методы для работы с прогрессом по викторинам
type ProgressRepository interface {
	// RecordAttempt создает прогресс при первой попытке и добавляет запись попытки (в одной транзакции)
	RecordAttempt(ctx context.Context, in AttemptInput) (*entity.Progress, *entity.QuizAttempt, error)
	GetByUserAndQuiz(ctx context.Context, userID uint, quizID string, withAttempts bool) (*entity.Progress, error)
	ListByUser(ctx context.Context, userID uint) ([]entity.Progress, error)
	// ResetAttempts удаляет все попытки по викторине и списывает cost монет (в одной транзакции)
	ResetAttempts(ctx context.Context, userID uint, quizID string, cost int64) (*entity.Progress, error)
}
