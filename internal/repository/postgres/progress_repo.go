package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wikatalk/wikatalk-api/internal/domain/entity"
	"github.com/wikatalk/wikatalk-api/internal/domain/repository"
	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
)

// ProgressRepo реализует repository.ProgressRepository
type ProgressRepo struct {
	db *gorm.DB
}

// NewProgressRepo создает новый репозиторий прогресса
func NewProgressRepo(db *gorm.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

var progressAggregateColumns = []string{
	"total_time_spent", "completed", "exercises_completed", "attempts_count", "completed_at", "updated_at",
}

// RecordAttempt делает upsert документа прогресса и добавляет попытку.
// Строка прогресса блокируется FOR UPDATE, поэтому номера попыток идут последовательно
// даже при параллельных отправках одного пользователя.
func (r *ProgressRepo) RecordAttempt(ctx context.Context, in repository.AttemptInput) (*entity.Progress, *entity.QuizAttempt, error) {
	var progress entity.Progress
	var attempt entity.QuizAttempt

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := entity.Progress{UserID: in.UserID, QuizID: in.QuizID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "quiz_id"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND quiz_id = ?", in.UserID, in.QuizID).
			First(&progress).Error; err != nil {
			return fmt.Errorf("lock progress: %w", err)
		}

		attempt = progress.ApplyAttempt(in.TimeSpent, in.IsCorrect, in.AttemptedAt)
		attempt.ProgressID = progress.ID
		if err := tx.Create(&attempt).Error; err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}

		return tx.Model(&progress).Select(progressAggregateColumns).Updates(&progress).Error
	})
	if err != nil {
		log.Printf("[ProgressRepo] Ошибка при записи попытки user=%d quiz=%s: %v", in.UserID, in.QuizID, err)
		return nil, nil, err
	}

	return &progress, &attempt, nil
}

// GetByUserAndQuiz возвращает прогресс пользователя по викторине
func (r *ProgressRepo) GetByUserAndQuiz(ctx context.Context, userID uint, quizID string, withAttempts bool) (*entity.Progress, error) {
	var progress entity.Progress
	q := r.db.WithContext(ctx).Where("user_id = ? AND quiz_id = ?", userID, quizID)
	if withAttempts {
		q = q.Preload("Attempts", func(db *gorm.DB) *gorm.DB {
			return db.Order("attempt_number ASC")
		})
	}
	if err := q.First(&progress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &progress, nil
}

// ListByUser возвращает все документы прогресса пользователя, последние изменения первыми
func (r *ProgressRepo) ListByUser(ctx context.Context, userID uint) ([]entity.Progress, error) {
	var list []entity.Progress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

// ResetAttempts очищает попытки по викторине и списывает стоимость сброса
func (r *ProgressRepo) ResetAttempts(ctx context.Context, userID uint, quizID string, cost int64) (*entity.Progress, error) {
	var progress entity.Progress

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND quiz_id = ?", userID, quizID).
			First(&progress).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		if cost > 0 {
			var user entity.User
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrNotFound
				}
				return err
			}
			if !user.CanAfford(cost) {
				return fmt.Errorf("%w: insufficient coins (have %d, need %d)", apperrors.ErrConflict, user.Coins, cost)
			}
			if err := tx.Model(&entity.User{}).
				Where("id = ?", userID).
				UpdateColumn("coins", gorm.Expr("coins - ?", cost)).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("progress_id = ?", progress.ID).Delete(&entity.QuizAttempt{}).Error; err != nil {
			return fmt.Errorf("delete attempts: %w", err)
		}

		progress.ResetTimer()
		return tx.Model(&progress).Select(progressAggregateColumns).Updates(&progress).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ProgressRepo] Таймер сброшен: user=%d quiz=%s cost=%d", userID, quizID, cost)
	return &progress, nil
}
