package entity

import (
	"time"
)

// Progress: прогресс пользователя по одной викторине.
// На пару (user_id, quiz_id) существует ровно одна запись.
type Progress struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"not null;index;uniqueIndex:idx_progress_user_quiz" json:"userId"`
	QuizID             string     `gorm:"size:100;not null;uniqueIndex:idx_progress_user_quiz" json:"quizId"`
	TotalTimeSpent     int64      `gorm:"not null;default:0" json:"totalTimeSpent"` // секунды
	Completed          bool       `gorm:"not null;default:false;index" json:"completed"`
	ExercisesCompleted int        `gorm:"not null;default:0" json:"exercisesCompleted"`
	AttemptsCount      int        `gorm:"not null;default:0" json:"attemptsCount"`
	CompletedAt        *time.Time `gorm:"type:timestamp" json:"completedAt,omitempty"`

	Attempts []QuizAttempt `gorm:"foreignKey:ProgressID;constraint:OnDelete:CASCADE" json:"attempts,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName определяет имя таблицы для GORM
func (Progress) TableName() string {
	return "user_progress"
}

// ApplyAttempt учитывает новую попытку в агрегатах прогресса и возвращает
// заполненную запись попытки (без ProgressID/ID, их проставляет репозиторий).
func (p *Progress) ApplyAttempt(timeSpent int64, isCorrect bool, at time.Time) QuizAttempt {
	if timeSpent < 0 {
		timeSpent = 0
	}

	p.AttemptsCount++
	p.TotalTimeSpent += timeSpent
	if isCorrect {
		p.ExercisesCompleted++
		if !p.Completed {
			p.Completed = true
			completedAt := at
			p.CompletedAt = &completedAt
		}
	}

	return QuizAttempt{
		UserID:         p.UserID,
		QuizID:         p.QuizID,
		AttemptNumber:  p.AttemptsCount,
		TimeSpent:      timeSpent,
		IsCorrect:      isCorrect,
		CumulativeTime: p.TotalTimeSpent,
		AttemptedAt:    at,
	}
}

// ResetTimer обнуляет счетчики времени и попыток. Флаг Completed сохраняется:
// однажды пройденная викторина остается пройденной.
func (p *Progress) ResetTimer() {
	p.TotalTimeSpent = 0
	p.AttemptsCount = 0
	p.ExercisesCompleted = 0
	p.Attempts = nil
}
