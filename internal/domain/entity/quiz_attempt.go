package entity

import (
	"time"
)

// QuizAttempt представляет одну попытку прохождения викторины
type QuizAttempt struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProgressID     uint      `gorm:"not null;index" json:"-"`
	UserID         uint      `gorm:"not null;index" json:"userId"`
	QuizID         string    `gorm:"size:100;not null;index" json:"quizId"`
	AttemptNumber  int       `gorm:"not null" json:"attemptNumber"`
	TimeSpent      int64     `gorm:"not null;default:0" json:"timeSpent"` // секунды, не отрицательное
	IsCorrect      bool      `gorm:"not null" json:"isCorrect"`
	CumulativeTime int64     `gorm:"not null;default:0" json:"cumulativeTime"`
	AttemptedAt    time.Time `gorm:"not null" json:"timestamp"`
}

// TableName определяет имя таблицы для GORM
func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
