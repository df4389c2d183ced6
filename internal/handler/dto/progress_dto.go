package dto

import "time"

// RecordAttemptRequest: тело POST /api/progress/attempts
type RecordAttemptRequest struct {
	QuizID    string `json:"quizId" binding:"required,max=100"`
	TimeSpent int64  `json:"timeSpent" binding:"gte=0"`
	IsCorrect *bool  `json:"isCorrect" binding:"required"`
}

// AttemptResponse: одна попытка
type AttemptResponse struct {
	AttemptNumber  int       `json:"attemptNumber"`
	TimeSpent      int64     `json:"timeSpent"`
	IsCorrect      bool      `json:"isCorrect"`
	CumulativeTime int64     `json:"cumulativeTime"`
	Timestamp      time.Time `json:"timestamp"`
}

// ProgressResponse: прогресс пользователя по викторине
type ProgressResponse struct {
	QuizID             string            `json:"quizId"`
	TotalTimeSpent     int64             `json:"totalTimeSpent"`
	Completed          bool              `json:"completed"`
	ExercisesCompleted int               `json:"exercisesCompleted"`
	AttemptsCount      int               `json:"attemptsCount"`
	CompletedAt        *time.Time        `json:"completedAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
	Attempts           []AttemptResponse `json:"attempts,omitempty"`
}

// RecordAttemptResponse: результат записи попытки
type RecordAttemptResponse struct {
	Progress ProgressResponse `json:"progress"`
	Attempt  AttemptResponse  `json:"attempt"`
}
