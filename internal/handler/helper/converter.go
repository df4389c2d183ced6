package helper

import (
	"github.com/wikatalk/wikatalk-api/internal/domain/entity"
	"github.com/wikatalk/wikatalk-api/internal/handler/dto"
)

// ToUserResponse убирает из пользователя служебные поля
func ToUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Avatar:      u.Avatar,
		Coins:       u.Coins,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// ToAttemptResponse преобразует попытку
func ToAttemptResponse(a *entity.QuizAttempt) dto.AttemptResponse {
	return dto.AttemptResponse{
		AttemptNumber:  a.AttemptNumber,
		TimeSpent:      a.TimeSpent,
		IsCorrect:      a.IsCorrect,
		CumulativeTime: a.CumulativeTime,
		Timestamp:      a.AttemptedAt,
	}
}

// ToProgressResponse преобразует прогресс; попытки включаются, только если загружены
func ToProgressResponse(p *entity.Progress) dto.ProgressResponse {
	resp := dto.ProgressResponse{
		QuizID:             p.QuizID,
		TotalTimeSpent:     p.TotalTimeSpent,
		Completed:          p.Completed,
		ExercisesCompleted: p.ExercisesCompleted,
		AttemptsCount:      p.AttemptsCount,
		CompletedAt:        p.CompletedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if len(p.Attempts) > 0 {
		resp.Attempts = make([]dto.AttemptResponse, len(p.Attempts))
		for i := range p.Attempts {
			resp.Attempts[i] = ToAttemptResponse(&p.Attempts[i])
		}
	}
	return resp
}

// ToProgressList преобразует список прогресса
func ToProgressList(items []entity.Progress) []dto.ProgressResponse {
	out := make([]dto.ProgressResponse, len(items))
	for i := range items {
		out[i] = ToProgressResponse(&items[i])
	}
	return out
}
