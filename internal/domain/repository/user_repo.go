package repository

import (
	"context"
	"time"

	"github.com/wikatalk/wikatalk-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// TouchLastLogin обновляет отметку последнего входа
	TouchLastLogin(ctx context.Context, userID uint, at time.Time) error
}
