package repository

import (
	"context"

	"github.com/wikatalk/wikatalk-api/internal/domain/ranking"
)

// RankingRepository: агрегирующие запросы только на чтение для таблиц лидеров
type RankingRepository interface {
	// TopEntries возвращает до limit лучших допущенных участников в порядке рейтинга
	TopEntries(ctx context.Context, view ranking.View, limit int) ([]ranking.Entry, error)
	// CountEligible возвращает число допущенных участников
	CountEligible(ctx context.Context, view ranking.View) (int64, error)
	// UserStanding возвращает агрегат пользователя; ErrNotFound, если данных нет
	UserStanding(ctx context.Context, view ranking.View, userID uint) (*ranking.Standing, error)
	// CountBetter считает других допущенных участников, строго опережающих standing
	CountBetter(ctx context.Context, view ranking.View, standing ranking.Standing) (int64, error)
}
