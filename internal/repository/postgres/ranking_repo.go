package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wikatalk/wikatalk-api/internal/domain/ranking"
	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
)

// RankingRepo реализует repository.RankingRepository поверх агрегирующих SQL-запросов
type RankingRepo struct {
	db *gorm.DB
}

// NewRankingRepo создает новый репозиторий рейтингов
func NewRankingRepo(db *gorm.DB) *RankingRepo {
	return &RankingRepo{db: db}
}

type entryRow struct {
	UserID      uint
	Value       float64
	Secondary   float64
	Samples     int64
	Username    string
	Avatar      string
	LastLoginAt *time.Time
}

// TopEntries возвращает лучших допущенных участников
func (r *RankingRepo) TopEntries(ctx context.Context, view ranking.View, limit int) ([]ranking.Entry, error) {
	query, err := topEntriesQuery(view)
	if err != nil {
		return nil, err
	}

	var rows []entryRow
	if err := r.db.WithContext(ctx).Raw(query, view.MinSamples, limit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("top entries for %s: %w", view.Type, err)
	}

	entries := make([]ranking.Entry, len(rows))
	for i, row := range rows {
		entries[i] = ranking.Entry{
			Standing: ranking.Standing{
				UserID:    row.UserID,
				Value:     row.Value,
				Secondary: row.Secondary,
				Samples:   row.Samples,
			},
			Username:   row.Username,
			Avatar:     row.Avatar,
			LastActive: row.LastLoginAt,
		}
	}
	return entries, nil
}

// CountEligible возвращает число допущенных участников
func (r *RankingRepo) CountEligible(ctx context.Context, view ranking.View) (int64, error) {
	query, err := countEligibleQuery(view)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := r.db.WithContext(ctx).Raw(query, view.MinSamples).Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("count eligible for %s: %w", view.Type, err)
	}
	return total, nil
}

// UserStanding возвращает агрегат пользователя по тому же правилу, что и таблица
func (r *RankingRepo) UserStanding(ctx context.Context, view ranking.View, userID uint) (*ranking.Standing, error) {
	query, err := userStandingQuery(view)
	if err != nil {
		return nil, err
	}

	var rows []entryRow
	if err := r.db.WithContext(ctx).Raw(query, userID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("user standing for %s: %w", view.Type, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrNotFound
	}

	return &ranking.Standing{
		UserID:    rows[0].UserID,
		Value:     rows[0].Value,
		Secondary: rows[0].Secondary,
		Samples:   rows[0].Samples,
	}, nil
}

// CountBetter считает допущенных участников, строго опережающих standing
func (r *RankingRepo) CountBetter(ctx context.Context, view ranking.View, standing ranking.Standing) (int64, error) {
	query, args, err := countBetterQuery(view, standing)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&count).Error; err != nil {
		return 0, fmt.Errorf("count better for %s: %w", view.Type, err)
	}
	return count, nil
}
