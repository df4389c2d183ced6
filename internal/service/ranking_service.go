package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wikatalk/wikatalk-api/internal/domain/ranking"
	"github.com/wikatalk/wikatalk-api/internal/domain/repository"
	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
	"github.com/wikatalk/wikatalk-api/pkg/metrics"
)

const (
	DefaultRankingLimit    = 50
	DefaultRankingMaxLimit = 100
	// DefaultBoardComputeTimeout ограничивает общее вычисление таблицы, которое не зависит от отмены запросов
	DefaultBoardComputeTimeout = 30 * time.Second
)

// RankingsResult: ответ на запрос таблицы лидеров
type RankingsResult struct {
	Rankings    []ranking.Row     `json:"rankings"`
	UserRank    *ranking.UserRank `json:"userRank"`
	TotalCount  int64             `json:"totalCount"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// RankingServiceConfig: параметры сервиса рейтингов
type RankingServiceConfig struct {
	DefaultLimit int
	MaxLimit     int
	// ComputeTimeout ограничивает вычисление таблицы при промахе кеша
	ComputeTimeout time.Duration
	// Now задает источник времени для lastUpdated, nil означает time.Now
	Now func() time.Time
}

// RankingService строит таблицы лидеров и личные места пользователей.
// Таблица вычисляется на MaxLimit строк и кешируется целиком, ответ обрезается до limit.
type RankingService struct {
	repo      repository.RankingRepository
	boards    RankCache[ranking.Board]
	userRanks RankCache[*ranking.UserRank]
	metrics   *metrics.Recorder

	group          singleflight.Group
	defaultLimit   int
	maxLimit       int
	computeTimeout time.Duration
	now            func() time.Time
}

// NewRankingService создает сервис рейтингов; recorder может быть nil
func NewRankingService(
	repo repository.RankingRepository,
	boards RankCache[ranking.Board],
	userRanks RankCache[*ranking.UserRank],
	cfg RankingServiceConfig,
	recorder *metrics.Recorder,
) (*RankingService, error) {
	if repo == nil {
		return nil, fmt.Errorf("RankingRepository is required for RankingService")
	}
	if boards == nil || userRanks == nil {
		return nil, fmt.Errorf("rank caches are required for RankingService")
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultRankingMaxLimit
	}
	if cfg.DefaultLimit <= 0 || cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = min(DefaultRankingLimit, cfg.MaxLimit)
	}
	if cfg.ComputeTimeout <= 0 {
		cfg.ComputeTimeout = DefaultBoardComputeTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &RankingService{
		repo:           repo,
		boards:         boards,
		userRanks:      userRanks,
		metrics:        recorder,
		defaultLimit:   cfg.DefaultLimit,
		maxLimit:       cfg.MaxLimit,
		computeTimeout: cfg.ComputeTimeout,
		now:            cfg.Now,
	}, nil
}

// DefaultLimit возвращает лимит для запросов без параметра limit
func (s *RankingService) DefaultLimit() int {
	return s.defaultLimit
}

// ClampLimit приводит запрошенный лимит к [1, MaxLimit]
func (s *RankingService) ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// GetRankings возвращает таблицу лидеров, место пользователя и общее число участников.
// Неизвестный тип отклоняется до обращения к кешу и хранилищу.
func (s *RankingService) GetRankings(ctx context.Context, userID uint, rawType string, limit int) (*RankingsResult, error) {
	t, err := ranking.ParseType(rawType)
	if err != nil {
		return nil, err
	}
	limit = s.ClampLimit(limit)

	board, err := s.Leaderboard(ctx, t)
	if err != nil {
		return nil, err
	}

	userRank, err := s.cachedUserRank(ctx, t, userID)
	if err != nil {
		return nil, err
	}

	rows := board.Rankings
	if len(rows) > limit {
		rows = rows[:limit]
	}

	return &RankingsResult{
		Rankings:    rows,
		UserRank:    userRank,
		TotalCount:  board.TotalCount,
		LastUpdated: board.LastUpdated,
	}, nil
}

// Leaderboard возвращает полную (до MaxLimit строк) таблицу из кеша или вычисляет ее.
// Одновременные промахи по одному ключу выполняют одно вычисление.
func (s *RankingService) Leaderboard(ctx context.Context, t ranking.Type) (ranking.Board, error) {
	key := BoardCacheKey(t, "")
	if board, ok := s.boards.Get(ctx, key); ok {
		s.metrics.CacheHit("board")
		return board, nil
	}
	s.metrics.CacheMiss("board")

	// Вычисление не наследует отмену первого запроса: его результат ждут и другие.
	// Каждый запрос ждет результат не дольше, чем живет его собственный контекст.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.computeTimeout)
		defer cancel()

		// Другой запрос мог заполнить кеш, пока мы ждали
		if board, ok := s.boards.Get(flightCtx, key); ok {
			return board, nil
		}
		board, err := s.computeBoard(flightCtx, t)
		if err != nil {
			return nil, err
		}
		s.boards.Set(flightCtx, key, board)
		return board, nil
	})

	select {
	case <-ctx.Done():
		return ranking.Board{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return ranking.Board{}, res.Err
		}
		if res.Shared {
			log.Printf("[RankingService] Таблица %s получена из общего вычисления", t)
		}
		return res.Val.(ranking.Board), nil
	}
}

func (s *RankingService) computeBoard(ctx context.Context, t ranking.Type) (ranking.Board, error) {
	view, err := ranking.ViewOf(t)
	if err != nil {
		return ranking.Board{}, err
	}

	start := time.Now()
	entries, err := s.repo.TopEntries(ctx, view, s.maxLimit)
	if err == nil {
		var total int64
		total, err = s.repo.CountEligible(ctx, view)
		if err == nil {
			s.metrics.ObserveAggregation(string(t), time.Since(start), nil)
			return ranking.Board{
				Type:        t,
				Rankings:    view.BuildRows(entries),
				TotalCount:  total,
				LastUpdated: s.now(),
			}, nil
		}
	}

	s.metrics.ObserveAggregation(string(t), time.Since(start), err)
	log.Printf("[RankingService] Ошибка вычисления таблицы %s: %v", t, err)
	return ranking.Board{}, fmt.Errorf("compute %s leaderboard: %w", t, err)
}

func (s *RankingService) cachedUserRank(ctx context.Context, t ranking.Type, userID uint) (*ranking.UserRank, error) {
	if userID == 0 {
		return nil, nil
	}

	key := UserRankCacheKey(t, userID)
	if rank, ok := s.userRanks.Get(ctx, key); ok {
		s.metrics.CacheHit("user_rank")
		return rank, nil
	}
	s.metrics.CacheMiss("user_rank")

	rank, err := s.ResolveUserRank(ctx, t, userID)
	if err != nil {
		return nil, err
	}
	s.userRanks.Set(ctx, key, rank)
	return rank, nil
}

// ResolveUserRank вычисляет место пользователя: 1 + число допущенных участников, строго
// опережающих его. Если данных нет или пользователь не допущен, возвращается nil без ошибки.
// Два чтения не атомарны относительно параллельных записей.
func (s *RankingService) ResolveUserRank(ctx context.Context, t ranking.Type, userID uint) (*ranking.UserRank, error) {
	view, err := ranking.ViewOf(t)
	if err != nil {
		return nil, err
	}

	standing, err := s.repo.UserStanding(ctx, view, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		s.metrics.AggregationFailed(string(t))
		return nil, fmt.Errorf("load %s standing for user %d: %w", t, userID, err)
	}
	if standing == nil || !view.Eligible(*standing) {
		return nil, nil
	}

	better, err := s.repo.CountBetter(ctx, view, *standing)
	if err != nil {
		s.metrics.AggregationFailed(string(t))
		return nil, fmt.Errorf("count users ahead in %s for user %d: %w", t, userID, err)
	}

	return &ranking.UserRank{Rank: better + 1, Value: standing.Value}, nil
}
