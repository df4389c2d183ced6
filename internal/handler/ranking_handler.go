package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wikatalk/wikatalk-api/internal/domain/ranking"
	"github.com/wikatalk/wikatalk-api/internal/middleware"
	"github.com/wikatalk/wikatalk-api/internal/service"
)

const rankingsFailedMessage = "Failed to fetch rankings"

// RankingReader описывает то, что обработчикам рейтингов нужно от сервиса
type RankingReader interface {
	GetRankings(ctx context.Context, userID uint, rawType string, limit int) (*service.RankingsResult, error)
	Leaderboard(ctx context.Context, t ranking.Type) (ranking.Board, error)
	DefaultLimit() int
}

// RankingHandler обрабатывает запросы к таблицам лидеров
type RankingHandler struct {
	rankings RankingReader
}

// NewRankingHandler создает новый обработчик рейтингов
func NewRankingHandler(rankings RankingReader) *RankingHandler {
	return &RankingHandler{rankings: rankings}
}

// GetRankings возвращает таблицу лидеров и место текущего пользователя
// GET /api/rankings?type=quizChampions|coinMasters|speedDemons|consistencyKings&limit=50
func (h *RankingHandler) GetRankings(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// Без параметра берется лимит по умолчанию, явное значение сервис приводит к [1, max]
	limit := h.rankings.DefaultLimit()
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	result, err := h.rankings.GetRankings(c.Request.Context(), userID, c.Query("type"), limit)
	if err != nil {
		handleError(c, "RankingHandler", err, rankingsFailedMessage)
		return
	}

	respondOK(c, http.StatusOK, result)
}
