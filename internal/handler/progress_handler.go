package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wikatalk/wikatalk-api/internal/domain/entity"
	"github.com/wikatalk/wikatalk-api/internal/handler/dto"
	"github.com/wikatalk/wikatalk-api/internal/handler/helper"
	"github.com/wikatalk/wikatalk-api/internal/middleware"
)

// ProgressManager: операции с прогрессом, нужные обработчику
type ProgressManager interface {
	RecordAttempt(ctx context.Context, userID uint, quizID string, timeSpent int64, isCorrect bool) (*entity.Progress, *entity.QuizAttempt, error)
	ListProgress(ctx context.Context, userID uint) ([]entity.Progress, error)
	GetProgress(ctx context.Context, userID uint, quizID string) (*entity.Progress, error)
	ResetTimer(ctx context.Context, userID uint, quizID string) (*entity.Progress, error)
}

// ProgressHandler обрабатывает запросы прогресса викторин
type ProgressHandler struct {
	progress ProgressManager
}

// NewProgressHandler создает новый обработчик прогресса
func NewProgressHandler(progress ProgressManager) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}

// RecordAttempt сохраняет попытку прохождения викторины
// POST /api/progress/attempts
func (h *ProgressHandler) RecordAttempt(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.RecordAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}

	progress, attempt, err := h.progress.RecordAttempt(c.Request.Context(), userID, req.QuizID, req.TimeSpent, *req.IsCorrect)
	if err != nil {
		handleError(c, "ProgressHandler", err, "Failed to record attempt")
		return
	}

	respondOK(c, http.StatusCreated, dto.RecordAttemptResponse{
		Progress: helper.ToProgressResponse(progress),
		Attempt:  helper.ToAttemptResponse(attempt),
	})
}

// ListProgress возвращает прогресс пользователя по всем викторинам
// GET /api/progress
func (h *ProgressHandler) ListProgress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	items, err := h.progress.ListProgress(c.Request.Context(), userID)
	if err != nil {
		handleError(c, "ProgressHandler", err, "Failed to fetch progress")
		return
	}

	respondOK(c, http.StatusOK, helper.ToProgressList(items))
}

// GetProgress возвращает прогресс по викторине с попытками
// GET /api/progress/:quizId
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	progress, err := h.progress.GetProgress(c.Request.Context(), userID, c.Param("quizId"))
	if err != nil {
		handleError(c, "ProgressHandler", err, "Failed to fetch progress")
		return
	}

	respondOK(c, http.StatusOK, helper.ToProgressResponse(progress))
}

// ResetTimer сбрасывает попытки и время по викторине
// DELETE /api/progress/:quizId/attempts
func (h *ProgressHandler) ResetTimer(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	progress, err := h.progress.ResetTimer(c.Request.Context(), userID, c.Param("quizId"))
	if err != nil {
		handleError(c, "ProgressHandler", err, "Failed to reset timer")
		return
	}

	respondOK(c, http.StatusOK, helper.ToProgressResponse(progress))
}
