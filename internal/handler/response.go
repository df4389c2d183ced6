package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wikatalk/wikatalk-api/internal/middleware"
	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
)

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// handleError переводит доменные ошибки в HTTP-статус. Неизвестные ошибки логируются
// и отдаются как 500 с общим сообщением fallback.
func handleError(c *gin.Context, component string, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrExpiredToken):
		respondError(c, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, apperrors.ErrForbidden):
		respondError(c, http.StatusForbidden, "Forbidden")
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(c, http.StatusNotFound, "Not found")
	case errors.Is(err, apperrors.ErrConflict):
		respondError(c, http.StatusConflict, err.Error())
	default:
		log.Printf("[%s] %s: %v (request_id=%s)", component, fallback, err, c.GetString(middleware.ContextKeyRequestID))
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
