package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wikatalk/wikatalk-api/pkg/metrics"
)

// Metrics записывает число и длительность запросов по шаблону маршрута
func Metrics(recorder *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		recorder.ObserveHTTP(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
