package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stress-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	PredictionIDKey = "predictionId"
	CategoryKey     = "stressCategory"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		telemetry.Info("request.complete", map[string]any{
			"request_id":      RequestIDFromContext(c),
			"method":          c.Request.Method,
			"path":            c.Request.URL.Path,
			"route":           c.FullPath(),
			"status":          c.Writer.Status(),
			"duration_ms":     float64(latency.Microseconds()) / 1000.0,
			"user_id":         c.GetString(userIDKey),
			"is_guest":        c.GetBool(isGuestKey),
			"prediction_id":   c.GetString(PredictionIDKey),
			"stress_category": c.GetString(CategoryKey),
			"client_ip":       c.ClientIP(),
			"user_agent":      c.Request.UserAgent(),
		})
	}
}
