package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "stress-backend/internal/auth"
	"stress-backend/internal/predictions"
	"stress-backend/internal/services/health"
	"stress-backend/internal/shared/config"
	"stress-backend/internal/shared/metrics"
	"stress-backend/internal/shared/server/middleware"
	"stress-backend/internal/users"
)

const predictRateGroup = "PREDICT"

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config            config.Config
	Verifier          middleware.TokenVerifier
	Health            *health.Service
	UserHandler       *users.Handler
	PredictionHandler *predictions.Handler
	GoogleAuth        *googleauth.GoogleService
	Limiter           *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Verifier),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: rateGroup,
			Limiter:  deps.Limiter,
			Rules: map[string]middleware.RateLimitRule{
				predictRateGroup: {Rate: deps.Config.PredictRate, Burst: deps.Config.PredictBurst},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	if deps.Health != nil {
		deps.Health.RegisterRoutes(api)
	} else {
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
	}
	if deps.GoogleAuth != nil && deps.GoogleAuth.Configured() {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.PredictionHandler != nil {
		deps.PredictionHandler.RegisterRoutes(api)
	}

	return r
}

func rateGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/predict" {
		return predictRateGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
