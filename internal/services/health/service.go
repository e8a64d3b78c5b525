package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stress-backend/internal/shared/server/respond"
)

// Pinger reports database reachability. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Status is the health payload.
type Status struct {
	OK            bool   `json:"ok"`
	Database      string `json:"database"`
	ScoreProvider string `json:"scoreProvider"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB            Pinger
	ScoreProvider string
	Timeout       time.Duration
}

// NewService constructs a new health service. A nil db reports the in-memory fallback.
func NewService(db Pinger, scoreProvider string) *Service {
	return &Service{DB: db, ScoreProvider: scoreProvider, Timeout: 2 * time.Second}
}

// Status checks dependencies. A missing score provider does not make the service unhealthy,
// since /predict answers 503 on its own.
func (s *Service) Status(ctx context.Context) Status {
	out := Status{OK: true, Database: "memory", ScoreProvider: s.ScoreProvider}
	if out.ScoreProvider == "" {
		out.ScoreProvider = "none"
	}
	if s.DB == nil {
		return out
	}
	pingCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		out.OK = false
		out.Database = "unreachable"
		return out
	}
	out.Database = "ok"
	return out
}

// RegisterRoutes attaches GET /health.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		status := s.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
}
