package predictions

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"stress-backend/internal/shared/server/middleware"
	"stress-backend/internal/shared/server/respond"
	"stress-backend/internal/shared/server/validation"
	"stress-backend/internal/shared/telemetry"
	"stress-backend/internal/stress"
)

type Handler struct {
	Svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, validate: validation.New()}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/predict", h.predict)

	history := rg.Group("/predictions", middleware.RequireAccount())
	history.GET("", h.list)
	history.GET("/summary", h.summary)
	history.GET("/:id", h.get)
}

func (h *Handler) predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_failed", "invalid stress factors", validation.Details(err))
		return
	}

	p, err := h.Svc.Predict(c.Request.Context(), PredictInput{
		UserID:    middleware.UserIDFromContext(c),
		RequestID: middleware.RequestIDFromContext(c),
		Persist:   !middleware.IsGuest(c),
		Factors:   req.Factors(),
	})
	if err != nil {
		if errors.Is(err, stress.ErrScoreUnavailable) {
			respond.Error(c, http.StatusServiceUnavailable, "score_unavailable", "stress score is currently unavailable", nil)
			return
		}
		telemetry.Error("prediction.persist_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"err":        err,
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save prediction", nil)
		return
	}

	c.Set(middleware.PredictionIDKey, p.ID)
	c.Set(middleware.CategoryKey, string(p.Category))
	respond.OK(c, toResponse(p))
}

func (h *Handler) list(c *gin.Context) {
	limit, ok := queryInt(c, "limit", DefaultLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	items, err := h.Svc.History(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			respond.Error(c, http.StatusBadRequest, "invalid_request", "limit must be 1-100 and offset non-negative", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load predictions", nil)
		return
	}

	out := historyResponse{Items: make([]predictionResponse, 0, len(items)), Limit: limit, Offset: offset}
	for _, p := range items {
		out.Items = append(out.Items, toResponse(p))
	}
	respond.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "prediction not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load prediction", nil)
		return
	}
	c.Set(middleware.PredictionIDKey, p.ID)
	respond.OK(c, toResponse(p))
}

func (h *Handler) summary(c *gin.Context) {
	s, err := h.Svc.Summary(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to summarize predictions", nil)
		return
	}
	out := summaryResponse{Summary: s}
	if s.Latest != nil {
		latest := toResponse(*s.Latest)
		out.Latest = &latest
	}
	respond.OK(c, out)
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", key+" must be an integer", nil)
		return 0, false
	}
	return v, true
}
