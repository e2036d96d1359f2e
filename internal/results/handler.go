package results

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pulsescore-backend/internal/scoring"
	"pulsescore-backend/internal/shared/server/middleware"
	"pulsescore-backend/internal/shared/server/respond"
)

const maxBodySize = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches scoring and result routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/scoring/config", h.config)
	rg.POST("/score", h.preview)
	rg.POST("/surveys/:id/results", middleware.RequireUser(), h.compute)
	rg.GET("/surveys/:id/results", middleware.RequireUser(), h.list)
	rg.GET("/results/:id", h.get)
}

func (h *Handler) config(c *gin.Context) {
	respond.OK(c, h.Svc.Config())
}

func (h *Handler) preview(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}
	ev := h.Svc.Preview(req.Questions, req.Responses)
	exclusions := ev.Exclusions
	if exclusions == nil {
		exclusions = []scoring.Exclusion{}
	}
	c.Set(middleware.TierKey, string(ev.Result.Tier))
	respond.OK(c, previewResponse{Result: ev.Result, Exclusions: exclusions})
}

func (h *Handler) compute(c *gin.Context) {
	surveyID := c.Param("id")
	c.Set(middleware.SurveyIDKey, surveyID)

	result, err := h.Svc.Compute(c.Request.Context(), surveyID, middleware.UserIDFromContext(c))
	if err != nil {
		switch {
		case IsNotFound(err):
			respond.NotFound(c, "survey not found")
		default:
			respond.Internal(c, "failed to compute result")
		}
		return
	}
	c.Set(middleware.ResultIDKey, result.ID)
	c.Set(middleware.TierKey, string(result.Tier))
	respond.Created(c, result)
}

func (h *Handler) list(c *gin.Context) {
	surveyID := c.Param("id")
	c.Set(middleware.SurveyIDKey, surveyID)
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.Svc.ListForSurvey(c.Request.Context(), surveyID, middleware.UserIDFromContext(c), limit)
	if err != nil {
		if IsNotFound(err) {
			respond.NotFound(c, "survey not found")
			return
		}
		respond.Internal(c, "failed to list results")
		return
	}
	if items == nil {
		items = []PulseResult{}
	}
	respond.OK(c, listResponse{Items: items})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ResultIDKey, id)
	result, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		if IsNotFound(err) {
			respond.NotFound(c, "result not found")
			return
		}
		respond.Internal(c, "failed to fetch result")
		return
	}
	c.Set(middleware.TierKey, string(result.Tier))
	respond.OK(c, result)
}
