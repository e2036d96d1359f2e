package insights

import (
	"github.com/gin-gonic/gin"

	"pulsescore-backend/internal/results"
	"pulsescore-backend/internal/shared/server/middleware"
	"pulsescore-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches insight routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/results/:id/insights", h.get)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ResultIDKey, id)
	report, err := h.Svc.ForResult(c.Request.Context(), id)
	if err != nil {
		if results.IsNotFound(err) {
			respond.NotFound(c, "result not found")
			return
		}
		respond.Internal(c, "failed to build insights")
		return
	}
	c.Set(middleware.TierKey, report.Tier)
	respond.OK(c, report)
}
