package certificates

import (
	"errors"
	"net/http"

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

type requestBody struct {
	Email string `json:"email" binding:"required,email"`
}

// RegisterRoutes attaches certificate routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/results/:id/certificates", middleware.RequireUser(), h.request)
	rg.GET("/certificates/:id", middleware.RequireUser(), h.get)
}

func (h *Handler) request(c *gin.Context) {
	resultID := c.Param("id")
	c.Set(middleware.ResultIDKey, resultID)

	var body requestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}

	cert, err := h.Svc.Request(c.Request.Context(), RequestInput{
		ResultID:       resultID,
		OwnerID:        middleware.UserIDFromContext(c),
		RecipientEmail: body.Email,
	})
	if err != nil {
		switch {
		case results.IsNotFound(err):
			respond.NotFound(c, "result not found")
		case errors.Is(err, ErrInvalidRecipient):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusBadGateway, "certificate_failed", "failed to issue certificate", nil)
		}
		return
	}

	if cert.Status == StatusPending {
		respond.Accepted(c, cert)
		return
	}
	respond.Created(c, cert)
}

func (h *Handler) get(c *gin.Context) {
	cert, err := h.Svc.Get(c.Request.Context(), c.Param("id"), middleware.UserIDFromContext(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) || results.IsNotFound(err) {
			respond.NotFound(c, "certificate not found")
			return
		}
		respond.Internal(c, "failed to fetch certificate")
		return
	}
	c.Set(middleware.ResultIDKey, cert.ResultID)
	respond.OK(c, cert)
}
