package users

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pulsescore-backend/internal/shared/server/middleware"
	"pulsescore-backend/internal/shared/server/respond"
	"pulsescore-backend/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", middleware.RequireUser(), h.me)
}

// me returns the stored account, or the token claims when the account has
// not been persisted (memory repo restarts, tokens minted in dev).
func (h *Handler) me(c *gin.Context) {
	caller := middleware.IdentityFromContext(c)
	user, err := h.Svc.GetByID(c.Request.Context(), caller.UserID)
	switch {
	case err == nil:
		respond.OK(c, user)
	case errors.Is(err, ErrNotFound):
		respond.OK(c, User{
			ID:         caller.UserID,
			Email:      caller.Email,
			Name:       caller.Name,
			PictureURL: caller.Picture,
		})
	default:
		telemetry.Error("users.me.failed", map[string]any{"user_id": caller.UserID, "error": err.Error()})
		respond.Internal(c, "failed to load user")
	}
}
