package surveys

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

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

// RegisterRoutes attaches survey routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/surveys", middleware.RequireUser(), h.create)
	rg.GET("/surveys", middleware.RequireUser(), h.list)
	rg.GET("/surveys/:id", h.get)
	rg.POST("/surveys/:id/submissions", h.submit)
}

func (h *Handler) create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	var req createSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}

	survey, err := h.Svc.Create(c.Request.Context(), CreateInput{
		OwnerID:          middleware.UserIDFromContext(c),
		OrganizationName: req.OrganizationName,
		Title:            req.Title,
		Questions:        req.Questions,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidSurvey) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create survey", nil)
		return
	}
	c.Set(middleware.SurveyIDKey, survey.ID)
	respond.Created(c, toResponse(survey))
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list surveys", nil)
		return
	}
	out := make([]SurveyResponse, 0, len(items))
	for _, s := range items {
		r := toResponse(s)
		r.Questions = nil
		out = append(out, r)
	}
	respond.OK(c, gin.H{"items": out})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.SurveyIDKey, id)
	survey, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "survey not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch survey", nil)
		return
	}
	respond.OK(c, toResponse(survey))
}

func (h *Handler) submit(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.SurveyIDKey, id)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}

	sub, err := h.Svc.Submit(c.Request.Context(), id, middleware.UserIDFromContext(c), req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "survey not found", nil)
		case errors.Is(err, ErrInvalidSubmission):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to record submission", nil)
		}
		return
	}
	respond.Created(c, submissionResponse{
		SubmissionID: sub.ID,
		SurveyID:     sub.SurveyID,
		Answers:      len(sub.Answers),
		CreatedAt:    sub.CreatedAt,
	})
}
