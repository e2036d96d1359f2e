package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "pulsescore-backend/internal/auth"
	"pulsescore-backend/internal/certificates"
	"pulsescore-backend/internal/insights"
	"pulsescore-backend/internal/results"
	"pulsescore-backend/internal/services/health"
	"pulsescore-backend/internal/shared/config"
	"pulsescore-backend/internal/shared/metrics"
	"pulsescore-backend/internal/shared/server/middleware"
	"pulsescore-backend/internal/shared/server/respond"
	"pulsescore-backend/internal/surveys"
	"pulsescore-backend/internal/users"
)

// RouterDeps carries the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config       config.Config
	Health       *health.Service
	GoogleAuth   *googleauth.GoogleService
	Users        *users.Handler
	Surveys      *surveys.Handler
	Results      *results.Handler
	Insights     *insights.Handler
	Certificates *certificates.Handler
	RateLimiter  *middleware.RateLimiter
}

const (
	rateGroupScore       = "SCORE"
	rateGroupSubmit      = "SUBMIT"
	rateGroupCompute     = "COMPUTE"
	rateGroupCertificate = "CERTIFICATE"
)

var rateLimitRoutes = map[string]string{
	"POST /api/v1/score":                    rateGroupScore,
	"POST /api/v1/surveys/:id/submissions":  rateGroupSubmit,
	"POST /api/v1/surveys/:id/results":      rateGroupCompute,
	"POST /api/v1/results/:id/certificates": rateGroupCertificate,
}

var rateLimitRules = map[string]middleware.RateLimitRule{
	rateGroupScore:       {Rate: 5, Burst: 20},
	rateGroupSubmit:      {Rate: 2, Burst: 10},
	rateGroupCompute:     {Rate: 0.5, Burst: 5},
	rateGroupCertificate: {Rate: 0.2, Burst: 3},
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
		metrics.Middleware(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rateLimitRules,
			GroupFor: middleware.GroupByRoute(rateLimitRoutes),
			Limiter:  deps.RateLimiter,
		}),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	api.GET("/metrics", metrics.Handler())

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.Users != nil {
		deps.Users.RegisterRoutes(api)
	}
	if deps.Surveys != nil {
		deps.Surveys.RegisterRoutes(api)
	}
	if deps.Results != nil {
		deps.Results.RegisterRoutes(api)
	}
	if deps.Insights != nil {
		deps.Insights.RegisterRoutes(api)
	}
	if deps.Certificates != nil {
		deps.Certificates.RegisterRoutes(api)
	}

	return r
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
