package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chethana369/Auto-resume-checker/internal/analyses"
	"github.com/chethana369/Auto-resume-checker/internal/services/health"
	"github.com/chethana369/Auto-resume-checker/internal/sessions"
	"github.com/chethana369/Auto-resume-checker/internal/shared/config"
	"github.com/chethana369/Auto-resume-checker/internal/shared/metrics"
	"github.com/chethana369/Auto-resume-checker/internal/shared/server/middleware"
	"github.com/chethana369/Auto-resume-checker/internal/shared/server/respond"
	"github.com/chethana369/Auto-resume-checker/internal/web"
)

// RouterDeps holds handlers used to build the router.
type RouterDeps struct {
	Config          config.Config
	Guard           *middleware.SessionGuard
	Health          *health.Service
	SessionHandler  *sessions.Handler
	AnalysisHandler *analyses.Handler
	WebHandler      *web.Handler
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
		middleware.Session(middleware.SessionOptions{
			TTL:    deps.Config.SessionTTL,
			Secure: deps.Config.Env == "production",
		}),
	)

	guard := deps.Guard
	if guard == nil {
		guard = middleware.NewSessionGuard()
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status, ok := deps.Health.Status(c.Request.Context())
		if !ok {
			respond.JSON(c, http.StatusServiceUnavailable, status)
			return
		}
		respond.JSON(c, http.StatusOK, status)
	})
	if deps.SessionHandler != nil {
		deps.SessionHandler.RegisterRoutes(api, guard)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api, guard)
	}
	if deps.WebHandler != nil {
		deps.WebHandler.Register(r, guard)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

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
