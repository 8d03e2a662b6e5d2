package httptransport

import (
	"log/slog"

	"github.com/cauldronio/poolsched/internal/transport/http/handler"
	"github.com/cauldronio/poolsched/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

// NewRouter wires the external HTTP surface: magic-link sign-in,
// analyze_* intention creation, scheduled-intention creation, and the
// administrative archive listing.
func NewRouter(
	logger *slog.Logger,
	intentionHandler *handler.IntentionHandler,
	scheduleHandler *handler.ScheduleHandler,
	archiveHandler *handler.ArchiveHandler,
	authHandler *handler.AuthHandler,
	jwtKey []byte,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	// Public auth routes
	r.POST("/auth/magic-link", authHandler.RequestMagicLink)
	r.GET("/auth/verify", authHandler.Verify)

	authMW := middleware.Auth(jwtKey)

	intentions := r.Group("/intentions", authMW)
	intentions.POST("/git", intentionHandler.AnalyzeGit)
	intentions.POST("/github", intentionHandler.AnalyzeGitHub)
	intentions.POST("/gitlab", intentionHandler.AnalyzeGitLab)
	intentions.POST("/meetup", intentionHandler.AnalyzeMeetup)

	r.POST("/schedules", authMW, scheduleHandler.Create)
	r.GET("/archive", authMW, archiveHandler.List)

	return r
}
