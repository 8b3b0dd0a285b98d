package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sitelens/sitelens/api/handler"
	"github.com/sitelens/sitelens/api/middleware"
	"github.com/sitelens/sitelens/browser"
	"github.com/sitelens/sitelens/cache"
	"github.com/sitelens/sitelens/config"
	"github.com/sitelens/sitelens/crop"
	"github.com/sitelens/sitelens/detect"
	"github.com/sitelens/sitelens/report"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(b *browser.Browser, cropper *crop.Cropper, reporter *report.Builder, mem *detect.Memory, cc *cache.Cache, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health endpoint, no auth required.
	v1.GET("/health", handler.Health(b))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Route discovery
	protected.POST("/discover", handler.Discover(b, cc, cfg))

	// Page capture (screenshot + sections + optional report)
	protected.POST("/capture", handler.Capture(b, cropper, reporter, cfg))

	// Scroll recording
	protected.POST("/record", handler.Record(b, cfg))

	// Site snapshot (async)
	protected.POST("/snapshot", handler.PostSnapshot(b, cropper, reporter, mem, cfg))
	protected.GET("/snapshot/:id", handler.GetSnapshot())

	return r
}
