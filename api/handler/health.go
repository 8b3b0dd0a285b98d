package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitelens/sitelens/browser"
	"github.com/sitelens/sitelens/models"
	"github.com/sitelens/sitelens/video"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports browser connectivity, pool utilisation and transcoder
// availability; status degrades when the browser is unreachable or more
// than 80% of the pool's hard maximum is active.
func Health(b *browser.Browser) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := b.Stats()
		connected := b.Connected()

		status := "healthy"
		if !connected {
			status = "degraded"
		}
		if stats.HardMax > 0 && stats.ActivePages > int(float64(stats.HardMax)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:     status,
			Uptime:     b.Uptime().Round(time.Second).String(),
			Browser:    connected,
			PoolStats:  stats,
			Transcoder: video.Available(),
			Version:    version,
		})
	}
}
