package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitelens/sitelens/browser"
	"github.com/sitelens/sitelens/cache"
	"github.com/sitelens/sitelens/config"
	"github.com/sitelens/sitelens/detect"
	"github.com/sitelens/sitelens/discover"
	"github.com/sitelens/sitelens/models"
)

// Discover returns a handler for POST /api/v1/discover.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup (unless no_cache).
//  3. Acquire a pooled page, navigate to the site.    (records navigation_ms)
//  4. Detect the framework, run route discovery.      (records processing_ms)
//  5. Fill Timing, store in cache, return 200.
func Discover(b *browser.Browser, cc *cache.Cache, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.DiscoverRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.DiscoverResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		cacheKey := cache.Key(req.URL, req.Framework, req.MaxRoutes)
		if cc != nil && !req.NoCache {
			if cached, hit := cc.Get(cacheKey); hit {
				resp := *cached
				resp.CacheStatus = "hit"
				resp.Timing = models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(req.Timeout)*time.Second)
		defer cancel()

		page, err := b.AcquirePage(ctx)
		if err != nil {
			respondDiscoverError(c, err, totalStart, 0)
			return
		}

		navStart := time.Now()
		if err := page.Navigate(ctx, req.URL); err != nil {
			b.ReleasePage(page, false)
			respondDiscoverError(c, err, totalStart, time.Since(navStart).Milliseconds())
			return
		}
		navigationMs := time.Since(navStart).Milliseconds()

		procStart := time.Now()
		result, err := discover.Routes(ctx, page, page.URL(), &discover.Options{
			Framework:   req.Framework,
			Detect:      detectFunc(page, cfg.Discovery.DetectThreshold),
			SettleDelay: cfg.Discovery.SettleDelay,
			MaxRoutes:   req.MaxRoutes,
		})
		processingMs := time.Since(procStart).Milliseconds()
		b.ReleasePage(page, err == nil)

		if err != nil {
			respondDiscoverError(c, err, totalStart, navigationMs)
			return
		}

		resp := models.DiscoverResponse{
			Success:    true,
			Framework:  result.Framework,
			Discoverer: result.Discoverer,
			Routes:     result.Routes,
			Detection:  result.Detection,
			Timing: models.TimingInfo{
				TotalMs:      time.Since(totalStart).Milliseconds(),
				NavigationMs: navigationMs,
				ProcessingMs: processingMs,
			},
		}

		if cc != nil && !req.NoCache {
			stored := resp
			cc.Set(cacheKey, &stored)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}

// detectFunc adapts the detect package to the discovery DetectFunc hook.
func detectFunc(page *browser.Page, threshold float64) discover.DetectFunc {
	return func(ctx context.Context) (string, models.DetectResult, error) {
		result, err := detect.Detect(ctx, page)
		if err != nil {
			return "", nil, err
		}
		return detect.Best(result, threshold), result, nil
	}
}

func respondDiscoverError(c *gin.Context, err error, totalStart time.Time, navigationMs int64) {
	status, detail := errorParts(err)
	c.JSON(status, models.DiscoverResponse{
		Success: false,
		Error:   detail,
		Timing: models.TimingInfo{
			TotalMs:      time.Since(totalStart).Milliseconds(),
			NavigationMs: navigationMs,
		},
	})
}
