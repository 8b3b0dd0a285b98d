package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitelens/sitelens/browser"
	"github.com/sitelens/sitelens/config"
	"github.com/sitelens/sitelens/models"
	"github.com/sitelens/sitelens/video"
)

// recordSource feeds a URL plus the shared browser into the video
// package. Recording never borrows a pooled capture page; the recording
// context opens and drives its own page.
type recordSource struct {
	url     string
	browser video.Browser
}

func (s recordSource) URL() string            { return s.url }
func (s recordSource) Browser() video.Browser { return s.browser }

// Record returns a handler for POST /api/v1/record.
//
// Flow:
//  1. Validate the request and apply defaults
//  2. Resolve the artifact directory from the label (or the URL host)
//  3. Record the scroll-through in a dedicated browsing context
//  4. Convert to the requested format; the WebM survives either way
func Record(b *browser.Browser, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// Step 1: Validate request
		var req models.RecordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.RecordResponse{
				Success: false,
				Error:   &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "invalid request: " + err.Error()},
			})
			return
		}
		req.Defaults()

		// Step 2: Resolve the artifact directory
		dir := filepath.Join(cfg.Capture.OutputRoot, artifactLabel(req.Label, req.URL))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			respondRecordError(c, models.NewCaptureError(models.ErrCodeInternal, "failed to create artifact directory", err), totalStart)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(req.Timeout)*time.Second)
		defer cancel()

		// Steps 3-4: Record and convert
		result, err := video.CaptureVideo(ctx, recordSource{url: req.URL, browser: b}, dir, videoOptions(cfg.Video, &req))
		if err != nil {
			respondRecordError(c, err, totalStart)
			return
		}

		timing := models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
		if result.Record != nil {
			timing.ProcessingMs = result.Record.DurationMs
		}
		c.JSON(http.StatusOK, models.RecordResponse{
			Success: true,
			Capture: result,
			Timing:  timing,
		})
	}
}

// videoOptions merges the configured recording defaults with the
// per-request overrides.
func videoOptions(cfg config.VideoConfig, req *models.RecordRequest) *video.Options {
	opts := &video.Options{
		Duration:     cfg.Duration,
		HoldTop:      cfg.HoldTop,
		HoldBottom:   cfg.HoldBottom,
		MinStepDelay: cfg.MinStepDelay,
		MaxSteps:     cfg.MaxSteps,
		Width:        cfg.Width,
		Height:       cfg.Height,
		FrameRate:    cfg.FrameRate,
		Format:       req.Format,
		Filename:     req.Filename,
		MP4CRF:       cfg.MP4CRF,
		MP4Preset:    cfg.MP4Preset,
		GIFFPS:       cfg.GIFFPS,
		GIFWidth:     cfg.GIFWidth,
	}
	if req.DurationMs > 0 {
		opts.Duration = time.Duration(req.DurationMs) * time.Millisecond
	}
	if req.Viewport != nil && req.Viewport.Width > 0 && req.Viewport.Height > 0 {
		opts.Width = req.Viewport.Width
		opts.Height = req.Viewport.Height
	}
	return opts
}

func respondRecordError(c *gin.Context, err error, totalStart time.Time) {
	status, detail := errorParts(err)
	c.JSON(status, models.RecordResponse{
		Success: false,
		Error:   detail,
		Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
	})
}
