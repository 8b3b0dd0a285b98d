package handler

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitelens/sitelens/browser"
	"github.com/sitelens/sitelens/config"
	"github.com/sitelens/sitelens/crop"
	"github.com/sitelens/sitelens/layout"
	"github.com/sitelens/sitelens/models"
	"github.com/sitelens/sitelens/report"
)

// captureTarget describes one page capture independent of how it was
// requested, so the direct endpoint and snapshot jobs share a pipeline.
type captureTarget struct {
	URL              string
	Dir              string
	Sections         []models.Section
	MinSectionHeight int
	Viewport         *models.Viewport
	IncludeReport    bool
	IncludeHTML      bool
	Timeout          time.Duration

	// Dedupe, when set, receives the page's structure hash right after
	// navigation. A non-empty return names the route this page duplicates
	// and skips the rest of the pipeline.
	Dedupe func(hash uint64) string
}

// Capture returns a handler for POST /api/v1/capture.
//
// Flow:
//  1. Validate the request and apply defaults
//  2. Resolve the artifact directory from the label (or the URL host)
//  3. Navigate, take the full-page screenshot, detect and crop sections
//  4. Optionally attach the content report and section HTML sidecars
func Capture(b *browser.Browser, cropper *crop.Cropper, reporter *report.Builder, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Step 1: Validate request
		var req models.CaptureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.CaptureResponse{
				Success: false,
				Error:   &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "invalid request: " + err.Error()},
			})
			return
		}
		req.Defaults()

		// Step 2: Resolve the artifact directory
		dir := filepath.Join(cfg.Capture.OutputRoot, artifactLabel(req.Label, req.URL))

		// Steps 3-4: Run the shared pipeline
		resp, _ := captureOne(c.Request.Context(), b, cropper, reporter, cfg, captureTarget{
			URL:              req.URL,
			Dir:              dir,
			Sections:         req.Sections,
			MinSectionHeight: req.MinSectionHeight,
			Viewport:         req.Viewport,
			IncludeReport:    req.IncludeReport,
			IncludeHTML:      req.IncludeHTML,
			Timeout:          time.Duration(req.Timeout) * time.Second,
		})
		if !resp.Success {
			c.JSON(statusForDetail(resp.Error), resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// captureOne runs the capture pipeline for a single page. It returns the
// response (always non-nil; failures carry the error detail) plus the
// route a duplicate page collided with when the target's Dedupe hook
// fired, in which case no artifacts were written.
func captureOne(parent context.Context, b *browser.Browser, cropper *crop.Cropper, reporter *report.Builder, cfg *config.Config, t captureTarget) (*models.CaptureResponse, string) {
	totalStart := time.Now()
	var navigationMs int64

	fail := func(err error) *models.CaptureResponse {
		_, detail := errorParts(err)
		return &models.CaptureResponse{
			Success: false,
			Error:   detail,
			Timing: models.TimingInfo{
				TotalMs:      time.Since(totalStart).Milliseconds(),
				NavigationMs: navigationMs,
			},
		}
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if err := os.MkdirAll(t.Dir, 0o755); err != nil {
		return fail(models.NewCaptureError(models.ErrCodeInternal, "failed to create artifact directory", err)), ""
	}

	page, err := b.AcquirePage(ctx)
	if err != nil {
		return fail(err), ""
	}
	success := false
	restoreViewport := false
	defer func() {
		if restoreViewport {
			if err := page.SetViewport(cfg.Capture.ViewportWidth, cfg.Capture.ViewportHeight); err != nil {
				slog.Warn("failed to restore default viewport", "error", err)
			}
		}
		b.ReleasePage(page, success)
	}()

	if t.Viewport != nil && t.Viewport.Width > 0 && t.Viewport.Height > 0 {
		if err := page.SetViewport(t.Viewport.Width, t.Viewport.Height); err != nil {
			return fail(models.NewCaptureError(models.ErrCodeInternal, "failed to apply viewport", err)), ""
		}
		restoreViewport = true
	}

	navStart := time.Now()
	if err := page.Navigate(ctx, t.URL); err != nil {
		navigationMs = time.Since(navStart).Milliseconds()
		return fail(err), ""
	}
	navigationMs = time.Since(navStart).Milliseconds()

	// The raw HTML feeds dedupe, the report and the section sidecars.
	var rawHTML string
	if t.Dedupe != nil || t.IncludeReport || t.IncludeHTML {
		rawHTML, err = page.HTML(ctx)
		if err != nil {
			return fail(err), ""
		}
	}

	if t.Dedupe != nil {
		if dupOf := t.Dedupe(layout.StructureHash(rawHTML)); dupOf != "" {
			success = true
			return &models.CaptureResponse{Success: true}, dupOf
		}
	}

	processingStart := time.Now()

	screenshotPath := filepath.Join(t.Dir, "desktop.png")
	if err := page.FullPageScreenshot(ctx, screenshotPath); err != nil {
		return fail(err), ""
	}

	sections := t.Sections
	if len(sections) == 0 {
		pageLayout, err := layout.DetectSections(ctx, page, nil)
		if err != nil {
			return fail(err), ""
		}
		sections = pageLayout.Sections
	}

	cropRes, err := cropper.CropSections(ctx, screenshotPath, sections, filepath.Join(t.Dir, "sections"), &crop.Options{
		MinHeight: t.MinSectionHeight,
	})
	if err != nil {
		return fail(err), ""
	}

	resp := &models.CaptureResponse{
		Success:      true,
		Screenshot:   screenshotPath,
		Directory:    t.Dir,
		Sections:     cropRes.Sections,
		Skipped:      cropRes.Skipped,
		ManifestPath: cropRes.ManifestPath,
		Summary:      crop.Summarize(cropRes),
	}

	// Report and sidecar failures degrade the response instead of
	// failing it; the screenshots are already on disk.
	if t.IncludeReport {
		rep, err := reporter.Build(rawHTML, page.URL())
		if err != nil {
			slog.Warn("content report failed", "url", t.URL, "error", err)
		} else {
			resp.Report = rep
			mdPath := filepath.Join(t.Dir, "content.md")
			if werr := os.WriteFile(mdPath, []byte(rep.Markdown), 0o644); werr != nil {
				slog.Warn("failed to write content.md", "path", mdPath, "error", werr)
			}
		}
	}

	if t.IncludeHTML {
		writeSectionSidecars(rawHTML, sections, cropRes.Sections)
	}

	success = true
	resp.Timing = models.TimingInfo{
		TotalMs:      time.Since(totalStart).Milliseconds(),
		NavigationMs: navigationMs,
		ProcessingMs: time.Since(processingStart).Milliseconds(),
	}
	return resp, ""
}

// writeSectionSidecars stores each cropped section's outer HTML next to
// its image. Sections whose selector matches nothing are skipped.
func writeSectionSidecars(rawHTML string, sections []models.Section, cropped []models.CroppedSection) {
	fragments := layout.ForSections(rawHTML, sections)
	for _, cs := range cropped {
		frag, ok := fragments[cs.Index]
		if !ok || frag == "" {
			continue
		}
		path := htmlSidecarPath(cs.Path)
		if err := os.WriteFile(path, []byte(frag), 0o644); err != nil {
			slog.Warn("failed to write section html", "path", path, "error", err)
		}
	}
}
