package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitelens/sitelens/browser"
	"github.com/sitelens/sitelens/config"
	"github.com/sitelens/sitelens/crop"
	"github.com/sitelens/sitelens/detect"
	"github.com/sitelens/sitelens/discover"
	"github.com/sitelens/sitelens/layout"
	"github.com/sitelens/sitelens/models"
	"github.com/sitelens/sitelens/report"
	"github.com/sitelens/sitelens/video"
	"github.com/sitelens/sitelens/webhook"
)

// snapshotStore holds all in-flight and completed snapshot jobs.
var snapshotStore sync.Map

func init() {
	// Background goroutine to expire snapshot jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			snapshotStore.Range(func(key, value any) bool {
				job := value.(*models.SnapshotJob)
				if job.CreatedAt < cutoff {
					snapshotStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// PostSnapshot returns a handler for POST /api/v1/snapshot. It accepts the
// job, responds immediately and runs discovery plus per-route captures in
// the background.
func PostSnapshot(b *browser.Browser, cropper *crop.Cropper, reporter *report.Builder, mem *detect.Memory, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SnapshotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "invalid request: " + err.Error(),
				},
			})
			return
		}
		req.Defaults()

		jobID := "snap-" + randomID()
		job := &models.SnapshotJob{
			ID:            jobID,
			Status:        "processing",
			URL:           req.URL,
			Directory:     filepath.Join(cfg.Capture.OutputRoot, jobID),
			CreatedAt:     time.Now().Unix(),
			WebhookURL:    req.WebhookURL,
			WebhookSecret: req.WebhookSecret,
		}
		snapshotStore.Store(jobID, job)

		go runSnapshot(b, cropper, reporter, mem, cfg, job, req)

		c.JSON(http.StatusOK, models.SnapshotResponse{
			ID:     jobID,
			Status: "processing",
		})
	}
}

// GetSnapshot returns a handler for GET /api/v1/snapshot/:id.
func GetSnapshot() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := snapshotStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeJobNotFound,
					Message: "snapshot job not found",
				},
			})
			return
		}

		job := val.(*models.SnapshotJob)
		c.JSON(http.StatusOK, models.SnapshotStatusResponse{
			ID:        job.ID,
			Status:    job.Status,
			Completed: job.Completed,
			Total:     job.Total,
			Directory: job.Directory,
			Routes:    job.Routes,
			Pages:     job.Pages,
			Error:     job.Error,
		})
	}
}

// runSnapshot discovers the site's routes and captures each one. Captures
// run concurrently behind a semaphore sized by the page pool; results keep
// route input order.
func runSnapshot(b *browser.Browser, cropper *crop.Cropper, reporter *report.Builder, mem *detect.Memory, cfg *config.Config, job *models.SnapshotJob, req models.SnapshotRequest) {
	base, err := url.Parse(req.URL)
	if err != nil || base.Host == "" {
		failSnapshot(job, models.NewCaptureError(models.ErrCodeInvalidInput, "snapshot URL must be absolute", err))
		return
	}
	if err := os.MkdirAll(job.Directory, 0o755); err != nil {
		failSnapshot(job, models.NewCaptureError(models.ErrCodeInternal, "failed to create job directory", err))
		return
	}

	routes, err := discoverSnapshotRoutes(b, mem, cfg, base, req)
	if err != nil {
		failSnapshot(job, err)
		return
	}
	writeRoutesFile(job.Directory, routes)

	var mu sync.Mutex
	mu.Lock()
	job.Routes = routes
	job.Total = len(routes)
	mu.Unlock()

	if len(routes) == 0 {
		job.Status = "completed"
		notifyCompletion(job)
		return
	}

	dedupe := newTemplateDeduper(req)

	maxConcurrent := b.Stats().HardMax
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	sem := make(chan struct{}, maxConcurrent)

	pages := make([]*models.SnapshotPage, len(routes))
	var wg sync.WaitGroup
	for i, route := range routes {
		wg.Add(1)
		go func(idx int, rt models.RouteRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			page := captureRoute(b, cropper, reporter, cfg, base, rt, job.Directory, req, dedupe)

			mu.Lock()
			pages[idx] = page
			visible := make([]*models.SnapshotPage, 0, len(pages))
			for _, p := range pages {
				if p != nil {
					visible = append(visible, p)
				}
			}
			job.Pages = visible
			job.Completed = len(visible)
			mu.Unlock()

			if job.WebhookURL != "" {
				webhook.DeliverAsync(job.WebhookURL, job.WebhookSecret, &webhook.Event{
					Type:      webhook.EventSnapshotPage,
					JobID:     job.ID,
					Timestamp: time.Now().Unix(),
					Data:      page,
				})
			}
		}(i, route)
	}
	wg.Wait()

	mu.Lock()
	failedCount := 0
	for _, p := range job.Pages {
		if p.Status == "failed" {
			failedCount++
		}
	}
	switch {
	case failedCount == len(job.Pages) && len(job.Pages) > 0:
		job.Status = "failed"
	case failedCount > 0:
		job.Status = "partial"
	default:
		job.Status = "completed"
	}
	mu.Unlock()

	notifyCompletion(job)
	slog.Info("snapshot job finished",
		"id", job.ID,
		"status", job.Status,
		"total", job.Total,
	)
}

// discoverSnapshotRoutes runs route discovery for the job, consulting the
// framework memory so repeat snapshots of one origin skip re-detection.
func discoverSnapshotRoutes(b *browser.Browser, mem *detect.Memory, cfg *config.Config, base *url.URL, req models.SnapshotRequest) ([]models.RouteRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	page, err := b.AcquirePage(ctx)
	if err != nil {
		return nil, err
	}
	if err := page.Navigate(ctx, req.URL); err != nil {
		b.ReleasePage(page, false)
		return nil, err
	}

	origin := base.Scheme + "://" + base.Host
	result, err := discover.Routes(ctx, page, page.URL(), &discover.Options{
		Framework:   req.Framework,
		Detect:      memoryDetectFunc(page, mem, origin, cfg.Discovery.DetectThreshold),
		SettleDelay: cfg.Discovery.SettleDelay,
		MaxRoutes:   req.MaxRoutes,
	})
	b.ReleasePage(page, err == nil)
	if err != nil {
		return nil, err
	}
	return result.Routes, nil
}

// memoryDetectFunc wraps the detection hook with the origin-keyed memory:
// a remembered framework short-circuits probing, a fresh verdict is stored.
func memoryDetectFunc(page *browser.Page, mem *detect.Memory, origin string, threshold float64) discover.DetectFunc {
	inner := detectFunc(page, threshold)
	return func(ctx context.Context) (string, models.DetectResult, error) {
		if mem != nil {
			if fw := mem.Get(origin); fw != "" {
				return fw, nil, nil
			}
		}
		fw, evidence, err := inner(ctx)
		if err == nil && fw != "" && mem != nil {
			mem.Set(origin, fw)
		}
		return fw, evidence, err
	}
}

// newTemplateDeduper returns the per-job dedupe hook, or nil when template
// dedupe is disabled. The hook records first-seen structure hashes and
// reports the owning route for near-duplicates.
func newTemplateDeduper(req models.SnapshotRequest) func(routePath string) func(uint64) string {
	if req.DedupeTemplates == nil || !*req.DedupeTemplates {
		return func(string) func(uint64) string { return nil }
	}

	var mu sync.Mutex
	seen := make(map[uint64]string)
	return func(routePath string) func(uint64) string {
		return func(hash uint64) string {
			if hash == 0 {
				return ""
			}
			mu.Lock()
			defer mu.Unlock()
			for h, owner := range seen {
				if layout.SameTemplate(hash, h, 0) {
					return owner
				}
			}
			seen[hash] = routePath
			return ""
		}
	}
}

// captureRoute captures one discovered route into its own subdirectory and
// classifies the outcome as captured, skipped or failed.
func captureRoute(b *browser.Browser, cropper *crop.Cropper, reporter *report.Builder, cfg *config.Config, base *url.URL, rt models.RouteRecord, jobDir string, req models.SnapshotRequest, dedupe func(string) func(uint64) string) *models.SnapshotPage {
	if rt.Dynamic {
		// Parameterized patterns such as /posts/[id] have no concrete URL.
		return &models.SnapshotPage{Route: rt, Status: "skipped", Reason: "dynamic route pattern"}
	}

	target := routeTarget(base, rt.Path)
	routeDir := filepath.Join(jobDir, routeSlug(rt.Path))

	resp, dupOf := captureOne(context.Background(), b, cropper, reporter, cfg, captureTarget{
		URL:           target,
		Dir:           routeDir,
		IncludeReport: req.IncludeReport,
		Dedupe:        dedupe(rt.Path),
	})
	if dupOf != "" {
		return &models.SnapshotPage{Route: rt, Status: "skipped", Reason: "same template as " + dupOf}
	}
	if !resp.Success {
		reason := ""
		if resp.Error != nil {
			reason = resp.Error.Message
		}
		return &models.SnapshotPage{Route: rt, Status: "failed", Reason: reason, Capture: resp}
	}

	page := &models.SnapshotPage{Route: rt, Status: "captured", Capture: resp}
	if req.IncludeVideo {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		vres, err := video.CaptureVideo(ctx, recordSource{url: target, browser: b}, routeDir,
			videoOptions(cfg.Video, &models.RecordRequest{Format: req.VideoFormat}))
		if err != nil {
			// The capture stands on its own; a failed video is logged, not fatal.
			slog.Warn("route video failed", "route", rt.Path, "error", err)
		} else {
			page.Video = vres
		}
	}
	return page
}

// writeRoutesFile persists the discovered routes next to the captures so
// the job directory is self-describing.
func writeRoutesFile(dir string, routes []models.RouteRecord) {
	data, err := json.MarshalIndent(routes, "", "  ")
	if err != nil {
		slog.Warn("failed to encode routes.json", "error", err)
		return
	}
	path := filepath.Join(dir, "routes.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Warn("failed to write routes.json", "path", path, "error", err)
	}
}

func failSnapshot(job *models.SnapshotJob, err error) {
	_, detail := errorParts(err)
	job.Status = "failed"
	job.Error = detail
	slog.Error("snapshot job failed", "id", job.ID, "error", err)
	if job.WebhookURL != "" {
		webhook.DeliverAsync(job.WebhookURL, job.WebhookSecret, &webhook.Event{
			Type:      webhook.EventSnapshotFailed,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data:      detail,
		})
	}
}

func notifyCompletion(job *models.SnapshotJob) {
	if job.WebhookURL == "" {
		return
	}
	eventType := webhook.EventSnapshotCompleted
	if job.Status == "failed" {
		eventType = webhook.EventSnapshotFailed
	}
	webhook.DeliverAsync(job.WebhookURL, job.WebhookSecret, &webhook.Event{
		Type:      eventType,
		JobID:     job.ID,
		Timestamp: time.Now().Unix(),
		Data: map[string]any{
			"status":    job.Status,
			"completed": job.Completed,
			"total":     job.Total,
			"directory": job.Directory,
		},
	})
}
