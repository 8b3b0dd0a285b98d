package video

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sitelens/sitelens/models"
)

// session is the transient recording context + page pair owned by a single
// RecordScroll call. Both handles are closed exactly once on every exit
// path, page before context, and close failures never mask the error that
// ended the recording.
type session struct {
	context RecordingContext
	page    RecordingPage
	start   time.Time

	pageClosed    bool
	contextClosed bool
}

func (s *session) closePage() {
	if s.page == nil || s.pageClosed {
		return
	}
	s.pageClosed = true
	if err := s.page.Close(); err != nil {
		slog.Debug("recording page close failed", "error", err)
	}
}

func (s *session) closeContext() {
	if s.context == nil || s.contextClosed {
		return
	}
	s.contextClosed = true
	if err := s.context.Close(); err != nil {
		slog.Debug("recording context close failed", "error", err)
	}
}

// RecordScroll opens a fresh recording context, drives the scroll
// choreography on pageURL and returns the finished WebM recording.
//
// Choreography: snap to top, hold, scroll to the bottom in half-viewport
// steps, hold, scroll back up, hold again. Steps are capped and per-step
// delay is derived from the time budget so playback stays smooth and
// bounded on pages of any height. Pages that fit in the viewport skip the
// scrolling and hold for the remaining budget instead.
func RecordScroll(ctx context.Context, browser Browser, pageURL, outputDir string, opts *Options) (*models.RecordResult, error) {
	if browser == nil {
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput, "browser is required for recording", nil)
	}
	if !browser.Connected() {
		return nil, models.NewCaptureError(models.ErrCodeBrowserCrash, "browser is not connected", nil)
	}
	if strings.TrimSpace(pageURL) == "" {
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput, "page url is required for recording", nil)
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput, "output directory is required for recording", nil)
	}
	o := opts.withDefaults()

	rctx, err := browser.NewRecordingContext(ctx, &RecordingOptions{
		Width:     o.Width,
		Height:    o.Height,
		FrameRate: o.FrameRate,
		OutputDir: outputDir,
	})
	if err != nil {
		return nil, wrapRecording(err, "failed to open recording context")
	}

	s := &session{context: rctx, start: time.Now()}
	defer s.closeContext()

	page, err := rctx.NewPage(ctx)
	if err != nil {
		return nil, wrapRecording(err, "failed to open recording page")
	}
	s.page = page
	defer s.closePage()

	if err := page.Navigate(ctx, pageURL); err != nil {
		return nil, models.NewCaptureError(models.ErrCodeNavigation, fmt.Sprintf("navigation to %s failed", pageURL), err)
	}

	pageHeight, err := measureHeight(ctx, page)
	if err != nil {
		return nil, wrapRecording(err, "failed to measure page height")
	}

	steps, err := runChoreography(ctx, page, pageHeight, o)
	if err != nil {
		return nil, err
	}

	// The recorder releases the file path only once the page is closed;
	// closing the context afterwards flushes the recording to disk.
	s.closePage()
	path, pathErr := page.VideoPath()
	s.closeContext()
	if pathErr != nil {
		return nil, wrapRecording(pathErr, "recording finished without a video file")
	}

	return &models.RecordResult{
		Path:        path,
		Format:      "webm",
		DurationMs:  time.Since(s.start).Milliseconds(),
		ScrollSteps: steps,
		PageHeight:  int(pageHeight),
	}, nil
}

// runChoreography executes the scripted scroll sequence and returns the
// number of scroll steps used per direction (zero for short pages).
func runChoreography(ctx context.Context, page RecordingPage, pageHeight float64, o *Options) (int, error) {
	viewportHeight := float64(o.Height)
	scrollDistance := math.Max(0, pageHeight-viewportHeight)

	if err := scrollTo(ctx, page, 0); err != nil {
		return 0, wrapRecording(err, "failed to reset scroll position")
	}
	if err := pause(ctx, o.HoldTop); err != nil {
		return 0, err
	}

	if scrollDistance <= 0 {
		// Nothing to scroll: keep recording for the remaining budget.
		if err := pause(ctx, o.Duration-o.HoldTop); err != nil {
			return 0, err
		}
		return 0, nil
	}

	steps := int(math.Ceil(scrollDistance / (viewportHeight * 0.5)))
	if steps > o.MaxSteps {
		steps = o.MaxSteps
	}
	scrollBudget := o.Duration - o.HoldTop - o.HoldBottom
	stepDelay := scrollBudget / time.Duration(2*steps)
	if stepDelay < o.MinStepDelay {
		stepDelay = o.MinStepDelay
	}
	stepSize := scrollDistance / float64(steps)

	for i := 1; i <= steps; i++ {
		if err := scrollTo(ctx, page, stepSize*float64(i)); err != nil {
			return 0, wrapRecording(err, "scroll step failed")
		}
		if err := pause(ctx, stepDelay); err != nil {
			return 0, err
		}
	}
	if err := pause(ctx, o.HoldBottom); err != nil {
		return 0, err
	}
	for i := steps - 1; i >= 0; i-- {
		if err := scrollTo(ctx, page, stepSize*float64(i)); err != nil {
			return 0, wrapRecording(err, "scroll step failed")
		}
		if err := pause(ctx, stepDelay); err != nil {
			return 0, err
		}
	}
	if err := pause(ctx, o.HoldTop); err != nil {
		return 0, err
	}
	return steps, nil
}

func measureHeight(ctx context.Context, page RecordingPage) (float64, error) {
	res, err := page.Eval(ctx, pageHeightJS)
	if err != nil {
		return 0, err
	}
	var height float64
	if err := json.Unmarshal([]byte(res.Str()), &height); err != nil {
		return 0, fmt.Errorf("unexpected page height payload %q: %w", res.Str(), err)
	}
	return height, nil
}

func scrollTo(ctx context.Context, page RecordingPage, top float64) error {
	js := fmt.Sprintf(`() => { window.scrollTo({ top: %.0f, left: 0, behavior: 'instant' }); }`, top)
	_, err := page.Eval(ctx, js)
	return err
}

// pause sleeps for d without holding up cancellation.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return models.NewCaptureError(models.ErrCodeTimeout, "recording cancelled", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// wrapRecording keeps already-typed errors intact and tags everything else
// as a recording failure.
func wrapRecording(err error, message string) error {
	if _, ok := err.(*models.CaptureError); ok {
		return err
	}
	return models.NewCaptureError(models.ErrCodeRecordingFailed, message, err)
}

const pageHeightJS = `() => JSON.stringify(Math.max(
	document.body ? document.body.scrollHeight : 0,
	document.documentElement ? document.documentElement.scrollHeight : 0
))`
