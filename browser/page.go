package browser

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/sitelens/sitelens/models"
	"github.com/sitelens/sitelens/video"
)

// Page is a pooled capture page. It carries the health metadata the pool
// uses to decide when the underlying tab should be retired.
type Page struct {
	rod    *rod.Page
	owner  *Browser
	router *rod.HijackRouter

	currentURL string

	mu       sync.Mutex
	errScore float64
	useCount int
	created  time.Time
}

// newCapturePage creates a stealth tab with hygiene mounted and the
// default capture viewport applied.
func (b *Browser) newCapturePage() (*Page, error) {
	rp, err := stealth.Page(b.browser)
	if err != nil {
		return nil, err
	}
	p := &Page{rod: rp, owner: b, created: time.Now()}

	if b.captureCfg.BlockTrackers {
		p.router = mountHygiene(rp)
	}
	if err := p.SetViewport(b.captureCfg.ViewportWidth, b.captureCfg.ViewportHeight); err != nil {
		slog.Warn("failed to apply default viewport", "error", err)
	}
	return p, nil
}

// SetViewport resizes the page's emulated viewport.
func (p *Page) SetViewport(width, height int) error {
	return p.rod.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

// Navigate loads the target URL and waits for the DOM to settle.
//
// Order matters: stealth JS and the hygiene router are installed at page
// creation so they apply to this navigation; consent overlay removal runs
// after the DOM settles so late-mounting banners are caught too.
func (p *Page) Navigate(ctx context.Context, target string) error {
	navCtx, cancel := context.WithTimeout(ctx, p.owner.captureCfg.NavigationTimeout)
	defer cancel()

	p.applyReferer(target)

	if err := p.rod.Context(navCtx).Navigate(target); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}
	p.currentURL = target

	stableCtx, cancelStable := context.WithTimeout(ctx, p.owner.captureCfg.StableTimeout)
	defer cancelStable()
	if err := p.rod.Context(stableCtx).WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}

	if p.owner.captureCfg.RemoveOverlays {
		removeConsentOverlays(p.rod.Context(ctx))
	}

	if final := p.evalStringOrEmpty(ctx, `() => window.location.href`); final != "" {
		p.currentURL = final
	}
	return nil
}

// Eval runs a JS function on the page and returns its value.
func (p *Page) Eval(ctx context.Context, js string) (gson.JSON, error) {
	res, err := p.rod.Context(ctx).Eval(js)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

// HTML returns the rendered document markup.
func (p *Page) HTML(ctx context.Context) (string, error) {
	html, err := p.rod.Context(ctx).HTML()
	if err != nil {
		return "", categorizeError(err, "failed to extract page HTML")
	}
	return html, nil
}

// URL reports the page's current address, following any redirects that
// happened during the last navigation.
func (p *Page) URL() string {
	return p.currentURL
}

// Browser exposes the owning browser as a recording-context factory so a
// capture page can be handed to the video pipeline directly.
func (p *Page) Browser() video.Browser {
	return p.owner
}

// FullPageScreenshot captures the entire scrollable page as a PNG.
func (p *Page) FullPageScreenshot(ctx context.Context, path string) error {
	data, err := p.rod.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return models.NewCaptureError(models.ErrCodeScreenshotFailed, "full page screenshot failed", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return models.NewCaptureError(models.ErrCodeScreenshotFailed, "failed to write screenshot", err)
	}
	return nil
}

// reset parks the page on about:blank so the pool can hand it out again
// without leaking the previous page's DOM.
func (p *Page) reset() {
	if err := p.rod.Navigate("about:blank"); err != nil {
		slog.Warn("cleanup: failed to navigate to about:blank", "error", err)
	}
	p.currentURL = ""
}

func (p *Page) close() {
	if p.router != nil {
		_ = p.router.Stop()
	}
	_ = p.rod.Close()
}

// applyReferer makes the visit look like it came from a search result,
// unless the caller set nothing to hide.
func (p *Page) applyReferer(target string) {
	u, err := url.Parse(target)
	if err != nil {
		return
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{
			"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
		},
	}.Call(p.rod)
}

func (p *Page) evalStringOrEmpty(ctx context.Context, js string) string {
	res, err := p.rod.Context(ctx).Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// recordSuccess decreases the error score (min 0).
func (p *Page) recordSuccess() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.useCount++
	if p.errScore > 0.5 {
		p.errScore -= 0.5
	} else {
		p.errScore = 0
	}
}

// recordFailure increases the error score.
func (p *Page) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.useCount++
	p.errScore += 1.0
}

// shouldRetire reports whether the page has degraded past the point of
// reuse: too many errors, too many captures, or too old.
func (p *Page) shouldRetire(maxUses int, maxAge time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.errScore >= 3.0 {
		return true
	}
	if maxUses > 0 && p.useCount >= maxUses {
		return true
	}
	if maxAge > 0 && time.Since(p.created) >= maxAge {
		return true
	}
	return false
}

// categorizeError wraps raw errors into typed CaptureErrors so the API
// layer can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.CaptureError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewCaptureError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewCaptureError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewCaptureError(models.ErrCodeNavigation, msg, err)
	}
}
