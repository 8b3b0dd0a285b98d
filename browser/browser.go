// Package browser bundles the rod-backed page collaborators: browser
// launch and lifecycle, a health-tracked capture page pool, hygiene
// (tracker blocking, consent overlay removal) and recording contexts
// for scroll videos.
package browser

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/sitelens/sitelens/config"
	"github.com/sitelens/sitelens/models"
)

// Browser owns the headless Chrome process and the capture page pool.
// It is safe for concurrent use.
type Browser struct {
	browser    *rod.Browser
	pool       *Pool
	browserCfg config.BrowserConfig
	captureCfg config.CaptureConfig
	startTime  time.Time
}

// New launches a headless browser, connects to it and warms the capture
// page pool.
func New(cfg *config.Config) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Browser.Headless).
		NoSandbox(cfg.Browser.NoSandbox)

	if cfg.Browser.BrowserBin != "" {
		l = l.Bin(cfg.Browser.BrowserBin)
	}
	if cfg.Browser.DefaultProxy != "" {
		l = l.Proxy(cfg.Browser.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewCaptureError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewCaptureError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	b := &Browser{
		browser:    browser,
		browserCfg: cfg.Browser,
		captureCfg: cfg.Capture,
		startTime:  time.Now(),
	}
	b.pool = newPool(cfg.Pool, b.newCapturePage, func(p *Page) { p.close() })
	slog.Info("capture page pool ready",
		"minPages", cfg.Pool.MinPages, "hardMax", cfg.Pool.HardMax)

	return b, nil
}

// AcquirePage checks a warm capture page out of the pool.
func (b *Browser) AcquirePage(ctx context.Context) (*Page, error) {
	return b.pool.Get(ctx)
}

// ReleasePage returns a capture page to the pool. Pass success=false when
// the capture failed so the pool can track page health.
func (b *Browser) ReleasePage(p *Page, success bool) {
	b.pool.Put(p, success)
}

// Stats returns a snapshot of the page pool's current state.
func (b *Browser) Stats() models.PoolStats {
	return b.pool.Stats()
}

// Connected reports whether the CDP connection is still alive. It probes
// the browser with a version call instead of trusting cached state.
func (b *Browser) Connected() bool {
	_, err := proto.BrowserGetVersion{}.Call(b.browser.Timeout(2 * time.Second))
	return err == nil
}

// Uptime reports how long the browser has been running.
func (b *Browser) Uptime() time.Duration {
	return time.Since(b.startTime)
}

// Close drains the page pool and kills the browser process. Call this on
// graceful shutdown to prevent zombie Chrome processes.
func (b *Browser) Close() {
	slog.Info("browser shutting down: draining page pool")
	b.pool.Stop()
	slog.Info("browser shutting down: closing browser")
	b.browser.MustClose()
	slog.Info("browser shutdown complete")
}
