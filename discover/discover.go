// Package discover finds the navigable routes of a website. A framework
// identifier selects a discovery strategy that reads the framework's route
// manifest or router state from the live page; unknown or undetected
// frameworks fall back to a universal strategy that merges History API
// interception, sitemap parsing and same-host link scraping.
package discover

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ysmood/gson"

	"github.com/sitelens/sitelens/models"
)

// Page is the browser page handle a strategy reads from. The page is
// expected to be navigated to the target site already.
type Page interface {
	// Eval runs a JavaScript function expression in the page and returns
	// its JSON-serializable result.
	Eval(ctx context.Context, js string) (gson.JSON, error)

	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)

	// URL returns the page's current location.
	URL() string
}

// DetectFunc resolves the framework when none is forced. It returns the
// framework identifier (empty when inconclusive) and the raw evidence.
type DetectFunc func(ctx context.Context) (string, models.DetectResult, error)

// Options tunes a discovery run. The zero value is usable.
type Options struct {
	// Framework forces a strategy instead of detecting one. Unknown
	// values select the universal strategy.
	Framework string

	// Detect resolves the framework when Framework is empty. Detection
	// failure downgrades to the universal strategy, never aborts.
	Detect DetectFunc

	// Fetcher retrieves sitemap and robots.txt documents. Defaults to a
	// Chrome-fingerprint HTTP client.
	Fetcher Fetcher

	// SettleDelay is how long the history shim collects client-side
	// navigations before being read. Default: 500ms.
	SettleDelay time.Duration

	// MaxRoutes caps the returned routes. Zero means no cap.
	MaxRoutes int
}

func (o *Options) defaults() {
	if o.Fetcher == nil {
		o.Fetcher = NewFetcher("")
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = 500 * time.Millisecond
	}
}

// Result is the outcome of a discovery run.
type Result struct {
	// Routes is the deduplicated route list in first-seen order.
	Routes []models.RouteRecord

	// Framework is the forced or detected identifier, "unknown" when
	// discovery ran without one.
	Framework string

	// Discoverer names the strategy that produced the routes.
	Discoverer string

	// Detection carries the per-framework evidence when detection ran.
	Detection models.DetectResult
}

// Discoverer is a route discovery strategy bound to a page.
type Discoverer interface {
	Name() string
	Discover(ctx context.Context) ([]models.RouteRecord, error)
}

// Factory builds a strategy for one page and base URL.
type Factory func(page Page, baseURL *url.URL, opts *Options) Discoverer

var strategies = map[string]Factory{
	"next":    newNext,
	"nuxt":    newNuxt,
	"vue":     newVue,
	"react":   newReact,
	"angular": newAngular,
	"svelte":  newSvelte,
	"astro":   newAstro,
}

// aliases maps common spellings onto canonical framework identifiers.
var aliases = map[string]string{
	"nextjs":    "next",
	"next.js":   "next",
	"nuxtjs":    "nuxt",
	"nuxt.js":   "nuxt",
	"vuejs":     "vue",
	"vue.js":    "vue",
	"reactjs":   "react",
	"remix":     "react",
	"sveltekit": "svelte",
	"astrojs":   "astro",
}

// StrategyFor returns the factory registered for a framework identifier.
// Unknown, empty or aliased identifiers resolve without error; the
// universal factory is the fallback for anything unrecognized.
func StrategyFor(framework string) Factory {
	key := strings.ToLower(strings.TrimSpace(framework))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	if f, ok := strategies[key]; ok {
		return f
	}
	return newUniversal
}

// New instantiates the strategy for a framework identifier.
func New(framework string, page Page, baseURL *url.URL, opts *Options) Discoverer {
	return StrategyFor(framework)(page, baseURL, opts)
}

// Routes discovers the site's routes. The page must already be navigated
// to baseURL. Individual source failures degrade to smaller results; only
// invalid input or context expiry produce an error.
func Routes(ctx context.Context, page Page, baseURL string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	opts.defaults()

	if page == nil {
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput, "page handle is required", nil)
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput, "base URL must be absolute", err)
	}

	framework := strings.ToLower(strings.TrimSpace(opts.Framework))
	var evidence models.DetectResult
	if framework == "" && opts.Detect != nil {
		fw, ev, derr := opts.Detect(ctx)
		if derr != nil {
			slog.Debug("framework detection failed, falling back to universal",
				"url", baseURL, "error", derr)
		} else {
			framework = fw
			evidence = ev
		}
	}

	d := New(framework, page, parsed, opts)
	records, err := d.Discover(ctx)
	if err != nil {
		return nil, err
	}

	records = Deduplicate(records)
	if opts.MaxRoutes > 0 && len(records) > opts.MaxRoutes {
		records = records[:opts.MaxRoutes]
	}

	name := framework
	if name == "" {
		name = "unknown"
	}
	slog.Debug("route discovery finished",
		"url", baseURL, "framework", name, "discoverer", d.Name(), "routes", len(records))

	return &Result{
		Routes:     records,
		Framework:  name,
		Discoverer: d.Name(),
		Detection:  evidence,
	}, nil
}
