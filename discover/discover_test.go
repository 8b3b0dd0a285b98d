package discover

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ysmood/gson"

	"github.com/sitelens/sitelens/models"
)

// fakePage satisfies Page without a browser.
type fakePage struct {
	url     string
	html    string
	htmlErr error
	eval    func(js string) (gson.JSON, error)
}

func (p *fakePage) Eval(_ context.Context, js string) (gson.JSON, error) {
	if p.eval != nil {
		return p.eval(js)
	}
	return gson.New(nil), errors.New("eval unavailable")
}

func (p *fakePage) HTML(context.Context) (string, error) { return p.html, p.htmlErr }

func (p *fakePage) URL() string { return p.url }

// fakeFetcher serves canned documents by URL.
type fakeFetcher struct {
	docs map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, target string) ([]byte, error) {
	if doc, ok := f.docs[target]; ok {
		return []byte(doc), nil
	}
	return nil, errors.New("not found")
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func testOptions() *Options {
	o := &Options{
		Fetcher:     &fakeFetcher{},
		SettleDelay: time.Millisecond,
	}
	return o
}

func TestStrategyFor_NeverNil(t *testing.T) {
	for _, fw := range []string{"", "next", "NEXT", "nextjs", "nuxt", "vue", "react", "angular", "svelte", "sveltekit", "astro", "ember", "no-such-framework", "🦊"} {
		t.Run("fw="+fw, func(t *testing.T) {
			factory := StrategyFor(fw)
			if factory == nil {
				t.Fatalf("StrategyFor(%q) returned nil factory", fw)
			}
			d := factory(&fakePage{url: "https://example.com"}, mustParse(t, "https://example.com"), testOptions())
			if d == nil {
				t.Fatalf("factory for %q built nil discoverer", fw)
			}
			if d.Name() == "" {
				t.Errorf("discoverer for %q has empty name", fw)
			}
		})
	}
}

func TestStrategyFor_UnknownFallsBackToUniversal(t *testing.T) {
	d := New("solid", &fakePage{}, mustParse(t, "https://example.com"), testOptions())
	if d.Name() != "universal" {
		t.Errorf("unknown framework resolved to %q, want universal", d.Name())
	}
}

func TestStrategyFor_Aliases(t *testing.T) {
	tests := []struct {
		alias string
		want  string
	}{
		{"nextjs", "next"},
		{"Next.js", "next"},
		{"sveltekit", "svelte"},
		{"remix", "react"},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			d := New(tt.alias, &fakePage{}, mustParse(t, "https://example.com"), testOptions())
			if d.Name() != tt.want {
				t.Errorf("alias %q resolved to %q, want %q", tt.alias, d.Name(), tt.want)
			}
		})
	}
}

const universalTestHTML = `<html><body>
	<nav>
		<a href="/pricing">Pricing</a>
		<a href="/about">About</a>
		<a href="/about/">About (dupe)</a>
		<a href="https://other.example.net/external">External</a>
		<a href="mailto:hi@example.com">Mail</a>
		<a href="/logo.png">Logo</a>
		<a href="#top">Top</a>
	</nav>
</body></html>`

func universalTestPage() *fakePage {
	return &fakePage{
		url:  "https://example.com/",
		html: universalTestHTML,
		eval: func(js string) (gson.JSON, error) {
			if strings.Contains(js, "JSON.stringify(window.__sitelensRoutes") {
				return gson.New(`["/", "/dashboard"]`), nil
			}
			return gson.New(true), nil
		},
	}
}

func TestUniversal_MergesAllSources(t *testing.T) {
	opts := testOptions()
	opts.Fetcher = &fakeFetcher{docs: map[string]string{
		"https://example.com/sitemap.xml": `<?xml version="1.0"?>
			<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
				<url><loc>https://example.com/about</loc></url>
				<url><loc>https://example.com/blog/post-1</loc></url>
				<url><loc>https://cdn.example.net/asset</loc></url>
			</urlset>`,
	}}

	d := newUniversal(universalTestPage(), mustParse(t, "https://example.com"), opts)
	records, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}

	byPath := make(map[string]models.RouteRecord)
	for _, r := range records {
		if _, dup := byPath[r.Path]; dup {
			t.Errorf("duplicate path in result: %q", r.Path)
		}
		byPath[r.Path] = r
	}

	for _, want := range []string{"/", "/dashboard", "/about", "/blog/post-1", "/pricing"} {
		if _, ok := byPath[want]; !ok {
			t.Errorf("missing expected route %q in %v", want, records)
		}
	}

	if _, ok := byPath["/external"]; ok {
		t.Error("cross-host link should not produce a route")
	}
	if _, ok := byPath["/logo.png"]; ok {
		t.Error("asset link should not produce a route")
	}

	// /about is found by both sitemap and the anchor scrape; sitemap wins.
	if got := byPath["/about"].Source; got != models.SourceSitemap {
		t.Errorf("/about source = %q, want sitemap", got)
	}
	if got := byPath["/dashboard"].Source; got != models.SourceHistory {
		t.Errorf("/dashboard source = %q, want history", got)
	}
	if got := byPath["/pricing"].Source; got != models.SourceLinkScrape {
		t.Errorf("/pricing source = %q, want link-scrape", got)
	}
	if got := byPath["/pricing"].Name; got != "Pricing" {
		t.Errorf("/pricing name = %q, want anchor text", got)
	}
}

func TestUniversal_SurvivesFailingSources(t *testing.T) {
	page := &fakePage{
		url:     "https://example.com/",
		htmlErr: errors.New("page gone"),
		eval: func(string) (gson.JSON, error) {
			return gson.New(nil), errors.New("eval blocked")
		},
	}

	d := newUniversal(page, mustParse(t, "https://example.com"), testOptions())
	records, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("all-sources failure must not error, got: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty result when every source fails, got %v", records)
	}
}

func TestNext_FiltersInternalEntries(t *testing.T) {
	page := &fakePage{
		url:  "https://example.com/",
		html: `<html><body></body></html>`,
		eval: func(js string) (gson.JSON, error) {
			return gson.New(`["/", "/about", "/_app", "/_error", "/api/users", "/posts/[id]"]`), nil
		},
	}

	d := New("next", page, mustParse(t, "https://example.com"), testOptions())
	records, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}

	paths := make(map[string]models.RouteRecord)
	for _, r := range records {
		paths[r.Path] = r
	}
	for _, banned := range []string{"/_app", "/_error", "/api/users"} {
		if _, ok := paths[banned]; ok {
			t.Errorf("internal entry %q leaked into routes", banned)
		}
	}
	dyn, ok := paths["/posts/[id]"]
	if !ok {
		t.Fatalf("manifest route /posts/[id] missing from %v", records)
	}
	if !dyn.Dynamic {
		t.Error("/posts/[id] should be flagged dynamic")
	}
	if dyn.Source != models.SourceFramework {
		t.Errorf("/posts/[id] source = %q, want framework", dyn.Source)
	}
}

func TestFrameworkStrategy_FallsBackToAnchors(t *testing.T) {
	page := &fakePage{
		url:  "https://example.com/",
		html: `<html><body><a href="/contact">Contact</a></body></html>`,
		eval: func(string) (gson.JSON, error) {
			return gson.New(nil), errors.New("execution context destroyed")
		},
	}

	d := New("vue", page, mustParse(t, "https://example.com"), testOptions())
	records, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("eval failure must not abort discovery: %v", err)
	}
	if len(records) != 1 || records[0].Path != "/contact" {
		t.Fatalf("expected anchor fallback route /contact, got %v", records)
	}
	if records[0].Source != models.SourceLinkScrape {
		t.Errorf("fallback source = %q, want link-scrape", records[0].Source)
	}
}

func TestRoutes_InvalidInput(t *testing.T) {
	t.Run("nil page", func(t *testing.T) {
		_, err := Routes(context.Background(), nil, "https://example.com", nil)
		var ce *models.CaptureError
		if !errors.As(err, &ce) || ce.Code != models.ErrCodeInvalidInput {
			t.Fatalf("expected INVALID_INPUT error, got %v", err)
		}
	})

	t.Run("relative base URL", func(t *testing.T) {
		_, err := Routes(context.Background(), &fakePage{}, "/not-absolute", testOptions())
		var ce *models.CaptureError
		if !errors.As(err, &ce) || ce.Code != models.ErrCodeInvalidInput {
			t.Fatalf("expected INVALID_INPUT error, got %v", err)
		}
	})
}

func TestRoutes_ForcedFramework(t *testing.T) {
	page := universalTestPage()
	opts := testOptions()
	opts.Framework = "angular"
	opts.Detect = func(context.Context) (string, models.DetectResult, error) {
		t.Fatal("Detect must not run when a framework is forced")
		return "", nil, nil
	}

	res, err := Routes(context.Background(), page, "https://example.com", opts)
	if err != nil {
		t.Fatalf("Routes returned error: %v", err)
	}
	if res.Discoverer != "angular" {
		t.Errorf("discoverer = %q, want angular", res.Discoverer)
	}
	if res.Framework != "angular" {
		t.Errorf("framework = %q, want angular", res.Framework)
	}
}

func TestRoutes_DetectionFailureFallsBack(t *testing.T) {
	page := universalTestPage()
	opts := testOptions()
	opts.Detect = func(context.Context) (string, models.DetectResult, error) {
		return "", nil, errors.New("detector crashed")
	}

	res, err := Routes(context.Background(), page, "https://example.com", opts)
	if err != nil {
		t.Fatalf("detection failure must not abort discovery: %v", err)
	}
	if res.Discoverer != "universal" {
		t.Errorf("discoverer = %q, want universal", res.Discoverer)
	}
	if res.Framework != "unknown" {
		t.Errorf("framework = %q, want unknown", res.Framework)
	}
	if len(res.Routes) == 0 {
		t.Error("expected routes from the universal fallback")
	}
}

func TestRoutes_MaxRoutesCap(t *testing.T) {
	page := universalTestPage()
	opts := testOptions()
	opts.MaxRoutes = 2

	res, err := Routes(context.Background(), page, "https://example.com", opts)
	if err != nil {
		t.Fatalf("Routes returned error: %v", err)
	}
	if len(res.Routes) != 2 {
		t.Errorf("expected cap of 2 routes, got %d", len(res.Routes))
	}
}
