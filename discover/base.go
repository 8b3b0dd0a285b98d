package discover

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sitelens/sitelens/models"
)

// base carries the page binding and helpers shared by all strategies.
type base struct {
	page    Page
	baseURL *url.URL
	opts    *Options
}

func newBase(page Page, baseURL *url.URL, opts *Options) base {
	return base{page: page, baseURL: baseURL, opts: opts}
}

// assetExtensions are path suffixes that denote files, not routes.
var assetExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico",
	".css", ".js", ".mjs", ".map", ".json", ".xml", ".txt",
	".pdf", ".zip", ".woff", ".woff2", ".ttf", ".mp4", ".webm",
}

func isAssetPath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range assetExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// record builds a RouteRecord from a raw path. Asset paths and empty
// input are rejected.
func (b *base) record(path, name string, source models.RouteSource) (models.RouteRecord, bool) {
	path = NormalizeRoute(path)
	if path == "" || isAssetPath(path) {
		return models.RouteRecord{}, false
	}
	if name == "" {
		name = ExtractPageName(path, "")
	}
	return models.RouteRecord{
		Path:    path,
		Name:    name,
		Source:  source,
		Dynamic: IsDynamicRoute(path),
	}, true
}

// scrapeAnchors extracts same-host anchor targets from the rendered
// document. Failures degrade to an empty result.
func (b *base) scrapeAnchors(ctx context.Context) []models.RouteRecord {
	raw, err := b.page.HTML(ctx)
	if err != nil {
		slog.Debug("anchor scrape: reading page HTML failed", "url", b.page.URL(), "error", err)
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		slog.Debug("anchor scrape: parsing page HTML failed", "url", b.page.URL(), "error", err)
		return nil
	}

	var out []models.RouteRecord
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if rec, ok := b.anchorRecord(href, strings.TrimSpace(s.Text())); ok {
			out = append(out, rec)
		}
	})
	return out
}

// anchorRecord resolves one href against the base URL and keeps it only
// when it points at a page on the same host.
func (b *base) anchorRecord(href, text string) (models.RouteRecord, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return models.RouteRecord{}, false
	}
	lower := strings.ToLower(href)
	for _, scheme := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return models.RouteRecord{}, false
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return models.RouteRecord{}, false
	}
	abs := b.baseURL.ResolveReference(ref)
	if abs.Host != b.baseURL.Host {
		return models.RouteRecord{}, false
	}

	// Long anchor texts are layout noise, not page names.
	name := text
	if len(name) > 60 {
		name = ""
	}
	return b.record(abs.Path, name, models.SourceLinkScrape)
}

// Strategy JS returns JSON.stringify-ed payloads; parsing them here with
// encoding/json keeps the wire shape explicit.

// pathsFromEval runs JS returning a stringified string array and converts
// it into records.
func (b *base) pathsFromEval(ctx context.Context, js string, source models.RouteSource, strategy string) []models.RouteRecord {
	res, err := b.page.Eval(ctx, js)
	if err != nil {
		slog.Debug("route evaluation failed", "strategy", strategy, "error", err)
		return nil
	}
	var paths []string
	if err := json.Unmarshal([]byte(res.Str()), &paths); err != nil {
		slog.Debug("route evaluation returned malformed payload", "strategy", strategy, "error", err)
		return nil
	}
	var out []models.RouteRecord
	for _, p := range paths {
		if rec, ok := b.record(p, "", source); ok {
			out = append(out, rec)
		}
	}
	return out
}

// routeHit is the wire shape framework strategies emit from the page.
type routeHit struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// namedRoutesFromEval runs JS returning a stringified {path, name} array
// and converts it into records.
func (b *base) namedRoutesFromEval(ctx context.Context, js string, source models.RouteSource, strategy string) []models.RouteRecord {
	res, err := b.page.Eval(ctx, js)
	if err != nil {
		slog.Debug("route evaluation failed", "strategy", strategy, "error", err)
		return nil
	}
	var hits []routeHit
	if err := json.Unmarshal([]byte(res.Str()), &hits); err != nil {
		slog.Debug("route evaluation returned malformed payload", "strategy", strategy, "error", err)
		return nil
	}
	var out []models.RouteRecord
	for _, h := range hits {
		name := strings.TrimSpace(h.Name)
		if name != "" {
			name = ExtractPageName(h.Path, name)
		}
		if rec, ok := b.record(h.Path, name, source); ok {
			out = append(out, rec)
		}
	}
	return out
}
