package discover

import (
	"context"
	"net/url"
	"strings"

	"github.com/sitelens/sitelens/models"
)

// next reads Next.js route information from the client build manifest and
// the hydration payload. Pages-router sites expose every static route in
// __BUILD_MANIFEST.sortedPages; app-router sites usually expose only the
// current page, so the anchor scrape fills the gaps.
type next struct {
	base
}

func newNext(page Page, baseURL *url.URL, opts *Options) Discoverer {
	return &next{base: newBase(page, baseURL, opts)}
}

func (n *next) Name() string { return "next" }

func (n *next) Discover(ctx context.Context) ([]models.RouteRecord, error) {
	records := n.manifestRoutes(ctx)
	records = append(records, n.scrapeAnchors(ctx)...)
	return Deduplicate(records), ctx.Err()
}

func (n *next) manifestRoutes(ctx context.Context) []models.RouteRecord {
	raw := n.pathsFromEval(ctx, nextRoutesJS, models.SourceFramework, "next")
	out := raw[:0]
	for _, rec := range raw {
		if isNextInternal(rec.Path) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// isNextInternal filters framework-private entries that are not user-facing
// pages.
func isNextInternal(path string) bool {
	switch path {
	case "/_app", "/_error", "/_document", "/_middleware":
		return true
	}
	return strings.HasPrefix(path, "/api/") || path == "/api" || strings.HasPrefix(path, "/_next")
}

const nextRoutesJS = `() => {
	const routes = [];
	const manifest = window.__BUILD_MANIFEST;
	if (manifest && Array.isArray(manifest.sortedPages)) {
		for (const p of manifest.sortedPages) routes.push(p);
	}
	const data = window.__NEXT_DATA__;
	if (data && data.page) routes.push(data.page);
	return JSON.stringify(routes);
}`
