package discover

import (
	"context"
	"net/url"

	"github.com/sitelens/sitelens/models"
)

// astro handles Astro's static output. There is no client router to read,
// but Astro sites almost always ship a sitemap, so that source leads and
// the anchor scrape supplements it.
type astro struct {
	base
}

func newAstro(page Page, baseURL *url.URL, opts *Options) Discoverer {
	return &astro{base: newBase(page, baseURL, opts)}
}

func (a *astro) Name() string { return "astro" }

func (a *astro) Discover(ctx context.Context) ([]models.RouteRecord, error) {
	records := a.sitemapRoutes(ctx)
	if err := ctx.Err(); err != nil {
		return Deduplicate(records), err
	}
	records = append(records, a.scrapeAnchors(ctx)...)
	return Deduplicate(records), ctx.Err()
}
