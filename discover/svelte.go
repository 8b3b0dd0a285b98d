package discover

import (
	"context"
	"net/url"

	"github.com/sitelens/sitelens/models"
)

// svelte scrapes SvelteKit's preload-annotated anchors. SvelteKit does not
// ship a route manifest to the client, but its data-sveltekit-* attributes
// mark anchors the router owns, which is a stronger signal than a plain
// link scrape.
type svelte struct {
	base
}

func newSvelte(page Page, baseURL *url.URL, opts *Options) Discoverer {
	return &svelte{base: newBase(page, baseURL, opts)}
}

func (s *svelte) Name() string { return "svelte" }

func (s *svelte) Discover(ctx context.Context) ([]models.RouteRecord, error) {
	records := s.pathsFromEval(ctx, svelteRoutesJS, models.SourceFramework, "svelte")
	records = append(records, s.scrapeAnchors(ctx)...)
	return Deduplicate(records), ctx.Err()
}

const svelteRoutesJS = `() => {
	const out = [];
	const selector = 'a[data-sveltekit-preload-data], a[data-sveltekit-preload-code], a[data-sveltekit-reload]';
	for (const el of document.querySelectorAll(selector)) {
		const href = el.getAttribute('href');
		if (href && href.startsWith('/')) out.push(href);
	}
	const root = document.querySelector('[data-sveltekit-preload-data]');
	if (root && root !== document.body) {
		for (const el of root.querySelectorAll('a[href]')) {
			const href = el.getAttribute('href');
			if (href && href.startsWith('/')) out.push(href);
		}
	}
	return JSON.stringify(out);
}`
