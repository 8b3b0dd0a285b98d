package discover

import (
	"context"
	"net/url"

	"github.com/sitelens/sitelens/models"
)

// react reads route tables from React meta-framework globals: the Remix
// route manifest and the React Router hydration payload. Plain React SPAs
// expose no route table at all, so the anchor scrape carries them.
type react struct {
	base
}

func newReact(page Page, baseURL *url.URL, opts *Options) Discoverer {
	return &react{base: newBase(page, baseURL, opts)}
}

func (r *react) Name() string { return "react" }

func (r *react) Discover(ctx context.Context) ([]models.RouteRecord, error) {
	records := r.namedRoutesFromEval(ctx, reactRoutesJS, models.SourceFramework, "react")
	records = append(records, r.scrapeAnchors(ctx)...)
	return Deduplicate(records), ctx.Err()
}

const reactRoutesJS = `() => {
	const out = [];
	const manifest = window.__remixManifest;
	if (manifest && manifest.routes) {
		for (const key of Object.keys(manifest.routes)) {
			const r = manifest.routes[key];
			if (typeof r.path === 'string' && r.path !== '') {
				out.push({ path: '/' + r.path.replace(/^\/+/, ''), name: '' });
			} else if (r.index) {
				out.push({ path: '/', name: '' });
			}
		}
		if (out.length > 0) return JSON.stringify(out);
	}
	const hydration = window.__staticRouterHydrationData;
	if (hydration && hydration.loaderData) {
		for (const key of Object.keys(hydration.loaderData)) {
			out.push({ path: key === 'root' || key === '0' ? '/' : key, name: '' });
		}
	}
	return JSON.stringify(out);
}`
