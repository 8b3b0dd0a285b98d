package discover

import (
	"context"
	"net/url"

	"github.com/sitelens/sitelens/models"
)

// nuxt reads the Vue Router state that Nuxt exposes on its root instance.
// Nuxt 2 mounts the router at window.$nuxt; Nuxt 3 only leaves the
// hydration payload behind, which names the current route.
type nuxt struct {
	base
}

func newNuxt(page Page, baseURL *url.URL, opts *Options) Discoverer {
	return &nuxt{base: newBase(page, baseURL, opts)}
}

func (n *nuxt) Name() string { return "nuxt" }

func (n *nuxt) Discover(ctx context.Context) ([]models.RouteRecord, error) {
	records := n.namedRoutesFromEval(ctx, nuxtRoutesJS, models.SourceFramework, "nuxt")
	records = append(records, n.scrapeAnchors(ctx)...)
	return Deduplicate(records), ctx.Err()
}

const nuxtRoutesJS = `() => {
	const out = [];
	const nuxt = window.$nuxt;
	if (nuxt && nuxt.$router) {
		const router = nuxt.$router;
		if (typeof router.getRoutes === 'function') {
			for (const r of router.getRoutes()) out.push({ path: r.path, name: typeof r.name === 'string' ? r.name : '' });
			return JSON.stringify(out);
		}
		if (router.options && Array.isArray(router.options.routes)) {
			for (const r of router.options.routes) out.push({ path: r.path, name: r.name || '' });
			return JSON.stringify(out);
		}
	}
	const payload = window.__NUXT__;
	if (payload) {
		if (payload.routePath) out.push({ path: payload.routePath, name: '' });
		if (payload.route && payload.route.path) out.push({ path: payload.route.path, name: payload.route.name || '' });
	}
	return JSON.stringify(out);
}`
