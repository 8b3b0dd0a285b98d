package discover

import (
	"context"
	"net/url"

	"github.com/sitelens/sitelens/models"
)

// angular scrapes routerLink bindings. Production Angular builds do not
// expose the route configuration, but routerLink attributes survive in the
// rendered DOM and map directly onto router paths.
type angular struct {
	base
}

func newAngular(page Page, baseURL *url.URL, opts *Options) Discoverer {
	return &angular{base: newBase(page, baseURL, opts)}
}

func (a *angular) Name() string { return "angular" }

func (a *angular) Discover(ctx context.Context) ([]models.RouteRecord, error) {
	records := a.namedRoutesFromEval(ctx, angularRoutesJS, models.SourceFramework, "angular")
	records = append(records, a.scrapeAnchors(ctx)...)
	return Deduplicate(records), ctx.Err()
}

const angularRoutesJS = `() => {
	const out = [];
	const seen = new Set();
	const add = (path, name) => {
		if (!path || seen.has(path)) return;
		seen.add(path);
		out.push({ path: path, name: name });
	};
	for (const el of document.querySelectorAll('[routerlink], [ng-reflect-router-link]')) {
		const v = el.getAttribute('routerlink') || el.getAttribute('ng-reflect-router-link');
		if (v && !v.startsWith('http')) add(v, (el.textContent || '').trim().slice(0, 60));
	}
	return JSON.stringify(out);
}`
