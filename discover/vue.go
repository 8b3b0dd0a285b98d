package discover

import (
	"context"
	"net/url"

	"github.com/sitelens/sitelens/models"
)

// vue reads route tables from Vue Router. Vue 3 apps expose the router via
// __vue_app__ on the mount element; Vue 2 apps via the __vue__ instance.
type vue struct {
	base
}

func newVue(page Page, baseURL *url.URL, opts *Options) Discoverer {
	return &vue{base: newBase(page, baseURL, opts)}
}

func (v *vue) Name() string { return "vue" }

func (v *vue) Discover(ctx context.Context) ([]models.RouteRecord, error) {
	records := v.namedRoutesFromEval(ctx, vueRoutesJS, models.SourceFramework, "vue")
	records = append(records, v.scrapeAnchors(ctx)...)
	return Deduplicate(records), ctx.Err()
}

const vueRoutesJS = `() => {
	const out = [];
	const candidates = document.querySelectorAll('[data-v-app], #app, #__vue, body > div');
	for (const el of candidates) {
		const app = el.__vue_app__;
		if (app && app.config && app.config.globalProperties && app.config.globalProperties.$router) {
			const router = app.config.globalProperties.$router;
			if (typeof router.getRoutes === 'function') {
				for (const r of router.getRoutes()) out.push({ path: r.path, name: typeof r.name === 'string' ? r.name : '' });
				return JSON.stringify(out);
			}
		}
		const vm = el.__vue__;
		if (vm && vm.$router && vm.$router.options && Array.isArray(vm.$router.options.routes)) {
			for (const r of vm.$router.options.routes) out.push({ path: r.path, name: r.name || '' });
			return JSON.stringify(out);
		}
	}
	return JSON.stringify(out);
}`
