// Package detect identifies the frontend framework of a rendered page.
// One in-page evaluation probes the globals and DOM markers each major
// framework leaves behind and scores them, so route discovery can pick
// the strategy that reads that framework's router state.
package detect

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/ysmood/gson"

	"github.com/sitelens/sitelens/models"
)

// DefaultThreshold is the minimum accumulated weight a framework needs
// before Best prefers it over the universal fallback.
const DefaultThreshold = 0.5

// Page is the subset of a browser page detection needs.
type Page interface {
	Eval(ctx context.Context, js string) (gson.JSON, error)
}

// Detect probes the page for framework evidence. The page must already
// be navigated. Frameworks with no matching markers are absent from the
// result; an empty result means the page looks like plain HTML.
func Detect(ctx context.Context, page Page) (models.DetectResult, error) {
	if page == nil {
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput, "page is required for framework detection", nil)
	}

	res, err := page.Eval(ctx, probeJS)
	if err != nil {
		return nil, models.NewCaptureError(models.ErrCodeInternal, "framework probe failed", err)
	}

	var result models.DetectResult
	if err := json.Unmarshal([]byte(res.Str()), &result); err != nil {
		return nil, models.NewCaptureError(models.ErrCodeInternal, "framework probe returned malformed evidence", err)
	}

	slog.Debug("framework detection finished", "candidates", len(result))
	return result, nil
}

// Best picks the framework with the highest accumulated weight, or ""
// when no candidate clears the threshold. Ties break alphabetically so
// repeated runs agree. A threshold of zero or less uses the default.
func Best(result models.DetectResult, threshold float64) string {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	names := make([]string, 0, len(result))
	for name := range result {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	var bestWeight float64
	for _, name := range names {
		if w := result[name].Weight; w >= threshold && w > bestWeight {
			best = name
			bestWeight = w
		}
	}
	return best
}

// probeJS checks every framework's markers in one pass and returns the
// accumulated evidence as a JSON string. Each probe is individually
// guarded; a page can break one check without hiding the others.
const probeJS = `() => {
	const out = {};
	const add = (fw, weight, signal, version) => {
		const cur = out[fw] || { weight: 0, signals: [] };
		cur.weight = Math.round((cur.weight + weight) * 100) / 100;
		cur.signals.push(signal);
		if (version && !cur.version) cur.version = String(version);
		out[fw] = cur;
	};
	const has = (sel) => {
		try { return document.querySelector(sel) !== null; } catch (e) { return false; }
	};

	// Next.js
	if (window.__NEXT_DATA__) add('next', 0.9, 'window.__NEXT_DATA__');
	if (window.__BUILD_MANIFEST) add('next', 0.6, 'window.__BUILD_MANIFEST');
	if (has('script#__NEXT_DATA__')) add('next', 0.7, 'script#__NEXT_DATA__');
	if (has('div#__next')) add('next', 0.3, 'div#__next');
	try {
		if (window.next && window.next.version) add('next', 0.2, 'window.next.version', window.next.version);
	} catch (e) {}

	// Nuxt
	if (window.__NUXT__) add('nuxt', 0.9, 'window.__NUXT__');
	if (window.$nuxt) add('nuxt', 0.7, 'window.$nuxt');
	if (has('#__nuxt')) add('nuxt', 0.4, '#__nuxt');

	// Vue (Nuxt pages carry these too; weights keep Nuxt ahead there)
	try {
		const host = document.querySelector('[data-v-app]') || document.getElementById('app');
		if (host && host.__vue_app__) add('vue', 0.8, '__vue_app__', host.__vue_app__.version);
		else if (host && host.__vue__) add('vue', 0.7, '__vue__');
	} catch (e) {}
	if (window.Vue && window.Vue.version) add('vue', 0.6, 'window.Vue', window.Vue.version);
	if (has('[data-v-app]')) add('vue', 0.3, '[data-v-app]');

	// React (Remix is a React router with its own manifest global)
	if (window.__remixManifest) add('react', 0.8, 'window.__remixManifest');
	try {
		const hook = window.__REACT_DEVTOOLS_GLOBAL_HOOK__;
		if (hook && hook.renderers && hook.renderers.size > 0) add('react', 0.6, 'devtools renderers');
	} catch (e) {}
	if (has('[data-reactroot]')) add('react', 0.6, '[data-reactroot]');
	try {
		const root = document.getElementById('root') || document.getElementById('app');
		if (root && Object.keys(root).some(k =>
			k.startsWith('__reactContainer$') || k.startsWith('_reactRootContainer'))) {
			add('react', 0.7, 'react root container');
		}
	} catch (e) {}

	// Angular
	try {
		const versioned = document.querySelector('[ng-version]');
		if (versioned) add('angular', 0.9, '[ng-version]', versioned.getAttribute('ng-version'));
	} catch (e) {}
	if (window.ng) add('angular', 0.5, 'window.ng');
	if (window.getAllAngularRootElements) add('angular', 0.4, 'getAllAngularRootElements');

	// Svelte / SvelteKit
	try {
		if (Object.keys(window).some(k => k.startsWith('__sveltekit'))) add('svelte', 0.9, '__sveltekit global');
	} catch (e) {}
	if (has('[data-sveltekit-preload-data]')) add('svelte', 0.7, '[data-sveltekit-preload-data]');
	if (has('[class*="svelte-"]')) add('svelte', 0.4, 'svelte- class prefix');

	// Astro
	if (has('astro-island')) add('astro', 0.9, 'astro-island');
	try {
		const gen = document.querySelector('meta[name="generator"]');
		const content = gen ? (gen.getAttribute('content') || '') : '';
		if (/astro/i.test(content)) {
			const m = content.match(/v?(\d[\w.-]*)/);
			add('astro', 0.8, 'meta generator', m ? m[1] : '');
		}
	} catch (e) {}

	return JSON.stringify(out);
}`
