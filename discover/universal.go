package discover

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/sitelens/sitelens/models"
)

// universal is the framework-agnostic fallback strategy. It merges three
// independent sources: History API interception, sitemap parsing and
// same-host anchor scraping. Any source may fail without affecting the
// others.
type universal struct {
	base
}

func newUniversal(page Page, baseURL *url.URL, opts *Options) Discoverer {
	return &universal{base: newBase(page, baseURL, opts)}
}

func (u *universal) Name() string { return "universal" }

func (u *universal) Discover(ctx context.Context) ([]models.RouteRecord, error) {
	var all []models.RouteRecord

	all = append(all, u.historyRoutes(ctx)...)
	if err := ctx.Err(); err != nil {
		return Deduplicate(all), err
	}

	all = append(all, u.sitemapRoutes(ctx)...)
	if err := ctx.Err(); err != nil {
		return Deduplicate(all), err
	}

	all = append(all, u.scrapeAnchors(ctx)...)
	return Deduplicate(all), ctx.Err()
}

// historyRoutes installs the history interception shim, lets client-side
// navigation settle, then reads the collected same-origin pathnames.
func (u *universal) historyRoutes(ctx context.Context) []models.RouteRecord {
	if _, err := u.page.Eval(ctx, historyShimJS); err != nil {
		slog.Debug("history shim injection failed", "url", u.page.URL(), "error", err)
		return nil
	}

	select {
	case <-ctx.Done():
		return nil
	case <-time.After(u.opts.SettleDelay):
	}

	return u.pathsFromEval(ctx, historyReadJS, models.SourceHistory, "universal")
}

// historyShimJS wraps pushState/replaceState and listens for popstate so
// client-side navigations become observable. The collected list is seeded
// with the current pathname. Installing twice is a no-op.
const historyShimJS = `() => {
	if (window.__sitelensRoutes) return true;
	window.__sitelensRoutes = [window.location.pathname];
	const record = (url) => {
		try {
			const u = new URL(url, window.location.origin);
			if (u.origin === window.location.origin) window.__sitelensRoutes.push(u.pathname);
		} catch (e) {}
	};
	const push = history.pushState.bind(history);
	history.pushState = function (state, title, url) {
		if (url) record(url);
		return push(state, title, url);
	};
	const replace = history.replaceState.bind(history);
	history.replaceState = function (state, title, url) {
		if (url) record(url);
		return replace(state, title, url);
	};
	window.addEventListener('popstate', () => record(window.location.href));
	return true;
}`

const historyReadJS = `() => JSON.stringify(window.__sitelensRoutes || [])`
