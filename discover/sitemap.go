package discover

import (
	"context"
	"encoding/xml"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sitelens/sitelens/models"
)

// maxSitemapDepth bounds recursion through nested sitemap index files.
const maxSitemapDepth = 3

// sitemapIndex represents a sitemap index XML file.
type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

// urlset represents a sitemap URL set XML file.
type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc string `xml:"loc"`
}

// sitemapRoutes collects same-host routes from <origin>/sitemap.xml and
// any sitemaps advertised in robots.txt. All failures degrade to an
// empty result.
func (b *base) sitemapRoutes(ctx context.Context) []models.RouteRecord {
	origin := b.baseURL.Scheme + "://" + b.baseURL.Host

	locs := fetchSitemapLocs(ctx, b.opts.Fetcher, origin+"/sitemap.xml", 0)
	for _, sm := range fetchRobotsSitemaps(ctx, b.opts.Fetcher, origin+"/robots.txt") {
		locs = append(locs, fetchSitemapLocs(ctx, b.opts.Fetcher, sm, 0)...)
	}

	var out []models.RouteRecord
	for _, loc := range locs {
		u, err := url.Parse(strings.TrimSpace(loc))
		if err != nil || u.Host != b.baseURL.Host {
			continue
		}
		if rec, ok := b.record(u.Path, "", models.SourceSitemap); ok {
			out = append(out, rec)
		}
	}
	return out
}

// fetchSitemapLocs fetches one sitemap URL and returns its <loc> entries,
// following sitemap index files up to maxSitemapDepth.
func fetchSitemapLocs(ctx context.Context, f Fetcher, sitemapURL string, depth int) []string {
	if depth > maxSitemapDepth {
		return nil
	}
	body, err := f.Fetch(ctx, sitemapURL)
	if err != nil {
		slog.Debug("sitemap fetch failed", "url", sitemapURL, "error", err)
		return nil
	}

	// A sitemap index points at child sitemaps; recurse into each.
	var idx sitemapIndex
	if err := xml.Unmarshal(body, &idx); err == nil && len(idx.Sitemaps) > 0 {
		var locs []string
		for _, s := range idx.Sitemaps {
			if s.Loc != "" {
				locs = append(locs, fetchSitemapLocs(ctx, f, strings.TrimSpace(s.Loc), depth+1)...)
			}
		}
		return locs
	}

	var us urlset
	if err := xml.Unmarshal(body, &us); err != nil {
		slog.Debug("sitemap parse failed", "url", sitemapURL, "error", err)
		return nil
	}
	var locs []string
	for _, u := range us.URLs {
		if u.Loc != "" {
			locs = append(locs, u.Loc)
		}
	}
	return locs
}

// fetchRobotsSitemaps extracts Sitemap: directives from robots.txt.
func fetchRobotsSitemaps(ctx context.Context, f Fetcher, robotsURL string) []string {
	body, err := f.Fetch(ctx, robotsURL)
	if err != nil {
		slog.Debug("robots.txt fetch failed", "url", robotsURL, "error", err)
		return nil
	}

	var sitemaps []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 8 && strings.EqualFold(line[:8], "sitemap:") {
			if loc := strings.TrimSpace(line[8:]); loc != "" {
				sitemaps = append(sitemaps, loc)
			}
		}
	}
	return sitemaps
}
