package models

// RouteSource identifies which discovery source produced a route.
// When the same path is found by multiple sources, the higher-priority
// source's record wins during deduplication.
type RouteSource string

const (
	SourceFramework  RouteSource = "framework"   // framework manifest or router state
	SourceSitemap    RouteSource = "sitemap"     // sitemap.xml / robots.txt
	SourceHistory    RouteSource = "history"     // History API interception
	SourceLinkScrape RouteSource = "link-scrape" // same-host anchor hrefs
)

// Priority returns the deduplication rank of the source. Higher wins.
func (s RouteSource) Priority() int {
	switch s {
	case SourceFramework:
		return 3
	case SourceSitemap:
		return 2
	case SourceHistory:
		return 1
	default:
		return 0
	}
}

// RouteRecord is a single discovered route on the target site.
type RouteRecord struct {
	// Path is the normalized route path: leading slash, no trailing slash
	// (except root), no query or fragment.
	Path string `json:"path"`

	// Name is a human-readable page name derived from the route path or
	// the framework's component name.
	Name string `json:"name"`

	// Source records which discovery source produced this record.
	Source RouteSource `json:"source"`

	// Dynamic is true for parameterized route patterns such as
	// /posts/[id], /users/:id or /files/{slug}.
	Dynamic bool `json:"dynamic"`
}
