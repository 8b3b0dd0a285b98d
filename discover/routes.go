package discover

import (
	"strings"
	"unicode"

	"github.com/sitelens/sitelens/models"
)

// NormalizeRoute canonicalizes a route path: query and fragment stripped,
// leading slash ensured, trailing slash removed (except for the root).
// Empty input normalizes to "/".
func NormalizeRoute(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

// IsDynamicRoute reports whether the path contains a route parameter in
// bracket ([id], [...slug]), colon (:id) or brace ({id}) syntax. The check
// is uniform across frameworks, which may over-classify literal paths that
// happen to contain these characters.
func IsDynamicRoute(path string) bool {
	if strings.ContainsAny(path, "[]{}") {
		return true
	}
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, ":") && len(seg) > 1 {
			return true
		}
	}
	return false
}

// ExtractPageName derives a human-readable page name. A non-empty component
// name wins (split on camelCase and separators); otherwise the last path
// segment is used. The root path is named "Home".
func ExtractPageName(path, componentName string) string {
	if name := humanize(componentName); name != "" {
		return name
	}

	p := NormalizeRoute(path)
	if p == "/" {
		return "Home"
	}
	segs := strings.Split(strings.Trim(p, "/"), "/")
	last := segs[len(segs)-1]

	// Strip parameter markers so /posts/[...slug] names as "Slug".
	last = strings.TrimPrefix(last, ":")
	last = strings.NewReplacer("[", "", "]", "", "{", "", "}", "", ".", " ").Replace(last)

	if name := humanize(last); name != "" {
		return name
	}
	return "Home"
}

// BuildFullURL joins a base URL and a route path with exactly one
// separator between them.
func BuildFullURL(baseURL, route string) string {
	base := strings.TrimRight(baseURL, "/")
	if route == "" || route == "/" {
		return base + "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return base + route
}

// Deduplicate collapses records sharing a normalized path. The
// highest-priority source wins (framework > sitemap > history >
// link-scrape); within one tier a record with a name beats one without.
// Output preserves the first-seen order of paths.
func Deduplicate(records []models.RouteRecord) []models.RouteRecord {
	best := make(map[string]models.RouteRecord, len(records))
	order := make([]string, 0, len(records))

	for _, r := range records {
		r.Path = NormalizeRoute(r.Path)
		cur, seen := best[r.Path]
		if !seen {
			best[r.Path] = r
			order = append(order, r.Path)
			continue
		}
		if r.Source.Priority() > cur.Source.Priority() ||
			(r.Source.Priority() == cur.Source.Priority() && cur.Name == "" && r.Name != "") {
			best[r.Path] = r
		}
	}

	out := make([]models.RouteRecord, 0, len(order))
	for _, p := range order {
		out = append(out, best[p])
	}
	return out
}

// humanize splits a camelCase or separator-delimited identifier into
// space-separated title-case words. Returns "" for empty input.
func humanize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == ' ' || r == '.' || r == '/':
			flush()
		case unicode.IsUpper(r) && i > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()

	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
