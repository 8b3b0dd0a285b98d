package layout

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/sitelens/sitelens/models"
)

// SectionHTML extracts the outer HTML of the first element matching the
// section selector. A selector that matches nothing returns an empty
// string, not the whole document.
func SectionHTML(rawHTML, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", fmt.Errorf("invalid section selector %q: %w", selector, err)
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse page HTML: %w", err)
	}

	node := cascadia.Query(doc, sel)
	if node == nil {
		return "", nil
	}

	var sb strings.Builder
	if err := html.Render(&sb, node); err != nil {
		return "", fmt.Errorf("failed to render section node: %w", err)
	}
	return sb.String(), nil
}

// ForSections extracts HTML for every section that carries a selector,
// keyed by section index. Extraction is best effort: a failing selector
// is logged and skipped rather than failing the whole page.
func ForSections(rawHTML string, sections []models.Section) map[int]string {
	out := make(map[int]string, len(sections))
	for _, sec := range sections {
		if sec.Selector == "" {
			continue
		}
		fragment, err := SectionHTML(rawHTML, sec.Selector)
		if err != nil {
			slog.Debug("section html extraction failed", "index", sec.Index, "selector", sec.Selector, "error", err)
			continue
		}
		if fragment != "" {
			out[sec.Index] = fragment
		}
	}
	return out
}
