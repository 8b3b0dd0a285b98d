// Package report distills a rendered page into textual evidence for the
// generator: main content as Markdown plus link, image and Open Graph
// inventories. It complements the visual artifacts; a capture without a
// report still stands on its own.
package report

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"

	"github.com/sitelens/sitelens/models"
)

// Builder turns rendered HTML into a PageReport. The Markdown converter
// is created once and reused across all requests (goroutine-safe).
type Builder struct {
	md *converter.Converter
}

// NewBuilder initialises a Builder with a pre-configured Markdown converter.
func NewBuilder() *Builder {
	return &Builder{md: newMarkdownConverter()}
}

// Build runs the full report pipeline:
//
//  1. Readability extracts the main content, with a raw-HTML fallback
//     when the page has no article-like body.
//  2. The extracted HTML is converted to Markdown.
//  3. One parse of the raw HTML inventories links, images and Open
//     Graph metadata.
func (b *Builder) Build(rawHTML, sourceURL string) (*models.PageReport, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput, "page HTML is required", nil)
	}

	article, extracted := extractContent(rawHTML, sourceURL)

	markdown, err := toMarkdown(b.md, article.Content, sourceURL)
	if err != nil {
		return nil, models.NewCaptureError(models.ErrCodeInternal, "markdown conversion failed", err)
	}

	rep := &models.PageReport{
		Title:       article.Title,
		Description: article.Excerpt,
		SiteName:    article.SiteName,
		Language:    article.Language,
		Markdown:    markdown,
		WordCount:   len(strings.Fields(article.TextContent)),
		Links:       models.LinksResult{Internal: []models.Link{}, External: []models.Link{}},
		Images:      []models.Image{},
	}

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if docErr != nil {
		slog.Warn("report: failed to parse page for inventories", "url", sourceURL, "error", docErr)
		return rep, nil
	}
	if !extracted {
		// The fallback article carries markup in TextContent; recount
		// words from the visible text instead.
		rep.WordCount = len(strings.Fields(doc.Text()))
	}

	rep.OGMetadata = extractOG(doc)
	if rep.Title == "" {
		rep.Title = rep.OGMetadata.Title
	}
	if rep.Description == "" {
		rep.Description = rep.OGMetadata.Description
	}

	base, baseErr := url.Parse(sourceURL)
	if baseErr != nil {
		slog.Warn("report: invalid source URL, skipping link inventory", "url", sourceURL, "error", baseErr)
		return rep, nil
	}
	rep.Links = extractLinks(doc, base)
	rep.Images = extractImages(doc, base)

	return rep, nil
}
