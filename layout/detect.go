// Package layout understands the visual composition of a rendered page:
// it detects layout sections for cropping, extracts per-section HTML and
// fingerprints DOM structure so template-duplicate pages can be skipped.
package layout

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/ysmood/gson"

	"github.com/sitelens/sitelens/models"
)

// Page is the browser page handle the detector evaluates in.
type Page interface {
	Eval(ctx context.Context, js string) (gson.JSON, error)
}

// Options tunes section detection.
type Options struct {
	// MaxSections caps the returned sections. Default: 30.
	MaxSections int
}

// PageLayout is the detected composition of one rendered page.
type PageLayout struct {
	// Width and Height are the full document dimensions in CSS pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Sections are the detected regions in top-to-bottom order.
	Sections []models.Section `json:"sections"`
}

// DetectSections evaluates layout heuristics in the page and returns the
// detected sections with absolute page coordinates. A page where nothing
// matches yields a single full-page section, never an empty result.
func DetectSections(ctx context.Context, page Page, opts *Options) (*PageLayout, error) {
	if page == nil {
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput, "page handle is required", nil)
	}
	maxSections := 30
	if opts != nil && opts.MaxSections > 0 {
		maxSections = opts.MaxSections
	}

	res, err := page.Eval(ctx, detectSectionsJS)
	if err != nil {
		return nil, models.NewCaptureError(models.ErrCodeSectionDetection, "section detection evaluation failed", err)
	}

	var layout PageLayout
	if err := json.Unmarshal([]byte(res.Str()), &layout); err != nil {
		return nil, models.NewCaptureError(models.ErrCodeSectionDetection, "section detection returned malformed payload", err)
	}

	if len(layout.Sections) > maxSections {
		layout.Sections = layout.Sections[:maxSections]
	}
	if len(layout.Sections) == 0 {
		layout.Sections = []models.Section{{
			Name: "Full Page",
			Role: "page",
			Bounds: models.Bounds{
				Width:  float64(layout.Width),
				Height: float64(layout.Height),
			},
		}}
	}

	for i := range layout.Sections {
		layout.Sections[i].Index = i
		if layout.Sections[i].Name == "" {
			layout.Sections[i].Name = defaultName(layout.Sections[i].Role)
		}
	}

	slog.Debug("sections detected", "count", len(layout.Sections), "page_height", layout.Height)
	return &layout, nil
}

func defaultName(role string) string {
	if role == "" {
		return "Section"
	}
	return strings.ToUpper(role[:1]) + role[1:]
}

// detectSectionsJS walks landmark tags, marker classes and the children of
// the main content container, measures absolute bounds, classifies roles
// and suppresses nested or duplicate regions. Containers (main, body) are
// never sections themselves.
const detectSectionsJS = `() => {
	const vw = window.innerWidth || document.documentElement.clientWidth;
	const docEl = document.documentElement;
	const docWidth = Math.max(document.body ? document.body.scrollWidth : 0, docEl.scrollWidth);
	const docHeight = Math.max(document.body ? document.body.scrollHeight : 0, docEl.scrollHeight);

	const candidates = [];
	const pushAll = (list) => { for (const el of list) if (!candidates.includes(el)) candidates.push(el); };

	pushAll(document.querySelectorAll('header, nav, footer, section, article, aside'));
	const markers = ['hero', 'banner', 'feature', 'pricing', 'testimonial', 'faq', 'cta',
		'contact', 'gallery', 'portfolio', 'team', 'service', 'newsletter', 'stats'];
	for (const m of markers) {
		pushAll(document.querySelectorAll('div[class*="' + m + '"], div[id*="' + m + '"]'));
	}
	const mainEl = document.querySelector('main') || document.body;
	if (mainEl) pushAll(mainEl.children);

	const classify = (el) => {
		const tag = el.tagName.toLowerCase();
		const cls = ((el.getAttribute('class') || '') + ' ' + (el.id || '')).toLowerCase();
		if (tag === 'nav' || cls.includes('navbar') || cls.includes('menu')) return 'navigation';
		if (tag === 'header' || cls.includes('header')) return 'header';
		if (tag === 'footer' || cls.includes('footer')) return 'footer';
		if (cls.includes('hero') || cls.includes('banner') || cls.includes('jumbotron')) return 'hero';
		if (cls.includes('pricing') || cls.includes('plan')) return 'pricing';
		if (cls.includes('testimonial') || cls.includes('review')) return 'testimonials';
		if (cls.includes('feature') || cls.includes('service')) return 'features';
		if (cls.includes('faq')) return 'faq';
		if (cls.includes('cta') || cls.includes('signup') || cls.includes('newsletter')) return 'cta';
		if (cls.includes('contact')) return 'contact';
		if (cls.includes('gallery') || cls.includes('portfolio')) return 'gallery';
		if (cls.includes('team') || cls.includes('about')) return 'about';
		if (tag === 'article') return 'article';
		if (tag === 'aside') return 'aside';
		return 'content';
	};

	const cssPath = (el) => {
		if (el.id) return '#' + el.id;
		const parts = [];
		let node = el;
		let depth = 0;
		while (node && node.nodeType === 1 && node.tagName !== 'BODY' && depth < 4) {
			const tag = node.tagName.toLowerCase();
			let idx = 1;
			let sib = node.previousElementSibling;
			while (sib) {
				if (sib.tagName === node.tagName) idx++;
				sib = sib.previousElementSibling;
			}
			parts.unshift(tag + ':nth-of-type(' + idx + ')');
			node = node.parentElement;
			depth++;
		}
		return parts.join(' > ');
	};

	const sectionName = (el) => {
		const heading = el.querySelector('h1, h2, h3, h4, h5, h6');
		if (heading) {
			const text = heading.textContent.trim().replace(/\s+/g, ' ');
			if (text) return text.slice(0, 60);
		}
		const label = el.getAttribute('aria-label');
		if (label) return label.trim().slice(0, 60);
		return '';
	};

	const measured = [];
	for (const el of candidates) {
		const rect = el.getBoundingClientRect();
		if (rect.width < vw * 0.4 || rect.height < 40) continue;
		measured.push({
			el: el,
			x: rect.left + window.scrollX,
			y: rect.top + window.scrollY,
			width: rect.width,
			height: rect.height,
		});
	}
	measured.sort((a, b) => a.y - b.y || a.x - b.x);

	const sections = [];
	const accepted = [];
	for (const m of measured) {
		let swallowed = false;
		for (const a of accepted) {
			if (a.el.contains(m.el)) { swallowed = true; break; }
			if (Math.abs(a.y - m.y) < 8 && Math.abs(a.height - m.height) < 8) { swallowed = true; break; }
		}
		if (swallowed) continue;
		accepted.push(m);
		const role = classify(m.el);
		sections.push({
			name: sectionName(m.el),
			role: role,
			selector: cssPath(m.el),
			bounds: { x: m.x, y: m.y, width: m.width, height: m.height },
		});
	}

	return JSON.stringify({ width: docWidth, height: docHeight, sections: sections });
}`
