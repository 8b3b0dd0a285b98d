package crop

import (
	"math"
	"strings"

	"github.com/sitelens/sitelens/models"
)

// ClampRect converts fractional DOM bounds into an integer crop region
// that lies fully inside a width*height image. Origins are rounded and
// floored at zero; sizes are rounded and shrunk to what remains of the
// image past the origin. Degenerate input can yield zero or negative
// sizes, which the caller rejects.
func ClampRect(b models.Bounds, width, height int) models.CropRect {
	left := int(math.Round(b.X))
	if left < 0 {
		left = 0
	}
	if left > width {
		left = width
	}
	top := int(math.Round(b.Y))
	if top < 0 {
		top = 0
	}
	if top > height {
		top = height
	}

	w := int(math.Round(b.Width))
	if w > width-left {
		w = width - left
	}
	h := int(math.Round(b.Height))
	if h > height-top {
		h = height - top
	}

	return models.CropRect{Left: left, Top: top, Width: w, Height: h}
}

// SanitizeName turns an arbitrary section name into a filename slug:
// lowercase, every run of characters outside [a-z0-9-] becomes a single
// hyphen, hyphen runs collapse, leading/trailing hyphens go, at most 50
// characters. Empty results become "unnamed".
func SanitizeName(name string) string {
	s := strings.ToLower(name)

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			out = append(out, c)
		} else {
			out = append(out, '-')
		}
	}
	s = string(out)

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")

	if len(s) > 50 {
		s = strings.Trim(s[:50], "-")
	}
	if s == "" {
		return "unnamed"
	}
	return s
}
