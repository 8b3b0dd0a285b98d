package crop

import (
	"testing"

	"github.com/sitelens/sitelens/models"
)

func TestClampRect(t *testing.T) {
	tests := []struct {
		name   string
		bounds models.Bounds
		imgW   int
		imgH   int
		want   models.CropRect
	}{
		{
			name:   "fits entirely",
			bounds: models.Bounds{X: 10, Y: 20, Width: 100, Height: 200},
			imgW:   1000, imgH: 2000,
			want: models.CropRect{Left: 10, Top: 20, Width: 100, Height: 200},
		},
		{
			name:   "negative origin with overwide section",
			bounds: models.Bounds{X: -10, Y: 0, Width: 2000, Height: 300},
			imgW:   1000, imgH: 2000,
			want: models.CropRect{Left: 0, Top: 0, Width: 1000, Height: 300},
		},
		{
			name:   "height past bottom edge",
			bounds: models.Bounds{X: 0, Y: 1800, Width: 500, Height: 500},
			imgW:   1000, imgH: 2000,
			want: models.CropRect{Left: 0, Top: 1800, Width: 500, Height: 200},
		},
		{
			name:   "fractional values round",
			bounds: models.Bounds{X: 10.6, Y: 19.4, Width: 99.5, Height: 200.2},
			imgW:   1000, imgH: 2000,
			want: models.CropRect{Left: 11, Top: 19, Width: 100, Height: 200},
		},
		{
			name:   "origin beyond image",
			bounds: models.Bounds{X: 1500, Y: 0, Width: 100, Height: 100},
			imgW:   1000, imgH: 2000,
			want: models.CropRect{Left: 1000, Top: 0, Width: 0, Height: 100},
		},
		{
			name:   "zero size stays zero",
			bounds: models.Bounds{X: 5, Y: 5, Width: 0, Height: 0},
			imgW:   1000, imgH: 2000,
			want: models.CropRect{Left: 5, Top: 5, Width: 0, Height: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampRect(tt.bounds, tt.imgW, tt.imgH)
			if got != tt.want {
				t.Errorf("ClampRect(%+v, %d, %d) = %+v, want %+v",
					tt.bounds, tt.imgW, tt.imgH, got, tt.want)
			}
		})
	}
}

func TestClampRect_AlwaysInsideImage(t *testing.T) {
	cases := []models.Bounds{
		{X: -100, Y: -100, Width: 5000, Height: 5000},
		{X: 999.9, Y: 1999.9, Width: 10, Height: 10},
		{X: 0, Y: 0, Width: 1000.4, Height: 2000.4},
	}
	for _, b := range cases {
		r := ClampRect(b, 1000, 2000)
		if r.Left < 0 || r.Top < 0 {
			t.Errorf("negative origin from %+v: %+v", b, r)
		}
		if r.Left+r.Width > 1000 || r.Top+r.Height > 2000 {
			t.Errorf("rect exceeds image for %+v: %+v", b, r)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hero", "hero"},
		{"Hero Section", "hero-section"},
		{"  Weird--Name!!  ", "weird-name"},
		{"Über Führung", "ber-f-hrung"},
		{"", "unnamed"},
		{"!!!", "unnamed"},
		{"---", "unnamed"},
		{"Features & Pricing (2024)", "features-pricing-2024"},
		{"already-clean-slug", "already-clean-slug"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeName(tt.in)
			if got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeName_LengthCap(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "abcdefgh "
	}
	got := SanitizeName(long)
	if len(got) > 50 {
		t.Errorf("sanitized name exceeds 50 chars: %q (%d)", got, len(got))
	}
	if got[len(got)-1] == '-' {
		t.Errorf("sanitized name ends with hyphen after truncation: %q", got)
	}
}
