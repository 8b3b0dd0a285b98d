package handler

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/sitelens/sitelens/models"
)

func TestErrorParts_CaptureError(t *testing.T) {
	err := models.NewCaptureError(models.ErrCodeTimeout, "navigation deadline exceeded", nil)

	status, detail := errorParts(err)
	if status != http.StatusGatewayTimeout {
		t.Errorf("status: got %d, want %d", status, http.StatusGatewayTimeout)
	}
	if detail.Code != models.ErrCodeTimeout {
		t.Errorf("code: got %q, want %q", detail.Code, models.ErrCodeTimeout)
	}
}

func TestErrorParts_PlainErrorBecomesInternal(t *testing.T) {
	status, detail := errorParts(errors.New("boom"))
	if status != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", status)
	}
	if detail.Code != models.ErrCodeInternal {
		t.Errorf("code: got %q, want %q", detail.Code, models.ErrCodeInternal)
	}
	if detail.Message != "boom" {
		t.Errorf("message: got %q, want %q", detail.Message, "boom")
	}
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{models.ErrCodeTimeout, http.StatusGatewayTimeout},
		{models.ErrCodeNavigation, http.StatusBadGateway},
		{models.ErrCodeInvalidInput, http.StatusBadRequest},
		{models.ErrCodeRateLimited, http.StatusTooManyRequests},
		{models.ErrCodeUnauthorized, http.StatusUnauthorized},
		{models.ErrCodeJobNotFound, http.StatusNotFound},
		{models.ErrCodeTranscoderUnavailable, http.StatusServiceUnavailable},
		{models.ErrCodeCodecUnavailable, http.StatusServiceUnavailable},
		{models.ErrCodeBrowserCrash, http.StatusServiceUnavailable},
		{models.ErrCodeScreenshotFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		got := mapErrorToStatus(&models.CaptureError{Code: tt.code})
		if got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestStatusForDetail_Nil(t *testing.T) {
	if got := statusForDetail(nil); got != http.StatusInternalServerError {
		t.Errorf("got %d, want 500", got)
	}
}

func TestArtifactLabel(t *testing.T) {
	tests := []struct {
		name   string
		label  string
		rawURL string
		want   string
	}{
		{"explicit label wins", "My Launch Page", "https://acme.com", "my-launch-page"},
		{"host fallback", "", "https://www.acme.com/pricing", "www-acme-com"},
		{"label traversal neutralized", "../../etc", "https://acme.com", "etc"},
		{"unparseable url", "", "://nope", "capture"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := artifactLabel(tt.label, tt.rawURL); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouteSlug(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "home"},
		{"", "home"},
		{"/pricing", "pricing"},
		{"/pricing/teams", "pricing-teams"},
		{"/docs/getting-started/", "docs-getting-started"},
	}

	for _, tt := range tests {
		if got := routeSlug(tt.path); got != tt.want {
			t.Errorf("routeSlug(%q): got %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRouteTarget(t *testing.T) {
	base, err := url.Parse("https://acme.com")
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"/", "https://acme.com/"},
		{"/pricing", "https://acme.com/pricing"},
		{"/docs/intro", "https://acme.com/docs/intro"},
	}

	for _, tt := range tests {
		if got := routeTarget(base, tt.path); got != tt.want {
			t.Errorf("routeTarget(%q): got %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestHTMLSidecarPath(t *testing.T) {
	got := htmlSidecarPath("captures/acme/sections/section-0-hero.png")
	want := "captures/acme/sections/section-0-hero.html"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewTemplateDeduper_ReportsOwner(t *testing.T) {
	enabled := true
	dedupe := newTemplateDeduper(models.SnapshotRequest{DedupeTemplates: &enabled})

	first := dedupe("/blog/hello")
	if owner := first(0xF0F0); owner != "" {
		t.Fatalf("first hash should register, got owner %q", owner)
	}

	// Identical hash from another route collides with the first.
	second := dedupe("/blog/world")
	if owner := second(0xF0F0); owner != "/blog/hello" {
		t.Errorf("got owner %q, want %q", owner, "/blog/hello")
	}

	// A far-away hash starts its own template family.
	third := dedupe("/pricing")
	if owner := third(0x0F0F0F0F0F0F0F0F); owner != "" {
		t.Errorf("distinct hash should register, got owner %q", owner)
	}
}

func TestNewTemplateDeduper_ZeroHashNeverMatches(t *testing.T) {
	enabled := true
	dedupe := newTemplateDeduper(models.SnapshotRequest{DedupeTemplates: &enabled})

	if owner := dedupe("/a")(0); owner != "" {
		t.Errorf("zero hash: got owner %q, want none", owner)
	}
	if owner := dedupe("/b")(0); owner != "" {
		t.Errorf("zero hash must not collide, got owner %q", owner)
	}
}

func TestNewTemplateDeduper_Disabled(t *testing.T) {
	disabled := false
	dedupe := newTemplateDeduper(models.SnapshotRequest{DedupeTemplates: &disabled})
	if hook := dedupe("/any"); hook != nil {
		t.Error("disabled deduper should produce nil hooks")
	}
}
