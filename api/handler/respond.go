package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/sitelens/sitelens/crop"
	"github.com/sitelens/sitelens/models"
)

// version is reported by the health endpoint.
const version = "0.1.0"

// errorParts normalizes any error into a CaptureError detail plus the
// HTTP status it maps to.
func errorParts(err error) (int, *models.ErrorDetail) {
	var capErr *models.CaptureError
	if !errors.As(err, &capErr) {
		capErr = models.NewCaptureError(models.ErrCodeInternal, err.Error(), err)
	}
	return mapErrorToStatus(capErr), capErr.ToDetail()
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.CaptureError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeJobNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeTranscoderUnavailable, models.ErrCodeCodecUnavailable, models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// statusForDetail maps an already-built error detail to its HTTP status.
func statusForDetail(d *models.ErrorDetail) int {
	if d == nil {
		return http.StatusInternalServerError
	}
	return mapErrorToStatus(&models.CaptureError{Code: d.Code})
}

// randomID generates a short random hex string for job IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// artifactLabel picks the directory name for a capture. An explicit label
// wins; otherwise the URL host is used. Both pass through the same
// filename sanitizer as section images, so labels cannot traverse out of
// the output root.
func artifactLabel(label, rawURL string) string {
	if strings.TrimSpace(label) != "" {
		return crop.SanitizeName(label)
	}
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		return crop.SanitizeName(u.Hostname())
	}
	return "capture"
}

// routeSlug converts a route path into a directory name: "/" becomes
// "home", "/pricing/teams" becomes "pricing-teams".
func routeSlug(routePath string) string {
	trimmed := strings.Trim(routePath, "/")
	if trimmed == "" {
		return "home"
	}
	return crop.SanitizeName(strings.ReplaceAll(trimmed, "/", "-"))
}

// routeTarget resolves a route path against the site base URL.
func routeTarget(base *url.URL, routePath string) string {
	ref := &url.URL{Path: routePath}
	return base.ResolveReference(ref).String()
}

// htmlSidecarPath derives the section HTML path from its image path:
// sections/section-0-hero.png -> sections/section-0-hero.html
func htmlSidecarPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + ".html"
}
