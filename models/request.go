package models

// DiscoverRequest is the payload for POST /api/v1/discover.
type DiscoverRequest struct {
	// URL is the site to discover routes on. Required.
	URL string `json:"url" binding:"required,url"`

	// Framework forces a specific discovery strategy instead of detecting
	// one. Unknown values fall back to the universal strategy.
	Framework string `json:"framework,omitempty"`

	// MaxRoutes caps the number of returned routes. Default: 200.
	MaxRoutes int `json:"max_routes,omitempty" binding:"omitempty,min=1,max=1000"`

	// Timeout is the maximum duration in seconds for navigation plus
	// discovery. Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// NoCache bypasses the origin-keyed discovery cache.
	NoCache bool `json:"no_cache,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *DiscoverRequest) Defaults() {
	if r.MaxRoutes == 0 {
		r.MaxRoutes = 200
	}
	if r.Timeout == 0 {
		r.Timeout = 30
	}
}

// Viewport is a requested browser viewport size.
type Viewport struct {
	Width  int `json:"width,omitempty" binding:"omitempty,min=320,max=3840"`
	Height int `json:"height,omitempty" binding:"omitempty,min=240,max=2160"`
}

// CaptureRequest is the payload for POST /api/v1/capture.
type CaptureRequest struct {
	// URL is the page to capture. Required.
	URL string `json:"url" binding:"required,url"`

	// Label names the artifact directory under the output root. Derived
	// from the URL host when empty. Sanitized to [a-z0-9-].
	Label string `json:"label,omitempty"`

	// Sections overrides automatic section detection with caller-supplied
	// regions.
	Sections []Section `json:"sections,omitempty"`

	// MinSectionHeight skips sections shorter than this many pixels.
	// Default: 100.
	MinSectionHeight int `json:"min_section_height,omitempty" binding:"omitempty,min=1"`

	// Viewport overrides the configured capture viewport.
	Viewport *Viewport `json:"viewport,omitempty"`

	// IncludeReport adds a content report (Markdown, links, images, OG)
	// to the response and writes content.md next to the images.
	IncludeReport bool `json:"include_report,omitempty"`

	// IncludeHTML writes each section's outer HTML next to its image.
	IncludeHTML bool `json:"include_html,omitempty"`

	// Timeout is the maximum duration in seconds for the entire capture.
	// Default: 60. Max: 300.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=300"`
}

// Defaults applies default values to unset fields.
func (r *CaptureRequest) Defaults() {
	if r.MinSectionHeight == 0 {
		r.MinSectionHeight = 100
	}
	if r.Timeout == 0 {
		r.Timeout = 60
	}
}

// RecordRequest is the payload for POST /api/v1/record.
type RecordRequest struct {
	// URL is the page to record. Required.
	URL string `json:"url" binding:"required,url"`

	// Label names the artifact directory under the output root.
	Label string `json:"label,omitempty"`

	// Format selects the delivered artifact. The WebM recording is kept
	// in all cases. Default: "webm".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=webm mp4 gif"`

	// Filename is the artifact base name without extension.
	// Default: "page-recording".
	Filename string `json:"filename,omitempty"`

	// DurationMs is the total choreography budget in milliseconds,
	// including the hold phases. Default: 8000.
	DurationMs int `json:"duration_ms,omitempty" binding:"omitempty,min=1000,max=60000"`

	// Viewport overrides the configured recording viewport.
	Viewport *Viewport `json:"viewport,omitempty"`

	// Timeout is the maximum duration in seconds for the entire operation.
	// Default: 120. Max: 600.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=600"`
}

// Defaults applies default values to unset fields.
func (r *RecordRequest) Defaults() {
	if r.Format == "" {
		r.Format = "webm"
	}
	if r.Filename == "" {
		r.Filename = "page-recording"
	}
	if r.DurationMs == 0 {
		r.DurationMs = 8000
	}
	if r.Timeout == 0 {
		r.Timeout = 120
	}
}

// SnapshotRequest is the payload for POST /api/v1/snapshot.
type SnapshotRequest struct {
	// URL is the site to snapshot. Required.
	URL string `json:"url" binding:"required,url"`

	// MaxRoutes caps how many discovered routes are captured.
	// Default: 20. Max: 100.
	MaxRoutes int `json:"max_routes,omitempty" binding:"omitempty,min=1,max=100"`

	// Framework forces the discovery strategy for the whole site.
	Framework string `json:"framework,omitempty"`

	// IncludeVideo records a scroll video per captured route.
	IncludeVideo bool `json:"include_video,omitempty"`

	// VideoFormat selects the video artifact when IncludeVideo is set.
	VideoFormat string `json:"video_format,omitempty" binding:"omitempty,oneof=webm mp4 gif"`

	// IncludeReport adds content reports to each route capture.
	IncludeReport bool `json:"include_report,omitempty"`

	// DedupeTemplates skips routes whose DOM structure matches an already
	// captured route (article pages sharing one template). Default: true.
	DedupeTemplates *bool `json:"dedupe_templates,omitempty"`

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *SnapshotRequest) Defaults() {
	if r.MaxRoutes == 0 {
		r.MaxRoutes = 20
	}
	if r.VideoFormat == "" {
		r.VideoFormat = "webm"
	}
	if r.DedupeTemplates == nil {
		t := true
		r.DedupeTemplates = &t
	}
}
