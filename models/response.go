package models

// DiscoverResponse is the response for POST /api/v1/discover.
type DiscoverResponse struct {
	// Success indicates whether discovery completed without errors.
	Success bool `json:"success"`

	// Framework is the detected or forced framework identifier, or
	// "unknown" when detection was inconclusive.
	Framework string `json:"framework"`

	// Discoverer names the strategy that produced the routes.
	Discoverer string `json:"discoverer"`

	// Routes is the deduplicated route list in first-seen order.
	Routes []RouteRecord `json:"routes"`

	// Detection carries the per-framework evidence when detection ran.
	Detection DetectResult `json:"detection,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching bypassed).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// CaptureResponse is the response for POST /api/v1/capture.
type CaptureResponse struct {
	Success bool `json:"success"`

	// Screenshot is the full-page screenshot path.
	Screenshot string `json:"screenshot"`

	// Directory is the artifact directory for this capture.
	Directory string `json:"directory"`

	// Sections and Skipped mirror the crop manifest.
	Sections []CroppedSection `json:"sections"`
	Skipped  []SkipRecord     `json:"skipped,omitempty"`

	// ManifestPath is the sections.json location.
	ManifestPath string `json:"manifest_path"`

	// Summary aggregates crop counts and area.
	Summary CropSummary `json:"summary"`

	// Report is the optional content report.
	Report *PageReport `json:"report,omitempty"`

	Timing TimingInfo   `json:"timing"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// RecordResponse is the response for POST /api/v1/record.
type RecordResponse struct {
	Success bool `json:"success"`

	// Capture carries paths, the output pointer and any conversion error.
	Capture *CaptureResult `json:"capture,omitempty"`

	Timing TimingInfo   `json:"timing"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// SnapshotResponse is the immediate response for POST /api/v1/snapshot.
type SnapshotResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SnapshotStatusResponse is the response for GET /api/v1/snapshot/:id.
type SnapshotStatusResponse struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"` // "processing", "completed", "partial", "failed"
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Directory string          `json:"directory,omitempty"`
	Routes    []RouteRecord   `json:"routes,omitempty"`
	Pages     []*SnapshotPage `json:"pages,omitempty"`
	Error     *ErrorDetail    `json:"error,omitempty"`
}

// SnapshotPage is one route's outcome inside a snapshot job.
type SnapshotPage struct {
	Route   RouteRecord      `json:"route"`
	Status  string           `json:"status"` // "captured", "skipped", "failed"
	Reason  string           `json:"reason,omitempty"`
	Capture *CaptureResponse `json:"capture,omitempty"`
	Video   *CaptureResult   `json:"video,omitempty"`
}

// SnapshotJob tracks an in-progress snapshot operation.
type SnapshotJob struct {
	ID            string
	Status        string // "processing", "completed", "partial", "failed"
	URL           string
	Directory     string
	Total         int
	Completed     int
	Routes        []RouteRecord
	Pages         []*SnapshotPage
	CreatedAt     int64 // unix timestamp
	WebhookURL    string
	WebhookSecret string

	// Error is set when the job failed before any route was captured.
	Error *ErrorDetail
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// NavigationMs is the time spent navigating and rendering the page.
	NavigationMs int64 `json:"navigation_ms"`

	// ProcessingMs is the time spent detecting, cropping or transcoding.
	ProcessingMs int64 `json:"processing_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status     string    `json:"status"` // "healthy" or "degraded"
	Uptime     string    `json:"uptime"`
	Browser    bool      `json:"browser"` // CDP connection alive
	PoolStats  PoolStats `json:"pool_stats"`
	Transcoder bool      `json:"transcoder"` // ffmpeg available
	Version    string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	TotalPages  int `json:"total_pages"`
	ActivePages int `json:"active_pages"`
	IdlePages   int `json:"idle_pages"`
	HardMax     int `json:"hard_max"`
}
