package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Pool      PoolConfig
	Capture   CaptureConfig
	Discovery DiscoveryConfig
	Crop      CropConfig
	Video     VideoConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// PoolConfig controls the capture page pool sizing.
type PoolConfig struct {
	// MinPages is the minimum number of pages kept warm in the pool.
	MinPages int // default: 2

	// HardMax is the absolute maximum number of concurrent pages.
	HardMax int // default: 8

	// MaxUses retires a page after this many captures.
	MaxUses int // default: 50

	// MaxAge retires a page after this lifetime.
	MaxAge time.Duration // default: 10m

	// MemThreshold is the heap memory fraction (0.0-1.0) above which the pool shrinks.
	MemThreshold float64 // default: 0.9
}

// CaptureConfig controls page capture behavior.
type CaptureConfig struct {
	// OutputRoot is the base directory for all capture artifacts.
	OutputRoot string // default: "./captures"

	// ViewportWidth and ViewportHeight are the default capture viewport.
	ViewportWidth  int // default: 1440
	ViewportHeight int // default: 900

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 15s

	// StableTimeout is the max time to wait for the DOM to settle after load.
	StableTimeout time.Duration // default: 5s

	// BlockTrackers drops requests to known ad/tracking domains so the
	// capture shows the design, not the ads.
	BlockTrackers bool // default: true

	// RemoveOverlays strips cookie/consent overlays before capturing.
	RemoveOverlays bool // default: true
}

// DiscoveryConfig controls route discovery.
type DiscoveryConfig struct {
	// DetectThreshold is the minimum detection weight required before a
	// framework-specific strategy is chosen over the universal one.
	DetectThreshold float64 // default: 0.5

	// SettleDelay is how long the history shim collects client-side
	// navigations before being read.
	SettleDelay time.Duration // default: 500ms

	// SitemapTimeout is the deadline for each sitemap/robots fetch.
	SitemapTimeout time.Duration // default: 10s

	// MaxRoutes caps the number of routes returned per discovery.
	MaxRoutes int // default: 200
}

// CropConfig controls section cropping.
type CropConfig struct {
	// MinHeight skips sections shorter than this many pixels.
	MinHeight int // default: 100

	// PNGCompression is the png encoder level: "default", "fast", "best", "none".
	PNGCompression string // default: "default"
}

// VideoConfig controls scroll recording and transcoding.
type VideoConfig struct {
	// Duration is the total choreography budget including holds.
	Duration time.Duration // default: 8s

	// HoldTop and HoldBottom are the pause lengths at the page extremes.
	HoldTop    time.Duration // default: 1s
	HoldBottom time.Duration // default: 1s

	// MinStepDelay is the floor for the per-step scroll pause.
	MinStepDelay time.Duration // default: 50ms

	// MaxSteps caps the scroll step count on very tall pages.
	MaxSteps int // default: 100

	// Width and Height are the recording viewport.
	Width  int // default: 1280
	Height int // default: 720

	// FrameRate is the screencast capture rate fed to the encoder.
	FrameRate int // default: 20

	// MP4CRF and MP4Preset tune the H.264 encode.
	MP4CRF    int    // default: 23
	MP4Preset string // default: "medium"

	// GIFFPS and GIFWidth tune the GIF output.
	GIFFPS   int // default: 10
	GIFWidth int // default: 480
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys (for MVP; replace with DB later).
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the discovery response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 500

	// TTL is how long a cached discovery stays valid.
	TTL time.Duration // default: 15m
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SITELENS_HOST", "0.0.0.0"),
			Port: envIntOr("SITELENS_PORT", 8080),
			Mode: envOr("SITELENS_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("SITELENS_HEADLESS", true),
			DefaultProxy: os.Getenv("SITELENS_PROXY"),
			NoSandbox:    envBoolOr("SITELENS_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("SITELENS_BROWSER_BIN"),
		},
		Pool: PoolConfig{
			MinPages:     envIntOr("SITELENS_MIN_PAGES", 2),
			HardMax:      envIntOr("SITELENS_HARD_MAX_PAGES", 8),
			MaxUses:      envIntOr("SITELENS_PAGE_MAX_USES", 50),
			MaxAge:       envDurationOr("SITELENS_PAGE_MAX_AGE", 10*time.Minute),
			MemThreshold: envFloatOr("SITELENS_MEM_THRESHOLD", 0.9),
		},
		Capture: CaptureConfig{
			OutputRoot:        envOr("SITELENS_OUTPUT_ROOT", "./captures"),
			ViewportWidth:     envIntOr("SITELENS_VIEWPORT_WIDTH", 1440),
			ViewportHeight:    envIntOr("SITELENS_VIEWPORT_HEIGHT", 900),
			NavigationTimeout: envDurationOr("SITELENS_NAV_TIMEOUT", 15*time.Second),
			StableTimeout:     envDurationOr("SITELENS_STABLE_TIMEOUT", 5*time.Second),
			BlockTrackers:     envBoolOr("SITELENS_BLOCK_TRACKERS", true),
			RemoveOverlays:    envBoolOr("SITELENS_REMOVE_OVERLAYS", true),
		},
		Discovery: DiscoveryConfig{
			DetectThreshold: envFloatOr("SITELENS_DETECT_THRESHOLD", 0.5),
			SettleDelay:     envDurationOr("SITELENS_SETTLE_DELAY", 500*time.Millisecond),
			SitemapTimeout:  envDurationOr("SITELENS_SITEMAP_TIMEOUT", 10*time.Second),
			MaxRoutes:       envIntOr("SITELENS_MAX_ROUTES", 200),
		},
		Crop: CropConfig{
			MinHeight:      envIntOr("SITELENS_CROP_MIN_HEIGHT", 100),
			PNGCompression: envOr("SITELENS_PNG_COMPRESSION", "default"),
		},
		Video: VideoConfig{
			Duration:     envDurationOr("SITELENS_VIDEO_DURATION", 8*time.Second),
			HoldTop:      envDurationOr("SITELENS_VIDEO_HOLD_TOP", time.Second),
			HoldBottom:   envDurationOr("SITELENS_VIDEO_HOLD_BOTTOM", time.Second),
			MinStepDelay: envDurationOr("SITELENS_VIDEO_MIN_STEP_DELAY", 50*time.Millisecond),
			MaxSteps:     envIntOr("SITELENS_VIDEO_MAX_STEPS", 100),
			Width:        envIntOr("SITELENS_VIDEO_WIDTH", 1280),
			Height:       envIntOr("SITELENS_VIDEO_HEIGHT", 720),
			FrameRate:    envIntOr("SITELENS_VIDEO_FRAMERATE", 20),
			MP4CRF:       envIntOr("SITELENS_MP4_CRF", 23),
			MP4Preset:    envOr("SITELENS_MP4_PRESET", "medium"),
			GIFFPS:       envIntOr("SITELENS_GIF_FPS", 10),
			GIFWidth:     envIntOr("SITELENS_GIF_WIDTH", 480),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SITELENS_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SITELENS_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SITELENS_RATE_RPS", 2.0),
			Burst:             envIntOr("SITELENS_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SITELENS_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("SITELENS_CACHE_TTL", 15*time.Minute),
		},
		Log: LogConfig{
			Level:  envOr("SITELENS_LOG_LEVEL", "info"),
			Format: envOr("SITELENS_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
