// Package video records scroll-through videos of live pages and optionally
// transcodes them to delivery formats. Recording happens in a dedicated
// browsing context whose output is bound at creation time, so every capture
// call opens (and always closes) its own context.
package video

import (
	"context"
	"time"

	"github.com/ysmood/gson"
)

// Browser opens recording contexts. The bundled rod adapter implements it;
// tests substitute fakes.
type Browser interface {
	NewRecordingContext(ctx context.Context, opts *RecordingOptions) (RecordingContext, error)

	// Connected reports whether the underlying browser is still reachable.
	// Recording refuses to start against a dead browser.
	Connected() bool
}

// RecordingContext is an isolated browsing context that records the page
// opened inside it. Close stops the recorder and flushes the video file;
// the recording is not complete until Close has returned.
type RecordingContext interface {
	NewPage(ctx context.Context) (RecordingPage, error)
	Close() error
}

// RecordingPage is the single page driven through the scroll choreography.
//
// VideoPath reports where the recording is written. It may only be called
// after Close; before that the recorder still owns the file and VideoPath
// returns an error.
type RecordingPage interface {
	Navigate(ctx context.Context, url string) error
	Eval(ctx context.Context, js string) (gson.JSON, error)
	Close() error
	VideoPath() (string, error)
}

// SourcePage is an already-open page a capture call takes its target URL
// and browser handle from. The page itself is never recorded; recording
// happens in a fresh context on the same browser.
type SourcePage interface {
	URL() string
	Browser() Browser
}

// RecordingOptions configure one recording context.
type RecordingOptions struct {
	Width     int
	Height    int
	FrameRate int

	// OutputDir is where the recorder writes its provisional file.
	OutputDir string
}

// Options tune a recording and its optional conversion. Zero values take
// the package defaults.
type Options struct {
	// Duration is the total recording budget including holds. Default 8s.
	Duration time.Duration

	// HoldTop and HoldBottom pause the page at the extremes so entrance
	// animations and footers get screen time. Default 1s each. The final
	// hold after scrolling back up reuses HoldTop.
	HoldTop    time.Duration
	HoldBottom time.Duration

	// MinStepDelay is the floor for the per-step pause. Default 50ms.
	MinStepDelay time.Duration

	// MaxSteps caps scroll steps on very tall pages. Default 100.
	MaxSteps int

	// Width and Height set the recording viewport. Default 1280x720.
	Width  int
	Height int

	// FrameRate of the recording. Default 20.
	FrameRate int

	// Format requested from CaptureVideo: "webm", "mp4" or "gif".
	// Default "webm".
	Format string

	// Filename is the base name without extension. Default "page-recording".
	Filename string

	// MP4 encode settings.
	MP4CRF    int
	MP4Preset string

	// GIF encode settings.
	GIFFPS   int
	GIFWidth int

	// Transcoder overrides the process-wide default, mainly for tests.
	Transcoder *Transcoder
}

const (
	defaultDuration     = 8 * time.Second
	defaultHold         = time.Second
	defaultMinStepDelay = 50 * time.Millisecond
	defaultMaxSteps     = 100
	defaultWidth        = 1280
	defaultHeight       = 720
	defaultFrameRate    = 20
	defaultFilename     = "page-recording"
)

func (o *Options) withDefaults() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.Duration <= 0 {
		out.Duration = defaultDuration
	}
	if out.HoldTop <= 0 {
		out.HoldTop = defaultHold
	}
	if out.HoldBottom <= 0 {
		out.HoldBottom = defaultHold
	}
	if out.MinStepDelay <= 0 {
		out.MinStepDelay = defaultMinStepDelay
	}
	if out.MaxSteps <= 0 {
		out.MaxSteps = defaultMaxSteps
	}
	if out.Width <= 0 {
		out.Width = defaultWidth
	}
	if out.Height <= 0 {
		out.Height = defaultHeight
	}
	if out.FrameRate <= 0 {
		out.FrameRate = defaultFrameRate
	}
	if out.Format == "" {
		out.Format = "webm"
	}
	if out.Filename == "" {
		out.Filename = defaultFilename
	}
	if out.MP4CRF <= 0 {
		out.MP4CRF = 23
	}
	if out.MP4Preset == "" {
		out.MP4Preset = "medium"
	}
	if out.GIFFPS <= 0 {
		out.GIFFPS = 10
	}
	if out.GIFWidth <= 0 {
		out.GIFWidth = 480
	}
	return &out
}
