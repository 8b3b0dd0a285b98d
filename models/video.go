package models

// RecordResult describes a finished scroll recording. Fields are set once
// when the recording completes and never mutated afterwards.
type RecordResult struct {
	// Path is the final location of the WebM file.
	Path string `json:"path"`

	// Format is always "webm"; conversions produce separate artifacts.
	Format string `json:"format"`

	// DurationMs is the wall-clock duration of the recording session.
	DurationMs int64 `json:"duration_ms"`

	// ScrollSteps is the number of half-viewport scroll steps per direction.
	// Zero for pages that fit in the viewport.
	ScrollSteps int `json:"scroll_steps"`

	// PageHeight is the measured full document height in CSS pixels.
	PageHeight int `json:"page_height"`
}

// ConvertResult describes a single transcoded artifact.
type ConvertResult struct {
	Path      string `json:"path"`
	Format    string `json:"format"` // "mp4" or "gif"
	SizeBytes int64  `json:"size_bytes"`
}

// CaptureResult is the outcome of a record-and-convert operation. The WebM
// recording is always present when the operation succeeds; converted
// artifacts are optional and their failure is recorded, not raised.
type CaptureResult struct {
	// WebM is the path of the recording after the post-record rename.
	WebM string `json:"webm"`

	// MP4 and GIF are set only when the respective conversion succeeded.
	MP4 string `json:"mp4,omitempty"`
	GIF string `json:"gif,omitempty"`

	// Output points at the best available artifact: the converted file when
	// conversion succeeded, the WebM otherwise.
	Output string `json:"output"`

	// ConversionError holds the conversion failure message when a requested
	// conversion could not be performed. The WebM remains usable.
	ConversionError string `json:"conversion_error,omitempty"`

	// Record carries the underlying recording details.
	Record *RecordResult `json:"record,omitempty"`
}
