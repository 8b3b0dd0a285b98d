package models

// Bounds is a section's absolute position on the rendered page, in CSS
// pixels. Values come from DOM rect measurements and can be fractional.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Section is a detected layout region of a page, the input unit for
// cropping. Bounds are relative to the full-page screenshot origin.
type Section struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"` // header, hero, features, footer, ...
	Selector string `json:"selector,omitempty"`
	Bounds   Bounds `json:"bounds"`
}

// CropRect is a clamped integer crop region guaranteed to lie within the
// source image: left/top >= 0, left+width <= imageWidth, top+height <= imageHeight.
type CropRect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CroppedSection records one successfully cropped section image.
type CroppedSection struct {
	Index        int      `json:"index"`
	Name         string   `json:"name"`
	Filename     string   `json:"filename"`
	Path         string   `json:"path"`
	RelativePath string   `json:"relative_path"`
	Rect         CropRect `json:"rect"`
	Role         string   `json:"role,omitempty"`
	Selector     string   `json:"selector,omitempty"`
}

// SkipRecord explains why a section produced no image. Sections are never
// silently dropped: anything not in CroppedSections appears here.
type SkipRecord struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// CropManifest is the sections.json document written next to the cropped
// images after every run.
type CropManifest struct {
	Source       string           `json:"source"`
	SourceWidth  int              `json:"source_width"`
	SourceHeight int              `json:"source_height"`
	CroppedCount int              `json:"cropped_count"`
	SkippedCount int              `json:"skipped_count"`
	Sections     []CroppedSection `json:"sections"`
	Skipped      []SkipRecord     `json:"skipped,omitempty"`
	GeneratedAt  string           `json:"generated_at"`
}

// CropResult is the outcome of cropping one screenshot into sections.
type CropResult struct {
	Sections     []CroppedSection `json:"sections"`
	Skipped      []SkipRecord     `json:"skipped,omitempty"`
	ManifestPath string           `json:"manifest_path"`
	Directory    string           `json:"directory"`
}

// CropSummary aggregates a CropResult for logs and API responses.
type CropSummary struct {
	Cropped   int    `json:"cropped"`
	Skipped   int    `json:"skipped"`
	Directory string `json:"directory"`
	TotalArea int64  `json:"total_area"` // sum of cropped pixel areas
}
