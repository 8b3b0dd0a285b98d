// Package crop cuts a full-page screenshot into per-section images and
// writes a manifest describing the result. Geometry is clamped to the
// source image, undersized or degenerate sections are skipped with a
// recorded reason, and output naming is deterministic.
package crop

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/sitelens/sitelens/config"
	"github.com/sitelens/sitelens/models"
)

// ManifestName is the manifest file written next to the section images.
const ManifestName = "sections.json"

// DefaultMinHeight skips sections shorter than this many pixels.
const DefaultMinHeight = 100

// Codec is the image-processing capability the cropper depends on.
type Codec interface {
	// Decode loads the source image from disk.
	Decode(path string) (image.Image, error)

	// EncodeCrop writes the given sub-rectangle of src to dest as PNG.
	EncodeCrop(src image.Image, rect image.Rectangle, dest string) error
}

// imagingCodec is the default Codec backed by disintegration/imaging.
type imagingCodec struct {
	level png.CompressionLevel
}

func (c *imagingCodec) Decode(path string) (image.Image, error) {
	return imaging.Open(path)
}

func (c *imagingCodec) EncodeCrop(src image.Image, rect image.Rectangle, dest string) error {
	return imaging.Save(imaging.Crop(src, rect), dest, imaging.PNGCompressionLevel(c.level))
}

func compressionLevel(name string) png.CompressionLevel {
	switch name {
	case "fast":
		return png.BestSpeed
	case "best":
		return png.BestCompression
	case "none":
		return png.NoCompression
	default:
		return png.DefaultCompression
	}
}

// Options tunes a single crop run.
type Options struct {
	// MinHeight overrides the cropper's configured minimum section height.
	MinHeight int
}

// Cropper crops screenshots into section images.
type Cropper struct {
	codec     Codec
	minHeight int
}

// New creates a Cropper with the imaging-backed codec.
func New(cfg config.CropConfig) *Cropper {
	return NewWithCodec(&imagingCodec{level: compressionLevel(cfg.PNGCompression)}, cfg)
}

// NewWithCodec creates a Cropper with a custom codec. A nil codec yields
// a cropper that reports unavailable and fails fast.
func NewWithCodec(codec Codec, cfg config.CropConfig) *Cropper {
	minHeight := cfg.MinHeight
	if minHeight <= 0 {
		minHeight = DefaultMinHeight
	}
	return &Cropper{codec: codec, minHeight: minHeight}
}

// Available reports whether an image codec is wired in.
func (c *Cropper) Available() bool {
	return c != nil && c.codec != nil
}

// CropSections crops each section out of the screenshot into outputDir and
// writes the manifest. The screenshot being unreadable is fatal; individual
// section failures become skip records and the batch continues. Sections
// are processed in input order, so identical inputs produce identical
// results apart from the manifest timestamp.
func (c *Cropper) CropSections(ctx context.Context, screenshotPath string, sections []models.Section, outputDir string, opts *Options) (*models.CropResult, error) {
	if !c.Available() {
		return nil, models.NewCaptureError(models.ErrCodeCodecUnavailable,
			"no image codec available for cropping", nil)
	}
	if screenshotPath == "" || outputDir == "" {
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput,
			"screenshot path and output directory are required", nil)
	}

	minHeight := c.minHeight
	if opts != nil && opts.MinHeight > 0 {
		minHeight = opts.MinHeight
	}

	src, err := c.codec.Decode(screenshotPath)
	if err != nil {
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput,
			fmt.Sprintf("cannot read screenshot %s", filepath.Base(screenshotPath)), err)
	}
	srcBounds := src.Bounds()
	srcW, srcH := srcBounds.Dx(), srcBounds.Dy()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, models.NewCaptureError(models.ErrCodeInternal,
			"cannot create section output directory", err)
	}

	// Sections starts non-nil so the manifest serializes an empty list
	// rather than null.
	result := &models.CropResult{Directory: outputDir, Sections: []models.CroppedSection{}}

	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rect := ClampRect(sec.Bounds, srcW, srcH)
		if rect.Width <= 0 || rect.Height <= 0 {
			result.Skipped = append(result.Skipped, models.SkipRecord{
				Index:  sec.Index,
				Name:   sec.Name,
				Reason: fmt.Sprintf("degenerate region after clamping (%dx%d)", rect.Width, rect.Height),
			})
			continue
		}
		if rect.Height < minHeight {
			result.Skipped = append(result.Skipped, models.SkipRecord{
				Index:  sec.Index,
				Name:   sec.Name,
				Reason: fmt.Sprintf("height %dpx below minimum %dpx", rect.Height, minHeight),
			})
			continue
		}

		filename := fmt.Sprintf("section-%d-%s.png", sec.Index, SanitizeName(sec.Name))
		dest := filepath.Join(outputDir, filename)
		imgRect := image.Rect(rect.Left, rect.Top, rect.Left+rect.Width, rect.Top+rect.Height)

		if err := c.codec.EncodeCrop(src, imgRect, dest); err != nil {
			slog.Warn("section crop failed", "index", sec.Index, "name", sec.Name, "error", err)
			result.Skipped = append(result.Skipped, models.SkipRecord{
				Index:  sec.Index,
				Name:   sec.Name,
				Reason: fmt.Sprintf("crop failed: %v", err),
			})
			continue
		}

		result.Sections = append(result.Sections, models.CroppedSection{
			Index:        sec.Index,
			Name:         sec.Name,
			Filename:     filename,
			Path:         dest,
			RelativePath: filepath.Join(filepath.Base(outputDir), filename),
			Rect:         rect,
			Role:         sec.Role,
			Selector:     sec.Selector,
		})
	}

	manifest := models.CropManifest{
		Source:       filepath.Base(screenshotPath),
		SourceWidth:  srcW,
		SourceHeight: srcH,
		CroppedCount: len(result.Sections),
		SkippedCount: len(result.Skipped),
		Sections:     result.Sections,
		Skipped:      result.Skipped,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	manifestPath := filepath.Join(outputDir, ManifestName)
	if err := writeManifest(manifestPath, &manifest); err != nil {
		return nil, models.NewCaptureError(models.ErrCodeInternal, "cannot write section manifest", err)
	}
	result.ManifestPath = manifestPath

	slog.Debug("sections cropped",
		"source", manifest.Source, "cropped", manifest.CroppedCount, "skipped", manifest.SkippedCount)
	return result, nil
}

func writeManifest(path string, manifest *models.CropManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Summarize aggregates a crop result for logs and API responses.
func Summarize(res *models.CropResult) models.CropSummary {
	s := models.CropSummary{}
	if res == nil {
		return s
	}
	s.Cropped = len(res.Sections)
	s.Skipped = len(res.Skipped)
	s.Directory = res.Directory
	for _, sec := range res.Sections {
		s.TotalArea += int64(sec.Rect.Width) * int64(sec.Rect.Height)
	}
	return s
}
