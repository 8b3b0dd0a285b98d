package video

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sitelens/sitelens/models"
)

// CaptureVideo records a scroll-through of the page's URL and, when a
// non-WebM format was requested, converts the recording. Conversion
// problems are recorded in the result rather than raised so the WebM
// stays usable; only validation and recording failures return an error.
func CaptureVideo(ctx context.Context, page SourcePage, outputDir string, opts *Options) (*models.CaptureResult, error) {
	if page == nil {
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput, "page is required for capture", nil)
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput, "output directory is required for capture", nil)
	}
	o := opts.withDefaults()
	switch o.Format {
	case "webm", "mp4", "gif":
	default:
		return nil, models.NewCaptureError(models.ErrCodeInvalidInput, "unsupported video format: "+o.Format, nil)
	}

	rec, err := RecordScroll(ctx, page.Browser(), page.URL(), outputDir, o)
	if err != nil {
		return nil, err
	}

	// The recorder picks its own provisional filename; move it to the
	// caller's name. A failed rename keeps the provisional path.
	webmPath := filepath.Join(outputDir, o.Filename+".webm")
	if rec.Path != webmPath {
		if err := os.Rename(rec.Path, webmPath); err != nil {
			slog.Warn("keeping provisional recording path", "path", rec.Path, "error", err)
			webmPath = rec.Path
		}
	}
	rec.Path = webmPath

	result := &models.CaptureResult{
		WebM:   webmPath,
		Output: webmPath,
		Record: rec,
	}
	if o.Format == "webm" {
		return result, nil
	}

	transcoder := o.Transcoder
	if transcoder == nil {
		transcoder = DefaultTranscoder
	}
	targetPath := filepath.Join(outputDir, o.Filename+"."+o.Format)

	var convErr error
	switch o.Format {
	case "mp4":
		_, convErr = transcoder.ToMP4(ctx, webmPath, targetPath, &MP4Options{CRF: o.MP4CRF, Preset: o.MP4Preset})
		if convErr == nil {
			result.MP4 = targetPath
		}
	case "gif":
		_, convErr = transcoder.ToGIF(ctx, webmPath, targetPath, &GIFOptions{FPS: o.GIFFPS, Width: o.GIFWidth})
		if convErr == nil {
			result.GIF = targetPath
		}
	}
	if convErr != nil {
		slog.Warn("video conversion failed, keeping webm", "format", o.Format, "error", convErr)
		result.ConversionError = convErr.Error()
		return result, nil
	}

	result.Output = targetPath
	return result, nil
}
