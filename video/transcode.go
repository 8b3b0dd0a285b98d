package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/sitelens/sitelens/models"
)

// Transcoder converts WebM recordings to MP4 and GIF through ffmpeg. The
// binary is probed lazily on first use and the outcome is permanent for
// the lifetime of the instance: an absent binary is expected and silent,
// any other probe failure is logged once.
type Transcoder struct {
	probe     sync.Once
	available bool
	path      string
}

// DefaultTranscoder is the process-wide instance used when no explicit
// transcoder is configured.
var DefaultTranscoder = &Transcoder{}

// Available reports whether ffmpeg can be used, probing on first call.
func (t *Transcoder) Available() bool {
	t.probe.Do(func() {
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			if !errors.Is(err, exec.ErrNotFound) {
				slog.Warn("ffmpeg probe failed", "error", err)
			}
			return
		}
		t.available = true
		t.path = path
		slog.Debug("ffmpeg available", "path", path)
	})
	return t.available
}

// Available reports whether the process-wide transcoder can run.
func Available() bool {
	return DefaultTranscoder.Available()
}

// MP4Options tune the H.264 encode.
type MP4Options struct {
	CRF    int    // constant rate factor, default 23
	Preset string // encoder speed/size preset, default "medium"
}

// GIFOptions tune the palette-based GIF encode.
type GIFOptions struct {
	FPS   int // default 10
	Width int // output width in pixels, default 480; height keeps aspect
}

// ToMP4 converts a recording to a web-playable MP4: H.264 with a broadly
// compatible pixel format, dimensions forced even for the encoder, and
// the moov atom up front so playback can start while downloading.
func (t *Transcoder) ToMP4(ctx context.Context, inputPath, outputPath string, opts *MP4Options) (*models.ConvertResult, error) {
	if !t.Available() {
		return nil, models.NewCaptureError(models.ErrCodeTranscoderUnavailable, "ffmpeg is not available", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, models.NewCaptureError(models.ErrCodeTimeout, "conversion cancelled", err)
	}
	if opts == nil {
		opts = &MP4Options{}
	}

	if err := mp4Stream(inputPath, outputPath, opts).Run(); err != nil {
		return nil, models.NewCaptureError(models.ErrCodeConversionFailed, "mp4 conversion failed", err)
	}
	return convertResult(outputPath, "mp4")
}

// ToGIF converts a recording to GIF in two passes: palettegen builds an
// optimized palette for the scaled clip, paletteuse applies it with
// ordered dithering. The palette file is removed even when the second
// pass fails.
func (t *Transcoder) ToGIF(ctx context.Context, inputPath, outputPath string, opts *GIFOptions) (*models.ConvertResult, error) {
	if !t.Available() {
		return nil, models.NewCaptureError(models.ErrCodeTranscoderUnavailable, "ffmpeg is not available", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, models.NewCaptureError(models.ErrCodeTimeout, "conversion cancelled", err)
	}
	if opts == nil {
		opts = &GIFOptions{}
	}

	palettePath := outputPath + ".palette.png"
	defer os.Remove(palettePath)

	if err := gifPaletteStream(inputPath, palettePath, opts).Run(); err != nil {
		return nil, models.NewCaptureError(models.ErrCodeConversionFailed, "gif palette generation failed", err)
	}
	if err := gifRenderStream(inputPath, palettePath, outputPath, opts).Run(); err != nil {
		return nil, models.NewCaptureError(models.ErrCodeConversionFailed, "gif rendering failed", err)
	}
	return convertResult(outputPath, "gif")
}

func mp4Stream(inputPath, outputPath string, opts *MP4Options) *ffmpeg.Stream {
	crf := opts.CRF
	if crf <= 0 {
		crf = 23
	}
	preset := opts.Preset
	if preset == "" {
		preset = "medium"
	}
	return ffmpeg.Input(inputPath).
		Output(outputPath, ffmpeg.KwArgs{
			"vf":       "scale=trunc(iw/2)*2:trunc(ih/2)*2",
			"c:v":      "libx264",
			"crf":      strconv.Itoa(crf),
			"preset":   preset,
			"pix_fmt":  "yuv420p",
			"movflags": "+faststart",
		}).
		OverWriteOutput().
		Silent(true)
}

func gifPaletteStream(inputPath, palettePath string, opts *GIFOptions) *ffmpeg.Stream {
	fps, width := gifDefaults(opts)
	return ffmpeg.Input(inputPath).
		Output(palettePath, ffmpeg.KwArgs{
			"vf": fmt.Sprintf("fps=%d,scale=%d:-1:flags=lanczos,palettegen=stats_mode=diff", fps, width),
		}).
		OverWriteOutput().
		Silent(true)
}

func gifRenderStream(inputPath, palettePath, outputPath string, opts *GIFOptions) *ffmpeg.Stream {
	fps, width := gifDefaults(opts)
	clip := ffmpeg.Input(inputPath).
		Filter("fps", ffmpeg.Args{strconv.Itoa(fps)}).
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:-1", width)}, ffmpeg.KwArgs{"flags": "lanczos"})
	palette := ffmpeg.Input(palettePath)
	return ffmpeg.Filter([]*ffmpeg.Stream{clip, palette}, "paletteuse", ffmpeg.Args{}, ffmpeg.KwArgs{
		"dither":      "bayer",
		"bayer_scale": "5",
	}).
		Output(outputPath).
		OverWriteOutput().
		Silent(true)
}

func gifDefaults(opts *GIFOptions) (fps, width int) {
	fps = opts.FPS
	if fps <= 0 {
		fps = 10
	}
	width = opts.Width
	if width <= 0 {
		width = 480
	}
	return fps, width
}

func convertResult(outputPath, format string) (*models.ConvertResult, error) {
	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, models.NewCaptureError(models.ErrCodeConversionFailed, "converted file missing", err)
	}
	return &models.ConvertResult{Path: outputPath, Format: format, SizeBytes: info.Size()}, nil
}
