package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sitelens/sitelens/models"
)

// stubFfmpeg drops an executable named ffmpeg into a fresh dir and
// returns the dir for use as PATH.
func stubFfmpeg(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(filepath.Join(dir, "ffmpeg"), script, 0o755); err != nil {
		t.Fatalf("writing ffmpeg stub: %v", err)
	}
	return dir
}

func TestTranscoder_UnavailableWithoutBinary(t *testing.T) {
	t.Setenv("PATH", "")

	tr := &Transcoder{}
	if tr.Available() {
		t.Fatal("transcoder should be unavailable with an empty PATH")
	}

	_, err := tr.ToMP4(context.Background(), "in.webm", "out.mp4", nil)
	var capErr *models.CaptureError
	if !errors.As(err, &capErr) || capErr.Code != models.ErrCodeTranscoderUnavailable {
		t.Errorf("ToMP4: got %v, want %s", err, models.ErrCodeTranscoderUnavailable)
	}

	_, err = tr.ToGIF(context.Background(), "in.webm", "out.gif", nil)
	if !errors.As(err, &capErr) || capErr.Code != models.ErrCodeTranscoderUnavailable {
		t.Errorf("ToGIF: got %v, want %s", err, models.ErrCodeTranscoderUnavailable)
	}
}

func TestTranscoder_FindsBinaryOnPath(t *testing.T) {
	t.Setenv("PATH", stubFfmpeg(t))

	tr := &Transcoder{}
	if !tr.Available() {
		t.Error("transcoder should find the stub ffmpeg on PATH")
	}
}

func TestTranscoder_ProbeOutcomeIsPermanent(t *testing.T) {
	stub := stubFfmpeg(t)
	t.Setenv("PATH", "")

	tr := &Transcoder{}
	if tr.Available() {
		t.Fatal("first probe should fail with an empty PATH")
	}

	// The binary appearing later must not flip an already-probed instance.
	t.Setenv("PATH", stub)
	if tr.Available() {
		t.Error("probe outcome should be permanent per instance")
	}
	if !(&Transcoder{}).Available() {
		t.Error("a fresh instance should probe again and succeed")
	}
}

func TestMP4Stream_EncodeArguments(t *testing.T) {
	args := strings.Join(mp4Stream("in.webm", "out.mp4", &MP4Options{}).Compile().Args, " ")

	for _, want := range []string{
		"-c:v libx264",
		"-crf 23",
		"-preset medium",
		"-pix_fmt yuv420p",
		"-movflags +faststart",
		"scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-y",
		"out.mp4",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("mp4 args missing %q: %s", want, args)
		}
	}
}

func TestMP4Stream_CustomQuality(t *testing.T) {
	args := strings.Join(mp4Stream("in.webm", "out.mp4", &MP4Options{CRF: 18, Preset: "slow"}).Compile().Args, " ")
	if !strings.Contains(args, "-crf 18") || !strings.Contains(args, "-preset slow") {
		t.Errorf("custom quality not applied: %s", args)
	}
}

func TestGIFStreams_TwoPassArguments(t *testing.T) {
	palette := strings.Join(gifPaletteStream("in.webm", "pal.png", &GIFOptions{}).Compile().Args, " ")
	if !strings.Contains(palette, "palettegen=stats_mode=diff") {
		t.Errorf("palette pass missing palettegen: %s", palette)
	}
	if !strings.Contains(palette, "fps=10,scale=480:-1:flags=lanczos") {
		t.Errorf("palette pass missing fps/scale chain: %s", palette)
	}

	render := strings.Join(gifRenderStream("in.webm", "pal.png", "out.gif", &GIFOptions{}).Compile().Args, " ")
	if !strings.Contains(render, "paletteuse") {
		t.Errorf("render pass missing paletteuse: %s", render)
	}
	if !strings.Contains(render, "bayer") {
		t.Errorf("render pass missing bayer dithering: %s", render)
	}
	if !strings.Contains(render, "pal.png") {
		t.Errorf("render pass missing palette input: %s", render)
	}
}

func TestGIFStreams_CustomSize(t *testing.T) {
	palette := strings.Join(gifPaletteStream("in.webm", "pal.png", &GIFOptions{FPS: 15, Width: 320}).Compile().Args, " ")
	if !strings.Contains(palette, "fps=15,scale=320:-1") {
		t.Errorf("custom fps/width not applied: %s", palette)
	}
}
