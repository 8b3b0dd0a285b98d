package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sitelens/sitelens/models"
)

type fakeSourcePage struct {
	url     string
	browser Browser
}

func (p *fakeSourcePage) URL() string      { return p.url }
func (p *fakeSourcePage) Browser() Browser { return p.browser }

func TestCaptureVideo_WebM(t *testing.T) {
	rec := &fakeRecorder{pageHeight: 600}
	page := &fakeSourcePage{url: "https://example.com/pricing", browser: rec}
	dir := t.TempDir()

	result, err := CaptureVideo(context.Background(), page, dir, fastOptions())
	if err != nil {
		t.Fatalf("CaptureVideo failed: %v", err)
	}

	want := filepath.Join(dir, "page-recording.webm")
	if result.WebM != want {
		t.Errorf("webm path: got %q, want %q", result.WebM, want)
	}
	if result.Output != result.WebM {
		t.Errorf("output should point at the webm, got %q", result.Output)
	}
	if result.ConversionError != "" {
		t.Errorf("unexpected conversion error: %q", result.ConversionError)
	}
	if result.Record == nil || result.Record.Path != want {
		t.Errorf("record result should carry the renamed path, got %+v", result.Record)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("renamed recording missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "provisional.webm")); !os.IsNotExist(err) {
		t.Error("provisional file should have been renamed away")
	}
}

func TestCaptureVideo_CustomFilename(t *testing.T) {
	rec := &fakeRecorder{pageHeight: 600}
	page := &fakeSourcePage{url: "https://example.com", browser: rec}
	dir := t.TempDir()
	opts := fastOptions()
	opts.Filename = "homepage-motion"

	result, err := CaptureVideo(context.Background(), page, dir, opts)
	if err != nil {
		t.Fatalf("CaptureVideo failed: %v", err)
	}
	if filepath.Base(result.WebM) != "homepage-motion.webm" {
		t.Errorf("filename not applied: %q", result.WebM)
	}
}

func TestCaptureVideo_RenameFailureKeepsProvisionalPath(t *testing.T) {
	// The recorder never writes the provisional file, so the rename fails
	// and the provisional path must be kept rather than erroring out.
	rec := &fakeRecorder{pageHeight: 600, skipVideoFile: true}
	page := &fakeSourcePage{url: "https://example.com", browser: rec}
	dir := t.TempDir()

	result, err := CaptureVideo(context.Background(), page, dir, fastOptions())
	if err != nil {
		t.Fatalf("CaptureVideo failed: %v", err)
	}
	want := filepath.Join(dir, "provisional.webm")
	if result.WebM != want {
		t.Errorf("webm path: got %q, want provisional %q", result.WebM, want)
	}
	if result.Output != want {
		t.Errorf("output: got %q, want %q", result.Output, want)
	}
}

func TestCaptureVideo_GIFWithoutTranscoder(t *testing.T) {
	t.Setenv("PATH", "")
	rec := &fakeRecorder{pageHeight: 600}
	page := &fakeSourcePage{url: "https://example.com", browser: rec}
	dir := t.TempDir()
	opts := fastOptions()
	opts.Format = "gif"
	opts.Transcoder = &Transcoder{}

	result, err := CaptureVideo(context.Background(), page, dir, opts)
	if err != nil {
		t.Fatalf("conversion failures must not raise: %v", err)
	}
	if result.ConversionError == "" {
		t.Error("conversion error should be recorded")
	}
	if result.GIF != "" {
		t.Errorf("gif path should be empty on failure, got %q", result.GIF)
	}
	if result.Output != result.WebM {
		t.Error("output should fall back to the webm")
	}
	if _, err := os.Stat(result.WebM); err != nil {
		t.Errorf("webm must remain usable: %v", err)
	}
}

func TestCaptureVideo_MP4WithoutTranscoder(t *testing.T) {
	t.Setenv("PATH", "")
	rec := &fakeRecorder{pageHeight: 600}
	page := &fakeSourcePage{url: "https://example.com", browser: rec}
	opts := fastOptions()
	opts.Format = "mp4"
	opts.Transcoder = &Transcoder{}

	result, err := CaptureVideo(context.Background(), page, t.TempDir(), opts)
	if err != nil {
		t.Fatalf("conversion failures must not raise: %v", err)
	}
	if result.MP4 != "" || result.ConversionError == "" {
		t.Errorf("mp4 failure not recorded: %+v", result)
	}
}

func TestCaptureVideo_Validation(t *testing.T) {
	rec := &fakeRecorder{pageHeight: 600}
	page := &fakeSourcePage{url: "https://example.com", browser: rec}

	var capErr *models.CaptureError
	if _, err := CaptureVideo(context.Background(), nil, t.TempDir(), nil); !errors.As(err, &capErr) || capErr.Code != models.ErrCodeInvalidInput {
		t.Errorf("nil page: got %v", err)
	}
	if _, err := CaptureVideo(context.Background(), page, "  ", nil); !errors.As(err, &capErr) || capErr.Code != models.ErrCodeInvalidInput {
		t.Errorf("blank dir: got %v", err)
	}

	opts := fastOptions()
	opts.Format = "avi"
	if _, err := CaptureVideo(context.Background(), page, t.TempDir(), opts); !errors.As(err, &capErr) || capErr.Code != models.ErrCodeInvalidInput {
		t.Errorf("bad format: got %v", err)
	}
}

func TestCaptureVideo_RecordingFailurePropagates(t *testing.T) {
	rec := &fakeRecorder{newContextErr: errors.New("no recording context")}
	page := &fakeSourcePage{url: "https://example.com", browser: rec}

	_, err := CaptureVideo(context.Background(), page, t.TempDir(), fastOptions())
	var capErr *models.CaptureError
	if !errors.As(err, &capErr) || capErr.Code != models.ErrCodeRecordingFailed {
		t.Errorf("got %v, want %s", err, models.ErrCodeRecordingFailed)
	}
}
