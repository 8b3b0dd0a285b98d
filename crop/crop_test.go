package crop

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sitelens/sitelens/config"
	"github.com/sitelens/sitelens/models"
)

// writeTestScreenshot writes a PNG gradient of the given size and returns
// its path.
func writeTestScreenshot(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, "desktop.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create screenshot: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode screenshot: %v", err)
	}
	return path
}

func testSections() []models.Section {
	return []models.Section{
		{Index: 0, Name: "Hero Banner", Role: "hero", Bounds: models.Bounds{X: 0, Y: 0, Width: 800, Height: 400}},
		{Index: 1, Name: "Tiny Strip", Bounds: models.Bounds{X: 0, Y: 400, Width: 800, Height: 40}},
		{Index: 2, Name: "Features", Role: "features", Bounds: models.Bounds{X: -50, Y: 380.4, Width: 2000, Height: 300}},
		{Index: 3, Name: "Ghost", Bounds: models.Bounds{X: 100, Y: 100, Width: 0, Height: 0}},
	}
}

func TestCropSections(t *testing.T) {
	dir := t.TempDir()
	shot := writeTestScreenshot(t, dir, 800, 1200)
	outDir := filepath.Join(dir, "sections")

	c := New(config.CropConfig{MinHeight: 100})
	res, err := c.CropSections(context.Background(), shot, testSections(), outDir, nil)
	if err != nil {
		t.Fatalf("CropSections returned error: %v", err)
	}

	if len(res.Sections) != 2 {
		t.Fatalf("expected 2 cropped sections, got %d: %+v", len(res.Sections), res.Sections)
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("expected 2 skip records, got %d: %+v", len(res.Skipped), res.Skipped)
	}

	hero := res.Sections[0]
	if hero.Filename != "section-0-hero-banner.png" {
		t.Errorf("hero filename = %q, want section-0-hero-banner.png", hero.Filename)
	}
	if _, err := os.Stat(hero.Path); err != nil {
		t.Errorf("hero image not written: %v", err)
	}

	// The features section is clamped: x -50 -> 0, width 2000 -> 800.
	features := res.Sections[1]
	if features.Rect.Left != 0 || features.Rect.Width != 800 {
		t.Errorf("features rect not clamped: %+v", features.Rect)
	}

	// Cropped file dimensions match the clamped rect.
	f, err := os.Open(hero.Path)
	if err != nil {
		t.Fatalf("open cropped image: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode cropped image: %v", err)
	}
	if img.Bounds().Dx() != 800 || img.Bounds().Dy() != 400 {
		t.Errorf("hero crop size = %dx%d, want 800x400", img.Bounds().Dx(), img.Bounds().Dy())
	}

	// Skip reasons are explicit.
	if !strings.Contains(res.Skipped[0].Reason, "below minimum") {
		t.Errorf("short section reason = %q, want a below-minimum reason", res.Skipped[0].Reason)
	}
	if !strings.Contains(res.Skipped[1].Reason, "degenerate") {
		t.Errorf("zero-size section reason = %q, want a degenerate-region reason", res.Skipped[1].Reason)
	}
}

func TestCropSections_Manifest(t *testing.T) {
	dir := t.TempDir()
	shot := writeTestScreenshot(t, dir, 800, 1200)
	outDir := filepath.Join(dir, "sections")

	c := New(config.CropConfig{MinHeight: 100})
	res, err := c.CropSections(context.Background(), shot, testSections(), outDir, nil)
	if err != nil {
		t.Fatalf("CropSections returned error: %v", err)
	}

	data, err := os.ReadFile(res.ManifestPath)
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	var m models.CropManifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}

	if m.Source != "desktop.png" {
		t.Errorf("manifest source = %q, want desktop.png", m.Source)
	}
	if m.SourceWidth != 800 || m.SourceHeight != 1200 {
		t.Errorf("manifest dimensions = %dx%d, want 800x1200", m.SourceWidth, m.SourceHeight)
	}
	if m.CroppedCount != len(m.Sections) || m.SkippedCount != len(m.Skipped) {
		t.Errorf("manifest counts disagree with records: %+v", m)
	}
	if m.GeneratedAt == "" {
		t.Error("manifest has no timestamp")
	}
}

func TestCropSections_SkippedOmittedWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	shot := writeTestScreenshot(t, dir, 800, 1200)

	sections := []models.Section{
		{Index: 0, Name: "Hero", Bounds: models.Bounds{X: 0, Y: 0, Width: 800, Height: 400}},
	}

	c := New(config.CropConfig{MinHeight: 100})
	res, err := c.CropSections(context.Background(), shot, sections, filepath.Join(dir, "sections"), nil)
	if err != nil {
		t.Fatalf("CropSections returned error: %v", err)
	}

	data, err := os.ReadFile(res.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if strings.Contains(string(data), `"skipped"`) {
		t.Errorf("manifest should omit the skipped field when nothing was skipped:\n%s", data)
	}
}

func TestCropSections_Idempotent(t *testing.T) {
	dir := t.TempDir()
	shot := writeTestScreenshot(t, dir, 800, 1200)

	c := New(config.CropConfig{MinHeight: 100})

	load := func(outDir string) models.CropManifest {
		t.Helper()
		res, err := c.CropSections(context.Background(), shot, testSections(), outDir, nil)
		if err != nil {
			t.Fatalf("CropSections returned error: %v", err)
		}
		data, err := os.ReadFile(res.ManifestPath)
		if err != nil {
			t.Fatalf("read manifest: %v", err)
		}
		var m models.CropManifest
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("parse manifest: %v", err)
		}
		return m
	}

	m1 := load(filepath.Join(dir, "run1", "sections"))
	m2 := load(filepath.Join(dir, "run2", "sections"))

	// Everything except the timestamp and absolute paths is identical.
	m1.GeneratedAt, m2.GeneratedAt = "", ""
	for i := range m1.Sections {
		m1.Sections[i].Path = ""
	}
	for i := range m2.Sections {
		m2.Sections[i].Path = ""
	}
	if !reflect.DeepEqual(m1, m2) {
		t.Errorf("identical inputs produced different manifests:\n%+v\nvs\n%+v", m1, m2)
	}
}

func TestCropSections_NilCodec(t *testing.T) {
	c := NewWithCodec(nil, config.CropConfig{})
	if c.Available() {
		t.Error("cropper with nil codec should report unavailable")
	}

	_, err := c.CropSections(context.Background(), "any.png", nil, t.TempDir(), nil)
	var ce *models.CaptureError
	if !errors.As(err, &ce) || ce.Code != models.ErrCodeCodecUnavailable {
		t.Fatalf("expected CODEC_UNAVAILABLE, got %v", err)
	}
}

func TestCropSections_MissingScreenshot(t *testing.T) {
	c := New(config.CropConfig{})
	_, err := c.CropSections(context.Background(), filepath.Join(t.TempDir(), "nope.png"), nil, t.TempDir(), nil)
	var ce *models.CaptureError
	if !errors.As(err, &ce) || ce.Code != models.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT for unreadable screenshot, got %v", err)
	}
}

func TestCropSections_MinHeightOverride(t *testing.T) {
	dir := t.TempDir()
	shot := writeTestScreenshot(t, dir, 800, 1200)

	sections := []models.Section{
		{Index: 0, Name: "Strip", Bounds: models.Bounds{X: 0, Y: 0, Width: 800, Height: 60}},
	}

	c := New(config.CropConfig{MinHeight: 100})
	res, err := c.CropSections(context.Background(), shot, sections, filepath.Join(dir, "s"), &Options{MinHeight: 50})
	if err != nil {
		t.Fatalf("CropSections returned error: %v", err)
	}
	if len(res.Sections) != 1 || len(res.Skipped) != 0 {
		t.Errorf("60px section should pass a 50px override, got %+v / %+v", res.Sections, res.Skipped)
	}
}
