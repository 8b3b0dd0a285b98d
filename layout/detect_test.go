package layout

import (
	"context"
	"errors"
	"testing"

	"github.com/ysmood/gson"

	"github.com/sitelens/sitelens/models"
)

type fakePage struct {
	payload string
	err     error
}

func (f *fakePage) Eval(ctx context.Context, js string) (gson.JSON, error) {
	if f.err != nil {
		return gson.JSON{}, f.err
	}
	return gson.New(f.payload), nil
}

func TestDetectSections_ParsesPayload(t *testing.T) {
	page := &fakePage{payload: `{
		"width": 1440, "height": 3200,
		"sections": [
			{"name": "Build anything", "role": "hero", "selector": "#hero",
			 "bounds": {"x": 0, "y": 64, "width": 1440, "height": 640}},
			{"name": "", "role": "footer", "selector": "footer:nth-of-type(1)",
			 "bounds": {"x": 0, "y": 2800, "width": 1440, "height": 400}}
		]
	}`}

	layout, err := DetectSections(context.Background(), page, nil)
	if err != nil {
		t.Fatalf("DetectSections failed: %v", err)
	}
	if layout.Width != 1440 || layout.Height != 3200 {
		t.Errorf("page dimensions: got %dx%d, want 1440x3200", layout.Width, layout.Height)
	}
	if len(layout.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(layout.Sections))
	}

	hero := layout.Sections[0]
	if hero.Index != 0 || hero.Name != "Build anything" || hero.Role != "hero" {
		t.Errorf("hero section: got %+v", hero)
	}
	if hero.Bounds.Y != 64 || hero.Bounds.Height != 640 {
		t.Errorf("hero bounds: got %+v", hero.Bounds)
	}

	footer := layout.Sections[1]
	if footer.Index != 1 {
		t.Errorf("footer index: got %d, want 1", footer.Index)
	}
	if footer.Name != "Footer" {
		t.Errorf("unnamed section should default from role: got %q", footer.Name)
	}
}

func TestDetectSections_EmptyFallsBackToFullPage(t *testing.T) {
	page := &fakePage{payload: `{"width": 1280, "height": 2400, "sections": []}`}

	layout, err := DetectSections(context.Background(), page, nil)
	if err != nil {
		t.Fatalf("DetectSections failed: %v", err)
	}
	if len(layout.Sections) != 1 {
		t.Fatalf("got %d sections, want exactly one fallback section", len(layout.Sections))
	}
	sec := layout.Sections[0]
	if sec.Role != "page" || sec.Name != "Full Page" {
		t.Errorf("fallback section: got role %q name %q", sec.Role, sec.Name)
	}
	if sec.Bounds.Width != 1280 || sec.Bounds.Height != 2400 {
		t.Errorf("fallback bounds: got %+v, want full document", sec.Bounds)
	}
}

func TestDetectSections_MaxSectionsCap(t *testing.T) {
	page := &fakePage{payload: `{"width": 1000, "height": 5000, "sections": [
		{"role": "header", "bounds": {"x": 0, "y": 0, "width": 1000, "height": 80}},
		{"role": "hero", "bounds": {"x": 0, "y": 80, "width": 1000, "height": 600}},
		{"role": "features", "bounds": {"x": 0, "y": 680, "width": 1000, "height": 900}},
		{"role": "footer", "bounds": {"x": 0, "y": 4600, "width": 1000, "height": 400}}
	]}`}

	layout, err := DetectSections(context.Background(), page, &Options{MaxSections: 2})
	if err != nil {
		t.Fatalf("DetectSections failed: %v", err)
	}
	if len(layout.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(layout.Sections))
	}
	if layout.Sections[0].Role != "header" || layout.Sections[1].Role != "hero" {
		t.Errorf("cap should keep leading sections: got %q, %q",
			layout.Sections[0].Role, layout.Sections[1].Role)
	}
}

func TestDetectSections_EvalError(t *testing.T) {
	page := &fakePage{err: errors.New("target closed")}

	_, err := DetectSections(context.Background(), page, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var capErr *models.CaptureError
	if !errors.As(err, &capErr) || capErr.Code != models.ErrCodeSectionDetection {
		t.Errorf("got %v, want %s", err, models.ErrCodeSectionDetection)
	}
}

func TestDetectSections_MalformedPayload(t *testing.T) {
	page := &fakePage{payload: `not json`}

	_, err := DetectSections(context.Background(), page, nil)
	var capErr *models.CaptureError
	if !errors.As(err, &capErr) || capErr.Code != models.ErrCodeSectionDetection {
		t.Errorf("got %v, want %s", err, models.ErrCodeSectionDetection)
	}
}

func TestDetectSections_NilPage(t *testing.T) {
	_, err := DetectSections(context.Background(), nil, nil)
	var capErr *models.CaptureError
	if !errors.As(err, &capErr) || capErr.Code != models.ErrCodeInvalidInput {
		t.Errorf("got %v, want %s", err, models.ErrCodeInvalidInput)
	}
}
