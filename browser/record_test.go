package browser

import (
	"strings"
	"testing"

	"github.com/sitelens/sitelens/video"
)

func TestWebmEncodeStream_Arguments(t *testing.T) {
	opts := &video.RecordingOptions{Width: 1280, Height: 720, FrameRate: 20}
	args := strings.Join(webmEncodeStream("/tmp/rec.webm", opts).Compile().Args, " ")

	for _, want := range []string{
		"-f image2pipe",
		"-c:v mjpeg",
		"-framerate 20",
		"pipe:0",
		"-c:v libvpx",
		"-b:v 1M",
		"-pix_fmt yuv420p",
		"-deadline realtime",
		"-cpu-used 8",
		"/tmp/rec.webm",
		"-y",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("encoder args missing %q in: %s", want, args)
		}
	}
}

func TestWebmEncodeStream_DefaultsFrameRate(t *testing.T) {
	opts := &video.RecordingOptions{Width: 1280, Height: 720}
	args := strings.Join(webmEncodeStream("out.webm", opts).Compile().Args, " ")
	if !strings.Contains(args, "-framerate 20") {
		t.Errorf("zero frame rate should fall back to 20, got: %s", args)
	}
}

func TestTail(t *testing.T) {
	if got := tail("short", 10); got != "short" {
		t.Errorf("tail of short string = %q, want unchanged", got)
	}
	long := strings.Repeat("a", 30) + "tail-end"
	got := tail(long, 8)
	if got != "...tail-end" {
		t.Errorf("tail = %q, want %q", got, "...tail-end")
	}
}
