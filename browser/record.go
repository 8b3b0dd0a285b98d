package browser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"github.com/ysmood/gson"

	"github.com/sitelens/sitelens/models"
	"github.com/sitelens/sitelens/video"
)

// NewRecordingContext opens an isolated incognito context whose single
// page is captured via CDP screencast and piped through ffmpeg into a
// WebM file. Recording needs ffmpeg up front, so an absent binary fails
// fast instead of producing an empty recording.
func (b *Browser) NewRecordingContext(ctx context.Context, opts *video.RecordingOptions) (video.RecordingContext, error) {
	if !video.Available() {
		return nil, models.NewCaptureError(models.ErrCodeRecordingFailed, "recording requires ffmpeg on PATH", nil)
	}

	incognito, err := b.browser.Incognito()
	if err != nil {
		return nil, models.NewCaptureError(models.ErrCodeRecordingFailed, "failed to open incognito context", err)
	}

	rc := &recordingContext{
		incognito:  incognito,
		opts:       opts,
		outputPath: filepath.Join(opts.OutputDir, fmt.Sprintf("rec-%d.webm", time.Now().UnixNano())),
		stopPump:   make(chan struct{}),
		pumpDone:   make(chan struct{}),
	}
	if err := rc.startEncoder(); err != nil {
		rc.disposeContext()
		return nil, models.NewCaptureError(models.ErrCodeRecordingFailed, "failed to start webm encoder", err)
	}
	return rc, nil
}

// recordingContext pairs an incognito browsing context with one ffmpeg
// process. Frames flow screencast → latest-frame buffer → pump ticker →
// encoder stdin, so the output advances in wall-clock time even when the
// page repaints irregularly.
type recordingContext struct {
	incognito  *rod.Browser
	opts       *video.RecordingOptions
	outputPath string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer

	mu       sync.Mutex
	latest   []byte
	stopPump chan struct{}
	pumpDone chan struct{}

	page   *recordingPage
	closed bool
}

func (rc *recordingContext) startEncoder() error {
	// ffmpeg-go assembles the command line; the process is run directly
	// so the frame pump can own stdin.
	compiled := webmEncodeStream(rc.outputPath, rc.opts).Compile()
	cmd := exec.Command(compiled.Args[0], compiled.Args[1:]...)
	cmd.Stderr = &rc.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	rc.cmd = cmd
	rc.stdin = stdin

	go rc.pumpFrames()
	return nil
}

// pumpFrames feeds the most recent screencast frame to the encoder at a
// steady rate. Screencast only emits frames on repaint; re-sending the
// last frame keeps the video timeline aligned with wall-clock time.
func (rc *recordingContext) pumpFrames() {
	defer close(rc.pumpDone)

	fps := rc.opts.FrameRate
	if fps <= 0 {
		fps = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-rc.stopPump:
			return
		case <-ticker.C:
			rc.mu.Lock()
			frame := rc.latest
			rc.mu.Unlock()
			if frame == nil {
				continue
			}
			if _, err := rc.stdin.Write(frame); err != nil {
				slog.Debug("frame pump stopped", "error", err)
				return
			}
		}
	}
}

func (rc *recordingContext) storeFrame(data []byte) {
	rc.mu.Lock()
	rc.latest = data
	rc.mu.Unlock()
}

// NewPage opens the recorded page and starts the screencast.
func (rc *recordingContext) NewPage(ctx context.Context) (video.RecordingPage, error) {
	page, err := rc.incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewCaptureError(models.ErrCodeRecordingFailed, "failed to open recording page", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             rc.opts.Width,
		Height:            rc.opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Warn("failed to size recording viewport", "error", err)
	}

	quality := 80
	everyNth := 1
	if err := (proto.PageStartScreencast{
		Format:        proto.PageStartScreencastFormatJpeg,
		Quality:       &quality,
		MaxWidth:      &rc.opts.Width,
		MaxHeight:     &rc.opts.Height,
		EveryNthFrame: &everyNth,
	}).Call(page); err != nil {
		_ = page.Close()
		return nil, models.NewCaptureError(models.ErrCodeRecordingFailed, "failed to start screencast", err)
	}

	go page.EachEvent(func(e *proto.PageScreencastFrame) {
		_ = proto.PageScreencastFrameAck{SessionID: e.SessionID}.Call(page)
		rc.storeFrame(e.Data)
	})()

	rc.page = &recordingPage{owner: rc, rod: page}
	return rc.page, nil
}

// Close stops the frame pump, lets ffmpeg drain and finalize the WebM,
// then disposes the incognito context.
func (rc *recordingContext) Close() error {
	if rc.closed {
		return nil
	}
	rc.closed = true

	close(rc.stopPump)
	<-rc.pumpDone
	_ = rc.stdin.Close()

	err := rc.cmd.Wait()
	rc.disposeContext()
	if err != nil {
		return fmt.Errorf("webm encoder failed: %w: %s", err, tail(rc.stderr.String(), 400))
	}
	return nil
}

// disposeContext drops the incognito browser context. The shared CDP
// connection belongs to the parent browser and must stay open.
func (rc *recordingContext) disposeContext() {
	if rc.incognito.BrowserContextID == "" {
		return
	}
	if err := (proto.TargetDisposeBrowserContext{
		BrowserContextID: rc.incognito.BrowserContextID,
	}).Call(rc.incognito); err != nil {
		slog.Debug("failed to dispose recording context", "error", err)
	}
}

type recordingPage struct {
	owner  *recordingContext
	rod    *rod.Page
	closed bool
}

func (p *recordingPage) Navigate(ctx context.Context, target string) error {
	if err := p.rod.Context(ctx).Navigate(target); err != nil {
		return err
	}
	if err := p.rod.Context(ctx).WaitLoad(); err != nil {
		slog.Debug("recording page load wait timed out", "error", err)
	}
	return nil
}

func (p *recordingPage) Eval(ctx context.Context, js string) (gson.JSON, error) {
	res, err := p.rod.Context(ctx).Eval(js)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

// Close stops the screencast and closes the page. Frames stop flowing
// here; the encoder keeps running until the context closes.
func (p *recordingPage) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	_ = proto.PageStopScreencast{}.Call(p.rod)
	return p.rod.Close()
}

// VideoPath is only answerable once the page is closed and the last
// frame has been handed to the encoder.
func (p *recordingPage) VideoPath() (string, error) {
	if !p.closed {
		return "", fmt.Errorf("video path is not available until the recording page is closed")
	}
	return p.owner.outputPath, nil
}

func webmEncodeStream(outputPath string, opts *video.RecordingOptions) *ffmpeg.Stream {
	fps := opts.FrameRate
	if fps <= 0 {
		fps = 20
	}
	return ffmpeg.Input("pipe:0", ffmpeg.KwArgs{
		"f":         "image2pipe",
		"c:v":       "mjpeg",
		"framerate": strconv.Itoa(fps),
	}).
		Output(outputPath, ffmpeg.KwArgs{
			"c:v":      "libvpx",
			"b:v":      "1M",
			"pix_fmt":  "yuv420p",
			"deadline": "realtime",
			"cpu-used": "8",
		}).
		OverWriteOutput().
		Silent(true)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
