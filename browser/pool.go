package browser

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/sitelens/sitelens/config"
	"github.com/sitelens/sitelens/models"
)

// pageFactory creates a fresh capture page.
type pageFactory func() (*Page, error)

// pageDestroyer closes a capture page for good.
type pageDestroyer func(*Page)

// Pool manages capture pages with health-based retirement and automatic
// scaling between MinPages and HardMax driven by memory pressure and
// utilization.
type Pool struct {
	cfg       config.PoolConfig
	factory   pageFactory
	destroyer pageDestroyer

	idle    chan *Page
	mu      sync.Mutex
	all     map[*Page]struct{}
	active  int
	stopped chan struct{}
}

// newPool creates and starts a pool, pre-warming MinPages pages.
func newPool(cfg config.PoolConfig, factory pageFactory, destroyer pageDestroyer) *Pool {
	if cfg.MinPages < 1 {
		cfg.MinPages = 1
	}
	if cfg.HardMax < cfg.MinPages {
		cfg.HardMax = cfg.MinPages
	}
	if cfg.MemThreshold <= 0 {
		cfg.MemThreshold = 0.9
	}

	p := &Pool{
		cfg:       cfg,
		factory:   factory,
		destroyer: destroyer,
		idle:      make(chan *Page, cfg.HardMax),
		all:       make(map[*Page]struct{}),
		stopped:   make(chan struct{}),
	}

	for i := 0; i < cfg.MinPages; i++ {
		page, err := p.create()
		if err != nil {
			slog.Warn("pool: failed to pre-warm page", "error", err)
			continue
		}
		p.idle <- page
	}

	go p.scalingLoop()
	return p
}

// Get acquires a page. It prefers an idle page, creates a new one while
// under the hard max, and otherwise blocks until a page is returned or
// the context is cancelled.
func (p *Pool) Get(ctx context.Context) (*Page, error) {
	select {
	case page := <-p.idle:
		p.markActive(1)
		return page, nil
	default:
	}

	p.mu.Lock()
	if len(p.all) < p.cfg.HardMax {
		page, err := p.createLocked()
		p.mu.Unlock()
		if err == nil {
			p.markActive(1)
			return page, nil
		}
		slog.Warn("pool: failed to create page, waiting for an idle one", "error", err)
	} else {
		p.mu.Unlock()
	}

	select {
	case page := <-p.idle:
		p.markActive(1)
		return page, nil
	case <-ctx.Done():
		return nil, models.NewCaptureError(models.ErrCodeTimeout, "timed out waiting for a capture page", ctx.Err())
	case <-p.stopped:
		return nil, models.NewCaptureError(models.ErrCodeBrowserCrash, "page pool is shut down", nil)
	}
}

// Put returns a page. Unhealthy pages are retired and replaced when the
// pool would otherwise drop below its minimum.
func (p *Pool) Put(page *Page, success bool) {
	p.markActive(-1)

	if success {
		page.recordSuccess()
	} else {
		page.recordFailure()
	}

	if page.shouldRetire(p.cfg.MaxUses, p.cfg.MaxAge) {
		slog.Debug("pool: retiring page", "useCount", page.useCount)
		p.destroy(page)

		p.mu.Lock()
		if len(p.all) < p.cfg.MinPages {
			if fresh, err := p.createLocked(); err == nil {
				p.mu.Unlock()
				p.idle <- fresh
				return
			}
		}
		p.mu.Unlock()
		return
	}

	page.reset()
	p.idle <- page
}

// Stats returns a snapshot of the pool state.
func (p *Pool) Stats() models.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return models.PoolStats{
		TotalPages:  len(p.all),
		ActivePages: p.active,
		IdlePages:   len(p.idle),
		HardMax:     p.cfg.HardMax,
	}
}

// Stop shuts down the scaling loop and destroys all pages.
func (p *Pool) Stop() {
	close(p.stopped)

drain:
	for {
		select {
		case page := <-p.idle:
			p.destroy(page)
		default:
			break drain
		}
	}

	p.mu.Lock()
	remaining := make([]*Page, 0, len(p.all))
	for page := range p.all {
		remaining = append(remaining, page)
		delete(p.all, page)
	}
	p.mu.Unlock()
	for _, page := range remaining {
		p.destroyer(page)
	}
}

func (p *Pool) markActive(delta int) {
	p.mu.Lock()
	p.active += delta
	p.mu.Unlock()
}

func (p *Pool) create() (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createLocked()
}

// createLocked creates a page. Caller must hold p.mu.
func (p *Pool) createLocked() (*Page, error) {
	page, err := p.factory()
	if err != nil {
		return nil, err
	}
	p.all[page] = struct{}{}
	return page, nil
}

func (p *Pool) destroy(page *Page) {
	p.mu.Lock()
	delete(p.all, page)
	p.mu.Unlock()
	p.destroyer(page)
}

// scalingLoop periodically samples memory and adjusts pool size.
func (p *Pool) scalingLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopped:
			return
		case <-ticker.C:
			p.scaleCheck()
		}
	}
}

func (p *Pool) scaleCheck() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// Estimate memory pressure as HeapInuse / HeapSys.
	var memPressure float64
	if m.HeapSys > 0 {
		memPressure = float64(m.HeapInuse) / float64(m.HeapSys)
	}

	p.mu.Lock()
	total := len(p.all)
	active := p.active
	p.mu.Unlock()

	var activeRate float64
	if total > 0 {
		activeRate = float64(active) / float64(total)
	}

	if memPressure > p.cfg.MemThreshold {
		// Shrink: close idle pages, never below the minimum.
		shrink := int(math.Ceil(float64(total) * 0.25))
		for i := 0; i < shrink; i++ {
			p.mu.Lock()
			if len(p.all) <= p.cfg.MinPages {
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()

			select {
			case page := <-p.idle:
				slog.Debug("pool: shrinking under memory pressure")
				p.destroy(page)
			default:
				return
			}
		}
	} else if activeRate > 0.8 {
		// Grow: add a page while under the hard max.
		p.mu.Lock()
		if len(p.all) >= p.cfg.HardMax {
			p.mu.Unlock()
			return
		}
		page, err := p.createLocked()
		p.mu.Unlock()
		if err != nil {
			slog.Warn("pool: failed to grow", "error", err)
			return
		}
		slog.Debug("pool: grew under load", "total", total+1)
		p.idle <- page
	}
}
