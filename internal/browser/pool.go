package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned by Acquire after Close has been called.
var ErrPoolClosed = errors.New("browser pool closed")

// PoolConfig configures the shared Chrome process and its context pool.
type PoolConfig struct {
	Size         int
	Headless     bool
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	ExecPath     string
}

// tabFactory opens an isolated tab and returns its chromedp context.
type tabFactory func(ctx context.Context) (context.Context, context.CancelFunc, error)

// Pool owns one Chrome process and lends out at most Size isolated browser
// contexts at a time.
type Pool struct {
	cfg PoolConfig
	sem *semaphore.Weighted

	mu            sync.Mutex
	closed        bool
	allocCtx      context.Context
	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc

	newTab tabFactory
}

// NewPool builds a pool. Chrome is launched lazily on the first Acquire.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	if cfg.WindowWidth <= 0 || cfg.WindowHeight <= 0 {
		cfg.WindowWidth, cfg.WindowHeight = 1280, 800
	}
	p := &Pool{cfg: cfg, sem: semaphore.NewWeighted(int64(cfg.Size))}
	p.newTab = p.openTab
	return p
}

// Size reports the maximum number of concurrent pages.
func (p *Pool) Size() int {
	return p.cfg.Size
}

// Acquire blocks until a slot is free, then opens a fresh browser context.
// The returned page is cancelled when ctx is done.
func (p *Pool) Acquire(ctx context.Context) (Page, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for browser slot: %w", err)
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		p.sem.Release(1)
		return nil, ErrPoolClosed
	}

	tabCtx, cancelTab, err := p.newTab(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}

	stop := context.AfterFunc(ctx, cancelTab)
	release := func() {
		stop()
		cancelTab()
		p.sem.Release(1)
	}
	return newChromePage(tabCtx, release), nil
}

func (p *Pool) openTab(ctx context.Context) (context.Context, context.CancelFunc, error) {
	browserCtx, err := p.browser()
	if err != nil {
		return nil, nil, err
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx, chromedp.WithNewBrowserContext())
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("open browser context: %w", err)
	}
	return tabCtx, cancel, nil
}

// browser lazily launches the shared Chrome process.
func (p *Pool) browser() (context.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}
	if p.browserCtx != nil {
		return p.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(p.cfg.WindowWidth, p.cfg.WindowHeight),
	)
	if p.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(p.cfg.UserAgent))
	}
	if p.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	p.allocCtx, p.cancelAlloc = allocCtx, cancelAlloc
	p.browserCtx, p.cancelBrowser = browserCtx, cancelBrowser
	return browserCtx, nil
}

// Close shuts down the shared Chrome process. Pages still in use are torn down with it.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.cancelBrowser != nil {
		p.cancelBrowser()
	}
	if p.cancelAlloc != nil {
		p.cancelAlloc()
	}
	p.browserCtx, p.allocCtx = nil, nil
}

var _ Provider = (*Pool)(nil)
