package certificate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Renderer turns finished HTML into a PDF file and returns its absolute path.
type Renderer interface {
	Render(ctx context.Context, html, filename string) (string, error)
}

type ChromeOptions struct {
	OutputDir string
	PoolSize  int
	Timeout   time.Duration
	ExecPath  string
}

// ChromeRenderer prints HTML through one shared headless Chrome. Each render
// gets its own tab and at most PoolSize tabs are open at once.
type ChromeRenderer struct {
	dir      string
	timeout  time.Duration
	execPath string
	slots    chan struct{}

	mu            sync.Mutex
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

func NewChromeRenderer(opts ChromeOptions) *ChromeRenderer {
	if opts.PoolSize < 1 {
		opts.PoolSize = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	return &ChromeRenderer{
		dir:      opts.OutputDir,
		timeout:  opts.Timeout,
		execPath: opts.ExecPath,
		slots:    make(chan struct{}, opts.PoolSize),
	}
}

// Render writes <OutputDir>/<filename> and returns its absolute path. The tab
// is closed on every return path.
func (r *ChromeRenderer) Render(ctx context.Context, html, filename string) (string, error) {
	select {
	case r.slots <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-r.slots }()

	browserCtx, err := r.browser()
	if err != nil {
		return "", fmt.Errorf("starting browser: %w", err)
	}

	source, err := writeTempHTML(html)
	if err != nil {
		return "", err
	}
	defer os.Remove(source)

	tabCtx, closeTab := chromedp.NewContext(browserCtx)
	defer closeTab()
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()
	tabCtx, cancel := context.WithTimeout(tabCtx, r.timeout)
	defer cancel()

	var pdf []byte
	err = chromedp.Run(tabCtx,
		page.SetLifecycleEventsEnabled(true),
		navigateAndWaitIdle((&url.URL{Scheme: "file", Path: source}).String()),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.4).
				WithMarginBottom(0.4).
				WithMarginLeft(0.4).
				WithMarginRight(0.4).
				Do(ctx)
			pdf = buf
			return err
		}),
	)
	if err != nil {
		r.discardIfDead()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("rendering %s: %w", filename, err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating certificates dir: %w", err)
	}
	out, err := filepath.Abs(filepath.Join(r.dir, filename))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", out, err)
	}
	return out, nil
}

// navigateAndWaitIdle loads target and blocks until the page reports
// networkIdle, so images such as the QR code are painted before printing.
func navigateAndWaitIdle(target string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		idle := make(chan struct{})
		var once sync.Once
		listenCtx, stopListening := context.WithCancel(ctx)
		defer stopListening()
		chromedp.ListenTarget(listenCtx, func(ev interface{}) {
			if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
				once.Do(func() { close(idle) })
			}
		})

		if err := chromedp.Navigate(target).Do(ctx); err != nil {
			return err
		}
		select {
		case <-idle:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeTempHTML(html string) (string, error) {
	f, err := os.CreateTemp("", "certificate-*.html")
	if err != nil {
		return "", fmt.Errorf("creating temp html: %w", err)
	}
	if _, err := f.WriteString(html); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing temp html: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return filepath.Abs(f.Name())
}

func (r *ChromeRenderer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx != nil && r.browserCtx.Err() == nil {
		return r.browserCtx, nil
	}
	r.shutdownLocked()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("allow-file-access-from-files", true),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, err
	}

	r.browserCtx, r.cancelBrowser, r.cancelAlloc = browserCtx, cancelBrowser, cancelAlloc
	log.Println("[RENDERER] headless browser started")
	return browserCtx, nil
}

// discardIfDead drops a browser whose context has ended so the next render
// launches a fresh one.
func (r *ChromeRenderer) discardIfDead() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browserCtx != nil && r.browserCtx.Err() != nil {
		log.Println("[RENDERER] browser exited, relaunching on next render")
		r.shutdownLocked()
	}
}

func (r *ChromeRenderer) shutdownLocked() {
	if r.cancelBrowser != nil {
		r.cancelBrowser()
	}
	if r.cancelAlloc != nil {
		r.cancelAlloc()
	}
	r.browserCtx, r.cancelBrowser, r.cancelAlloc = nil, nil, nil
}

// Close terminates the browser process.
func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browserCtx == nil {
		return nil
	}
	err := chromedp.Cancel(r.browserCtx)
	r.shutdownLocked()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
