// Package browser renders pages in headless Chrome for sites that block
// plain HTTP clients. Pages come back as markdown extracted from the
// rendered DOM; documents come back as the raw bytes of the main response.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/mkedev/planning-sync/internal/scrape"
	"github.com/mkedev/planning-sync/internal/telemetry"
)

const backendName = "browser"

const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultNavigationTimeout = 60 * time.Second

	challengeAttempts = 10
	challengeInterval = 1 * time.Second
	settleDelay       = 2 * time.Second
)

// Config controls the headless backend.
type Config struct {
	UserAgent         string
	NavigationTimeout time.Duration
}

// Fetcher implements scrape.Scraper on headless Chrome. One browser process
// is shared across fetches; each fetch runs in a fresh tab.
type Fetcher struct {
	cfg         Config
	logger      *zap.Logger
	allocator   context.Context
	allocCancel context.CancelFunc
}

// New creates a headless fetcher. The browser process itself starts lazily
// on the first fetch.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		logger:      logger,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}
}

// Close shuts the browser down.
func (f *Fetcher) Close() error {
	f.allocCancel()
	return nil
}

// FetchPage renders the page, waits out any bot challenge, and extracts the
// main content as markdown.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (*scrape.Result, error) {
	start := time.Now()
	result, err := f.fetchPage(ctx, pageURL)
	telemetry.ObserveScrape(backendName, "page", err == nil, time.Since(start))
	return result, err
}

func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (*scrape.Result, error) {
	taskCtx, cancel := f.newTab(ctx)
	defer cancel()

	if err := chromedp.Run(taskCtx,
		f.sessionSetup(),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", pageURL, err)
	}

	if err := f.awaitChallenge(taskCtx, pageURL); err != nil {
		return nil, err
	}

	var (
		html  string
		title string
	)
	if err := chromedp.Run(taskCtx,
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Title(&title),
	); err != nil {
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	markdown, err := extractMarkdown(html, pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", pageURL, err)
	}
	if err := scrape.ValidatePage(markdown); err != nil {
		return nil, err
	}

	f.logger.Debug("page rendered",
		zap.String("url", pageURL),
		zap.Int("markdown_chars", len(markdown)),
	)
	return &scrape.Result{
		URL:     pageURL,
		Title:   strings.TrimSpace(title),
		Payload: scrape.TextPayload(markdown),
	}, nil
}

// FetchDocument navigates to the document URL in the browser so the download
// rides the same session that clears bot defenses, then captures the raw
// response body.
func (f *Fetcher) FetchDocument(ctx context.Context, docURL string) (*scrape.Result, error) {
	start := time.Now()
	result, err := f.fetchDocument(ctx, docURL)
	telemetry.ObserveScrape(backendName, "document", err == nil, time.Since(start))
	return result, err
}

func (f *Fetcher) fetchDocument(ctx context.Context, docURL string) (*scrape.Result, error) {
	taskCtx, cancel := f.newTab(ctx)
	defer cancel()

	capture := newDocCapture()
	chromedp.ListenTarget(taskCtx, capture.captureEvent)

	if err := chromedp.Run(taskCtx,
		f.sessionSetup(),
		chromedp.Navigate(docURL),
	); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", docURL, err)
	}

	if err := f.awaitChallenge(taskCtx, docURL); err != nil {
		return nil, err
	}

	requestID, mimeType := capture.snapshot()
	if requestID == "" {
		return nil, scrape.ErrDocumentEmpty
	}

	var body []byte
	if err := chromedp.Run(taskCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		body, err = network.GetResponseBody(requestID).Do(ctx)
		return err
	})); err != nil {
		return nil, fmt.Errorf("download %s: %w", docURL, err)
	}
	if err := scrape.ValidateDocumentBytes(body); err != nil {
		return nil, err
	}

	f.logger.Debug("document downloaded",
		zap.String("url", docURL),
		zap.String("mime_type", mimeType),
		zap.Int("bytes", len(body)),
	)
	return &scrape.Result{
		URL:     docURL,
		Title:   documentTitle(docURL),
		Payload: scrape.BinaryPayload(body),
	}, nil
}

// newTab opens a tab context bounded by the navigation timeout and tied to
// the caller's cancellation.
func (f *Fetcher) newTab(ctx context.Context) (context.Context, context.CancelFunc) {
	taskCtx, taskCancel := chromedp.NewContext(f.allocator)
	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, f.cfg.NavigationTimeout)
	stop := context.AfterFunc(ctx, timeoutCancel)
	return taskCtx, func() {
		stop()
		timeoutCancel()
		taskCancel()
	}
}

func (f *Fetcher) sessionSetup() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}

// awaitChallenge polls the rendered DOM for interstitial markers, bounded at
// challengeAttempts iterations. Whatever is rendered when the bound is hit
// gets treated as real content; the length validation downstream is what
// catches interstitials that never clear. Reads that fail (e.g. the response
// was a PDF with no DOM) mean there is nothing to wait for.
func (f *Fetcher) awaitChallenge(ctx context.Context, pageURL string) error {
	var html string
	for attempt := 0; attempt < challengeAttempts; attempt++ {
		if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
			return nil
		}
		if !hasChallengeMarkers(html) {
			return nil
		}
		telemetry.ObserveChallengePoll()
		f.logger.Debug("waiting out bot challenge",
			zap.String("url", pageURL),
			zap.Int("attempt", attempt+1),
		)
		if err := chromedp.Run(ctx, chromedp.Sleep(challengeInterval)); err != nil {
			return fmt.Errorf("challenge wait %s: %w", pageURL, err)
		}
	}
	f.logger.Warn("bot challenge did not clear, continuing with rendered content",
		zap.String("url", pageURL),
	)
	return nil
}

// docCapture records the main document response during navigation so its
// body can be pulled afterwards. Redirect chains overwrite earlier entries;
// the last document response wins.
type docCapture struct {
	mu        sync.RWMutex
	requestID network.RequestID
	mimeType  string
}

func newDocCapture() *docCapture {
	return &docCapture{}
}

func (c *docCapture) captureEvent(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	c.mu.Lock()
	c.requestID = resp.RequestID
	c.mimeType = resp.Response.MimeType
	c.mu.Unlock()
}

func (c *docCapture) snapshot() (network.RequestID, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requestID, c.mimeType
}

// documentTitle derives a display title from the final URL path segment,
// dropping a .pdf extension.
func documentTitle(docURL string) string {
	u, err := url.Parse(docURL)
	if err != nil {
		return docURL
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return u.Host
	}
	return strings.TrimSuffix(base, ".pdf")
}
