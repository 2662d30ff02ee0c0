// Package firecrawl fetches content through the hosted Firecrawl API, which
// handles rendering and anti-bot measures server side. Documents come back
// as extracted text because the service parses PDFs itself.
package firecrawl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkedev/planning-sync/internal/httpclient"
	"github.com/mkedev/planning-sync/internal/policy/ratelimit"
	"github.com/mkedev/planning-sync/internal/scrape"
	"github.com/mkedev/planning-sync/internal/telemetry"
)

const (
	backendName    = "firecrawl"
	defaultBaseURL = "https://api.firecrawl.dev/v1"

	// The free tier allows 10 scrapes per minute.
	requestSpacing = 6 * time.Second
)

// Config controls the hosted backend.
type Config struct {
	APIKey  string
	BaseURL string
}

// Fetcher implements scrape.Scraper on the Firecrawl scrape endpoint.
type Fetcher struct {
	http   *httpclient.Client
	base   string
	logger *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the underlying retrying client.
func WithHTTPClient(h *httpclient.Client) Option {
	return func(f *Fetcher) { f.http = h }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// New builds a Fetcher. Requests are spaced to stay inside the service's
// rate limit and carry a 60 second ceiling for slow renders.
func New(cfg Config, opts ...Option) *Fetcher {
	f := &Fetcher{
		base:   defaultBaseURL,
		logger: zap.NewNop(),
	}
	if cfg.BaseURL != "" {
		f.base = strings.TrimRight(cfg.BaseURL, "/")
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.http == nil {
		f.http = httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
			httpclient.WithHeader("Authorization", "Bearer "+cfg.APIKey),
			httpclient.WithGate(ratelimit.NewGate(requestSpacing)),
		)
	}
	return f
}

// Close is a no-op; the backend holds no local resources.
func (f *Fetcher) Close() error { return nil }

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent,omitempty"`
	Parsers         []string `json:"parsers,omitempty"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title    string `json:"title"`
			PDFTitle string `json:"pdf_title"`
		} `json:"metadata"`
	} `json:"data"`
	Error string `json:"error"`
}

// FetchPage scrapes a page as main-content markdown.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (*scrape.Result, error) {
	start := time.Now()
	result, err := f.fetchPage(ctx, pageURL)
	telemetry.ObserveScrape(backendName, "page", err == nil, time.Since(start))
	return result, err
}

func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (*scrape.Result, error) {
	resp, err := f.scrape(ctx, scrapeRequest{
		URL:             pageURL,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		return nil, err
	}
	if err := scrape.ValidatePage(resp.Data.Markdown); err != nil {
		return nil, err
	}

	f.logger.Debug("page scraped",
		zap.String("url", pageURL),
		zap.Int("markdown_chars", len(resp.Data.Markdown)),
	)
	return &scrape.Result{
		URL:     pageURL,
		Title:   strings.TrimSpace(resp.Data.Metadata.Title),
		Payload: scrape.TextPayload(resp.Data.Markdown),
	}, nil
}

// FetchDocument scrapes a document; the service extracts PDF text, so the
// payload is markdown rather than raw bytes.
func (f *Fetcher) FetchDocument(ctx context.Context, docURL string) (*scrape.Result, error) {
	start := time.Now()
	result, err := f.fetchDocument(ctx, docURL)
	telemetry.ObserveScrape(backendName, "document", err == nil, time.Since(start))
	return result, err
}

func (f *Fetcher) fetchDocument(ctx context.Context, docURL string) (*scrape.Result, error) {
	resp, err := f.scrape(ctx, scrapeRequest{
		URL:     docURL,
		Formats: []string{"markdown"},
		Parsers: []string{"pdf"},
	})
	if err != nil {
		return nil, err
	}
	if err := scrape.ValidateDocumentText(resp.Data.Markdown); err != nil {
		return nil, err
	}

	f.logger.Debug("document scraped",
		zap.String("url", docURL),
		zap.Int("markdown_chars", len(resp.Data.Markdown)),
	)
	return &scrape.Result{
		URL:     docURL,
		Title:   documentTitle(docURL, resp),
		Payload: scrape.TextPayload(resp.Data.Markdown),
	}, nil
}

func (f *Fetcher) scrape(ctx context.Context, req scrapeRequest) (*scrapeResponse, error) {
	var resp scrapeResponse
	if err := f.http.PostJSON(ctx, f.base+"/scrape", req, &resp); err != nil {
		return nil, fmt.Errorf("scrape %s: %w", req.URL, err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "scrape request failed"
		}
		return nil, fmt.Errorf("scrape %s: %s", req.URL, msg)
	}
	return &resp, nil
}

// documentTitle prefers the parsed PDF title, then the page title, then the
// URL's file name.
func documentTitle(docURL string, resp *scrapeResponse) string {
	if title := strings.TrimSpace(resp.Data.Metadata.PDFTitle); title != "" {
		return title
	}
	if title := strings.TrimSpace(resp.Data.Metadata.Title); title != "" {
		return title
	}
	u, err := url.Parse(docURL)
	if err != nil {
		return docURL
	}
	return strings.TrimSuffix(path.Base(u.Path), ".pdf")
}
