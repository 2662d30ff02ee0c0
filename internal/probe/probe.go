// Package probe answers "is this source reachable right now" for the check
// command. It fetches each URL once and reports status, content type, size
// and latency without touching the metadata store or the index.
package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/mkedev/planning-sync/internal/sources"
	"github.com/mkedev/planning-sync/internal/telemetry"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Report is the result of probing one source URL.
type Report struct {
	SourceID    string
	URL         string
	OK          bool
	StatusCode  int
	ContentType string
	Bytes       int
	Duration    time.Duration
	Error       string
}

// Config controls probe behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Prober fetches source URLs with a plain HTTP collector.
type Prober struct {
	cfg    Config
	base   *colly.Collector
	logger *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Prober.
func New(cfg Config, logger *zap.Logger) *Prober {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())

	return &Prober{cfg: cfg, base: c, logger: logger}
}

// Check probes a single source.
func (p *Prober) Check(ctx context.Context, src sources.Source) Report {
	report := Report{SourceID: src.ID, URL: src.URL}
	start := time.Now()

	collector := p.base.Clone()
	collector.UserAgent = p.cfg.UserAgent
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(p.cfg.Timeout)
	p.configureHooks(collector, start, &report)

	if err := p.visit(ctx, collector, src.URL); err != nil {
		report.Duration = time.Since(start)
		report.Error = err.Error()
	}
	telemetry.ObserveClientRequest(src.URL, http.MethodGet, report.StatusCode)
	p.logger.Debug("source probed",
		zap.String("source_id", src.ID),
		zap.Bool("ok", report.OK),
		zap.Int("status", report.StatusCode),
		zap.Int("bytes", report.Bytes),
		zap.Duration("duration", report.Duration),
	)
	return report
}

// CheckAll probes the given sources sequentially, reports in input order.
func (p *Prober) CheckAll(ctx context.Context, list []sources.Source) []Report {
	reports := make([]Report, 0, len(list))
	for _, src := range list {
		reports = append(reports, p.Check(ctx, src))
	}
	return reports
}

func (p *Prober) configureHooks(hooks collectorHooks, start time.Time, report *Report) {
	hooks.OnResponse(func(r *colly.Response) {
		report.StatusCode = r.StatusCode
		report.ContentType = r.Headers.Get("Content-Type")
		report.Bytes = len(r.Body)
		report.Duration = time.Since(start)
		report.OK = r.StatusCode < http.StatusBadRequest
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			report.StatusCode = r.StatusCode
		}
		report.Duration = time.Since(start)
		report.Error = err.Error()
	})
}

func (p *Prober) visit(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("probe canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("probe visit: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
