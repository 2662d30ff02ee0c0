package scrape

import (
	"context"
	"errors"
)

// Noop implements Scraper but always returns an error. It backs dry runs,
// where no fetch may ever be issued.
type Noop struct{}

// NewNoop creates a new Noop scraper.
func NewNoop() *Noop {
	return &Noop{}
}

// FetchPage returns an error since this is a stub implementation.
func (Noop) FetchPage(_ context.Context, _ string) (*Result, error) {
	return nil, errors.New("scraper backend not configured")
}

// FetchDocument returns an error since this is a stub implementation.
func (Noop) FetchDocument(_ context.Context, _ string) (*Result, error) {
	return nil, errors.New("scraper backend not configured")
}

// Close is a no-op.
func (Noop) Close() error { return nil }
