package sync

import (
	"context"

	"github.com/google/uuid"

	"github.com/mkedev/planning-sync/internal/convex"
	"github.com/mkedev/planning-sync/internal/filesearch"
	"github.com/mkedev/planning-sync/internal/scrape"
)

// Store persists document metadata and sync state.
type Store interface {
	Get(ctx context.Context, sourceID string) (*convex.Document, error)
	Upsert(ctx context.Context, doc convex.Document) error
	UpdateStatus(ctx context.Context, update convex.StatusUpdate) error
	CheckHash(ctx context.Context, sourceID, contentHash string) (convex.HashCheck, error)
}

// Index resolves the search store and publishes documents into it.
type Index interface {
	ResolveStore(ctx context.Context, displayName string) (string, bool, error)
	Upload(ctx context.Context, storeName string, doc filesearch.UploadDoc) (*filesearch.UploadResult, error)
}

// Scraper fetches source content. scrape.Scraper satisfies this; the
// orchestrator does not own backend lifecycle, so Close stays out.
type Scraper interface {
	FetchPage(ctx context.Context, url string) (*scrape.Result, error)
	FetchDocument(ctx context.Context, url string) (*scrape.Result, error)
}

// Hasher computes content fingerprints for change detection.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// IDGenerator mints run identifiers.
type IDGenerator interface {
	NewUUID() uuid.UUID
}
