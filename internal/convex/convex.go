// Package convex talks to the Convex HTTP surface that stores document
// metadata and crawl state. All calls ride the retrying HTTP client.
package convex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkedev/planning-sync/internal/httpclient"
)

// Status is the lifecycle state recorded against a document.
type Status string

const (
	// StatusCrawled marks content fetched and persisted but not yet searchable.
	StatusCrawled Status = "crawled"
	// StatusIndexed marks content published to the search index.
	StatusIndexed Status = "indexed"
	// StatusError marks the last sync attempt as failed.
	StatusError Status = "error"
)

// Document is a stored metadata record. Write calls send only the fields
// that are set; the backend keeps prior values for omitted optional fields.
type Document struct {
	ID              string `json:"_id,omitempty"`
	SourceID        string `json:"sourceId"`
	SourceURL       string `json:"sourceUrl,omitempty"`
	Title           string `json:"title,omitempty"`
	ContentType     string `json:"contentType,omitempty"`
	Category        string `json:"category,omitempty"`
	SyncFrequency   string `json:"syncFrequency,omitempty"`
	ContentHash     string `json:"contentHash,omitempty"`
	Status          Status `json:"status,omitempty"`
	MarkdownContent string `json:"markdownContent,omitempty"`
	PDFStorageID    string `json:"pdfStorageId,omitempty"`
	GeminiFileURI   string `json:"geminiFileUri,omitempty"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
	LastCrawledAt   int64  `json:"lastCrawledAt,omitempty"`
}

// StatusUpdate is the body for a status transition.
type StatusUpdate struct {
	SourceID          string `json:"sourceId"`
	Status            Status `json:"status"`
	ErrorMessage      string `json:"errorMessage,omitempty"`
	GeminiFileURI     string `json:"geminiFileUri,omitempty"`
	FileSearchStoreID string `json:"fileSearchStoreId,omitempty"`
}

// HashCheck reports whether stored content differs from a candidate hash.
// Changed is only meaningful when Exists is true.
type HashCheck struct {
	Exists      bool   `json:"exists"`
	Changed     bool   `json:"changed"`
	CurrentHash string `json:"currentHash,omitempty"`
}

// Client is the metadata store client.
type Client struct {
	http   *httpclient.Client
	base   string
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying retrying client.
func WithHTTPClient(h *httpclient.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a Client for the deployment at baseURL, authenticating every
// call with the deploy key.
func New(baseURL, deployKey string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
			httpclient.WithHeader("Authorization", "Bearer "+deployKey),
		)
	}
	return c
}

// Upsert creates or updates the record for doc.SourceID.
func (c *Client) Upsert(ctx context.Context, doc Document) error {
	var ack struct {
		Success    bool   `json:"success"`
		DocumentID string `json:"documentId"`
	}
	if err := c.http.PostJSON(ctx, c.base+"/documents/upsert", doc, &ack); err != nil {
		return fmt.Errorf("upsert %s: %w", doc.SourceID, err)
	}
	c.logger.Debug("document upserted",
		zap.String("source_id", doc.SourceID),
		zap.String("document_id", ack.DocumentID),
	)
	return nil
}

// UpdateStatus records a lifecycle transition for a source.
func (c *Client) UpdateStatus(ctx context.Context, update StatusUpdate) error {
	if err := c.http.PostJSON(ctx, c.base+"/documents/status", update, nil); err != nil {
		return fmt.Errorf("update status %s: %w", update.SourceID, err)
	}
	c.logger.Debug("status updated",
		zap.String("source_id", update.SourceID),
		zap.String("status", string(update.Status)),
	)
	return nil
}

// Get fetches the record for a source. A missing record returns (nil, nil).
func (c *Client) Get(ctx context.Context, sourceID string) (*Document, error) {
	var doc Document
	query := url.Values{"sourceId": []string{sourceID}}
	err := c.http.GetJSON(ctx, c.base+"/documents", query, &doc)
	if err != nil {
		if se, ok := httpclient.AsStatusError(err); ok && se.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", sourceID, err)
	}
	return &doc, nil
}

// CheckHash asks the backend whether the candidate hash differs from the
// stored one.
func (c *Client) CheckHash(ctx context.Context, sourceID, contentHash string) (HashCheck, error) {
	var check HashCheck
	query := url.Values{
		"sourceId":    []string{sourceID},
		"contentHash": []string{contentHash},
	}
	if err := c.http.GetJSON(ctx, c.base+"/documents/check-hash", query, &check); err != nil {
		return HashCheck{}, fmt.Errorf("check hash %s: %w", sourceID, err)
	}
	return check, nil
}

// ListByCadence returns every stored document on the given sync cadence.
func (c *Client) ListByCadence(ctx context.Context, cadence string) ([]Document, error) {
	var docs []Document
	query := url.Values{"syncFrequency": []string{cadence}}
	if err := c.http.GetJSON(ctx, c.base+"/documents/by-frequency", query, &docs); err != nil {
		return nil, fmt.Errorf("list by cadence %s: %w", cadence, err)
	}
	return docs, nil
}
