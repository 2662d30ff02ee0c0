// Package filesearch publishes documents to the Gemini File Search index
// over its v1beta REST surface. Uploads use the resumable protocol and
// block until the service finishes processing the document.
package filesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/mkedev/planning-sync/internal/clock"
	"github.com/mkedev/planning-sync/internal/clock/system"
	"github.com/mkedev/planning-sync/internal/httpclient"
	"github.com/mkedev/planning-sync/internal/telemetry"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	pollInterval = 1 * time.Second
	maxPolls     = 120
)

// MIME types accepted by the index for this pipeline's payloads.
const (
	MIMEMarkdown = "text/markdown"
	MIMEPDF      = "application/pdf"
)

// UploadDoc is one document to publish.
type UploadDoc struct {
	DisplayName string
	MIME        string
	Data        []byte
}

// UploadResult reports a completed upload. Reference is the identifier
// callers persist; it equals DocumentName when the service reported the
// created document, otherwise the operation name.
type UploadResult struct {
	Reference    string
	DocumentName string
}

// StoreDocument is one entry in a store listing.
type StoreDocument struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	State       string `json:"state"`
}

// Client is the File Search index client.
type Client struct {
	http   *httpclient.Client
	base   string
	clk    clock.Clock
	logger *zap.Logger
	stores *gocache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the underlying retrying client.
func WithHTTPClient(h *httpclient.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithClock injects the time source used between operation polls.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clk = clk }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a Client authenticating with apiKey. Uploads can be large, so
// the default transport allows two minutes per call.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		base:   defaultBaseURL,
		clk:    system.New(),
		logger: zap.NewNop(),
		stores: gocache.New(gocache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
			httpclient.WithHeader("x-goog-api-key", apiKey),
		)
	}
	return c
}

type storeRef struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type storeList struct {
	FileSearchStores []storeRef `json:"fileSearchStores"`
	NextPageToken    string     `json:"nextPageToken"`
}

// ResolveStore returns the resource name of the store with the given display
// name, creating it when absent. Resolutions are cached on the instance, so
// repeat calls within a run cost nothing. The created flag reports whether
// this call had to create the store.
func (c *Client) ResolveStore(ctx context.Context, displayName string) (string, bool, error) {
	if cached, ok := c.stores.Get(displayName); ok {
		return cached.(string), false, nil
	}

	name, err := c.findStore(ctx, displayName)
	if err != nil {
		c.logger.Warn("listing stores failed, creating instead",
			zap.String("display_name", displayName),
			zap.Error(err),
		)
	}
	if name != "" {
		c.stores.Set(displayName, name, gocache.NoExpiration)
		return name, false, nil
	}

	var created storeRef
	body := map[string]string{"displayName": displayName}
	if err := c.http.PostJSON(ctx, c.base+"/v1beta/fileSearchStores", body, &created); err != nil {
		return "", false, fmt.Errorf("create store %q: %w", displayName, err)
	}
	c.logger.Info("created file search store",
		zap.String("display_name", displayName),
		zap.String("name", created.Name),
	)
	c.stores.Set(displayName, created.Name, gocache.NoExpiration)
	return created.Name, true, nil
}

func (c *Client) findStore(ctx context.Context, displayName string) (string, error) {
	token := ""
	for {
		query := url.Values{}
		if token != "" {
			query.Set("pageToken", token)
		}
		var page storeList
		if err := c.http.GetJSON(ctx, c.base+"/v1beta/fileSearchStores", query, &page); err != nil {
			return "", err
		}
		for _, store := range page.FileSearchStores {
			if store.DisplayName == displayName {
				return store.Name, nil
			}
		}
		if page.NextPageToken == "" {
			return "", nil
		}
		token = page.NextPageToken
	}
}

type operationStatus struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Error    *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Response *struct {
		Document *struct {
			Name string `json:"name"`
		} `json:"document"`
	} `json:"response"`
}

// Upload publishes doc into the store via the resumable upload protocol and
// waits for the resulting operation to finish. Publishing the same display
// name twice creates two index entries; deduplication is the caller's job.
func (c *Client) Upload(ctx context.Context, storeName string, doc UploadDoc) (*UploadResult, error) {
	uploadURL, err := c.startUpload(ctx, storeName, doc)
	if err != nil {
		telemetry.ObserveIndexUpload(doc.MIME, false)
		return nil, err
	}

	op, err := c.finishUpload(ctx, uploadURL, doc)
	if err != nil {
		telemetry.ObserveIndexUpload(doc.MIME, false)
		return nil, err
	}

	op, err = c.awaitOperation(ctx, op)
	if err != nil {
		telemetry.ObserveIndexUpload(doc.MIME, false)
		return nil, err
	}

	result := &UploadResult{Reference: op.Name}
	if op.Response != nil && op.Response.Document != nil && op.Response.Document.Name != "" {
		result.DocumentName = op.Response.Document.Name
		result.Reference = op.Response.Document.Name
	}

	telemetry.ObserveIndexUpload(doc.MIME, true)
	c.logger.Info("document uploaded",
		zap.String("display_name", doc.DisplayName),
		zap.String("reference", result.Reference),
		zap.Int("bytes", len(doc.Data)),
	)
	return result, nil
}

// startUpload performs the resumable handshake and returns the session URL.
func (c *Client) startUpload(ctx context.Context, storeName string, doc UploadDoc) (string, error) {
	header := http.Header{}
	header.Set("X-Goog-Upload-Protocol", "resumable")
	header.Set("X-Goog-Upload-Command", "start")
	header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(len(doc.Data)))
	header.Set("X-Goog-Upload-Header-Content-Type", doc.MIME)

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.base + "/upload/v1beta/" + storeName + ":uploadToFileSearchStore",
		Header: header,
		Body:   map[string]any{"file": map[string]string{"display_name": doc.DisplayName}},
	})
	if err != nil {
		return "", fmt.Errorf("start upload %q: %w", doc.DisplayName, err)
	}
	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return "", fmt.Errorf("start upload %q: no upload url in response", doc.DisplayName)
	}
	return uploadURL, nil
}

// finishUpload sends the bytes and finalizes the session in one shot.
func (c *Client) finishUpload(ctx context.Context, uploadURL string, doc UploadDoc) (*operationStatus, error) {
	header := http.Header{}
	header.Set("X-Goog-Upload-Offset", "0")
	header.Set("X-Goog-Upload-Command", "upload, finalize")

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     uploadURL,
		Header:  header,
		RawBody: doc.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", doc.DisplayName, err)
	}
	var op operationStatus
	if err := jsonDecode(resp.Body, &op); err != nil {
		return nil, fmt.Errorf("upload %q: %w", doc.DisplayName, err)
	}
	return &op, nil
}

// awaitOperation polls until the operation completes or the bound is hit.
func (c *Client) awaitOperation(ctx context.Context, op *operationStatus) (*operationStatus, error) {
	for polls := 0; ; polls++ {
		if op.Error != nil {
			return nil, fmt.Errorf("operation %s failed: %s", op.Name, op.Error.Message)
		}
		if op.Done {
			return op, nil
		}
		if polls >= maxPolls {
			return nil, fmt.Errorf("operation %s did not complete after %d polls", op.Name, maxPolls)
		}
		if err := c.clk.Sleep(ctx, pollInterval); err != nil {
			return nil, err
		}
		var next operationStatus
		if err := c.http.GetJSON(ctx, c.base+"/v1beta/"+op.Name, nil, &next); err != nil {
			return nil, fmt.Errorf("poll operation %s: %w", op.Name, err)
		}
		op = &next
	}
}

type documentList struct {
	Documents     []StoreDocument `json:"documents"`
	NextPageToken string          `json:"nextPageToken"`
}

// ListDocuments returns every document in the store.
func (c *Client) ListDocuments(ctx context.Context, storeName string) ([]StoreDocument, error) {
	var docs []StoreDocument
	token := ""
	for {
		query := url.Values{}
		if token != "" {
			query.Set("pageToken", token)
		}
		var page documentList
		if err := c.http.GetJSON(ctx, c.base+"/v1beta/"+storeName+"/documents", query, &page); err != nil {
			return nil, fmt.Errorf("list documents %s: %w", storeName, err)
		}
		docs = append(docs, page.Documents...)
		if page.NextPageToken == "" {
			return docs, nil
		}
		token = page.NextPageToken
	}
}

// DeleteDocument removes one document by resource name.
func (c *Client) DeleteDocument(ctx context.Context, documentName string) error {
	_, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodDelete,
		URL:    c.base + "/v1beta/" + documentName,
	})
	if err != nil {
		return fmt.Errorf("delete document %s: %w", documentName, err)
	}
	return nil
}

func jsonDecode(data []byte, out any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
