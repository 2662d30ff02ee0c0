// Package scrape defines the capability the sync orchestrator uses to fetch
// content, independent of which backend renders it. Backends live in the
// browser and firecrawl subpackages.
package scrape

import (
	"context"
	"errors"
	"strings"
)

// Validation thresholds. Extractions below these are failures, never
// successes with thin content; this keeps error pages and bot-challenge
// interstitials out of the index.
const (
	MinPageChars     = 50
	MinDocumentChars = 100
	MinDocumentBytes = 100
)

// Sentinel errors carry the exact message surfaced in sync outcomes.
var (
	ErrPageTooShort     = errors.New("Scraped content too short or empty")
	ErrDocumentTooShort = errors.New("PDF content extraction too short or empty")
	ErrDocumentEmpty    = errors.New("Could not download PDF content")
)

// Scraper fetches pages and documents. Close releases backend resources;
// backends without any return nil.
type Scraper interface {
	FetchPage(ctx context.Context, url string) (*Result, error)
	FetchDocument(ctx context.Context, url string) (*Result, error)
	Close() error
}

// Result is a successful fetch.
type Result struct {
	URL     string
	Title   string
	Payload Payload
}

// PayloadKind tags the two content forms a fetch can produce.
type PayloadKind int

const (
	// PayloadText is extracted markdown text.
	PayloadText PayloadKind = iota
	// PayloadBinary is a raw downloaded body, e.g. a PDF.
	PayloadBinary
)

// Payload carries fetched content as either extracted text or raw bytes.
// The two forms stay distinct so binary bodies are never mistaken for
// markdown on their way to storage.
type Payload struct {
	kind PayloadKind
	text string
	data []byte
}

// TextPayload wraps extracted text.
func TextPayload(text string) Payload {
	return Payload{kind: PayloadText, text: text}
}

// BinaryPayload wraps a raw body.
func BinaryPayload(data []byte) Payload {
	return Payload{kind: PayloadBinary, data: data}
}

// Kind reports which form the payload holds.
func (p Payload) Kind() PayloadKind { return p.kind }

// IsBinary reports whether the payload is a raw body.
func (p Payload) IsBinary() bool { return p.kind == PayloadBinary }

// Text returns the extracted text, empty for binary payloads.
func (p Payload) Text() string { return p.text }

// Content returns the payload bytes in either form: the UTF-8 encoding of
// the text, or the raw body. This is what gets hashed and uploaded.
func (p Payload) Content() []byte {
	if p.kind == PayloadBinary {
		return p.data
	}
	return []byte(p.text)
}

// ValidatePage rejects page text below the minimum threshold.
func ValidatePage(text string) error {
	if len(strings.TrimSpace(text)) < MinPageChars {
		return ErrPageTooShort
	}
	return nil
}

// ValidateDocumentText rejects extracted document text below the minimum
// threshold.
func ValidateDocumentText(text string) error {
	if len(strings.TrimSpace(text)) < MinDocumentChars {
		return ErrDocumentTooShort
	}
	return nil
}

// ValidateDocumentBytes rejects downloaded bodies too small to be a real
// document.
func ValidateDocumentBytes(data []byte) error {
	if len(data) <= MinDocumentBytes {
		return ErrDocumentEmpty
	}
	return nil
}
