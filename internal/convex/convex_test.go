package convex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertSendsOnlySetFields(t *testing.T) {
	t.Parallel()

	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/documents/upsert", r.URL.Path)
		require.Equal(t, "Bearer deploy-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"documentId":"doc_123"}`))
	}))
	defer server.Close()

	client := New(server.URL, "deploy-key")
	err := client.Upsert(context.Background(), Document{
		SourceID:      "plan-commission",
		SourceURL:     "https://city.milwaukee.gov/cityclerk/PlanCommission",
		Title:         "City Plan Commission",
		ContentType:   "html",
		Category:      "boards",
		SyncFrequency: "weekly",
		ContentHash:   "abc123",
		Status:        StatusCrawled,
	})
	require.NoError(t, err)

	require.Equal(t, "plan-commission", body["sourceId"])
	require.Equal(t, "crawled", body["status"])
	_, hasMarkdown := body["markdownContent"]
	require.False(t, hasMarkdown)
	_, hasStorage := body["pdfStorageId"]
	require.False(t, hasStorage)
}

func TestUpdateStatusOptionalFields(t *testing.T) {
	t.Parallel()

	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/documents/status", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, "deploy-key")
	err := client.UpdateStatus(context.Background(), StatusUpdate{
		SourceID:      "design-guidelines",
		Status:        StatusIndexed,
		GeminiFileURI: "fileSearchStores/s/documents/d",
	})
	require.NoError(t, err)

	require.Equal(t, "indexed", body["status"])
	require.Equal(t, "fileSearchStores/s/documents/d", body["geminiFileUri"])
	_, hasErrMsg := body["errorMessage"]
	require.False(t, hasErrMsg)
}

func TestGetReturnsDocument(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/documents", r.URL.Path)
		require.Equal(t, "zoning-code", r.URL.Query().Get("sourceId"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id":"j57abc","sourceId":"zoning-code","status":"indexed","contentHash":"ff00"}`))
	}))
	defer server.Close()

	client := New(server.URL, "deploy-key")
	doc, err := client.Get(context.Background(), "zoning-code")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, "zoning-code", doc.SourceID)
	require.Equal(t, StatusIndexed, doc.Status)
	require.Equal(t, "ff00", doc.ContentHash)
}

func TestGetMissingDocumentIsNotAnError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "deploy-key")
	doc, err := client.Get(context.Background(), "never-synced")
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestCheckHash(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/documents/check-hash", r.URL.Path)
		require.Equal(t, "plan-commission", r.URL.Query().Get("sourceId"))
		require.Equal(t, "abc123", r.URL.Query().Get("contentHash"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"exists":true,"changed":false,"currentHash":"abc123"}`))
	}))
	defer server.Close()

	client := New(server.URL, "deploy-key")
	check, err := client.CheckHash(context.Background(), "plan-commission", "abc123")
	require.NoError(t, err)
	require.True(t, check.Exists)
	require.False(t, check.Changed)
	require.Equal(t, "abc123", check.CurrentHash)
}

func TestListByCadence(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/documents/by-frequency", r.URL.Path)
		require.Equal(t, "weekly", r.URL.Query().Get("syncFrequency"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"sourceId":"a","status":"indexed"},{"sourceId":"b","status":"crawled"}]`))
	}))
	defer server.Close()

	client := New(server.URL, "deploy-key")
	docs, err := client.ListByCadence(context.Background(), "weekly")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "a", docs[0].SourceID)
	require.Equal(t, StatusCrawled, docs[1].Status)
}
