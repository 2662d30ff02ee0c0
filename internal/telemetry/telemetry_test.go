package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHostLabel(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard https", "https://City.Milwaukee.gov/DCD", "city.milwaukee.gov"},
		{"standard http", "http://example.com/path", "example.com"},
		{"no scheme", "api.firecrawl.dev/v1/scrape", "api.firecrawl.dev"},
		{"host with port", "example.com:8080", "example.com"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HostLabel(tc.input); got != tc.expected {
				t.Errorf("HostLabel(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestObserveHelpers(t *testing.T) {
	before := testutil.ToFloat64(scrapesTotal.WithLabelValues("browser", "html", "ok"))
	ObserveScrape("browser", "html", true, 1500*time.Millisecond)
	if got := testutil.ToFloat64(scrapesTotal.WithLabelValues("browser", "html", "ok")); got != before+1 {
		t.Errorf("expected scrape counter to advance by 1, got %f -> %f", before, got)
	}

	before = testutil.ToFloat64(clientRetriesTotal.WithLabelValues("api.firecrawl.dev"))
	ObserveClientRetry("https://api.firecrawl.dev/v1/scrape")
	if got := testutil.ToFloat64(clientRetriesTotal.WithLabelValues("api.firecrawl.dev")); got != before+1 {
		t.Errorf("expected retry counter to advance by 1, got %f -> %f", before, got)
	}

	before = testutil.ToFloat64(indexUploadsTotal.WithLabelValues("application/pdf", "error"))
	ObserveIndexUpload("application/pdf", false)
	if got := testutil.ToFloat64(indexUploadsTotal.WithLabelValues("application/pdf", "error")); got != before+1 {
		t.Errorf("expected upload counter to advance by 1, got %f -> %f", before, got)
	}
}

func TestMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200"))
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	if errInner := resp.Body.Close(); errInner != nil {
		t.Log(errInner)
	}

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200")); got != before+1 {
		t.Errorf("expected http_requests_total to advance by 1, got %f -> %f", before, got)
	}
	if val := testutil.CollectAndCount(httpRequestDurationSeconds); val <= 0 {
		t.Errorf("expected http_request_duration_seconds to be observed, got %d", val)
	}
}
