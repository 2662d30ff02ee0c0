package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/mkedev/planning-sync/internal/sources"
)

func TestConfigureHooksResponse(t *testing.T) {
	t.Parallel()

	p := New(Config{}, nil)
	var report Report
	start := time.Now()

	hooks := &stubHooks{}
	p.configureHooks(hooks, start, &report)
	if hooks.onResponse == nil || hooks.onError == nil {
		t.Fatal("expected hooks to be registered")
	}

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("hello"),
		Headers:    &http.Header{"Content-Type": {"text/html; charset=utf-8"}},
	})

	if !report.OK {
		t.Fatal("expected 200 response to be OK")
	}
	if report.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", report.StatusCode)
	}
	if report.Bytes != len("hello") {
		t.Fatalf("unexpected byte count %d", report.Bytes)
	}
	if !strings.HasPrefix(report.ContentType, "text/html") {
		t.Fatalf("unexpected content type %q", report.ContentType)
	}
}

func TestConfigureHooksError(t *testing.T) {
	t.Parallel()

	p := New(Config{}, nil)
	var report Report
	hooks := &stubHooks{}
	p.configureHooks(hooks, time.Now(), &report)

	hooks.onError(&colly.Response{StatusCode: http.StatusNotFound}, errors.New("Not Found"))

	if report.OK {
		t.Fatal("expected error response to not be OK")
	}
	if report.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status %d", report.StatusCode)
	}
	if report.Error == "" {
		t.Fatal("expected error message to be recorded")
	}
}

func TestCheckAgainstServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>planning</html>"))
	}))
	defer srv.Close()

	p := New(Config{Timeout: 5 * time.Second}, nil)
	report := p.Check(context.Background(), sources.Source{ID: "test-page", URL: srv.URL})

	if !report.OK {
		t.Fatalf("expected probe to succeed: %+v", report)
	}
	if report.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", report.StatusCode)
	}
	if report.Bytes == 0 {
		t.Fatal("expected nonzero body size")
	}
	if report.Duration <= 0 {
		t.Fatal("expected duration to be recorded")
	}
}

func TestCheckNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	p := New(Config{Timeout: 5 * time.Second}, nil)
	report := p.Check(context.Background(), sources.Source{ID: "gone-page", URL: srv.URL})

	if report.OK {
		t.Fatalf("expected probe to fail: %+v", report)
	}
	if report.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status %d", report.StatusCode)
	}
	if report.Error == "" {
		t.Fatal("expected error message for 404")
	}
}

func TestCheckCanceled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	p := New(Config{Timeout: 5 * time.Second}, nil)
	report := p.Check(ctx, sources.Source{ID: "slow-page", URL: srv.URL})

	if report.OK {
		t.Fatal("expected canceled probe to fail")
	}
	if !strings.Contains(report.Error, "canceled") {
		t.Fatalf("expected cancellation error, got %q", report.Error)
	}
}

func TestCheckAllPreservesOrder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	list := []sources.Source{
		{ID: "first", URL: srv.URL + "/a"},
		{ID: "second", URL: srv.URL + "/missing"},
		{ID: "third", URL: srv.URL + "/b"},
	}

	p := New(Config{Timeout: 5 * time.Second}, nil)
	reports := p.CheckAll(context.Background(), list)

	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	for i, want := range []string{"first", "second", "third"} {
		if reports[i].SourceID != want {
			t.Fatalf("report %d = %q, want %q", i, reports[i].SourceID, want)
		}
	}
	if !reports[0].OK || reports[1].OK || !reports[2].OK {
		t.Fatalf("unexpected OK pattern: %+v", reports)
	}
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
