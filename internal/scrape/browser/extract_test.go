package browser

import (
	"strings"
	"testing"
)

func TestExtractMarkdownUsesContentSelector(t *testing.T) {
	t.Parallel()

	html := `<html><head><title>Zoning</title></head><body>
		<nav><a href="/">Navigation menu</a></nav>
		<main>
			<h1>Zoning Code Overview</h1>
			<p>The zoning code regulates land use across every district in the city,
			including permitted uses, setbacks, and height limits for each parcel.</p>
		</main>
		<footer>Footer boilerplate</footer>
	</body></html>`

	markdown, err := extractMarkdown(html, "https://example.com/zoning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(markdown, "Zoning Code Overview") {
		t.Fatalf("markdown missing heading: %q", markdown)
	}
	if !strings.Contains(markdown, "regulates land use") {
		t.Fatalf("markdown missing body text: %q", markdown)
	}
	if strings.Contains(markdown, "Navigation menu") || strings.Contains(markdown, "Footer boilerplate") {
		t.Fatalf("markdown leaked chrome: %q", markdown)
	}
}

func TestExtractMarkdownSelectorOrder(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<main><p>Primary container content that should win over the article element below.</p></main>
		<article><p>Secondary article content that must not be selected.</p></article>
	</body></html>`

	markdown, err := extractMarkdown(html, "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(markdown, "Primary container content") {
		t.Fatalf("expected main content, got %q", markdown)
	}
	if strings.Contains(markdown, "Secondary article content") {
		t.Fatalf("article content selected over main: %q", markdown)
	}
}

func TestExtractMarkdownFallsBackWithoutSelectors(t *testing.T) {
	t.Parallel()

	html := `<html><head><title>Commission Minutes</title></head><body>
		<div>
			<p>The commission met on the first Monday of the month to review pending
			applications for certificates of appropriateness in the historic districts.</p>
			<p>Staff presented three reports covering facade alterations, a new garage
			structure, and signage updates along the commercial corridor. Each item was
			discussed at length before the commission voted on the record.</p>
			<p>All decisions take effect ten days after publication unless an appeal is
			filed with the city clerk during that window.</p>
		</div>
	</body></html>`

	markdown, err := extractMarkdown(html, "https://example.com/minutes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(markdown, "certificates of appropriateness") {
		t.Fatalf("fallback extraction missing content: %q", markdown)
	}
}

func TestCleanupMarkdown(t *testing.T) {
	t.Parallel()

	input := "\n\n\n[Skip to content](#main)\n# Plan Commission\n\nMeeting agendas are posted weekly.\n" +
		"[A long descriptive link to the full agenda packet for review](https://example.com/agenda)\n\n\n"
	got := cleanupMarkdown(input)

	if strings.HasPrefix(got, "\n") {
		t.Fatalf("leading blank lines not dropped: %q", got)
	}
	if strings.Contains(got, "[Skip to content](#main)") {
		t.Fatalf("short link line not dropped: %q", got)
	}
	if !strings.Contains(got, "[A long descriptive link to the full agenda packet for review](https://example.com/agenda)") {
		t.Fatalf("long link line should be kept: %q", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Fatalf("trailing blank lines not trimmed: %q", got)
	}
	if !strings.HasPrefix(got, "# Plan Commission") {
		t.Fatalf("unexpected first line: %q", got)
	}
}

func TestHasChallengeMarkers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		html string
		want bool
	}{
		{"human check exact case", "<h1>Verify you are human</h1>", true},
		{"human check wrong case", "<h1>verify you are human</h1>", false},
		{"browser check any case", "<p>Checking Your Browser before accessing</p>", true},
		{"browser check lower", "<p>checking your browser...</p>", true},
		{"plain page", "<h1>Plan Commission</h1>", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := hasChallengeMarkers(tc.html); got != tc.want {
				t.Fatalf("hasChallengeMarkers(%q) = %v, want %v", tc.html, got, tc.want)
			}
		})
	}
}
