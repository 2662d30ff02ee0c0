package browser

import (
	"fmt"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"
)

// contentSelectors are tried in order against the rendered DOM; the first
// match wins. These cover the main-content containers seen across the
// city's sites.
var contentSelectors = []string{
	"main",
	"article",
	"#content",
	"#main-content",
	".content",
	".main-content",
	"#bodyContent",
	".page-content",
}

// Link-only lines shorter than this are navigation chrome, not content.
const shortLinkLineLimit = 50

// extractMarkdown pulls the main content out of rendered HTML. A matching
// content selector is converted to markdown directly; otherwise trafilatura
// decides what the main content is.
func extractMarkdown(html, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	for _, selector := range contentSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		fragment, err := goquery.OuterHtml(sel.First())
		if err != nil {
			return "", fmt.Errorf("serialize %q match: %w", selector, err)
		}
		markdown, err := htmltomarkdown.ConvertString(fragment)
		if err != nil {
			return "", fmt.Errorf("convert %q match to markdown: %w", selector, err)
		}
		return cleanupMarkdown(markdown), nil
	}

	return extractMainContent(html, pageURL)
}

// extractMainContent is the fallback when no known container matches.
func extractMainContent(html, pageURL string) (string, error) {
	opts := trafilatura.Options{}
	if parsed, err := url.Parse(pageURL); err == nil {
		opts.OriginalURL = parsed
	}
	result, err := trafilatura.Extract(strings.NewReader(html), opts)
	if err != nil {
		return "", fmt.Errorf("extract main content: %w", err)
	}
	if result == nil || result.ContentText == "" {
		return "", fmt.Errorf("no main content found")
	}
	return cleanupMarkdown(result.ContentText), nil
}

// cleanupMarkdown drops leading blank lines and short link-only lines left
// over from navigation chrome, and trims trailing whitespace.
func cleanupMarkdown(markdown string) string {
	lines := strings.Split(markdown, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(kept) == 0 && trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, ")") && len(trimmed) < shortLinkLineLimit {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimRight(strings.Join(kept, "\n"), " \t\n")
}

// hasChallengeMarkers reports whether rendered HTML still shows a bot
// interstitial. The first marker is matched case-sensitively on purpose;
// it is the exact heading the interstitial renders.
func hasChallengeMarkers(html string) bool {
	if strings.Contains(html, "Verify you are human") {
		return true
	}
	return strings.Contains(strings.ToLower(html), "checking your browser")
}
