package knowledge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxSourceBytes bounds how much content a single source may contribute.
const maxSourceBytes = 2 << 20 // 2 MiB

const userAgent = "Mozilla/5.0 (compatible; kasabot/1.0)"

// Source is one external knowledge source. Fetch returns the normalized
// plain text of the source's current content.
type Source interface {
	ID() string
	Fetch(ctx context.Context) (string, error)
}

// GoogleDocSource fetches a Google Doc through the public plain-text
// export endpoint. The document must be link-readable.
type GoogleDocSource struct {
	DocID  string
	Client *http.Client

	// baseURL overrides the export host in tests.
	baseURL string
}

func (s *GoogleDocSource) ID() string { return "gdoc:" + s.DocID }

func (s *GoogleDocSource) Fetch(ctx context.Context) (string, error) {
	base := s.baseURL
	if base == "" {
		base = "https://docs.google.com"
	}
	url := fmt.Sprintf("%s/document/d/%s/export?format=txt", base, s.DocID)
	body, err := get(ctx, s.Client, url)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// WebsiteSource scrapes a web page and reduces it to visible text:
// scripts, styles and navigation chrome are dropped, whitespace collapsed.
type WebsiteSource struct {
	URL    string
	Client *http.Client
}

func (s *WebsiteSource) ID() string { return "website:" + s.URL }

func (s *WebsiteSource) Fetch(ctx context.Context) (string, error) {
	body, err := get(ctx, s.Client, s.URL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", s.URL, err)
	}

	doc.Find("script, style, nav, footer, noscript").Remove()

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// get performs a bounded HTTP GET and returns the response body.
func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return body, nil
}
