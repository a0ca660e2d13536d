package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// extractDDGURL extracts the actual URL from DuckDuckGo's redirect URL format
// Input: //duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com&rut=...
// Output: https://example.com
func extractDDGURL(ddgURL string) string {
	// Handle protocol-relative URLs
	if strings.HasPrefix(ddgURL, "//duckduckgo.com/l/") {
		ddgURL = "https:" + ddgURL
	}

	u, err := url.Parse(ddgURL)
	if err != nil {
		return ddgURL // Return original if parsing fails
	}

	// Extract the uddg parameter which contains the actual URL
	uddg := u.Query().Get("uddg")
	if uddg == "" {
		return ddgURL // Return original if no uddg parameter
	}

	// URL decode the actual URL
	actualURL, err := url.QueryUnescape(uddg)
	if err != nil {
		return ddgURL // Return original if decoding fails
	}

	return actualURL
}

type SearchResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

const (
	defaultSearchEndpoint = "https://html.duckduckgo.com/html/"
	defaultSearchLimit    = 10
)

// Searcher queries the DuckDuckGo HTML endpoint.
type Searcher struct {
	client   *http.Client
	endpoint string
}

// NewSearcher returns a Searcher for endpoint; empty means DuckDuckGo.
func NewSearcher(endpoint string) *Searcher {
	if endpoint == "" {
		endpoint = defaultSearchEndpoint
	}
	return &Searcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: endpoint,
	}
}

// SearchContent runs query with the default limit and renders the results.
// It has the shape of pagecache.FetchFunc.
func (s *Searcher) SearchContent(ctx context.Context, query string) (string, error) {
	results, err := s.Search(ctx, query, defaultSearchLimit)
	if err != nil {
		return "", err
	}
	return RenderResults(results), nil
}

func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("empty query")
	}
	if limit <= 0 || limit > 20 {
		limit = defaultSearchLimit
	}
	values := url.Values{"q": {q}, "kl": {"us-en"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", NextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("duckduckgo status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, limit)
	// Use concrete selectors from the DuckDuckGo HTML endpoint structure.
	doc.Find("div.result.results_links.results_links_deep.web-result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		a := s.Find("a.result__a").First()
		link := strings.TrimSpace(a.AttrOr("href", ""))
		title := singleLine(a.Text())
		desc := singleLine(s.Find("a.result__snippet").First().Text())
		if title != "" && link != "" {
			// Extract the actual URL from DuckDuckGo's redirect URL
			actualLink := extractDDGURL(link)
			results = append(results, SearchResult{Title: title, Description: desc, Link: actualLink})
		}
		return len(results) < limit
	})

	if len(results) == 0 {
		// Fallback: scan anchor list and nearest snippet up the tree
		doc.Find("a.result__a").EachWithBreak(func(_ int, n *goquery.Selection) bool {
			if len(results) >= limit {
				return false
			}
			title := singleLine(n.Text())
			link := strings.TrimSpace(n.AttrOr("href", ""))
			desc := singleLine(n.Parents().Find("a.result__snippet").First().Text())
			// Extract the actual URL from DuckDuckGo's redirect URL
			actualLink := extractDDGURL(link)
			results = append(results, SearchResult{Title: title, Description: desc, Link: actualLink})
			return true
		})
	}
	return results, nil
}

// RenderResults renders an ordered list with a single URL line per result.
func RenderResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results."
	}
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n   %s", i+1, r.Title, r.Link)
		if r.Description != "" {
			sb.WriteString("\n   ")
			sb.WriteString(r.Description)
		}
		if i < len(results)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// singleLine trims and collapses internal whitespace/newlines to single spaces.
func singleLine(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}
