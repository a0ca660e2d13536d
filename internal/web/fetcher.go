package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const (
	RequestTimeout  = 20 * time.Second
	MaxResponseSize = 1 * 1024 * 1024 // 1MB
	maxLinks        = 50
)

var ErrUnsupportedContent = errors.New("unsupported content type: binary files like images or PDFs are not supported")

type PageSummary struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Text        string   `json:"text"`
	Links       []string `json:"links"`
}

// Fetcher downloads pages with colly. Requests are serialized; callers that
// want caching put a pagecache.Cache in front of FetchContent.
type Fetcher struct {
	c  *colly.Collector
	mu sync.Mutex
}

type FetcherOptions struct {
	// Delay between requests to the same domain. Defaults to one second.
	Delay time.Duration
	// Timeout per request. Defaults to RequestTimeout.
	Timeout time.Duration
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Delay == 0 {
		opts.Delay = time.Second
	}
	if opts.Timeout == 0 {
		opts.Timeout = RequestTimeout
	}
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.Async(false),
	)
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       opts.Delay,
	})
	c.SetRequestTimeout(opts.Timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", NextUserAgent())
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})
	c.OnResponse(func(r *colly.Response) {
		r.Ctx.Put("final_url", r.Request.URL.String())
		r.Ctx.Put("content_type", r.Headers.Get("Content-Type"))
		r.Ctx.Put("body", append([]byte(nil), r.Body...))
	})
	return &Fetcher{c: c}
}

// FetchContent fetches rawURL and renders it as text. It has the shape of
// pagecache.FetchFunc.
func (f *Fetcher) FetchContent(ctx context.Context, rawURL string) (string, error) {
	ps, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return RenderPage(ps), nil
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*PageSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, errors.New("url must start with http:// or https://")
	}

	pageHTML, finalURL, contentType, err := f.visit(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(pageHTML) == 0 {
		return nil, errors.New("empty response body")
	}

	if len(pageHTML) > MaxResponseSize {
		pageHTML = pageHTML[:MaxResponseSize]
		pageHTML = append(pageHTML, []byte("... [response trimmed due to size]")...)
	}

	lowerCT := strings.ToLower(contentType)
	if !strings.HasPrefix(lowerCT, "text/") {
		return nil, ErrUnsupportedContent
	}
	if !strings.Contains(lowerCT, "text/html") {
		return &PageSummary{URL: finalURL, Text: string(pageHTML)}, nil
	}
	return summarizeHTML(pageHTML, finalURL)
}

func (f *Fetcher) visit(ctx context.Context, rawURL string) (body []byte, finalURL, contentType string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	originalCtx := f.c.Context
	f.c.Context = ctx
	defer func() { f.c.Context = originalCtx }()

	cctx := colly.NewContext()
	if err := f.c.Request("GET", rawURL, nil, cctx, nil); err != nil {
		return nil, "", "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	body, _ = cctx.GetAny("body").([]byte)
	return body, cctx.Get("final_url"), cctx.Get("content_type"), nil
}

func summarizeHTML(pageHTML []byte, finalURL string) (*PageSummary, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	// Remove non-visible elements
	doc.Find("script, style, noscript, iframe, object, embed, img, video, picture, svg, canvas, audio, source, track, map, area, form, label, input, button, select, textarea, progress, ins, applet").Remove()

	title := strings.TrimSpace(doc.Find("head > title").First().Text())
	desc := strings.TrimSpace(doc.Find("meta[name=description]").AttrOr("content", ""))

	plainText := strings.TrimSpace(doc.Find("body").Text())
	plainText = strings.Join(strings.Fields(plainText), " ")

	links := extractLinks(doc, finalURL)

	// Links are reported separately; drop anchors and page chrome from the body.
	doc.Find("a").Remove()
	doc.Find("header, footer, aside").Remove()

	htmlStr, err := doc.Html()
	if err != nil {
		return nil, err
	}
	bodyText, err := htmltomarkdown.ConvertString(htmlStr)
	if err != nil {
		bodyText = plainText
	}

	return &PageSummary{
		URL:         finalURL,
		Title:       title,
		Description: desc,
		Text:        bodyText,
		Links:       links,
	}, nil
}

// extractLinks returns up to maxLinks absolute, fragment-free http(s) links
// in sorted order.
func extractLinks(doc *goquery.Document, finalURL string) []string {
	base, _ := url.Parse(finalURL)
	canonicalSet := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "javascript:") {
			return
		}
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		if !u.IsAbs() && base != nil {
			u = base.ResolveReference(u)
		}
		switch u.Scheme {
		case "", "javascript", "mailto", "tel":
			return
		}
		u.Fragment = ""
		canonicalSet[u.String()] = struct{}{}
	})

	links := make([]string, 0, len(canonicalSet))
	for canon := range canonicalSet {
		links = append(links, canon)
	}
	sort.Strings(links)
	if len(links) > maxLinks {
		links = links[:maxLinks]
	}
	return links
}

// RenderPage formats a page summary as markdown-ish text.
func RenderPage(ps *PageSummary) string {
	var sb strings.Builder
	if ps.Title != "" {
		sb.WriteString("# ")
		sb.WriteString(ps.Title)
		sb.WriteString("\n\n")
	}
	if ps.Description != "" {
		sb.WriteString(ps.Description)
		sb.WriteString("\n\n")
	}
	if len(ps.Links) > 0 {
		sb.WriteString("## Links\n")
		for _, l := range ps.Links {
			sb.WriteString("- ")
			sb.WriteString(l)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(ps.Text)
	return sb.String()
}
