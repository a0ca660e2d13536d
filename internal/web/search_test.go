package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const ddgPage = `<html><body>
<div class="result results_links results_links_deep web-result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&rut=abc">The Go
  Programming Language</a>
  <a class="result__snippet">Go is an open source
  programming language.</a>
</div>
<div class="result results_links results_links_deep web-result">
  <a class="result__a" href="https://pkg.go.dev/">Go Packages</a>
</div>
</body></html>`

func TestSearch(t *testing.T) {
	t.Parallel()
	queries := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query().Get("q")
		fmt.Fprint(w, ddgPage)
	}))
	defer srv.Close()

	s := NewSearcher(srv.URL + "/html/")
	results, err := s.Search(context.Background(), "  golang  ", 0)
	if err != nil {
		t.Fatal(err)
	}
	if q := <-queries; q != "golang" {
		t.Errorf("query = %q, want golang", q)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	want := SearchResult{Title: "The Go Programming Language", Link: "https://go.dev/", Description: "Go is an open source programming language."}
	if results[0] != want {
		t.Errorf("results[0] = %+v, want %+v", results[0], want)
	}

	content, err := s.SearchContent(context.Background(), "golang")
	if err != nil {
		t.Fatal(err)
	}
	if content != RenderResults(results) {
		t.Errorf("SearchContent = %q", content)
	}
}

func TestSearchErrors(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewSearcher(srv.URL)
	if _, err := s.Search(context.Background(), "   ", 5); err == nil {
		t.Error("empty query should fail")
	}
	if _, err := s.Search(context.Background(), "go", 5); err == nil {
		t.Error("non-2xx status should fail")
	}
}

func TestExtractDDGURL(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com&rut=x": "https://example.com",
		"https://example.com/direct":                               "https://example.com/direct",
		"//duckduckgo.com/l/?rut=x":                                "https://duckduckgo.com/l/?rut=x",
	}
	for in, want := range tests {
		if got := extractDDGURL(in); got != want {
			t.Errorf("extractDDGURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderResults(t *testing.T) {
	t.Parallel()
	if got := RenderResults(nil); got != "No results." {
		t.Errorf("RenderResults(nil) = %q", got)
	}
	got := RenderResults([]SearchResult{
		{Title: "A", Link: "https://a", Description: "about a"},
		{Title: "B", Link: "https://b"},
	})
	want := "1. A\n   https://a\n   about a\n\n2. B\n   https://b"
	if got != want {
		t.Errorf("RenderResults = %q, want %q", got, want)
	}
}
