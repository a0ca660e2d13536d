package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/leonardcser/callcache/internal/callcache"
	"github.com/leonardcser/callcache/internal/keygen"
	"github.com/leonardcser/callcache/internal/kv/memkv"
	"github.com/leonardcser/callcache/internal/pagecache"
)

type fixture struct {
	deps    Deps
	fetches int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := memkv.New()
	if err != nil {
		t.Fatal(err)
	}
	c, err := callcache.New(context.Background(), store, callcache.WithKeyGenerator(&keygen.Sequence{Prefix: "k"}))
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{}
	f.deps = Deps{
		Pages: NewPageCache(store, func(_ context.Context, url string) (string, error) {
			f.fetches++
			if strings.Contains(url, "fail") {
				return "", errors.New("upstream down")
			}
			return "content of " + url, nil
		}, pagecache.DefaultTTL, nil),
		Searches: NewSearchCache(store, func(_ context.Context, q string) (string, error) {
			return "1. " + q, nil
		}, pagecache.DefaultTTL, nil),
		Cache: c,
		Store: store,
	}
	return f
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("content items = %d, want 1", len(res.Content))
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	return tc.Text, res.IsError
}

func TestWebFetchAndStats(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	fetch := WebFetchHandler(f.deps.Pages)

	for range 3 {
		text, isErr := call(t, fetch, map[string]any{"url": "http://x"})
		if isErr || text != "content of http://x" {
			t.Fatalf("web-fetch = %q, error %v", text, isErr)
		}
	}
	if f.fetches != 1 {
		t.Errorf("upstream fetches = %d, want 1", f.fetches)
	}
	text, _ := call(t, PageStatsHandler(f.deps.Pages), map[string]any{"url": "http://x"})
	if text != "http://x was requested 3 times" {
		t.Errorf("page-stats = %q", text)
	}

	if _, isErr := call(t, fetch, map[string]any{}); !isErr {
		t.Error("missing url should be a tool error")
	}
	if text, isErr := call(t, fetch, map[string]any{"url": "http://fail"}); !isErr || text != "upstream down" {
		t.Errorf("failing fetch = %q, error %v", text, isErr)
	}
}

func TestWebSearch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	text, isErr := call(t, WebSearchHandler(f.deps.Searches), map[string]any{"query": "golang"})
	if isErr || text != "1. golang" {
		t.Errorf("web-search = %q, error %v", text, isErr)
	}
}

func TestPageAndSearchKeysDisjoint(t *testing.T) {
	t.Parallel()
	store, err := memkv.New()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	pages := NewPageCache(store, func(_ context.Context, src string) (string, error) {
		return "page " + src, nil
	}, pagecache.DefaultTTL, nil)
	searches := NewSearchCache(store, func(_ context.Context, q string) (string, error) {
		return "results " + q, nil
	}, pagecache.DefaultTTL, nil)

	if _, err := pages.Fetch(ctx, "search:foo"); err != nil {
		t.Fatal(err)
	}
	got, err := searches.Fetch(ctx, "foo")
	if err != nil {
		t.Fatal(err)
	}
	if got != "results foo" {
		t.Errorf("search after page fetch = %q, want %q", got, "results foo")
	}
	if n, _ := searches.AccessCount(ctx, "foo"); n != 1 {
		t.Errorf("search count = %d, want 1", n)
	}
	if n, _ := pages.AccessCount(ctx, "search:foo"); n != 1 {
		t.Errorf("page count = %d, want 1", n)
	}
}

func TestCacheStoreRetrieveReplay(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	store := CacheStoreHandler(f.deps.Cache)
	retrieve := CacheRetrieveHandler(f.deps.Cache)

	k1, isErr := call(t, store, map[string]any{"value": "hello"})
	if isErr || k1 != "k-1" {
		t.Fatalf("cache-store = %q, error %v", k1, isErr)
	}
	k2, _ := call(t, store, map[string]any{"value": "42", "type": "int"})

	if text, _ := call(t, retrieve, map[string]any{"key": k1}); text != "hello" {
		t.Errorf("retrieve text = %q", text)
	}
	if text, _ := call(t, retrieve, map[string]any{"key": k2, "type": "int"}); text != "42" {
		t.Errorf("retrieve int = %q", text)
	}
	if _, isErr := call(t, retrieve, map[string]any{"key": k1, "type": "int"}); !isErr {
		t.Error("retrieving text as int should be a tool error")
	}
	if text, isErr := call(t, retrieve, map[string]any{"key": "nope"}); isErr || !strings.HasPrefix(text, "No value") {
		t.Errorf("retrieve missing = %q, error %v", text, isErr)
	}
	if _, isErr := call(t, store, map[string]any{"value": "x", "type": "int"}); !isErr {
		t.Error("invalid int should be a tool error")
	}

	text, _ := call(t, CacheReplayHandler(f.deps.Store), map[string]any{})
	want := "Cache.Store was called 2 times:\n" +
		"Cache.Store(\"hello\") -> \"k-1\"\n" +
		"Cache.Store(42) -> \"k-2\"\n"
	if text != want {
		t.Errorf("cache-replay =\n%s\nwant\n%s", text, want)
	}
}

func TestParseFormatBytes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	v, err := ParseValue("AAEC", "bytes")
	if err != nil {
		t.Fatal(err)
	}
	key, err := f.deps.Cache.Store(context.Background(), v)
	if err != nil {
		t.Fatal(err)
	}
	out, found, err := FormatValue(context.Background(), f.deps.Cache, key, "bytes")
	if err != nil || !found || out != "AAEC" {
		t.Errorf("FormatValue = %q, %v, %v", out, found, err)
	}
	if _, err := ParseValue("1", "bool"); err == nil {
		t.Error("unknown type should fail")
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := server.NewMCPServer("test", "0.0.0", server.WithToolCapabilities(false))
	Register(s, f.deps)
}
