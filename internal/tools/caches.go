package tools

import (
	"time"

	"github.com/leonardcser/callcache/internal/kv"
	"github.com/leonardcser/callcache/internal/pagecache"
	"github.com/leonardcser/callcache/internal/telemetry"
)

// Key prefixes for the two content caches sharing one store. Neither content
// prefix is a prefix of the other, so a page source never collides with a
// search query.
const (
	PageContentPrefix   = "cached:page:"
	PageCountPrefix     = "count:page:"
	SearchContentPrefix = "cached:search:"
	SearchCountPrefix   = "count:search:"
)

// NewPageCache fronts a page fetcher with the page key space. m may be nil.
func NewPageCache(store kv.Store, fetch pagecache.FetchFunc, ttl time.Duration, m *telemetry.Metrics) *pagecache.Cache {
	return pagecache.New(store, fetch,
		pagecache.WithTTL(ttl),
		pagecache.WithPrefixes(PageContentPrefix, PageCountPrefix),
		pagecache.WithMetrics(m, "page"),
	)
}

// NewSearchCache fronts a searcher with the search key space. m may be nil.
func NewSearchCache(store kv.Store, search pagecache.FetchFunc, ttl time.Duration, m *telemetry.Metrics) *pagecache.Cache {
	return pagecache.New(store, search,
		pagecache.WithTTL(ttl),
		pagecache.WithPrefixes(SearchContentPrefix, SearchCountPrefix),
		pagecache.WithMetrics(m, "search"),
	)
}
