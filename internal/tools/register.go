// Package tools defines the MCP tools served by cmd/callcache-mcp.
package tools

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/leonardcser/callcache/internal/callcache"
	"github.com/leonardcser/callcache/internal/kv"
	"github.com/leonardcser/callcache/internal/pagecache"
)

// Deps are the components the tools operate on.
type Deps struct {
	Pages    *pagecache.Cache
	Searches *pagecache.Cache
	Cache    *callcache.Cache
	Store    kv.Store
}

// Register adds every tool to s.
func Register(s *server.MCPServer, d Deps) {
	s.AddTool(mcp.NewTool("web-fetch",
		mcp.WithDescription(multiline(
			"Fetches content from a specified URL and returns the parsed content",
			"\nFunctionality:",
			"- Takes a URL as input",
			"- Fetches the URL content and parses it",
			"- Returns the title, description, links and text of the page",
			"\nUsage notes:",
			"- The URL must be a fully-formed valid URL",
			"- This tool is read-only and does not modify any files",
			"- Responses are cached for a short time; repeated requests for the same URL are served from the cache",
		)),
		mcp.WithString("url", mcp.Required(), mcp.Description("The URL to fetch content from")),
	), WebFetchHandler(d.Pages))

	s.AddTool(mcp.NewTool("web-search",
		mcp.WithDescription(multiline(
			"Searches the web and returns a numbered list of results",
			"\nUsage notes:",
			"- Results for the same query are cached for a few minutes",
		)),
		mcp.WithString("query", mcp.Required(), mcp.Description("The search query to use")),
	), WebSearchHandler(d.Searches))

	s.AddTool(mcp.NewTool("page-stats",
		mcp.WithDescription("Reports how many times a URL was requested through web-fetch, including cache hits"),
		mcp.WithString("url", mcp.Required(), mcp.Description("The URL to report on")),
	), PageStatsHandler(d.Pages))

	s.AddTool(mcp.NewTool("cache-store",
		mcp.WithDescription(multiline(
			"Stores a value under a new random key and returns the key",
			"\nEvery call is counted and recorded; see cache-replay",
		)),
		mcp.WithString("value", mcp.Required(), mcp.Description("The value to store")),
		mcp.WithString("type", mcp.Description("How to interpret value"), mcp.Enum("text", "int", "float", "bytes")),
	), CacheStoreHandler(d.Cache))

	s.AddTool(mcp.NewTool("cache-retrieve",
		mcp.WithDescription("Reads the value stored under a key returned by cache-store"),
		mcp.WithString("key", mcp.Required(), mcp.Description("The key returned by cache-store")),
		mcp.WithString("type", mcp.Description("How to decode the stored value"), mcp.Enum("text", "int", "float", "bytes")),
	), CacheRetrieveHandler(d.Cache))

	s.AddTool(mcp.NewTool("cache-replay",
		mcp.WithDescription("Shows how many times an instrumented operation ran and every recorded call"),
		mcp.WithString("operation", mcp.Description("Operation name, defaults to "+callcache.StoreOp)),
	), CacheReplayHandler(d.Store))
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }
