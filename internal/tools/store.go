package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/callcache/internal/callcache"
	"github.com/leonardcser/callcache/internal/instrument"
	"github.com/leonardcser/callcache/internal/kv"
)

// ParseValue converts a textual value into the scalar Store expects.
// kind is one of text, int, float or bytes (base64).
func ParseValue(raw, kind string) (any, error) {
	switch kind {
	case "", "text":
		return raw, nil
	case "int":
		return strconv.ParseInt(raw, 10, 64)
	case "float":
		return strconv.ParseFloat(raw, 64)
	case "bytes":
		return base64.StdEncoding.DecodeString(raw)
	default:
		return nil, fmt.Errorf("unknown value type %q", kind)
	}
}

// FormatValue retrieves key as kind and renders it as text. found is false
// for absent keys.
func FormatValue(ctx context.Context, c *callcache.Cache, key, kind string) (string, bool, error) {
	switch kind {
	case "", "text":
		return c.RetrieveText(ctx, key)
	case "int":
		n, found, err := c.RetrieveInt(ctx, key)
		return strconv.FormatInt(n, 10), found, err
	case "float":
		f, found, err := c.RetrieveFloat(ctx, key)
		return strconv.FormatFloat(f, 'g', -1, 64), found, err
	case "bytes":
		raw, found, err := c.Retrieve(ctx, key)
		return base64.StdEncoding.EncodeToString(raw), found, err
	default:
		return "", false, fmt.Errorf("unknown value type %q", kind)
	}
}

// CacheStoreHandler returns the MCP tool handler for the "cache-store" tool.
func CacheStoreHandler(c *callcache.Cache) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("value")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		v, err := ParseValue(raw, req.GetString("type", "text"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		key, err := c.Store(ctx, v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(key), nil
	}
}

// CacheRetrieveHandler returns the MCP tool handler for the "cache-retrieve" tool.
func CacheRetrieveHandler(c *callcache.Cache) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, found, err := FormatValue(ctx, c, key, req.GetString("type", "text"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !found {
			return mcp.NewToolResultText(fmt.Sprintf("No value stored under %s.", key)), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

// CacheReplayHandler returns the MCP tool handler for the "cache-replay" tool.
func CacheReplayHandler(store kv.Store) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		op := req.GetString("operation", callcache.StoreOp)
		r, err := instrument.Replay(ctx, store, op)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(r.String()), nil
	}
}
