package kv

// Simple JSON protocol for the cache daemon over a Unix domain socket.
// Requests and responses are newline-delimited JSON objects; a connection may
// carry any number of request/response pairs.

const (
	OpGet      = "get"
	OpSet      = "set"
	OpSetEx    = "setex"
	OpIncr     = "incr"
	OpRPush    = "rpush"
	OpLRange   = "lrange"
	OpFlushAll = "flushall"
)

// Error codes carried in Response.Code so clients can restore sentinel errors.
const (
	CodeNotFound   = "not_found"
	CodeNotInteger = "not_integer"
)

type Request struct {
	Op    string `json:"op"`
	Key   string `json:"key,omitempty"`
	Value []byte `json:"value,omitempty"`
	TTLMs int64  `json:"ttl_ms,omitempty"`
	Start int64  `json:"start,omitempty"`
	Stop  int64  `json:"stop,omitempty"`
}

type Response struct {
	OK     bool     `json:"ok"`
	Value  []byte   `json:"value,omitempty"`
	Values [][]byte `json:"values,omitempty"`
	N      int64    `json:"n,omitempty"`
	Error  string   `json:"error,omitempty"`
	Code   string   `json:"code,omitempty"`
}
