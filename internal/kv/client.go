package kv

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"
)

const dialTimeout = 500 * time.Millisecond

// Client implements Store over a Unix socket served by Serve.
type Client struct {
	socketPath string
}

var _ Store = (*Client)(nil)

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Ping checks that the daemon is accepting connections.
func (c *Client) Ping(ctx context.Context) error {
	return c.withConn(ctx, func(net.Conn) error { return nil })
}

func (c *Client) withConn(ctx context.Context, fn func(conn net.Conn) error) error {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return fn(conn)
}

// do sends a single request and decodes its response.
func (c *Client) do(ctx context.Context, req Request) (Response, error) {
	var resp Response
	err := c.withConn(ctx, func(conn net.Conn) error {
		if err := json.NewEncoder(conn).Encode(&req); err != nil {
			return err
		}
		if err := json.NewDecoder(conn).Decode(&resp); err != nil {
			return err
		}
		if !resp.OK {
			return responseError(resp)
		}
		return nil
	})
	return resp, err
}

func responseError(resp Response) error {
	switch resp.Code {
	case CodeNotFound:
		return ErrNotFound
	case CodeNotInteger:
		return ErrNotInteger
	}
	if resp.Error == "" {
		return errors.New("kv: request failed")
	}
	return errors.New(resp.Error)
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.do(ctx, Request{Op: OpGet, Key: key})
	if err != nil {
		return nil, err
	}
	return append([]byte{}, resp.Value...), nil
}

func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.do(ctx, Request{Op: OpSet, Key: key, Value: value})
	return err
}

func (c *Client) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.do(ctx, Request{Op: OpSetEx, Key: key, Value: value, TTLMs: RoundTTL(ttl).Milliseconds()})
	return err
}

func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	resp, err := c.do(ctx, Request{Op: OpIncr, Key: key})
	if err != nil {
		return 0, err
	}
	return resp.N, nil
}

func (c *Client) RPush(ctx context.Context, key string, value []byte) error {
	_, err := c.do(ctx, Request{Op: OpRPush, Key: key, Value: value})
	return err
}

func (c *Client) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	resp, err := c.do(ctx, Request{Op: OpLRange, Key: key, Start: start, Stop: stop})
	if err != nil {
		return nil, err
	}
	if resp.Values == nil {
		return [][]byte{}, nil
	}
	return resp.Values, nil
}

func (c *Client) FlushAll(ctx context.Context) error {
	_, err := c.do(ctx, Request{Op: OpFlushAll})
	return err
}

// Close is a no-op; connections are opened per request.
func (c *Client) Close() error { return nil }
