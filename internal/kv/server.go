package kv

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/leonardcser/callcache/internal/logger"
)

// Serve accepts connections on l and answers protocol requests against store
// until ctx is cancelled or l is closed.
func Serve(ctx context.Context, l net.Listener, store Store) error {
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()
	var delay time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			delay = acceptBackoff(delay)
			logger.Warnf("kv: accept error: %v; retrying in %s", err, delay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}
		delay = 0
		go handleConn(ctx, conn, store)
	}
}

// acceptBackoff doubles the wait after each failed Accept, from 5ms up to 1s.
func acceptBackoff(prev time.Duration) time.Duration {
	if prev == 0 {
		return 5 * time.Millisecond
	}
	return min(2*prev, time.Second)
}

func handleConn(ctx context.Context, conn net.Conn, store Store) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		if err := enc.Encode(dispatch(ctx, store, req)); err != nil {
			return
		}
	}
}

func dispatch(ctx context.Context, store Store, req Request) Response {
	switch req.Op {
	case OpGet:
		v, err := store.Get(ctx, req.Key)
		if err != nil {
			return errorResponse(err)
		}
		return Response{OK: true, Value: v}
	case OpSet:
		if err := store.Set(ctx, req.Key, req.Value); err != nil {
			return errorResponse(err)
		}
	case OpSetEx:
		ttl := time.Duration(req.TTLMs) * time.Millisecond
		if err := store.SetEx(ctx, req.Key, req.Value, ttl); err != nil {
			return errorResponse(err)
		}
	case OpIncr:
		n, err := store.Incr(ctx, req.Key)
		if err != nil {
			return errorResponse(err)
		}
		return Response{OK: true, N: n}
	case OpRPush:
		if err := store.RPush(ctx, req.Key, req.Value); err != nil {
			return errorResponse(err)
		}
	case OpLRange:
		vs, err := store.LRange(ctx, req.Key, req.Start, req.Stop)
		if err != nil {
			return errorResponse(err)
		}
		return Response{OK: true, Values: vs}
	case OpFlushAll:
		if err := store.FlushAll(ctx); err != nil {
			return errorResponse(err)
		}
	default:
		return Response{OK: false, Error: "unknown op"}
	}
	return Response{OK: true}
}

func errorResponse(err error) Response {
	resp := Response{OK: false, Error: err.Error()}
	switch {
	case errors.Is(err, ErrNotFound):
		resp.Code = CodeNotFound
	case errors.Is(err, ErrNotInteger):
		resp.Code = CodeNotInteger
	}
	return resp
}
