// Package instrument layers call counting, call history and metrics around an
// operation without changing what the operation returns.
//
// Wrappers are plain functions over Op and are composed explicitly with Chain.
// Instrumented operations keep their state in a kv.Store under the
// operation's name:
//
//	<name>          call counter (decimal text)
//	<name>:inputs   serialized arguments, one list item per call
//	<name>:outputs  serialized results, one list item per call
package instrument

import (
	"context"
	"fmt"
	"time"

	"github.com/leonardcser/callcache/internal/kv"
	"github.com/leonardcser/callcache/internal/telemetry"
)

// Op is an operation that can be instrumented. Operations taking several
// arguments pass them as Args; operations taking none use struct{}.
type Op[In, Out any] func(ctx context.Context, in In) (Out, error)

// Wrapper decorates an Op.
type Wrapper[In, Out any] func(next Op[In, Out]) Op[In, Out]

// Chain applies wrappers around op. The first wrapper is the outermost, so
// Chain(op, a, b) behaves as a(b(op)).
func Chain[In, Out any](op Op[In, Out], wrappers ...Wrapper[In, Out]) Op[In, Out] {
	for i := len(wrappers) - 1; i >= 0; i-- {
		op = wrappers[i](op)
	}
	return op
}

// InputsKey is the list holding the serialized arguments of name's calls.
func InputsKey(name string) string { return name + ":inputs" }

// OutputsKey is the list holding the serialized results of name's calls.
func OutputsKey(name string) string { return name + ":outputs" }

// CountCalls increments the counter stored under name before every call,
// whatever the call's outcome. If the increment fails the call is not made.
func CountCalls[In, Out any](store kv.Store, name string) Wrapper[In, Out] {
	return func(next Op[In, Out]) Op[In, Out] {
		return func(ctx context.Context, in In) (Out, error) {
			if _, err := store.Incr(ctx, name); err != nil {
				var zero Out
				return zero, fmt.Errorf("count %s: %w", name, err)
			}
			return next(ctx, in)
		}
	}
}

// HistoryOption configures RecordHistory.
type HistoryOption func(*history)

type history struct {
	input  func(any) string
	output func(any) string
}

// WithInputFormat overrides how arguments are serialized. Default is Repr.
func WithInputFormat(f func(any) string) HistoryOption {
	return func(h *history) { h.input = f }
}

// WithOutputFormat overrides how results are serialized. Default is Repr.
func WithOutputFormat(f func(any) string) HistoryOption {
	return func(h *history) { h.output = f }
}

// RecordHistory appends the serialized input to <name>:inputs before the call
// and the serialized result to <name>:outputs after it. A failed call appends
// ErrorEntry(err) as its output, so both logs have the same length after
// every completed call.
func RecordHistory[In, Out any](store kv.Store, name string, opts ...HistoryOption) Wrapper[In, Out] {
	h := history{input: Repr, output: Repr}
	for _, o := range opts {
		o(&h)
	}
	inKey, outKey := InputsKey(name), OutputsKey(name)
	return func(next Op[In, Out]) Op[In, Out] {
		return func(ctx context.Context, in In) (Out, error) {
			var zero Out
			if err := store.RPush(ctx, inKey, []byte(h.input(in))); err != nil {
				return zero, fmt.Errorf("record %s input: %w", name, err)
			}
			out, callErr := next(ctx, in)
			entry := ErrorEntry(callErr)
			if callErr == nil {
				entry = h.output(out)
			}
			if err := store.RPush(ctx, outKey, []byte(entry)); err != nil {
				return zero, fmt.Errorf("record %s output: %w", name, err)
			}
			return out, callErr
		}
	}
}

// Measure reports call outcomes and durations to m. It never touches the
// store. A nil m disables it.
func Measure[In, Out any](m *telemetry.Metrics, name string) Wrapper[In, Out] {
	return func(next Op[In, Out]) Op[In, Out] {
		if m == nil {
			return next
		}
		return func(ctx context.Context, in In) (Out, error) {
			start := time.Now()
			out, err := next(ctx, in)
			m.CallDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			m.CallsTotal.WithLabelValues(name, outcome).Inc()
			return out, err
		}
	}
}
