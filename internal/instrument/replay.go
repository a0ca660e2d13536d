package instrument

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/leonardcser/callcache/internal/kv"
)

// Call is one recorded invocation.
type Call struct {
	Input  string
	Output string
}

// Report is the recorded activity of one operation.
type Report struct {
	Name  string
	Count int64
	Calls []Call
}

// Replay reads the counter and call logs for name. An operation that was
// never called yields a zero Count and no Calls. Replay only reads.
func Replay(ctx context.Context, store kv.Store, name string) (*Report, error) {
	r := &Report{Name: name}

	raw, err := store.Get(ctx, name)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("read %s count: %w", name, err)
	default:
		r.Count, err = strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s count %q: %w", name, raw, err)
		}
	}

	inputs, err := store.LRange(ctx, InputsKey(name), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("read %s inputs: %w", name, err)
	}
	outputs, err := store.LRange(ctx, OutputsKey(name), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("read %s outputs: %w", name, err)
	}
	n := min(len(inputs), len(outputs))
	r.Calls = make([]Call, n)
	for i := range n {
		r.Calls[i] = Call{Input: string(inputs[i]), Output: string(outputs[i])}
	}
	return r, nil
}

// WriteTo renders the report as a call trace:
//
//	Cache.Store was called 2 times:
//	Cache.Store("foo") -> "k-1"
//	Cache.Store(42) -> "k-2"
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.String())
	return int64(n), err
}

func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s was called %d times:\n", r.Name, r.Count)
	for _, c := range r.Calls {
		fmt.Fprintf(&sb, "%s(%s) -> %s\n", r.Name, c.Input, c.Output)
	}
	return sb.String()
}
