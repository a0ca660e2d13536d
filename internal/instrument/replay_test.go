package instrument

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/leonardcser/callcache/internal/kv"
)

func TestReplayNeverCalled(t *testing.T) {
	t.Parallel()
	r, err := Replay(context.Background(), newStore(t), "Cache.Store")
	if err != nil {
		t.Fatal(err)
	}
	if r.Count != 0 || len(r.Calls) != 0 {
		t.Errorf("report = %+v, want zero activity", r)
	}
	if got, want := r.String(), "Cache.Store was called 0 times:\n"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestReplayTrace(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()
	const name = "Greeter.Greet"

	op := Chain(func(_ context.Context, in Args) (string, error) {
		return "hi " + in[0].(string), nil
	}, RecordHistory[Args, string](store, name), CountCalls[Args, string](store, name))

	_, _ = op(ctx, Args{"ann", 1})
	_, _ = op(ctx, Args{"bob", 2})

	r, err := Replay(ctx, store, name)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	want := "Greeter.Greet was called 2 times:\n" +
		"Greeter.Greet(\"ann\", 1) -> \"hi ann\"\n" +
		"Greeter.Greet(\"bob\", 2) -> \"hi bob\"\n"
	if buf.String() != want {
		t.Errorf("trace =\n%s\nwant\n%s", buf.String(), want)
	}
}

type readOnlyStore struct {
	kv.Store
	t *testing.T
}

func (r readOnlyStore) Set(context.Context, string, []byte) error {
	r.t.Error("Replay wrote with Set")
	return nil
}

func (r readOnlyStore) Incr(context.Context, string) (int64, error) {
	r.t.Error("Replay wrote with Incr")
	return 0, nil
}

func (r readOnlyStore) RPush(context.Context, string, []byte) error {
	r.t.Error("Replay wrote with RPush")
	return nil
}

func TestReplayDoesNotMutate(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()
	op := Chain(double, RecordHistory[int, int](store, "D"), CountCalls[int, int](store, "D"))
	_, _ = op(ctx, 1)

	if _, err := Replay(ctx, readOnlyStore{Store: store, t: t}, "D"); err != nil {
		t.Fatal(err)
	}
}

func TestReplayCorruptCounter(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()
	_ = store.Set(ctx, "Op", []byte("many"))

	if _, err := Replay(ctx, store, "Op"); err == nil {
		t.Fatal("expected error for non-numeric counter")
	}
}

func TestReplayStoreDown(t *testing.T) {
	t.Parallel()
	down := errors.New("down")
	if _, err := Replay(context.Background(), getFails{err: down}, "Op"); !errors.Is(err, down) {
		t.Fatalf("err = %v, want %v", err, down)
	}
}

type getFails struct {
	kv.Store
	err error
}

func (g getFails) Get(context.Context, string) ([]byte, error) { return nil, g.err }
