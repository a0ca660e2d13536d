// Package keygen produces opaque, unique keys for new cache entries.
package keygen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator returns a fresh key on every call.
type Generator interface {
	NewKey() string
}

// UUID generates random (version 4) UUID strings.
type UUID struct{}

func (UUID) NewKey() string { return uuid.NewString() }

// Sequence generates deterministic keys "<prefix>-1", "<prefix>-2", ...
// It is meant for tests and reproducible traces.
type Sequence struct {
	Prefix string
	n      atomic.Uint64
}

func (s *Sequence) NewKey() string {
	return fmt.Sprintf("%s-%d", s.Prefix, s.n.Add(1))
}
