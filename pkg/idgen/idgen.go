package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator hands out unique tokens used to build node, edge and property ids
type Generator interface {
	Next() string
}

// UUID generates random tokens. It is the default for interactive sessions.
type UUID struct{}

// NewUUID creates a uuid-backed generator
func NewUUID() UUID {
	return UUID{}
}

// Next returns the first block of a random UUID.
// Callers that need global uniqueness check the token against their collection.
func (UUID) Next() string {
	id := uuid.New().String()
	return id[:8]
}

// Sequence generates monotonically increasing tokens ("1", "2", ...).
// It makes id creation deterministic, which tests rely on.
type Sequence struct {
	n atomic.Uint64
}

// NewSequence creates a counter starting at 1
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next counter value
func (s *Sequence) Next() string {
	return strconv.FormatUint(s.n.Add(1), 10)
}
