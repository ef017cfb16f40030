package sequence

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Sequencer hands out ULIDs whose canonical string form sorts by
// creation time. Ids drawn in the same millisecond are ordered by a
// monotonically incremented random component.
//
// A Sequencer is safe for concurrent use.
type Sequencer struct {
	mu      sync.Mutex
	clock   func() time.Time
	entropy *ulid.MonotonicEntropy
}

// NewULID creates a sequencer reading time from clock and randomness
// from entropy. Nil arguments fall back to time.Now and crypto/rand.
func NewULID(clock func() time.Time, entropy io.Reader) *Sequencer {
	if clock == nil {
		clock = time.Now
	}
	if entropy == nil {
		entropy = rand.Reader
	}
	return &Sequencer{
		clock:   clock,
		entropy: ulid.Monotonic(entropy, 0),
	}
}

// Next returns the next id. It panics if no id can be produced:
// every ordering guarantee of the log rests on it.
func (s *Sequencer) Next() ulid.ULID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(s.clock()), s.entropy)
	if err != nil {
		panic("sequence: generate ulid: " + err.Error())
	}
	return id
}

var (
	defaultOnce sync.Once
	defaultSeq  *Sequencer
)

// Default returns the process-wide sequencer.
func Default() *Sequencer {
	defaultOnce.Do(func() {
		defaultSeq = NewULID(nil, nil)
	})
	return defaultSeq
}
