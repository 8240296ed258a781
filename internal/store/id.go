package store

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	betEntropyMu sync.Mutex
	betEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewBetID returns a ULID, so bet ids sort by creation time.
func NewBetID(now time.Time) string {
	betEntropyMu.Lock()
	defer betEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), betEntropy).String()
}
