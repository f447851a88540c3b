package clocksync

import (
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Synchronizer tracks the offset between the local clock and the standup
// server's authoritative clock. Session start times arrive in server epoch
// milliseconds while the countdown is rendered against the local clock, so
// every timestamp-bearing frame refreshes the offset here.
type Synchronizer struct {
	clock clockwork.Clock

	mu     sync.Mutex
	offset time.Duration
}

// New creates a synchronizer reading local time from the given clock.
func New(clock clockwork.Clock) *Synchronizer {
	return &Synchronizer{clock: clock}
}

// Sync records offset = localNow - serverTimestamp.
func (s *Synchronizer) Sync(serverTimestampMs int64) {
	local := s.clock.Now().UnixMilli()
	s.mu.Lock()
	s.offset = time.Duration(local-serverTimestampMs) * time.Millisecond
	s.mu.Unlock()
}

// SyncFromValue accepts a raw JSON metadata value. Frames decode numbers as
// float64; anything non-numeric (or NaN/Inf) is ignored and the previous
// offset is retained.
func (s *Synchronizer) SyncFromValue(v any) {
	switch ts := v.(type) {
	case float64:
		if math.IsNaN(ts) || math.IsInf(ts, 0) {
			return
		}
		s.Sync(int64(ts))
	case int64:
		s.Sync(ts)
	case int:
		s.Sync(int64(ts))
	}
}

// Now returns the current time corrected to the server clock.
func (s *Synchronizer) Now() time.Time {
	s.mu.Lock()
	off := s.offset
	s.mu.Unlock()
	return s.clock.Now().Add(-off)
}

// NowMs returns Now as epoch milliseconds.
func (s *Synchronizer) NowMs() int64 {
	return s.Now().UnixMilli()
}

// Offset returns the last measured clock offset.
func (s *Synchronizer) Offset() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}
