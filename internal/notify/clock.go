package notify

import "sync/atomic"

// sequence is a monotonic counter stamping every published change.
//
// Stamps are strictly increasing in publish order, so an observer can
// detect duplicates (at-least-once delivery) by remembering the last Seq
// it handled.
//
// Thread-safety: safe for concurrent use (atomic operations).
type sequence struct {
	seq atomic.Int64
}

// Next returns the next sequence number and increments the counter.
func (s *sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last issued sequence number without incrementing.
func (s *sequence) Current() int64 {
	return s.seq.Load()
}
