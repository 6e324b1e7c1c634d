package rtp

import (
	"sync"
)

// SequenceKey identifies one FIR sequence counter: the SSRC sending the
// request and the SSRC of the media sender it targets. (a, b) and (b, a) are
// different keys.
type SequenceKey struct {
	Source uint32
	Target uint32
}

// FeedbackSequencer hands out FIR command sequence numbers.
//
// Every key has its own counter that starts at 0 and grows by exactly one per
// Next call. The counter itself does not wrap; FeedbackRequest truncates it to
// the 8-bit wire field. One mutex guards the whole table, which is enough for
// the rate at which keyframes get requested.
type FeedbackSequencer struct {
	mu       sync.Mutex
	counters map[SequenceKey]uint64
}

// NewFeedbackSequencer creates an empty sequencer.
func NewFeedbackSequencer() *FeedbackSequencer {
	return &FeedbackSequencer{
		counters: make(map[SequenceKey]uint64),
	}
}

// Next returns the current counter for (source, target) and advances it.
// The first call for a key returns 0.
func (fs *FeedbackSequencer) Next(source, target uint32) uint64 {
	key := SequenceKey{Source: source, Target: target}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	seq := fs.counters[key]
	fs.counters[key] = seq + 1
	return seq
}

// Peek returns the value the next call to Next would return for
// (source, target) without advancing the counter.
func (fs *FeedbackSequencer) Peek(source, target uint32) uint64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.counters[SequenceKey{Source: source, Target: target}]
}

// Len returns the number of keys seen so far.
func (fs *FeedbackSequencer) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return len(fs.counters)
}
