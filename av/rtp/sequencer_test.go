package rtp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedbackSequencer_Next(t *testing.T) {
	seq := NewFeedbackSequencer()

	assert.Equal(t, uint64(0), seq.Next(10, 20))
	assert.Equal(t, uint64(1), seq.Next(10, 20))
	assert.Equal(t, uint64(0), seq.Next(20, 10), "swapped pair must be independent")
	assert.Equal(t, uint64(2), seq.Next(10, 20))
	assert.Equal(t, uint64(1), seq.Next(20, 10))
	assert.Equal(t, 2, seq.Len())
}

func TestFeedbackSequencer_ConsecutiveValues(t *testing.T) {
	seq := NewFeedbackSequencer()

	const n = 1000
	for i := 0; i < n; i++ {
		assert.Equal(t, uint64(i), seq.Next(0xFFFFFFFF, 1))
	}
	assert.Equal(t, uint64(n), seq.Peek(0xFFFFFFFF, 1))
}

func TestFeedbackSequencer_Peek(t *testing.T) {
	seq := NewFeedbackSequencer()

	assert.Equal(t, uint64(0), seq.Peek(1, 2))
	assert.Equal(t, 0, seq.Len(), "peek must not create keys")

	seq.Next(1, 2)
	assert.Equal(t, uint64(1), seq.Peek(1, 2))
	assert.Equal(t, uint64(1), seq.Peek(1, 2))
}

func TestFeedbackSequencer_HighBitIdentifiers(t *testing.T) {
	seq := NewFeedbackSequencer()

	// Keys with the top bit set must not collide with their low-bit peers.
	assert.Equal(t, uint64(0), seq.Next(0x80000000, 1))
	assert.Equal(t, uint64(0), seq.Next(0, 1))
	assert.Equal(t, uint64(0), seq.Next(1, 0x80000000))
	assert.Equal(t, 3, seq.Len())
}

func TestFeedbackSequencer_Concurrent(t *testing.T) {
	seq := NewFeedbackSequencer()

	const (
		goroutines = 16
		perRoutine = 500
	)

	results := make([][]uint64, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perRoutine; i++ {
				results[g] = append(results[g], seq.Next(1, 2))
				seq.Next(uint32(g), 99)
			}
		}(g)
	}
	wg.Wait()

	seen := make(map[uint64]bool, goroutines*perRoutine)
	for _, values := range results {
		for i, v := range values {
			assert.False(t, seen[v], "value %d handed out twice", v)
			seen[v] = true
			if i > 0 {
				assert.Greater(t, v, values[i-1], "values seen by one caller must increase")
			}
		}
	}
	assert.Len(t, seen, goroutines*perRoutine)
	assert.Equal(t, uint64(goroutines*perRoutine), seq.Peek(1, 2))

	for g := 0; g < goroutines; g++ {
		assert.Equal(t, uint64(perRoutine), seq.Peek(uint32(g), 99))
	}
}
