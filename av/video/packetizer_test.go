package video

import (
	"bytes"
	"testing"

	"github.com/opd-ai/vp8bridge/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// patternFrame returns a frame whose bytes differ between neighbouring units.
func patternFrame(size int) []byte {
	frame := make([]byte, size)
	for i := range frame {
		frame[i] = byte(i % 251)
	}
	return frame
}

// drain submits frame and collects every unit.
func drain(t *testing.T, fp *FramePacketizer, frame Frame) []*PayloadUnit {
	t.Helper()
	fp.Submit(frame)
	var units []*PayloadUnit
	for {
		unit, ok := fp.NextUnit()
		if !ok {
			break
		}
		units = append(units, unit)
		require.LessOrEqual(t, len(units), limits.MaxFrameSize, "packetizer did not terminate")
	}
	return units
}

func TestNewFramePacketizer(t *testing.T) {
	fp := NewFramePacketizer()

	assert.Equal(t, limits.MaxPayloadSize, fp.MaxSize())
	assert.True(t, fp.nextIsFirst)
	assert.False(t, fp.Pending())

	unit, ok := fp.NextUnit()
	assert.False(t, ok)
	assert.Nil(t, unit)
}

func TestNewFramePacketizerWithMaxSize(t *testing.T) {
	tests := []struct {
		name        string
		maxSize     int
		expectError bool
	}{
		{"minimum", 1, false},
		{"default", limits.MaxPayloadSize, false},
		{"zero", 0, true},
		{"negative", -5, true},
		{"above default", limits.MaxPayloadSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp, err := NewFramePacketizerWithMaxSize(tt.maxSize)
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid max payload size")
				assert.Nil(t, fp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.maxSize, fp.MaxSize())
		})
	}
}

func TestFramePacketizer_UnitCounts(t *testing.T) {
	tests := []struct {
		name        string
		frameSize   int
		wantLengths []int
	}{
		{"single byte", 1, []int{1}},
		{"exactly one unit", 1350, []int{1350}},
		{"one over", 1351, []int{1350, 1}},
		{"two full units", 2700, []int{1350, 1350}},
		{"two full plus one byte", 2701, []int{1350, 1350, 1}},
		{"large frame", 10000, []int{1350, 1350, 1350, 1350, 1350, 1350, 1350, 550}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := NewFramePacketizer()
			frame := patternFrame(tt.frameSize)

			units := drain(t, fp, Frame{Data: frame})

			require.Len(t, units, len(tt.wantLengths))
			n := (tt.frameSize + limits.MaxPayloadSize - 1) / limits.MaxPayloadSize
			assert.Len(t, units, n)

			var reassembled []byte
			for i, unit := range units {
				assert.Equal(t, tt.wantLengths[i], len(unit.Data()), "unit %d length", i)
				assert.LessOrEqual(t, len(unit.Data()), limits.MaxPayloadSize)
				assert.Equal(t, len(unit.Data())+limits.DescriptorLength, unit.Len())
				assert.Equal(t, i == 0, unit.StartOfPartition(), "unit %d S bit", i)
				reassembled = append(reassembled, unit.Data()...)
			}

			assert.True(t, bytes.Equal(frame, reassembled), "reassembled frame differs")
			last := units[len(units)-1]
			assert.Equal(t, tt.frameSize-limits.MaxPayloadSize*(n-1), len(last.Data()))
			assert.False(t, fp.Pending())
		})
	}
}

func TestFramePacketizer_StartBitSequence(t *testing.T) {
	fp := NewFramePacketizer()

	units := drain(t, fp, Frame{Data: patternFrame(2701)})

	starts := make([]int, len(units))
	for i, unit := range units {
		if unit.StartOfPartition() {
			starts[i] = 1
		}
	}
	assert.Equal(t, []int{1, 0, 0}, starts)
	assert.Equal(t, []byte{0x10}, units[0].Bytes()[:1])
	assert.Equal(t, []byte{0x00}, units[1].Bytes()[:1])
}

func TestFramePacketizer_EmptyAndDiscardedFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
	}{
		{"nil data", Frame{}},
		{"empty data", Frame{Data: []byte{}}},
		{"discarded", Frame{Data: patternFrame(500), Discard: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := NewFramePacketizer()

			units := drain(t, fp, tt.frame)

			assert.Empty(t, units)
			assert.False(t, fp.Pending())
			assert.True(t, fp.nextIsFirst)
		})
	}
}

func TestFramePacketizer_ConsecutiveFrames(t *testing.T) {
	fp := NewFramePacketizer()

	first := drain(t, fp, Frame{Data: patternFrame(3000)})
	second := drain(t, fp, Frame{Data: patternFrame(200)})
	third := drain(t, fp, Frame{Data: patternFrame(1351)})

	require.Len(t, first, 3)
	require.Len(t, second, 1)
	require.Len(t, third, 2)

	assert.True(t, first[0].StartOfPartition())
	assert.True(t, second[0].StartOfPartition())
	assert.True(t, third[0].StartOfPartition())
	assert.False(t, third[1].StartOfPartition())
}

func TestFramePacketizer_DrainedStaysDrained(t *testing.T) {
	fp := NewFramePacketizer()
	drain(t, fp, Frame{Data: patternFrame(2000)})

	for i := 0; i < 3; i++ {
		unit, ok := fp.NextUnit()
		assert.False(t, ok)
		assert.Nil(t, unit)
	}
}

func TestFramePacketizer_PendingDuringFragmentation(t *testing.T) {
	fp := NewFramePacketizer()
	fp.Submit(Frame{Data: patternFrame(2701)})

	assert.True(t, fp.Pending())
	_, ok := fp.NextUnit()
	require.True(t, ok)
	assert.True(t, fp.Pending())
	assert.False(t, fp.nextIsFirst)
	_, ok = fp.NextUnit()
	require.True(t, ok)
	assert.True(t, fp.Pending())
	_, ok = fp.NextUnit()
	require.True(t, ok)
	assert.False(t, fp.Pending())
	assert.True(t, fp.nextIsFirst)
}

func TestFramePacketizer_UnitsDoNotAliasFrame(t *testing.T) {
	fp := NewFramePacketizer()
	frame := patternFrame(100)

	units := drain(t, fp, Frame{Data: frame})
	require.Len(t, units, 1)

	frame[0] = 0xFF
	assert.Equal(t, byte(0), units[0].Data()[0])
}

func TestPayloadUnit_ReservedHeadRoom(t *testing.T) {
	unit := newPayloadUnit([]byte{1, 2, 3}, true)

	assert.Equal(t, limits.DescriptorMaxLength-limits.DescriptorLength, unit.offset)
	assert.Equal(t, limits.DescriptorMaxLength+3, len(unit.buf))
	assert.Equal(t, []byte{0x10, 1, 2, 3}, unit.Bytes())
	assert.Equal(t, byte(0x10), unit.Descriptor())
}

func TestFramePacketizer_CorruptStatePanics(t *testing.T) {
	fp := NewFramePacketizer()
	fp.Submit(Frame{Data: patternFrame(10)})
	fp.pendingRemaining = -1

	assert.Panics(t, func() { fp.NextUnit() })
}

func TestFramePacketizer_Packetize(t *testing.T) {
	fp := NewFramePacketizer()

	assert.Nil(t, fp.Packetize(Frame{}))

	units := fp.Packetize(Frame{Data: patternFrame(2700)})
	require.Len(t, units, 2)
	assert.Equal(t, 1350, len(units[0].Data()))
	assert.Equal(t, 1350, len(units[1].Data()))
	assert.True(t, units[0].StartOfPartition())
	assert.False(t, units[1].StartOfPartition())
}

func TestFramePacketizer_CustomMaxSize(t *testing.T) {
	fp, err := NewFramePacketizerWithMaxSize(100)
	require.NoError(t, err)

	frame := patternFrame(250)
	units := fp.Packetize(Frame{Data: frame})

	require.Len(t, units, 3)
	assert.Equal(t, 100, len(units[0].Data()))
	assert.Equal(t, 100, len(units[1].Data()))
	assert.Equal(t, 50, len(units[2].Data()))
}

func BenchmarkFramePacketizer_Packetize(b *testing.B) {
	fp := NewFramePacketizer()
	frame := Frame{Data: patternFrame(20000)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fp.Packetize(frame)
	}
}

func TestFramePacketizer_SubmitMidFrameKeepsStartFlag(t *testing.T) {
	fp := NewFramePacketizer()
	fp.Submit(Frame{Data: patternFrame(2000)})
	_, ok := fp.NextUnit()
	require.True(t, ok)

	// The abandoned frame left the stream mid-fragmentation, so the
	// replacement does not get a fresh start bit.
	units := drain(t, fp, Frame{Data: patternFrame(500)})
	require.Len(t, units, 1)
	assert.False(t, units[0].StartOfPartition())

	next := drain(t, fp, Frame{Data: patternFrame(10)})
	require.Len(t, next, 1)
	assert.True(t, next[0].StartOfPartition())
}
