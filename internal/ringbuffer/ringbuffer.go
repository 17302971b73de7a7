// Package ringbuffer implements a fixed-capacity multi-channel circular
// frame store. Frames are appended at the write end and released from the
// read end; any retained frame can be read by its index relative to the
// oldest retained frame.
//
// The buffer never grows and is not safe for concurrent use; each processing
// instance owns its own buffer.
package ringbuffer

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-blockdsp/internal/wave"
)

var (
	// ErrCapacity indicates a write larger than the free space.
	ErrCapacity = errors.New("ring buffer capacity exceeded")

	// ErrRange indicates a frame, channel or discard count outside the retained range.
	ErrRange = errors.New("ring buffer index out of range")

	// ErrInvalidConfig indicates invalid construction parameters.
	ErrInvalidConfig = errors.New("invalid ring buffer configuration")
)

// RingBuffer stores up to Capacity frames of Channels samples each.
//
// Storage is one arena in channel-major order: channel ch occupies
// data[ch*capacity : (ch+1)*capacity].
type RingBuffer struct {
	data      []float64
	capacity  int
	channels  int
	readPos   int
	writePos  int
	contained int
}

// New creates a ring buffer. The first prefill frames are zeros and count as
// contained frames.
func New(capacity, channels, prefill int) (*RingBuffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be at least 1, got %d", ErrInvalidConfig, capacity)
	}
	if channels < 1 {
		return nil, fmt.Errorf("%w: channels must be at least 1, got %d", ErrInvalidConfig, channels)
	}
	if prefill < 0 || prefill > capacity {
		return nil, fmt.Errorf("%w: prefill %d outside [0, %d]", ErrInvalidConfig, prefill, capacity)
	}

	return &RingBuffer{
		data:      make([]float64, capacity*channels),
		capacity:  capacity,
		channels:  channels,
		writePos:  prefill % capacity,
		contained: prefill,
	}, nil
}

// Capacity returns the maximum number of frames the buffer can hold.
func (b *RingBuffer) Capacity() int { return b.capacity }

// Channels returns the number of channels per frame.
func (b *RingBuffer) Channels() int { return b.channels }

// ContainedFrames returns the number of retained frames.
func (b *RingBuffer) ContainedFrames() int { return b.contained }

// Free returns the number of frames that can still be written.
func (b *RingBuffer) Free() int { return b.capacity - b.contained }

// Write appends all frames of block after the newest retained frame.
func (b *RingBuffer) Write(block *wave.Block) error {
	if block == nil || block.Channels != b.channels {
		got := 0
		if block != nil {
			got = block.Channels
		}
		return fmt.Errorf("%w: block has %d channels, buffer has %d", wave.ErrShapeMismatch, got, b.channels)
	}
	n := block.Frames
	if n > b.Free() {
		return fmt.Errorf("%w: cannot write %d frames, only %d of %d free",
			ErrCapacity, n, b.Free(), b.capacity)
	}
	if n == 0 {
		return nil
	}

	// Copy in one or two chunks per channel.
	first := min(n, b.capacity-b.writePos)
	for ch := 0; ch < b.channels; ch++ {
		src := block.Channel(ch)
		dst := b.data[ch*b.capacity : (ch+1)*b.capacity]
		copy(dst[b.writePos:], src[:first])
		copy(dst, src[first:])
	}

	b.writePos = (b.writePos + n) % b.capacity
	b.contained += n
	return nil
}

// Discard releases the n oldest frames.
func (b *RingBuffer) Discard(n int) error {
	if n < 0 || n > b.contained {
		return fmt.Errorf("%w: cannot discard %d frames, %d contained", ErrRange, n, b.contained)
	}
	b.readPos = (b.readPos + n) % b.capacity
	b.contained -= n
	return nil
}

// Value returns the sample of channel ch at frame, counted from the oldest
// retained frame (frame 0).
func (b *RingBuffer) Value(frame, ch int) (float64, error) {
	if frame < 0 || frame >= b.contained {
		return 0, fmt.Errorf("%w: frame %d, %d contained", ErrRange, frame, b.contained)
	}
	if ch < 0 || ch >= b.channels {
		return 0, fmt.Errorf("%w: channel %d, %d channels", ErrRange, ch, b.channels)
	}
	return b.data[ch*b.capacity+(b.readPos+frame)%b.capacity], nil
}

// CopyFrames copies len(dst) consecutive frames of channel ch, starting at
// frame start (relative to the oldest retained frame), into dst.
func (b *RingBuffer) CopyFrames(dst []float64, start, ch int) error {
	n := len(dst)
	if start < 0 || start+n > b.contained {
		return fmt.Errorf("%w: frames [%d, %d), %d contained", ErrRange, start, start+n, b.contained)
	}
	if ch < 0 || ch >= b.channels {
		return fmt.Errorf("%w: channel %d, %d channels", ErrRange, ch, b.channels)
	}

	src := b.data[ch*b.capacity : (ch+1)*b.capacity]
	pos := (b.readPos + start) % b.capacity
	copied := copy(dst, src[pos:])
	copy(dst[copied:], src)
	return nil
}
