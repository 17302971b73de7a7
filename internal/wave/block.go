// Package wave provides the multi-channel audio block exchanged between
// processing components once per callback.
package wave

import (
	"errors"
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"
)

// ErrShapeMismatch indicates two blocks (or a block and a buffer) disagree
// on frame or channel count.
var ErrShapeMismatch = errors.New("block shape mismatch")

// Block is a fixed-size frames x channels matrix of samples.
//
// Samples live in one contiguous arena in channel-major order, so
// Data[ch*Frames+frame] is the sample of channel ch at frame. Each channel is
// therefore a contiguous slice that can be handed to vector kernels directly.
type Block struct {
	Frames   int
	Channels int
	Data     []float64
}

// New allocates a zeroed block.
func New(frames, channels int) *Block {
	if frames < 0 {
		frames = 0
	}
	if channels < 0 {
		channels = 0
	}
	return &Block{
		Frames:   frames,
		Channels: channels,
		Data:     make([]float64, frames*channels),
	}
}

// FromChannels builds a block from per-channel sample slices of equal length.
func FromChannels(channels ...[]float64) (*Block, error) {
	if len(channels) == 0 {
		return New(0, 0), nil
	}
	frames := len(channels[0])
	b := New(frames, len(channels))
	for ch, samples := range channels {
		if len(samples) != frames {
			return nil, fmt.Errorf("%w: channel %d has %d frames, channel 0 has %d",
				ErrShapeMismatch, ch, len(samples), frames)
		}
		copy(b.Channel(ch), samples)
	}
	return b, nil
}

// Channel returns the contiguous samples of channel ch. The slice aliases the block.
func (b *Block) Channel(ch int) []float64 {
	return b.Data[ch*b.Frames : (ch+1)*b.Frames]
}

// Value returns the sample at (frame, ch).
func (b *Block) Value(frame, ch int) float64 {
	return b.Data[ch*b.Frames+frame]
}

// Set stores v at (frame, ch).
func (b *Block) Set(frame, ch int, v float64) {
	b.Data[ch*b.Frames+frame] = v
}

// SameShape reports whether o has the same frame and channel count as b.
func (b *Block) SameShape(o *Block) bool {
	return o != nil && b.Frames == o.Frames && b.Channels == o.Channels
}

// CheckShape returns ErrShapeMismatch unless b is frames x channels.
func (b *Block) CheckShape(frames, channels int) error {
	if b == nil {
		return fmt.Errorf("%w: nil block, want %d frames x %d channels", ErrShapeMismatch, frames, channels)
	}
	if b.Frames != frames || b.Channels != channels {
		return fmt.Errorf("%w: got %d frames x %d channels, want %d x %d",
			ErrShapeMismatch, b.Frames, b.Channels, frames, channels)
	}
	return nil
}

// Zero clears every sample.
func (b *Block) Zero() {
	clear(b.Data)
}

// CopyFrom overwrites b with the samples of src.
func (b *Block) CopyFrom(src *Block) error {
	if err := src.CheckShape(b.Frames, b.Channels); err != nil {
		return err
	}
	copy(b.Data, src.Data)
	return nil
}

// Add accumulates src into b element-wise.
func (b *Block) Add(src *Block) error {
	if err := src.CheckShape(b.Frames, b.Channels); err != nil {
		return err
	}
	if len(b.Data) == 0 {
		return nil
	}
	vecmath.AddBlockInPlace(b.Data, src.Data)
	return nil
}

// Scale multiplies every sample by gain.
func (b *Block) Scale(gain float64) {
	if len(b.Data) == 0 {
		return
	}
	vecmath.ScaleBlockInPlace(b.Data, gain)
}

// Peak returns the largest absolute sample value over all channels.
func (b *Block) Peak() float64 {
	if len(b.Data) == 0 {
		return 0
	}
	return vecmath.MaxAbs(b.Data)
}

// Clone returns a deep copy.
func (b *Block) Clone() *Block {
	c := New(b.Frames, b.Channels)
	copy(c.Data, b.Data)
	return c
}

// FromFloatBuffer de-interleaves a go-audio float buffer into a new block.
func FromFloatBuffer(buf *audio.FloatBuffer) (*Block, error) {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: float buffer has no channel format", ErrShapeMismatch)
	}
	channels := buf.Format.NumChannels
	if len(buf.Data)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples do not divide into %d channels",
			ErrShapeMismatch, len(buf.Data), channels)
	}
	b := New(len(buf.Data)/channels, channels)
	for i, v := range buf.Data {
		b.Set(i/channels, i%channels, v)
	}
	return b, nil
}

// FloatBuffer interleaves the block into a go-audio float buffer.
func (b *Block) FloatBuffer(sampleRate int) *audio.FloatBuffer {
	data := make([]float64, len(b.Data))
	for ch := 0; ch < b.Channels; ch++ {
		for frame, v := range b.Channel(ch) {
			data[frame*b.Channels+ch] = v
		}
	}
	return &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: b.Channels, SampleRate: sampleRate},
		Data:   data,
	}
}

// FromIntBuffer de-interleaves PCM integers into a block scaled to [-1, 1).
func FromIntBuffer(buf *audio.IntBuffer) (*Block, error) {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: int buffer has no channel format", ErrShapeMismatch)
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = defaultBitDepth
	}
	channels := buf.Format.NumChannels
	if len(buf.Data)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples do not divide into %d channels",
			ErrShapeMismatch, len(buf.Data), channels)
	}
	scale := 1.0 / (float64(audio.IntMaxSignedValue(bitDepth)) + 1)
	b := New(len(buf.Data)/channels, channels)
	for i, v := range buf.Data {
		b.Set(i/channels, i%channels, float64(v)*scale)
	}
	return b, nil
}

// IntBuffer quantizes the block to interleaved PCM integers of the given bit
// depth. When dither is non-nil, TPDF noise of one LSB is added before rounding.
// Samples outside [-1, 1) are clipped.
func (b *Block) IntBuffer(sampleRate, bitDepth int, dither *vecmath.DitherState) *audio.IntBuffer {
	if bitDepth <= 0 {
		bitDepth = defaultBitDepth
	}
	maxVal := float64(audio.IntMaxSignedValue(bitDepth))
	fullScale := maxVal + 1
	lsb := 1.0 / fullScale

	scratch := make([]float64, b.Frames)
	data := make([]int, len(b.Data))
	for ch := 0; ch < b.Channels; ch++ {
		copy(scratch, b.Channel(ch))
		if dither != nil {
			vecmath.AddDitherTPDF(scratch, lsb, dither)
		}
		for frame, v := range scratch {
			q := math.Round(v * fullScale)
			q = max(-fullScale, min(maxVal, q))
			data[frame*b.Channels+ch] = int(q)
		}
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: b.Channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
}
