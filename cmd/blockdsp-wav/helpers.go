package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/go-blockdsp/internal/engine"
	"github.com/tphakala/go-blockdsp/internal/wave"
)

const (
	pcmFormat  = 1 // WAVE_FORMAT_PCM
	ditherSeed = 1
)

// wavInput holds an open, validated input file.
type wavInput struct {
	file     *os.File
	decoder  *wav.Decoder
	rate     int
	channels int
	bitDepth int
	format   *audio.Format

	buf *audio.IntBuffer
}

// openWAVInput opens and validates a WAV file.
func openWAVInput(path string) (*wavInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}
	if err := decoder.FwdToPCM(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to find PCM data: %w", err)
	}

	format := decoder.Format()
	return &wavInput{
		file:     f,
		decoder:  decoder,
		rate:     format.SampleRate,
		channels: format.NumChannels,
		bitDepth: int(decoder.BitDepth),
		format:   format,
	}, nil
}

// readBlock fills block with the next frames and zero-pads a short read.
// It returns the number of frames read; zero means the input is exhausted.
func (w *wavInput) readBlock(block *wave.Block) (int, error) {
	samples := block.Frames * w.channels
	if w.buf == nil || cap(w.buf.Data) < samples {
		w.buf = &audio.IntBuffer{Format: w.format, Data: make([]int, samples)}
	}
	w.buf.Data = w.buf.Data[:samples]

	n, err := w.decoder.PCMBuffer(w.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read audio data: %w", err)
	}
	frames := n / w.channels

	block.Zero()
	if frames == 0 {
		return 0, nil
	}
	w.buf.Data = w.buf.Data[:frames*w.channels]
	w.buf.SourceBitDepth = w.bitDepth
	decoded, err := wave.FromIntBuffer(w.buf)
	if err != nil {
		return 0, err
	}
	for ch := range w.channels {
		copy(block.Channel(ch), decoded.Channel(ch))
	}
	return frames, nil
}

// Close closes the input file.
func (w *wavInput) Close() error {
	return w.file.Close()
}

// loadImpulseResponse reads a WAV impulse response and routes it onto
// channels outputs. A mono response feeds every channel; otherwise IR channel
// i filters input channel i.
func loadImpulseResponse(path string, channels, sampleRate int) (engine.TransferMatrix, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open impulse response: %w", err)
	}
	defer func() { _ = f.Close() }()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid WAV file: %s", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read impulse response: %w", err)
	}
	buf.SourceBitDepth = int(decoder.BitDepth)
	if rate := int(decoder.SampleRate); rate != sampleRate {
		return nil, 0, fmt.Errorf("%w: impulse response at %d Hz, input at %d Hz",
			engine.ErrInvalidConfig, rate, sampleRate)
	}

	ir, err := wave.FromIntBuffer(buf)
	if err != nil {
		return nil, 0, err
	}
	if ir.Frames == 0 {
		return nil, 0, fmt.Errorf("%w: impulse response is empty", engine.ErrInvalidConfig)
	}

	responses := make([][]float64, channels)
	switch ir.Channels {
	case 1:
		for ch := range responses {
			responses[ch] = ir.Channel(0)
		}
	case channels:
		for ch := range responses {
			responses[ch] = ir.Channel(ch)
		}
	default:
		return nil, 0, fmt.Errorf("%w: impulse response has %d channels, input has %d",
			engine.ErrInvalidConfig, ir.Channels, channels)
	}
	return engine.DiagonalTransfer(responses...), ir.Frames, nil
}

// wavOutput encodes dithered blocks.
type wavOutput struct {
	file     *os.File
	encoder  *wav.Encoder
	rate     int
	bitDepth int
	dither   *vecmath.DitherState
}

// createWAVOutput creates the output file and encoder.
func createWAVOutput(path string, sampleRate, bitDepth, channels int) (*wavOutput, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &wavOutput{
		file:     f,
		encoder:  wav.NewEncoder(f, sampleRate, bitDepth, channels, pcmFormat),
		rate:     sampleRate,
		bitDepth: bitDepth,
		dither:   vecmath.NewDitherState(ditherSeed),
	}, nil
}

// writeBlock quantizes and writes block.
func (w *wavOutput) writeBlock(block *wave.Block) error {
	if err := w.encoder.Write(block.IntBuffer(w.rate, w.bitDepth, w.dither)); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutput) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}
