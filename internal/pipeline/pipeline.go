// Package pipeline chains block processing stages that are called once per
// audio callback, including a stage that runs an inner chain at a different
// sample rate.
package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/tphakala/go-blockdsp/internal/engine"
	"github.com/tphakala/go-blockdsp/internal/wave"
)

// ErrInvalidConfig indicates invalid chain or stage parameters. It is the
// engine's sentinel, so converter and stage errors match the same value.
var ErrInvalidConfig = engine.ErrInvalidConfig

// Stage processes one block and returns one block.
// The returned block may be owned by the stage and reused on the next call.
type Stage interface {
	Process(in *wave.Block) (*wave.Block, error)
}

// StageFunc adapts a plain function to Stage.
type StageFunc func(in *wave.Block) (*wave.Block, error)

// Process calls f(in).
func (f StageFunc) Process(in *wave.Block) (*wave.Block, error) {
	return f(in)
}

// Chain runs stages in order, feeding each stage the previous output.
type Chain struct {
	stages []Stage
	names  []string
}

// NewChain creates a chain with the given stages.
func NewChain(stages ...Stage) *Chain {
	c := &Chain{}
	for i, s := range stages {
		c.Add(fmt.Sprintf("stage%d", i), s)
	}
	return c
}

// Add appends a named stage.
func (c *Chain) Add(name string, s Stage) *Chain {
	c.stages = append(c.stages, s)
	c.names = append(c.names, name)
	return c
}

// Len returns the number of stages.
func (c *Chain) Len() int { return len(c.stages) }

// Names returns the stage names in processing order.
func (c *Chain) Names() []string { return append([]string(nil), c.names...) }

// Process runs every stage on in. An empty chain returns in unchanged.
func (c *Chain) Process(in *wave.Block) (*wave.Block, error) {
	block := in
	for i, s := range c.stages {
		out, err := s.Process(block)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.names[i], err)
		}
		block = out
	}
	return block, nil
}

// Close closes every stage that implements io.Closer and joins the errors.
func (c *Chain) Close() error {
	var errs []error
	for i, s := range c.stages {
		if closer, ok := s.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", c.names[i], err))
			}
		}
	}
	return errors.Join(errs...)
}
