package render

import (
	"context"
	"sync/atomic"
)

// Pipeline runs renders asynchronously and tags each with a generation.
// Only the result of the latest submission is current.
type Pipeline struct {
	renderer *Renderer
	gen      atomic.Uint64
	results  chan *Result
}

// NewPipeline creates a Pipeline delivering results on a channel with the
// given buffer.
func NewPipeline(r *Renderer, buffer int) *Pipeline {
	return &Pipeline{
		renderer: r,
		results:  make(chan *Result, buffer),
	}
}

// Submit starts rendering text and returns its generation. The result is
// delivered on Results unless ctx is done first.
func (p *Pipeline) Submit(ctx context.Context, text []byte) uint64 {
	gen := p.gen.Add(1)
	source := append([]byte(nil), text...)

	go func() {
		result, err := p.renderer.Render(ctx, source)
		if err != nil {
			p.renderer.logger.Debug("render abandoned", "generation", gen, "error", err)
			return
		}
		result.Generation = gen

		select {
		case p.results <- result:
		case <-ctx.Done():
		}
	}()

	return gen
}

// Results delivers completed renders, possibly out of order.
func (p *Pipeline) Results() <-chan *Result {
	return p.results
}

// Latest returns the generation of the most recent submission.
func (p *Pipeline) Latest() uint64 {
	return p.gen.Load()
}

// IsCurrent reports whether gen is the latest submission.
func (p *Pipeline) IsCurrent(gen uint64) bool {
	return gen == p.gen.Load()
}

// Renderer returns the wrapped renderer.
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}
