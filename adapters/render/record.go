package render

import (
	"sync"

	"metaqc/ports"
)

// Recorder is a RendererPort that records every draw request instead of
// producing output. The engine uses it as the default renderer when no
// plotting backend is attached; tests use it to assert on figure traffic.
type Recorder struct {
	mu      sync.Mutex
	figures []ports.Figure
}

var _ ports.RendererPort = (*Recorder)(nil)

// NewRecorder returns an empty recording renderer.
func NewRecorder() *Recorder { return &Recorder{} }

// Draw records the figure and succeeds.
func (r *Recorder) Draw(fig ports.Figure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.figures = append(r.figures, fig)
	return nil
}

// Figures returns a copy of every recorded request in draw order.
func (r *Recorder) Figures() []ports.Figure {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.Figure, len(r.figures))
	copy(out, r.figures)
	return out
}

// Reset clears the recorded figures.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.figures = nil
}
