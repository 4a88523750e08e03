package predict

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"charm.land/lipgloss/v2"
)

// Sink displays a finished prediction. Rendering the same problem twice
// replaces the earlier output.
type Sink interface {
	Render(ctx context.Context, p *Prediction) error
}

// Highlight is the colour of the rendered probability.
var Highlight = lipgloss.Color("#fac31d")

// TerminalSink prints one line per prediction: the title followed by the
// highlighted probability.
type TerminalSink struct {
	w     io.Writer
	title lipgloss.Style
	value lipgloss.Style
}

// NewTerminalSink returns a TerminalSink writing to w.
func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{
		w:     w,
		title: lipgloss.NewStyle().Bold(true),
		value: lipgloss.NewStyle().Foreground(Highlight).MarginLeft(1),
	}
}

func (s *TerminalSink) Render(_ context.Context, p *Prediction) error {
	_, err := fmt.Fprintln(s.w, s.title.Render(p.Problem.Title)+s.value.Render(p.Percent))
	return err
}

// LatestSink keeps the latest prediction per problem for the HTTP API.
type LatestSink struct {
	mu     sync.RWMutex
	latest map[string]*Prediction
}

// NewLatestSink returns an empty LatestSink.
func NewLatestSink() *LatestSink {
	return &LatestSink{latest: make(map[string]*Prediction)}
}

func (s *LatestSink) Render(_ context.Context, p *Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[p.Problem.ID] = p
	return nil
}

// Get returns the latest prediction for the problem slug.
func (s *LatestSink) Get(slug string) (*Prediction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.latest[slug]
	return p, ok
}

// All returns every stored prediction, newest first.
func (s *LatestSink) All() []*Prediction {
	s.mu.RLock()
	out := make([]*Prediction, 0, len(s.latest))
	for _, p := range s.latest {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ComputedAt.Equal(out[j].ComputedAt) {
			return out[i].Problem.ID < out[j].Problem.ID
		}
		return out[i].ComputedAt.After(out[j].ComputedAt)
	})
	return out
}

// MultiSink renders to every sink in order and returns the first error.
type MultiSink []Sink

func (m MultiSink) Render(ctx context.Context, p *Prediction) error {
	var first error
	for _, s := range m {
		if err := s.Render(ctx, p); err != nil && first == nil {
			first = err
		}
	}
	return first
}
