package layout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/unformer/pkg/graph"
	"github.com/matzehuels/unformer/pkg/observability"
)

// Tracker hands out generation tokens. A token is current until the next
// call to Next. The zero value is ready to use.
type Tracker struct {
	gen atomic.Uint64
}

// Next starts a new generation and returns its token.
func (t *Tracker) Next() uint64 { return t.gen.Add(1) }

// IsCurrent reports whether tok belongs to the latest generation.
func (t *Tracker) IsCurrent(tok uint64) bool { return t.gen.Load() == tok }

// Outcome reports how a submitted layout ended.
//
// When Stale is set a newer request was submitted before this one finished
// and Graph is nil. When Err is set, Graph is the last applied layout (nil if
// there is none), never a partial result.
type Outcome struct {
	Token uint64
	Graph *graph.Graph
	Err   error
	Stale bool
}

// Scheduler runs layouts asynchronously and applies only the latest one.
// It is safe for concurrent use.
type Scheduler struct {
	adapter *Adapter
	logger  *log.Logger
	tracker Tracker

	mu      sync.Mutex
	latest  *graph.Graph
	applied uint64
}

// NewScheduler returns a scheduler running layouts through adapter. A nil
// logger uses log.Default().
func NewScheduler(adapter *Adapter, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{adapter: adapter, logger: logger}
}

// Submit starts laying out g and returns a channel that receives exactly one
// outcome. Each call supersedes all earlier ones. The layout itself is not
// interrupted when superseded; its result is dropped on arrival.
func (s *Scheduler) Submit(ctx context.Context, g *graph.Graph) <-chan Outcome {
	tok := s.tracker.Next()
	ch := make(chan Outcome, 1)
	engine := s.engineName()

	go func() {
		defer close(ch)
		observability.Pipeline().OnLayoutStart(ctx, engine, len(g.Nodes))
		start := time.Now()
		res, err := s.adapter.Layout(ctx, g)
		observability.Pipeline().OnLayoutComplete(ctx, engine, time.Since(start), err)

		ch <- s.apply(ctx, tok, res, err)
	}()
	return ch
}

func (s *Scheduler) apply(ctx context.Context, tok uint64, res *graph.Graph, err error) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tracker.IsCurrent(tok) || tok < s.applied {
		s.logger.Debug("dropping stale layout", "token", tok)
		observability.Pipeline().OnLayoutStale(ctx, s.engineName(), tok)
		return Outcome{Token: tok, Stale: true}
	}
	if err != nil {
		s.logger.Warn("layout failed, keeping previous result", "token", tok, "error", err)
		return Outcome{Token: tok, Graph: s.latest, Err: err}
	}
	s.latest = res
	s.applied = tok
	return Outcome{Token: tok, Graph: res}
}

// Latest returns the most recently applied layout, or nil.
func (s *Scheduler) Latest() *graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Token returns the token of the most recently submitted request.
func (s *Scheduler) Token() uint64 { return s.tracker.gen.Load() }

func (s *Scheduler) engineName() string {
	if s.adapter == nil || s.adapter.Engine == nil {
		return ""
	}
	return s.adapter.Engine.Name()
}
