package search

import (
	"context"
	"sync/atomic"
)

// Sequencer hands out monotonic request numbers so that a result arriving
// after a newer query was issued can be recognised and dropped.
type Sequencer struct {
	latest atomic.Uint64
}

// Next issues a new request number, making it the latest
func (s *Sequencer) Next() uint64 {
	return s.latest.Add(1)
}

// Observe records an externally numbered request (for example one sent by a
// browser) and reports whether it is now the latest. Older numbers never
// move the latest mark backwards.
func (s *Sequencer) Observe(seq uint64) bool {
	for {
		cur := s.latest.Load()
		if seq < cur {
			return false
		}
		if seq == cur || s.latest.CompareAndSwap(cur, seq) {
			return true
		}
	}
}

// IsLatest reports whether seq is still the most recent request
func (s *Sequencer) IsLatest(seq uint64) bool {
	return s.latest.Load() == seq
}

// Session issues queries on behalf of one interactive client and delivers
// only results that are still current when they arrive.
type Session struct {
	engine *Engine
	seq    Sequencer
}

// NewSession binds a session to an engine
func NewSession(engine *Engine) *Session {
	return &Session{engine: engine}
}

// Submit runs a query numbered seq (0 means allocate the next number) and
// calls deliver with the results unless a newer query was submitted in the
// meantime. It reports whether deliver was called.
func (s *Session) Submit(ctx context.Context, seq uint64, text string, deliver func(seq uint64, results ResultSet)) bool {
	if seq == 0 {
		seq = s.seq.Next()
	} else if !s.seq.Observe(seq) {
		return false
	}

	results := s.engine.Query(ctx, text)
	if !s.seq.IsLatest(seq) {
		return false
	}
	deliver(seq, results)
	return true
}
