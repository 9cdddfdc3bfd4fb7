package app

import (
	"sync/atomic"
	"time"
)

// Metrics counts what happened during a session.
type Metrics struct {
	keys atomic.Uint64

	evalCount   atomic.Uint64
	evalTotalNs atomic.Int64
	evalMaxNs   atomic.Int64
	evalErrors  atomic.Uint64

	renderErrors atomic.Uint64
	commits      atomic.Uint64
	reloads      atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordKey records a key press.
func (m *Metrics) RecordKey() {
	m.keys.Add(1)
}

// RecordEval records one evaluation and whether it failed.
func (m *Metrics) RecordEval(duration time.Duration, failed bool) {
	ns := duration.Nanoseconds()
	m.evalCount.Add(1)
	m.evalTotalNs.Add(ns)
	if failed {
		m.evalErrors.Add(1)
	}
	for {
		old := m.evalMaxNs.Load()
		if ns <= old || m.evalMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordRenderError records a failed preview render.
func (m *Metrics) RecordRenderError() {
	m.renderErrors.Add(1)
}

// RecordCommit records a committed line.
func (m *Metrics) RecordCommit() {
	m.commits.Add(1)
}

// RecordReload records a document reload.
func (m *Metrics) RecordReload() {
	m.reloads.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	count := m.evalCount.Load()
	var avg time.Duration
	if count > 0 {
		avg = time.Duration(m.evalTotalNs.Load() / int64(count))
	}
	return MetricsSnapshot{
		Uptime:       time.Since(m.startTime),
		Keys:         m.keys.Load(),
		Evals:        count,
		EvalErrors:   m.evalErrors.Load(),
		AvgEval:      avg,
		MaxEval:      time.Duration(m.evalMaxNs.Load()),
		RenderErrors: m.renderErrors.Load(),
		Commits:      m.commits.Load(),
		Reloads:      m.reloads.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime       time.Duration
	Keys         uint64
	Evals        uint64
	EvalErrors   uint64
	AvgEval      time.Duration
	MaxEval      time.Duration
	RenderErrors uint64
	Commits      uint64
	Reloads      uint64
}

// Fields returns the snapshot as log fields.
func (s MetricsSnapshot) Fields() map[string]any {
	return map[string]any{
		"uptime":        s.Uptime.Round(time.Millisecond).String(),
		"keys":          s.Keys,
		"evals":         s.Evals,
		"eval_errors":   s.EvalErrors,
		"avg_eval":      s.AvgEval.String(),
		"max_eval":      s.MaxEval.String(),
		"render_errors": s.RenderErrors,
		"commits":       s.Commits,
		"reloads":       s.Reloads,
	}
}
