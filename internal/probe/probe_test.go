package probe

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/probekit/internal/agent"
	"git.home.luguber.info/inful/probekit/internal/metric"
)

// captureLog collects records for assertions.
type captureLog struct {
	mu      sync.Mutex
	records []agent.Record
}

func (c *captureLog) Write(_ context.Context, rec agent.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	return nil
}

func (c *captureLog) all() []agent.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]agent.Record, len(c.records))
	copy(out, c.records)
	return out
}

// captureMetrics collects definitions and samples.
type captureMetrics struct {
	mu      sync.Mutex
	defs    []*metric.Definition
	samples []*metric.Sample
}

func (c *captureMetrics) Define(def *metric.Definition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs = append(c.defs, def)
	return nil
}

func (c *captureMetrics) WriteSample(s *metric.Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, s)
	return nil
}

func (c *captureMetrics) allSamples() []*metric.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*metric.Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

type failingLog struct{ err error }

func (f failingLog) Write(context.Context, agent.Record) error { return f.err }

type failingMetrics struct{ err error }

func (f failingMetrics) Define(*metric.Definition) error  { return f.err }
func (f failingMetrics) WriteSample(*metric.Sample) error { return f.err }

// withEnabled runs fn with the global flag forced to on, restoring it after.
func withEnabled(on bool, fn func()) {
	prev := Enabled()
	SetEnabled(on)
	defer SetEnabled(prev)
	fn()
}
