package main

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/probekit/internal/agent"
	"git.home.luguber.info/inful/probekit/internal/metric"
)

type recordingSink struct {
	mu      sync.Mutex
	records []agent.Record
	defs    []*metric.Definition
	samples []*metric.Sample
}

func (r *recordingSink) Write(_ context.Context, rec agent.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *recordingSink) Define(def *metric.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = append(r.defs, def)
	return nil
}

func (r *recordingSink) WriteSample(s *metric.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
	return nil
}

func (r *recordingSink) captions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Caption+": "+rec.Description)
	}
	return out
}

func TestProcessBatchEmitsAllProbeKinds(t *testing.T) {
	sink := &recordingSink{}
	p := NewOrderProcessor(sink, sink)

	// 12 orders covers the settled path, the declined path (seq 6) and the
	// panic path (seq 10).
	p.ProcessBatch(context.Background(), 12)

	joined := strings.Join(sink.captions(), "\n")
	assert.Contains(t, joined, "Process Order entered")
	assert.Contains(t, joined, "Process Order exited")
	assert.Contains(t, joined, "Apply Discount used")
	assert.Contains(t, joined, "Apply Discount completed")
	assert.Contains(t, joined, "Status changed")
	assert.Contains(t, joined, "Queue Depth changed")
	assert.Contains(t, joined, "payment declined")
	assert.Contains(t, joined, "inventory ledger out of sync")

	// Feature usage registers its metric once and samples per call.
	def, ok := p.registry.Lookup("probekit", "orders", "applyDiscount")
	require.True(t, ok)
	assert.Equal(t, "probekit:orders:applyDiscount", def.FullName())

	sink.mu.Lock()
	defer sink.mu.Unlock()
	discountSamples := 0
	for _, s := range sink.samples {
		if s.Definition.Name == "applyDiscount" {
			discountSamples++
		}
	}
	assert.Equal(t, 12, discountSamples)
}

func TestProcessBatchPanicIsContained(t *testing.T) {
	sink := &recordingSink{}
	p := NewOrderProcessor(sink, sink)

	assert.NotPanics(t, func() {
		p.ProcessBatch(context.Background(), 11)
	})

	// The panicking order still produces an exit record carrying the error.
	var exitWithError bool
	sink.mu.Lock()
	for _, rec := range sink.records {
		if rec.Caption != "Process Order exited with error" {
			continue
		}
		for _, attr := range rec.Attrs {
			if attr.Key == "error" && strings.Contains(attr.Value.String(), "pipeline panic") {
				exitWithError = true
			}
		}
	}
	sink.mu.Unlock()
	assert.True(t, exitWithError)
}
