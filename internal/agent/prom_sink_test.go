package agent

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/probekit/internal/metric"
)

func promTestDefinition() *metric.Definition {
	return metric.NewDefinition("probekit", "orders", "process", []metric.ValueSlot{
		{Name: "duration", Type: metric.SlotDuration, Aggregation: metric.AggregateAverage, Units: "ms"},
		{Name: "count", Type: metric.SlotNumber, Aggregation: metric.AggregateAverage},
		{Name: "rush", Type: metric.SlotBool, Aggregation: metric.AggregateCount},
		{Name: "result", Type: metric.SlotText, Aggregation: metric.AggregateCount},
	})
}

func TestPromSink(t *testing.T) {
	reg := prom.NewRegistry()
	sink := NewPromSink(reg)
	def := promTestDefinition()

	require.NoError(t, sink.Define(def))
	// Redundant Define for the same identity is tolerated.
	require.NoError(t, sink.Define(def))

	s := metric.NewSample(def, "0xabc")
	require.NoError(t, s.SetValue("duration", 150*time.Millisecond))
	require.NoError(t, s.SetValue("count", 3))
	require.NoError(t, s.SetValue("rush", true))
	require.NoError(t, s.SetValue("result", "ok")) // text slot: log side only
	require.NoError(t, sink.WriteSample(s))

	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)

	names := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["probekit_orders_process_duration"])
	assert.True(t, names["probekit_orders_process_count"])
	assert.True(t, names["probekit_orders_process_rush_total"])
	// Text slots never become collectors.
	for name := range names {
		assert.NotContains(t, name, "result")
	}
}

func TestPromSinkSampleBeforeDefine(t *testing.T) {
	sink := NewPromSink(nil)
	def := promTestDefinition()
	s := metric.NewSample(def, "")
	require.NoError(t, s.SetValue("count", 1))
	assert.Error(t, sink.WriteSample(s))
}
