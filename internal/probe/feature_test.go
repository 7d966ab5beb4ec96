package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/probekit/internal/metric"
)

func TestFeatureProbeWritesSample(t *testing.T) {
	logs := &captureLog{}
	metrics := &captureMetrics{}
	reg := metric.NewRegistry()
	p := NewFeatureProbe(logs, metrics, reg, Options{
		Category:       "orders",
		Name:           "applyDiscount",
		ParameterNames: []string{"percent", "rush"},
	})

	call := p.Enter(context.Background(), 15, true)
	call.Exit("applied", nil)

	// one entry + one exit record
	assert.Len(t, logs.all(), 2)

	samples := metrics.allSamples()
	require.Len(t, samples, 1)
	s := samples[0]
	assert.Equal(t, "probekit/orders/applyDiscount", s.Definition.Key())

	d, ok := s.Value("duration")
	require.True(t, ok)
	assert.GreaterOrEqual(t, d.(time.Duration), time.Duration(0))

	g, ok := s.Value("goroutine")
	require.True(t, ok)
	assert.Greater(t, g.(uint64), uint64(0))

	percent, ok := s.Value("percent")
	require.True(t, ok)
	assert.Equal(t, 15, percent)

	rush, ok := s.Value("rush")
	require.True(t, ok)
	assert.Equal(t, true, rush)

	result, ok := s.Value("result")
	require.True(t, ok)
	assert.Equal(t, "applied", result)

	errType, ok := s.Value("error")
	require.True(t, ok)
	assert.Equal(t, "", errType)

	name, _ := s.Value("name")
	assert.Equal(t, "applyDiscount", name)
	full, _ := s.Value("full_name")
	assert.Equal(t, "probekit:orders:applyDiscount", full)
}

func TestFeatureProbeSlotTyping(t *testing.T) {
	reg := metric.NewRegistry()
	p := NewFeatureProbe(nil, &captureMetrics{}, reg, Options{
		Category:       "orders",
		Name:           "applyDiscount",
		ParameterNames: []string{"percent", "rush", "note"},
	})

	p.Enter(context.Background(), 15, true, "gift").Exit(nil, nil)

	def, ok := reg.Lookup(DefaultSystem, "orders", "applyDiscount")
	require.True(t, ok)

	slot, ok := def.Slot("percent")
	require.True(t, ok)
	assert.Equal(t, metric.SlotNumber, slot.Type)
	assert.Equal(t, metric.AggregateAverage, slot.Aggregation)

	slot, _ = def.Slot("rush")
	assert.Equal(t, metric.SlotBool, slot.Type)

	slot, _ = def.Slot("note")
	assert.Equal(t, metric.SlotText, slot.Type)
	assert.Equal(t, "Note", slot.Caption)

	slot, _ = def.Slot("duration")
	assert.Equal(t, metric.SlotDuration, slot.Type)
}

func TestFeatureProbeErrorRecorded(t *testing.T) {
	metrics := &captureMetrics{}
	p := NewFeatureProbe(nil, metrics, metric.NewRegistry(), Options{Name: "applyDiscount"})

	p.Enter(context.Background()).Exit(nil, errors.New("below floor"))

	samples := metrics.allSamples()
	require.Len(t, samples, 1)
	errType, _ := samples[0].Value("error")
	assert.Equal(t, "*errors.errorString", errType)
}

func TestFeatureProbeUniformSuppression(t *testing.T) {
	var caught []error
	SetDiagnostic(func(err error) { caught = append(caught, err) })
	defer SetDiagnostic(nil)

	down := errors.New("agent down")
	p := NewFeatureProbe(failingLog{err: down}, failingMetrics{err: down}, metric.NewRegistry(), Options{Name: "applyDiscount"})

	// neither the failing log sink nor the failing metric sink may escape
	assert.NotPanics(t, func() {
		p.Enter(context.Background(), 1).Exit(nil, nil)
	})
	// entry log, exit log, and metric write were each suppressed
	assert.Len(t, caught, 3)
}

func TestFeatureProbeDisabled(t *testing.T) {
	logs := &captureLog{}
	metrics := &captureMetrics{}
	p := NewFeatureProbe(logs, metrics, metric.NewRegistry(), Options{Name: "applyDiscount"})

	withEnabled(false, func() {
		p.Enter(context.Background(), 1).Exit(nil, nil)
	})
	assert.Empty(t, logs.all())
	assert.Empty(t, metrics.allSamples())
}
