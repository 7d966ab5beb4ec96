package agent

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/probekit/internal/metric"
)

// Envelope encoding is tested without a live server; connection handling is
// covered by the demo daemon.

func TestSampleEnvelopeEncoding(t *testing.T) {
	def := metric.NewDefinition("probekit", "orders", "process", []metric.ValueSlot{
		{Name: "duration", Type: metric.SlotDuration, Aggregation: metric.AggregateAverage, Units: "ms"},
	})
	s := metric.NewSample(def, "0xabc")
	require.NoError(t, s.SetValue("duration", time.Second))

	env := sampleEnvelope{
		Timestamp:  s.Taken.UTC(),
		Definition: s.Definition.Key(),
		Instance:   s.Instance,
		Values:     encodeValues(s),
	}
	body, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "probekit/orders/process", decoded["definition"])
	assert.Equal(t, "0xabc", decoded["instance"])
	values, ok := decoded["values"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 1000.0, values["duration"], 0.001)
}

func TestLogEnvelopeOmitsEmptyFields(t *testing.T) {
	env := logEnvelope{
		Timestamp: time.Now().UTC(),
		Severity:  string(SeverityDebug),
		System:    "probekit",
		Category:  "orders",
		Caption:   "entered",
	}
	body, err := json.Marshal(env)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "description")
	assert.NotContains(t, string(body), "source")
}
