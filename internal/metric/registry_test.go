package metric

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSlots() []ValueSlot {
	return []ValueSlot{
		{Name: "duration", Type: SlotDuration, Aggregation: AggregateAverage, Units: "ms"},
		{Name: "result", Type: SlotText, Aggregation: AggregateCount},
	}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	r := NewRegistry()
	build := func() ([]ValueSlot, error) { return testSlots(), nil }

	first, err := r.GetOrCreate("probekit", "orders", "process", build)
	require.NoError(t, err)
	second, err := r.GetOrCreate("probekit", "orders", "process", build)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestGetOrCreateConcurrentFirstWins(t *testing.T) {
	r := NewRegistry()
	var builds atomic.Int32

	const n = 32
	results := make([]*Definition, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := r.GetOrCreate("probekit", "orders", "process", func() ([]ValueSlot, error) {
				builds.Add(1)
				return testSlots(), nil
			})
			assert.NoError(t, err)
			results[i] = d
		}(i)
	}
	wg.Wait()

	require.NotNil(t, results[0])
	for _, d := range results {
		assert.Same(t, results[0], d)
	}
	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, 1, r.Len())
}

func TestGetOrCreateBuildError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("schema failed")
	d, err := r.GetOrCreate("probekit", "orders", "broken", func() ([]ValueSlot, error) {
		return nil, boom
	})
	assert.Nil(t, d)
	assert.ErrorIs(t, err, boom)

	// Nothing stored: a later successful build still runs.
	d, err = r.GetOrCreate("probekit", "orders", "broken", func() ([]ValueSlot, error) {
		return testSlots(), nil
	})
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestDefinitionImmutableSlots(t *testing.T) {
	slots := testSlots()
	d := NewDefinition("probekit", "orders", "process", slots)

	slots[0].Name = "mutated"
	got := d.Slots()
	assert.Equal(t, "duration", got[0].Name)

	got[1].Name = "also-mutated"
	again, ok := d.Slot("result")
	require.True(t, ok)
	assert.Equal(t, "result", again.Name)
}

func TestSampleValues(t *testing.T) {
	d := NewDefinition("probekit", "orders", "process", testSlots())
	s := NewSample(d, "0xdeadbeef")

	require.NoError(t, s.SetValue("duration", 12.5))
	require.NoError(t, s.SetValue("result", "ok"))
	assert.Error(t, s.SetValue("unknown", 1))

	v, ok := s.Value("duration")
	require.True(t, ok)
	assert.Equal(t, 12.5, v)
	assert.Len(t, s.Values(), 2)
}

func TestCaption(t *testing.T) {
	assert.Equal(t, "Apply Discount", Caption("applyDiscount"))
	assert.Equal(t, "Queue Depth", Caption("queue_depth"))
	assert.Equal(t, "Process Order", Caption("ProcessOrder"))
	assert.Equal(t, "HTTP Server", Caption("HTTPServer"))
	assert.Equal(t, "Duration", Caption("duration"))
}
