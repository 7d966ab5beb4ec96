package agent

import (
	"fmt"
	"strings"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	proberr "git.home.luguber.info/inful/probekit/internal/errors"
	"git.home.luguber.info/inful/probekit/internal/metric"
)

// PromSink is a MetricSink backed by Prometheus collectors. Duration and
// number slots become histograms, bool slots become counters partitioned by
// truth value. Text slots are not exported — their values are unbounded and
// would explode label cardinality; they remain visible on the log side.
type PromSink struct {
	reg *prom.Registry

	mu         sync.Mutex
	histograms map[string]*prom.HistogramVec
	counters   map[string]*prom.CounterVec
}

// NewPromSink constructs a sink registering into reg (a fresh registry when nil).
func NewPromSink(reg *prom.Registry) *PromSink {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	return &PromSink{
		reg:        reg,
		histograms: make(map[string]*prom.HistogramVec),
		counters:   make(map[string]*prom.CounterVec),
	}
}

// Registry exposes the backing registry for the HTTP handler.
func (p *PromSink) Registry() *prom.Registry { return p.reg }

// Define registers collectors for each plottable slot. Idempotent per
// definition identity.
func (p *PromSink) Define(def *metric.Definition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, slot := range def.Slots() {
		key := collectorKey(def, slot.Name)
		switch slot.Type {
		case metric.SlotDuration, metric.SlotNumber:
			if _, ok := p.histograms[key]; ok {
				continue
			}
			hv := prom.NewHistogramVec(prom.HistogramOpts{
				Namespace: sanitize(def.System),
				Subsystem: sanitize(def.Category),
				Name:      sanitize(def.Name + "_" + slot.Name),
				Help:      slotHelp(def, slot),
				Buckets:   prom.DefBuckets,
			}, []string{"instance"})
			if err := p.reg.Register(hv); err != nil {
				return proberr.WrapError(err, proberr.CategoryAgent, "register histogram")
			}
			p.histograms[key] = hv
		case metric.SlotBool:
			if _, ok := p.counters[key]; ok {
				continue
			}
			cv := prom.NewCounterVec(prom.CounterOpts{
				Namespace: sanitize(def.System),
				Subsystem: sanitize(def.Category),
				Name:      sanitize(def.Name + "_" + slot.Name + "_total"),
				Help:      slotHelp(def, slot),
			}, []string{"instance", "value"})
			if err := p.reg.Register(cv); err != nil {
				return proberr.WrapError(err, proberr.CategoryAgent, "register counter")
			}
			p.counters[key] = cv
		}
	}
	return nil
}

// WriteSample observes every plottable slot value carried by the sample.
// Slots the sample does not set are skipped.
func (p *PromSink) WriteSample(s *metric.Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, slot := range s.Definition.Slots() {
		v, ok := s.Value(slot.Name)
		if !ok {
			continue
		}
		key := collectorKey(s.Definition, slot.Name)
		switch slot.Type {
		case metric.SlotDuration:
			hv, ok := p.histograms[key]
			if !ok {
				return undefineds(s)
			}
			d, ok := v.(time.Duration)
			if !ok {
				continue
			}
			hv.WithLabelValues(s.Instance).Observe(d.Seconds())
		case metric.SlotNumber:
			hv, ok := p.histograms[key]
			if !ok {
				return undefineds(s)
			}
			f, ok := toFloat(v)
			if !ok {
				continue
			}
			hv.WithLabelValues(s.Instance).Observe(f)
		case metric.SlotBool:
			cv, ok := p.counters[key]
			if !ok {
				return undefineds(s)
			}
			b, ok := v.(bool)
			if !ok {
				continue
			}
			cv.WithLabelValues(s.Instance, fmt.Sprintf("%t", b)).Inc()
		}
	}
	return nil
}

func undefineds(s *metric.Sample) error {
	return proberr.New(proberr.CategoryAgent, proberr.SeverityWarning,
		"sample written before definition: "+s.Definition.FullName())
}

func collectorKey(def *metric.Definition, slot string) string {
	return def.Key() + "#" + slot
}

func slotHelp(def *metric.Definition, slot metric.ValueSlot) string {
	if slot.Description != "" {
		return slot.Description
	}
	return def.FullName() + " " + slot.Name
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case time.Duration:
		return n.Seconds(), true
	}
	return 0, false
}

// sanitize converts an arbitrary identity fragment into a valid Prometheus
// name component.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
