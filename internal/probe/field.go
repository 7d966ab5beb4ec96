package probe

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"git.home.luguber.info/inful/probekit/internal/agent"
	"git.home.luguber.info/inful/probekit/internal/classify"
	"git.home.luguber.info/inful/probekit/internal/format"
	"git.home.luguber.info/inful/probekit/internal/logfields"
	"git.home.luguber.info/inful/probekit/internal/metric"
	"git.home.luguber.info/inful/probekit/internal/source"
)

// FieldProbe tracks writes to a monitored field. When the value actually
// changed it logs old -> new and, for Numeric/Boolean fields, writes a
// one-slot metric sample of the new value keyed by the owning instance.
//
// Instance display names are resolved through the configured InstanceNamer
// and cached per identity for the process lifetime; the cache is never
// evicted, so naming very large instance populations grows it without bound.
type FieldProbe struct {
	opts     Options
	logs     agent.LogSink
	metrics  agent.MetricSink
	registry *metric.Registry
	kind     classify.Kind

	mu    sync.Mutex
	names map[uint64]string
}

// NewFieldProbe builds a probe for a field. The field's classification is
// fixed at construction from Options.ParameterTypes[0] when set, defaulting
// to Opaque (log-only) otherwise.
func NewFieldProbe(logs agent.LogSink, metrics agent.MetricSink, registry *metric.Registry, opts Options) *FieldProbe {
	if logs == nil {
		logs = agent.NoopLog{}
	}
	if metrics == nil {
		metrics = agent.NoopMetric{}
	}
	if registry == nil {
		registry = metric.Default
	}
	kind := classify.Opaque
	if len(opts.ParameterTypes) > 0 && opts.ParameterTypes[0] != nil {
		kind = classify.ClassifyType(opts.ParameterTypes[0])
	}
	return &FieldProbe{
		opts:     opts.normalized("field"),
		logs:     logs,
		metrics:  metrics,
		registry: registry,
		kind:     kind,
		names:    make(map[uint64]string),
	}
}

// Set reports a field write. instance is the owning object, nil for
// static-like fields. No-op unless the value actually changed.
func (p *FieldProbe) Set(ctx context.Context, instance any, oldValue, newValue any) {
	if p == nil || !Enabled() {
		return
	}
	if !Changed(oldValue, newValue) {
		return
	}
	name := p.instanceName(instance)

	var loc source.Location
	if p.opts.SourceLookup {
		loc = source.Caller(1)
	}
	guard(func() error {
		return p.logs.Write(ctx, agent.Record{
			Severity: p.opts.Severity,
			System:   p.opts.System,
			Source:   loc,
			Category: p.opts.Category,
			Caption:  p.opts.Caption + " changed",
			Description: fieldCaption(oldValue, p.opts.DetailedParameters) +
				" -> " + fieldCaption(newValue, p.opts.DetailedParameters),
			Attrs: []slog.Attr{
				logfields.Instance(name),
				logfields.OldValue(format.Value(oldValue, false)),
				logfields.NewValue(format.Value(newValue, false)),
			},
		})
	})

	if p.kind == classify.Numeric || p.kind == classify.Boolean {
		guard(func() error {
			return p.writeSample(name, newValue)
		})
	}
}

// Changed decides whether a write actually changed the field: reference
// equality short-circuits, then comparable equality, then nil asymmetry,
// then deep value equality. Any difference counts as changed.
func Changed(oldValue, newValue any) bool {
	if oldValue == nil && newValue == nil {
		return false
	}
	if oldValue == nil || newValue == nil {
		return true
	}
	ov := reflect.ValueOf(oldValue)
	nv := reflect.ValueOf(newValue)
	if ov.Kind() == nv.Kind() && isPointerKind(ov.Kind()) {
		if ov.Pointer() == nv.Pointer() {
			return false
		}
	}
	if ov.Type() == nv.Type() && ov.Type().Comparable() {
		return oldValue != newValue
	}
	return !reflect.DeepEqual(oldValue, newValue)
}

func isPointerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan,
		reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

// fieldCaption renders a value for the old -> new caption, quote-escaping strings.
func fieldCaption(v any, detailed bool) string {
	if s, ok := v.(string); ok {
		return format.QuoteCaption(s)
	}
	return format.Value(v, detailed)
}

// instanceName resolves and caches a display name for the owning instance.
// A failed or missing namer falls back to the identity hash form.
func (p *FieldProbe) instanceName(instance any) string {
	if instance == nil {
		return ""
	}
	id := format.IdentityHash(instance)

	p.mu.Lock()
	defer p.mu.Unlock()
	if n, ok := p.names[id]; ok {
		return n
	}
	name := format.HexHash(instance)
	if p.opts.InstanceNamer != nil {
		if resolved, ok := p.callNamer(instance); ok {
			name = resolved
		}
	}
	p.names[id] = name
	return name
}

// callNamer shields the probe from a panicking namer callback.
func (p *FieldProbe) callNamer(instance any) (name string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			diag(fmt.Errorf("instance namer panic: %v", r))
			name, ok = "", false
		}
	}()
	return p.opts.InstanceNamer(instance)
}

func (p *FieldProbe) writeSample(instance string, newValue any) error {
	def, err := p.registry.GetOrCreate(p.opts.System, p.opts.Category, p.opts.Name, func() ([]metric.ValueSlot, error) {
		return []metric.ValueSlot{{
			Name:        "value",
			Type:        slotTypeFor(p.kind),
			Aggregation: aggregationFor(p.kind),
			Units:       p.opts.Units,
			Caption:     p.opts.Caption,
		}}, nil
	})
	if err != nil {
		return err
	}
	if def == nil {
		return nil // skip recording silently
	}
	if err := p.metrics.Define(def); err != nil {
		return err
	}
	s := metric.NewSample(def, instance)
	_ = s.SetValue("value", newValue)
	return p.metrics.WriteSample(s)
}
