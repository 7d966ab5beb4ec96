package probe

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/probekit/internal/agent"
	"git.home.luguber.info/inful/probekit/internal/classify"
	"git.home.luguber.info/inful/probekit/internal/format"
	"git.home.luguber.info/inful/probekit/internal/logfields"
	"git.home.luguber.info/inful/probekit/internal/metric"
	"git.home.luguber.info/inful/probekit/internal/source"
)

// Reserved slot names in a feature-usage metric. Parameters get one slot each
// alongside these.
const (
	slotDuration  = "duration"
	slotGoroutine = "goroutine"
	slotResult    = "result"
	slotError     = "error"
	slotCategory  = "category"
	slotName      = "name"
	slotFullName  = "full_name"
)

// FeatureProbe combines simplified entry/exit logging with one metric sample
// per invocation, recording how a feature was used: duration, goroutine id,
// each parameter typed per classification, the result, and the error type.
// Every failure on the way out — definition, sample write, and the exit log
// alike — is suppressed.
type FeatureProbe struct {
	opts     Options
	logs     agent.LogSink
	metrics  agent.MetricSink
	registry *metric.Registry
	now      func() time.Time
}

// NewFeatureProbe builds a probe. Nil sinks become noops; a nil registry uses
// the process-wide default.
func NewFeatureProbe(logs agent.LogSink, metrics agent.MetricSink, registry *metric.Registry, opts Options) *FeatureProbe {
	if logs == nil {
		logs = agent.NoopLog{}
	}
	if metrics == nil {
		metrics = agent.NoopMetric{}
	}
	if registry == nil {
		registry = metric.Default
	}
	return &FeatureProbe{
		opts:     opts.normalized("feature"),
		logs:     logs,
		metrics:  metrics,
		registry: registry,
		now:      time.Now,
	}
}

// FeatureCall carries one invocation's state from Enter to Exit.
type FeatureCall struct {
	probe  *FeatureProbe
	ctx    context.Context
	start  time.Time
	args   []any
	active bool
}

var inertFeatureCall = &FeatureCall{}

// Enter records feature entry and captures the arguments for metric typing.
func (p *FeatureProbe) Enter(ctx context.Context, args ...any) *FeatureCall {
	if p == nil || !Enabled() {
		return inertFeatureCall
	}
	c := &FeatureCall{probe: p, ctx: ctx, start: p.now(), active: true}
	c.args = make([]any, len(args))
	copy(c.args, args)

	desc := ""
	if p.opts.LogParameters {
		desc = format.Params(p.opts.ParameterNames, args, p.opts.DetailedParameters)
	}
	guard(func() error {
		return p.logs.Write(ctx, agent.Record{
			Severity:    p.opts.Severity,
			System:      p.opts.System,
			Category:    p.opts.Category,
			Caption:     p.opts.Caption + " used",
			Description: desc,
			Attrs:       []slog.Attr{logfields.Feature(p.opts.Name)},
		})
	})
	return c
}

// Exit records the exit log and writes the feature-usage sample.
func (c *FeatureCall) Exit(result any, err error) {
	if c == nil || !c.active {
		return
	}
	p := c.probe
	elapsed := p.now().Sub(c.start)
	if elapsed < 0 {
		elapsed = 0
	}

	sev := p.opts.Severity
	attrs := []slog.Attr{
		logfields.Feature(p.opts.Name),
		logfields.DurationMS(float64(elapsed) / float64(time.Millisecond)),
	}
	if err != nil {
		sev = p.opts.ErrorSeverity
		attrs = append(attrs, logfields.Error(err))
	}
	guard(func() error {
		return p.logs.Write(c.ctx, agent.Record{
			Severity: sev,
			System:   p.opts.System,
			Category: p.opts.Category,
			Caption:  p.opts.Caption + " completed",
			Attrs:    attrs,
		})
	})
	guard(func() error {
		return p.writeSample(elapsed, c.args, result, err)
	})
}

func (p *FeatureProbe) writeSample(elapsed time.Duration, args []any, result any, err error) error {
	def, defErr := p.registry.GetOrCreate(p.opts.System, p.opts.Category, p.opts.Name, func() ([]metric.ValueSlot, error) {
		return p.buildSlots(args, result), nil
	})
	if defErr != nil {
		return defErr
	}
	if def == nil {
		return nil // skip recording silently
	}
	if err := p.metrics.Define(def); err != nil {
		return err
	}

	// Slot mismatches mean an older schema won the definition race; those
	// values are skipped rather than failing the whole sample.
	s := metric.NewSample(def, "")
	_ = s.SetValue(slotDuration, elapsed)
	_ = s.SetValue(slotGoroutine, source.GoroutineID())
	for i, v := range args {
		_ = s.SetValue(p.opts.paramName(i), slotValue(p.paramKind(i, v), v))
	}
	_ = s.SetValue(slotResult, slotValue(p.resultKind(result), result))
	errType := ""
	if err != nil {
		errType = format.TypeFullName(err)
	}
	_ = s.SetValue(slotError, errType)
	_ = s.SetValue(slotCategory, p.opts.Category)
	_ = s.SetValue(slotName, p.opts.Name)
	_ = s.SetValue(slotFullName, def.FullName())

	return p.metrics.WriteSample(s)
}

// buildSlots fixes the metric schema on first use. Declared types win when
// configured; otherwise the first invocation's live values decide.
func (p *FeatureProbe) buildSlots(args []any, result any) []metric.ValueSlot {
	slots := []metric.ValueSlot{
		{Name: slotDuration, Type: metric.SlotDuration, Aggregation: metric.AggregateAverage, Units: "ms", Caption: "Duration"},
		{Name: slotGoroutine, Type: metric.SlotNumber, Aggregation: metric.AggregateCount, Caption: "Goroutine"},
	}
	for i, v := range args {
		name := p.opts.paramName(i)
		slots = append(slots, metric.ValueSlot{
			Name:        name,
			Type:        slotTypeFor(p.paramKind(i, v)),
			Aggregation: aggregationFor(p.paramKind(i, v)),
			Caption:     metric.Caption(name),
		})
	}
	slots = append(slots,
		metric.ValueSlot{Name: slotResult, Type: slotTypeFor(p.resultKind(result)), Aggregation: aggregationFor(p.resultKind(result)), Caption: "Result"},
		metric.ValueSlot{Name: slotError, Type: metric.SlotText, Aggregation: metric.AggregateCount, Caption: "Error"},
		metric.ValueSlot{Name: slotCategory, Type: metric.SlotText, Aggregation: metric.AggregateCount, Caption: "Category"},
		metric.ValueSlot{Name: slotName, Type: metric.SlotText, Aggregation: metric.AggregateCount, Caption: "Name"},
		metric.ValueSlot{Name: slotFullName, Type: metric.SlotText, Aggregation: metric.AggregateCount, Caption: "Full Name"},
	)
	return slots
}

func (p *FeatureProbe) paramKind(i int, v any) classify.Kind {
	if i < len(p.opts.ParameterTypes) && p.opts.ParameterTypes[i] != nil {
		return classify.ClassifyType(p.opts.ParameterTypes[i])
	}
	return classify.Classify(v)
}

func (p *FeatureProbe) resultKind(v any) classify.Kind {
	if p.opts.ResultType != nil {
		return classify.ClassifyType(p.opts.ResultType)
	}
	return classify.Classify(v)
}

func slotTypeFor(k classify.Kind) metric.SlotType {
	switch k {
	case classify.Numeric:
		return metric.SlotNumber
	case classify.Boolean:
		return metric.SlotBool
	default:
		return metric.SlotText
	}
}

func aggregationFor(k classify.Kind) metric.Aggregation {
	if k == classify.Numeric {
		return metric.AggregateAverage
	}
	return metric.AggregateCount
}

// slotValue converts a live value into its recorded form: numbers and bools
// are stored raw, opaque values as summary-formatted text.
func slotValue(k classify.Kind, v any) any {
	switch k {
	case classify.Numeric, classify.Boolean:
		return v
	default:
		return format.Value(v, false)
	}
}
