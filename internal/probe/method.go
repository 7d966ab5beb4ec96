package probe

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/probekit/internal/agent"
	"git.home.luguber.info/inful/probekit/internal/format"
	"git.home.luguber.info/inful/probekit/internal/logfields"
	"git.home.luguber.info/inful/probekit/internal/source"
)

// MethodProbe traces method entry and exit with timing. One probe instance is
// built per instrumented call site and shared by every invocation.
type MethodProbe struct {
	opts Options
	logs agent.LogSink
	now  func() time.Time
}

// NewMethodProbe builds a probe writing to logs (NoopLog when nil).
func NewMethodProbe(logs agent.LogSink, opts Options) *MethodProbe {
	if logs == nil {
		logs = agent.NoopLog{}
	}
	return &MethodProbe{opts: opts.normalized("method"), logs: logs, now: time.Now}
}

// Call carries one invocation's state from Enter to Exit. It is never shared
// across invocations.
type Call struct {
	probe  *MethodProbe
	ctx    context.Context
	start  time.Time
	src    source.Location
	active bool
}

// inertCall is returned on the disabled fast path so callers can always
// defer call.Exit without a nil check or an allocation.
var inertCall = &Call{}

// Enter records method entry and returns the per-invocation token.
func (p *MethodProbe) Enter(ctx context.Context, args ...any) *Call {
	if p == nil || !Enabled() {
		return inertCall
	}
	c := &Call{probe: p, ctx: ctx, start: p.now(), active: true}
	if p.opts.SourceLookup {
		c.src = source.Caller(1)
	}
	desc := ""
	if p.opts.LogParameters {
		desc = format.Params(p.opts.ParameterNames, args, p.opts.DetailedParameters)
	}
	guard(func() error {
		return p.logs.Write(ctx, agent.Record{
			Severity:    p.opts.Severity,
			System:      p.opts.System,
			Source:      c.src,
			Category:    p.opts.Category,
			Caption:     p.opts.Caption + " entered",
			Description: desc,
		})
	})
	return c
}

// Exit records method exit. Severity escalates when err is non-nil. Elapsed
// time is clamped at zero to mask platform timer anomalies.
func (c *Call) Exit(result any, err error) {
	if c == nil || !c.active {
		return
	}
	p := c.probe
	elapsed := p.now().Sub(c.start)
	if elapsed < 0 {
		elapsed = 0
	}

	sev := p.opts.Severity
	caption := p.opts.Caption + " exited"
	attrs := []slog.Attr{logfields.DurationMS(float64(elapsed) / float64(time.Millisecond))}
	if err != nil {
		sev = p.opts.ErrorSeverity
		caption = p.opts.Caption + " exited with error"
		attrs = append(attrs, logfields.Error(err))
	}
	desc := ""
	if p.opts.LogReturnValue {
		desc = "result=" + format.Value(result, p.opts.DetailedParameters)
	}
	guard(func() error {
		return p.logs.Write(c.ctx, agent.Record{
			Severity:    sev,
			System:      p.opts.System,
			Source:      c.src,
			Category:    p.opts.Category,
			Caption:     caption,
			Description: desc,
			Attrs:       attrs,
		})
	})
}

// Elapsed reports the time since entry, clamped at zero. Zero for the inert call.
func (c *Call) Elapsed() time.Duration {
	if c == nil || !c.active {
		return 0
	}
	elapsed := c.probe.now().Sub(c.start)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
