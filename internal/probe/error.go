package probe

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/probekit/internal/agent"
	"git.home.luguber.info/inful/probekit/internal/format"
	"git.home.luguber.info/inful/probekit/internal/source"
)

// ErrorProbe reports failures unwinding out of monitored code. It holds no
// state across calls. The failure itself is only observed — the caller
// propagates it unchanged.
type ErrorProbe struct {
	opts Options
	logs agent.LogSink
}

// NewErrorProbe builds a probe writing to logs (NoopLog when nil).
func NewErrorProbe(logs agent.LogSink, opts Options) *ErrorProbe {
	if logs == nil {
		logs = agent.NoopLog{}
	}
	return &ErrorProbe{opts: opts.normalized("error"), logs: logs}
}

// Observe emits a single record for the error. Attribution is the observation
// site, resolved only when SourceLookup is on.
func (p *ErrorProbe) Observe(ctx context.Context, err error) {
	if p == nil || err == nil || !Enabled() {
		return
	}
	var loc source.Location
	if p.opts.SourceLookup {
		loc = source.Caller(1)
	}
	p.write(ctx, loc, err.Error(), format.TypeFullName(err))
}

// ObservePanic emits a single record for a recovered panic, attributed to the
// throw site parsed from the recovered stack. The caller re-raises the panic;
// probekit never swallows it.
func (p *ErrorProbe) ObservePanic(ctx context.Context, recovered any, stack []byte) {
	if p == nil || recovered == nil || !Enabled() {
		return
	}
	loc := source.FromPanic(stack)
	p.write(ctx, loc, fmt.Sprintf("panic: %v", recovered), format.TypeFullName(recovered))
}

func (p *ErrorProbe) write(ctx context.Context, loc source.Location, detail, errType string) {
	guard(func() error {
		return p.logs.Write(ctx, agent.Record{
			Severity:    p.opts.ErrorSeverity,
			System:      p.opts.System,
			Source:      loc,
			Category:    p.opts.Category,
			Caption:     p.opts.Caption,
			Description: detail,
			Attrs:       []slog.Attr{slog.String("error_type", errType)},
		})
	})
}
