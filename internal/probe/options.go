package probe

import (
	"reflect"
	"strconv"

	"git.home.luguber.info/inful/probekit/internal/agent"
	"git.home.luguber.info/inful/probekit/internal/metric"
)

// DefaultSystem is the system identity records and metrics carry unless
// overridden per probe.
const DefaultSystem = "probekit"

// Options configures one probe. All fields are fixed at construction time —
// the analog of weave-time member configuration. Only the package-level
// enable flag is mutable afterwards.
type Options struct {
	// Identity. Name is required in spirit; when empty the probe's kind is
	// used. Caption defaults to a title-cased form of Name.
	System   string
	Category string
	Name     string
	Caption  string
	Units    string

	// Severity of entry/exit records; ErrorSeverity is used when the exit is
	// due to an error, and for ErrorProbe records.
	Severity      agent.Severity
	ErrorSeverity agent.Severity

	// Formatting toggles. DetailedParameters invokes values' own text
	// conversion; off, the cheaper summary form is used.
	LogParameters      bool
	DetailedParameters bool
	LogReturnValue     bool

	// SourceLookup resolves caller class/method/file/line on entry. Walking
	// the stack is expensive, hence togglable.
	SourceLookup bool

	// ParameterNames and ParameterTypes describe the instrumented member.
	// Types, when given, fix metric classification up front; otherwise the
	// first observed values decide.
	ParameterNames []string
	ParameterTypes []reflect.Type
	ResultType     reflect.Type

	// InstanceNamer resolves a display name for a monitored field's owning
	// instance. Results are cached per identity for the process lifetime.
	InstanceNamer func(instance any) (string, bool)
}

// normalized fills identity defaults. kind names the probe flavor and serves
// as the fallback Name.
func (o Options) normalized(kind string) Options {
	if o.System == "" {
		o.System = DefaultSystem
	}
	if o.Category == "" {
		o.Category = kind
	}
	if o.Name == "" {
		o.Name = kind
	}
	if o.Caption == "" {
		o.Caption = metric.Caption(o.Name)
	}
	if o.Severity == "" {
		o.Severity = agent.SeverityDebug
	}
	if o.ErrorSeverity == "" {
		o.ErrorSeverity = agent.SeverityWarning
	}
	return o
}

// paramName returns the configured name for parameter i, or a positional
// fallback matching the formatter's.
func (o Options) paramName(i int) string {
	if i < len(o.ParameterNames) && o.ParameterNames[i] != "" {
		return o.ParameterNames[i]
	}
	return "arg" + strconv.Itoa(i)
}
