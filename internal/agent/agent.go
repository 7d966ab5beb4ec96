// Package agent defines the boundary to the logging-and-metrics agent the
// probes forward events into. The agent itself is an external collaborator;
// this package models it as two small sink interfaces plus the shipped
// backends (slog, Prometheus, SQLite session store, NATS). Implementations
// may fail — probes catch and suppress every sink error so instrumentation
// never alters the monitored code's control flow.
package agent

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/probekit/internal/metric"
	"git.home.luguber.info/inful/probekit/internal/source"
)

// Severity classifies a log record.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Level maps a severity onto slog's level scale.
func (s Severity) Level() slog.Level {
	switch s {
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	case SeverityCritical:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

// Record is one log message handed to a LogSink.
type Record struct {
	Severity    Severity
	System      string
	Source      source.Location
	Category    string
	Caption     string
	Description string
	Attrs       []slog.Attr
}

// LogSink receives log records. Implementations must be safe for concurrent
// use; Write must not block beyond what its backend requires.
type LogSink interface {
	Write(ctx context.Context, rec Record) error
}

// MetricSink receives metric definitions and samples. Define is called at
// most once per definition identity before the first sample for it; sinks
// must tolerate repeated Define calls for the same definition.
type MetricSink interface {
	Define(def *metric.Definition) error
	WriteSample(s *metric.Sample) error
}

// NoopLog is a LogSink that does nothing (default when logging not configured).
type NoopLog struct{}

func (NoopLog) Write(context.Context, Record) error { return nil }

// NoopMetric is a MetricSink that does nothing.
type NoopMetric struct{}

func (NoopMetric) Define(*metric.Definition) error   { return nil }
func (NoopMetric) WriteSample(*metric.Sample) error  { return nil }

// MultiLog fans a record out to every sink, returning the first error after
// all sinks have been attempted.
type MultiLog []LogSink

func (m MultiLog) Write(ctx context.Context, rec Record) error {
	var first error
	for _, s := range m {
		if err := s.Write(ctx, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// MultiMetric fans definitions and samples out to every sink.
type MultiMetric []MetricSink

func (m MultiMetric) Define(def *metric.Definition) error {
	var first error
	for _, s := range m {
		if err := s.Define(def); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiMetric) WriteSample(sample *metric.Sample) error {
	var first error
	for _, s := range m {
		if err := s.WriteSample(sample); err != nil && first == nil {
			first = err
		}
	}
	return first
}
