package agent

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/probekit/internal/logfields"
)

// SlogSink writes records through a slog.Logger using the canonical field
// names from internal/logfields.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink wraps the given logger; nil uses slog.Default at write time.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Write(ctx context.Context, rec Record) error {
	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := make([]slog.Attr, 0, len(rec.Attrs)+4)
	if rec.System != "" {
		attrs = append(attrs, logfields.System(rec.System))
	}
	if rec.Category != "" {
		attrs = append(attrs, logfields.Category(rec.Category))
	}
	if !rec.Source.IsZero() {
		attrs = append(attrs, logfields.Source(rec.Source.String()))
	}
	attrs = append(attrs, rec.Attrs...)

	msg := rec.Caption
	if rec.Description != "" {
		attrs = append(attrs, slog.String("detail", rec.Description))
	}
	logger.LogAttrs(ctx, rec.Severity.Level(), msg, attrs...)
	return nil
}
