package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySystem     = "system"
	KeyCategory   = "category"
	KeyCaption    = "caption"
	KeySource     = "source"
	KeyInstance   = "instance"
	KeyDurationMS = "duration_ms"
	KeyOldValue   = "old_value"
	KeyNewValue   = "new_value"
	KeyFeature    = "feature"
	KeyGoroutine  = "goroutine"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func System(s string) slog.Attr       { return slog.String(KeySystem, s) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Caption(c string) slog.Attr      { return slog.String(KeyCaption, c) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Instance(n string) slog.Attr     { return slog.String(KeyInstance, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func OldValue(v string) slog.Attr     { return slog.String(KeyOldValue, v) }
func NewValue(v string) slog.Attr     { return slog.String(KeyNewValue, v) }
func Feature(f string) slog.Attr      { return slog.String(KeyFeature, f) }
func Goroutine(id uint64) slog.Attr   { return slog.Uint64(KeyGoroutine, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
