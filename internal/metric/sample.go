package metric

import (
	"fmt"
	"time"
)

// Sample is one recorded event conforming to a definition. Samples are
// created per event, written to a sink immediately, then discarded; they are
// not safe for concurrent use and do not need to be.
type Sample struct {
	Definition *Definition
	Instance   string
	Taken      time.Time

	values map[string]any
}

// NewSample creates a sample for the definition. Instance disambiguates
// samples across multiple instances of the monitored type; empty means the
// metric is not instance-scoped.
func NewSample(def *Definition, instance string) *Sample {
	return &Sample{
		Definition: def,
		Instance:   instance,
		Taken:      time.Now(),
		values:     make(map[string]any, len(def.slots)),
	}
}

// SetValue records a value for a named slot. Values for slots the definition
// does not declare are rejected so schema drift surfaces at the write site.
func (s *Sample) SetValue(slot string, v any) error {
	if _, ok := s.Definition.Slot(slot); !ok {
		return fmt.Errorf("metric %s has no slot %q", s.Definition.FullName(), slot)
	}
	s.values[slot] = v
	return nil
}

// Value returns the recorded value for a slot.
func (s *Sample) Value(slot string) (any, bool) {
	v, ok := s.values[slot]
	return v, ok
}

// Values returns a copy of the recorded slot values.
func (s *Sample) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
