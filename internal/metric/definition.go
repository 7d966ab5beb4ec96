// Package metric holds the metric schema model: immutable definitions made of
// named, typed value slots, a process-wide get-or-create registry, and the
// per-event samples written against a definition.
package metric

import (
	"fmt"
	"strings"
)

// SlotType is the semantic type of one value slot.
type SlotType string

const (
	SlotDuration SlotType = "duration"
	SlotNumber   SlotType = "number"
	SlotBool     SlotType = "bool"
	SlotText     SlotType = "text"
)

// Aggregation is the summary policy applied when samples are rolled up.
type Aggregation string

const (
	AggregateAverage Aggregation = "average"
	AggregateCount   Aggregation = "count"
)

// ValueSlot describes one named value recorded with each sample.
type ValueSlot struct {
	Name        string
	Type        SlotType
	Aggregation Aggregation
	Units       string
	Caption     string
	Description string
}

// Definition is an immutable metric schema identified by (system, category,
// name). Created once per identity and shared by every sample thereafter.
type Definition struct {
	System      string
	Category    string
	Name        string
	Caption     string
	Description string

	slots []ValueSlot
	index map[string]int
}

// NewDefinition builds a definition with a defensive copy of the slots.
func NewDefinition(system, category, name string, slots []ValueSlot) *Definition {
	d := &Definition{
		System:   system,
		Category: category,
		Name:     name,
		slots:    make([]ValueSlot, len(slots)),
		index:    make(map[string]int, len(slots)),
	}
	copy(d.slots, slots)
	for i, s := range d.slots {
		d.index[s.Name] = i
	}
	return d
}

// Key is the registry identity for this definition.
func (d *Definition) Key() string {
	return DefinitionKey(d.System, d.Category, d.Name)
}

// DefinitionKey builds the (system, category, name) identity string.
func DefinitionKey(system, category, name string) string {
	return strings.Join([]string{system, category, name}, "/")
}

// Slots returns a copy of the ordered value slots.
func (d *Definition) Slots() []ValueSlot {
	out := make([]ValueSlot, len(d.slots))
	copy(out, d.slots)
	return out
}

// Slot looks up a slot by name.
func (d *Definition) Slot(name string) (ValueSlot, bool) {
	i, ok := d.index[name]
	if !ok {
		return ValueSlot{}, false
	}
	return d.slots[i], true
}

// FullName is the display identity, e.g. "probekit:orders:process".
func (d *Definition) FullName() string {
	return fmt.Sprintf("%s:%s:%s", d.System, d.Category, d.Name)
}
