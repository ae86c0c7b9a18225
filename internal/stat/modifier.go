package stat

import "fmt"

// Modifier is one immutable contribution to a stat.
// Percentage magnitudes are additive fractions: 0.10 means +10%.
type Modifier struct {
	magnitude float64
	percent   bool
	layer     Layer
	zone      Zone
}

// NewModifier creates a modifier addressed to (layer, zone).
func NewModifier(magnitude float64, percent bool, layer Layer, zone Zone) *Modifier {
	return &Modifier{magnitude: magnitude, percent: percent, layer: layer, zone: zone}
}

// NewFlat creates a flat (additive) modifier.
func NewFlat(layer Layer, zone Zone, value float64) *Modifier {
	return NewModifier(value, false, layer, zone)
}

// NewPercent creates a percentage modifier; pct is a fraction (0.15 = +15%).
func NewPercent(layer Layer, zone Zone, pct float64) *Modifier {
	return NewModifier(pct, true, layer, zone)
}

func (m *Modifier) Magnitude() float64 { return m.magnitude }
func (m *Modifier) IsPercentage() bool { return m.percent }
func (m *Modifier) Layer() Layer       { return m.layer }
func (m *Modifier) Zone() Zone         { return m.zone }

func (m *Modifier) String() string {
	if m.percent {
		return fmt.Sprintf("%+.2f%% %s/%s", m.magnitude*100, m.layer, m.zone)
	}
	return fmt.Sprintf("%+.2f %s/%s", m.magnitude, m.layer, m.zone)
}

// entry is one insertion of a modifier into a collector. Each AddModifier
// call creates a fresh entry, so the same *Modifier added twice yields two
// independently removable entries.
type entry struct {
	mod *Modifier
}

// Handle identifies exactly one insertion made by AddModifier.
// The zero Handle refers to nothing; removing it is a no-op.
type Handle struct {
	e *entry
}

// Valid reports whether h was returned by a successful AddModifier.
func (h Handle) Valid() bool { return h.e != nil }

// Modifier returns the modifier behind the handle, or nil for the zero Handle.
func (h Handle) Modifier() *Modifier {
	if h.e == nil {
		return nil
	}
	return h.e.mod
}
