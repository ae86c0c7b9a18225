package stat

// Stat is one named quantity: a settable base scalar plus a layer × zone
// grid of collectors.
//
// Stat is not safe for concurrent use. The owner goroutine (usually the
// simulation tick) must serialize all calls.
type Stat struct {
	kind       Kind
	baseScalar float64

	// nil until the first modifier lands in the cell; never freed afterwards
	cells [layerCount][zoneCount]*collector

	values [layerCount]float64
	total  float64
	dirty  bool

	eventsEnabled bool
	autoRecompute bool

	listeners listenerList
}

// NewStat creates a stat with scalar 0, events and auto-recompute enabled.
func NewStat(kind Kind) *Stat {
	return &Stat{
		kind:          kind,
		eventsEnabled: true,
		autoRecompute: true,
	}
}

func (s *Stat) Kind() Kind { return s.kind }

// BaseScalar returns the raw scalar seeding the base layer.
func (s *Stat) BaseScalar() float64 { return s.baseScalar }

// BaseValue returns the base layer as of the last completed recompute.
func (s *Stat) BaseValue() float64 { return s.values[LayerBase] }

// BonusValue returns the bonus layer as of the last completed recompute.
func (s *Stat) BonusValue() float64 { return s.values[LayerBonus] }

// TotalValue returns BaseValue + BonusValue as of the last completed recompute.
func (s *Stat) TotalValue() float64 { return s.total }

// Value returns one layer as of the last completed recompute.
func (s *Stat) Value(l Layer) float64 { return s.values[l] }

// IsDirty reports whether a mutation happened since the last recompute.
func (s *Stat) IsDirty() bool { return s.dirty }

func (s *Stat) EventsEnabled() bool { return s.eventsEnabled }
func (s *Stat) AutoRecompute() bool { return s.autoRecompute }

// SetEventsEnabled toggles change notifications. Disabled stats still
// recompute; they just stay silent.
func (s *Stat) SetEventsEnabled(enabled bool) { s.eventsEnabled = enabled }

// SetAutoRecompute toggles recompute-on-mutation. With it off, reads
// reflect only the last explicit Recompute.
func (s *Stat) SetAutoRecompute(enabled bool) { s.autoRecompute = enabled }

// Subscribe registers fn for this stat's changes.
func (s *Stat) Subscribe(fn Listener) Subscription { return s.listeners.subscribe(fn) }

// Unsubscribe removes a registration. Returns false for unknown subscriptions.
func (s *Stat) Unsubscribe(sub Subscription) bool { return s.listeners.unsubscribe(sub) }

// SetBaseScalar replaces the base scalar.
func (s *Stat) SetBaseScalar(v float64) {
	s.baseScalar = v
	s.touch()
}

// AddModifier inserts m into its (layer, zone) cell and returns the handle
// that removes exactly this insertion. A nil modifier is ignored and yields
// the zero Handle.
func (s *Stat) AddModifier(m *Modifier) Handle {
	if m == nil {
		return Handle{}
	}
	cell := s.cells[m.layer][m.zone]
	if cell == nil {
		cell = newCollector()
		s.cells[m.layer][m.zone] = cell
	}
	e := &entry{mod: m}
	cell.Add(e)
	s.touch()
	return Handle{e: e}
}

// RemoveModifier revokes the insertion identified by h.
// Returns false when h is zero, already removed, or belongs to another stat.
func (s *Stat) RemoveModifier(h Handle) bool {
	if h.e == nil || h.e.mod == nil {
		return false
	}
	cell := s.cells[h.e.mod.layer][h.e.mod.zone]
	if cell == nil || !cell.Remove(h.e) {
		return false
	}
	s.touch()
	return true
}

// ClearAllModifiers empties every existing cell.
func (s *Stat) ClearAllModifiers() {
	for l := range s.cells {
		for z := range s.cells[l] {
			if cell := s.cells[l][z]; cell != nil {
				cell.Clear()
			}
		}
	}
	s.touch()
}

// ModifierCount returns the number of live insertions across all cells.
func (s *Stat) ModifierCount() int {
	n := 0
	for l := range s.cells {
		for _, cell := range s.cells[l] {
			if cell != nil {
				n += cell.Len()
			}
		}
	}
	return n
}

// MarkDirty flags the stat for the next batch recompute.
func (s *Stat) MarkDirty() { s.dirty = true }

func (s *Stat) touch() {
	s.dirty = true
	if s.autoRecompute {
		s.Recompute()
	}
}

// Recompute rebuilds every layer from scratch.
//
// Per layer the accumulator starts at the base scalar (base layer) or 0
// (bonus layer) and each zone, in declaration order, applies
// acc = (acc + flat) * (1 + pct). Missing cells are neutral.
// Both layers are compared against their previous value regardless of which
// one was mutated.
func (s *Stat) Recompute() {
	var next [layerCount]float64
	for l := range layerCount {
		acc := 0.0
		if l == LayerBase {
			acc = s.baseScalar
		}
		for z := range zoneCount {
			cell := s.cells[l][z]
			if cell == nil {
				continue
			}
			flat, pct := cell.Totals()
			acc = (acc + flat) * (1 + pct)
		}
		next[l] = acc
	}

	prev := s.values
	s.values = next
	s.total = next[LayerBase] + next[LayerBonus]
	s.dirty = false

	if !s.eventsEnabled {
		return
	}
	for l := range layerCount {
		if changed(prev[l], next[l]) {
			s.listeners.emit(Change{Kind: s.kind, Layer: l, Old: prev[l], New: next[l]})
		}
	}
}

// Snapshot is a read-only copy of a stat's computed state.
type Snapshot struct {
	Kind   Kind
	Scalar float64
	Base   float64
	Bonus  float64
	Total  float64
}

// Snapshot copies the current (possibly stale) values.
func (s *Stat) Snapshot() Snapshot {
	return Snapshot{
		Kind:   s.kind,
		Scalar: s.baseScalar,
		Base:   s.values[LayerBase],
		Bonus:  s.values[LayerBonus],
		Total:  s.total,
	}
}
