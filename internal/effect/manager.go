// Package effect tracks timed buffs/debuffs and passives and mirrors their
// stat bonuses into a stat.Registry.
package effect

import (
	"log/slog"
	"slices"
	"time"

	"github.com/udisondev/statengine/internal/stat"
)

const (
	DefaultMaxBuffs   = 24
	DefaultMaxDebuffs = 8
)

// Bonus is one fully formed stat contribution of an effect.
type Bonus struct {
	Kind     stat.Kind
	Modifier *stat.Modifier
}

// Active is a running effect on one registry.
type Active struct {
	SkillID       int32
	SkillLevel    int32
	AbnormalType  string // stacking group; empty means no stacking check
	AbnormalLevel int32
	RemainingMs   int32
	Bonuses       []Bonus

	applied []appliedBonus
}

type appliedBonus struct {
	kind   stat.Kind
	handle stat.Handle
}

// Tick decrements remaining time by deltaMs.
// Returns true if effect is still active, false if expired.
func (a *Active) Tick(deltaMs int32) bool {
	a.RemainingMs -= deltaMs
	return a.RemainingMs > 0
}

// Manager owns the effects of one character and keeps the registry's
// modifiers in step with them.
//
// Not safe for concurrent use: call it from the goroutine owning the
// registry (tick.Loop systems and mutations).
type Manager struct {
	reg *stat.Registry

	buffs    []*Active
	debuffs  []*Active
	passives []*Active

	maxBuffs   int
	maxDebuffs int
}

// NewManager creates an empty manager bound to reg.
func NewManager(reg *stat.Registry) *Manager {
	return &Manager{
		reg:        reg,
		buffs:      make([]*Active, 0, DefaultMaxBuffs),
		debuffs:    make([]*Active, 0, DefaultMaxDebuffs),
		passives:   make([]*Active, 0, 8),
		maxBuffs:   DefaultMaxBuffs,
		maxDebuffs: DefaultMaxDebuffs,
	}
}

// AddBuff adds a buff effect with stacking check.
// Returns true if the effect was added/replaced/refreshed, false if rejected.
//
// Stacking rules (same AbnormalType):
//   - Higher AbnormalLevel → replaces existing
//   - Same AbnormalLevel → refreshes duration
//   - Lower AbnormalLevel → rejected
//
// If the buff limit is reached, the oldest buff is removed.
func (m *Manager) AddBuff(a *Active) bool {
	var ok bool
	m.buffs, ok = m.add(m.buffs, a, m.maxBuffs)
	return ok
}

// AddDebuff adds a debuff effect. Same stacking rules as AddBuff.
func (m *Manager) AddDebuff(a *Active) bool {
	var ok bool
	m.debuffs, ok = m.add(m.debuffs, a, m.maxDebuffs)
	return ok
}

// AddPassive adds a passive effect (no stacking, limit or expiry).
// A passive with the same skill ID is replaced. An effect already held by
// the manager is ignored.
func (m *Manager) AddPassive(a *Active) {
	if a == nil || m.holds(a) {
		return
	}
	for i, existing := range m.passives {
		if existing.SkillID == a.SkillID {
			m.detach(existing)
			m.passives[i] = a
			m.attach(a)
			return
		}
	}
	m.passives = append(m.passives, a)
	m.attach(a)
}

func (m *Manager) add(list []*Active, a *Active, limit int) ([]*Active, bool) {
	if a == nil {
		return list, false
	}
	// Re-adding a held effect keeps its timer and modifiers as they are.
	if slices.Contains(list, a) {
		return list, true
	}
	if m.holds(a) {
		return list, false
	}

	if a.AbnormalType != "" {
		for i, existing := range list {
			if existing.AbnormalType != a.AbnormalType {
				continue
			}
			switch {
			case a.AbnormalLevel > existing.AbnormalLevel:
				m.detach(existing)
				list[i] = a
				m.attach(a)
				return list, true
			case a.AbnormalLevel == existing.AbnormalLevel:
				existing.RemainingMs = a.RemainingMs
				return list, true
			default:
				return list, false
			}
		}
	}

	if len(list) >= limit {
		oldest := list[0]
		m.detach(oldest)
		list = list[1:]

		slog.Debug("effect limit reached, removed oldest",
			"removedSkill", oldest.SkillID,
			"addedSkill", a.SkillID)
	}

	list = append(list, a)
	m.attach(a)
	return list, true
}

// RemoveEffect removes all buffs and debuffs with the given AbnormalType.
func (m *Manager) RemoveEffect(abnormalType string) int {
	var n1, n2 int
	m.buffs, n1 = m.removeWhere(m.buffs, func(a *Active) bool { return a.AbnormalType == abnormalType })
	m.debuffs, n2 = m.removeWhere(m.debuffs, func(a *Active) bool { return a.AbnormalType == abnormalType })
	return n1 + n2
}

// RemoveBySkillID removes every effect with the given skill ID.
func (m *Manager) RemoveBySkillID(skillID int32) int {
	match := func(a *Active) bool { return a.SkillID == skillID }
	var n1, n2, n3 int
	m.buffs, n1 = m.removeWhere(m.buffs, match)
	m.debuffs, n2 = m.removeWhere(m.debuffs, match)
	m.passives, n3 = m.removeWhere(m.passives, match)
	return n1 + n2 + n3
}

// Tick decrements timers on buffs and debuffs by deltaMs and removes the
// expired ones. Returns the number of expired effects.
func (m *Manager) Tick(deltaMs int32) int {
	expired := func(a *Active) bool { return !a.Tick(deltaMs) }
	var n1, n2 int
	m.buffs, n1 = m.removeWhere(m.buffs, expired)
	m.debuffs, n2 = m.removeWhere(m.debuffs, expired)
	return n1 + n2
}

// Advance is Tick for a wall-clock duration. Its signature fits
// tick.System.
func (m *Manager) Advance(elapsed time.Duration) {
	if n := m.Tick(int32(elapsed.Milliseconds())); n > 0 {
		slog.Debug("effects expired", "count", n)
	}
}

// ActiveBuffs returns a copy of active buff effects.
func (m *Manager) ActiveBuffs() []*Active {
	result := make([]*Active, len(m.buffs))
	copy(result, m.buffs)
	return result
}

// ActiveDebuffs returns a copy of active debuff effects.
func (m *Manager) ActiveDebuffs() []*Active {
	result := make([]*Active, len(m.debuffs))
	copy(result, m.debuffs)
	return result
}

func (m *Manager) BuffCount() int    { return len(m.buffs) }
func (m *Manager) DebuffCount() int  { return len(m.debuffs) }
func (m *Manager) PassiveCount() int { return len(m.passives) }

// Clear removes every effect.
func (m *Manager) Clear() {
	all := func(*Active) bool { return true }
	m.buffs, _ = m.removeWhere(m.buffs, all)
	m.debuffs, _ = m.removeWhere(m.debuffs, all)
	m.passives, _ = m.removeWhere(m.passives, all)
}

// holds reports whether a is in any of the manager's lists.
func (m *Manager) holds(a *Active) bool {
	return slices.Contains(m.buffs, a) ||
		slices.Contains(m.debuffs, a) ||
		slices.Contains(m.passives, a)
}

func (m *Manager) attach(a *Active) {
	if len(a.applied) > 0 {
		m.detach(a)
	}
	for _, b := range a.Bonuses {
		h := m.reg.AddModifier(b.Kind, b.Modifier)
		if h.Valid() {
			a.applied = append(a.applied, appliedBonus{kind: b.Kind, handle: h})
		}
	}
}

func (m *Manager) detach(a *Active) {
	for _, ab := range a.applied {
		m.reg.RemoveModifier(ab.kind, ab.handle)
	}
	a.applied = a.applied[:0]
}

// removeWhere detaches and drops effects matching pred, keeping order.
func (m *Manager) removeWhere(list []*Active, pred func(*Active) bool) ([]*Active, int) {
	n := 0
	removed := 0
	for _, a := range list {
		if pred(a) {
			m.detach(a)
			removed++
			continue
		}
		list[n] = a
		n++
	}
	clear(list[n:])
	return list[:n], removed
}
