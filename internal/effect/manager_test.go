package effect

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/statengine/internal/stat"
)

func newRegistry(t *testing.T) *stat.Registry {
	t.Helper()
	reg := stat.NewRegistry()
	reg.SetBaseScalar(stat.KindPAtk, 100)
	return reg
}

func might(skillID, level int32, remainingMs int32, pct float64) *Active {
	return &Active{
		SkillID:       skillID,
		SkillLevel:    level,
		AbnormalType:  "MIGHT",
		AbnormalLevel: level,
		RemainingMs:   remainingMs,
		Bonuses: []Bonus{
			{Kind: stat.KindPAtk, Modifier: stat.NewPercent(stat.LayerBase, stat.ZoneBuff, pct)},
		},
	}
}

func TestAddBuff_Stacking(t *testing.T) {
	tests := []struct {
		name      string
		second    *Active
		wantOK    bool
		wantTotal float64
		wantMs    int32
	}{
		{"higher level replaces", might(101, 2, 60000, 0.2), true, 120, 60000},
		{"same level refreshes", might(100, 1, 90000, 0.1), true, 110, 90000},
		{"lower level rejected", might(99, 0, 90000, 0.5), false, 110, 30000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newRegistry(t)
			m := NewManager(reg)

			require.True(t, m.AddBuff(might(100, 1, 30000, 0.1)))
			assert.InDelta(t, 110.0, reg.TotalValue(stat.KindPAtk), 1e-9)

			ok := m.AddBuff(tt.second)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, 1, m.BuffCount())
			assert.InDelta(t, tt.wantTotal, reg.TotalValue(stat.KindPAtk), 1e-9)
			assert.Equal(t, tt.wantMs, m.ActiveBuffs()[0].RemainingMs)
			assert.Equal(t, 1, reg.Get(stat.KindPAtk).ModifierCount())
		})
	}
}

func TestAddBuff_DifferentTypesStack(t *testing.T) {
	reg := newRegistry(t)
	m := NewManager(reg)

	m.AddBuff(might(100, 1, 1000, 0.1))
	m.AddBuff(&Active{
		SkillID:      200,
		AbnormalType: "SHIELD",
		RemainingMs:  1000,
		Bonuses: []Bonus{
			{Kind: stat.KindPAtk, Modifier: stat.NewFlat(stat.LayerBonus, stat.ZoneBuff, 15)},
		},
	})

	assert.Equal(t, 2, m.BuffCount())
	assert.InDelta(t, 110.0, reg.BaseValue(stat.KindPAtk), 1e-9)
	assert.InDelta(t, 15.0, reg.BonusValue(stat.KindPAtk), 1e-9)
}

func TestAddBuff_LimitRemovesOldest(t *testing.T) {
	reg := newRegistry(t)
	m := NewManager(reg)

	for i := range DefaultMaxBuffs {
		m.AddBuff(&Active{
			SkillID:      int32(i + 1),
			AbnormalType: fmt.Sprintf("T%d", i),
			RemainingMs:  60000,
			Bonuses: []Bonus{
				{Kind: stat.KindPAtk, Modifier: stat.NewFlat(stat.LayerBonus, stat.ZoneBuff, 1)},
			},
		})
	}
	require.Equal(t, DefaultMaxBuffs, m.BuffCount())
	assert.InDelta(t, float64(DefaultMaxBuffs), reg.BonusValue(stat.KindPAtk), 1e-9)

	m.AddBuff(&Active{
		SkillID:      999,
		AbnormalType: "NEW",
		RemainingMs:  60000,
		Bonuses: []Bonus{
			{Kind: stat.KindPAtk, Modifier: stat.NewFlat(stat.LayerBonus, stat.ZoneBuff, 5)},
		},
	})

	buffs := m.ActiveBuffs()
	assert.Len(t, buffs, DefaultMaxBuffs)
	assert.Equal(t, int32(2), buffs[0].SkillID, "skill 1 evicted")
	assert.Equal(t, int32(999), buffs[len(buffs)-1].SkillID)
	assert.InDelta(t, float64(DefaultMaxBuffs-1+5), reg.BonusValue(stat.KindPAtk), 1e-9)
}

func TestAddDebuff_Limit(t *testing.T) {
	reg := newRegistry(t)
	m := NewManager(reg)

	for i := range DefaultMaxDebuffs + 2 {
		m.AddDebuff(&Active{
			SkillID:      int32(i + 1),
			AbnormalType: fmt.Sprintf("D%d", i),
			RemainingMs:  1000,
			Bonuses: []Bonus{
				{Kind: stat.KindPAtk, Modifier: stat.NewPercent(stat.LayerBase, stat.ZoneBuff, -0.01)},
			},
		})
	}

	assert.Equal(t, DefaultMaxDebuffs, m.DebuffCount())
	assert.Zero(t, m.BuffCount())
	assert.InDelta(t, 100*(1-0.01*DefaultMaxDebuffs), reg.TotalValue(stat.KindPAtk), 1e-9)
}

func TestAddPassive_ReplacesBySkillID(t *testing.T) {
	reg := newRegistry(t)
	m := NewManager(reg)

	passive := func(v float64) *Active {
		return &Active{
			SkillID: 216,
			Bonuses: []Bonus{
				{Kind: stat.KindPAtk, Modifier: stat.NewFlat(stat.LayerBase, stat.ZonePassive, v)},
			},
		}
	}

	m.AddPassive(passive(5))
	m.AddPassive(passive(8))
	m.AddPassive(nil)

	assert.Equal(t, 1, m.PassiveCount())
	assert.InDelta(t, 108.0, reg.TotalValue(stat.KindPAtk), 1e-9)

	// Passives never expire.
	m.Tick(1 << 30)
	assert.Equal(t, 1, m.PassiveCount())
}

func TestTick_ExpiresAndRestores(t *testing.T) {
	reg := newRegistry(t)
	m := NewManager(reg)

	m.AddBuff(might(100, 1, 1000, 0.1))
	m.AddDebuff(&Active{
		SkillID:      300,
		AbnormalType: "SLOW",
		RemainingMs:  3000,
		Bonuses: []Bonus{
			{Kind: stat.KindRunSpeed, Modifier: stat.NewPercent(stat.LayerBase, stat.ZoneBuff, -0.3)},
		},
	})
	reg.SetBaseScalar(stat.KindRunSpeed, 120)
	assert.InDelta(t, 84.0, reg.TotalValue(stat.KindRunSpeed), 1e-9)

	assert.Zero(t, m.Tick(500))
	assert.Equal(t, 1, m.Tick(500), "might expires at exactly zero")
	assert.InDelta(t, 100.0, reg.TotalValue(stat.KindPAtk), 1e-9)
	assert.Equal(t, 1, m.DebuffCount())

	m.Advance(2 * time.Second)
	assert.Zero(t, m.DebuffCount())
	assert.InDelta(t, 120.0, reg.TotalValue(stat.KindRunSpeed), 1e-9)
}

func TestRemove(t *testing.T) {
	reg := newRegistry(t)
	m := NewManager(reg)

	m.AddBuff(might(100, 1, 60000, 0.1))
	m.AddDebuff(&Active{SkillID: 100, AbnormalType: "POISON", RemainingMs: 60000})
	m.AddPassive(&Active{
		SkillID: 100,
		Bonuses: []Bonus{{Kind: stat.KindPAtk, Modifier: stat.NewFlat(stat.LayerBonus, stat.ZonePassive, 3)}},
	})

	assert.Equal(t, 1, m.RemoveEffect("MIGHT"))
	assert.Zero(t, m.RemoveEffect("MIGHT"))
	assert.InDelta(t, 103.0, reg.TotalValue(stat.KindPAtk), 1e-9)

	assert.Equal(t, 2, m.RemoveBySkillID(100))
	assert.Zero(t, m.DebuffCount())
	assert.Zero(t, m.PassiveCount())
	assert.InDelta(t, 100.0, reg.TotalValue(stat.KindPAtk), 1e-9)
	assert.Zero(t, reg.Get(stat.KindPAtk).ModifierCount())
}

func TestClear(t *testing.T) {
	reg := newRegistry(t)
	m := NewManager(reg)

	m.AddBuff(might(100, 1, 60000, 0.1))
	m.AddPassive(&Active{
		SkillID: 1,
		Bonuses: []Bonus{{Kind: stat.KindPDef, Modifier: stat.NewFlat(stat.LayerBase, stat.ZonePassive, 7)}},
	})
	assert.False(t, m.AddBuff(nil))

	m.Clear()
	assert.Zero(t, m.BuffCount()+m.DebuffCount()+m.PassiveCount())
	assert.InDelta(t, 100.0, reg.TotalValue(stat.KindPAtk), 1e-9)
	assert.Zero(t, reg.TotalValue(stat.KindPDef))
}

func TestBonusWithNilModifierIsSkipped(t *testing.T) {
	reg := newRegistry(t)
	m := NewManager(reg)

	m.AddBuff(&Active{
		SkillID:     1,
		RemainingMs: 1000,
		Bonuses:     []Bonus{{Kind: stat.KindPAtk}},
	})
	assert.Equal(t, 1, m.BuffCount())
	assert.Zero(t, reg.Get(stat.KindPAtk).ModifierCount())

	assert.Equal(t, 1, m.Tick(1000))
}

func TestReAddSameEffect_NoOrphanedModifiers(t *testing.T) {
	reg := stat.NewRegistry()
	reg.SetBaseScalar(stat.KindPAtk, 10)
	m := NewManager(reg)

	a := &Active{
		SkillID:     1,
		RemainingMs: 5000,
		Bonuses: []Bonus{
			{Kind: stat.KindPAtk, Modifier: stat.NewFlat(stat.LayerBase, stat.ZoneBuff, 10)},
		},
	}

	require.True(t, m.AddBuff(a))
	m.Tick(1000)
	assert.True(t, m.AddBuff(a), "held effect is accepted as is")
	assert.False(t, m.AddDebuff(a), "held effect cannot join another list")
	m.AddPassive(a)

	assert.Equal(t, 1, m.BuffCount())
	assert.Zero(t, m.DebuffCount())
	assert.Zero(t, m.PassiveCount())
	assert.Equal(t, int32(4000), a.RemainingMs)
	assert.Equal(t, 1, reg.Get(stat.KindPAtk).ModifierCount())
	assert.InDelta(t, 20.0, reg.TotalValue(stat.KindPAtk), 1e-9)

	m.Clear()
	assert.Zero(t, reg.Get(stat.KindPAtk).ModifierCount())
	assert.InDelta(t, 10.0, reg.TotalValue(stat.KindPAtk), 1e-9)
}

func TestReAddAfterRemoval_AppliesAgain(t *testing.T) {
	reg := stat.NewRegistry()
	m := NewManager(reg)

	a := &Active{
		SkillID: 7,
		Bonuses: []Bonus{
			{Kind: stat.KindMDef, Modifier: stat.NewFlat(stat.LayerBase, stat.ZonePassive, 3)},
		},
	}
	m.AddPassive(a)
	m.AddPassive(a)
	assert.Equal(t, 1, reg.Get(stat.KindMDef).ModifierCount())

	assert.Equal(t, 1, m.RemoveBySkillID(7))
	m.AddPassive(a)
	assert.Equal(t, 1, reg.Get(stat.KindMDef).ModifierCount())
	assert.InDelta(t, 3.0, reg.TotalValue(stat.KindMDef), 1e-9)

	m.Clear()
	assert.Zero(t, reg.TotalValue(stat.KindMDef))
}
