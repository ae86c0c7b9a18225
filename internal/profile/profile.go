// Package profile holds class base-scalar tables applied to a fresh registry.
package profile

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/udisondev/statengine/internal/effect"
	"github.com/udisondev/statengine/internal/stat"
)

// Profile is a named set of base scalars plus the class passives.
type Profile struct {
	Name     string
	Scalars  map[stat.Kind]float64
	Passives []Passive
}

// Passive is a permanent skill bonus granted by the class.
type Passive struct {
	SkillID int32
	Name    string
	Bonuses []effect.Bonus
}

// GrantPassives registers every class passive on m.
func (p *Profile) GrantPassives(m *effect.Manager) {
	for _, ps := range p.Passives {
		m.AddPassive(&effect.Active{
			SkillID:    ps.SkillID,
			SkillLevel: 1,
			Bonuses:    ps.Bonuses,
		})
	}
}

// Apply sets every scalar of the profile on reg, in kind declaration order.
func (p *Profile) Apply(reg *stat.Registry) {
	for _, k := range stat.Kinds() {
		if v, ok := p.Scalars[k]; ok {
			reg.SetBaseScalar(k, v)
		}
	}
}

// Interlude level-1 values for the two base archetypes.
var profiles = map[string]*Profile{
	"fighter": {
		Name: "fighter",
		Scalars: map[stat.Kind]float64{
			stat.KindMaxHP:    80,
			stat.KindMaxMP:    30,
			stat.KindMaxCP:    32,
			stat.KindPAtk:     4,
			stat.KindMAtk:     6,
			stat.KindPDef:     80,
			stat.KindMDef:     41,
			stat.KindPAtkSpd:  300,
			stat.KindMAtkSpd:  333,
			stat.KindCritRate: 44,
			stat.KindAccuracy: 33,
			stat.KindEvasion:  33,
			stat.KindRunSpeed: 115,
		},
		Passives: []Passive{
			{SkillID: 216, Name: "Polearm Mastery", Bonuses: []effect.Bonus{
				{Kind: stat.KindPAtk, Modifier: stat.NewFlat(stat.LayerBase, stat.ZonePassive, 4.5)},
			}},
			{SkillID: 142, Name: "Armor Mastery", Bonuses: []effect.Bonus{
				{Kind: stat.KindPDef, Modifier: stat.NewFlat(stat.LayerBase, stat.ZonePassive, 5.8)},
			}},
		},
	},
	"mystic": {
		Name: "mystic",
		Scalars: map[stat.Kind]float64{
			stat.KindMaxHP:    101,
			stat.KindMaxMP:    40,
			stat.KindMaxCP:    50,
			stat.KindPAtk:     3,
			stat.KindMAtk:     6,
			stat.KindPDef:     54,
			stat.KindMDef:     41,
			stat.KindPAtkSpd:  300,
			stat.KindMAtkSpd:  333,
			stat.KindCritRate: 44,
			stat.KindAccuracy: 28,
			stat.KindEvasion:  28,
			stat.KindRunSpeed: 120,
		},
		Passives: []Passive{
			{SkillID: 146, Name: "Anti Magic", Bonuses: []effect.Bonus{
				{Kind: stat.KindMDef, Modifier: stat.NewFlat(stat.LayerBase, stat.ZonePassive, 10)},
			}},
			{SkillID: 213, Name: "Boost Mana", Bonuses: []effect.Bonus{
				{Kind: stat.KindMaxMP, Modifier: stat.NewFlat(stat.LayerBonus, stat.ZonePassive, 30)},
			}},
		},
	},
}

// Lookup returns the profile with the given name.
func Lookup(name string) (*Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (known: %v)", name, Names())
	}
	return p, nil
}

// Names returns the known profile names, sorted.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ApplyNamed looks up name, applies its scalars to reg and, when effects
// is not nil, grants its passives.
func ApplyNamed(name string, reg *stat.Registry, effects *effect.Manager) error {
	p, err := Lookup(name)
	if err != nil {
		return err
	}
	p.Apply(reg)
	if effects != nil {
		p.GrantPassives(effects)
	}
	slog.Info("applied stat profile",
		"profile", p.Name,
		"scalars", len(p.Scalars),
		"passives", len(p.Passives))
	return nil
}
