package stat

import (
	"fmt"
	"strings"
)

// Layer is an independently summed value track of a stat.
// TotalValue is the sum of every layer.
type Layer uint8

const (
	LayerBase  Layer = iota // plain contribution track, seeded by the base scalar
	LayerBonus              // highlighted contribution track, seeded by zero

	layerCount
)

// Zone is a multiplier category. Declaration order is application order:
// moving a constant changes every computed value.
type Zone uint8

const (
	ZoneEquipment Zone = iota // worn items
	ZonePassive               // passive skills
	ZoneBuff                  // temporary effects

	zoneCount
)

var (
	layerNames = [layerCount]string{LayerBase: "base", LayerBonus: "bonus"}
	zoneNames  = [zoneCount]string{ZoneEquipment: "equipment", ZonePassive: "passive", ZoneBuff: "buff"}
)

// Layers returns every layer in declaration order.
func Layers() []Layer {
	return []Layer{LayerBase, LayerBonus}
}

// Zones returns every zone in application order.
func Zones() []Zone {
	return []Zone{ZoneEquipment, ZonePassive, ZoneBuff}
}

// Valid reports whether l is a declared layer.
func (l Layer) Valid() bool { return l < layerCount }

// Valid reports whether z is a declared zone.
func (z Zone) Valid() bool { return z < zoneCount }

func (l Layer) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Layer(%d)", uint8(l))
	}
	return layerNames[l]
}

func (z Zone) String() string {
	if !z.Valid() {
		return fmt.Sprintf("Zone(%d)", uint8(z))
	}
	return zoneNames[z]
}

// ParseLayer resolves a layer name (case-insensitive).
func ParseLayer(name string) (Layer, error) {
	for l, n := range layerNames {
		if strings.EqualFold(n, name) {
			return Layer(l), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, name)
}

// ParseZone resolves a zone name (case-insensitive).
func ParseZone(name string) (Zone, error) {
	for z, n := range zoneNames {
		if strings.EqualFold(n, name) {
			return Zone(z), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownZone, name)
}

// MarshalText encodes the layer by its schema name.
func (l Layer) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLayer, uint8(l))
	}
	return []byte(layerNames[l]), nil
}

// UnmarshalText decodes a layer name, rejecting unknown names with
// ErrUnknownLayer.
func (l *Layer) UnmarshalText(text []byte) error {
	parsed, err := ParseLayer(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalText encodes the zone by its schema name.
func (z Zone) MarshalText() ([]byte, error) {
	if !z.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownZone, uint8(z))
	}
	return []byte(zoneNames[z]), nil
}

// UnmarshalText decodes a zone name, rejecting unknown names with
// ErrUnknownZone.
func (z *Zone) UnmarshalText(text []byte) error {
	parsed, err := ParseZone(string(text))
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}
