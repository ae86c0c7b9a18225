package stat

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind  = errors.New("unknown stat kind")
	ErrUnknownLayer = errors.New("unknown stat layer")
	ErrUnknownZone  = errors.New("unknown modifier zone")
)

// Kind identifies a stat. The set is closed; external data is decoded
// through ParseKind or UnmarshalText, which reject unknown names.
type Kind uint8

const (
	KindMaxHP    Kind = iota // Maximum hit points
	KindMaxMP                // Maximum mana points
	KindMaxCP                // Maximum combat points
	KindPAtk                 // Physical attack
	KindMAtk                 // Magic attack
	KindPDef                 // Physical defense
	KindMDef                 // Magic defense
	KindPAtkSpd              // Physical attack speed
	KindMAtkSpd              // Casting speed
	KindCritRate             // Critical rate (promille)
	KindAccuracy             // Accuracy
	KindEvasion              // Evasion
	KindRunSpeed             // Run speed

	kindCount // not a kind; table dimension only
)

var kindNames = [kindCount]string{
	KindMaxHP:    "maxHP",
	KindMaxMP:    "maxMP",
	KindMaxCP:    "maxCP",
	KindPAtk:     "pAtk",
	KindMAtk:     "mAtk",
	KindPDef:     "pDef",
	KindMDef:     "mDef",
	KindPAtkSpd:  "pAtkSpd",
	KindMAtkSpd:  "mAtkSpd",
	KindCritRate: "critRate",
	KindAccuracy: "accuracy",
	KindEvasion:  "evasion",
	KindRunSpeed: "runSpeed",
}

// Kinds returns every stat kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := range kindCount {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k < kindCount }

// String returns the schema name of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// ParseKind resolves a schema name (case-insensitive) to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
