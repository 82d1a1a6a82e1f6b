package module

import (
	"errors"
	"fmt"
)

// ErrUnrecognizedConnector is returned when a port's configured connector
// type names no known module family.
var ErrUnrecognizedConnector = errors.New("unrecognized connector type")

// Family is the form factor a port accepts. It is fixed by the hardware
// description and decides which page layout is read.
type Family uint8

const (
	FamilyUnknown Family = iota
	FamilySFPPlus
	FamilyQSFPPlus
	FamilyQSFP28
)

var familyNames = map[Family]string{
	FamilyUnknown:  "unknown",
	FamilySFPPlus:  "SFP_PLUS",
	FamilyQSFPPlus: "QSFP_PLUS",
	FamilyQSFP28:   "QSFP28",
}

func (f Family) String() string {
	if s, ok := familyNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Family(%d)", uint8(f))
}

// ParseFamily resolves a configured connector string.
func ParseFamily(s string) (Family, error) {
	for f, name := range familyNames {
		if f != FamilyUnknown && name == s {
			return f, nil
		}
	}
	if s == "" {
		return FamilyUnknown, fmt.Errorf("%w: missing", ErrUnrecognizedConnector)
	}
	return FamilyUnknown, fmt.Errorf("%w: %q", ErrUnrecognizedConnector, s)
}

// QSFP reports whether the family uses the SFF-8636 memory map.
func (f Family) QSFP() bool {
	return f == FamilyQSFPPlus || f == FamilyQSFP28
}

// IdentityOffset is where the identity page starts in the module's memory.
func (f Family) IdentityOffset() int {
	if f.QSFP() {
		return 128
	}
	return 0
}

// Lanes is the number of electrical lanes reported in diagnostics.
func (f Family) Lanes() int {
	if f.QSFP() {
		return 4
	}
	return 1
}
