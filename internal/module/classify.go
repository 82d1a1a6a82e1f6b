package module

import (
	"fmt"

	"github.com/vitaminmoo/pmd/internal/eeprom"
)

// Classification is the outcome of matching an identity page's compliance
// codes against the known variants of its family.
type Classification struct {
	Connector   Connector
	Optical     bool
	Speeds      Speeds
	Cable       CableTechnology
	CableLength int // metres, direct attach cables only
}

// Known reports whether the page matched a variant.
func (c Classification) Known() bool {
	return c.Connector != ConnectorUnknown && c.Connector != ConnectorAbsent
}

type rule struct {
	connector Connector
	off       int
	mask      byte
	speed     int
	optical   bool
}

func (r rule) match(id []byte) bool { return id[r.off]&r.mask != 0 }

func (r rule) classification() Classification {
	return Classification{Connector: r.connector, Optical: r.optical, Speeds: Speeds{r.speed}}
}

// First match wins; the order is the priority.
var sfpRules = []rule{
	{SFPSX, eeprom.OffComplianceGbE, eeprom.SFP1000BaseSX, 1000, true},
	{SFPLX, eeprom.OffComplianceGbE, eeprom.SFP1000BaseLX, 1000, true},
	{SFPCX, eeprom.OffComplianceGbE, eeprom.SFP1000BaseCX, 1000, false},
	{SFPRJ45, eeprom.OffComplianceGbE, eeprom.SFP1000BaseT, 1000, false},
	{SFPSR, eeprom.OffCompliance10G, eeprom.SFP10GBaseSR, 10000, true},
	{SFPLR, eeprom.OffCompliance10G, eeprom.SFP10GBaseLR, 10000, true},
	{SFPLRM, eeprom.OffCompliance10G, eeprom.SFP10GBaseLRM, 10000, true},
}

var qsfpRules = []rule{
	{QSFPLR4, eeprom.OffCompliance10G, eeprom.QSFP40GBaseLR4, 40000, true},
	{QSFPSR4, eeprom.OffCompliance10G, eeprom.QSFP40GBaseSR4, 40000, true},
	{QSFPCR4, eeprom.OffCompliance10G, eeprom.QSFP40GBaseCR4, 40000, false},
}

var qsfp28Extended = map[byte]rule{
	eeprom.Ext100GSR4:   {connector: QSFP28SR4, speed: 100000, optical: true},
	eeprom.Ext100GLR4:   {connector: QSFP28LR4, speed: 100000, optical: true},
	eeprom.Ext100GCWDM4: {connector: QSFP28CWDM4, speed: 100000, optical: true},
	eeprom.Ext100GPSM4:  {connector: QSFP28PSM4, speed: 100000, optical: true},
	eeprom.Ext100GCR4:   {connector: QSFP28CR4, speed: 100000, optical: false},
	eeprom.Ext100GCLR4:  {connector: QSFP28CLR4, speed: 100000, optical: true},
}

// Classify matches the identity page of a module of family f. A page that
// matches nothing yields ConnectorUnknown without an error; only an unknown
// family is an error.
func Classify(f Family, id []byte) (Classification, error) {
	if len(id) <= eeprom.OffCCExt {
		return Classification{}, fmt.Errorf("identity page too short: %d bytes", len(id))
	}
	switch f {
	case FamilySFPPlus:
		return classifySFP(id), nil
	case FamilyQSFPPlus:
		return firstMatch(qsfpRules, id), nil
	case FamilyQSFP28:
		if id[eeprom.OffCompliance10G]&eeprom.QSFPExtendedSpc == 0 {
			return firstMatch(qsfpRules, id), nil
		}
		if r, ok := qsfp28Extended[id[eeprom.OffExtCompliance]]; ok {
			return r.classification(), nil
		}
		return Classification{}, nil
	default:
		return Classification{}, fmt.Errorf("%w: %s", ErrUnrecognizedConnector, f)
	}
}

func classifySFP(id []byte) Classification {
	if id[eeprom.OffConnector] == eeprom.ConnCopperPigtail {
		c := Classification{
			Connector:   SFPDAC,
			Cable:       CablePassive,
			CableLength: int(id[eeprom.OffLengthCopper]),
		}
		switch {
		case id[eeprom.OffComplianceSFP]&eeprom.SFPActiveCable != 0:
			c.Cable = CableActive
		case id[eeprom.OffComplianceSFP]&eeprom.SFPPassiveCable != 0:
			c.Cable = CablePassive
		}
		if id[eeprom.OffBitRate] >= eeprom.BitRate10G {
			c.Speeds = Speeds{10000}
		} else {
			c.Speeds = Speeds{1000}
		}
		return c
	}
	return firstMatch(sfpRules, id)
}

func firstMatch(rules []rule, id []byte) Classification {
	for _, r := range rules {
		if r.match(id) {
			return r.classification()
		}
	}
	return Classification{}
}
