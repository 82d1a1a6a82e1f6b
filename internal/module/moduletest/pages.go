// Package moduletest builds identity and diagnostics page images for tests
// and for fixture-backed ports.
package moduletest

import (
	"github.com/vitaminmoo/pmd/internal/eeprom"
)

// Page is a 128-byte page image.
type Page []byte

// With returns a copy of p with b written at off. Checksums are not
// updated; chain Sealed for identity pages.
func (p Page) With(off int, b ...byte) Page {
	c := append(Page(nil), p...)
	copy(c[off:], b)
	return c
}

// Sealed returns a copy of p with both identity checksums recomputed.
func (p Page) Sealed() Page {
	c := append(Page(nil), p...)
	eeprom.Seal(c)
	return c
}

// Corrupt returns a copy of p with a vendor name byte flipped and the
// checksums left stale.
func (p Page) Corrupt() Page {
	c := append(Page(nil), p...)
	c[eeprom.OffVendorName] ^= 0x20
	return c
}

func text(p Page, off, n int, s string) {
	for i := 0; i < n; i++ {
		p[off+i] = ' '
	}
	copy(p[off:off+n], s)
}

type vendor struct {
	name, pn, rev, sn, date string
	oui                     [3]byte
}

func identity(v vendor, revLen int) Page {
	p := make(Page, eeprom.PageSize)
	text(p, eeprom.OffVendorName, eeprom.LenVendorName, v.name)
	copy(p[eeprom.OffVendorOUI:], v.oui[:])
	text(p, eeprom.OffVendorPN, eeprom.LenVendorPN, v.pn)
	text(p, eeprom.OffVendorRev, revLen, v.rev)
	text(p, eeprom.OffVendorSN, eeprom.LenVendorSN, v.sn)
	text(p, eeprom.OffDateCode, eeprom.LenDateCode, v.date)
	return p
}

// SFPSR is an Avago 10GBASE-SR module with internally calibrated,
// average-power diagnostics.
func SFPSR() Page {
	p := identity(vendor{
		name: "AVAGO", pn: "AFBR-703SDZ-HP1", rev: "G2.3", sn: "AA0938A0DZ2", date: "090917",
		oui: [3]byte{0x00, 0x17, 0x6a},
	}, eeprom.LenSFPVendorRev)
	p[eeprom.OffIdentifier] = 0x03
	p[eeprom.OffExtIdentifier] = 0x04
	p[eeprom.OffConnector] = 0x07
	p[eeprom.OffCompliance10G] = eeprom.SFP10GBaseSR
	p[eeprom.OffEncoding] = 0x06
	p[eeprom.OffBitRate] = 0x67
	p[eeprom.OffSFPWavelength] = 0x03
	p[eeprom.OffSFPWavelength+1] = 0x52
	p[eeprom.OffDiagType] = eeprom.DiagDDMImplemented | eeprom.DiagInternalCal | eeprom.DiagAveragePower
	p[eeprom.OffEnhancedOpts] = 0xf0
	p[eeprom.OffSFF8472Rev] = 0x03
	return p.Sealed()
}

// SFPDAC is a 1 m Molex passive direct attach cable.
func SFPDAC() Page {
	p := identity(vendor{
		name: "Molex Inc.", pn: "747649124", rev: "A1", sn: "302330039", date: "120403",
		oui: [3]byte{0x00, 0x09, 0x3a},
	}, eeprom.LenSFPVendorRev)
	p[eeprom.OffIdentifier] = 0x03
	p[eeprom.OffExtIdentifier] = 0x04
	p[eeprom.OffConnector] = eeprom.ConnCopperPigtail
	p[eeprom.OffComplianceSFP] = eeprom.SFPPassiveCable
	p[eeprom.OffBitRate] = 0x67
	p[eeprom.OffLengthCopper] = 1
	return p.Sealed()
}

// QSFP40G is a 40G module of the given byte 131 compliance.
func QSFP40G(compliance byte) Page {
	p := identity(vendor{
		name: "AVAGO", pn: "AFBR-79EEPZ-HP1", rev: "01", sn: "ATA114110000012", date: "111006",
		oui: [3]byte{0x00, 0x17, 0x6a},
	}, eeprom.LenQSFPVendorRev)
	p[eeprom.OffIdentifier] = 0x0d
	p[eeprom.OffConnector] = 0x0c
	p[eeprom.OffCompliance10G] = compliance
	p[eeprom.OffEncoding] = 0x05
	p[eeprom.OffBitRate] = 0x67
	// 850 nm in 0.05 nm units
	p[eeprom.OffQSFPWavelength] = 0x42
	p[eeprom.OffQSFPWavelength+1] = 0x68
	p[eeprom.OffDiagType] = eeprom.DiagAveragePower
	return p.Sealed()
}

// QSFP28 is a 100G module advertising the given extended compliance code.
func QSFP28(ext byte) Page {
	p := identity(vendor{
		name: "FINISAR CORP", pn: "FTLC9551REPM", rev: "A0", sn: "X5AB1234", date: "190214",
		oui: [3]byte{0x00, 0x90, 0x65},
	}, eeprom.LenQSFPVendorRev)
	p[eeprom.OffIdentifier] = 0x11
	p[eeprom.OffConnector] = 0x0c
	p[eeprom.OffCompliance10G] = eeprom.QSFPExtendedSpc
	p[eeprom.OffEncoding] = 0x06
	p[eeprom.OffBitRate] = 0xff
	p[eeprom.OffExtCompliance] = ext
	p[eeprom.OffDiagType] = eeprom.DiagAveragePower
	return p.Sealed()
}

func word(p Page, off int, v uint16) {
	p[off] = byte(v >> 8)
	p[off+1] = byte(v)
}

// SFPDiagnostics is an A2 page reading 25.5 °C, 3.3072 V, 2 mA bias,
// 0.5 mW tx power and 0.01 mW rx power, with the rx power low alarm and
// low warning raised.
func SFPDiagnostics() Page {
	p := make(Page, eeprom.PageSize)
	thresholds := []uint16{
		0x4b00, 0xfb00, 0x4600, 0x0000, // temperature 75, -5, 70, 0
		36000, 30000, 35000, 31000, // vcc
		10000, 0, 9000, 500, // bias
		10000, 1000, 8000, 2000, // tx power
		10000, 50, 8000, 100, // rx power
	}
	for i, v := range thresholds {
		word(p, eeprom.A2Thresholds+2*i, v)
	}
	p[eeprom.A2Temperature] = 0x19
	p[eeprom.A2Temperature+1] = 0x80
	word(p, eeprom.A2Vcc, 0x8130)
	word(p, eeprom.A2TxBias, 0x03e8)
	word(p, eeprom.A2TxPower, 0x1388)
	word(p, eeprom.A2RxPower, 0x0064)
	p[eeprom.A2AlarmFlags+1] = eeprom.FlagRxPowerLow
	p[eeprom.A2WarningFlags+1] = eeprom.FlagRxPowerLow
	return p
}

// QSFPDiagnostics is a lower page reading 35 °C and 3.3 V with 12 mA bias,
// 0.4 mW tx power and 0.5 mW rx power on every lane. The temperature high
// warning, the lane 1 rx power low alarm and the lane 2 rx power low
// warning are raised.
func QSFPDiagnostics() Page {
	p := make(Page, eeprom.PageSize)
	p[eeprom.QSFPTemperature] = 0x23
	word(p, eeprom.QSFPVcc, 33000)
	for lane := 0; lane < 4; lane++ {
		word(p, eeprom.QSFPRxPower+2*lane, 5000)
		word(p, eeprom.QSFPTxBias+2*lane, 6000)
		word(p, eeprom.QSFPTxPower+2*lane, 4000)
	}
	p[eeprom.QSFPTempFlags] = eeprom.QSFPFlagHighWarn
	p[eeprom.QSFPRxPowerFlags] = 0x41
	return p
}
