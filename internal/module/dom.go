package module

import (
	"bytes"

	"github.com/vitaminmoo/pmd/internal/eeprom"
)

// Flags are the latched alarm and warning bits of one monitored value.
type Flags struct {
	HighAlarm   bool
	LowAlarm    bool
	HighWarning bool
	LowWarning  bool
}

// Any reports whether any flag is raised.
func (f Flags) Any() bool {
	return f.HighAlarm || f.LowAlarm || f.HighWarning || f.LowWarning
}

// Thresholds are the vendor limits for one monitored value, in the same unit
// as the value.
type Thresholds struct {
	HighAlarm   float64
	LowAlarm    float64
	HighWarning float64
	LowWarning  float64
}

// Metric is a decoded monitored value. Thresholds is nil when the module
// family does not report them.
type Metric struct {
	Value      float64
	Flags      Flags
	Thresholds *Thresholds
}

// DOM is the decoded diagnostics page. Lane slices have one entry for SFP+
// modules and four for QSFP modules.
type DOM struct {
	Temperature Metric   // °C
	Vcc         Metric   // V
	TxBias      []Metric // mA
	RxPower     []Metric // mW
	TxPower     []Metric // mW
}

// Filler returns the page decoded when the diagnostics page cannot be read.
func Filler() []byte {
	return bytes.Repeat([]byte{0xff}, eeprom.PageSize)
}

// DecodeDOM decodes a diagnostics page of a module of family f.
func DecodeDOM(f Family, page []byte) DOM {
	if len(page) < eeprom.PageSize {
		p := Filler()
		copy(p, page)
		page = p
	}
	if f.QSFP() {
		return decodeQSFP(page)
	}
	return decodeSFP(page)
}

type scale func(data []byte, off int) float64

var (
	scaleTemp  scale = eeprom.Temperature
	scaleVcc   scale = func(d []byte, off int) float64 { return eeprom.Voltage(eeprom.Word(d, off)) }
	scaleBias  scale = func(d []byte, off int) float64 { return eeprom.Bias(eeprom.Word(d, off)) }
	scalePower scale = func(d []byte, off int) float64 { return eeprom.Power(eeprom.Word(d, off)) }
)

// sfpMetric decodes one A2 value. thr is the start of its 8-byte threshold
// block; flagByte and hi/lo locate its bits in the alarm and warning bytes.
func sfpMetric(a2 []byte, s scale, value, thr, flagByte int, hi, lo byte) Metric {
	alarm := a2[eeprom.A2AlarmFlags+flagByte]
	warn := a2[eeprom.A2WarningFlags+flagByte]
	return Metric{
		Value: s(a2, value),
		Flags: Flags{
			HighAlarm:   alarm&hi != 0,
			LowAlarm:    alarm&lo != 0,
			HighWarning: warn&hi != 0,
			LowWarning:  warn&lo != 0,
		},
		Thresholds: &Thresholds{
			HighAlarm:   s(a2, thr),
			LowAlarm:    s(a2, thr+2),
			HighWarning: s(a2, thr+4),
			LowWarning:  s(a2, thr+6),
		},
	}
}

func decodeSFP(a2 []byte) DOM {
	return DOM{
		Temperature: sfpMetric(a2, scaleTemp, eeprom.A2Temperature, 0, 0, eeprom.FlagTempHigh, eeprom.FlagTempLow),
		Vcc:         sfpMetric(a2, scaleVcc, eeprom.A2Vcc, 8, 0, eeprom.FlagVccHigh, eeprom.FlagVccLow),
		TxBias:      []Metric{sfpMetric(a2, scaleBias, eeprom.A2TxBias, 16, 0, eeprom.FlagBiasHigh, eeprom.FlagBiasLow)},
		TxPower:     []Metric{sfpMetric(a2, scalePower, eeprom.A2TxPower, 24, 0, eeprom.FlagTxPowerHigh, eeprom.FlagTxPowerLow)},
		RxPower:     []Metric{sfpMetric(a2, scalePower, eeprom.A2RxPower, 32, 1, eeprom.FlagRxPowerHigh, eeprom.FlagRxPowerLow)},
	}
}

// monitorFlags decodes the upper nibble layout used by the QSFP temperature
// and Vcc flag bytes.
func monitorFlags(b byte) Flags {
	return Flags{
		HighAlarm:   b&eeprom.QSFPFlagHighAlarm != 0,
		LowAlarm:    b&eeprom.QSFPFlagLowAlarm != 0,
		HighWarning: b&eeprom.QSFPFlagHighWarn != 0,
		LowWarning:  b&eeprom.QSFPFlagLowWarn != 0,
	}
}

// laneFlags extracts the flags of lane (0-3) from a pair of lane flag bytes.
// Even lanes sit in the upper nibble.
func laneFlags(page []byte, off, lane int) Flags {
	b := page[off+lane/2]
	if lane%2 == 0 {
		b >>= 4
	}
	return Flags{
		HighAlarm:   b&0x08 != 0,
		LowAlarm:    b&0x04 != 0,
		HighWarning: b&0x02 != 0,
		LowWarning:  b&0x01 != 0,
	}
}

func qsfpLanes(page []byte, s scale, values, flags int) []Metric {
	m := make([]Metric, 4)
	for lane := range m {
		m[lane] = Metric{
			Value: s(page, values+2*lane),
			Flags: laneFlags(page, flags, lane),
		}
	}
	return m
}

func decodeQSFP(page []byte) DOM {
	return DOM{
		Temperature: Metric{Value: scaleTemp(page, eeprom.QSFPTemperature), Flags: monitorFlags(page[eeprom.QSFPTempFlags])},
		Vcc:         Metric{Value: scaleVcc(page, eeprom.QSFPVcc), Flags: monitorFlags(page[eeprom.QSFPVccFlags])},
		RxPower:     qsfpLanes(page, scalePower, eeprom.QSFPRxPower, eeprom.QSFPRxPowerFlags),
		TxBias:      qsfpLanes(page, scaleBias, eeprom.QSFPTxBias, eeprom.QSFPTxBiasFlags),
		TxPower:     qsfpLanes(page, scalePower, eeprom.QSFPTxPower, eeprom.QSFPTxPowerFlags),
	}
}
