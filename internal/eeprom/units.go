package eeprom

import (
	"encoding/binary"
	"math"
)

// Word reads a big-endian u16 at off.
func Word(data []byte, off int) uint16 {
	return binary.BigEndian.Uint16(data[off : off+2])
}

// Temperature converts a two byte reading to degrees Celsius. The MSB is a
// signed integer part and the LSB counts 1/256 °C.
func Temperature(data []byte, off int) float64 {
	return float64(int8(data[off])) + float64(data[off+1])/256
}

// Voltage converts a raw supply reading in 100 µV units to volts.
func Voltage(raw uint16) float64 { return float64(raw) * 0.0001 }

// Bias converts a raw laser bias reading in 2 µA units to milliamps.
func Bias(raw uint16) float64 { return float64(raw) * 0.002 }

// Power converts a raw optical power reading in 0.1 µW units to milliwatts.
func Power(raw uint16) float64 { return float64(raw) * 0.0001 }

// DBm converts milliwatts to dBm. Zero power maps to -40 dBm.
func DBm(mw float64) float64 {
	if mw <= 0 {
		return -40.0
	}
	return 10 * math.Log10(mw)
}
