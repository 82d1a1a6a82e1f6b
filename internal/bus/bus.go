// Package bus provides raw access to the management memory and the control
// signals of a pluggable module slot.
package bus

import (
	"errors"
)

var (
	// ErrBus wraps every transport failure.
	ErrBus = errors.New("bus transfer failed")
	// ErrNoSignal is returned when a control signal is not wired for the slot.
	ErrNoSignal = errors.New("signal not wired")
	// ErrShortRead is returned when fewer bytes than requested came back.
	ErrShortRead = errors.New("short read")
)

// Device selects one of the module's two-wire addresses.
type Device uint8

const (
	// DeviceEEPROM is the identity memory (0x50). On QSFP modules it also
	// holds the diagnostics in its lower page.
	DeviceEEPROM Device = iota
	// DeviceDiagnostics is the SFF-8472 A2 page (0x51).
	DeviceDiagnostics
)

func (d Device) String() string {
	if d == DeviceDiagnostics {
		return "diagnostics"
	}
	return "eeprom"
}

// Access is the capability set the poller needs from a slot.
type Access interface {
	// Present reports whether a module is seated.
	Present() (bool, error)
	// Read returns n bytes of dev starting at off.
	Read(dev Device, off, n int) ([]byte, error)
	// Write stores one byte at off of dev.
	Write(dev Device, off int, b byte) error
	// SetReset drives the module reset line.
	SetReset(asserted bool) error
	// SetTxDisable drives the SFP TX_DISABLE line.
	SetTxDisable(disabled bool) error
}
