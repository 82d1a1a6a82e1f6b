package bus

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Default module addresses.
const (
	AddrEEPROM      = 0x50
	AddrDiagnostics = 0x51
)

// Signal locates a control or status bit in a register of an I2C device,
// typically a CPLD next to the cages.
type Signal struct {
	Bus       string
	Addr      uint16
	Register  byte
	Mask      byte
	ActiveLow bool
}

// Slot describes where a module slot sits on the buses.
type Slot struct {
	Bus         string
	EEPROM      uint16
	Diagnostics uint16
	Presence    *Signal
	Reset       *Signal
	TxDisable   *Signal
}

// Opener opens an I2C bus by name.
type Opener interface {
	Open(name string) (i2c.Bus, error)
}

// Buses opens host I2C buses through periph and keeps them open for reuse by
// every slot on the same bus.
type Buses struct {
	mu    sync.Mutex
	open  map[string]i2c.BusCloser
	ready bool
}

func NewBuses() *Buses {
	return &Buses{open: make(map[string]i2c.BusCloser)}
}

func (b *Buses) Open(name string) (i2c.Bus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.ready {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("%w: periph init: %v", ErrBus, err)
		}
		b.ready = true
	}
	if bus, ok := b.open[name]; ok {
		return bus, nil
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrBus, name, err)
	}
	b.open[name] = bus
	return bus, nil
}

// Close releases every opened bus.
func (b *Buses) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var first error
	for name, bus := range b.open {
		if err := bus.Close(); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", name, err)
		}
		delete(b.open, name)
	}
	return first
}

// I2C is an Access backed by a real two-wire bus.
type I2C struct {
	mu      sync.Mutex
	slot    Slot
	module  i2c.Bus
	signals map[*Signal]i2c.Bus
}

var _ Access = (*I2C)(nil)

// NewI2C resolves the buses of slot. Zero module addresses take the
// SFF defaults.
func NewI2C(o Opener, slot Slot) (*I2C, error) {
	if slot.EEPROM == 0 {
		slot.EEPROM = AddrEEPROM
	}
	if slot.Diagnostics == 0 {
		slot.Diagnostics = AddrDiagnostics
	}
	module, err := o.Open(slot.Bus)
	if err != nil {
		return nil, err
	}
	d := &I2C{slot: slot, module: module, signals: make(map[*Signal]i2c.Bus)}
	for _, s := range []*Signal{slot.Presence, slot.Reset, slot.TxDisable} {
		if s == nil {
			continue
		}
		name := s.Bus
		if name == "" {
			name = slot.Bus
		}
		b, err := o.Open(name)
		if err != nil {
			return nil, err
		}
		d.signals[s] = b
	}
	return d, nil
}

func (d *I2C) addr(dev Device) uint16 {
	if dev == DeviceDiagnostics {
		return d.slot.Diagnostics
	}
	return d.slot.EEPROM
}

func (d *I2C) Read(dev Device, off, n int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf := make([]byte, n)
	dv := &i2c.Dev{Addr: d.addr(dev), Bus: d.module}
	if err := dv.Tx([]byte{byte(off)}, buf); err != nil {
		return nil, fmt.Errorf("%w: read %s@0x%02x+%d: %v", ErrBus, dev, dv.Addr, off, err)
	}
	return buf, nil
}

func (d *I2C) Write(dev Device, off int, b byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dv := &i2c.Dev{Addr: d.addr(dev), Bus: d.module}
	if err := dv.Tx([]byte{byte(off), b}, nil); err != nil {
		return fmt.Errorf("%w: write %s@0x%02x+%d: %v", ErrBus, dev, dv.Addr, off, err)
	}
	return nil
}

// Present reads the presence signal. Without one, a module is present if
// its EEPROM answers.
func (d *I2C) Present() (bool, error) {
	if d.slot.Presence == nil {
		_, err := d.Read(DeviceEEPROM, 0, 1)
		return err == nil, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readSignal(d.slot.Presence)
}

func (d *I2C) SetReset(asserted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeSignal(d.slot.Reset, asserted)
}

func (d *I2C) SetTxDisable(disabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeSignal(d.slot.TxDisable, disabled)
}

func (d *I2C) register(s *Signal) (*i2c.Dev, byte, error) {
	dv := &i2c.Dev{Addr: s.Addr, Bus: d.signals[s]}
	r := make([]byte, 1)
	if err := dv.Tx([]byte{s.Register}, r); err != nil {
		return nil, 0, fmt.Errorf("%w: read register 0x%02x@0x%02x: %v", ErrBus, s.Register, s.Addr, err)
	}
	return dv, r[0], nil
}

func (d *I2C) readSignal(s *Signal) (bool, error) {
	_, v, err := d.register(s)
	if err != nil {
		return false, err
	}
	return (v&s.Mask != 0) != s.ActiveLow, nil
}

// writeSignal updates only the bits of s in its register.
func (d *I2C) writeSignal(s *Signal, on bool) error {
	if s == nil {
		return ErrNoSignal
	}
	dv, v, err := d.register(s)
	if err != nil {
		return err
	}
	if on != s.ActiveLow {
		v |= s.Mask
	} else {
		v &^= s.Mask
	}
	if err := dv.Tx([]byte{s.Register, v}, nil); err != nil {
		return fmt.Errorf("%w: write register 0x%02x@0x%02x: %v", ErrBus, s.Register, s.Addr, err)
	}
	return nil
}
