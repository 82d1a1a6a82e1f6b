package bus

import (
	"fmt"
	"os"
	"sync"
)

const fixtureDeviceSize = 256

// Fixture is an in-memory slot. It stands in for hardware in simulation
// mode and in tests: modules are inserted from EEPROM images and can be
// removed at any time.
type Fixture struct {
	mu       sync.Mutex
	present  bool
	mem      [2][]byte
	failures map[Device]int

	Resets    []bool // every SetReset call, in order
	TxDisable []bool // every SetTxDisable call, in order
	Writes    []FixtureWrite
}

// FixtureWrite records one Write.
type FixtureWrite struct {
	Device Device
	Offset int
	Value  byte
}

var _ Access = (*Fixture)(nil)

func NewFixture() *Fixture {
	return &Fixture{failures: make(map[Device]int)}
}

// Insert seats a module. eeprom fills DeviceEEPROM from offset 0 and diag
// fills DeviceDiagnostics; either may be shorter than 256 bytes.
func (f *Fixture) Insert(eeprom, diag []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.present = true
	f.mem[DeviceEEPROM] = pad(eeprom)
	f.mem[DeviceDiagnostics] = pad(diag)
}

// InsertImage seats a module from an EEPROM dump: the first 256 bytes are
// the EEPROM device and the next 256, when present, the diagnostics device.
// SFP dumps are 512 bytes and QSFP dumps 640; QSFP pages past the first 256
// bytes are ignored.
func (f *Fixture) InsertImage(image []byte) {
	var diag []byte
	if len(image) > fixtureDeviceSize {
		diag = image[fixtureDeviceSize:]
		image = image[:fixtureDeviceSize]
	}
	f.Insert(image, diag)
}

// InsertFile reads an EEPROM dump from disk and inserts it.
func (f *Fixture) InsertFile(path string) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read module image: %w", err)
	}
	f.InsertImage(image)
	return nil
}

// Remove unseats the module.
func (f *Fixture) Remove() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.present = false
	f.mem = [2][]byte{}
}

// FailReads makes the next n reads of dev fail.
func (f *Fixture) FailReads(dev Device, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[dev] = n
}

// Patch overwrites bytes of an inserted module without a bus write.
func (f *Fixture) Patch(dev Device, off int, b ...byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mem[dev] != nil {
		copy(f.mem[dev][off:], b)
	}
}

func pad(b []byte) []byte {
	m := make([]byte, fixtureDeviceSize)
	for i := range m {
		m[i] = 0xff
	}
	copy(m, b)
	return m
}

func (f *Fixture) Present() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.present, nil
}

func (f *Fixture) Read(dev Device, off, n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.present {
		return nil, fmt.Errorf("%w: read %s: no module", ErrBus, dev)
	}
	if f.failures[dev] > 0 {
		f.failures[dev]--
		return nil, fmt.Errorf("%w: read %s: injected failure", ErrBus, dev)
	}
	if off+n > fixtureDeviceSize {
		return nil, fmt.Errorf("%w: read %s+%d: %d bytes past end", ErrShortRead, dev, off, off+n-fixtureDeviceSize)
	}
	return append([]byte(nil), f.mem[dev][off:off+n]...), nil
}

func (f *Fixture) Write(dev Device, off int, b byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.present {
		return fmt.Errorf("%w: write %s: no module", ErrBus, dev)
	}
	f.mem[dev][off] = b
	f.Writes = append(f.Writes, FixtureWrite{Device: dev, Offset: off, Value: b})
	return nil
}

func (f *Fixture) SetReset(asserted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Resets = append(f.Resets, asserted)
	return nil
}

func (f *Fixture) SetTxDisable(disabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TxDisable = append(f.TxDisable, disabled)
	return nil
}
