// Package port runs module acquisition for each configured slot: presence,
// identity, classification and diagnostics, with bounded retries and
// per-port state kept between polls.
package port

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vitaminmoo/pmd/internal/bus"
	"github.com/vitaminmoo/pmd/internal/eeprom"
	"github.com/vitaminmoo/pmd/internal/module"
)

// State is where a port is in module acquisition.
type State uint8

const (
	// StateAbsent: no module seated.
	StateAbsent State = iota
	// StateIdentityPending: a module is seated but its identity has not been
	// read and classified yet, or the last attempt failed.
	StateIdentityPending
	// StateIdentityAcquired: the identity is classified.
	StateIdentityAcquired
)

func (s State) String() string {
	switch s {
	case StateIdentityPending:
		return "pending"
	case StateIdentityAcquired:
		return "acquired"
	default:
		return "absent"
	}
}

const (
	resetHold   = time.Millisecond
	resetSettle = 10 * time.Millisecond
)

// Options tune a Port. Zero values take defaults.
type Options struct {
	// Retries is the number of extra attempts after a failed page read.
	Retries int
	// Enable is the initial administrative state; nil enables the port.
	Enable *Enable
	Log    *zap.Logger
	// Sleep waits out reset timing.
	Sleep func(time.Duration)
}

// Port is one module slot.
type Port struct {
	name      string
	family    module.Family
	familyErr error
	acc       bus.Access
	log       *zap.Logger
	retries   int
	sleep     func(time.Duration)
	enable    Enable

	record       module.Record
	state        State
	evaluated    bool
	domRequested bool
}

// New creates the port and brings the slot out of reset. An unrecognized
// connector leaves the port permanently unknown.
func New(name, connector string, acc bus.Access, opts Options) *Port {
	p := &Port{
		name:    name,
		acc:     acc,
		log:     opts.Log,
		retries: opts.Retries,
		sleep:   opts.Sleep,
		enable:  Enable{Enabled: true},
	}
	if opts.Enable != nil {
		p.enable = *opts.Enable
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	p.log = p.log.With(zap.String("port", name))
	if p.sleep == nil {
		p.sleep = time.Sleep
	}
	if p.retries < 0 {
		p.retries = 0
	}

	p.family, p.familyErr = module.ParseFamily(connector)
	p.record = module.NewRecord(name, p.family)
	if p.familyErr != nil {
		p.log.Error("port is not pluggable", zap.Error(p.familyErr))
		p.record.SetUnknown()
		return p
	}

	if p.family.QSFP() {
		p.releaseReset()
	}
	p.applyEnable()
	return p
}

func (p *Port) Name() string          { return p.name }
func (p *Port) Family() module.Family { return p.family }
func (p *Port) State() State          { return p.state }

// RetryPending reports whether the identity must be read again next poll.
func (p *Port) RetryPending() bool { return p.state == StateIdentityPending }

// DOMRequested reports whether a diagnostics read is outstanding.
func (p *Port) DOMRequested() bool { return p.domRequested }

// Record returns a copy of the port's module record.
func (p *Port) Record() module.Record { return p.record.Clone() }

// Poll runs one acquisition step.
func (p *Port) Poll() {
	if p.familyErr != nil {
		return
	}

	present, err := p.acc.Present()
	if err != nil {
		p.log.Warn("presence read failed", zap.Error(err))
		return
	}

	if !present {
		if p.state != StateAbsent || !p.evaluated {
			p.log.Debug("module is not present")
			p.record.SetAbsent()
		}
		p.state = StateAbsent
		p.domRequested = false
		p.evaluated = true
		return
	}
	p.evaluated = true

	if p.state != StateIdentityAcquired {
		p.acquireIdentity()
	}
	if p.domRequested {
		p.acquireDiagnostics()
	}
}

func (p *Port) acquireIdentity() {
	p.log.Debug("module is present, reading identity")

	page, err := p.readIdentity()
	if err != nil {
		result := resultFailed
		if errors.Is(err, eeprom.ErrChecksum) {
			result = resultChecksum
		}
		identityReads.WithLabelValues(p.name, result).Inc()
		p.log.Warn("module identity read failed", zap.Error(err))
		p.state = StateIdentityPending
		p.domRequested = false
		p.record.SetUnknown()
		return
	}

	if err := p.record.Parse(page); err != nil {
		identityReads.WithLabelValues(p.name, resultUnparsed).Inc()
		p.log.Warn("module identity parse failed", zap.Error(err))
		p.state = StateIdentityPending
		p.domRequested = false
		return
	}
	identityReads.WithLabelValues(p.name, resultOK).Inc()

	p.state = StateIdentityAcquired
	if p.record.Status == module.StatusSupported {
		p.log.Debug("module classified",
			zap.Stringer("connector", p.record.Connector),
			zap.String("vendor", p.record.Identity.VendorName),
			zap.String("part_number", p.record.Identity.VendorPN))
	} else {
		p.log.Info("module type not supported",
			zap.String("vendor", p.record.Identity.VendorName),
			zap.String("part_number", p.record.Identity.VendorPN))
	}

	p.domRequested = module.DiagnosticsAvailable(p.family, page)
	if p.domRequested {
		p.log.Debug("identity indicates diagnostics are present")
	}
	if p.family.QSFP() {
		p.applyEnable()
	}
}

// readIdentity reads and validates the identity page. Each failed attempt
// is followed by a reset pulse before the next one.
func (p *Port) readIdentity() ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			readRetries.WithLabelValues(p.name).Inc()
			p.log.Debug("identity read failed, resetting and retrying", zap.Int("attempt", attempt), zap.Error(lastErr))
			p.pulseReset()
		}
		page, err := p.acc.Read(bus.DeviceEEPROM, p.family.IdentityOffset(), eeprom.PageSize)
		if err == nil {
			err = eeprom.Verify(page).Err()
		}
		if err == nil {
			return page, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// acquireDiagnostics reads the diagnostics page. After the last failed
// attempt it decodes an all-ones page so no stale values survive.
func (p *Port) acquireDiagnostics() {
	dev := bus.DeviceDiagnostics
	if p.family.QSFP() {
		dev = bus.DeviceEEPROM
	}

	var page []byte
	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			readRetries.WithLabelValues(p.name).Inc()
			p.log.Debug("diagnostics read failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		}
		page, err = p.acc.Read(dev, 0, eeprom.PageSize)
		if err == nil {
			break
		}
	}
	if err != nil {
		diagnosticsReads.WithLabelValues(p.name, resultFailed).Inc()
		p.log.Warn("module diagnostics read failed", zap.Error(err))
		page = module.Filler()
	} else {
		diagnosticsReads.WithLabelValues(p.name, resultOK).Inc()
	}

	p.record.SetDOM(page)
	p.domRequested = false
}

// pulseReset asserts reset, holds it, releases it and lets the module
// settle. Only QSFP slots have a reset line.
func (p *Port) pulseReset() {
	if !p.family.QSFP() {
		return
	}
	resets.WithLabelValues(p.name).Inc()
	if err := p.acc.SetReset(true); err != nil {
		p.logSignal("reset assert failed", err)
	}
	p.sleep(resetHold)
	p.releaseReset()
}

func (p *Port) releaseReset() {
	if err := p.acc.SetReset(false); err != nil {
		p.logSignal("reset release failed", err)
	}
	p.sleep(resetSettle)
}

func (p *Port) logSignal(msg string, err error) {
	if errors.Is(err, bus.ErrNoSignal) {
		p.log.Debug(msg, zap.Error(err))
		return
	}
	p.log.Warn(msg, zap.Error(err))
}
