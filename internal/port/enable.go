package port

import (
	"go.uber.org/zap"

	"github.com/vitaminmoo/pmd/internal/bus"
	"github.com/vitaminmoo/pmd/internal/eeprom"
)

// Enable is the administrative transmit state of a port. A split QSFP port
// is enabled per subport (lane).
type Enable struct {
	Enabled  bool
	Split    bool
	Subports []bool
}

// QSFPMask returns the tx disable byte for the lower page: a set bit
// disables that lane.
func (e Enable) QSFPMask() byte {
	if !e.Split {
		if e.Enabled {
			return 0
		}
		return eeprom.QSFPTxDisableAll
	}
	var mask byte
	for lane := 0; lane < 4; lane++ {
		if lane >= len(e.Subports) || !e.Subports[lane] {
			mask |= 1 << lane
		}
	}
	return mask
}

// SetEnable changes the administrative state and applies it.
func (p *Port) SetEnable(e Enable) {
	p.enable = e
	if p.familyErr == nil {
		p.applyEnable()
	}
}

// applyEnable drives TX_DISABLE on SFP slots. QSFP modules take the lane
// mask over the bus, and only when a classified optical module is seated.
func (p *Port) applyEnable() {
	if !p.family.QSFP() {
		if err := p.acc.SetTxDisable(!p.enable.Enabled); err != nil {
			p.logSignal("tx disable write failed", err)
		}
		return
	}
	if p.state != StateIdentityAcquired || !p.record.Optical {
		return
	}
	mask := p.enable.QSFPMask()
	if err := p.acc.Write(bus.DeviceEEPROM, eeprom.QSFPTxDisable, mask); err != nil {
		p.log.Warn("tx disable write failed", zap.Error(err))
		return
	}
	p.log.Debug("configured lane enable", zap.Uint8("tx_disable", mask))
}
