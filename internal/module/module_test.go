package module

import (
	"errors"
	"math"
	"testing"

	"github.com/vitaminmoo/pmd/internal/eeprom"
	"github.com/vitaminmoo/pmd/internal/module/moduletest"
)

func TestParseFamily(t *testing.T) {
	tests := []struct {
		in      string
		want    Family
		wantErr bool
	}{
		{"SFP_PLUS", FamilySFPPlus, false},
		{"QSFP_PLUS", FamilyQSFPPlus, false},
		{"QSFP28", FamilyQSFP28, false},
		{"", FamilyUnknown, true},
		{"CFP2", FamilyUnknown, true},
		{"unknown", FamilyUnknown, true},
	}
	for _, tt := range tests {
		got, err := ParseFamily(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseFamily(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrUnrecognizedConnector) {
			t.Errorf("ParseFamily(%q) error %v is not ErrUnrecognizedConnector", tt.in, err)
		}
	}
}

func TestFamilyLayout(t *testing.T) {
	if FamilySFPPlus.IdentityOffset() != 0 || FamilyQSFP28.IdentityOffset() != 128 {
		t.Error("identity offsets")
	}
	if FamilySFPPlus.Lanes() != 1 || FamilyQSFPPlus.Lanes() != 4 {
		t.Error("lanes")
	}
}

func TestClassify(t *testing.T) {
	sr := moduletest.SFPSR()
	gbe := func(bit byte) moduletest.Page {
		return sr.With(eeprom.OffCompliance10G, 0).With(eeprom.OffComplianceGbE, bit).Sealed()
	}

	tests := []struct {
		name    string
		family  Family
		page    moduletest.Page
		want    Connector
		optical bool
		speeds  string
		cable   CableTechnology
	}{
		{"sfp sr", FamilySFPPlus, sr, SFPSR, true, "10000", CableNone},
		{"sfp lr", FamilySFPPlus, sr.With(eeprom.OffCompliance10G, eeprom.SFP10GBaseLR), SFPLR, true, "10000", CableNone},
		{"sfp lrm", FamilySFPPlus, sr.With(eeprom.OffCompliance10G, eeprom.SFP10GBaseLRM), SFPLRM, true, "10000", CableNone},
		{"sfp sx", FamilySFPPlus, gbe(eeprom.SFP1000BaseSX), SFPSX, true, "1000", CableNone},
		{"sfp lx", FamilySFPPlus, gbe(eeprom.SFP1000BaseLX), SFPLX, true, "1000", CableNone},
		{"sfp cx", FamilySFPPlus, gbe(eeprom.SFP1000BaseCX), SFPCX, false, "1000", CableNone},
		{"sfp rj45", FamilySFPPlus, gbe(eeprom.SFP1000BaseT), SFPRJ45, false, "1000", CableNone},
		{"1G beats 10G", FamilySFPPlus, sr.With(eeprom.OffComplianceGbE, eeprom.SFP1000BaseSX), SFPSX, true, "1000", CableNone},
		{"sfp er unsupported", FamilySFPPlus, sr.With(eeprom.OffCompliance10G, eeprom.SFP10GBaseER), ConnectorUnknown, false, "0", CableNone},
		{"dac passive", FamilySFPPlus, moduletest.SFPDAC(), SFPDAC, false, "10000", CablePassive},
		{"dac active", FamilySFPPlus, moduletest.SFPDAC().With(eeprom.OffComplianceSFP, eeprom.SFPActiveCable), SFPDAC, false, "10000", CableActive},
		{"dac default passive", FamilySFPPlus, moduletest.SFPDAC().With(eeprom.OffComplianceSFP, 0), SFPDAC, false, "10000", CablePassive},
		{"dac 1G", FamilySFPPlus, moduletest.SFPDAC().With(eeprom.OffBitRate, 0x0d), SFPDAC, false, "1000", CablePassive},
		{"dac beats sr", FamilySFPPlus, moduletest.SFPDAC().With(eeprom.OffCompliance10G, eeprom.SFP10GBaseSR), SFPDAC, false, "10000", CablePassive},
		{"qsfp sr4", FamilyQSFPPlus, moduletest.QSFP40G(eeprom.QSFP40GBaseSR4), QSFPSR4, true, "40000", CableNone},
		{"qsfp lr4", FamilyQSFPPlus, moduletest.QSFP40G(eeprom.QSFP40GBaseLR4), QSFPLR4, true, "40000", CableNone},
		{"qsfp cr4", FamilyQSFPPlus, moduletest.QSFP40G(eeprom.QSFP40GBaseCR4), QSFPCR4, false, "40000", CableNone},
		{"qsfp lr4 beats sr4", FamilyQSFPPlus, moduletest.QSFP40G(eeprom.QSFP40GBaseLR4 | eeprom.QSFP40GBaseSR4), QSFPLR4, true, "40000", CableNone},
		{"qsfp xlppi unsupported", FamilyQSFPPlus, moduletest.QSFP40G(eeprom.QSFP40GActive), ConnectorUnknown, false, "0", CableNone},
		{"qsfp28 in 40G cage", FamilyQSFP28, moduletest.QSFP40G(eeprom.QSFP40GBaseSR4), QSFPSR4, true, "40000", CableNone},
		{"qsfp28 sr4", FamilyQSFP28, moduletest.QSFP28(eeprom.Ext100GSR4), QSFP28SR4, true, "100000", CableNone},
		{"qsfp28 lr4", FamilyQSFP28, moduletest.QSFP28(eeprom.Ext100GLR4), QSFP28LR4, true, "100000", CableNone},
		{"qsfp28 cwdm4", FamilyQSFP28, moduletest.QSFP28(eeprom.Ext100GCWDM4), QSFP28CWDM4, true, "100000", CableNone},
		{"qsfp28 psm4", FamilyQSFP28, moduletest.QSFP28(eeprom.Ext100GPSM4), QSFP28PSM4, true, "100000", CableNone},
		{"qsfp28 cr4", FamilyQSFP28, moduletest.QSFP28(eeprom.Ext100GCR4), QSFP28CR4, false, "100000", CableNone},
		{"qsfp28 clr4", FamilyQSFP28, moduletest.QSFP28(eeprom.Ext100GCLR4), QSFP28CLR4, true, "100000", CableNone},
		{"qsfp28 aoc unsupported", FamilyQSFP28, moduletest.QSFP28(eeprom.Ext100GAOC), ConnectorUnknown, false, "0", CableNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Classify(tt.family, tt.page)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if c.Connector != tt.want {
				t.Errorf("Connector = %v, want %v", c.Connector, tt.want)
			}
			if c.Optical != tt.optical {
				t.Errorf("Optical = %v, want %v", c.Optical, tt.optical)
			}
			if got := c.Speeds.String(); got != tt.speeds {
				t.Errorf("Speeds = %q, want %q", got, tt.speeds)
			}
			if c.Cable != tt.cable {
				t.Errorf("Cable = %v, want %v", c.Cable, tt.cable)
			}
		})
	}
}

func TestClassifyErrors(t *testing.T) {
	if _, err := Classify(FamilyUnknown, moduletest.SFPSR()); !errors.Is(err, ErrUnrecognizedConnector) {
		t.Errorf("Classify(unknown family) error = %v", err)
	}
	if _, err := Classify(FamilySFPPlus, make([]byte, 20)); err == nil {
		t.Error("Classify(short page) succeeded")
	}
}

func TestExtractIdentity(t *testing.T) {
	sfp := ExtractIdentity(FamilySFPPlus, moduletest.SFPSR())
	want := Identity{
		Identifier:     0x03,
		VendorName:     "AVAGO",
		VendorOUI:      "00-17-6a",
		VendorPN:       "AFBR-703SDZ-HP1",
		VendorRevision: "G2.3",
		VendorSN:       "AA0938A0DZ2",
		DateCode:       "090917",
		MediaConnector: "LC",
		Encoding:       "64B/66B",
		BitRate:        10300,
		Wavelength:     850,
		DiagType:       0x68,
	}
	want.Hash = sfp.Hash
	if sfp != want {
		t.Errorf("ExtractIdentity(sfp) = %+v\nwant %+v", sfp, want)
	}

	qsfp := ExtractIdentity(FamilyQSFPPlus, moduletest.QSFP40G(eeprom.QSFP40GBaseSR4))
	if qsfp.VendorRevision != "01" || qsfp.VendorSN != "ATA114110000012" || qsfp.Wavelength != 850 {
		t.Errorf("ExtractIdentity(qsfp) = %+v", qsfp)
	}

	dac := ExtractIdentity(FamilySFPPlus, moduletest.SFPDAC())
	if dac.Wavelength != 0 || dac.VendorName != "Molex Inc." || dac.VendorOUI != "00-09-3a" {
		t.Errorf("ExtractIdentity(dac) = %+v", dac)
	}

	// CR4 cable: bytes 186-187 hold copper attenuation, not a wavelength.
	cr4 := moduletest.QSFP28(eeprom.Ext100GCR4).With(eeprom.OffConnector, eeprom.ConnNoSeparable).
		With(eeprom.OffQSFPWavelength, 0x05, 0x0a).Sealed()
	if got := ExtractIdentity(FamilyQSFP28, cr4); got.Wavelength != 0 || got.MediaConnector != "No separable connector" {
		t.Errorf("ExtractIdentity(cr4) = %+v", got)
	}
}

func TestContentHash(t *testing.T) {
	a := moduletest.SFPSR()
	if ContentHash(a) != ContentHash(a.With(110, 0x55)) {
		t.Error("hash covers the vendor-specific area")
	}
	if ContentHash(a) == ContentHash(moduletest.SFPDAC()) {
		t.Error("different modules hash alike")
	}
	if got := ShortHash(ContentHash(a)); len(got) != 12 {
		t.Errorf("ShortHash() = %q", got)
	}
}

func TestDiagnosticsAvailable(t *testing.T) {
	sr := moduletest.SFPSR()
	full := byte(eeprom.DiagDDMImplemented | eeprom.DiagInternalCal | eeprom.DiagAveragePower)

	tests := []struct {
		name   string
		family Family
		diag   byte
		want   bool
	}{
		{"sfp full", FamilySFPPlus, full, true},
		{"sfp address change", FamilySFPPlus, full | eeprom.DiagAddressChange, false},
		{"sfp external cal", FamilySFPPlus, eeprom.DiagDDMImplemented | eeprom.DiagExternalCal | eeprom.DiagAveragePower, false},
		{"sfp oma", FamilySFPPlus, eeprom.DiagDDMImplemented | eeprom.DiagInternalCal, false},
		{"sfp none", FamilySFPPlus, 0, false},
		{"qsfp average", FamilyQSFPPlus, eeprom.DiagAveragePower, true},
		{"qsfp28 oma", FamilyQSFP28, 0, false},
		{"unknown", FamilyUnknown, full, false},
	}
	for _, tt := range tests {
		if got := DiagnosticsAvailable(tt.family, sr.With(eeprom.OffDiagType, tt.diag)); got != tt.want {
			t.Errorf("%s: DiagnosticsAvailable() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDecodeDOMSFP(t *testing.T) {
	d := DecodeDOM(FamilySFPPlus, moduletest.SFPDiagnostics())

	if !near(d.Temperature.Value, 25.5) || !near(d.Vcc.Value, 3.3072) {
		t.Errorf("temperature=%v vcc=%v", d.Temperature.Value, d.Vcc.Value)
	}
	if len(d.TxBias) != 1 || !near(d.TxBias[0].Value, 2.0) {
		t.Errorf("tx bias = %+v", d.TxBias)
	}
	if !near(d.TxPower[0].Value, 0.5) || !near(d.RxPower[0].Value, 0.01) {
		t.Errorf("tx power=%v rx power=%v", d.TxPower[0].Value, d.RxPower[0].Value)
	}

	rx := d.RxPower[0].Flags
	if !rx.LowAlarm || !rx.LowWarning || rx.HighAlarm || rx.HighWarning {
		t.Errorf("rx power flags = %+v", rx)
	}
	if d.Temperature.Flags.Any() || d.TxPower[0].Flags.Any() {
		t.Error("unexpected flags raised")
	}

	th := d.Temperature.Thresholds
	if th == nil || !near(th.HighAlarm, 75) || !near(th.LowAlarm, -5) || !near(th.HighWarning, 70) || !near(th.LowWarning, 0) {
		t.Errorf("temperature thresholds = %+v", th)
	}
	if th := d.Vcc.Thresholds; !near(th.HighAlarm, 3.6) || !near(th.LowWarning, 3.1) {
		t.Errorf("vcc thresholds = %+v", th)
	}
	if th := d.RxPower[0].Thresholds; !near(th.LowAlarm, 0.005) {
		t.Errorf("rx power thresholds = %+v", th)
	}
}

func TestDecodeDOMSFPFlags(t *testing.T) {
	page := moduletest.SFPDiagnostics().
		With(eeprom.A2AlarmFlags, eeprom.FlagTempHigh|eeprom.FlagBiasLow|eeprom.FlagTxPowerHigh).
		With(eeprom.A2WarningFlags, eeprom.FlagVccLow)
	d := DecodeDOM(FamilySFPPlus, page)

	if !d.Temperature.Flags.HighAlarm || d.Temperature.Flags.LowAlarm {
		t.Errorf("temperature flags = %+v", d.Temperature.Flags)
	}
	if !d.TxBias[0].Flags.LowAlarm || !d.TxPower[0].Flags.HighAlarm {
		t.Errorf("bias=%+v txpower=%+v", d.TxBias[0].Flags, d.TxPower[0].Flags)
	}
	if !d.Vcc.Flags.LowWarning || d.Vcc.Flags.LowAlarm {
		t.Errorf("vcc flags = %+v", d.Vcc.Flags)
	}
}

func TestDecodeDOMQSFP(t *testing.T) {
	d := DecodeDOM(FamilyQSFP28, moduletest.QSFPDiagnostics())

	if !near(d.Temperature.Value, 35) || !near(d.Vcc.Value, 3.3) {
		t.Errorf("temperature=%v vcc=%v", d.Temperature.Value, d.Vcc.Value)
	}
	if !d.Temperature.Flags.HighWarning || d.Temperature.Thresholds != nil {
		t.Errorf("temperature = %+v", d.Temperature)
	}
	if len(d.RxPower) != 4 || len(d.TxBias) != 4 || len(d.TxPower) != 4 {
		t.Fatalf("lanes = %d/%d/%d", len(d.RxPower), len(d.TxBias), len(d.TxPower))
	}
	for lane := 0; lane < 4; lane++ {
		if !near(d.RxPower[lane].Value, 0.5) || !near(d.TxBias[lane].Value, 12) || !near(d.TxPower[lane].Value, 0.4) {
			t.Errorf("lane %d = %v/%v/%v", lane+1, d.RxPower[lane].Value, d.TxBias[lane].Value, d.TxPower[lane].Value)
		}
	}
	if f := d.RxPower[0].Flags; !f.LowAlarm || f.LowWarning {
		t.Errorf("rx1 flags = %+v", f)
	}
	if f := d.RxPower[1].Flags; !f.LowWarning || f.LowAlarm {
		t.Errorf("rx2 flags = %+v", f)
	}
	if d.RxPower[2].Flags.Any() || d.RxPower[3].Flags.Any() {
		t.Error("rx3/rx4 flags raised")
	}
}

func TestDecodeDOMFiller(t *testing.T) {
	d := DecodeDOM(FamilySFPPlus, Filler())
	if !near(d.Temperature.Value, -1+255.0/256) {
		t.Errorf("temperature = %v", d.Temperature.Value)
	}
	if !near(d.Vcc.Value, 6.5535) || !d.Vcc.Flags.HighAlarm {
		t.Errorf("vcc = %+v", d.Vcc)
	}

	short := DecodeDOM(FamilyQSFPPlus, []byte{1, 2, 3})
	if !near(short.TxPower[3].Value, 6.5535) {
		t.Errorf("short page tx4 power = %v", short.TxPower[3].Value)
	}
}

func TestRecordLifecycle(t *testing.T) {
	r := NewRecord("1", FamilySFPPlus)
	if err := r.Parse(moduletest.SFPDAC()); err != nil {
		t.Fatal(err)
	}
	f := r.Fields()
	want := map[string]string{
		"cable_length":         "1",
		"cable_technology":     "passive",
		"connector":            "SFP_DAC",
		"connector_status":     "supported",
		"max_speed":            "10000",
		"supported_speeds":     "10000",
		"vendor_name":          "Molex Inc.",
		"vendor_oui":           "00-09-3a",
		"vendor_part_number":   "747649124",
		"vendor_revision":      "A1",
		"vendor_serial_number": "302330039",
	}
	for k, v := range want {
		if f[k] != v {
			t.Errorf("Fields()[%q] = %q, want %q", k, f[k], v)
		}
	}
	if _, ok := f["temperature"]; ok {
		t.Error("diagnostics published without a DOM read")
	}

	r.SetAbsent()
	if r.Port != "1" || r.Family != FamilySFPPlus {
		t.Errorf("SetAbsent lost configuration: %+v", r)
	}
	if r.Identity != nil || r.Raw != nil || len(r.Fields()) != 2 {
		t.Errorf("SetAbsent kept decoded data: %v", r.Fields())
	}
	if f := r.Fields(); f["connector"] != "absent" || f["connector_status"] != "absent" {
		t.Errorf("absent fields = %v", f)
	}
}

func TestRecordUnsupported(t *testing.T) {
	r := NewRecord("2", FamilySFPPlus)
	page := moduletest.SFPSR().With(eeprom.OffCompliance10G, eeprom.SFP10GBaseER).Sealed()
	if err := r.Parse(page); err != nil {
		t.Fatal(err)
	}
	f := r.Fields()
	if f["connector"] != "unknown" || f["connector_status"] != "unsupported" || f["max_speed"] != "0" || f["supported_speeds"] != "0" {
		t.Errorf("Fields() = %v", f)
	}
	if len(r.Raw) != eeprom.PageSize {
		t.Error("raw page not kept")
	}
}

func TestRecordParseUnknownFamily(t *testing.T) {
	r := NewRecord("3", FamilyUnknown)
	err := r.Parse(moduletest.SFPSR())
	if !errors.Is(err, ErrUnrecognizedConnector) {
		t.Fatalf("Parse() error = %v", err)
	}
	if r.Status != StatusUnknown || r.Connector != ConnectorUnknown || r.Raw == nil {
		t.Errorf("record = %+v", r)
	}
	if f := r.Fields(); f["connector_status"] != "unrecognized" {
		t.Errorf("Fields() = %v", f)
	}
}

func TestRecordDOMFields(t *testing.T) {
	r := NewRecord("49", FamilyQSFPPlus)
	if err := r.Parse(moduletest.QSFP40G(eeprom.QSFP40GBaseSR4)); err != nil {
		t.Fatal(err)
	}
	r.SetDOM(moduletest.QSFPDiagnostics())
	f := r.Fields()

	tests := map[string]string{
		"temperature":              "35.0000",
		"temperature_high_warning": "true",
		"vcc":                      "3.3000",
		"rx1_power":                "0.5000",
		"rx1_power_low_alarm":      "true",
		"rx2_power_low_warning":    "true",
		"tx4_bias":                 "12.0000",
		"tx3_power":                "0.4000",
	}
	for k, v := range tests {
		if f[k] != v {
			t.Errorf("Fields()[%q] = %q, want %q", k, f[k], v)
		}
	}
	if _, ok := f["temperature_high_alarm_threshold"]; ok {
		t.Error("qsfp thresholds published")
	}

	sfp := NewRecord("1", FamilySFPPlus)
	if err := sfp.Parse(moduletest.SFPSR()); err != nil {
		t.Fatal(err)
	}
	sfp.SetDOM(moduletest.SFPDiagnostics())
	sf := sfp.Fields()
	if sf["tx_bias"] != "2.0000" || sf["vcc"] != "3.3072" || sf["rx_power"] != "0.0100" || sf["temperature_high_alarm_threshold"] != "75.0000" {
		t.Errorf("sfp fields = %v", sf)
	}
}

func TestRecordClone(t *testing.T) {
	r := NewRecord("1", FamilySFPPlus)
	if err := r.Parse(moduletest.SFPSR()); err != nil {
		t.Fatal(err)
	}
	r.SetDOM(moduletest.SFPDiagnostics())

	c := r.Clone()
	c.Raw[0] = 0xee
	c.Identity.VendorName = "changed"
	c.DOM.TxBias[0].Value = 99
	c.DOM.Temperature.Thresholds.HighAlarm = 1

	if r.Raw[0] == 0xee || r.Identity.VendorName == "changed" || r.DOM.TxBias[0].Value == 99 || r.DOM.Temperature.Thresholds.HighAlarm == 1 {
		t.Error("Clone shares memory with the original")
	}
}
