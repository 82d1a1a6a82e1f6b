package render

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vitaminmoo/pmd/internal/eeprom"
	"github.com/vitaminmoo/pmd/internal/module"
	"github.com/vitaminmoo/pmd/internal/module/moduletest"
	"github.com/vitaminmoo/pmd/internal/port"
)

func sfpImage(id, diag moduletest.Page) []byte {
	image := make([]byte, 512)
	copy(image, id)
	copy(image[256:], diag)
	return image
}

func TestSplit(t *testing.T) {
	sfp := sfpImage(moduletest.SFPSR(), moduletest.SFPDiagnostics())
	id, diag, err := Split(module.FamilySFPPlus, sfp)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(id, moduletest.SFPSR()) || !bytes.Equal(diag, moduletest.SFPDiagnostics()) {
		t.Error("SFP pages split at the wrong offsets")
	}

	_, diag, err = Split(module.FamilySFPPlus, moduletest.SFPSR())
	if err != nil || diag != nil {
		t.Errorf("identity-only SFP dump: diag=%v err=%v", diag, err)
	}

	qsfp := append(append([]byte(nil), moduletest.QSFPDiagnostics()...), moduletest.QSFP28(eeprom.Ext100GSR4)...)
	id, diag, err = Split(module.FamilyQSFP28, qsfp)
	if err != nil {
		t.Fatal(err)
	}
	if id[eeprom.OffIdentifier] != 0x11 || !bytes.Equal(diag, moduletest.QSFPDiagnostics()) {
		t.Error("QSFP pages split at the wrong offsets")
	}

	if _, _, err := Split(module.FamilyQSFPPlus, make([]byte, 200)); !errors.Is(err, ErrShortImage) {
		t.Errorf("short QSFP dump: err = %v", err)
	}
	if _, _, err := Split(module.FamilyUnknown, sfp); !errors.Is(err, module.ErrUnrecognizedConnector) {
		t.Errorf("unknown family: err = %v", err)
	}
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := Decode(&buf, module.FamilySFPPlus, sfpImage(moduletest.SFPSR(), moduletest.SFPDiagnostics())); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"SFP/SFP+", "LC", "64B/66B", "10G Base-SR",
		"AVAGO", "00-17-6a", "AFBR-703SDZ-HP1", "AA0938A0DZ2", "2009-09-17",
		"850 nm", "VALID", "SFP_SR", "supported",
		"25.50 C", "3.3072 V", "2.000 mA", "-20.00 dBm", "low alarm",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("decode output missing %q", want)
		}
	}
	if strings.Contains(out, "INVALID") {
		t.Error("valid page reported an invalid checksum")
	}
}

func TestDecodeCorrupt(t *testing.T) {
	var buf bytes.Buffer
	if err := Decode(&buf, module.FamilySFPPlus, moduletest.SFPSR().Corrupt()); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "INVALID - calculated") {
		t.Errorf("corrupt page not flagged:\n%s", out)
	}
}

func TestComplianceCodes(t *testing.T) {
	tests := []struct {
		name string
		f    module.Family
		id   []byte
		want []string
	}{
		{"SFP SR", module.FamilySFPPlus, moduletest.SFPSR(), []string{"10G Base-SR"}},
		{"SFP DAC", module.FamilySFPPlus, moduletest.SFPDAC(), []string{"Passive Cable"}},
		{"QSFP SR4", module.FamilyQSFPPlus, moduletest.QSFP40G(eeprom.QSFP40GBaseSR4), []string{"40GBASE-SR4"}},
		{"QSFP28 CWDM4", module.FamilyQSFP28, moduletest.QSFP28(eeprom.Ext100GCWDM4), []string{"Extended Specification", "100G CWDM4"}},
		{"QSFP28 unknown", module.FamilyQSFP28, moduletest.QSFP28(0x42), []string{"Extended Specification", "extended code 0x42"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComplianceCodes(tt.f, tt.id); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComplianceCodes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTable(t *testing.T) {
	r := module.NewRecord("7", module.FamilySFPPlus)
	if err := r.Parse(moduletest.SFPDAC()); err != nil {
		t.Fatal(err)
	}
	absent := module.NewRecord("8", module.FamilySFPPlus)
	absent.SetAbsent()

	out := Table([]port.Snapshot{
		{Record: r, State: port.StateIdentityAcquired},
		{Record: absent},
	})
	for _, want := range []string{"PORT", "SFP_DAC", "Molex Inc.", "302330039", "acquired", "absent"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestFields(t *testing.T) {
	r := module.NewRecord("7", module.FamilySFPPlus)
	if err := r.Parse(moduletest.SFPSR()); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Fields(&buf, port.Snapshot{Record: r}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "vendor_serial_number:") || !strings.Contains(out, "AA0938A0DZ2") {
		t.Errorf("fields output:\n%s", out)
	}
	if strings.Index(out, "connector:") > strings.Index(out, "vendor_name:") {
		t.Error("fields not sorted")
	}

	buf.Reset()
	Raw(&buf, port.Snapshot{Record: r})
	if !strings.Contains(buf.String(), "AVAGO") {
		t.Errorf("raw dump:\n%s", buf.String())
	}
}
