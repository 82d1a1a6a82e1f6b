package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vitaminmoo/pmd/internal/eeprom"
	"github.com/vitaminmoo/pmd/internal/module"
)

// ErrShortImage is returned for images too small to hold an identity page.
var ErrShortImage = errors.New("image too short")

// Split separates an EEPROM dump into its identity and diagnostics pages.
// SFP dumps hold A0 in the first 256 bytes and A2 in the next 256. QSFP
// dumps start with the lower page followed by upper page 00. diag is nil
// when the dump does not include diagnostics.
func Split(f module.Family, image []byte) (id, diag []byte, err error) {
	switch {
	case f.QSFP():
		if len(image) < 2*eeprom.PageSize {
			return nil, nil, fmt.Errorf("%w: %d bytes, QSFP needs %d", ErrShortImage, len(image), 2*eeprom.PageSize)
		}
		return image[eeprom.PageSize : 2*eeprom.PageSize], image[:eeprom.PageSize], nil
	case f == module.FamilySFPPlus:
		if len(image) < eeprom.PageSize {
			return nil, nil, fmt.Errorf("%w: %d bytes, SFP needs %d", ErrShortImage, len(image), eeprom.PageSize)
		}
		if len(image) >= 256+eeprom.PageSize {
			diag = image[256 : 256+eeprom.PageSize]
		}
		return image[:eeprom.PageSize], diag, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", module.ErrUnrecognizedConnector, f)
	}
}

// Decode writes a field-by-field description of an EEPROM dump.
func Decode(w io.Writer, f module.Family, image []byte) error {
	id, diag, err := Split(f, image)
	if err != nil {
		return err
	}

	var b strings.Builder
	r := module.NewRecord("", f)
	parseErr := r.Parse(id)

	b.WriteString(heading("Basic Info"))
	b.WriteString(field("Identifier", fmt.Sprintf("0x%02x (%s)", id[eeprom.OffIdentifier], eeprom.IdentifierName(id[eeprom.OffIdentifier]))))
	if !f.QSFP() {
		b.WriteString(field("Ext Identifier", fmt.Sprintf("0x%02x", id[eeprom.OffExtIdentifier])))
	}
	b.WriteString(field("Connector", fmt.Sprintf("0x%02x (%s)", id[eeprom.OffConnector], eeprom.ConnectorName(id[eeprom.OffConnector]))))
	b.WriteString(field("Encoding", fmt.Sprintf("0x%02x (%s)", id[eeprom.OffEncoding], eeprom.EncodingName(id[eeprom.OffEncoding]))))
	b.WriteString(field("Nominal Bitrate", fmt.Sprintf("%d MBd", int(id[eeprom.OffBitRate])*100)))

	b.WriteString(heading("Transceiver Compliance"))
	codes := ComplianceCodes(f, id)
	if len(codes) == 0 {
		b.WriteString(valueStyle.Render("  (none)") + "\n")
	}
	for _, c := range codes {
		b.WriteString(valueStyle.Render("  - "+c) + "\n")
	}

	if r.Identity != nil {
		ident := r.Identity
		b.WriteString(heading("Vendor Info"))
		b.WriteString(field("Vendor Name", ident.VendorName))
		b.WriteString(field("Vendor OUI", ident.VendorOUI))
		b.WriteString(field("Part Number", ident.VendorPN))
		b.WriteString(field("Revision", ident.VendorRevision))
		b.WriteString(field("Serial Number", ident.VendorSN))
		b.WriteString(field("Date Code", formatDateCode(ident.DateCode)))
		if ident.Wavelength > 0 {
			b.WriteString(field("Wavelength", fmt.Sprintf("%d nm", ident.Wavelength)))
		}
		if r.Cable != module.CableNone {
			b.WriteString(field("Cable", fmt.Sprintf("%s, %d m", r.Cable, r.CableLength)))
		}
		b.WriteString(field("Identity Hash", module.ShortHash(ident.Hash)))
	}

	b.WriteString(heading("Diagnostic Monitoring"))
	b.WriteString(field("Diag Type", fmt.Sprintf("0x%02x", id[eeprom.OffDiagType])))
	for _, d := range diagTypeNotes(f, id[eeprom.OffDiagType]) {
		b.WriteString(valueStyle.Render("  - "+d) + "\n")
	}
	available := module.DiagnosticsAvailable(f, id)
	b.WriteString(field("Decodable", fmt.Sprintf("%t", available)))

	b.WriteString(heading("Checksums"))
	sum := eeprom.Verify(id)
	b.WriteString(field("CC_BASE", checksumNote(sum.Base, sum.BaseSum)))
	b.WriteString(field("CC_EXT", checksumNote(sum.Ext, sum.ExtSum)))

	b.WriteString(heading("Classification"))
	if parseErr != nil {
		b.WriteString(field("Error", badStyle.Render(parseErr.Error())))
	}
	b.WriteString(field("Connector", r.Connector.String()))
	b.WriteString(field("Status", Status(r.Status.String())))
	if r.Status == module.StatusSupported {
		b.WriteString(field("Speeds", r.Speeds.String()+" Mb/s"))
		b.WriteString(field("Optical", fmt.Sprintf("%t", r.Optical)))
	}

	if diag != nil && available {
		dom := module.DecodeDOM(f, diag)
		b.WriteString(heading("Real-time Diagnostics"))
		b.WriteString(DOM(&dom))
	}

	_, err = io.WriteString(w, b.String())
	return err
}

// DOM formats decoded diagnostics, one line per reading.
func DOM(d *module.DOM) string {
	var b strings.Builder
	b.WriteString(field("Temperature", fmt.Sprintf("%.2f C%s", d.Temperature.Value, flagNote(d.Temperature.Flags))))
	b.WriteString(field("Supply Voltage", fmt.Sprintf("%.4f V%s", d.Vcc.Value, flagNote(d.Vcc.Flags))))
	lanes := func(name string, ms []module.Metric, format func(module.Metric) string) {
		for i, m := range ms {
			label := name
			if len(ms) > 1 {
				label = fmt.Sprintf("%s %d", name, i+1)
			}
			b.WriteString(field(label, format(m)+flagNote(m.Flags)))
		}
	}
	power := func(m module.Metric) string {
		return fmt.Sprintf("%.4f mW (%.2f dBm)", m.Value, eeprom.DBm(m.Value))
	}
	lanes("TX Bias", d.TxBias, func(m module.Metric) string { return fmt.Sprintf("%.3f mA", m.Value) })
	lanes("TX Power", d.TxPower, power)
	lanes("RX Power", d.RxPower, power)
	return b.String()
}

func flagNote(f module.Flags) string {
	var raised []string
	if f.HighAlarm {
		raised = append(raised, "high alarm")
	}
	if f.LowAlarm {
		raised = append(raised, "low alarm")
	}
	if f.HighWarning {
		raised = append(raised, "high warning")
	}
	if f.LowWarning {
		raised = append(raised, "low warning")
	}
	if len(raised) == 0 {
		return ""
	}
	return " " + badStyle.Render("["+strings.Join(raised, ", ")+"]")
}

func checksumNote(stored, computed byte) string {
	if stored == computed {
		return okStyle.Render(fmt.Sprintf("0x%02x (VALID)", stored))
	}
	return badStyle.Render(fmt.Sprintf("0x%02x (INVALID - calculated 0x%02x)", stored, computed))
}

// formatDateCode renders YYMMDDLL as 20YY-MM-DD with the lot code.
func formatDateCode(code string) string {
	if len(code) < 6 {
		return code
	}
	s := fmt.Sprintf("20%s-%s-%s", code[0:2], code[2:4], code[4:6])
	if lot := strings.TrimSpace(code[6:]); lot != "" {
		s += " (Lot: " + lot + ")"
	}
	return s
}

func diagTypeNotes(f module.Family, diag byte) []string {
	var notes []string
	if f.QSFP() {
		if diag&eeprom.DiagAveragePower != 0 {
			notes = append(notes, "Received power measurement: average")
		} else {
			notes = append(notes, "Received power measurement: OMA")
		}
		return notes
	}
	if diag&eeprom.DiagDDMImplemented != 0 {
		notes = append(notes, "Digital diagnostics implemented")
	}
	if diag&eeprom.DiagInternalCal != 0 {
		notes = append(notes, "Internally calibrated")
	}
	if diag&eeprom.DiagExternalCal != 0 {
		notes = append(notes, "Externally calibrated")
	}
	if diag&eeprom.DiagAveragePower != 0 {
		notes = append(notes, "Received power measurement: average")
	} else {
		notes = append(notes, "Received power measurement: OMA")
	}
	if diag&eeprom.DiagAddressChange != 0 {
		notes = append(notes, "Address change required")
	}
	return notes
}

type complianceBit struct {
	off  int
	mask byte
	name string
}

var sfpComplianceBits = []complianceBit{
	{eeprom.OffCompliance10G, eeprom.SFP10GBaseER, "10G Base-ER"},
	{eeprom.OffCompliance10G, eeprom.SFP10GBaseLRM, "10G Base-LRM"},
	{eeprom.OffCompliance10G, eeprom.SFP10GBaseLR, "10G Base-LR"},
	{eeprom.OffCompliance10G, eeprom.SFP10GBaseSR, "10G Base-SR"},
	{eeprom.OffComplianceGbE, eeprom.SFP1000BaseT, "1000BASE-T"},
	{eeprom.OffComplianceGbE, eeprom.SFP1000BaseCX, "1000BASE-CX"},
	{eeprom.OffComplianceGbE, eeprom.SFP1000BaseLX, "1000BASE-LX"},
	{eeprom.OffComplianceGbE, eeprom.SFP1000BaseSX, "1000BASE-SX"},
	{eeprom.OffComplianceSFP, eeprom.SFPActiveCable, "Active Cable"},
	{eeprom.OffComplianceSFP, eeprom.SFPPassiveCable, "Passive Cable"},
}

var qsfpComplianceBits = []complianceBit{
	{eeprom.OffCompliance10G, eeprom.QSFPExtendedSpc, "Extended Specification"},
	{eeprom.OffCompliance10G, eeprom.QSFP40GBaseCR4, "40GBASE-CR4"},
	{eeprom.OffCompliance10G, eeprom.QSFP40GBaseSR4, "40GBASE-SR4"},
	{eeprom.OffCompliance10G, eeprom.QSFP40GBaseLR4, "40GBASE-LR4"},
	{eeprom.OffCompliance10G, eeprom.QSFP40GActive, "40G Active Cable (XLPPI)"},
}

var extendedCodeNames = map[byte]string{
	eeprom.Ext100GAOC:   "100G AOC",
	eeprom.Ext100GSR4:   "100GBASE-SR4",
	eeprom.Ext100GLR4:   "100GBASE-LR4",
	eeprom.Ext100GER4:   "100GBASE-ER4",
	eeprom.Ext100GSR10:  "100GBASE-SR10",
	eeprom.Ext100GCWDM4: "100G CWDM4",
	eeprom.Ext100GPSM4:  "100G PSM4",
	eeprom.Ext100GACC:   "100G ACC",
	eeprom.Ext100GCR4:   "100GBASE-CR4",
	eeprom.Ext100GCLR4:  "100G CLR4",
}

// ComplianceCodes lists the compliance bits set in an identity page.
func ComplianceCodes(f module.Family, id []byte) []string {
	bits := sfpComplianceBits
	if f.QSFP() {
		bits = qsfpComplianceBits
	}
	var out []string
	for _, c := range bits {
		if id[c.off]&c.mask != 0 {
			out = append(out, c.name)
		}
	}
	if f.QSFP() && id[eeprom.OffCompliance10G]&eeprom.QSFPExtendedSpc != 0 {
		ext := id[eeprom.OffExtCompliance]
		name, ok := extendedCodeNames[ext]
		if !ok {
			name = fmt.Sprintf("extended code 0x%02x", ext)
		}
		out = append(out, name)
	}
	return out
}
