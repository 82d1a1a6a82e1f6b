package module

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/vitaminmoo/pmd/internal/eeprom"
)

// Identity holds the vendor fields of an identity page.
type Identity struct {
	Identifier     byte
	VendorName     string
	VendorOUI      string
	VendorPN       string
	VendorRevision string
	VendorSN       string
	DateCode       string
	MediaConnector string
	Encoding       string
	BitRate        int // Mb/s
	Wavelength     int // nm, optical modules
	DiagType       byte
	Hash           string
}

// ExtractIdentity reads the vendor fields from an identity page. It does not
// validate the page.
func ExtractIdentity(f Family, id []byte) Identity {
	revLen, wlOff := eeprom.LenSFPVendorRev, eeprom.OffSFPWavelength
	if f.QSFP() {
		revLen, wlOff = eeprom.LenQSFPVendorRev, eeprom.OffQSFPWavelength
	}

	ident := Identity{
		Identifier:     id[eeprom.OffIdentifier],
		VendorName:     eeprom.ASCII(id, eeprom.OffVendorName, eeprom.LenVendorName),
		VendorOUI:      eeprom.OUI(id),
		VendorPN:       eeprom.ASCII(id, eeprom.OffVendorPN, eeprom.LenVendorPN),
		VendorRevision: eeprom.ASCII(id, eeprom.OffVendorRev, revLen),
		VendorSN:       eeprom.ASCII(id, eeprom.OffVendorSN, eeprom.LenVendorSN),
		DateCode:       eeprom.ASCII(id, eeprom.OffDateCode, eeprom.LenDateCode),
		MediaConnector: eeprom.ConnectorName(id[eeprom.OffConnector]),
		Encoding:       eeprom.EncodingName(id[eeprom.OffEncoding]),
		BitRate:        int(id[eeprom.OffBitRate]) * 100,
		DiagType:       id[eeprom.OffDiagType],
		Hash:           ContentHash(id),
	}
	// Copper assemblies keep cable attenuation where optics keep wavelength.
	switch id[eeprom.OffConnector] {
	case eeprom.ConnCopperPigtail, eeprom.ConnNoSeparable:
	default:
		ident.Wavelength = int(eeprom.Word(id, wlOff))
	}
	if f.QSFP() {
		// QSFP wavelength is in units of 0.05 nm.
		ident.Wavelength /= 20
	}
	return ident
}

// ContentHash identifies a module by its identity bytes 0-95, which exclude
// the vendor-specific area. Two modules with the same hash report the same
// identity regardless of their live diagnostics.
func ContentHash(id []byte) string {
	n := eeprom.OffCCExt + 1
	if len(id) < n {
		n = len(id)
	}
	sum := sha256.Sum256(id[:n])
	return "sha256:" + hex.EncodeToString(sum[:])
}

// ShortHash returns the first 12 hex digits of a ContentHash for display.
func ShortHash(hash string) string {
	h := strings.TrimPrefix(hash, "sha256:")
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// DiagnosticsAvailable reports whether a module advertises diagnostics the
// decoder can interpret.
func DiagnosticsAvailable(f Family, id []byte) bool {
	diag := id[eeprom.OffDiagType]
	switch f {
	case FamilySFPPlus:
		return diag&eeprom.DiagDDMImplemented != 0 &&
			diag&eeprom.DiagInternalCal != 0 &&
			diag&eeprom.DiagAveragePower != 0 &&
			diag&eeprom.DiagAddressChange == 0
	case FamilyQSFPPlus, FamilyQSFP28:
		return diag&eeprom.DiagAveragePower != 0
	default:
		return false
	}
}
