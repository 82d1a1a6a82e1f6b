package eeprom

import (
	"fmt"
	"io"
	"strings"
)

// ASCII returns the fixed-width field at off with trailing spaces removed.
// Leading spaces and embedded NULs are kept as the module reported them.
func ASCII(data []byte, off, n int) string {
	return strings.TrimRight(string(data[off:off+n]), " ")
}

// OUI formats the three vendor OUI bytes as lowercase dash-separated hex.
func OUI(data []byte) string {
	return fmt.Sprintf("%02x-%02x-%02x", data[OffVendorOUI], data[OffVendorOUI+1], data[OffVendorOUI+2])
}

// HexDump writes data in canonical hex+ASCII form.
func HexDump(w io.Writer, data []byte) {
	for i := 0; i < len(data); i += 16 {
		fmt.Fprintf(w, "%04x  ", i)

		for j := 0; j < 16; j++ {
			if i+j < len(data) {
				fmt.Fprintf(w, "%02x ", data[i+j])
			} else {
				fmt.Fprint(w, "   ")
			}
			if j == 7 {
				fmt.Fprint(w, " ")
			}
		}

		fmt.Fprint(w, " |")
		for j := 0; j < 16 && i+j < len(data); j++ {
			b := data[i+j]
			if b >= 32 && b < 127 {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w, "|")
	}
}
