package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vitaminmoo/pmd/internal/eeprom"
	"github.com/vitaminmoo/pmd/internal/port"
)

// Row is the one-line summary of a port used by the dump table and the
// monitor.
func Row(s port.Snapshot) []string {
	vendor, pn, sn := "", "", ""
	if s.Identity != nil {
		vendor, pn, sn = s.Identity.VendorName, s.Identity.VendorPN, s.Identity.VendorSN
	}
	temp, rx := "", ""
	if s.DOM != nil {
		temp = fmt.Sprintf("%.1f", s.DOM.Temperature.Value)
		if len(s.DOM.RxPower) > 0 {
			rx = fmt.Sprintf("%.2f", eeprom.DBm(s.DOM.RxPower[0].Value))
		}
	}
	return []string{s.Port, s.Family.String(), s.State.String(), s.Connector.String(), s.Status.String(), vendor, pn, sn, temp, rx}
}

// Headers names the Row columns.
var Headers = []string{"PORT", "FAMILY", "STATE", "CONNECTOR", "STATUS", "VENDOR", "PART", "SERIAL", "TEMP C", "RX1 dBm"}

// Table renders a bordered summary of snaps.
func Table(snaps []port.Snapshot) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(muted)).
		Headers(Headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, s := range snaps {
		t.Row(Row(s)...)
	}
	return t.Render()
}

// Fields writes one port's published fields in key order.
func Fields(w io.Writer, s port.Snapshot) error {
	var b strings.Builder
	b.WriteString(heading(fmt.Sprintf("Port %s (%s, %s)", s.Port, s.Family, s.State)))

	fields := s.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(labelStyle.Width(36).Render(k+":") + " " + valueStyle.Render(fields[k]) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Raw writes the raw pages of a port as hex.
func Raw(w io.Writer, s port.Snapshot) {
	if s.Raw != nil {
		fmt.Fprint(w, heading("Identity Page"))
		eeprom.HexDump(w, s.Raw)
	}
	if s.RawDiagnostics != nil {
		fmt.Fprint(w, heading("Diagnostics Page"))
		eeprom.HexDump(w, s.RawDiagnostics)
	}
}
