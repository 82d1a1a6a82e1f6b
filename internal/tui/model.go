// Package tui is the interactive port monitor behind `pmd watch`.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vitaminmoo/pmd/internal/eeprom"
	"github.com/vitaminmoo/pmd/internal/module"
	"github.com/vitaminmoo/pmd/internal/port"
	"github.com/vitaminmoo/pmd/internal/render"
)

// Source is polled by the monitor. *port.Registry satisfies it.
type Source interface {
	Tick()
	Snapshots() []port.Snapshot
}

// View represents different screens in the monitor.
type View int

const (
	ViewPorts View = iota
	ViewDetail
)

// Model is the main Bubbletea model for the monitor.
type Model struct {
	view   View
	width  int
	height int

	src      Source
	interval time.Duration
	snaps    []port.Snapshot
	selected string // port shown in ViewDetail
	polling  bool
	polls    int
	lastPoll time.Time
	showRaw  bool

	// Components
	table   table.Model
	gauge   Gauge
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	styles  Styles
}

// pollMsg delivers snapshots taken after a poll.
type pollMsg struct {
	snaps []port.Snapshot
	at    time.Time
}

// tickMsg triggers the next poll.
type tickMsg time.Time

func NewModel(src Source, interval time.Duration) Model {
	h := help.New()
	h.ShowAll = false

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	styles := DefaultStyles()

	columns := make([]table.Column, len(render.Headers))
	widths := []int{6, 10, 9, 12, 13, 16, 18, 16, 7, 8}
	for i, title := range render.Headers {
		columns[i] = table.Column{Title: title, Width: widths[i]}
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(styles.Table)

	return Model{
		view:     ViewPorts,
		src:      src,
		interval: interval,
		polling:  true,
		table:    t,
		gauge:    NewGauge(24),
		keys:     DefaultKeyMap(),
		help:     h,
		spinner:  s,
		styles:   styles,
	}
}

// Init starts the first poll.
func (m Model) Init() tea.Cmd {
	return tea.Batch(pollCmd(m.src), m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := msg.Height - 10; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case pollMsg:
		m.polling = false
		m.polls++
		m.lastPoll = msg.at
		m.snaps = msg.snaps
		rows := make([]table.Row, len(msg.snaps))
		for i, s := range msg.snaps {
			rows[i] = render.Row(s)
		}
		m.table.SetRows(rows)
		return m, tickCmd(m.interval)

	case tickMsg:
		if m.polling {
			return m, nil
		}
		m.polling = true
		return m, pollCmd(m.src)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.polling {
			return m, nil
		}
		m.polling = true
		return m, pollCmd(m.src)
	}

	switch m.view {
	case ViewPorts:
		if key.Matches(msg, m.keys.Select) {
			if row := m.table.SelectedRow(); row != nil {
				m.selected = row[0]
				m.view = ViewDetail
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case ViewDetail:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.view = ViewPorts
			m.showRaw = false
		case key.Matches(msg, m.keys.Raw):
			m.showRaw = !m.showRaw
		}
	}
	return m, nil
}

// View renders the current screen.
func (m Model) View() string {
	var content string
	switch m.view {
	case ViewDetail:
		content = m.viewDetail()
	default:
		content = m.viewPorts()
	}

	helpView := m.styles.Help.Render(m.help.View(m.keys))

	return m.styles.App.Render(
		content + "\n" + helpView,
	)
}

// renderTitleBar renders a consistent title bar with poll status.
func (m Model) renderTitleBar(title string) string {
	parts := []string{m.styles.Title.Render(title)}

	switch {
	case m.polling:
		parts = append(parts, m.spinner.View()+" "+m.styles.Warning.Render("Polling..."))
	case m.polls > 0:
		parts = append(parts, m.styles.Success.Render("●"))
		parts = append(parts, m.styles.Muted.Render("polled "+m.lastPoll.Format("15:04:05")))
	}
	parts = append(parts, m.styles.Muted.Render(fmt.Sprintf("every %s", m.interval)))

	return strings.Join(parts, "  ")
}

func (m Model) viewPorts() string {
	var b strings.Builder
	b.WriteString(m.renderTitleBar("Pluggable Modules"))
	b.WriteString("\n\n")

	if m.polls == 0 {
		b.WriteString(m.styles.Muted.Render("Waiting for the first poll"))
		b.WriteString("\n")
		return b.String()
	}
	if len(m.snaps) == 0 {
		b.WriteString(m.styles.Muted.Render("No ports configured"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")
	return b.String()
}

func (m Model) snapshot(name string) (port.Snapshot, bool) {
	for _, s := range m.snaps {
		if s.Port == name {
			return s, true
		}
	}
	return port.Snapshot{}, false
}

func (m Model) viewDetail() string {
	var b strings.Builder
	b.WriteString(m.renderTitleBar("Port " + m.selected))
	b.WriteString("\n\n")

	s, ok := m.snapshot(m.selected)
	if !ok {
		b.WriteString(m.styles.Error.Render("Port is no longer configured"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.renderField("Family", s.Family.String()))
	b.WriteString(m.renderField("State", s.State.String()))
	b.WriteString(m.renderField("Connector", s.Connector.String()))
	b.WriteString(m.renderField("Status", render.Status(s.Status.String())))

	if s.Status == module.StatusSupported {
		b.WriteString(m.renderField("Speeds", s.Speeds.String()+" Mb/s"))
		if s.Cable != module.CableNone {
			b.WriteString(m.renderField("Cable", fmt.Sprintf("%s, %d m", s.Cable, s.CableLength)))
		}
	}

	if id := s.Identity; id != nil {
		b.WriteString("\n")
		b.WriteString(m.renderField("Vendor", id.VendorName+" ("+id.VendorOUI+")"))
		b.WriteString(m.renderField("Part", id.VendorPN+" rev "+id.VendorRevision))
		b.WriteString(m.renderField("Serial", id.VendorSN))
		b.WriteString(m.renderField("Date Code", id.DateCode))
		b.WriteString(m.renderField("Media", id.MediaConnector+", "+id.Encoding))
		if id.Wavelength > 0 {
			b.WriteString(m.renderField("Wavelength", fmt.Sprintf("%d nm", id.Wavelength)))
		}
		b.WriteString(m.renderField("Identity", module.ShortHash(id.Hash)))
	}

	if d := s.DOM; d != nil {
		b.WriteString("\n")
		b.WriteString(m.renderMetric("Temperature", fmt.Sprintf("%.2f C", d.Temperature.Value), d.Temperature))
		b.WriteString(m.renderMetric("Supply Voltage", fmt.Sprintf("%.4f V", d.Vcc.Value), d.Vcc))
		for i, v := range d.TxBias {
			b.WriteString(m.renderMetric(laneLabel("TX Bias", i, len(d.TxBias)), fmt.Sprintf("%.3f mA", v.Value), v))
		}
		for i, v := range d.TxPower {
			b.WriteString(m.renderMetric(laneLabel("TX Power", i, len(d.TxPower)), formatPower(v.Value), v))
		}
		for i, v := range d.RxPower {
			b.WriteString(m.renderMetric(laneLabel("RX Power", i, len(d.RxPower)), formatPower(v.Value), v))
		}
	} else if s.State == port.StateIdentityAcquired {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("No diagnostics"))
		b.WriteString("\n")
	}

	if m.showRaw {
		var raw strings.Builder
		if s.Raw != nil {
			raw.WriteString("identity\n")
			eeprom.HexDump(&raw, s.Raw)
		}
		if s.RawDiagnostics != nil {
			raw.WriteString("diagnostics\n")
			eeprom.HexDump(&raw, s.RawDiagnostics)
		}
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(raw.String()))
	}

	return b.String()
}

func (m Model) renderField(label, value string) string {
	return m.styles.Label.Render(label+":") + " " + m.styles.Value.Render(value) + "\n"
}

func (m Model) renderMetric(label, value string, v module.Metric) string {
	line := m.styles.Label.Render(label+":") + " " + m.styles.Value.Render(fmt.Sprintf("%-22s", value))
	if bar := m.gauge.View(v); bar != "" {
		line += " " + bar
	}
	switch {
	case v.Flags.HighAlarm || v.Flags.LowAlarm:
		line += " " + m.styles.Error.Render("ALARM")
	case v.Flags.HighWarning || v.Flags.LowWarning:
		line += " " + m.styles.Warning.Render("WARN")
	}
	return line + "\n"
}

func laneLabel(name string, lane, lanes int) string {
	if lanes == 1 {
		return name
	}
	return fmt.Sprintf("%s %d", name, lane+1)
}

func formatPower(mw float64) string {
	return fmt.Sprintf("%.4f mW %.2f dBm", mw, eeprom.DBm(mw))
}

// --- Async commands ---

// pollCmd runs one registry pass off the UI goroutine.
func pollCmd(src Source) tea.Cmd {
	return func() tea.Msg {
		src.Tick()
		return pollMsg{snaps: src.Snapshots(), at: time.Now()}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
