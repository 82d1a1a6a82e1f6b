package tui

import (
	"github.com/charmbracelet/bubbles/progress"

	"github.com/vitaminmoo/pmd/internal/module"
)

// Gauge draws a DOM reading as a bar spanning its alarm thresholds.
type Gauge struct {
	progress progress.Model
}

// NewGauge creates a gauge of the given width in cells.
func NewGauge(width int) Gauge {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return Gauge{progress: p}
}

// Position returns where m sits between its low and high alarm thresholds,
// clamped to [0, 1]. ok is false when the module reports no thresholds.
func Position(m module.Metric) (pos float64, ok bool) {
	t := m.Thresholds
	if t == nil || t.HighAlarm <= t.LowAlarm {
		return 0, false
	}
	pos = (m.Value - t.LowAlarm) / (t.HighAlarm - t.LowAlarm)
	switch {
	case pos < 0:
		pos = 0
	case pos > 1:
		pos = 1
	}
	return pos, true
}

// View renders m, or nothing without thresholds.
func (g Gauge) View(m module.Metric) string {
	pos, ok := Position(m)
	if !ok {
		return ""
	}
	return g.progress.ViewAs(pos)
}
