package tui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the monitor, polling src every interval until the user quits.
func Run(src Source, interval time.Duration) error {
	m := NewModel(src, interval)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running monitor: %v\n", err)
		return err
	}

	return nil
}
