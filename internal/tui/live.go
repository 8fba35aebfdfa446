// Package tui plays back recorded voltage traces in the terminal.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

type model struct {
	title  string
	times  []float64
	trace  []float64
	cursor int
	stride int
	paused bool

	width  int
	height int
}

type tickMsg time.Time

func tick(fps int) tea.Cmd {
	if fps < 1 {
		fps = 30
	}
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func newModel(title string, times, trace []float64, fps int) model {
	stride := len(trace) / (fps * 10)
	if stride < 1 {
		stride = 1
	}
	return model{
		title:  title,
		times:  times,
		trace:  trace,
		cursor: 2,
		stride: stride,
		width:  90,
		height: 24,
	}
}

func (m model) Init() tea.Cmd { return tick(30) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.cursor = 2
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused && m.cursor < len(m.trace) {
			m.cursor += m.stride
			if m.cursor > len(m.trace) {
				m.cursor = len(m.trace)
			}
		}
		return m, tick(30)
	}
	return m, nil
}

func (m model) View() string {
	if len(m.trace) < 2 {
		return dimStyle.Render("no data")
	}

	graphHeight := m.height - 6
	if graphHeight < 5 {
		graphHeight = 5
	}
	graphWidth := m.width - 12
	if graphWidth < 20 {
		graphWidth = 20
	}

	shown := m.trace[:m.cursor]
	graph := asciigraph.Plot(shown,
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
	)

	t := 0.0
	if m.cursor-1 < len(m.times) {
		t = m.times[m.cursor-1]
	}
	status := fmt.Sprintf("t = %8.3f ms   v = %8.3f mV", t, shown[len(shown)-1])
	if m.paused {
		status += pausedStyle.Render("   [paused]")
	}

	return titleStyle.Render(m.title) + "\n\n" +
		graph + "\n\n" +
		labelStyle.Render(status) + "\n" +
		dimStyle.Render("space pause · r restart · q quit")
}

// Show plays back one voltage trace at the given frame rate, blocking
// until the viewer quits.
func Show(title string, times, trace []float64, fps int) error {
	p := tea.NewProgram(newModel(title, times, trace, fps))
	_, err := p.Run()
	return err
}
