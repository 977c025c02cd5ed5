// Package tui renders a live terminal dashboard over a running
// engine: per-domain panels, health bars and a scrolling plot of a
// selectable series.
package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/partsim/internal/engine"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

// series the plot panel can cycle through with tab.
var plotSeries = []string{"reliability", "max_temperature", "max_stress", "total_power"}

type model struct {
	eng      *engine.Engine
	duration float64
	speed    float64

	plotIdx int
	history []float64

	width  int
	height int
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func newModel(eng *engine.Engine, duration float64) model {
	return model{
		eng:      eng,
		duration: duration,
		speed:    1,
		history:  make([]float64, 0, 120),
		width:    80,
		height:   24,
	}
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		st := m.eng.State()
		if st.State == engine.Running {
			steps := int(m.speed)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps; i++ {
				if m.eng.Step() != nil {
					break
				}
			}
			m.observe()
			if m.duration > 0 && m.eng.State().SimulatedTime >= m.duration {
				m.eng.Stop()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *model) observe() {
	r := m.eng.LatestResults()
	if r == nil {
		return
	}
	var v float64
	switch plotSeries[m.plotIdx] {
	case "reliability":
		v = r.Reliability()
	case "max_temperature":
		v = r.MaxTemperature()
	case "max_stress":
		v = r.MaxStress() / 1e6
	case "total_power":
		v = r.TotalPower()
	}
	m.history = append(m.history, v)
	if len(m.history) > 120 {
		m.history = m.history[1:]
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ", "p":
		if m.eng.State().State == engine.Running {
			m.eng.Pause()
		} else {
			m.eng.Resume()
		}
	case "tab":
		m.plotIdx = (m.plotIdx + 1) % len(plotSeries)
		m.history = m.history[:0]
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "o":
		m.eng.RunScenario("overvoltage_test", engine.ScenarioParams{})
	case "v":
		m.eng.RunScenario("vibration_test", engine.ScenarioParams{})
	}
	return m, nil
}

func (m model) View() string {
	st := m.eng.State()
	r := m.eng.LatestResults()

	var b strings.Builder

	b.WriteString(cyan.Render("partsim"))
	b.WriteString(dim.Render(fmt.Sprintf("  t=%.2fs  steps=%d  state=%s  speed=%.2gx", st.SimulatedTime, st.StepCount, st.State, m.speed)))
	b.WriteString("\n\n")

	if r == nil {
		b.WriteString(dim.Render("waiting for first step..."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.domainLine(r))
	b.WriteString("\n")
	b.WriteString(m.healthPanel(r))
	b.WriteString("\n")
	b.WriteString(m.plotPanel())
	b.WriteString("\n")
	b.WriteString(dim.Render("[space] pause  [tab] series  [+/-] speed  [o] overvoltage  [v] vibration  [q] quit"))
	b.WriteString("\n")
	return b.String()
}

func (m model) domainLine(r *engine.CoupledResults) string {
	parts := []string{}
	if r.Electrical != nil {
		parts = append(parts, white.Render(fmt.Sprintf("power %.2f W", r.Electrical.TotalPower)))
	}
	if r.Thermal != nil {
		s := fmt.Sprintf("max temp %.1f C", r.Thermal.MaxTemperature)
		if r.Thermal.MaxTemperature > 100 {
			parts = append(parts, red.Render(s))
		} else {
			parts = append(parts, yellow.Render(s))
		}
	}
	if r.Mechanical != nil {
		parts = append(parts, magenta.Render(fmt.Sprintf("stress %.2f MPa (SF %.1f)", r.Mechanical.MaxStress/1e6, r.Mechanical.SafetyFactor)))
	}
	if r.Physics != nil {
		parts = append(parts, dim.Render(fmt.Sprintf("vib %.2f  joints broken %d", r.Physics.Vibration, r.Physics.BrokenJoints)))
	}
	return strings.Join(parts, dim.Render("  |  "))
}

func (m model) healthPanel(r *engine.CoupledResults) string {
	if r.Failure == nil {
		return ""
	}
	ids := make([]string, 0, len(r.Failure.HealthScores))
	for id := range r.Failure.HealthScores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(white.Render(fmt.Sprintf("system reliability %.3f", r.Failure.Reliability)))
	b.WriteString(dim.Render(fmt.Sprintf("  events %d", r.Failure.EventCount)))
	b.WriteString("\n")
	for _, id := range ids {
		h := r.Failure.HealthScores[id]
		bar := healthBar(h, 20)
		b.WriteString(fmt.Sprintf("  %-12s %s %s\n", id, bar, dim.Render(fmt.Sprintf("%.2f", h))))
	}
	return b.String()
}

func healthBar(h float64, width int) string {
	if h < 0 {
		h = 0
	}
	filled := int(h * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case h < 0.3:
		return red.Render(bar)
	case h < 0.7:
		return yellow.Render(bar)
	default:
		return green.Render(bar)
	}
}

func (m model) plotPanel() string {
	if len(m.history) < 2 {
		return dim.Render("collecting " + plotSeries[m.plotIdx] + "...")
	}
	plot := asciigraph.Plot(m.history,
		asciigraph.Height(8),
		asciigraph.Width(min(m.width-12, 100)),
		asciigraph.Caption(plotSeries[m.plotIdx]),
	)
	return plot
}

// Run starts the dashboard over an already-configured engine. The
// engine is started here so the history begins at t=0.
func Run(eng *engine.Engine, duration float64) error {
	eng.Start()
	p := tea.NewProgram(newModel(eng, duration), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
