// Package tui is the interactive terminal front end for a running voice.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/stringsim/internal/export"
	"github.com/san-kum/stringsim/internal/voice"
)

const (
	frameRate   = 30
	minStrength = 1e-4
	maxStrength = 1.0
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type Model struct {
	voice    *voice.Voice
	title    string
	position float64
	strength float64

	scope    []float64
	spring   harmonica.Spring
	meter    float64
	meterVel float64
	status   string

	width  int
	height int
}

// New returns a live view of v. Space plucks at position with strength.
func New(v *voice.Voice, title string, position, strength float64) Model {
	return Model{
		voice:    v,
		title:    title,
		position: position,
		strength: strength,
		scope:    make([]float64, v.Len()),
		spring:   harmonica.NewSpring(harmonica.FPS(frameRate), 8.0, 0.9),
		width:    80,
		height:   24,
	}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.scope = m.voice.Snapshot(m.scope)
		m.meter, m.meterVel = m.spring.Update(m.meter, m.meterVel, m.voice.Peak())
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.pluck(m.position)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.pluck(float64(key[0]-'0') / 10)
	case "+", "=":
		m.strength = math.Min(m.strength*1.25, maxStrength)
		m.status = fmt.Sprintf("strength %.4g", m.strength)
	case "-", "_":
		m.strength = math.Max(m.strength/1.25, minStrength)
		m.status = fmt.Sprintf("strength %.4g", m.strength)
	case "r":
		m.voice.Reset()
		m.status = "reset"
	}
	return m, nil
}

func (m *Model) pluck(position float64) {
	if err := m.voice.Pluck(position, m.strength); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("pluck at %.2f", position)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n\n",
		green.Render("●"), cyan.Render(m.title),
		dim.Render(fmt.Sprintf("%d nodes  %d plucks  %d dropped",
			m.voice.Len(), m.voice.Plucks(), m.voice.Dropped()))))

	gw := m.width - 14
	if gw < 20 {
		gw = 20
	}
	gh := m.height - 12
	if gh < 5 {
		gh = 5
	}
	shape := export.Decimate(m.scope, gw)
	if len(shape) > 1 {
		graph := asciigraph.Plot(shape,
			asciigraph.Height(gh),
			asciigraph.Width(gw),
			asciigraph.Offset(3),
			asciigraph.Precision(4))
		b.WriteString(cyan.Render(graph) + "\n")
	}

	b.WriteString("\n   " + m.meterBar(36) + "\n")
	b.WriteString(fmt.Sprintf("   %s%s  %s%s\n",
		dim.Render("strength "), white.Render(fmt.Sprintf("%.4g", m.strength)),
		dim.Render("level "), white.Render(fmt.Sprintf("%.2f", m.voice.Level()))))
	if m.status != "" {
		b.WriteString("   " + yellow.Render(m.status) + "\n")
	}

	b.WriteString("\n" + dim.Render("   1-9 pluck  space pluck  ±strength  r reset  q quit") + "\n")
	return b.String()
}

func (m Model) meterBar(width int) string {
	level := math.Max(0, math.Min(m.meter, 1))
	filled := int(level * float64(width))
	style := green
	if m.meter >= 1 {
		style = red
	}
	return style.Render(strings.Repeat("━", filled)) +
		dimmer.Render(strings.Repeat("─", width-filled)) +
		dim.Render(fmt.Sprintf(" %.3f", m.meter))
}

// Run blocks until the user quits.
func Run(v *voice.Voice, title string, position, strength float64) error {
	p := tea.NewProgram(New(v, title, position, strength), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
