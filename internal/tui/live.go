// Package tui is a terminal live view of a simulated run.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/linebot/internal/control"
	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/robot"
	"github.com/san-kum/linebot/internal/sensing"
)

const (
	barWidth    = 20
	gaugeWidth  = 41
	historySize = 120
	tickRate    = 16 * time.Millisecond
)

// Stepper is the part of loop.Driver the view drives.
type Stepper interface {
	Start(ctx context.Context) error
	Step(ctx context.Context) (loop.Cycle, error)
	Phase() loop.Phase
	StopReason() loop.StopReason
	Cycles() int
}

type tickMsg time.Time

type startedMsg struct{ err error }

type Model struct {
	ctx     context.Context
	driver  Stepper
	course  string
	dt      float64
	speed   int
	started bool
	paused  bool
	err     error

	last    loop.Cycle
	history []float64

	width  int
	height int
}

// New returns a view that runs speed cycles per frame. dt is only used to
// show simulated time.
func New(ctx context.Context, driver Stepper, course string, dt float64, speed int) Model {
	if speed < 1 {
		speed = 1
	}
	return Model{
		ctx:     ctx,
		driver:  driver,
		course:  course,
		dt:      dt,
		speed:   speed,
		history: make([]float64, 0, historySize),
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		return startedMsg{err: m.driver.Start(m.ctx)}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		case "+", "=":
			m.speed *= 2
		case "-":
			if m.speed > 1 {
				m.speed /= 2
			}
		case "n":
			// Start owns the driver until startedMsg arrives.
			if m.started && m.paused {
				m.step(1)
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case startedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.started = true
		return m, tick()

	case tickMsg:
		if m.err != nil || m.driver.Phase() == loop.Stopped {
			return m, nil
		}
		if !m.paused {
			m.step(m.speed)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step(n int) {
	for i := 0; i < n && m.driver.Phase() == loop.Running; i++ {
		c, err := m.driver.Step(m.ctx)
		if err != nil {
			m.err = err
			return
		}
		m.last = c
		if c.Junction {
			continue
		}
		m.history = append(m.history, c.Position)
		if len(m.history) > historySize {
			m.history = m.history[1:]
		}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(title.Render("linebot") + "  " + label.Render(m.course) + "  " + m.status())
	b.WriteString(fmt.Sprintf("  %s %s  %s %s\n\n",
		label.Render("cycle"), value.Render(fmt.Sprint(m.driver.Cycles())),
		label.Render("t"), value.Render(fmt.Sprintf("%.2fs", float64(m.driver.Cycles())*m.dt))))

	sensors := make([]string, 0, robot.NumSensors)
	for i, v := range m.last.Reading {
		sensors = append(sensors, fmt.Sprintf("s%d %s %4d", i, sensorBar(v, barWidth), v))
	}

	c := m.last.Command
	motors := []string{
		fmt.Sprintf("L %s %.2f", powerBar(c.Left, barWidth), c.Left),
		fmt.Sprintf("R %s %.2f", powerBar(c.Right, barWidth), c.Right),
		"",
		fmt.Sprintf("%s %s", label.Render("position"), value.Render(fmt.Sprintf("%+.3f", m.last.Position))),
		gauge(m.last.Position, gaugeWidth),
		fmt.Sprintf("%s %s", label.Render("control"), value.Render(fmt.Sprintf("%+.3f", m.last.Terms.Output))),
	}
	if !m.last.Detected && m.driver.Cycles() > 0 {
		motors = append(motors, paused.Render("no line"))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panel.Render(strings.Join(sensors, "\n")),
		panel.Render(strings.Join(motors, "\n")),
	))
	b.WriteString("\n")

	if len(m.history) > 1 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(8),
			asciigraph.Width(m.graphWidth()),
			asciigraph.LowerBound(-1),
			asciigraph.UpperBound(1),
			asciigraph.Caption("line position"))
		b.WriteString(graph + "\n")
	}

	if m.err != nil {
		b.WriteString(stopped.Render("error: "+m.err.Error()) + "\n")
	}
	b.WriteString(hint.Render(fmt.Sprintf("space pause  n step  +/- speed (x%d)  q quit", m.speed)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return stopped.Render("failed")
	case !m.started:
		return paused.Render(loop.Calibrating.String())
	case m.driver.Phase() == loop.Stopped:
		return stopped.Render("stopped: " + m.driver.StopReason().String())
	case m.paused:
		return paused.Render("paused")
	}
	return running.Render(m.driver.Phase().String())
}

func (m Model) graphWidth() int {
	w := m.width - 10
	if w > historySize {
		w = historySize
	}
	if w < 20 {
		w = 20
	}
	return w
}

// sensorBar fills in proportion to a calibrated reading; cells above the
// line threshold are drawn dark.
func sensorBar(v, width int) string {
	n := int(math.Round(control.Clamp(float64(v)/1000, 0, 1) * float64(width)))
	bar := strings.Repeat("█", n)
	if v > sensing.DefaultLineThreshold {
		bar = dark.Render(bar)
	}
	return bar + light.Render(strings.Repeat("░", width-n))
}

func powerBar(p float64, width int) string {
	n := int(math.Round(control.Clamp(p, 0, 1) * float64(width)))
	return strings.Repeat("▮", n) + strings.Repeat("·", width-n)
}

// gauge marks a position in [-1, 1] on a ruler centred on the robot.
func gauge(pos float64, width int) string {
	cells := []rune(strings.Repeat("─", width))
	cells[width/2] = '┼'
	i := int(math.Round((control.Clamp(pos, -1, 1) + 1) / 2 * float64(width-1)))
	cells[i] = '●'
	return string(cells)
}

// Run shows the live view until the user quits.
func Run(ctx context.Context, driver Stepper, course string, dt float64, speed int) error {
	p := tea.NewProgram(New(ctx, driver, course, dt, speed), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
