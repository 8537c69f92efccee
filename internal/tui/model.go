// Package tui draws a stereo VU meter in the terminal.
//
// The model polls a running meter at a fixed frame rate and maps each
// reading onto the needle scale, so the face shows the same angles a
// graphical meter would.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tphakala/go-vumeter/internal/capture"
	"github.com/tphakala/go-vumeter/internal/dsp"
	"github.com/tphakala/go-vumeter/internal/scale"
)

// Meter is the live meter the model displays. *capture.Session implements it.
type Meter interface {
	Levels() (vuL, vuR float32)
	Range() dsp.Range
	State() capture.State
	DeviceID() string
	DeviceType() dsp.DeviceType
	Backend() string

	ReferenceDbfs() float64
	ReferenceLevels() capture.ReferenceLevels
	SetReferenceDbfs(v float64) error
	SetReferenceOverride(on bool) error

	Devices(ctx context.Context) ([]capture.DeviceInfo, error)
	SwitchDevice(ctx context.Context, name string) error
}

type tickMsg time.Time

// ErrorMsg reports a meter error to the model, typically from the session's
// OnError callback through tea.Program.Send.
type ErrorMsg struct {
	Err error
}

type deviceSwitchedMsg struct {
	name string
	err  error
}

// Model is the Bubbletea model of the meter screen.
type Model struct {
	meter Meter
	table scale.Table
	keys  keyMap
	help  help.Model

	vuL, vuR  float32
	width     int
	status    string
	err       error
	switching bool
}

// NewModel creates a model for meter. A nil table uses the stock face.
func NewModel(meter Meter, table scale.Table) Model {
	if len(table) == 0 {
		table = scale.DefaultTable()
	}
	r := meter.Range()
	return Model{
		meter: meter,
		table: table,
		keys:  defaultKeyMap(),
		help:  help.New(),
		vuL:   r.Min,
		vuR:   r.Min,
	}
}

// Init starts the frame ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tickMsg:
		m.vuL, m.vuR = m.meter.Levels()
		return m, tick()

	case ErrorMsg:
		m.err = msg.Err

	case deviceSwitchedMsg:
		m.switching = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.status = "switched to " + msg.name
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextDevice):
		if m.switching {
			return m, nil
		}
		m.switching = true
		m.status = "switching device..."
		return m, nextDevice(m.meter)

	case key.Matches(msg, m.keys.RefUp):
		m.setReference(m.meter.ReferenceDbfs() + referenceStep)

	case key.Matches(msg, m.keys.RefDown):
		m.setReference(m.meter.ReferenceDbfs() - referenceStep)

	case key.Matches(msg, m.keys.Reset):
		if err := m.meter.SetReferenceOverride(false); err != nil {
			m.err = err
		} else {
			m.status = fmt.Sprintf("reference reset to %.1f dBFS", m.meter.ReferenceDbfs())
		}
	}
	return m, nil
}

func (m *Model) setReference(v float64) {
	if err := m.meter.SetReferenceDbfs(v); err != nil {
		m.err = err
		return
	}
	m.status = fmt.Sprintf("reference %.1f dBFS", v)
}

// nextDevice switches to the device after the current one, wrapping around.
// It runs off the update loop because opening a device can block.
func nextDevice(meter Meter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), switchTimeout)
		defer cancel()

		devices, err := meter.Devices(ctx)
		if err != nil {
			return deviceSwitchedMsg{err: err}
		}
		if len(devices) == 0 {
			return deviceSwitchedMsg{err: capture.ErrDeviceNotFound}
		}

		next := 0
		current := meter.DeviceID()
		for i, d := range devices {
			if d.Name == current {
				next = (i + 1) % len(devices)
				break
			}
		}

		name := devices[next].Name
		if err := meter.SwitchDevice(ctx, name); err != nil {
			return deviceSwitchedMsg{name: name, err: err}
		}
		return deviceSwitchedMsg{name: name}
	}
}
