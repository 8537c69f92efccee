package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-vumeter/internal/capture"
	"github.com/tphakala/go-vumeter/internal/dsp"
	"github.com/tphakala/go-vumeter/internal/scale"
)

type fakeMeter struct {
	mu       sync.Mutex
	vuL, vuR float32
	levels   capture.ReferenceLevels
	devices  []capture.DeviceInfo
	device   string
	switched []string
	setErr   error
}

func newFakeMeter() *fakeMeter {
	return &fakeMeter{
		levels: capture.DefaultReferenceLevels(),
		device: "[default monitor]",
		devices: []capture.DeviceInfo{
			{Name: "a.monitor", Kind: dsp.DeviceMonitor, IsDefault: true},
			{Name: "mic", Kind: dsp.DeviceMicrophone},
		},
		vuL: -96, vuR: -96,
	}
}

func (f *fakeMeter) Levels() (float32, float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vuL, f.vuR
}
func (f *fakeMeter) Range() dsp.Range           { return dsp.RangeWide }
func (f *fakeMeter) State() capture.State       { return capture.StateRunning }
func (f *fakeMeter) DeviceType() dsp.DeviceType { return dsp.DeviceMonitor }
func (f *fakeMeter) Backend() string            { return "fake" }

func (f *fakeMeter) DeviceID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.device
}

func (f *fakeMeter) ReferenceDbfs() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels.Options(dsp.DeviceMonitor).EffectiveReferenceDbfs()
}

func (f *fakeMeter) ReferenceLevels() capture.ReferenceLevels {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels
}

func (f *fakeMeter) SetReferenceDbfs(v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.levels = f.levels.With(dsp.DeviceMonitor, v)
	f.levels.Override = true
	return nil
}

func (f *fakeMeter) SetReferenceOverride(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels.Override = on
	return nil
}

func (f *fakeMeter) Devices(context.Context) ([]capture.DeviceInfo, error) {
	return f.devices, nil
}

func (f *fakeMeter) SwitchDevice(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.device = name
	f.switched = append(f.switched, name)
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestNewModel(t *testing.T) {
	m := NewModel(newFakeMeter(), nil)
	assert.Equal(t, scale.DefaultTable(), m.table)
	assert.Equal(t, float32(-96), m.vuL)
	assert.NotNil(t, m.Init())
}

func TestTickPollsLevels(t *testing.T) {
	meter := newFakeMeter()
	m := NewModel(meter, nil)

	meter.vuL, meter.vuR = -6, 1.5
	m, cmd := update(t, m, tickMsg(time.Now()))
	assert.NotNil(t, cmd, "tick reschedules itself")
	assert.Equal(t, float32(-6), m.vuL)
	assert.Equal(t, float32(1.5), m.vuR)
}

func TestQuitKeys(t *testing.T) {
	m := NewModel(newFakeMeter(), nil)
	for _, msg := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		_, cmd := update(t, m, msg)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd(), msg.String())
	}
}

func TestReferenceKeys(t *testing.T) {
	meter := newFakeMeter()
	m := NewModel(meter, nil)

	m, _ = update(t, m, runes("+"))
	assert.InDelta(t, -13.0, meter.ReferenceDbfs(), 0)
	assert.True(t, meter.ReferenceLevels().Override)

	m, _ = update(t, m, runes("-"))
	m, _ = update(t, m, runes("-"))
	assert.InDelta(t, -15.0, meter.ReferenceDbfs(), 0)
	assert.Contains(t, m.status, "-15.0")

	m, _ = update(t, m, runes("r"))
	assert.False(t, meter.ReferenceLevels().Override)
	assert.InDelta(t, -14.0, meter.ReferenceDbfs(), 0)
	assert.Contains(t, m.status, "reset")
}

func TestReferenceKeyError(t *testing.T) {
	meter := newFakeMeter()
	meter.setErr = errors.New("disk full")
	m := NewModel(meter, nil)

	m, _ = update(t, m, runes("+"))
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "disk full")
}

func TestNextDeviceCycles(t *testing.T) {
	meter := newFakeMeter()
	m := NewModel(meter, nil)

	// From the default device the first listed device is chosen.
	m, cmd := update(t, m, runes("d"))
	require.NotNil(t, cmd)
	assert.True(t, m.switching)

	// A second press while switching is ignored.
	_, again := update(t, m, runes("d"))
	assert.Nil(t, again)

	m, _ = update(t, m, cmd())
	assert.False(t, m.switching)
	assert.Equal(t, "switched to a.monitor", m.status)

	_, cmd = update(t, m, runes("d"))
	m, _ = update(t, m, cmd())
	_, cmd = update(t, m, runes("d"))
	_, _ = update(t, m, cmd())
	assert.Equal(t, []string{"a.monitor", "mic", "a.monitor"}, meter.switched)
}

func TestErrorMsgIsShown(t *testing.T) {
	m := NewModel(newFakeMeter(), nil)
	m, _ = update(t, m, ErrorMsg{Err: capture.ErrStreamEnded})
	assert.Contains(t, m.View(), capture.ErrStreamEnded.Error())
}

func TestViewShowsReadings(t *testing.T) {
	meter := newFakeMeter()
	m := NewModel(meter, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	meter.vuL, meter.vuR = -6, 0
	m, _ = update(t, m, tickMsg(time.Now()))

	view := m.View()
	assert.Contains(t, view, "go-vumeter")
	assert.Contains(t, view, "[default monitor]")
	assert.Contains(t, view, "-6.0 VU")
	assert.Contains(t, view, "-21.0°")
	assert.Contains(t, view, "+18.0°")
	assert.Contains(t, view, "reference -14.0 dBFS (default)")
	assert.Contains(t, view, "quit")
}

func TestColumn(t *testing.T) {
	table := scale.DefaultTable()
	assert.Equal(t, 0, column(table, -47, 61))
	assert.Equal(t, 60, column(table, 47, 61))
	assert.Equal(t, 30, column(table, 0, 61))
	assert.Equal(t, 0, column(table, -90, 61), "clamped low")
	assert.Equal(t, 60, column(table, 90, 61), "clamped high")

	flat := scale.Table{{Level: 0, Angle: 5}, {Level: 1, Angle: 5}}
	assert.Equal(t, 0, column(flat, 5, 61))
}

func TestDialCells(t *testing.T) {
	table := scale.DefaultTable()
	cells, needle, hotFrom := dialCells(table, -20, 61)

	require.Len(t, cells, 61)
	assert.Equal(t, 0, needle)
	assert.Equal(t, needleRune, cells[0])
	assert.Equal(t, column(table, 18, 61)+1, hotFrom)
	assert.Equal(t, hotTickRune, cells[60])
	assert.Equal(t, tickRune, cells[column(table, 18, 61)])

	_, needle, _ = dialCells(table, 3, 61)
	assert.Equal(t, 60, needle)

	// Rendering must work on both sides of the red zone.
	assert.NotEmpty(t, renderDial(table, -20, 61))
	assert.NotEmpty(t, renderDial(table, 2, 61))
}

func TestScaleLabels(t *testing.T) {
	table := scale.DefaultTable()
	line := scaleLabels(table, 61)

	assert.True(t, strings.HasPrefix(line, "-20"))
	assert.True(t, strings.HasSuffix(line, "+3"))
	assert.Contains(t, line, " 0 ")
	assert.LessOrEqual(t, len([]rune(line)), 61)

	// Labels never overlap, even on a narrow dial.
	narrow := scaleLabels(table, minDialWidth)
	assert.LessOrEqual(t, len([]rune(narrow)), minDialWidth)
	assert.NotContains(t, narrow, "--")
}

func TestLevelLabel(t *testing.T) {
	assert.Equal(t, "-20", levelLabel(-20))
	assert.Equal(t, "0", levelLabel(0))
	assert.Equal(t, "+3", levelLabel(3))
	assert.Equal(t, "-0.5", levelLabel(-0.5))
}

func TestDialWidth(t *testing.T) {
	assert.Equal(t, defaultDialWidth, dialWidth(0))
	assert.Equal(t, minDialWidth, dialWidth(10))
	assert.Equal(t, 68, dialWidth(80))
	assert.Equal(t, maxDialWidth, dialWidth(500))
}
