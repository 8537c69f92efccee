package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tphakala/go-vumeter/internal/capture"
	"github.com/tphakala/go-vumeter/internal/scale"
)

// View renders the meter screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	width := dialWidth(m.width)
	labels := scaleLabels(m.table, width)
	face := lipgloss.JoinVertical(lipgloss.Left,
		m.renderChannel("L", m.vuL, labels, width),
		"",
		m.renderChannel("R", m.vuR, labels, width),
	)
	b.WriteString(boxStyle.Render(face))
	b.WriteString("\n")

	b.WriteString(m.renderFooter())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	state := m.meter.State()
	stateText := stoppedStyle.Render("● " + state.String())
	if state == capture.StateRunning {
		stateText = runningStyle.Render("● " + state.String())
	}

	device := fmt.Sprintf("%s (%s, %s)", m.meter.DeviceID(), m.meter.DeviceType(), m.meter.Backend())
	return titleStyle.Render("go-vumeter") + "  " + stateText + "  " + dimStyle.Render(device)
}

func (m Model) renderChannel(name string, vu float32, labels string, width int) string {
	angle := m.table.Angle(vu)
	reading := fmt.Sprintf("%+6.1f VU  %+6.1f°", vu, angle)
	if vu > hotZoneVu {
		reading = hotStyle.Render(reading)
	}

	pad := strings.Repeat(" ", len(name)+1)
	return pad + scaleStyle.Render(labels) + "\n" +
		labelStyle.Render(name) + " " + renderDial(m.table, vu, width) + "\n" +
		pad + reading
}

func (m Model) renderFooter() string {
	levels := m.meter.ReferenceLevels()
	source := "default"
	if levels.Override {
		source = "override"
	}
	r := m.meter.Range()
	line := dimStyle.Render(fmt.Sprintf("reference %.1f dBFS (%s)  range %+.0f..%+.0f VU",
		m.meter.ReferenceDbfs(), source, r.Min, r.Max))

	switch {
	case m.err != nil:
		line += "\n" + errorStyle.Render("error: "+m.err.Error())
	case m.status != "":
		line += "\n" + dimStyle.Render(m.status)
	}
	return line
}

func dialWidth(termWidth int) int {
	if termWidth <= 0 {
		return defaultDialWidth
	}
	return max(minDialWidth, min(maxDialWidth, termWidth-dialMargin))
}

// column maps a needle angle to a cell of a dial width cells wide.
func column(t scale.Table, angle float32, width int) int {
	lo, hi := t[0].Angle, t[len(t)-1].Angle
	if !(hi > lo) || width < 2 {
		return 0
	}
	pos := float64(angle-lo) / float64(hi-lo) * float64(width-1)
	return max(0, min(width-1, int(math.Round(pos))))
}

// dialCells lays out the dial without styling. Cells from hotFrom on are in
// the red zone.
func dialCells(t scale.Table, vu float32, width int) (cells []string, needle, hotFrom int) {
	hotFrom = column(t, t.Angle(hotZoneVu), width) + 1
	cells = make([]string, width)
	for i := range cells {
		cells[i] = scaleRune
		if i >= hotFrom {
			cells[i] = hotScaleRune
		}
	}
	for _, p := range t {
		c := column(t, p.Angle, width)
		cells[c] = tickRune
		if c >= hotFrom {
			cells[c] = hotTickRune
		}
	}
	needle = column(t, t.Angle(vu), width)
	cells[needle] = needleRune
	return cells, needle, hotFrom
}

func renderDial(t scale.Table, vu float32, width int) string {
	cells, needle, hotFrom := dialCells(t, vu, width)

	var b strings.Builder
	b.WriteString(scaleStyle.Render(strings.Join(cells[:min(needle, hotFrom)], "")))
	if needle < hotFrom {
		b.WriteString(needleStyle.Render(cells[needle]))
		b.WriteString(scaleStyle.Render(strings.Join(cells[needle+1:hotFrom], "")))
		b.WriteString(hotStyle.Render(strings.Join(cells[hotFrom:], "")))
	} else {
		b.WriteString(hotStyle.Render(strings.Join(cells[hotFrom:needle], "")))
		b.WriteString(needleStyle.Render(cells[needle]))
		b.WriteString(hotStyle.Render(strings.Join(cells[needle+1:], "")))
	}
	return b.String()
}

// scaleLabels writes the table levels above their ticks, dropping labels
// that would overlap their left neighbour.
func scaleLabels(t scale.Table, width int) string {
	line := []rune(strings.Repeat(" ", width))
	next := 0
	for _, p := range t {
		text := []rune(levelLabel(p.Level))
		start := column(t, p.Angle, width) - len(text)/2
		start = max(start, 0)
		if start < next || start+len(text) > width {
			continue
		}
		copy(line[start:], text)
		next = start + len(text) + labelSeparator
	}
	return strings.TrimRight(string(line), " ")
}

func levelLabel(level float32) string {
	if level == float32(math.Trunc(float64(level))) {
		if level > 0 {
			return fmt.Sprintf("+%d", int(level))
		}
		return fmt.Sprintf("%d", int(level))
	}
	return fmt.Sprintf("%+.1f", level)
}
