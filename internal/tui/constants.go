package tui

import "time"

const (
	frameInterval = time.Second / 30

	defaultDialWidth = 60
	minDialWidth     = 20
	maxDialWidth     = 100
	dialMargin       = 12 // channel label, box border and padding

	referenceStep  = 1.0 // dB per key press
	switchTimeout  = 10 * time.Second
	hotZoneVu      = 0.0 // readings above 0 VU are drawn in red
	needleRune     = "┃"
	scaleRune      = "─"
	hotScaleRune   = "━"
	tickRune       = "┬"
	hotTickRune    = "┳"
	labelSeparator = 1
)
