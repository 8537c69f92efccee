// Package scale maps calibrated VU readings onto needle angles.
//
// A meter face is described by a Table of (level, angle) control points sorted
// by level. VuToAngleDeg interpolates linearly between neighbouring points and
// clamps outside the table, so any table of two or more points yields a
// continuous, monotonic needle sweep.
package scale

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
)

// Table validation errors.
var (
	ErrTooFewPoints = errors.New("scale table has too few points")
	ErrNotSorted    = errors.New("scale table is not sorted by level")
	ErrNonFinite    = errors.New("scale table contains a non-finite value")
)

// Point is one calibration mark on the meter face.
type Point struct {
	Level float32 `json:"level"` // VU dB
	Angle float32 `json:"angle"` // degrees, 0 = vertical
}

// Table is an ordered list of control points, ascending by Level.
type Table []Point

// VuToAngleDeg returns the needle angle for vuDb.
//
// An empty table yields 0. Readings at or below the first level map to the
// first angle and readings at or above the last level map to the last angle.
// A NaN reading rests the needle on the first angle.
func VuToAngleDeg(vuDb float32, t Table) float32 {
	if len(t) == 0 {
		return 0
	}
	first, last := t[0], t[len(t)-1]
	if vuDb != vuDb || vuDb <= first.Level {
		return first.Angle
	}
	if vuDb >= last.Level {
		return last.Angle
	}

	for i := 1; i < len(t); i++ {
		p0, p1 := t[i-1], t[i]
		if vuDb > p1.Level {
			continue
		}
		span := p1.Level - p0.Level
		if span <= 0 {
			return p0.Angle
		}
		return p0.Angle + (vuDb-p0.Level)/span*(p1.Angle-p0.Angle)
	}
	return last.Angle
}

// Angle is shorthand for VuToAngleDeg(vuDb, t).
func (t Table) Angle(vuDb float32) float32 {
	return VuToAngleDeg(vuDb, t)
}

// Validate checks that t has at least minPoints finite points in ascending
// level order. Equal neighbouring levels are allowed.
func (t Table) Validate(minPoints int) error {
	if len(t) < minPoints {
		return fmt.Errorf("%w: got %d, need %d", ErrTooFewPoints, len(t), minPoints)
	}
	for i, p := range t {
		if !finite32(p.Level) || !finite32(p.Angle) {
			return fmt.Errorf("%w: point %d (%v, %v)", ErrNonFinite, i, p.Level, p.Angle)
		}
		if i > 0 && p.Level < t[i-1].Level {
			return fmt.Errorf("%w: point %d level %v after %v", ErrNotSorted, i, p.Level, t[i-1].Level)
		}
	}
	return nil
}

// NormalizeTable prepares points loaded from an untrusted source for use with
// VuToAngleDeg. Non-finite points are dropped and the rest are sorted by level,
// keeping the input order of equal levels. The input slice is not modified.
func NormalizeTable(points []Point) (Table, error) {
	out := make(Table, 0, len(points))
	for _, p := range points {
		if finite32(p.Level) && finite32(p.Angle) {
			out = append(out, p)
		}
	}
	if len(out) < minTablePoints {
		return nil, fmt.Errorf("%w: %d usable of %d", ErrTooFewPoints, len(out), len(points))
	}
	slices.SortStableFunc(out, func(a, b Point) int {
		return cmp.Compare(a.Level, b.Level)
	})
	return out, nil
}

// DefaultTable returns a copy of the built-in 13-point meter face.
func DefaultTable() Table {
	return slices.Clone(defaultTable)
}

func finite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
