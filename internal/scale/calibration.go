package scale

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-vumeter/internal/ballistics"
)

// ErrInvalidCalibration indicates an unusable meter calibration.
var ErrInvalidCalibration = errors.New("invalid meter calibration")

// Mark is an (angle, level) pair on the meter face.
type Mark struct {
	Angle float32 `json:"angle"`
	Level float32 `json:"level"`
}

// Pivot is the needle rotation centre in face image pixels.
type Pivot struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Calibration holds the physical parameters of one meter face.
type Calibration struct {
	Min   Mark  `json:"min"`
	Zero  Mark  `json:"zero"`
	Max   Mark  `json:"max"`
	Pivot Pivot `json:"pivot"`

	// MobilityNeg and MobilityPos are the fractions of the remaining distance
	// the needle covers per 1/60 s frame while falling and rising.
	MobilityNeg float64 `json:"mobility_neg"`
	MobilityPos float64 `json:"mobility_pos"`
}

// DefaultCalibration returns the calibration of the stock meter face.
func DefaultCalibration() Calibration {
	return Calibration{
		Min:         Mark{Angle: defaultMinAngle, Level: defaultMinLevel},
		Zero:        Mark{Angle: defaultZeroAngle, Level: defaultZeroLevel},
		Max:         Mark{Angle: defaultMaxAngle, Level: defaultMaxLevel},
		Pivot:       Pivot{X: defaultPivotX, Y: defaultPivotY},
		MobilityNeg: defaultMobilityNeg,
		MobilityPos: defaultMobilityPos,
	}
}

// Validate checks mark ordering and mobility ranges.
func (c Calibration) Validate() error {
	if err := c.Table().Validate(minSchemaPoints); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCalibration, err)
	}
	if !(c.Min.Level < c.Zero.Level && c.Zero.Level < c.Max.Level) {
		return fmt.Errorf("%w: levels must be strictly ascending (min %v, zero %v, max %v)",
			ErrInvalidCalibration, c.Min.Level, c.Zero.Level, c.Max.Level)
	}
	if !(c.MobilityNeg > 0 && c.MobilityNeg < 1) {
		return fmt.Errorf("%w: negative mobility %v outside (0, 1)", ErrInvalidCalibration, c.MobilityNeg)
	}
	if !(c.MobilityPos > 0 && c.MobilityPos < 1) {
		return fmt.Errorf("%w: positive mobility %v outside (0, 1)", ErrInvalidCalibration, c.MobilityPos)
	}
	return nil
}

// Table returns the 3-point min/zero/max table for meters without an
// explicit scale table.
func (c Calibration) Table() Table {
	return Table{
		{Level: c.Min.Level, Angle: c.Min.Angle},
		{Level: c.Zero.Level, Angle: c.Zero.Angle},
		{Level: c.Max.Level, Angle: c.Max.Angle},
	}
}

// Ballistics returns the needle time constants for the calibration mobilities.
func (c Calibration) Ballistics() ballistics.Config {
	return ballistics.FromMobility(c.MobilityPos, c.MobilityNeg)
}
