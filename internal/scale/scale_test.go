package scale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-vumeter/internal/ballistics"
)

var threePoint = Table{{-20, -47}, {0, 18}, {3, 47}}

func TestVuToAngleDeg_ThreePointTable(t *testing.T) {
	tests := []struct {
		name string
		vu   float32
		want float32
	}{
		{"below range clamps", -30, -47},
		{"above range clamps", 30, 47},
		{"at first point", -20, -47},
		{"at zero mark", 0, 18},
		{"at last point", 3, 47},
		{"midpoint of lower segment", -10, -14.5},
		{"upper segment", 1.5, 32.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VuToAngleDeg(tt.vu, threePoint), 1e-5)
		})
	}
}

func TestVuToAngleDeg_EmptyTable(t *testing.T) {
	assert.Equal(t, float32(0), VuToAngleDeg(-5, nil))
	assert.Equal(t, float32(0), VuToAngleDeg(-5, Table{}))
}

func TestVuToAngleDeg_SinglePoint(t *testing.T) {
	tbl := Table{{0, 12}}
	assert.Equal(t, float32(12), VuToAngleDeg(-10, tbl))
	assert.Equal(t, float32(12), VuToAngleDeg(10, tbl))
}

func TestVuToAngleDeg_NaNRestsOnFirstAngle(t *testing.T) {
	assert.Equal(t, float32(-47), VuToAngleDeg(float32(math.NaN()), threePoint))
}

func TestVuToAngleDeg_ZeroWidthSegment(t *testing.T) {
	tbl := Table{{-20, -40}, {0, 0}, {0, 10}, {3, 40}}

	got := VuToAngleDeg(0, tbl)
	assert.False(t, math.IsNaN(float64(got)))
	assert.Equal(t, float32(0), got)

	// Just past the step the second segment at level 0 takes over.
	assert.InDelta(t, 10+30*(1.0/3.0), VuToAngleDeg(1, tbl), 1e-5)
}

func TestVuToAngleDeg_InteriorPointsExact(t *testing.T) {
	tbl := DefaultTable()
	for _, p := range tbl {
		assert.InDelta(t, p.Angle, VuToAngleDeg(p.Level, tbl), 1e-5, "level %v", p.Level)
	}
}

func TestVuToAngleDeg_MonotonicOverDefaultTable(t *testing.T) {
	tbl := DefaultTable()

	prev := VuToAngleDeg(-40, tbl)
	for vu := float32(-40); vu <= 10; vu += 0.05 {
		a := VuToAngleDeg(vu, tbl)
		assert.GreaterOrEqual(t, a, prev, "vu %v", vu)
		prev = a
	}
}

func TestTableAngleMethod(t *testing.T) {
	assert.Equal(t, VuToAngleDeg(-3.3, threePoint), threePoint.Angle(-3.3))
}

func TestDefaultTable_IsCopy(t *testing.T) {
	a := DefaultTable()
	a[0].Angle = 99

	b := DefaultTable()
	assert.Equal(t, float32(-47), b[0].Angle)
	assert.Len(t, b, 13)
	require.NoError(t, b.Validate(MinSchemaPoints))
}

func TestTableValidate(t *testing.T) {
	nan := float32(math.NaN())

	tests := []struct {
		name    string
		table   Table
		min     int
		wantErr error
	}{
		{"ok", threePoint, 2, nil},
		{"schema minimum", threePoint, MinSchemaPoints, nil},
		{"too few", Table{{0, 0}}, 2, ErrTooFewPoints},
		{"too few for schema", Table{{0, 0}, {1, 1}}, MinSchemaPoints, ErrTooFewPoints},
		{"unsorted", Table{{0, 0}, {-1, 5}}, 2, ErrNotSorted},
		{"nan level", Table{{0, 0}, {nan, 5}}, 2, ErrNonFinite},
		{"equal levels allowed", Table{{0, 0}, {0, 5}}, 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate(tt.min)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeTable(t *testing.T) {
	in := []Point{
		{3, 47},
		{float32(math.Inf(1)), 0},
		{-20, -47},
		{0, 18},
		{0, 19},
		{1, float32(math.NaN())},
	}

	got, err := NormalizeTable(in)
	require.NoError(t, err)

	assert.Equal(t, Table{{-20, -47}, {0, 18}, {0, 19}, {3, 47}}, got)
	require.NoError(t, got.Validate(2))

	// Input untouched.
	assert.Equal(t, float32(3), in[0].Level)
}

func TestNormalizeTable_TooFewUsable(t *testing.T) {
	_, err := NormalizeTable([]Point{{0, 0}, {float32(math.NaN()), 1}})
	require.ErrorIs(t, err, ErrTooFewPoints)

	_, err = NormalizeTable(nil)
	require.ErrorIs(t, err, ErrTooFewPoints)
}

func TestDefaultCalibration(t *testing.T) {
	c := DefaultCalibration()
	require.NoError(t, c.Validate())

	assert.Equal(t, Table{{-20, -47}, {0, 20}, {3, 47}}, c.Table())
	assert.Equal(t, float32(310), c.Pivot.X)
	assert.Equal(t, float32(362), c.Pivot.Y)
	assert.Equal(t, ballistics.DefaultConfig(), c.Ballistics())
}

func TestCalibrationValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Calibration)
	}{
		{"zero below min", func(c *Calibration) { c.Zero.Level = -30 }},
		{"max equals zero", func(c *Calibration) { c.Max.Level = c.Zero.Level }},
		{"mobility zero", func(c *Calibration) { c.MobilityNeg = 0 }},
		{"mobility one", func(c *Calibration) { c.MobilityPos = 1 }},
		{"non-finite angle", func(c *Calibration) { c.Max.Angle = float32(math.Inf(-1)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultCalibration()
			tt.mutate(&c)
			require.ErrorIs(t, c.Validate(), ErrInvalidCalibration)
		})
	}
}
