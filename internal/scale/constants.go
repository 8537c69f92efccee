package scale

// Table size limits
const (
	minTablePoints  = 2 // interpolation needs one segment
	minSchemaPoints = 3 // min/zero/max marks of a calibration
)

// MinSchemaPoints is the point count required by the strict meter schema.
const MinSchemaPoints = minSchemaPoints

// defaultTable is the hand-calibrated face of the stock meter.
var defaultTable = Table{
	{-20, -47},
	{-10, -34},
	{-7, -25},
	{-6, -21},
	{-5, -16},
	{-4, -11},
	{-3, -5},
	{-2, 2},
	{-1, 9},
	{0, 18},
	{1, 27},
	{2, 38},
	{3, 47},
}

// Default calibration of the stock meter
const (
	defaultMinAngle  = -47.0
	defaultMinLevel  = -20.0
	defaultZeroAngle = 20.0
	defaultZeroLevel = 0.0
	defaultMaxAngle  = 47.0
	defaultMaxLevel  = 3.0

	defaultPivotX = 310.0
	defaultPivotY = 362.0

	defaultMobilityNeg = 0.05
	defaultMobilityPos = 0.10
)
