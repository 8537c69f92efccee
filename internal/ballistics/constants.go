package ballistics

// Mobility conversion constants
const (
	// mobilityFramePeriod is the UI frame period mobility values refer to (60 fps).
	mobilityFramePeriod = 1.0 / 60.0

	// Default calibration mobilities (fraction of remaining distance per frame)
	defaultMobilityPositive = 0.10
	defaultMobilityNegative = 0.05
)
