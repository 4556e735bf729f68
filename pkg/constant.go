package pkg

const (
	// UNKNOWN_ELEVATION is the sentinel stored on vertices and edges without a contour sample.
	UNKNOWN_ELEVATION = 0.0

	// MIN_EDGE_COST_LENGTH is the length floor used by both profiles.
	MIN_EDGE_COST_LENGTH = 0.1

	DEFAULT_PROXIMITY_THRESHOLD = 10.0
	DEFAULT_SNAP_TOLERANCE      = 0.001
	DEFAULT_MAX_SNAP_DISTANCE   = 1000.0
)

// slope penalty, percent grade
const (
	CLIMB_GRADE_DIVISOR   = 8.0
	DESCENT_GRADE_DIVISOR = 25.0
	MIN_DESCENT_FACTOR    = 0.4
)

// category multipliers of the safe profile
const (
	HIGHWAY_MULTIPLIER   = 100.0
	STRUCTURE_MULTIPLIER = 50.0
	BIKE_LANE_MULTIPLIER = 0.0
)

const (
	PROFILE_FAST = "fast"
	PROFILE_SAFE = "safe"
)
