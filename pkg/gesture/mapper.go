// Package gesture converts detected hand height into the rain speed signal.
//
// The wrist's vertical position in the camera frame maps through a piecewise
// curve to a target speed: a hand held high runs the rain backwards, the band
// around the frame center holds it still, and a low hand pours it down at up
// to twice the nominal rate. A small exponential filter smooths the target
// into the speed the simulation actually consumes.
package gesture

// Curve breakpoints in normalized frame coordinates (0 = top of frame,
// 1 = bottom). Target is continuous at every breakpoint; the tests pin that
// down, so neighbouring segments must be changed together.
const (
	ascendEnd = 0.30 // above: strongest rise, T in [-2, -0.5)
	holdLow   = 0.45 // dead zone lower edge
	holdHigh  = 0.55 // dead zone upper edge
	pourStart = 0.70 // below: faster than nominal fall, T in (1, 2]
)

// Smoothing rates applied once per perception frame.
const (
	trackRate = 0.1  // hand visible: follow the target
	idleRate  = 0.05 // no hand: relax toward nominal
)

// NominalSpeed is the resting fall rate the rain returns to when no hand
// is visible.
const NominalSpeed = 1.0

// Target maps a normalized vertical hand position to a raw target speed in
// roughly [-2, 2]. Continuous and monotonically non-decreasing in y. Inside
// the dead zone the result is exactly zero.
func Target(y float64) float64 {
	switch {
	case y < ascendEnd:
		return -2.0 + (y/ascendEnd)*1.5
	case y <= holdLow:
		return -0.5 + ((y-ascendEnd)/0.15)*0.5
	case y < holdHigh:
		return 0
	case y <= pourStart:
		return (y - holdHigh) / 0.15
	default:
		return 1.0 + (y-pourStart)/0.30
	}
}

// Zone names the band a hand position falls into. Display only; the update
// rule never branches on it.
type Zone string

const (
	ZoneAscend Zone = "ascend" // rain rises fast
	ZoneDrift  Zone = "drift"  // rain rises gently
	ZoneHold   Zone = "hold"   // rain frozen
	ZoneFall   Zone = "fall"   // nominal-ish fall
	ZonePour   Zone = "pour"   // faster than nominal
)

// ZoneOf classifies a normalized vertical position into its band.
func ZoneOf(y float64) Zone {
	switch {
	case y < ascendEnd:
		return ZoneAscend
	case y <= holdLow:
		return ZoneDrift
	case y < holdHigh:
		return ZoneHold
	case y <= pourStart:
		return ZoneFall
	default:
		return ZonePour
	}
}

// Mapper smooths raw targets into the speed signal shared with the
// simulation. It is not safe for concurrent use; it belongs to the
// perception loop.
type Mapper struct {
	speed  float64
	active bool
}

// NewMapper returns a mapper at the resting state: nominal fall, no hand.
func NewMapper() *Mapper {
	return &Mapper{speed: NominalSpeed}
}

// Observe consumes one detected hand height and moves the speed toward the
// curve's target for that height.
func (m *Mapper) Observe(y float64) {
	m.speed += (Target(y) - m.speed) * trackRate
	m.active = true
}

// ObserveMiss records a perception frame with no hand. The speed relaxes
// toward the nominal fall rate.
func (m *Mapper) ObserveMiss() {
	m.speed += (NominalSpeed - m.speed) * idleRate
	m.active = false
}

// Speed returns the current smoothed speed.
func (m *Mapper) Speed() float64 {
	return m.speed
}

// Active reports whether the most recent perception frame contained a hand.
func (m *Mapper) Active() bool {
	return m.active
}
