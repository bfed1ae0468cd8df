// Package hand provides hand landmark detection for gesture control.
package hand

// LandmarkCount is the number of points the landmark model reports per hand.
const LandmarkCount = 21

// WristIndex is the landmark the gesture mapper consumes.
const WristIndex = 0

// Landmark is one normalized 3-D point on a detected hand. X and Y are
// frame coordinates (0-1, y grows downward); Z is relative depth on the
// same scale.
type Landmark struct {
	X, Y, Z float64
}

// Hand is one detected hand: an ordered landmark set plus the model's
// presence score.
type Hand struct {
	Landmarks [LandmarkCount]Landmark
	Score     float64 // presence confidence, 0-1
}

// Wrist returns the wrist landmark.
func (h Hand) Wrist() Landmark {
	return h.Landmarks[WristIndex]
}

// Detector is the interface for hand landmark backends.
type Detector interface {
	// Detect finds hands in the JPEG frame. A frame with no visible hand
	// returns an empty slice and a nil error.
	Detect(jpeg []byte) ([]Hand, error)

	// Close releases resources.
	Close() error
}

// SelectPrimary picks the hand the gesture mapper follows. With more than
// one candidate the highest presence score wins; the rest are ignored.
func SelectPrimary(hands []Hand) (Hand, bool) {
	if len(hands) == 0 {
		return Hand{}, false
	}

	best := 0
	for i := 1; i < len(hands); i++ {
		if hands[i].Score > hands[best].Score {
			best = i
		}
	}
	return hands[best], true
}
