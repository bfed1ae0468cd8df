// Package sound synthesizes the rain ambience for the desktop window.
package sound

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"
)

const (
	// SampleRate for the ambience stream
	SampleRate = 44100

	bytesPerFrame = 4 // 16-bit stereo

	// Per-chunk easing toward the target amplitude, avoids clicks on
	// speed changes
	amplitudeEase = 0.08

	// Mix of low rumble (brown) versus hiss (white)
	brownWeight = 0.65
	whiteWeight = 0.35

	peak = 30000
)

// Stream is an endless io.Reader of 16-bit little-endian stereo PCM.
// It mixes brown and white noise so light rain reads as a low rumble
// and hard rain as a hiss. The render loop only touches the set point;
// everything else belongs to the audio goroutine calling Read.
type Stream struct {
	// Intensity set point as float64 bits
	target atomic.Uint64

	amplitude float64
	rng       *rand.Rand
	brown     float64
}

// NewStream creates a silent stream; raise the intensity to hear rain.
func NewStream() *Stream {
	return &Stream{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetIntensity sets the loudness target in [0, 1]. Safe to call from
// any goroutine.
func (s *Stream) SetIntensity(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	s.target.Store(math.Float64bits(v))
}

// IntensityForSpeed maps a signed rain speed to loudness. Reversed rain
// is as loud as falling rain.
func IntensityForSpeed(speed float64) float64 {
	v := math.Abs(speed) / 2
	if v > 1 {
		v = 1
	}
	return v
}

// Read fills p with whole stereo frames and never runs dry.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	// Ensure we generate whole stereo frames (4 bytes per frame).
	frameBytes := len(p) - len(p)%bytesPerFrame
	if frameBytes == 0 {
		return 0, nil
	}

	// Ease the amplitude once per chunk
	target := math.Float64frombits(s.target.Load())
	s.amplitude += (target - s.amplitude) * amplitudeEase

	for i := 0; i < frameBytes; i += bytesPerFrame {
		white := s.rng.Float64()*2 - 1

		// Leaky integration of white noise gives the brown rumble
		s.brown = (s.brown + 0.02*white) / 1.02

		mix := (s.brown*3.5*brownWeight + white*whiteWeight) * s.amplitude
		if mix > 1 {
			mix = 1
		} else if mix < -1 {
			mix = -1
		}

		v := int16(mix * peak)
		p[i] = byte(v)
		p[i+1] = byte(v >> 8)
		p[i+2] = p[i]
		p[i+3] = p[i+1]
	}
	return frameBytes, nil
}

// Close implements io.Closer for the audio player.
func (s *Stream) Close() error {
	return nil
}
