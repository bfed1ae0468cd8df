// Package session wires hand perception to the shared rain state and
// drives the particle field when no window owns it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pallasite/rainfall/internal/log"
	"github.com/pallasite/rainfall/pkg/gesture"
	"github.com/pallasite/rainfall/pkg/hand"
	"github.com/pallasite/rainfall/pkg/rain"
)

// FrameSource hands out JPEG frames
type FrameSource interface {
	Frame() ([]byte, error)
}

// Consecutive misses before the displayed zone clears; a single dropped
// frame keeps its label
const handLostMisses = 5

// Throttle for error-path warnings, in perception steps
const errorLogEvery = 75

// Config holds session timing parameters
type Config struct {
	DetectInterval time.Duration // Perception cadence
	SimInterval    time.Duration // Headless simulation cadence
}

// DefaultConfig returns the standard cadences: 15Hz detection, 60Hz
// simulation.
func DefaultConfig() Config {
	return Config{
		DetectInterval: time.Second / 15,
		SimInterval:    time.Second / 60,
	}
}

// Session owns the perception loop and the smoothed gesture state.
// Perception runs on one goroutine; the field is advanced either by
// RunSim or by an attached window, never both.
type Session struct {
	config Config

	source   FrameSource
	detector hand.Detector

	mapper *gesture.Mapper
	store  *rain.Store
	field  *rain.Field

	mu     sync.RWMutex
	zone   string
	misses int

	detectMeter rateMeter
	simMeter    rateMeter

	// Observation sinks, all optional
	OnState      func(st rain.State, zone string) // After every perception step
	OnFrame      func(jpeg []byte)                // After every captured frame
	OnField      func(f *rain.Field)              // After every RunSim advance
	OnDetectRate func(fps float64)                // Roughly once per second
	OnSimRate    func(fps float64)                // Roughly once per second
}

// New creates a session around the shared store and particle field.
func New(config Config, store *rain.Store, field *rain.Field) *Session {
	return &Session{
		config: config,
		mapper: gesture.NewMapper(),
		store:  store,
		field:  field,
	}
}

// SetPerception attaches the camera and detector. Perception stays
// disabled until both are present.
func (s *Session) SetPerception(source FrameSource, detector hand.Detector) {
	s.source = source
	s.detector = detector
}

// PerceptionReady reports whether both camera and detector are attached.
func (s *Session) PerceptionReady() bool {
	return s.source != nil && s.detector != nil
}

// Zone returns the gesture zone of the last observation, empty while no
// hand is steering.
func (s *Session) Zone() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zone
}

// RunPerception drives perception at the detect cadence until ctx ends.
// Steps run synchronously on this goroutine, so at most one detection is
// in flight and ticks that arrive mid-step are simply dropped.
func (s *Session) RunPerception(ctx context.Context) {
	if !s.PerceptionReady() {
		return
	}

	ticker := time.NewTicker(s.config.DetectInterval)
	defer ticker.Stop()

	log.Info("perception started", "interval", s.config.DetectInterval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.step()
		}
	}
}

// step runs one perception cycle: capture, detect, fold the observation
// into the smoothed state, publish the snapshot.
func (s *Session) step() {
	frame, err := s.source.Frame()
	if err != nil {
		s.miss(fmt.Errorf("capture: %w", err))
		return
	}
	if s.OnFrame != nil {
		s.OnFrame(frame)
	}

	hands, err := s.detector.Detect(frame)
	if err != nil {
		s.miss(fmt.Errorf("detect: %w", err))
		return
	}

	primary, ok := hand.SelectPrimary(hands)
	if !ok {
		// No visible hand. Not an error, just a miss.
		s.miss(nil)
		return
	}

	y := primary.Wrist().Y
	s.mapper.Observe(y)

	s.mu.Lock()
	s.zone = string(gesture.ZoneOf(y))
	s.misses = 0
	s.mu.Unlock()

	s.publish()
}

// miss eases the state back toward nominal. The zone label outlives
// brief gaps; only a sustained loss blanks it. err is nil for a plain
// no-hand frame.
func (s *Session) miss(err error) {
	s.mapper.ObserveMiss()

	s.mu.Lock()
	s.misses++
	misses := s.misses
	if misses >= handLostMisses {
		s.zone = ""
	}
	s.mu.Unlock()

	if err != nil {
		if misses%errorLogEvery == 1 {
			log.Warn("perception miss", "error", err, "consecutive", misses)
		}
	} else if misses == handLostMisses {
		log.Debug("hand lost", "consecutive", misses)
	}

	s.publish()
}

func (s *Session) publish() {
	st := rain.State{Speed: s.mapper.Speed(), Active: s.mapper.Active()}
	s.store.Publish(st)

	if s.OnState != nil {
		s.OnState(st, s.Zone())
	}
	if rate, ok := s.detectMeter.tick(time.Now()); ok && s.OnDetectRate != nil {
		s.OnDetectRate(rate)
	}
}

// RunSim advances the field from wall-clock deltas at the sim cadence.
// Only used in headless mode; with a window attached the view owns the
// field instead.
func (s *Session) RunSim(ctx context.Context) {
	ticker := time.NewTicker(s.config.SimInterval)
	defer ticker.Stop()

	log.Info("simulation started", "interval", s.config.SimInterval, "particles", s.field.Count())

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds()
			if delta < 0 {
				delta = 0
			}
			last = now

			st := s.store.Load()
			s.field.Advance(delta, st.Speed)

			if s.OnField != nil {
				s.OnField(s.field)
			}
			if rate, ok := s.simMeter.tick(now); ok && s.OnSimRate != nil {
				s.OnSimRate(rate)
			}
		}
	}
}

// rateMeter reports an event rate roughly once per second.
type rateMeter struct {
	count int
	last  time.Time
}

func (r *rateMeter) tick(now time.Time) (float64, bool) {
	if r.last.IsZero() {
		r.last = now
		return 0, false
	}
	r.count++

	elapsed := now.Sub(r.last)
	if elapsed < time.Second {
		return 0, false
	}
	rate := float64(r.count) / elapsed.Seconds()
	r.count = 0
	r.last = now
	return rate, true
}
