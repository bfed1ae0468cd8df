package session

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pallasite/rainfall/pkg/hand"
	"github.com/pallasite/rainfall/pkg/rain"
)

type fakeSource struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeSource) Frame() ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type fakeDetector struct {
	hands []hand.Hand
	err   error
	calls int
}

func (f *fakeDetector) Detect(jpeg []byte) ([]hand.Hand, error) {
	f.calls++
	return f.hands, f.err
}

func (f *fakeDetector) Close() error { return nil }

func handAt(y, score float64) hand.Hand {
	var h hand.Hand
	h.Score = score
	h.Landmarks[hand.WristIndex] = hand.Landmark{X: 0.5, Y: y}
	return h
}

func newTestSession(src *fakeSource, det *fakeDetector) (*Session, *rain.Store) {
	store := rain.NewStore()
	field := rain.NewField(16, 1)
	s := New(DefaultConfig(), store, field)
	s.SetPerception(src, det)
	return s, store
}

func TestStep_TracksVisibleHand(t *testing.T) {
	src := &fakeSource{data: []byte("jpeg")}
	det := &fakeDetector{hands: []hand.Hand{handAt(0.85, 0.9)}}
	s, store := newTestSession(src, det)

	s.step()

	// Target for y=0.85 is 1.5; one smoothing step from 1.0 lands at 1.05
	st := store.Load()
	if math.Abs(st.Speed-1.05) > 1e-9 {
		t.Errorf("Expected speed 1.05 after one step, got %v", st.Speed)
	}
	if !st.Active {
		t.Error("Expected active state with a visible hand")
	}
	if s.Zone() != "pour" {
		t.Errorf("Expected pour zone for y=0.85, got %q", s.Zone())
	}
}

func TestStep_NoHandIsAMiss(t *testing.T) {
	src := &fakeSource{data: []byte("jpeg")}
	det := &fakeDetector{}
	s, store := newTestSession(src, det)

	s.step()

	st := store.Load()
	if st.Speed != 1.0 {
		t.Errorf("Expected speed to stay at nominal 1.0, got %v", st.Speed)
	}
	if st.Active {
		t.Error("Expected inactive state with no hand")
	}
	if s.Zone() != "" {
		t.Errorf("Expected empty zone, got %q", s.Zone())
	}
}

func TestStep_ZoneOutlastsBriefMisses(t *testing.T) {
	src := &fakeSource{data: []byte("jpeg")}
	det := &fakeDetector{hands: []hand.Hand{handAt(0.85, 0.9)}}
	s, store := newTestSession(src, det)

	s.step()
	if s.Zone() != "pour" {
		t.Fatalf("Expected pour zone before the misses, got %q", s.Zone())
	}

	// One dropped frame: the active flag falls immediately, the label holds
	det.hands = nil
	s.step()
	if st := store.Load(); st.Active {
		t.Error("Expected inactive state on the first miss")
	}
	if s.Zone() != "pour" {
		t.Errorf("Expected zone to survive a single miss, got %q", s.Zone())
	}

	for i := 2; i < handLostMisses; i++ {
		s.step()
	}
	if s.Zone() != "pour" {
		t.Errorf("Expected zone to survive %d misses, got %q", handLostMisses-1, s.Zone())
	}

	s.step()
	if s.Zone() != "" {
		t.Errorf("Expected zone to clear after %d misses, got %q", handLostMisses, s.Zone())
	}

	// A returning hand restores the label right away
	det.hands = []hand.Hand{handAt(0.85, 0.9)}
	s.step()
	if s.Zone() != "pour" {
		t.Errorf("Expected zone back after re-detection, got %q", s.Zone())
	}
}

func TestStep_DetectorErrorIsAMiss(t *testing.T) {
	src := &fakeSource{data: []byte("jpeg")}
	det := &fakeDetector{err: errors.New("inference failed")}
	s, store := newTestSession(src, det)

	s.step()

	st := store.Load()
	if st.Speed != 1.0 || st.Active {
		t.Errorf("Expected nominal inactive state, got %+v", st)
	}
}

func TestStep_CaptureErrorIsAMiss(t *testing.T) {
	src := &fakeSource{err: errors.New("device gone")}
	det := &fakeDetector{hands: []hand.Hand{handAt(0.85, 0.9)}}
	s, store := newTestSession(src, det)

	s.step()

	if det.calls != 0 {
		t.Error("Expected no detection attempt without a frame")
	}
	st := store.Load()
	if st.Speed != 1.0 || st.Active {
		t.Errorf("Expected nominal inactive state, got %+v", st)
	}
}

func TestStep_PrefersPrimaryHand(t *testing.T) {
	src := &fakeSource{data: []byte("jpeg")}
	det := &fakeDetector{hands: []hand.Hand{
		handAt(0.15, 0.6), // Lower score, would slow the rain
		handAt(0.85, 0.9), // Primary, speeds it up
	}}
	s, store := newTestSession(src, det)

	s.step()

	st := store.Load()
	if math.Abs(st.Speed-1.05) > 1e-9 {
		t.Errorf("Expected primary hand to steer, got speed %v", st.Speed)
	}
	if s.Zone() != "pour" {
		t.Errorf("Expected pour zone from primary hand, got %q", s.Zone())
	}
}

func TestStep_MissesEaseBackToNominal(t *testing.T) {
	src := &fakeSource{data: []byte("jpeg")}
	det := &fakeDetector{hands: []hand.Hand{handAt(0.5, 0.9)}}
	s, store := newTestSession(src, det)

	// Hold in the dead zone: speed decays 10% per step toward 0
	for i := 0; i < 10; i++ {
		s.step()
	}
	held := store.Load()
	want := math.Pow(0.9, 10)
	if math.Abs(held.Speed-want) > 1e-9 {
		t.Errorf("Expected speed %v after 10 dead-zone steps, got %v", want, held.Speed)
	}

	// Hand disappears: each miss closes 5% of the gap to nominal
	det.hands = nil
	for i := 0; i < 20; i++ {
		s.step()
	}
	idle := store.Load()
	residual := math.Abs(held.Speed-1.0) * math.Pow(0.95, 20)
	if math.Abs(math.Abs(idle.Speed-1.0)-residual) > 1e-9 {
		t.Errorf("Expected residual %v from nominal, got %v", residual, math.Abs(idle.Speed-1.0))
	}
	if idle.Active {
		t.Error("Expected inactive state after misses")
	}
	if s.Zone() != "" {
		t.Errorf("Expected empty zone while idle, got %q", s.Zone())
	}
}

func TestStep_CallsSinks(t *testing.T) {
	src := &fakeSource{data: []byte("jpeg-bytes")}
	det := &fakeDetector{hands: []hand.Hand{handAt(0.5, 0.9)}}
	s, _ := newTestSession(src, det)

	var gotFrame []byte
	var gotState rain.State
	var gotZone string
	s.OnFrame = func(jpeg []byte) { gotFrame = jpeg }
	s.OnState = func(st rain.State, zone string) { gotState, gotZone = st, zone }

	s.step()

	if string(gotFrame) != "jpeg-bytes" {
		t.Errorf("Expected frame sink to receive the capture, got %q", gotFrame)
	}
	if !gotState.Active {
		t.Error("Expected state sink to see the active flag")
	}
	if gotZone != "hold" {
		t.Errorf("Expected hold zone for y=0.5, got %q", gotZone)
	}
}

func TestRunPerception_RequiresPerception(t *testing.T) {
	store := rain.NewStore()
	s := New(DefaultConfig(), store, rain.NewField(4, 1))

	done := make(chan struct{})
	go func() {
		s.RunPerception(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected RunPerception to return without an attached camera")
	}
}

func TestRunSim_AdvancesField(t *testing.T) {
	store := rain.NewStore()
	field := rain.NewField(8, 42)
	cfg := DefaultConfig()
	cfg.SimInterval = 5 * time.Millisecond
	s := New(cfg, store, field)

	before := make([]float32, 8*3)
	field.CopyPositions(before)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunSim(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	after := make([]float32, 8*3)
	field.CopyPositions(after)

	moved := false
	for i := 1; i < len(after); i += 3 {
		if after[i] != before[i] {
			moved = true
		}
	}
	if !moved {
		t.Error("Expected particle y positions to advance")
	}
}

func TestRateMeter_ReportsPerSecond(t *testing.T) {
	var m rateMeter
	start := time.Now()

	if _, ok := m.tick(start); ok {
		t.Error("Expected no rate from the priming tick")
	}

	var got float64
	reported := false
	for i := 1; i <= 30; i++ {
		if rate, ok := m.tick(start.Add(time.Duration(i) * 50 * time.Millisecond)); ok {
			got = rate
			reported = true
			break
		}
	}
	if !reported {
		t.Fatal("Expected a rate within 30 ticks at 20Hz")
	}
	if got < 19 || got > 21 {
		t.Errorf("Expected roughly 20 ticks/sec, got %v", got)
	}
}
