package hand

import (
	"math"
	"testing"
)

// makeCoords builds a full landmark tensor with the wrist triple set
// explicitly and the remaining points spread out.
func makeCoords(wristX, wristY, wristZ float32) []float32 {
	coords := make([]float32, LandmarkCount*3)
	for i := 1; i < LandmarkCount; i++ {
		coords[i*3] = float32(i)
		coords[i*3+1] = float32(i * 2)
	}
	coords[0], coords[1], coords[2] = wristX, wristY, wristZ
	return coords
}

func TestParseHand_NormalizesByInputSize(t *testing.T) {
	coords := makeCoords(112, 56, -11.2)

	h, ok := parseHand(coords, 0.9, 0.5, 224)
	if !ok {
		t.Fatal("Expected a hand from a full tensor above threshold")
	}

	w := h.Wrist()
	if math.Abs(w.X-0.5) > 1e-6 {
		t.Errorf("Expected wrist X 0.5, got %v", w.X)
	}
	if math.Abs(w.Y-0.25) > 1e-6 {
		t.Errorf("Expected wrist Y 0.25, got %v", w.Y)
	}
	if math.Abs(w.Z+0.05) > 1e-6 {
		t.Errorf("Expected wrist Z -0.05, got %v", w.Z)
	}
	if h.Score != 0.9 {
		t.Errorf("Expected score 0.9, got %v", h.Score)
	}
}

func TestParseHand_GatesOnScore(t *testing.T) {
	coords := makeCoords(10, 10, 0)

	if _, ok := parseHand(coords, 0.2, 0.5, 224); ok {
		t.Error("Expected score below threshold to be rejected")
	}
	if _, ok := parseHand(coords, 0.5, 0.5, 224); !ok {
		t.Error("Expected score at threshold to be accepted")
	}
}

func TestParseHand_ShortTensor(t *testing.T) {
	if _, ok := parseHand(make([]float32, 10), 0.9, 0.5, 224); ok {
		t.Error("Expected short tensor to be rejected")
	}
	if _, ok := parseHand(nil, 0.9, 0.5, 224); ok {
		t.Error("Expected nil tensor to be rejected")
	}
}

func TestNormalizeScore(t *testing.T) {
	if got := normalizeScore(0.7); got != 0.7 {
		t.Errorf("Expected in-range score to pass through, got %v", got)
	}
	if got := normalizeScore(0); got != 0 {
		t.Errorf("Expected 0 to pass through, got %v", got)
	}
	if got := normalizeScore(4); got <= 0.5 || got > 1 {
		t.Errorf("Expected logit 4 to squash into (0.5, 1], got %v", got)
	}
	if got := normalizeScore(-3); got >= 0.5 || got < 0 {
		t.Errorf("Expected logit -3 to squash into [0, 0.5), got %v", got)
	}
}

func TestSelectPrimary(t *testing.T) {
	if _, ok := SelectPrimary(nil); ok {
		t.Error("Expected no primary hand from empty slice")
	}

	low := Hand{Score: 0.6}
	high := Hand{Score: 0.9}

	got, ok := SelectPrimary([]Hand{low, high})
	if !ok {
		t.Fatal("Expected a primary hand")
	}
	if got.Score != 0.9 {
		t.Errorf("Expected highest-score hand, got score %v", got.Score)
	}

	got, ok = SelectPrimary([]Hand{low})
	if !ok || got.Score != 0.6 {
		t.Errorf("Expected single hand to be primary, got %v ok=%v", got.Score, ok)
	}
}

func TestHand_Wrist(t *testing.T) {
	var h Hand
	h.Landmarks[WristIndex] = Landmark{X: 0.3, Y: 0.7, Z: 0.1}

	w := h.Wrist()
	if w.X != 0.3 || w.Y != 0.7 || w.Z != 0.1 {
		t.Errorf("Expected wrist landmark {0.3 0.7 0.1}, got %+v", w)
	}
}
