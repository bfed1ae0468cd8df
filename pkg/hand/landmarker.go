package hand

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// ErrModelNotFound reports a missing landmark model file.
var ErrModelNotFound = errors.New("hand landmark model not found")

// LandmarkerConfig holds landmarker configuration
type LandmarkerConfig struct {
	ModelPath      string  // Path to ONNX model
	InputSize      int     // Model input edge length (square input)
	ScoreThreshold float64 // Minimum presence score (default 0.5)
}

// DefaultLandmarkerConfig returns defaults for the MediaPipe hand landmark
// model export.
func DefaultLandmarkerConfig() LandmarkerConfig {
	return LandmarkerConfig{
		ModelPath:      "models/hand_landmark.onnx",
		InputSize:      224,
		ScoreThreshold: 0.5,
	}
}

// Landmarker runs a MediaPipe-style hand landmark ONNX model through the
// OpenCV DNN module. The model is single-region: it reports zero or one
// hands per frame.
type Landmarker struct {
	net      gocv.Net
	config   LandmarkerConfig
	outNames []string
	mu       sync.Mutex // Protects inference
}

// NewLandmarker loads the ONNX model. A missing file reports
// ErrModelNotFound.
func NewLandmarker(cfg LandmarkerConfig) (*Landmarker, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load hand landmark model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	l := &Landmarker{net: net, config: cfg}
	l.outNames = outputNames(&l.net)
	return l, nil
}

// Detect runs the landmark model on one JPEG frame.
func (l *Landmarker) Detect(jpeg []byte) ([]Hand, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Decode JPEG to Mat
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	// Create blob from image
	size := image.Pt(l.config.InputSize, l.config.InputSize)
	blob := gocv.BlobFromImage(img, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	l.net.SetInput(blob, "")

	var outs []gocv.Mat
	if len(l.outNames) > 0 {
		outs = l.net.ForwardLayers(l.outNames)
	} else {
		outs = []gocv.Mat{l.net.Forward("")}
	}
	defer func() {
		for i := range outs {
			outs[i].Close()
		}
	}()

	// One head carries the 63 landmark floats; the first scalar head is
	// the hand presence score. A trailing handedness head is ignored.
	var coords []float32
	score := -1.0
	for i := range outs {
		data, err := outs[i].DataPtrFloat32()
		if err != nil {
			continue
		}
		switch {
		case len(data) >= LandmarkCount*3 && coords == nil:
			coords = append(coords, data...)
		case len(data) == 1 && score < 0:
			score = normalizeScore(float64(data[0]))
		}
	}
	if score < 0 {
		// Export without a presence head: trust the landmarks.
		score = 1
	}

	h, ok := parseHand(coords, score, l.config.ScoreThreshold, l.config.InputSize)
	if !ok {
		return nil, nil
	}
	return []Hand{h}, nil
}

// Close releases the network.
func (l *Landmarker) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.net.Close()
}

// parseHand converts the model's landmark tensor into a normalized Hand.
// coords holds x,y,z triples in input-image pixel units; the presence
// score gates acceptance.
func parseHand(coords []float32, score, threshold float64, inputSize int) (Hand, bool) {
	if len(coords) < LandmarkCount*3 || score < threshold {
		return Hand{}, false
	}

	div := float64(inputSize)
	h := Hand{Score: score}
	for i := 0; i < LandmarkCount; i++ {
		h.Landmarks[i] = Landmark{
			X: float64(coords[i*3]) / div,
			Y: float64(coords[i*3+1]) / div,
			Z: float64(coords[i*3+2]) / div,
		}
	}
	return h, true
}

// normalizeScore maps a presence head value into [0,1]. Exports with the
// sigmoid baked in pass through; raw logits get squashed.
func normalizeScore(v float64) float64 {
	if v >= 0 && v <= 1 {
		return v
	}
	return 1 / (1 + math.Exp(-v))
}

// outputNames resolves the network's unconnected output layers.
func outputNames(net *gocv.Net) []string {
	var names []string
	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		name := layer.GetName()
		layer.Close()
		if name != "_input" {
			names = append(names, name)
		}
	}
	return names
}
