package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// ErrCameraDenied reports a capture device that could not be opened,
// whether missing, busy, or blocked by permissions.
var ErrCameraDenied = errors.New("camera access denied")

// Camera wraps an OpenCV video capture device and hands out JPEG frames.
// The decode Mat is reused across reads so steady-state capture does not
// allocate on the C side.
type Camera struct {
	cam    *gocv.VideoCapture
	frame  gocv.Mat
	config Config
	mu     sync.Mutex
}

// Open acquires the capture device and applies the requested geometry.
// Device failures of any kind surface as ErrCameraDenied.
func Open(cfg Config) (*Camera, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid capture config: %s", strings.Join(errs, "; "))
	}

	cam, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrCameraDenied, cfg.Device, err)
	}
	if !cam.IsOpened() {
		cam.Close()
		return nil, fmt.Errorf("%w: device %d", ErrCameraDenied, cfg.Device)
	}

	// Drivers treat these as hints; the real frame size comes from Read.
	cam.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	cam.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	cam.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	return &Camera{
		cam:    cam,
		frame:  gocv.NewMat(),
		config: cfg,
	}, nil
}

// Config returns the parameters the device was opened with.
func (c *Camera) Config() Config {
	return c.config
}

// Frame grabs one frame and returns it JPEG-encoded. The returned slice
// is owned by the caller.
func (c *Camera) Frame() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cam == nil {
		return nil, fmt.Errorf("camera closed")
	}

	if ok := c.cam.Read(&c.frame); !ok {
		return nil, fmt.Errorf("read frame from device %d failed", c.config.Device)
	}
	if c.frame.Empty() {
		return nil, fmt.Errorf("empty frame from device %d", c.config.Device)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, c.frame,
		[]int{gocv.IMWriteJpegQuality, c.config.Quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// Copy out: the buffer's backing memory dies with Close.
	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the device. Safe to call more than once.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cam == nil {
		return nil
	}
	err := c.cam.Close()
	c.cam = nil
	c.frame.Close()
	return err
}
