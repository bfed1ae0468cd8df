// Package capture reads JPEG frames from a local webcam through OpenCV.
package capture

// Config holds the capture device parameters. They are applied once at
// open time; the device is not reconfigured while running.
type Config struct {
	// === Device ===
	Device int `json:"device"` // Video device index (V4L2 on Linux)

	// === Frames ===
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS
	Quality   int `json:"quality"`   // JPEG quality 1-100
}

// Limits for consumer webcams
const (
	MaxWidth  = 4096
	MaxHeight = 2160
)

// DefaultConfig returns the standard low-latency webcam configuration.
// 640x480 keeps detection cheap without starving the landmark model.
func DefaultConfig() Config {
	return Config{
		Device:    0,
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   80,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must be >= 0")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 4096")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
