// Package config provides process-wide configuration for rainfall commands.
package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"strconv"
)

// Default configuration values.
const (
	DefaultParticleCount = 15000
	DefaultRainColor     = "#8cb4ff"
	DefaultModelPath     = "models/hand_landmark.onnx"
	DefaultHTTPPort      = 8791

	// MaxParticleCount bounds allocation; beyond this the draw cost
	// dominates and the toy stops being interactive.
	MaxParticleCount = 2_000_000
)

// App holds all configuration for the rainfall binary.
// Flag parsing is done in cmd/rainfall/main.go; this struct is data only.
type App struct {
	// === Simulation ===
	ParticleCount int     `json:"particle_count"` // Particles to allocate, fixed for the process
	RainColor     string  `json:"rain_color"`     // Display color, #rgb or #rrggbb
	SimHz         float64 `json:"sim_hz"`         // Simulation tick rate in headless mode

	// === Perception ===
	CameraDevice int     `json:"camera_device"` // V4L2 / AVFoundation device index
	CameraWidth  int     `json:"camera_width"`
	CameraHeight int     `json:"camera_height"`
	ModelPath    string  `json:"model_path"` // Hand landmark ONNX file
	DetectHz     float64 `json:"detect_hz"`  // Detection attempts per second

	// === Surfaces ===
	HTTPPort int  `json:"http_port"`
	Headless bool `json:"headless"` // No window; simulation runs on its own ticker
	Mute     bool `json:"mute"`     // Disable rain ambience audio
	NoServe  bool `json:"no_serve"` // Disable the dashboard server

	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string `json:"log_level"`
}

// DefaultApp returns the recommended configuration.
func DefaultApp() App {
	return App{
		ParticleCount: DefaultParticleCount,
		RainColor:     DefaultRainColor,
		SimHz:         60,

		CameraDevice: 0,
		CameraWidth:  640,
		CameraHeight: 480,
		ModelPath:    DefaultModelPath,
		DetectHz:     15,

		HTTPPort: DefaultHTTPPort,
		LogLevel: "info",
	}
}

// Load builds the effective configuration from the optional JSON file
// at path, layered over defaults and under RAINFALL_* environment
// overrides. Flags parsed in main still win over everything here.
// Priority (highest to lowest): CLI flags > environment > file > defaults.
func Load(path string) (App, error) {
	cfg := DefaultApp()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.LoadEnv()
	return cfg, nil
}

// LoadEnv applies RAINFALL_* environment overrides.
// Call this after defaults are in place; flags parsed in main still win.
func (a *App) LoadEnv() {
	envInt("RAINFALL_PARTICLES", &a.ParticleCount)
	envStr("RAINFALL_COLOR", &a.RainColor)
	envFloat("RAINFALL_SIM_HZ", &a.SimHz)
	envInt("RAINFALL_CAMERA", &a.CameraDevice)
	envStr("RAINFALL_MODEL", &a.ModelPath)
	envFloat("RAINFALL_DETECT_HZ", &a.DetectHz)
	envInt("RAINFALL_PORT", &a.HTTPPort)
	envBool("RAINFALL_HEADLESS", &a.Headless)
	envBool("RAINFALL_MUTE", &a.Mute)
	envBool("RAINFALL_NO_SERVE", &a.NoServe)
	envStr("RAINFALL_LOG_LEVEL", &a.LogLevel)
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (a *App) Validate() []string {
	var errors []string

	if a.ParticleCount < 1 || a.ParticleCount > MaxParticleCount {
		errors = append(errors, fmt.Sprintf("particle_count must be between 1 and %d", MaxParticleCount))
	}
	if _, err := ParseHexColor(a.RainColor); err != nil {
		errors = append(errors, "rain_color must be #rgb or #rrggbb")
	}
	if a.SimHz <= 0 || a.SimHz > 240 {
		errors = append(errors, "sim_hz must be between 1 and 240")
	}

	if a.CameraDevice < 0 {
		errors = append(errors, "camera_device must be 0 or greater")
	}
	if a.CameraWidth < 160 || a.CameraWidth > 4096 {
		errors = append(errors, "camera_width must be between 160 and 4096")
	}
	if a.CameraHeight < 120 || a.CameraHeight > 2160 {
		errors = append(errors, "camera_height must be between 120 and 2160")
	}
	if a.ModelPath == "" {
		errors = append(errors, "model_path must not be empty")
	}
	if a.DetectHz <= 0 || a.DetectHz > 60 {
		errors = append(errors, "detect_hz must be between 1 and 60")
	}

	if a.HTTPPort < 1 || a.HTTPPort > 65535 {
		errors = append(errors, "http_port must be between 1 and 65535")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[a.LogLevel] {
		errors = append(errors, "log_level must be debug, info, warn, or error")
	}

	return errors
}

// Color returns the parsed rain color.
func (a *App) Color() (color.RGBA, error) {
	return ParseHexColor(a.RainColor)
}

// ParseHexColor parses "#rgb" or "#rrggbb" into an opaque color.
func ParseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	if len(s) == 0 || s[0] != '#' {
		return c, fmt.Errorf("color %q: must start with '#'", s)
	}

	hex := s[1:]
	switch len(hex) {
	case 3:
		// #rgb expands each nibble, f -> ff
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(hex[i:i+1], 16, 8)
			if err != nil {
				return c, fmt.Errorf("color %q: %w", s, err)
			}
			setChannel(&c, i, uint8(v*16+v))
		}
	case 6:
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
			if err != nil {
				return c, fmt.Errorf("color %q: %w", s, err)
			}
			setChannel(&c, i, uint8(v))
		}
	default:
		return c, fmt.Errorf("color %q: want 3 or 6 hex digits", s)
	}

	return c, nil
}

func setChannel(c *color.RGBA, i int, v uint8) {
	switch i {
	case 0:
		c.R = v
	case 1:
		c.G = v
	case 2:
		c.B = v
	}
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || v == "true" || v == "yes"
	}
}
