// Rainfall renders a field of falling rain particles whose speed
// follows the height of a hand in front of the webcam. Raise the hand
// to slow and reverse the rain, lower it to pour.
//
// Usage:
//
//	rainfall [flags]
//
// Flags override RAINFALL_* environment variables, which override the
// optional JSON config file, which overrides built-in defaults.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pallasite/rainfall/internal/config"
	"github.com/pallasite/rainfall/internal/log"
)

func main() {
	cfg := parseFlags()

	log.Init(cfg.LogLevel)

	app, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := app.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "❌ Runtime error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags layers CLI flags over the file/env/default configuration.
// A zero or empty flag value means "not set, keep the configured value".
func parseFlags() config.App {
	var (
		configPath = flag.String("config", os.Getenv("RAINFALL_CONFIG"), "Path to JSON config file")
		particles  = flag.Int("particles", 0, "Number of rain particles")
		rainColor  = flag.String("color", "", "Rain color, #rgb or #rrggbb")
		cameraDev  = flag.Int("camera", -1, "Camera device index")
		modelPath  = flag.String("model", "", "Path to the hand landmark ONNX model")
		detectHz   = flag.Float64("detect-hz", 0, "Hand detection attempts per second")
		port       = flag.Int("port", 0, "Dashboard HTTP port")
		headless   = flag.Bool("headless", false, "Run without a window")
		mute       = flag.Bool("mute", false, "Disable the rain ambience")
		noServe    = flag.Bool("noserve", false, "Disable the dashboard server")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	if *particles > 0 {
		cfg.ParticleCount = *particles
	}
	if *rainColor != "" {
		cfg.RainColor = *rainColor
	}
	if *cameraDev >= 0 {
		cfg.CameraDevice = *cameraDev
	}
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}
	if *detectHz > 0 {
		cfg.DetectHz = *detectHz
	}
	if *port > 0 {
		cfg.HTTPPort = *port
	}
	if *headless {
		cfg.Headless = true
	}
	if *mute {
		cfg.Mute = true
	}
	if *noServe {
		cfg.NoServe = true
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	return cfg
}
