// Package web provides the rainfall observation server: a small dashboard
// plus live websocket streams for rain state, particle positions, and the
// camera feed.
package web

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/pallasite/rainfall/internal/log"
	"github.com/pallasite/rainfall/pkg/hub"
	"github.com/pallasite/rainfall/pkg/protocol"
	"github.com/pallasite/rainfall/pkg/rain"
)

// Status is the live health snapshot served at /api/status and pushed to
// state stream clients. Clients and UptimeSec are filled in at read time.
type Status = protocol.StatusData

// Info describes the running simulation for dashboard bootstrap. Served
// once at /api/config; none of it changes while the process runs.
type Info struct {
	ParticleCount int     `json:"particle_count"`
	RainColor     string  `json:"rain_color"`
	RangeX        float64 `json:"range_x"`
	RangeY        float64 `json:"range_y"`
	RangeZ        float64 `json:"range_z"`
	SimHz         float64 `json:"sim_hz"`
	DetectHz      float64 `json:"detect_hz"`
}

// Broadcast rate caps per stream. Publishers may call far more often
// than clients need; excess calls are dropped here.
const (
	stateInterval    = time.Second / 30
	particleInterval = time.Second / 20
	frameInterval    = time.Second / 10
)

// Server is the observation server. A nil *Server is a valid no-op so
// callers can publish unconditionally even when serving is disabled.
type Server struct {
	app     *fiber.App
	port    int
	info    Info
	started time.Time

	status   Status
	statusMu sync.RWMutex

	// Hubs for websocket broadcast (thread-safe!)
	stateHub    *hub.Hub
	particleHub *hub.Hub
	cameraHub   *hub.Hub

	// Publish clocks for rate capping
	mu           sync.Mutex
	lastState    time.Time
	lastParticle time.Time
	lastFrame    time.Time
}

// NewServer creates the observation server. staticDir is served at the
// root; info is the /api/config payload.
func NewServer(port int, staticDir string, info Info) *Server {
	s := &Server{
		port:        port,
		info:        info,
		started:     time.Now(),
		stateHub:    hub.New("state"),
		particleHub: hub.New("particles"),
		cameraHub:   hub.New("camera"),
	}
	s.status.Speed = rain.DefaultState().Speed

	app := fiber.New(fiber.Config{
		AppName:               "Rainfall Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", staticDir)

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/config", s.handleConfig)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/state", websocket.New(s.handleStateWS))
	app.Get("/ws/particles", websocket.New(s.handleParticlesWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start runs the hubs and serves HTTP. Blocks until the listener fails
// or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go s.stateHub.Run(ctx)
	go s.particleHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	log.Info("dashboard listening", "url", fmt.Sprintf("http://localhost:%d", s.port))
	return s.app.Listen(fmt.Sprintf(":%d", s.port))
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			log.Error("web server stopped", "error", err)
		}
	}()
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	if s == nil {
		return nil
	}
	return s.app.Shutdown()
}

// Snapshot returns the current status with live uptime and client count.
func (s *Server) Snapshot() Status {
	s.statusMu.RLock()
	st := s.status
	s.statusMu.RUnlock()

	st.Clients = s.stateHub.ClientCount() + s.particleHub.ClientCount() + s.cameraHub.ClientCount()
	st.UptimeSec = int64(time.Since(s.started).Seconds())
	return st
}

// UpdateStatus applies an update and pushes the new status to state
// stream clients. Status changes are sporadic, so they are not rate
// capped.
func (s *Server) UpdateStatus(update func(*Status)) {
	if s == nil {
		return
	}

	s.statusMu.Lock()
	update(&s.status)
	st := s.status // Copy for broadcast
	s.statusMu.Unlock()

	msg, err := protocol.NewStatusMessage(st)
	if err != nil {
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		return
	}
	s.stateHub.Broadcast(hub.NewJSONMessage(data))
}

// PublishState broadcasts a rain state snapshot to state stream clients.
func (s *Server) PublishState(speed float64, active bool, zone string) {
	if s == nil {
		return
	}

	s.mu.Lock()
	if time.Since(s.lastState) < stateInterval {
		s.mu.Unlock()
		return
	}
	s.lastState = time.Now()
	s.mu.Unlock()

	msg, err := protocol.NewStateMessage(speed, active, zone)
	if err != nil {
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		return
	}
	s.stateHub.Broadcast(hub.NewJSONMessage(data))
}

// PublishParticles broadcasts the field's positions as little-endian
// float32 x,y,z triples. Skipped entirely when nobody is watching; the
// buffer is handed to the hub, so a fresh one is built per broadcast.
func (s *Server) PublishParticles(field *rain.Field) {
	if s == nil || field == nil {
		return
	}

	s.mu.Lock()
	if time.Since(s.lastParticle) < particleInterval {
		s.mu.Unlock()
		return
	}
	s.lastParticle = time.Now()
	s.mu.Unlock()

	if s.particleHub.ClientCount() == 0 {
		return
	}

	positions := make([]float32, field.Count()*3)
	n := field.CopyPositions(positions)

	buf := make([]byte, n*4)
	for i, v := range positions[:n] {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	s.particleHub.BroadcastBinary(buf)
}

// PublishFrame broadcasts one JPEG camera frame.
func (s *Server) PublishFrame(jpeg []byte) {
	if s == nil || len(jpeg) == 0 {
		return
	}

	s.mu.Lock()
	if time.Since(s.lastFrame) < frameInterval {
		s.mu.Unlock()
		return
	}
	s.lastFrame = time.Now()
	s.mu.Unlock()

	if s.cameraHub.ClientCount() == 0 {
		return
	}
	s.cameraHub.BroadcastBinary(jpeg)
}
