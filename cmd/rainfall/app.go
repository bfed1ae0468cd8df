package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pallasite/rainfall/internal/config"
	"github.com/pallasite/rainfall/internal/log"
	"github.com/pallasite/rainfall/pkg/capture"
	"github.com/pallasite/rainfall/pkg/hand"
	"github.com/pallasite/rainfall/pkg/rain"
	"github.com/pallasite/rainfall/pkg/session"
	"github.com/pallasite/rainfall/pkg/sound"
	"github.com/pallasite/rainfall/pkg/view"
	"github.com/pallasite/rainfall/pkg/web"
)

// Messages shown when gesture control cannot come up. The rain keeps
// falling at nominal speed either way.
const (
	errModelLoad    = "AI model failed to load"
	errCameraDenied = "camera access denied"
)

// App wires the simulation, perception, window, sound and dashboard
// together and manages their lifecycle.
type App struct {
	cfg config.App

	store *rain.Store
	field *rain.Field
	sess  *session.Session

	detector *hand.Landmarker
	camera   *capture.Camera
	server   *web.Server
	player   *sound.Player

	// banner carries the gesture failure message to the window HUD and
	// the dashboard status. Empty while the pipeline is healthy.
	banner string
}

func newApp(cfg config.App) (*App, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.New(strings.Join(errs, "; "))
	}
	return &App{cfg: cfg}, nil
}

// Init brings up every subsystem. Only configuration problems are
// fatal; a missing model or camera just disables gesture control.
func (a *App) Init() error {
	fmt.Println("🌧️  Rainfall - hand-steered particle rain")
	fmt.Println("=========================================")
	fmt.Printf("   %d particles, color %s\n", a.cfg.ParticleCount, a.cfg.RainColor)

	a.store = rain.NewStore()
	a.field = rain.NewField(a.cfg.ParticleCount, time.Now().UnixNano())
	a.sess = session.New(session.Config{
		DetectInterval: hzInterval(a.cfg.DetectHz),
		SimInterval:    hzInterval(a.cfg.SimHz),
	}, a.store, a.field)

	a.initPerception()

	if !a.cfg.NoServe {
		a.initServer()
	}
	if !a.cfg.Mute && !a.cfg.Headless {
		a.initSound()
	}

	return nil
}

// initPerception loads the landmark model, then opens the camera. A
// model failure skips the camera entirely; there is nothing to run the
// frames through.
func (a *App) initPerception() {
	fmt.Print("🖐  Loading hand landmark model... ")
	lcfg := hand.DefaultLandmarkerConfig()
	lcfg.ModelPath = a.cfg.ModelPath
	det, err := hand.NewLandmarker(lcfg)
	if err != nil {
		fmt.Printf("⚠️  %s: %v\n", errModelLoad, err)
		log.Error(errModelLoad, "model", a.cfg.ModelPath, "error", err)
		a.banner = errModelLoad
		return
	}
	fmt.Println("✅")
	a.detector = det

	fmt.Print("📷 Opening camera... ")
	ccfg := capture.DefaultConfig()
	ccfg.Device = a.cfg.CameraDevice
	ccfg.Width = a.cfg.CameraWidth
	ccfg.Height = a.cfg.CameraHeight
	cam, err := capture.Open(ccfg)
	if err != nil {
		fmt.Printf("⚠️  %v\n", err)
		log.Error(errCameraDenied, "device", a.cfg.CameraDevice, "error", err)
		a.banner = errCameraDenied
		a.detector.Close()
		a.detector = nil
		return
	}
	fmt.Println("✅")
	a.camera = cam

	a.sess.SetPerception(cam, det)
}

func (a *App) initServer() {
	rx, ry, rz := a.field.Bounds()
	a.server = web.NewServer(a.cfg.HTTPPort, "./web/static", web.Info{
		ParticleCount: a.cfg.ParticleCount,
		RainColor:     a.cfg.RainColor,
		RangeX:        rx,
		RangeY:        ry,
		RangeZ:        rz,
		SimHz:         a.cfg.SimHz,
		DetectHz:      a.cfg.DetectHz,
	})
	a.server.UpdateStatus(func(st *web.Status) {
		st.DetectorOK = a.detector != nil
		st.CameraOK = a.camera != nil
		st.LastError = a.banner
	})
	fmt.Printf("🌐 Dashboard on http://localhost:%d\n", a.cfg.HTTPPort)
}

func (a *App) initSound() {
	player, err := sound.NewPlayer()
	if err != nil {
		log.Warn("rain ambience disabled", "error", err)
		return
	}
	a.player = player
	fmt.Println("🔊 Rain ambience on")
}

// Run wires the session sinks to the active surfaces and blocks until
// the context is cancelled or the window closes.
func (a *App) Run(ctx context.Context) error {
	a.wireSinks()

	if a.server != nil {
		a.server.StartAsync(ctx)
	}

	if a.sess.PerceptionReady() {
		go a.sess.RunPerception(ctx)
		fmt.Println("\n🖐  Raise a hand to steer the rain")
	} else {
		fmt.Println("\n🌧️  Gesture control off; rain falls at nominal speed")
	}
	fmt.Println("   (Ctrl+C to exit)")

	if a.cfg.Headless {
		go a.sess.RunSim(ctx)
		<-ctx.Done()
		return nil
	}

	// The window owns the field advance while it is open. Ebiten must
	// run on the main goroutine.
	tint, err := a.cfg.Color()
	if err != nil {
		return err
	}
	w := view.New(ctx, a.store, a.field, tint)
	w.Status = a.sess.Zone
	w.Banner = a.banner
	w.OnFrame = func(f *rain.Field) { a.server.PublishParticles(f) }
	w.OnRate = a.publishSimRate
	return w.Run("Rainfall")
}

// wireSinks fans session output out to the dashboard and the sound
// player. Every sink target tolerates being absent.
func (a *App) wireSinks() {
	var wasActive bool
	a.sess.OnState = func(st rain.State, zone string) {
		a.server.PublishState(st.Speed, st.Active, zone)
		if a.player != nil {
			a.player.SetSpeed(st.Speed)
		}
		if st.Active != wasActive {
			wasActive = st.Active
			a.server.UpdateStatus(func(ws *web.Status) {
				ws.HandVisible = st.Active
				ws.Speed = st.Speed
				ws.Zone = zone
			})
		}
	}
	a.sess.OnFrame = a.server.PublishFrame
	a.sess.OnField = func(f *rain.Field) { a.server.PublishParticles(f) }
	a.sess.OnDetectRate = func(fps float64) {
		st := a.store.Load()
		zone := a.sess.Zone()
		a.server.UpdateStatus(func(ws *web.Status) {
			ws.DetectFPS = fps
			ws.Speed = st.Speed
			ws.HandVisible = st.Active
			ws.Zone = zone
		})
	}
	a.sess.OnSimRate = a.publishSimRate
}

func (a *App) publishSimRate(fps float64) {
	a.server.UpdateStatus(func(ws *web.Status) {
		ws.SimFPS = fps
	})
}

// Shutdown releases subsystems in reverse start order.
func (a *App) Shutdown() {
	fmt.Println("\n👋 Rain stopped")

	if a.server != nil {
		a.server.Shutdown()
	}
	if a.player != nil {
		a.player.Close()
	}
	if a.camera != nil {
		a.camera.Close()
	}
	if a.detector != nil {
		a.detector.Close()
	}
}

func hzInterval(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz)
}
