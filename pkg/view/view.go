// Package view renders the rain field through an Ebitengine window.
package view

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/pallasite/rainfall/pkg/rain"
)

const (
	defaultWidth  = 1280
	defaultHeight = 720

	// Streak length per unit of speed, in field units before projection
	streakFactor = 0.55

	// Depth fade range for distant drops
	minFade = 0.3
)

var backgroundColor = color.RGBA{R: 8, G: 10, B: 24, A: 255}

// StatusFunc reports the current gesture zone for the HUD.
type StatusFunc func() string

// View implements ebiten.Game. Update owns the particle field while the
// window is open; Draw only reads it. Ebiten never runs the two
// concurrently.
type View struct {
	ctx context.Context

	store *rain.Store
	field *rain.Field

	tint color.RGBA
	proj Projector

	last     time.Time
	lastRate time.Time
	showHUD  bool

	// Zone label source for the HUD, optional
	Status StatusFunc

	// Degradation notice pinned to the window bottom, empty when the
	// gesture pipeline is healthy
	Banner string

	// OnFrame fires after every field advance
	OnFrame func(f *rain.Field)

	// OnRate reports the update rate roughly once per second
	OnRate func(fps float64)
}

// New creates a view bound to the shared store and field. The window
// terminates when ctx is cancelled.
func New(ctx context.Context, store *rain.Store, field *rain.Field, tint color.RGBA) *View {
	return &View{
		ctx:     ctx,
		store:   store,
		field:   field,
		tint:    tint,
		proj:    NewProjector(defaultWidth, defaultHeight),
		showHUD: true,
	}
}

// Run opens the window and blocks on the render loop. Must run on the
// main goroutine.
func (v *View) Run(title string) error {
	ebiten.SetWindowSize(defaultWidth, defaultHeight)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(v)
}

// Update advances the field by the wall-clock delta at the current
// smoothed speed. The first frame sees a zero delta, so the gap between
// construction and the window opening never moves the field.
func (v *View) Update() error {
	if v.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		v.showHUD = !v.showHUD
	}

	now := time.Now()
	var delta float64
	if !v.last.IsZero() {
		delta = now.Sub(v.last).Seconds()
		if delta < 0 {
			delta = 0
		}
	}
	v.last = now

	st := v.store.Load()
	v.field.Advance(delta, st.Speed)

	if v.OnFrame != nil {
		v.OnFrame(v.field)
	}
	if v.OnRate != nil && now.Sub(v.lastRate) >= time.Second {
		v.lastRate = now
		v.OnRate(ebiten.ActualTPS())
	}
	return nil
}

// Draw renders every particle as a streak oriented against its motion.
func (v *View) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	st := v.store.Load()

	// Trail extends opposite the fall direction; at least a dot when
	// the rain is holding still
	n := v.field.Count()
	for i := 0; i < n; i++ {
		x, y, z := v.field.At(i)
		sx, sy, scale, ok := v.proj.Project(x, y, z)
		if !ok {
			continue
		}

		length := math.Abs(st.Speed) * float64(v.field.Factor(i)) * streakFactor * scale
		if length < 1 {
			length = 1
		}
		tail := sy - length
		if st.Speed < 0 {
			tail = sy + length
		}

		fade := minFade + (1-minFade)*(float64(z)+rain.RangeZ/2)/rain.RangeZ
		col := color.RGBA{
			R: uint8(float64(v.tint.R) * fade),
			G: uint8(float64(v.tint.G) * fade),
			B: uint8(float64(v.tint.B) * fade),
			A: uint8(255 * fade),
		}

		vector.StrokeLine(screen, float32(sx), float32(tail), float32(sx), float32(sy), 1, col, false)
	}

	if v.showHUD {
		v.drawHUD(screen, st)
	}
	if v.Banner != "" {
		_, h := v.proj.Size()
		ebitenutil.DebugPrintAt(screen, v.Banner, 8, h-20)
	}
}

// Layout adopts the outer window size so resizing widens the scene.
func (v *View) Layout(outsideWidth, outsideHeight int) (int, int) {
	v.proj.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func (v *View) drawHUD(screen *ebiten.Image, st rain.State) {
	hand := "no hand"
	if st.Active {
		hand = "steering"
		if v.Status != nil {
			if zone := v.Status(); zone != "" {
				hand = "steering (" + zone + ")"
			}
		}
	}
	msg := fmt.Sprintf("FPS: %.1f\nSpeed: %+.2f\nHand: %s\nParticles: %d\n[H] toggle HUD",
		ebiten.ActualFPS(), st.Speed, hand, v.field.Count())
	ebitenutil.DebugPrint(screen, msg)
}
