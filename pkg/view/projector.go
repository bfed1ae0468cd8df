package view

// Screen projection constants
const (
	// Camera distance from the field center along z
	viewDistance = 140.0
	// Focal length as a fraction of screen height
	focalFactor = 0.85
)

// Projector maps field coordinates to screen space with a perspective
// divide. Pure math, safe to copy.
type Projector struct {
	width  int
	height int
	focal  float64
}

// NewProjector creates a projector for the given screen size.
func NewProjector(width, height int) Projector {
	p := Projector{}
	p.Resize(width, height)
	return p
}

// Resize adjusts the projection to a new screen size.
func (p *Projector) Resize(width, height int) {
	p.width = width
	p.height = height
	p.focal = focalFactor * float64(height)
}

// Size returns the current screen size.
func (p Projector) Size() (int, int) {
	return p.width, p.height
}

// Project maps a field position to screen coordinates. scale is the
// perspective factor at that depth; ok is false at or behind the camera.
func (p Projector) Project(x, y, z float32) (sx, sy, scale float64, ok bool) {
	depth := viewDistance - float64(z)
	if depth <= 1 {
		return 0, 0, 0, false
	}
	scale = p.focal / depth
	sx = float64(p.width)/2 + float64(x)*scale
	sy = float64(p.height)/2 - float64(y)*scale
	return sx, sy, scale, true
}
