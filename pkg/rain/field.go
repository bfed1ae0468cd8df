package rain

import (
	"math/rand"
	"runtime"
	"sync"
)

// World bounds. Each axis spans [-Range/2, Range/2]; only y wraps.
const (
	RangeX = 200.0
	RangeY = 200.0
	RangeZ = 100.0
)

// BaseRate converts the dimensionless speed signal into world units per
// second for a particle with velocity factor 1.
const BaseRate = 40.0

// Per-particle velocity factor bounds, drawn once at construction.
const (
	minFactor = 0.5
	maxFactor = 1.0
)

// Fields at or above this count shard Advance across CPUs.
const parallelThreshold = 1 << 15

// Field is a fixed-size set of rain particles held in parallel flat arrays.
// Only y changes after construction; x, z and the velocity factors are
// immutable. A field belongs to exactly one goroutine (the render or sim
// loop); anyone else gets copies via CopyPositions.
type Field struct {
	x, y, z []float32
	vf      []float32
}

// NewField allocates and seeds count particles. The same seed reproduces
// the same field.
func NewField(count int, seed int64) *Field {
	rng := rand.New(rand.NewSource(seed))
	f := &Field{
		x:  make([]float32, count),
		y:  make([]float32, count),
		z:  make([]float32, count),
		vf: make([]float32, count),
	}
	for i := 0; i < count; i++ {
		f.x[i] = float32(rng.Float64()*RangeX - RangeX/2)
		f.y[i] = float32(rng.Float64()*RangeY - RangeY/2)
		f.z[i] = float32(rng.Float64()*RangeZ - RangeZ/2)
		f.vf[i] = float32(minFactor + rng.Float64()*(maxFactor-minFactor))
	}
	return f
}

// Count returns the number of particles.
func (f *Field) Count() int {
	return len(f.y)
}

// Bounds returns the world extents. Each axis spans half its range on
// either side of the origin.
func (f *Field) Bounds() (rangeX, rangeY, rangeZ float64) {
	return RangeX, RangeY, RangeZ
}

// At returns particle i's position.
func (f *Field) At(i int) (x, y, z float32) {
	return f.x[i], f.y[i], f.z[i]
}

// Factor returns particle i's velocity factor.
func (f *Field) Factor(i int) float32 {
	return f.vf[i]
}

// Advance moves every particle's y by its velocity factor times
// speed*BaseRate*delta, then wraps anything that crossed a vertical bound
// back to the opposite edge. delta is wall-clock seconds since the previous
// frame, never negative. No allocation.
func (f *Field) Advance(delta, speed float64) {
	drop := float32(speed * BaseRate * delta)
	if len(f.y) >= parallelThreshold {
		f.advanceParallel(drop)
		return
	}
	f.advanceRange(0, len(f.y), drop)
}

func (f *Field) advanceRange(lo, hi int, drop float32) {
	const half = float32(RangeY / 2)
	for i := lo; i < hi; i++ {
		y := f.y[i] - f.vf[i]*drop
		if y < -half {
			y += RangeY
		} else if y > half {
			y -= RangeY
		}
		f.y[i] = y
	}
}

func (f *Field) advanceParallel(drop float32) {
	workers := runtime.NumCPU()
	chunk := (len(f.y) + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < len(f.y); lo += chunk {
		hi := lo + chunk
		if hi > len(f.y) {
			hi = len(f.y)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			f.advanceRange(lo, hi, drop)
		}(lo, hi)
	}
	wg.Wait()
}

// CopyPositions interleaves x,y,z triples into dst and returns the number
// of floats written. dst shorter than Count()*3 receives as many whole
// triples as fit.
func (f *Field) CopyPositions(dst []float32) int {
	n := len(dst) / 3
	if n > len(f.x) {
		n = len(f.x)
	}
	for i := 0; i < n; i++ {
		dst[i*3] = f.x[i]
		dst[i*3+1] = f.y[i]
		dst[i*3+2] = f.z[i]
	}
	return n * 3
}
