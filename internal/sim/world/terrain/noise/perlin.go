// Package noise implements the 2D gradient noise shared with the game client.
//
// The permutation table is shuffled with a 32-bit LCG rather than math/rand: the
// client reproduces the same table from the same seed, and both terrain rendering
// and server-side resource placement key off it.
package noise

import "math"

const (
	lcgMul = 1664525
	lcgInc = 1013904223
)

// Field is immutable after New and safe for concurrent use.
type Field struct {
	perm [512]int
}

func New(seed int64) *Field {
	var p [256]int
	for i := range p {
		p[i] = i
	}

	state := uint32(seed)
	for i := 255; i > 0; i-- {
		state = state*lcgMul + lcgInc
		r := float64(state) / 4294967296.0
		j := int(math.Floor(r * float64(i+1)))
		p[i], p[j] = p[j], p[i]
	}

	f := &Field{}
	for i := range f.perm {
		f.perm[i] = p[i&255]
	}
	return f
}

// Noise returns a value in [-1, 1] for (x, y).
func (f *Field) Noise(x, y float64) float64 {
	fx := math.Floor(x)
	fy := math.Floor(y)
	xi := int(fx) & 255
	yi := int(fy) & 255

	x -= fx
	y -= fy

	u := fade(x)
	v := fade(y)

	a := f.perm[xi] + yi
	b := f.perm[xi+1] + yi

	n := lerp(v,
		lerp(u, grad(f.perm[a], x, y), grad(f.perm[b], x-1, y)),
		lerp(u, grad(f.perm[a+1], x, y-1), grad(f.perm[b+1], x-1, y-1)),
	)
	if n > 1 {
		return 1
	}
	if n < -1 {
		return -1
	}
	return n
}

// Normalized maps Noise into [0, 1].
func (f *Field) Normalized(x, y float64) float64 {
	return (f.Noise(x, y) + 1) / 2
}

// Permutation exposes the first 256 entries for cross-checking against clients.
func (f *Field) Permutation() [256]int {
	var out [256]int
	copy(out[:], f.perm[:256])
	return out
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad(hash int, x, y float64) float64 {
	h := hash & 15
	u := y
	if h < 8 {
		u = x
	}
	var v float64
	switch {
	case h < 4:
		v = y
	case h == 12 || h == 14:
		v = x
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}
