package game

import (
	"math"
	"math/rand"
)

// Rand wraps a seeded source so a room can be replayed from its seed.
type Rand struct {
	src *rand.Rand
}

// NewRand creates a generator from seed
func NewRand(seed int64) *Rand {
	return &Rand{src: rand.New(rand.NewSource(seed))}
}

// Float generates a random float between min and max
func (r *Rand) Float(min, max float64) float64 {
	return min + r.src.Float64()*(max-min)
}

// Int generates a random integer between min and max (inclusive)
func (r *Rand) Int(min, max int) int {
	return min + r.src.Intn(max-min+1)
}

// InDisk samples a point uniformly by area inside a disk centred at the origin.
func (r *Rand) InDisk(radius float64) Vec2 {
	a := r.src.Float64() * 2 * math.Pi
	d := math.Sqrt(r.src.Float64()) * radius
	return Vec2{X: math.Cos(a) * d, Y: math.Sin(a) * d}
}

// UnitDir returns a random unit vector
func (r *Rand) UnitDir() Vec2 {
	a := r.src.Float64() * 2 * math.Pi
	return Vec2{X: math.Cos(a), Y: math.Sin(a)}
}
