package game

import "math"

// Pellet is a collectible point stored in exactly one grid bucket
type Pellet struct {
	Pos    Vec2
	Radius float64
	Value  int
	Color  uint32 // packed 0xRRGGBBAA
}

const (
	colorTier1  uint32 = 0x78DCFFFF
	colorTier2  uint32 = 0xAAFF82FF
	colorTier3  uint32 = 0xFF78C8FF
	colorCorpse uint32 = 0xFFDC8CFF
)

type pendingMove struct {
	idx    int
	pellet Pellet
}

// PelletGrid is a uniform bucket grid over the square that encloses the arena.
// Cell coordinates outside the grid clamp to the border cells.
type PelletGrid struct {
	bucketSize float64
	radius     float64
	minCell    int
	dim        int
	buckets    [][]Pellet
	total      int
	maxRadius  float64
	rng        *Rand
	scratch    []pendingMove
}

// NewPelletGrid creates an empty grid covering [-arenaRadius, arenaRadius]
// with two guard cells on every side.
func NewPelletGrid(bucketSize, arenaRadius float64, rng *Rand) *PelletGrid {
	if bucketSize <= 0 {
		bucketSize = PelletBucketSize
	}
	half := int(math.Ceil(arenaRadius/bucketSize)) + 2
	dim := half*2 + 1
	return &PelletGrid{
		bucketSize: bucketSize,
		radius:     arenaRadius,
		minCell:    -half,
		dim:        dim,
		buckets:    make([][]Pellet, dim*dim),
		rng:        rng,
	}
}

// Total returns the number of stored pellets
func (g *PelletGrid) Total() int {
	return g.total
}

// Clear removes every pellet
func (g *PelletGrid) Clear() {
	for i := range g.buckets {
		g.buckets[i] = g.buckets[i][:0]
	}
	g.total = 0
	g.maxRadius = 0
	g.scratch = g.scratch[:0]
}

func (g *PelletGrid) maxCell() int {
	return g.minCell + g.dim - 1
}

func (g *PelletGrid) cellOf(pos Vec2) (int, int) {
	cx := int(math.Floor(pos.X / g.bucketSize))
	cy := int(math.Floor(pos.Y / g.bucketSize))
	return ClampInt(cx, g.minCell, g.maxCell()), ClampInt(cy, g.minCell, g.maxCell())
}

func (g *PelletGrid) bucketIndex(cx, cy int) int {
	x := ClampInt(cx, g.minCell, g.maxCell()) - g.minCell
	y := ClampInt(cy, g.minCell, g.maxCell()) - g.minCell
	return y*g.dim + x
}

func (g *PelletGrid) indexOf(pos Vec2) int {
	return g.bucketIndex(g.cellOf(pos))
}

// cellRange returns the inclusive cell rectangle covering a square of
// half-width reach around center.
func (g *PelletGrid) cellRange(center Vec2, reach float64) (minX, minY, maxX, maxY int) {
	minX, minY = g.cellOf(center.Sub(V(reach, reach)))
	maxX, maxY = g.cellOf(center.Add(V(reach, reach)))
	return
}

// Insert stores a pellet in the bucket owning its position
func (g *PelletGrid) Insert(p Pellet) {
	idx := g.indexOf(p.Pos)
	g.buckets[idx] = append(g.buckets[idx], p)
	g.total++
	if p.Radius > g.maxRadius {
		g.maxRadius = p.Radius
	}
}

// Spawn creates and inserts a pellet
func (g *PelletGrid) Spawn(pos Vec2, radius float64, value int, color uint32) {
	g.Insert(Pellet{Pos: pos, Radius: radius, Value: value, Color: color})
}

// PopulateRandom inserts random pellets until Total reaches target
func (g *PelletGrid) PopulateRandom(target int, radius float64) {
	for g.total < target {
		g.Insert(g.randomPellet(radius))
	}
}

func (g *PelletGrid) randomPellet(radius float64) Pellet {
	pos := g.rng.InDisk(g.radius)
	roll := g.rng.Int(0, 99)
	switch {
	case roll < 72:
		return Pellet{Pos: pos, Radius: radius, Value: 1, Color: colorTier1}
	case roll < 94:
		return Pellet{Pos: pos, Radius: radius * 1.45, Value: 2, Color: colorTier2}
	default:
		return Pellet{Pos: pos, Radius: radius * 2.25, Value: 5, Color: colorTier3}
	}
}

// EatColliding removes pellets touching the head and returns their summed
// value. At most maxEat pellets are removed per call.
func (g *PelletGrid) EatColliding(head Vec2, headRadius, pickupBonus float64, maxEat int) int {
	if maxEat <= 0 || g.total == 0 {
		return 0
	}

	reach := headRadius + pickupBonus + g.maxRadius
	minX, minY, maxX, maxY := g.cellRange(head, reach)

	gained := 0
	eaten := 0
	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			idx := g.bucketIndex(cx, cy)
			bucket := g.buckets[idx]
			i := 0
			for i < len(bucket) {
				if eaten >= maxEat {
					g.buckets[idx] = bucket
					return gained
				}
				p := bucket[i]
				r := headRadius + pickupBonus + p.Radius
				if DistanceSq(head, p.Pos) <= r*r {
					gained += p.Value
					last := len(bucket) - 1
					bucket[i] = bucket[last]
					bucket = bucket[:last]
					g.total--
					eaten++
					continue
				}
				i++
			}
			g.buckets[idx] = bucket
		}
	}
	return gained
}

// ApplyMagnet pulls pellets within radius toward head. The step grows as the
// pellet gets closer and never carries it past the head. Pellets that leave
// their bucket are re-inserted once the scan is done. At most maxMoved
// pellets are touched.
func (g *PelletGrid) ApplyMagnet(head Vec2, dt, radius, speed float64, maxMoved int) {
	if dt <= 0 || radius <= 0 || speed <= 0 || maxMoved <= 0 {
		return
	}

	r2 := radius * radius
	minX, minY, maxX, maxY := g.cellRange(head, radius)
	moved := 0
	g.scratch = g.scratch[:0]

scan:
	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			if moved >= maxMoved {
				break scan
			}
			oldIdx := g.bucketIndex(cx, cy)
			bucket := g.buckets[oldIdx]
			i := 0
			for i < len(bucket) {
				if moved >= maxMoved {
					g.buckets[oldIdx] = bucket
					break scan
				}
				p := bucket[i]
				d2 := DistanceSq(head, p.Pos)
				if d2 > r2 {
					i++
					continue
				}
				d := math.Max(math.Sqrt(d2), 0.0001)
				dir := head.Sub(p.Pos).Mul(1 / d)
				t := Clamp(1-d/radius, 0, 1)
				step := speed * dt * (0.2 + 0.8*t)
				p.Pos = p.Pos.Add(dir.Mul(math.Min(step, d)))
				moved++

				if newIdx := g.indexOf(p.Pos); newIdx != oldIdx {
					last := len(bucket) - 1
					bucket[i] = bucket[last]
					bucket = bucket[:last]
					g.scratch = append(g.scratch, pendingMove{idx: newIdx, pellet: p})
					continue
				}
				bucket[i] = p
				i++
			}
			g.buckets[oldIdx] = bucket
		}
	}

	for _, m := range g.scratch {
		g.buckets[m.idx] = append(g.buckets[m.idx], m.pellet)
	}
	g.scratch = g.scratch[:0]
}

// BestTarget returns the pellet within searchRadius with the highest value
// per unit distance. Distances under 10 count as 10.
func (g *PelletGrid) BestTarget(head Vec2, searchRadius float64) (Vec2, bool) {
	if searchRadius <= 0 {
		return Vec2{}, false
	}
	r2 := searchRadius * searchRadius
	minX, minY, maxX, maxY := g.cellRange(head, searchRadius)

	var best Vec2
	bestScore := math.Inf(-1)
	found := false
	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			for _, p := range g.buckets[g.bucketIndex(cx, cy)] {
				d2 := DistanceSq(head, p.Pos)
				if d2 > r2 {
					continue
				}
				s := float64(p.Value) / math.Max(math.Sqrt(d2), 10)
				if !found || s > bestScore {
					best, bestScore, found = p.Pos, s, true
				}
			}
		}
	}
	return best, found
}

// SpawnCorpseScore converts totalValue into at most maxPellets pellets laid
// along path. Values sum to exactly totalValue whenever totalValue >= 1;
// the remainder of the integer split goes to the first pellets. Offsets are
// derived from the pellet index so the scatter is reproducible.
func (g *PelletGrid) SpawnCorpseScore(path []Vec2, totalValue, maxPellets int, spread float64) {
	if len(path) == 0 || totalValue <= 0 || maxPellets <= 0 {
		return
	}

	count := totalValue
	if count > maxPellets {
		count = maxPellets
	}
	base := totalValue / count
	if base < 1 {
		base = 1
	}
	remainder := totalValue - base*count
	if remainder < 0 {
		remainder = 0
	}

	for k := 0; k < count; k++ {
		idx := k * len(path) / count
		p := path[idx]
		prev := path[max(idx-1, 0)]
		next := path[min(idx+1, len(path)-1)]

		tan := next.Sub(prev)
		if tan.LengthSq() > 0.0001 {
			tan = tan.Normalize()
		} else {
			tan = V(1, 0)
		}
		perp := tan.Perp()

		fk := float64(k)
		j1 := math.Sin(fk * 12.9898)
		j2 := math.Cos(fk * 78.233)
		off := perp.Mul(j1 * spread).Add(tan.Mul(j2 * spread * 0.35))

		value := base
		if k < remainder {
			value++
		}
		radius := Clamp(3.4+math.Sqrt(float64(value)), 3.4, 16)
		g.Spawn(p.Add(off), radius, value, colorCorpse)
	}
}

// Positions returns the position of every pellet
func (g *PelletGrid) Positions() []Vec2 {
	out := make([]Vec2, 0, g.total)
	for _, bucket := range g.buckets {
		for _, p := range bucket {
			out = append(out, p.Pos)
		}
	}
	return out
}

// Each calls fn for every pellet
func (g *PelletGrid) Each(fn func(Pellet)) {
	for _, bucket := range g.buckets {
		for _, p := range bucket {
			fn(p)
		}
	}
}
