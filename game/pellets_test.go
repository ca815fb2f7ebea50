package game

import (
	"math"
	"testing"
)

func newTestGrid() *PelletGrid {
	return NewPelletGrid(PelletBucketSize, ArenaRadius, NewRand(7))
}

// consistent reports whether every pellet sits in the bucket its position
// maps to and the running total matches.
func consistent(g *PelletGrid) bool {
	n := 0
	for idx, bucket := range g.buckets {
		for _, p := range bucket {
			if g.indexOf(p.Pos) != idx {
				return false
			}
			n++
		}
	}
	return n == g.total
}

func TestPopulateRandomReachesTarget(t *testing.T) {
	for _, n := range []int{0, 1, 250, PelletTargetCount} {
		g := newTestGrid()
		g.PopulateRandom(n, PelletRadius)
		if g.Total() != n {
			t.Fatalf("PopulateRandom(%d): total = %d", n, g.Total())
		}
		if !consistent(g) {
			t.Fatalf("PopulateRandom(%d): bucket membership inconsistent", n)
		}
		g.Each(func(p Pellet) {
			if p.Pos.Length() > ArenaRadius+1e-9 {
				t.Fatalf("pellet outside arena: %+v", p.Pos)
			}
			if p.Value != 1 && p.Value != 2 && p.Value != 5 {
				t.Fatalf("unexpected pellet value %d", p.Value)
			}
		})
	}
}

func TestEatCollidingRespectsMaxEat(t *testing.T) {
	g := newTestGrid()
	for i := 0; i < 50; i++ {
		g.Spawn(V(float64(i%5), float64(i/5)), PelletRadius, 1, colorTier1)
	}

	gained := g.EatColliding(V(0, 0), 20, 0, 10)
	if gained != 10 {
		t.Fatalf("gained = %d, want 10", gained)
	}
	if g.Total() != 40 {
		t.Fatalf("total = %d, want 40", g.Total())
	}

	if got := g.EatColliding(V(0, 0), 20, 0, 0); got != 0 {
		t.Fatalf("maxEat=0 gained %d", got)
	}
	if g.Total() != 40 {
		t.Fatalf("maxEat=0 removed pellets")
	}
	if !consistent(g) {
		t.Fatal("grid inconsistent after eating")
	}
}

func TestEatCollidingAcrossCells(t *testing.T) {
	g := newTestGrid()
	// Straddle the cell boundary at x = 0.
	g.Spawn(V(-3, 0), PelletRadius, 2, colorTier2)
	g.Spawn(V(3, 0), PelletRadius, 5, colorTier3)
	g.Spawn(V(300, 0), PelletRadius, 1, colorTier1)

	if got := g.EatColliding(V(0, 0), 6, 0, 10); got != 7 {
		t.Fatalf("gained = %d, want 7", got)
	}
	if g.Total() != 1 {
		t.Fatalf("total = %d, want 1", g.Total())
	}
}

func TestSpawnCorpseScorePreservesValue(t *testing.T) {
	path := make([]Vec2, 40)
	for i := range path {
		path[i] = V(float64(i)*7, 0)
	}

	cases := []struct {
		value int
		max   int
	}{
		{1, CorpseDropMaxPellets},
		{7, CorpseDropMaxPellets},
		{649, CorpseDropMaxPellets},
		{650, CorpseDropMaxPellets},
		{651, CorpseDropMaxPellets},
		{5003, CorpseDropMaxPellets},
		{100, 3},
	}
	for _, c := range cases {
		g := newTestGrid()
		g.SpawnCorpseScore(path, c.value, c.max, CorpseDropSpread)
		sum := 0
		g.Each(func(p Pellet) { sum += p.Value })
		if sum != c.value {
			t.Errorf("value %d: dropped sum %d", c.value, sum)
		}
		if g.Total() > c.max {
			t.Errorf("value %d: %d pellets exceeds max %d", c.value, g.Total(), c.max)
		}
		if !consistent(g) {
			t.Errorf("value %d: grid inconsistent", c.value)
		}
	}
}

func TestSpawnCorpseScoreDeterministic(t *testing.T) {
	path := []Vec2{V(0, 0), V(10, 0), V(20, 5)}
	a, b := newTestGrid(), newTestGrid()
	a.SpawnCorpseScore(path, 33, 10, 10)
	b.SpawnCorpseScore(path, 33, 10, 10)
	pa, pb := a.Positions(), b.Positions()
	if len(pa) != len(pb) {
		t.Fatalf("lengths differ: %d vs %d", len(pa), len(pb))
	}
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("position %d differs: %v vs %v", i, pa[i], pb[i])
		}
	}
}

func TestSpawnCorpseScoreNoops(t *testing.T) {
	g := newTestGrid()
	g.SpawnCorpseScore(nil, 10, 10, 10)
	g.SpawnCorpseScore([]Vec2{V(0, 0)}, 0, 10, 10)
	g.SpawnCorpseScore([]Vec2{V(0, 0)}, 10, 0, 10)
	if g.Total() != 0 {
		t.Fatalf("total = %d, want 0", g.Total())
	}
}

func TestApplyMagnetRebuckets(t *testing.T) {
	g := newTestGrid()
	start := V(PelletBucketSize+20, 0)
	g.Spawn(start, PelletRadius, 1, colorTier1)

	head := V(5, 0)
	g.ApplyMagnet(head, 0.1, 260, 2000, 10)

	pos := g.Positions()
	if len(pos) != 1 {
		t.Fatalf("positions = %d, want 1", len(pos))
	}
	if Distance(pos[0], head) >= Distance(start, head) {
		t.Fatalf("pellet did not move toward head: %v", pos[0])
	}
	if pos[0].X < head.X-1e-9 {
		t.Fatalf("pellet overshot the head: %v", pos[0])
	}
	if !consistent(g) {
		t.Fatal("pellet not moved to its new bucket")
	}
}

func TestApplyMagnetNeverPassesHead(t *testing.T) {
	g := newTestGrid()
	g.Spawn(V(30, 0), PelletRadius, 1, colorTier1)
	g.ApplyMagnet(V(0, 0), 1, 260, 1e6, 10)
	p := g.Positions()[0]
	if math.Abs(p.X) > 1e-6 || math.Abs(p.Y) > 1e-6 {
		t.Fatalf("pellet at %v, want head", p)
	}
}

func TestApplyMagnetMaxMoved(t *testing.T) {
	g := newTestGrid()
	for i := 0; i < 20; i++ {
		g.Spawn(V(50, float64(i)), PelletRadius, 1, colorTier1)
	}
	before := g.Positions()
	g.ApplyMagnet(V(0, 0), 0.05, 260, 100, 5)
	after := g.Positions()

	moved := 0
	for _, p := range after {
		found := false
		for _, q := range before {
			if p == q {
				found = true
				break
			}
		}
		if !found {
			moved++
		}
	}
	if moved != 5 {
		t.Fatalf("moved = %d, want 5", moved)
	}

	g.ApplyMagnet(V(0, 0), 0, 260, 100, 5)
	g.ApplyMagnet(V(0, 0), 0.05, 0, 100, 5)
	g.ApplyMagnet(V(0, 0), 0.05, 260, 100, 0)
	if g.Total() != 20 || !consistent(g) {
		t.Fatal("no-op magnet calls changed the grid")
	}
}

func TestBestTargetPrefersValuePerDistance(t *testing.T) {
	g := newTestGrid()
	g.Spawn(V(10, 0), PelletRadius, 1, colorTier1)
	g.Spawn(V(0, 40), PelletRadius, 5, colorTier3)
	g.Spawn(V(900, 0), PelletRadius, 5, colorTier3)

	pos, ok := g.BestTarget(V(0, 0), 820)
	if !ok {
		t.Fatal("no target found")
	}
	if pos != V(0, 40) {
		t.Fatalf("target = %v, want (0,40)", pos)
	}

	if _, ok := g.BestTarget(V(0, 0), 0); ok {
		t.Fatal("zero search radius returned a target")
	}
	if _, ok := newTestGrid().BestTarget(V(0, 0), 820); ok {
		t.Fatal("empty grid returned a target")
	}
}

func TestClampedCellsOutsideArena(t *testing.T) {
	g := newTestGrid()
	g.Spawn(V(1e6, -1e6), PelletRadius, 1, colorTier1)
	if !consistent(g) {
		t.Fatal("far pellet not stored in border bucket")
	}
	if got := g.EatColliding(V(1e6, -1e6), 6, 0, 10); got != 1 {
		t.Fatalf("gained = %d, want 1", got)
	}
}
