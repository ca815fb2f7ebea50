package game

import (
	"math"
	"testing"
)

const dt = 1.0 / DefaultTickRate

func TestNewSnakeCollapsedBody(t *testing.T) {
	s := NewSnake(V(10, 20), V(0, 0))
	if s.Dir() != V(1, 0) {
		t.Fatalf("zero dir should default to +X, got %v", s.Dir())
	}
	if len(s.Segments()) != BaseSnakeLength {
		t.Fatalf("segments = %d, want %d", len(s.Segments()), BaseSnakeLength)
	}
	for i, p := range s.Segments() {
		if p != V(10, 20) {
			t.Fatalf("segment %d = %v, want head", i, p)
		}
	}
}

func TestUpdateDirKeepsHeadingOnBadInput(t *testing.T) {
	inputs := []Vec2{
		{},
		{X: math.NaN(), Y: 1},
		{X: math.Inf(1), Y: 0},
		{X: 0.001, Y: 0.001},
	}
	for _, in := range inputs {
		s := NewSnake(V(0, 0), V(0, 1))
		s.UpdateDir(dt, in)
		if s.Dir() != V(0, 1) {
			t.Errorf("input %v changed heading to %v", in, s.Dir())
		}
		if !s.Head().IsFinite() {
			t.Errorf("input %v produced non-finite head", in)
		}
	}
}

func TestUpdateDirTurnsAndStaysUnit(t *testing.T) {
	s := NewSnake(V(0, 0), V(1, 0))
	for i := 0; i < 200; i++ {
		s.UpdateDir(dt, V(-1, 0.001))
		if l := s.Dir().Length(); math.Abs(l-1) > 1e-9 {
			t.Fatalf("step %d: heading length %v", i, l)
		}
	}
	if s.Dir().X > -0.99 {
		t.Fatalf("heading did not converge to target: %v", s.Dir())
	}
}

func TestUpdateDirPartialTurn(t *testing.T) {
	s := NewSnake(V(0, 0), V(1, 0))
	s.UpdateDir(dt, V(0, 1))
	// turn fraction is TurnRate*dt = 0.5 of a right angle
	want := math.Pi / 4
	got := math.Atan2(s.Dir().Y, s.Dir().X)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("angle = %v, want %v", got, want)
	}
}

func TestSegmentsFollowTrailAtSpacing(t *testing.T) {
	s := NewSnake(V(0, 0), V(1, 0))
	for i := 0; i < 100; i++ {
		s.UpdateDir(dt, V(1, 0))
	}
	segs := s.Segments()
	if len(segs) != s.TargetLength {
		t.Fatalf("segments = %d, want %d", len(segs), s.TargetLength)
	}
	if segs[0] != s.Head() {
		t.Fatalf("segment 0 = %v, want head %v", segs[0], s.Head())
	}
	for i := 1; i < len(segs); i++ {
		d := Distance(segs[i-1], segs[i])
		if math.Abs(d-s.Spacing) > 1e-6 {
			t.Fatalf("gap %d = %v, want %v", i, d, s.Spacing)
		}
	}
}

func TestTrailIsTrimmed(t *testing.T) {
	s := NewSnake(V(0, 0), V(1, 0))
	for i := 0; i < 2000; i++ {
		s.UpdateDir(dt, V(1, 0))
	}
	maxLen := float64(s.TargetLength)*s.Spacing + s.Spacing
	// every sample is at least TrailSampleMinDist apart, plus the two end points
	limit := int(maxLen/TrailSampleMinDist) + 2
	if s.TrailLen() > limit {
		t.Fatalf("trail has %d points, want at most %d", s.TrailLen(), limit)
	}
}

func TestSlowStepsStillLayTrail(t *testing.T) {
	s := NewSnake(V(0, 0), V(1, 0))
	s.Speed = BaseSpeed * 0.72
	step := 1.0 / 100
	for i := 0; i < 200; i++ {
		s.UpdateDir(step, V(1, 0))
	}
	if s.TrailLen() < 2 {
		t.Fatalf("trail has %d points", s.TrailLen())
	}
	segs := s.Segments()
	want := float64(len(segs)-1) * s.Spacing
	if got := Distance(segs[0], segs[len(segs)-1]); math.Abs(got-want) > 1e-6 {
		t.Fatalf("body length = %v, want %v", got, want)
	}
}

func TestResampleIdempotent(t *testing.T) {
	s := NewSnake(V(0, 0), V(1, 0))
	for i := 0; i < 60; i++ {
		s.UpdateDir(dt, V(math.Cos(float64(i)/10), math.Sin(float64(i)/10)))
	}
	first := append([]Vec2(nil), s.Segments()...)
	s.rebuildSegments()
	for i, p := range s.Segments() {
		if p != first[i] {
			t.Fatalf("segment %d moved on resample: %v vs %v", i, p, first[i])
		}
	}
}

func TestTargetRadiusCurve(t *testing.T) {
	if r := TargetRadius(0); r != BaseSnakeRadius {
		t.Fatalf("TargetRadius(0) = %v", r)
	}
	if r := TargetRadius(-50); r != BaseSnakeRadius {
		t.Fatalf("TargetRadius(-50) = %v", r)
	}
	prev := TargetRadius(0)
	for s := 1; s < 20000; s += 37 {
		r := TargetRadius(s)
		if r < prev || r > MaxSnakeRadius {
			t.Fatalf("TargetRadius(%d) = %v after %v", s, r, prev)
		}
		prev = r
	}
	// half score gives t = 0.5
	want := BaseSnakeRadius + (MaxSnakeRadius-BaseSnakeRadius)*math.Pow(0.5, RadiusGrowthExp)
	if got := TargetRadius(int(RadiusScoreHalf)); math.Abs(got-want) > 1e-9 {
		t.Fatalf("TargetRadius(half) = %v, want %v", got, want)
	}
}

func TestTargetLengthClamped(t *testing.T) {
	cases := map[int]int{
		0:       BaseSnakeLength,
		11:      BaseSnakeLength,
		12:      BaseSnakeLength + 1,
		120:     BaseSnakeLength + 10,
		1000000: MaxSnakeLength,
	}
	for score, want := range cases {
		if got := TargetLength(score); got != want {
			t.Errorf("TargetLength(%d) = %d, want %d", score, got, want)
		}
	}
}

func TestGrowSmoothsWithoutOvershoot(t *testing.T) {
	s := NewSnake(V(0, 0), V(1, 0))
	score := 500
	target := TargetRadius(score)
	prevGap := math.Abs(s.Radius - target)
	for i := 0; i < 300; i++ {
		s.Grow(score, dt)
		gap := math.Abs(s.Radius - target)
		if s.Radius > target {
			t.Fatalf("step %d: radius %v overshot %v", i, s.Radius, target)
		}
		if gap > prevGap {
			t.Fatalf("step %d: gap grew from %v to %v", i, prevGap, gap)
		}
		prevGap = gap
	}
	if prevGap > 1e-3 {
		t.Fatalf("radius did not converge, gap %v", prevGap)
	}

	spacingTarget := TargetSpacing(s.Radius)
	if math.Abs(s.Spacing-spacingTarget) > 1e-2 {
		t.Fatalf("spacing %v, want about %v", s.Spacing, spacingTarget)
	}
}

func TestTargetSpacingBounds(t *testing.T) {
	if got := TargetSpacing(BaseSnakeRadius); math.Abs(got-BaseSnakeRadius*SpacingMult) > 1e-12 {
		t.Fatalf("TargetSpacing(base) = %v", got)
	}
	if got := TargetSpacing(1); got != SpacingMin {
		t.Fatalf("TargetSpacing(1) = %v, want %v", got, SpacingMin)
	}
	if got := TargetSpacing(MaxSnakeRadius); got != SpacingMax {
		t.Fatalf("TargetSpacing(max) = %v, want %v", got, SpacingMax)
	}
}
