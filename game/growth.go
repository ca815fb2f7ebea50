package game

import "math"

// TargetRadius maps a score onto the saturating body-radius curve
// base + (max-base) * (s/(s+half))^exp.
func TargetRadius(score int) float64 {
	s := math.Max(float64(score), 0)
	t := 0.0
	if s > 0 {
		t = Clamp(s/(s+RadiusScoreHalf), 0, 1)
	}
	r := BaseSnakeRadius + (MaxSnakeRadius-BaseSnakeRadius)*math.Pow(t, RadiusGrowthExp)
	return Clamp(r, BaseSnakeRadius, MaxSnakeRadius)
}

// TargetSpacing returns the segment spacing for a body radius
func TargetSpacing(radius float64) float64 {
	return math.Min(math.Max(radius*SpacingMult, math.Max(radius*SpacingMinMult, SpacingMin)), SpacingMax)
}

// TargetLength returns the segment count for a score
func TargetLength(score int) int {
	extra := score / ScorePerSegment
	if extra < 0 {
		extra = 0
	}
	return ClampInt(BaseSnakeLength+extra, BaseSnakeLength, MaxSnakeLength)
}

// SmoothFactor is the fraction of the remaining gap closed in dt seconds.
// It lies strictly inside (0, 1) for dt > 0, so smoothing never overshoots.
func SmoothFactor(dt float64) float64 {
	return 1 - math.Exp(-GrowthSmoothRate*dt)
}

// SizeFactor is how far a radius sits between the base and max radius, in [0, 1]
func SizeFactor(radius float64) float64 {
	return Clamp((radius-BaseSnakeRadius)/(MaxSnakeRadius-BaseSnakeRadius), 0, 1)
}

// Grow moves length, radius and spacing toward the targets for score
func (s *Snake) Grow(score int, dt float64) {
	s.TargetLength = TargetLength(score)
	k := SmoothFactor(dt)
	s.Radius += (TargetRadius(score) - s.Radius) * k
	s.Spacing += (TargetSpacing(s.Radius) - s.Spacing) * k
}
