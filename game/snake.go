package game

// Snake is the locomotion state of one agent: a head that turns smoothly
// toward a desired heading, the trail it leaves behind and the body segments
// resampled from that trail every tick.
type Snake struct {
	head Vec2
	dir  Vec2

	Speed        float64
	TurnRate     float64
	Spacing      float64
	Radius       float64
	TargetLength int

	trail    []Vec2 // oldest first, newest last
	segments []Vec2
}

// NewSnake creates a base-size snake at head facing dir
func NewSnake(head, dir Vec2) *Snake {
	s := &Snake{
		Speed:        BaseSpeed,
		TurnRate:     TurnRate,
		Spacing:      BaseSegmentSpacing,
		Radius:       BaseSnakeRadius,
		TargetLength: BaseSnakeLength,
	}
	s.ResetAt(head, dir)
	return s
}

// ResetAt moves the snake to head facing dir and collapses its trail.
// Size parameters are kept.
func (s *Snake) ResetAt(head, dir Vec2) {
	if dir.IsFinite() && dir.LengthSq() > 0.0001 {
		dir = dir.Normalize()
	} else {
		dir = V(1, 0)
	}
	s.head = head
	s.dir = dir
	s.trail = append(s.trail[:0], head)
	s.segments = s.segments[:0]
	for i := 0; i < s.TargetLength; i++ {
		s.segments = append(s.segments, head)
	}
}

// Head returns the head position
func (s *Snake) Head() Vec2 {
	return s.head
}

// Dir returns the unit heading
func (s *Snake) Dir() Vec2 {
	return s.dir
}

// Segments returns the body, head first. The slice is reused between ticks.
func (s *Snake) Segments() []Vec2 {
	return s.segments
}

// TrailLen returns the number of stored trail points
func (s *Snake) TrailLen() int {
	return len(s.trail)
}

// UpdateDir advances the snake by one step of dt seconds. A desired
// direction that is zero-length or not finite leaves the heading unchanged.
func (s *Snake) UpdateDir(dt float64, desired Vec2) {
	if desired.IsFinite() && desired.LengthSq() > 0.0001 {
		t := Clamp(s.TurnRate*dt, 0, 1)
		next := Slerp(s.dir, desired.Normalize(), t)
		if next.LengthSq() > 0.0001 {
			s.dir = next.Normalize()
		}
	}

	s.head = s.head.Add(s.dir.Mul(s.Speed * dt))

	// The newest trail point follows the head until it is TrailSampleMinDist
	// past the previous sample, then it is kept and a new one starts.
	n := len(s.trail)
	if n < 2 || Distance(s.trail[n-2], s.trail[n-1]) >= TrailSampleMinDist {
		s.trail = append(s.trail, s.head)
	} else {
		s.trail[n-1] = s.head
	}

	s.trimTrail(float64(s.TargetLength)*s.Spacing + s.Spacing)
	s.rebuildSegments()
}

// trimTrail drops the oldest points once the arc length from the head
// exceeds maxLen, keeping the point that crosses the limit.
func (s *Snake) trimTrail(maxLen float64) {
	acc := 0.0
	for i := len(s.trail) - 1; i > 0; i-- {
		acc += Distance(s.trail[i], s.trail[i-1])
		if acc > maxLen {
			s.trail = s.trail[i-1:]
			return
		}
	}
}

func (s *Snake) rebuildSegments() {
	if cap(s.segments) < s.TargetLength {
		s.segments = make([]Vec2, s.TargetLength)
	}
	s.segments = s.segments[:s.TargetLength]
	for i := range s.segments {
		s.segments[i] = s.sampleTrail(float64(i) * s.Spacing)
	}
}

// sampleTrail returns the point at arc length dist behind the head.
func (s *Snake) sampleTrail(dist float64) Vec2 {
	if len(s.trail) <= 1 {
		return s.head
	}
	remaining := dist
	for i := len(s.trail) - 1; i > 0; i-- {
		a := s.trail[i]
		b := s.trail[i-1]
		segLen := Distance(a, b)
		if segLen <= 0.0001 {
			continue
		}
		if remaining <= segLen {
			return Lerp(a, b, remaining/segLen)
		}
		remaining -= segLen
	}
	return s.trail[0]
}
