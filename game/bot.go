package game

// InputSource produces the input of an agent for the coming tick. Bots are
// driven through the same Input a remote client sends.
type InputSource interface {
	NextInput(p Perception, dt float64) Input
}

// AgentView is the read-only part of another agent a brain may look at
type AgentView struct {
	ID     uint32
	Alive  bool
	Head   Vec2
	Radius float64
}

// Perception is what a brain sees at the start of a tick
type Perception struct {
	Self        AgentView
	BoostEnergy float64
	MagnetLeft  float64
	SpeedupLeft float64
	Others      []AgentView
	AliveCount  int
	ArenaRadius float64
	Pellets     *PelletGrid
	Tokens      *TokenPool
}

// BotBrain is the heuristic forager/hunter used for bots. In priority order
// it flees bigger heads, keeps hunting a locked target, chases a nearby
// smaller head, goes for a token, goes for pellets, and otherwise wanders.
type BotBrain struct {
	rng         *Rand
	dir         Vec2
	boostIntent float64
	huntTarget  uint32
	huntLeft    float64
}

// NewBotBrain creates a brain that initially heads along dir
func NewBotBrain(rng *Rand, dir Vec2) *BotBrain {
	return &BotBrain{rng: rng, dir: dir.Normalize()}
}

const (
	botDangerRadius   = 620.0
	botHuntRadius     = 1200.0
	botChaseRadius    = 560.0
	botPelletSearch   = 820.0
	botLateGameAlive  = 7
	botBigEnoughR     = 22.0
	botInwardFraction = 0.80
)

func norm(v Vec2) Vec2 {
	if v.LengthSq() > 0.0001 {
		return v.Normalize()
	}
	return Vec2{}
}

// NextInput implements InputSource
func (b *BotBrain) NextInput(p Perception, dt float64) Input {
	head := p.Self.Head
	myR := p.Self.Radius

	b.huntLeft = max(b.huntLeft-dt, 0)
	hunt, hunting := b.keepHunt(p)
	if !hunting && (p.AliveCount <= botLateGameAlive || myR >= botBigEnoughR) {
		hunt, hunting = b.pickHunt(p)
	}

	var inward Vec2
	if head.Length() > p.ArenaRadius*botInwardFraction {
		inward = norm(head.Mul(-1))
	}

	var flee Vec2
	fleeW := 0.0
	for _, o := range p.Others {
		if !o.Alive || o.Radius <= myR*1.08 {
			continue
		}
		d := Distance(head, o.Head)
		if d < botDangerRadius {
			w := Clamp(1-d/botDangerRadius, 0, 1)
			flee = flee.Add(head.Sub(o.Head).Mul(w / max(d, 0.001)))
			fleeW += w
		}
	}

	var chase Vec2
	chaseDist := 0.0
	chasing := false
	if fleeW <= 0.01 && !hunting {
		best := botChaseRadius
		for _, o := range p.Others {
			if !o.Alive || myR <= o.Radius*1.12 {
				continue
			}
			if d := Distance(head, o.Head); d < best {
				best, chase, chaseDist, chasing = d, o.Head, d, true
			}
		}
	}

	var desired Vec2
	wantsBoost := false
	switch {
	case fleeW > 0.01:
		desired = norm(flee)
		wantsBoost = p.BoostEnergy > 30
	case hunting:
		d := Distance(head, hunt)
		desired = norm(hunt.Sub(head))
		wantsBoost = p.BoostEnergy > 35 && d < 760
	case chasing:
		desired = norm(chase.Sub(head))
		wantsBoost = p.BoostEnergy > 45 && chaseDist < 360
	default:
		if tok, ok := b.tokenTarget(p); ok {
			desired = norm(tok.Pos.Sub(head))
			limit := 55.0
			if tok.Kind == TokenTimeAdd {
				limit = 65
			}
			wantsBoost = p.BoostEnergy > limit && Distance(head, tok.Pos) < 520
		} else if pos, ok := p.bestPellet(); ok {
			desired = norm(pos.Sub(head))
		} else {
			desired = norm(Lerp(b.dir, b.rng.UnitDir(), 0.08))
		}
	}

	if desired.LengthSq() <= 0.0001 {
		desired = b.dir
	}
	if inward.LengthSq() > 0.0001 {
		desired = norm(desired.Mul(0.62).Add(inward.Mul(1.10)))
	}

	t := Clamp(3.4*dt, 0, 1)
	if next := norm(Lerp(b.dir, desired, 0.55*t)); next.LengthSq() > 0 {
		b.dir = next
	}

	b.boostIntent = max(b.boostIntent-dt, 0)
	if wantsBoost && b.boostIntent <= 0 {
		b.boostIntent = b.rng.Float(0.25, 0.55)
	}

	return Input{Dir: b.dir, Boost: b.boostIntent > 0}
}

func (p Perception) bestPellet() (Vec2, bool) {
	if p.Pellets == nil {
		return Vec2{}, false
	}
	return p.Pellets.BestTarget(p.Self.Head, botPelletSearch)
}

func (b *BotBrain) keepHunt(p Perception) (Vec2, bool) {
	if b.huntLeft <= 0 || b.huntTarget == 0 {
		return Vec2{}, false
	}
	for _, o := range p.Others {
		if o.ID == b.huntTarget && o.Alive && p.Self.Radius > o.Radius*1.07 {
			return o.Head, true
		}
	}
	b.huntTarget = 0
	b.huntLeft = 0
	return Vec2{}, false
}

func (b *BotBrain) pickHunt(p Perception) (Vec2, bool) {
	var best AgentView
	bestScore := 0.0
	found := false
	for _, o := range p.Others {
		if !o.Alive || p.Self.Radius <= o.Radius*1.07 {
			continue
		}
		d := Distance(p.Self.Head, o.Head)
		if d > botHuntRadius {
			continue
		}
		ratio := Clamp(p.Self.Radius/max(o.Radius, 0.01), 1, 3)
		score := ratio*900 - d
		if !found || score > bestScore {
			best, bestScore, found = o, score, true
		}
	}
	if !found {
		return Vec2{}, false
	}
	b.huntTarget = best.ID
	b.huntLeft = b.rng.Float(1.2, 2.2)
	return best.Head, true
}

func (b *BotBrain) tokenTarget(p Perception) (Token, bool) {
	if p.Tokens == nil {
		return Token{}, false
	}
	return p.Tokens.BestTarget(p.Self.Head, func(k TokenKind) (float64, bool) {
		switch k {
		case TokenTimeAdd:
			return 1.7, true
		case TokenMagnet:
			return 2.2, p.MagnetLeft <= 0
		default:
			return 2.0, p.SpeedupLeft <= 0
		}
	})
}
