package game

import "math"

// TokenKind identifies a power-up
type TokenKind uint8

const (
	TokenMagnet TokenKind = iota
	TokenSpeedUp
	TokenTimeAdd
)

// String returns the wire name of the kind
func (k TokenKind) String() string {
	switch k {
	case TokenMagnet:
		return "magnet"
	case TokenSpeedUp:
		return "speed"
	case TokenTimeAdd:
		return "time"
	default:
		return "unknown"
	}
}

// ParseTokenKind maps a wire name back to its kind
func ParseTokenKind(s string) (TokenKind, bool) {
	switch s {
	case "magnet":
		return TokenMagnet, true
	case "speed":
		return TokenSpeedUp, true
	case "time":
		return TokenTimeAdd, true
	}
	return 0, false
}

// Radius returns the pickup radius of the kind
func (k TokenKind) Radius() float64 {
	if k == TokenTimeAdd {
		return TokenRadiusLarge
	}
	return TokenRadiusSmall
}

// Token is a power-up lying in the arena
type Token struct {
	ID   uint32
	Kind TokenKind
	Pos  Vec2
}

// TokenPool holds a small unordered set of tokens
type TokenPool struct {
	arenaRadius float64
	target      int
	items       []Token
	nextID      uint32
	rng         *Rand
}

// NewTokenPool creates an empty pool that refills up to target
func NewTokenPool(arenaRadius float64, target int, rng *Rand) *TokenPool {
	return &TokenPool{
		arenaRadius: arenaRadius,
		target:      target,
		nextID:      1,
		rng:         rng,
	}
}

// Total returns the number of tokens in the arena
func (tp *TokenPool) Total() int {
	return len(tp.items)
}

// Target returns the refill target
func (tp *TokenPool) Target() int {
	return tp.target
}

// Items returns the current tokens. The slice must not be modified.
func (tp *TokenPool) Items() []Token {
	return tp.items
}

// Clear removes every token
func (tp *TokenPool) Clear() {
	tp.items = tp.items[:0]
}

// Add places a token of kind at pos
func (tp *TokenPool) Add(kind TokenKind, pos Vec2) Token {
	t := Token{ID: tp.nextID, Kind: kind, Pos: pos}
	tp.nextID++
	tp.items = append(tp.items, t)
	return t
}

// PopulateRandom fills the pool up to its target. Missing kinds are placed
// first (time, magnet, speed); after that kinds roll 40/40/20.
func (tp *TokenPool) PopulateRandom() {
	for len(tp.items) < tp.target {
		m, s, t := tp.countKinds()
		var kind TokenKind
		switch {
		case t == 0:
			kind = TokenTimeAdd
		case m == 0:
			kind = TokenMagnet
		case s == 0:
			kind = TokenSpeedUp
		default:
			kind = tp.rollKind()
		}
		tp.Add(kind, tp.rng.InDisk(tp.arenaRadius))
	}
}

func (tp *TokenPool) rollKind() TokenKind {
	roll := tp.rng.Int(0, 99)
	switch {
	case roll < 40:
		return TokenMagnet
	case roll < 80:
		return TokenSpeedUp
	default:
		return TokenTimeAdd
	}
}

func (tp *TokenPool) countKinds() (magnet, speed, timeAdd int) {
	for _, it := range tp.items {
		switch it.Kind {
		case TokenMagnet:
			magnet++
		case TokenSpeedUp:
			speed++
		case TokenTimeAdd:
			timeAdd++
		}
	}
	return
}

// CollectCollidingFiltered removes and returns the tokens touching the head
// whose kind allow accepts. A nil allow accepts every kind.
func (tp *TokenPool) CollectCollidingFiltered(head Vec2, headRadius float64, allow func(TokenKind) bool) []TokenKind {
	var collected []TokenKind
	i := 0
	for i < len(tp.items) {
		t := tp.items[i]
		r := headRadius + t.Kind.Radius()
		if DistanceSq(head, t.Pos) <= r*r && (allow == nil || allow(t.Kind)) {
			collected = append(collected, t.Kind)
			last := len(tp.items) - 1
			tp.items[i] = tp.items[last]
			tp.items = tp.items[:last]
			continue
		}
		i++
	}
	return collected
}

// BestTarget returns the token maximising weight/distance, where weight comes
// from score. Kinds for which score reports false are skipped.
func (tp *TokenPool) BestTarget(head Vec2, score func(TokenKind) (float64, bool)) (Token, bool) {
	var best Token
	bestScore := math.Inf(-1)
	found := false
	for _, t := range tp.items {
		w, ok := score(t.Kind)
		if !ok {
			continue
		}
		s := w / math.Max(Distance(head, t.Pos), 1)
		if !found || s > bestScore {
			best, bestScore, found = t, s, true
		}
	}
	return best, found
}
