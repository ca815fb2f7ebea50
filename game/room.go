package game

import (
	"math"
	"sort"
)

// Phase is the match state of a room
type Phase int

const (
	PhaseCountdown Phase = iota
	PhaseRunning
	PhaseFinished
)

// String returns a lower-case name for the phase
func (p Phase) String() string {
	switch p {
	case PhaseCountdown:
		return "countdown"
	case PhaseRunning:
		return "running"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// FinishReason records why a match ended
type FinishReason int

const (
	FinishNone FinishReason = iota
	FinishTimeUp
	FinishAllEliminated
	FinishLastAlive
)

// Mode selects how a room is driven. Both modes share the same rules;
// local rooms also end as soon as nobody or only one agent is left alive.
type Mode int

const (
	ModeAuthoritative Mode = iota
	ModeLocal
)

// Event kinds
const (
	EventMatchStart = "match_start"
	EventTimeUp     = "time_up"
	EventDeath      = "death"
	EventMagnet     = "magnet"
	EventSpeedUp    = "speedup"
	EventTimeAdd    = "time_add"
)

// Event is a gameplay notification produced by a tick. For time_add the ID
// carries the seconds added; otherwise it is the agent ID or zero.
type Event struct {
	Kind string
	ID   uint32
}

// RoomConfig holds the per-room tuning
type RoomConfig struct {
	TickRate            int
	Countdown           float64
	MatchDuration       float64
	MaxPlayers          int
	ArenaRadius         float64
	PelletTarget        int
	TokenTarget         int
	HeavyAgentThreshold int
	Mode                Mode
	Seed                int64
}

// DefaultRoomConfig returns the standard networked room
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		TickRate:            DefaultTickRate,
		Countdown:           CountdownDuration,
		MatchDuration:       MatchDuration,
		MaxPlayers:          MaxRoomPlayers,
		ArenaRadius:         ArenaRadius,
		PelletTarget:        PelletTargetCount,
		TokenTarget:         TokenTargetCount,
		HeavyAgentThreshold: HeavyAgentThreshold,
		Mode:                ModeAuthoritative,
		Seed:                42,
	}
}

// Room owns one arena: its agents, pellets and tokens, and the match clock.
// A Room is not safe for concurrent use; callers serialize access.
type Room struct {
	cfg RoomConfig
	rng *Rand

	agents   map[uint32]*Agent
	order    []*Agent
	sessions map[uint64]uint32
	nextID   uint32

	Pellets *PelletGrid
	Tokens  *TokenPool

	tick           uint32
	countdownTicks int
	timeLeftTicks  int
	phase          Phase
	reason         FinishReason
	events         []Event
	playerDied     bool
}

// NewRoom creates a room in countdown with pellets and tokens at their targets
func NewRoom(cfg RoomConfig) *Room {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.ArenaRadius <= 0 {
		cfg.ArenaRadius = ArenaRadius
	}
	rng := NewRand(cfg.Seed)
	r := &Room{
		cfg:            cfg,
		rng:            rng,
		agents:         make(map[uint32]*Agent),
		sessions:       make(map[uint64]uint32),
		nextID:         1,
		Pellets:        NewPelletGrid(PelletBucketSize, cfg.ArenaRadius, rng),
		Tokens:         NewTokenPool(cfg.ArenaRadius, cfg.TokenTarget, rng),
		countdownTicks: secondsToTicks(cfg.Countdown, cfg.TickRate),
		timeLeftTicks:  secondsToTicks(cfg.MatchDuration, cfg.TickRate),
	}
	if r.countdownTicks == 0 {
		r.phase = PhaseRunning
	}
	r.Pellets.PopulateRandom(cfg.PelletTarget, PelletRadius)
	r.Tokens.PopulateRandom()
	return r
}

func secondsToTicks(sec float64, tickRate int) int {
	if sec <= 0 {
		return 0
	}
	return int(math.Round(sec * float64(tickRate)))
}

// Config returns the room configuration
func (r *Room) Config() RoomConfig {
	return r.cfg
}

// TickRate returns the simulation rate in ticks per second
func (r *Room) TickRate() int {
	return r.cfg.TickRate
}

// Tick returns the number of steps taken so far
func (r *Room) Tick() uint32 {
	return r.tick
}

// Phase returns the match state
func (r *Room) Phase() Phase {
	return r.phase
}

// FinishReason returns why the match ended, or FinishNone
func (r *Room) FinishReason() FinishReason {
	return r.reason
}

// TimeLeft returns the match time remaining in seconds
func (r *Room) TimeLeft() float64 {
	return float64(r.timeLeftTicks) / float64(r.cfg.TickRate)
}

// CountdownLeft returns the countdown remaining in seconds
func (r *Room) CountdownLeft() float64 {
	return float64(r.countdownTicks) / float64(r.cfg.TickRate)
}

// PlayerDied reports whether a player-kind agent died during the last step
func (r *Room) PlayerDied() bool {
	return r.playerDied
}

// PlayerCount returns the number of player-kind agents
func (r *Room) PlayerCount() int {
	n := 0
	for _, a := range r.order {
		if a.Kind == KindPlayer {
			n++
		}
	}
	return n
}

// Agents returns every agent sorted by ID
func (r *Room) Agents() []*Agent {
	return r.order
}

// Agent returns the agent with id
func (r *Room) Agent(id uint32) (*Agent, bool) {
	a, ok := r.agents[id]
	return a, ok
}

// SessionAgent returns the agent owned by a session
func (r *Room) SessionAgent(session uint64) (*Agent, bool) {
	id, ok := r.sessions[session]
	if !ok {
		return nil, false
	}
	return r.Agent(id)
}

// Sessions returns the sessions with an agent in the room, in ascending order
func (r *Room) Sessions() []uint64 {
	out := make([]uint64, 0, len(r.sessions))
	for s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AddPlayer spawns an agent for session and returns its ID. It returns 0 when
// the room already holds MaxPlayers players or the session already joined.
func (r *Room) AddPlayer(session uint64, name string) uint32 {
	if r.cfg.MaxPlayers > 0 && r.PlayerCount() >= r.cfg.MaxPlayers {
		return 0
	}
	if _, dup := r.sessions[session]; dup {
		return 0
	}
	a := r.spawn(KindPlayer, name)
	a.Session = session
	r.sessions[session] = a.ID
	return a.ID
}

// AddBot spawns a bot driven by a BotBrain and returns its ID
func (r *Room) AddBot(name string) uint32 {
	a := r.spawn(KindBot, name)
	a.Brain = NewBotBrain(r.rng, a.Snake.Dir())
	return a.ID
}

func (r *Room) spawn(kind AgentKind, name string) *Agent {
	id := r.nextID
	r.nextID++
	a := newAgent(id, kind, name, r.pickSpawn(), r.rng.UnitDir())
	r.agents[id] = a
	r.reindex()
	return a
}

// pickSpawn tries random points in the inner part of the arena that are clear
// of every living head, then falls back to any point in a smaller disk.
func (r *Room) pickSpawn() Vec2 {
	clear2 := SpawnClearance * SpawnClearance
	for i := 0; i < SpawnTries; i++ {
		p := r.rng.InDisk(r.cfg.ArenaRadius * SpawnInnerFraction)
		ok := true
		for _, a := range r.order {
			if a.Alive && DistanceSq(a.Snake.Head(), p) < clear2 {
				ok = false
				break
			}
		}
		if ok {
			return p
		}
	}
	return r.rng.InDisk(r.cfg.ArenaRadius * SpawnFallbackRadius)
}

// RemoveSession removes the agent owned by session and returns its ID
func (r *Room) RemoveSession(session uint64) (uint32, bool) {
	id, ok := r.sessions[session]
	if !ok {
		return 0, false
	}
	delete(r.sessions, session)
	delete(r.agents, id)
	r.reindex()
	return id, true
}

func (r *Room) reindex() {
	r.order = r.order[:0]
	for _, a := range r.agents {
		r.order = append(r.order, a)
	}
	sort.Slice(r.order, func(i, j int) bool { return r.order[i].ID < r.order[j].ID })
}

// SetInput stores the latest input of the session's agent. It reports false
// when the session has no agent in the room.
func (r *Room) SetInput(session uint64, in Input) bool {
	a, ok := r.SessionAgent(session)
	if !ok {
		return false
	}
	a.setInput(in, r.tick)
	return true
}

// PlayerStates returns the replicated state of every agent sorted by ID
func (r *Room) PlayerStates() []AgentState {
	out := make([]AgentState, len(r.order))
	for i, a := range r.order {
		out[i] = a.State()
	}
	return out
}

// TakeEvents returns the events of the last step and clears them
func (r *Room) TakeEvents() []Event {
	out := r.events
	r.events = nil
	return out
}

func (r *Room) emit(kind string, id uint32) {
	r.events = append(r.events, Event{Kind: kind, ID: id})
}

func (r *Room) finish(reason FinishReason) {
	r.phase = PhaseFinished
	r.reason = reason
}

// Step advances the room by one tick
func (r *Room) Step() {
	dt := 1 / float64(r.cfg.TickRate)
	r.tick++
	r.events = r.events[:0]
	r.playerDied = false

	switch r.phase {
	case PhaseCountdown:
		r.countdownTicks--
		if r.countdownTicks <= 0 {
			r.countdownTicks = 0
			r.phase = PhaseRunning
			r.emit(EventMatchStart, 0)
		}
		return
	case PhaseFinished:
		return
	}

	r.timeLeftTicks--
	if r.timeLeftTicks <= 0 {
		r.timeLeftTicks = 0
		r.finish(FinishTimeUp)
		r.emit(EventTimeUp, 0)
		return
	}

	r.thinkBots(dt)
	for _, a := range r.order {
		if a.Alive {
			r.stepAgent(a, dt)
		}
	}

	alive := 0
	for _, a := range r.order {
		if a.Alive {
			alive++
		}
	}
	heavy := r.cfg.HeavyAgentThreshold > 0 && alive > r.cfg.HeavyAgentThreshold
	toDie := resolveCollisions(r.order, r.cfg.ArenaRadius, heavy)
	died, playerDied := applyDeaths(r.order, toDie, r.Pellets)
	for _, a := range died {
		r.emit(EventDeath, a.ID)
	}
	r.playerDied = playerDied

	if r.cfg.Mode == ModeLocal && len(r.order) > 0 {
		alive -= len(died)
		switch {
		case alive == 0:
			r.timeLeftTicks = 0
			r.finish(FinishAllEliminated)
		case alive == 1 && len(r.order) > 1:
			r.finish(FinishLastAlive)
		}
	}

	if r.Pellets.Total() < r.cfg.PelletTarget {
		r.Pellets.PopulateRandom(r.cfg.PelletTarget, PelletRadius)
	}
	if r.Tokens.Total() < r.Tokens.Target() {
		r.Tokens.PopulateRandom()
	}
}

// thinkBots asks every living bot brain for its input against one shared
// view of the arena taken before anyone moves.
func (r *Room) thinkBots(dt float64) {
	var views []AgentView
	alive := 0
	for _, a := range r.order {
		if a.Alive {
			alive++
		}
	}
	for _, a := range r.order {
		if a.Kind != KindBot || !a.Alive || a.Brain == nil {
			continue
		}
		if views == nil {
			views = make([]AgentView, 0, len(r.order))
			for _, o := range r.order {
				views = append(views, AgentView{ID: o.ID, Alive: o.Alive, Head: o.Snake.Head(), Radius: o.Snake.Radius})
			}
		}
		others := make([]AgentView, 0, len(views)-1)
		var self AgentView
		for _, v := range views {
			if v.ID == a.ID {
				self = v
				continue
			}
			others = append(others, v)
		}
		in := a.Brain.NextInput(Perception{
			Self:        self,
			BoostEnergy: a.BoostEnergy,
			MagnetLeft:  a.MagnetLeft,
			SpeedupLeft: a.SpeedupLeft,
			Others:      others,
			AliveCount:  alive,
			ArenaRadius: r.cfg.ArenaRadius,
			Pellets:     r.Pellets,
			Tokens:      r.Tokens,
		}, dt)
		a.setInput(in, r.tick)
	}
}

// effectiveInput returns the input that steers the agent this tick. Missing
// or stale input holds the current heading without boost.
func (r *Room) effectiveInput(a *Agent) Input {
	if !a.hasInput || r.tick-a.inputTick > InputStaleTicks {
		return Input{Dir: a.Snake.Dir()}
	}
	in := a.input
	if !in.Dir.IsFinite() || in.Dir.LengthSq() <= 0.0001 {
		in.Dir = a.Snake.Dir()
	}
	return in
}

// Speed returns the movement speed of an agent for the given boost state
func (a *Agent) Speed(boosting bool) float64 {
	sizeMult := SmallSnakeSpeedMult + (1-SmallSnakeSpeedMult)*SizeFactor(a.Snake.Radius)
	tokenMult := 1.0
	if a.SpeedupLeft > 0 {
		tokenMult = SpeedupMult
	}
	boostMult := 1.0
	if boosting {
		boostMult = BoostSpeedMult
	}
	return BaseSpeed * sizeMult * tokenMult * boostMult
}

func (r *Room) stepAgent(a *Agent, dt float64) {
	in := r.effectiveInput(a)
	boosting := in.Boost && a.BoostEnergy > BoostMinEnergy

	a.Snake.Speed = a.Speed(boosting)
	a.Snake.UpdateDir(dt, in.Dir)

	if boosting {
		a.BoostEnergy = max(a.BoostEnergy-BoostEnergyDrainPerSec*dt, 0)
	} else {
		a.BoostEnergy = min(a.BoostEnergy+BoostEnergyRegenPerSec*dt, BoostEnergyMax)
	}

	sf := a.sizeFactor()
	pickupBonus := 0.0
	maxEat := PelletEatMax
	if a.MagnetLeft > 0 {
		pickupBonus = MagnetPickupBonus * sf
		maxEat = max(PelletEatMax/2, 4)
		attractMax := int(Clamp(math.Round(MagnetAttractMax*(0.35+0.65*sf)), MagnetAttractMin, MagnetAttractMax))
		r.Pellets.ApplyMagnet(
			a.Snake.Head(),
			dt,
			MagnetAttractRadius*(0.55+0.45*sf),
			MagnetAttractSpeed*(0.75+0.25*sf),
			attractMax,
		)
	}
	a.Score += r.Pellets.EatColliding(a.Snake.Head(), a.Snake.Radius, pickupBonus, maxEat)

	a.Snake.Grow(a.Score, dt)
	r.collectTokens(a)

	a.MagnetLeft = max(a.MagnetLeft-dt, 0)
	a.SpeedupLeft = max(a.SpeedupLeft-dt, 0)
}

// collectTokens picks up the tokens under the agent's head. A magnet or
// speed-up is only taken while that buff is not already running.
func (r *Room) collectTokens(a *Agent) {
	kinds := r.Tokens.CollectCollidingFiltered(a.Snake.Head(), a.Snake.Radius, func(k TokenKind) bool {
		switch k {
		case TokenMagnet:
			return a.MagnetLeft <= 0
		case TokenSpeedUp:
			return a.SpeedupLeft <= 0
		default:
			return true
		}
	})
	for _, k := range kinds {
		switch k {
		case TokenMagnet:
			a.MagnetLeft = BuffDuration
			r.emit(EventMagnet, a.ID)
		case TokenSpeedUp:
			a.SpeedupLeft = BuffDuration
			r.emit(EventSpeedUp, a.ID)
		case TokenTimeAdd:
			r.timeLeftTicks += secondsToTicks(TimeAddSeconds, r.cfg.TickRate)
			r.emit(EventTimeAdd, uint32(TimeAddSeconds))
		}
	}
}
