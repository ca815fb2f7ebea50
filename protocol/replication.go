package protocol

import "snakeclash/server/game"

// Frame is everything the server replicates for one room tick
type Frame struct {
	Tick          uint32
	Players       []PlayerState
	Pellets       []Vec2f
	Tokens        []TokenState
	Events        []Event
	TimeLeft      float32
	CountdownLeft float32
}

// NewFrame captures the replicated state of a room after a step.
// events are the ones taken from the room for that step.
func NewFrame(r *game.Room, events []game.Event) *Frame {
	f := &Frame{
		Tick:          r.Tick(),
		TimeLeft:      float32(r.TimeLeft()),
		CountdownLeft: float32(r.CountdownLeft()),
	}

	states := r.PlayerStates()
	f.Players = make([]PlayerState, len(states))
	for i, s := range states {
		f.Players[i] = PlayerStateFrom(s)
	}

	positions := r.Pellets.Positions()
	f.Pellets = make([]Vec2f, len(positions))
	for i, p := range positions {
		f.Pellets[i] = vec2f(p)
	}

	items := r.Tokens.Items()
	f.Tokens = make([]TokenState, len(items))
	for i, t := range items {
		f.Tokens[i] = TokenState{ID: t.ID, Kind: t.Kind.String(), Pos: vec2f(t.Pos)}
	}

	if len(events) > 0 {
		f.Events = make([]Event, len(events))
		for i, e := range events {
			f.Events[i] = Event{Kind: e.Kind, ID: e.ID}
		}
	}
	return f
}

// PlayerStateFrom converts a simulation agent state to its wire form
func PlayerStateFrom(s game.AgentState) PlayerState {
	return PlayerState{
		ID:     s.ID,
		Alive:  s.Alive,
		Head:   vec2f(s.Head),
		Dir:    vec2f(s.Dir),
		Radius: float32(s.Radius),
		Score:  int32(s.Score),
		Boost:  float32(s.Boost),
	}
}

func vec2f(v game.Vec2) Vec2f {
	return Vec2f{X: float32(v.X), Y: float32(v.Y)}
}

// Vec2 converts a wire vector to a simulation vector
func (v Vec2f) Vec2() game.Vec2 {
	return game.V(float64(v.X), float64(v.Y))
}

type snapshotCache struct {
	tick    uint32
	players []PlayerState
}

type observer struct {
	ack   uint32
	cache snapshotCache
}

// Replicator tracks, per observer session, the last acknowledged tick and the
// last player list sent, and turns frames into full or delta snapshots.
// It is not safe for concurrent use.
type Replicator struct {
	observers map[uint64]*observer
}

// NewReplicator creates an empty replicator
func NewReplicator() *Replicator {
	return &Replicator{observers: make(map[uint64]*observer)}
}

// Reset starts a session over at tick 0 with an empty cache, so its next
// frame is a delta carrying every player in full.
func (r *Replicator) Reset(session uint64) {
	r.observers[session] = &observer{}
}

// Ack records the last snapshot tick the session has applied
func (r *Replicator) Ack(session uint64, tick uint32) {
	if o, ok := r.observers[session]; ok {
		o.ack = tick
	}
}

// Forget drops all state for the session
func (r *Replicator) Forget(session uint64) {
	delete(r.observers, session)
}

// Tracked reports whether the session has replication state
func (r *Replicator) Tracked(session uint64) bool {
	_, ok := r.observers[session]
	return ok
}

// Frame builds the message for session: a delta against the cached players
// when the session acknowledged the cached tick, otherwise a full snapshot.
// Either way the cache moves to the frame. It returns nil for an unknown
// session.
func (r *Replicator) Frame(session uint64, f *Frame) ServerMessage {
	o, ok := r.observers[session]
	if !ok {
		return nil
	}
	var msg ServerMessage
	if o.ack == o.cache.tick {
		msg = SnapshotDelta{
			ServerTick:    f.Tick,
			BaseTick:      o.cache.tick,
			Players:       BuildPlayerDeltas(o.cache.players, f.Players),
			Pellets:       f.Pellets,
			Tokens:        f.Tokens,
			Events:        f.Events,
			TimeLeft:      f.TimeLeft,
			CountdownLeft: f.CountdownLeft,
		}
	} else {
		msg = Snapshot{
			ServerTick:    f.Tick,
			Players:       f.Players,
			Pellets:       f.Pellets,
			Tokens:        f.Tokens,
			Events:        f.Events,
			TimeLeft:      f.TimeLeft,
			CountdownLeft: f.CountdownLeft,
		}
	}
	o.cache = snapshotCache{tick: f.Tick, players: f.Players}
	return msg
}
