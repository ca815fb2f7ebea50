package protocol

// Mirror rebuilds the server's replicated state on the client side from
// the stream of server messages.
type Mirror struct {
	PlayerID uint32
	TickRate uint16
	Arena    ArenaInfo

	tick    uint32
	players map[uint32]PlayerState

	Pellets       []Vec2f
	Tokens        []TokenState
	TimeLeft      float32
	CountdownLeft float32

	events []Event
}

// NewMirror creates an empty mirror
func NewMirror() *Mirror {
	return &Mirror{players: make(map[uint32]PlayerState)}
}

// Apply folds one server message into the mirror. It reports false for a
// delta whose base is not the last applied tick; such a delta is ignored
// and the server will fall back to a full snapshot.
func (m *Mirror) Apply(msg ServerMessage) bool {
	switch s := msg.(type) {
	case JoinOK:
		m.PlayerID = s.PlayerID
		m.TickRate = s.TickRate
		m.Arena = s.Arena
		// the server restarts replication from tick 0 on every join
		m.tick = 0
		m.players = make(map[uint32]PlayerState)
		m.events = nil
	case Snapshot:
		m.players = make(map[uint32]PlayerState, len(s.Players))
		for _, p := range s.Players {
			m.players[p.ID] = p
		}
		m.frame(s.ServerTick, s.Pellets, s.Tokens, s.Events, s.TimeLeft, s.CountdownLeft)
	case SnapshotDelta:
		if s.BaseTick != m.tick {
			return false
		}
		for _, d := range s.Players {
			p := m.players[d.ID]
			d.Apply(&p)
			m.players[d.ID] = p
		}
		m.frame(s.ServerTick, s.Pellets, s.Tokens, s.Events, s.TimeLeft, s.CountdownLeft)
	case PlayerLeft:
		delete(m.players, s.ID)
	}
	return true
}

func (m *Mirror) frame(tick uint32, pellets []Vec2f, tokens []TokenState, events []Event, timeLeft, countdownLeft float32) {
	m.tick = tick
	m.Pellets = pellets
	m.Tokens = tokens
	m.events = append(m.events, events...)
	m.TimeLeft = timeLeft
	m.CountdownLeft = countdownLeft
}

// Ack returns the tick of the last applied frame, to be sent back with the
// next input.
func (m *Mirror) Ack() uint32 {
	return m.tick
}

// Players returns the mirrored players sorted by ID
func (m *Mirror) Players() []PlayerState {
	return sortedPlayers(m.players)
}

// Player returns one mirrored player
func (m *Mirror) Player(id uint32) (PlayerState, bool) {
	p, ok := m.players[id]
	return p, ok
}

// TakeEvents returns the events received since the last call
func (m *Mirror) TakeEvents() []Event {
	out := m.events
	m.events = nil
	return out
}
