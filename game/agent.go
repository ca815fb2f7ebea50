package game

// AgentKind distinguishes human players from bots
type AgentKind uint8

const (
	KindPlayer AgentKind = iota
	KindBot
)

// Input is the per-tick control of an agent
type Input struct {
	Dir   Vec2
	Boost bool
}

// Agent is one snake in a room, controlled by a connection or a bot brain
type Agent struct {
	ID      uint32
	Kind    AgentKind
	Name    string
	Session uint64 // zero for bots

	Alive       bool
	Snake       *Snake
	Score       int
	BoostEnergy float64
	MagnetLeft  float64
	SpeedupLeft float64

	// Brain produces the input of bot agents each tick
	Brain InputSource

	input     Input
	inputTick uint32
	hasInput  bool
}

// AgentState is the replicated view of an agent
type AgentState struct {
	ID     uint32
	Alive  bool
	Head   Vec2
	Dir    Vec2
	Radius float64
	Score  int
	Boost  float64
}

func newAgent(id uint32, kind AgentKind, name string, head, dir Vec2) *Agent {
	return &Agent{
		ID:          id,
		Kind:        kind,
		Name:        name,
		Alive:       true,
		Snake:       NewSnake(head, dir),
		BoostEnergy: BoostEnergyMax,
	}
}

// State returns the replicated view of the agent
func (a *Agent) State() AgentState {
	return AgentState{
		ID:     a.ID,
		Alive:  a.Alive,
		Head:   a.Snake.Head(),
		Dir:    a.Snake.Dir(),
		Radius: a.Snake.Radius,
		Score:  a.Score,
		Boost:  a.BoostEnergy,
	}
}

func (a *Agent) setInput(in Input, tick uint32) {
	a.input = in
	a.inputTick = tick
	a.hasInput = true
}

// sizeFactor shrinks pickup and magnet reach as the body grows
func (a *Agent) sizeFactor() float64 {
	return Clamp(BaseSnakeRadius/a.Snake.Radius, 0.25, 1)
}

func (a *Agent) clearBuffs() {
	a.MagnetLeft = 0
	a.SpeedupLeft = 0
}
