// Package server hosts snake rooms behind websocket connections: a single
// dispatcher owns every room and session, and each connection only decodes
// frames and forwards them.
package server

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sasha-s/go-deadlock"

	"snakeclash/server/directory"
	"snakeclash/server/game"
	"snakeclash/server/protocol"
)

// DefaultRoomID is used when a join request names no room
const DefaultRoomID = "lobby"

// Config controls the rooms a dispatcher creates
type Config struct {
	TickRate         int
	MaxPlayers       int
	Bots             int
	MatchSeconds     float64
	CountdownSeconds float64
	RematchDelay     time.Duration
	PublishInterval  time.Duration
	PublicAddr       string
	Region           string
	// Seed is the seed of the first room; later rooms count up from it.
	// Zero seeds from the clock.
	Seed             uint32
}

// RoomConfig returns the simulation config for a new room
func (c Config) RoomConfig() game.RoomConfig {
	rc := game.DefaultRoomConfig()
	if c.TickRate > 0 {
		rc.TickRate = c.TickRate
	}
	rc.MaxPlayers = c.MaxPlayers
	if c.MatchSeconds > 0 {
		rc.MatchDuration = c.MatchSeconds
	}
	rc.Countdown = c.CountdownSeconds
	return rc
}

type session struct {
	id   uint64
	sink Sink
	name string
	room string
}

type hostedRoom struct {
	id            string
	room          *game.Room
	finishedTicks int
}

type outbound struct {
	sink Sink
	msg  protocol.ServerMessage
}

// Dispatcher owns all rooms, sessions and replication state behind one
// lock. The lock is held for one tick or one inbound message. Frames are
// queued on each Sink before the lock is released, so every connection sees
// them in the order they were built; Sink.Send never blocks.
type Dispatcher struct {
	mu deadlock.Mutex

	cfg         Config
	logger      *log.Logger
	publisher   directory.Publisher
	rooms       map[string]*hostedRoom
	sessions    map[uint64]*session
	nextSession uint64
	nextSeed    uint32
	replicator  *protocol.Replicator
	removed     []string
	started     time.Time
}

// NewDispatcher creates a dispatcher. publisher may be nil.
func NewDispatcher(cfg Config, publisher directory.Publisher, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = game.DefaultTickRate
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint32(time.Now().UnixNano())
	}
	return &Dispatcher{
		nextSeed:   seed,
		cfg:        cfg,
		logger:     logger,
		publisher:  publisher,
		rooms:      make(map[string]*hostedRoom),
		sessions:   make(map[uint64]*session),
		replicator: protocol.NewReplicator(),
		started:    time.Now(),
	}
}

// Register adds a connection and returns its session ID
func (d *Dispatcher) Register(sink Sink) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextSession++
	id := d.nextSession
	d.sessions[id] = &session{id: id, sink: sink}
	return id
}

// Unregister removes a connection and its agent
func (d *Dispatcher) Unregister(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.deliver(d.leave(id))
	delete(d.sessions, id)
}

// HandleInbound applies one decoded client message
func (d *Dispatcher) HandleInbound(id uint64, msg protocol.ClientMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []outbound
	if s, ok := d.sessions[id]; ok {
		switch m := msg.(type) {
		case protocol.JoinReq:
			out = d.join(s, m)
		case protocol.Input:
			d.input(s, m)
		case protocol.Ping:
			out = []outbound{{s.sink, protocol.Pong{
				ServerTime: float32(time.Since(d.started).Seconds()),
				ClientTime: m.ClientTime,
			}}}
		case protocol.Leave:
			out = d.leave(id)
		}
	}
	d.deliver(out)
}

func (d *Dispatcher) join(s *session, m protocol.JoinReq) []outbound {
	if s.room != "" {
		d.logger.Printf("Session %d already in room %s", s.id, s.room)
		return nil
	}
	roomID := strings.TrimSpace(m.RoomID)
	if roomID == "" {
		roomID = DefaultRoomID
	}
	hr, ok := d.rooms[roomID]
	if !ok {
		hr = d.newRoom(roomID)
	}

	name := sanitizeName(m.Name)
	playerID := hr.room.AddPlayer(s.id, name)
	if playerID == 0 {
		d.logger.Printf("Room %s is full, rejecting session %d", roomID, s.id)
		if !ok {
			delete(d.rooms, roomID)
		}
		return nil
	}
	s.room = roomID
	s.name = name
	d.replicator.Reset(s.id)
	d.logger.Printf("Player %s joined room %s as %d", name, roomID, playerID)
	return []outbound{{s.sink, d.joinOK(hr, playerID)}}
}

func (d *Dispatcher) joinOK(hr *hostedRoom, playerID uint32) protocol.JoinOK {
	cfg := hr.room.Config()
	return protocol.JoinOK{
		PlayerID:   playerID,
		TickRate:   uint16(cfg.TickRate),
		ServerTick: hr.room.Tick(),
		Arena: protocol.ArenaInfo{
			Radius: float32(cfg.ArenaRadius),
			Seed:   uint32(cfg.Seed),
		},
	}
}

func (d *Dispatcher) newRoom(id string) *hostedRoom {
	hr := &hostedRoom{id: id, room: d.freshRoom()}
	d.rooms[id] = hr
	return hr
}

// freshRoom creates a room with the next seed and fills it with bots
func (d *Dispatcher) freshRoom() *game.Room {
	rc := d.cfg.RoomConfig()
	rc.Seed = int64(d.nextSeed)
	d.nextSeed++
	room := game.NewRoom(rc)
	for i := 0; i < d.cfg.Bots; i++ {
		room.AddBot(botName(i))
	}
	return room
}

func (d *Dispatcher) input(s *session, m protocol.Input) {
	if m.LastSnapshotAck != nil {
		d.replicator.Ack(s.id, *m.LastSnapshotAck)
	}
	hr, ok := d.rooms[s.room]
	if !ok {
		return
	}
	hr.room.SetInput(s.id, game.Input{Dir: m.Dir.Vec2(), Boost: m.Boost})
}

// leave removes the session's agent and tells the rest of the room. An
// emptied room is dropped.
func (d *Dispatcher) leave(id uint64) []outbound {
	s, ok := d.sessions[id]
	if !ok || s.room == "" {
		return nil
	}
	hr := d.rooms[s.room]
	s.room = ""
	d.replicator.Forget(id)
	if hr == nil {
		return nil
	}

	playerID, ok := hr.room.RemoveSession(id)
	if !ok {
		return nil
	}
	d.logger.Printf("Player %s left room %s", s.name, hr.id)

	var out []outbound
	for _, other := range hr.room.Sessions() {
		if peer, ok := d.sessions[other]; ok {
			out = append(out, outbound{peer.sink, protocol.PlayerLeft{ID: playerID}})
		}
	}
	if hr.room.PlayerCount() == 0 {
		delete(d.rooms, hr.id)
		d.removed = append(d.removed, hr.id)
		d.logger.Printf("Room %s closed", hr.id)
	}
	return out
}

// Tick steps every room once and sends each session its frame
func (d *Dispatcher) Tick() {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []outbound
	for _, id := range d.roomIDs() {
		hr := d.rooms[id]
		hr.room.Step()
		frame := protocol.NewFrame(hr.room, hr.room.TakeEvents())
		for _, sid := range hr.room.Sessions() {
			s, ok := d.sessions[sid]
			if !ok {
				continue
			}
			if msg := d.replicator.Frame(sid, frame); msg != nil {
				out = append(out, outbound{s.sink, msg})
			}
		}
		out = append(out, d.maybeRematch(hr)...)
	}
	d.deliver(out)
}

// maybeRematch replaces a finished room with a fresh one once the rematch
// delay has passed, rejoining every session.
func (d *Dispatcher) maybeRematch(hr *hostedRoom) []outbound {
	if hr.room.Phase() != game.PhaseFinished {
		return nil
	}
	hr.finishedTicks++
	delay := int(math.Round(d.cfg.RematchDelay.Seconds() * float64(hr.room.TickRate())))
	if hr.finishedTicks < delay {
		return nil
	}

	old := hr.room
	hr.room = d.freshRoom()
	hr.finishedTicks = 0

	var out []outbound
	for _, sid := range old.Sessions() {
		s, ok := d.sessions[sid]
		if !ok {
			continue
		}
		playerID := hr.room.AddPlayer(sid, s.name)
		if playerID == 0 {
			continue
		}
		d.replicator.Reset(sid)
		out = append(out, outbound{s.sink, d.joinOK(hr, playerID)})
	}
	d.logger.Printf("Room %s rematch with %d players", hr.id, len(out))
	return out
}

func (d *Dispatcher) roomIDs() []string {
	ids := make([]string, 0, len(d.rooms))
	for id := range d.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// deliver encodes and queues messages. It must be called with the lock held.
func (d *Dispatcher) deliver(out []outbound) {
	for _, o := range out {
		data, err := protocol.EncodeServer(o.msg)
		if err != nil {
			d.logger.Printf("Error encoding %s: %v", o.msg.ServerTag(), err)
			continue
		}
		o.sink.Send(data)
	}
}

// Heartbeats returns the occupancy of every room and the rooms removed since
// the last call.
func (d *Dispatcher) Heartbeats() ([]directory.Heartbeat, []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	hbs := make([]directory.Heartbeat, 0, len(d.rooms))
	for _, id := range d.roomIDs() {
		hr := d.rooms[id]
		hbs = append(hbs, directory.Heartbeat{
			RoomID:      id,
			Address:     d.cfg.PublicAddr,
			Region:      d.cfg.Region,
			PlayerCount: hr.room.PlayerCount(),
			MaxPlayers:  hr.room.Config().MaxPlayers,
			Status:      roomStatus(hr.room),
		})
	}
	removed := d.removed
	d.removed = nil
	return hbs, removed
}

func roomStatus(r *game.Room) directory.Status {
	switch r.Phase() {
	case game.PhaseCountdown:
		return directory.StatusStarting
	case game.PhaseRunning:
		return directory.StatusRunning
	default:
		return directory.StatusFinished
	}
}

// publish pushes occupancy to the directory. Failures are logged and the
// next interval tries again.
func (d *Dispatcher) publish(ctx context.Context) {
	if d.publisher == nil {
		return
	}
	hbs, removed := d.Heartbeats()
	for _, id := range removed {
		if err := d.publisher.Remove(ctx, id); err != nil {
			d.logger.Printf("Error removing room %s from directory: %v", id, err)
		}
	}
	for _, hb := range hbs {
		if err := d.publisher.Publish(ctx, hb); err != nil {
			d.logger.Printf("Error publishing room %s: %v", hb.RoomID, err)
		}
	}
}

// Run drives the tick loop until ctx is done. Directory publishing runs on
// its own goroutine so a slow directory never delays a tick.
func (d *Dispatcher) Run(ctx context.Context) {
	if d.publisher != nil {
		go d.publishLoop(ctx)
	}

	ticker := time.NewTicker(time.Second / time.Duration(d.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick()
		}
	}
}

func (d *Dispatcher) publishLoop(ctx context.Context) {
	interval := d.cfg.PublishInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.publish(ctx)
		}
	}
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > MaxPlayerNameLen {
		name = string(r[:MaxPlayerNameLen])
	}
	if name == "" {
		name = "Snake"
	}
	return name
}

func botName(i int) string {
	names := []string{"Noodle", "Slinky", "Zigzag", "Hiss", "Coil", "Scales", "Viper", "Sly"}
	return names[i%len(names)]
}
