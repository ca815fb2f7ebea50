// Package protocol defines the wire messages exchanged between snake clients
// and the room server, their binary and JSON encodings, and the per-observer
// delta replication built on top of them.
package protocol

// Version is the protocol version carried in every envelope
const Version uint8 = 1

// Message tags used by the JSON envelope
const (
	TagJoinReq       = "join_req"
	TagInput         = "input"
	TagPing          = "ping"
	TagLeave         = "leave"
	TagJoinOK        = "join_ok"
	TagSnapshot      = "snapshot"
	TagSnapshotDelta = "snapshot_delta"
	TagPong          = "pong"
	TagPlayerLeft    = "player_left"
)

// Vec2f is a wire vector
type Vec2f struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// ClientMessage is a message sent by a client
type ClientMessage interface {
	ClientTag() string
}

// ServerMessage is a message sent by the server
type ServerMessage interface {
	ServerTag() string
}

// JoinReq asks to join a room by ID
type JoinReq struct {
	RoomID     string  `json:"room_id"`
	Name       string  `json:"name"`
	Device     string  `json:"device"`
	ClientTime float32 `json:"client_time"`
}

// Input carries the steering state for one client tick
type Input struct {
	Seq             uint32  `json:"seq"`
	Tick            uint32  `json:"tick"`
	Dir             Vec2f   `json:"dir"`
	Boost           bool    `json:"boost"`
	ClientTime      float32 `json:"client_time"`
	LastSnapshotAck *uint32 `json:"last_snapshot_ack"`
}

// Ping asks for a pong echoing ClientTime
type Ping struct {
	ClientTime float32 `json:"client_time"`
}

// Leave removes the client from its room
type Leave struct{}

func (JoinReq) ClientTag() string { return TagJoinReq }
func (Input) ClientTag() string   { return TagInput }
func (Ping) ClientTag() string    { return TagPing }
func (Leave) ClientTag() string   { return TagLeave }

// ArenaInfo describes the arena of the joined room
type ArenaInfo struct {
	Radius float32 `json:"radius"`
	Seed   uint32  `json:"seed"`
}

// JoinOK acknowledges a join
type JoinOK struct {
	PlayerID   uint32    `json:"player_id"`
	TickRate   uint16    `json:"tick_rate"`
	ServerTick uint32    `json:"server_tick"`
	Arena      ArenaInfo `json:"arena"`
}

// PlayerState is the full replicated state of one agent
type PlayerState struct {
	ID     uint32  `json:"id"`
	Alive  bool    `json:"alive"`
	Head   Vec2f   `json:"head"`
	Dir    Vec2f   `json:"dir"`
	Radius float32 `json:"radius"`
	Score  int32   `json:"score"`
	Boost  float32 `json:"boost"`
}

// PlayerDelta carries only the fields of a player named by FieldMask
type PlayerDelta struct {
	ID        uint32   `json:"id"`
	FieldMask uint16   `json:"field_mask"`
	Alive     *bool    `json:"alive,omitempty"`
	Head      *Vec2f   `json:"head,omitempty"`
	Dir       *Vec2f   `json:"dir,omitempty"`
	Radius    *float32 `json:"radius,omitempty"`
	Score     *int32   `json:"score,omitempty"`
	Boost     *float32 `json:"boost,omitempty"`
}

// TokenState is a power-up on the ground
type TokenState struct {
	ID   uint32  `json:"id"`
	Kind string  `json:"kind"`
	Pos  Vec2f   `json:"pos"`
	TTL  float32 `json:"ttl"`
}

// Event is a gameplay notification
type Event struct {
	Kind string `json:"kind"`
	ID   uint32 `json:"id"`
}

// Snapshot is a complete frame
type Snapshot struct {
	ServerTick    uint32        `json:"server_tick"`
	Players       []PlayerState `json:"players"`
	Pellets       []Vec2f       `json:"pellets"`
	Tokens        []TokenState  `json:"tokens"`
	Events        []Event       `json:"events"`
	TimeLeft      float32       `json:"time_left"`
	CountdownLeft float32       `json:"countdown_left"`
}

// SnapshotDelta is a frame whose players are relative to the frame at BaseTick
type SnapshotDelta struct {
	ServerTick    uint32        `json:"server_tick"`
	BaseTick      uint32        `json:"base_tick"`
	Players       []PlayerDelta `json:"players"`
	Pellets       []Vec2f       `json:"pellets"`
	Tokens        []TokenState  `json:"tokens"`
	Events        []Event       `json:"events"`
	TimeLeft      float32       `json:"time_left"`
	CountdownLeft float32       `json:"countdown_left"`
}

// Pong answers a ping
type Pong struct {
	ServerTime float32 `json:"server_time"`
	ClientTime float32 `json:"client_time"`
}

// PlayerLeft tells the room that an agent was removed
type PlayerLeft struct {
	ID uint32 `json:"id"`
}

func (JoinOK) ServerTag() string        { return TagJoinOK }
func (Snapshot) ServerTag() string      { return TagSnapshot }
func (SnapshotDelta) ServerTag() string { return TagSnapshotDelta }
func (Pong) ServerTag() string          { return TagPong }
func (PlayerLeft) ServerTag() string    { return TagPlayerLeft }
