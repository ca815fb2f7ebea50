package protocol

import (
	"math"

	"github.com/pkg/errors"
)

// Binary tags. Client and server tags live in separate spaces.
const (
	binJoinReq byte = 1
	binInput   byte = 2
	binPing    byte = 3
	binLeave   byte = 4

	binJoinOK        byte = 1
	binSnapshot      byte = 2
	binSnapshotDelta byte = 3
	binPong          byte = 4
	binPlayerLeft    byte = 5
)

var (
	// ErrShortBuffer is returned when a binary frame ends early
	ErrShortBuffer = errors.New("protocol: short buffer")
	// ErrUnsupportedVersion is returned for an envelope version other than Version
	ErrUnsupportedVersion = errors.New("protocol: unsupported version")
	// ErrUnknownTag is returned for a tag that names no message
	ErrUnknownTag = errors.New("protocol: unknown tag")

	errTooLong       = errors.New("protocol: value too long")
	errTrailingBytes = errors.New("protocol: trailing bytes")
)

// EncodeClientBinary encodes a client message as a binary frame
func EncodeClientBinary(msg ClientMessage) ([]byte, error) {
	w := &writer{buf: make([]byte, 0, 64)}
	switch m := msg.(type) {
	case JoinReq:
		w.header(binJoinReq)
		w.str(m.RoomID)
		w.str(m.Name)
		w.str(m.Device)
		w.f32(m.ClientTime)
	case Input:
		w.header(binInput)
		w.u32(m.Seq)
		w.u32(m.Tick)
		w.vec(m.Dir)
		w.bool(m.Boost)
		w.f32(m.ClientTime)
		if m.LastSnapshotAck != nil {
			w.u8(1)
			w.u32(*m.LastSnapshotAck)
		} else {
			w.u8(0)
		}
	case Ping:
		w.header(binPing)
		w.f32(m.ClientTime)
	case Leave:
		w.header(binLeave)
	default:
		return nil, errors.Wrapf(ErrUnknownTag, "client message %T", msg)
	}
	return w.result()
}

// EncodeServerBinary encodes a server message as a binary frame
func EncodeServerBinary(msg ServerMessage) ([]byte, error) {
	var w *writer
	switch m := msg.(type) {
	case JoinOK:
		w = &writer{buf: make([]byte, 0, 24)}
		w.header(binJoinOK)
		w.u32(m.PlayerID)
		w.u16(m.TickRate)
		w.u32(m.ServerTick)
		w.f32(m.Arena.Radius)
		w.u32(m.Arena.Seed)
	case Snapshot:
		w = &writer{buf: make([]byte, 0, 32+len(m.Players)*37+len(m.Pellets)*8+len(m.Tokens)*24)}
		w.header(binSnapshot)
		w.u32(m.ServerTick)
		w.count(len(m.Players))
		for _, p := range m.Players {
			w.player(p)
		}
		w.frameTail(m.Pellets, m.Tokens, m.Events, m.TimeLeft, m.CountdownLeft)
	case SnapshotDelta:
		w = &writer{buf: make([]byte, 0, 32+len(m.Players)*43+len(m.Pellets)*8+len(m.Tokens)*24)}
		w.header(binSnapshotDelta)
		w.u32(m.ServerTick)
		w.u32(m.BaseTick)
		w.count(len(m.Players))
		for _, d := range m.Players {
			w.delta(d)
		}
		w.frameTail(m.Pellets, m.Tokens, m.Events, m.TimeLeft, m.CountdownLeft)
	case Pong:
		w = &writer{buf: make([]byte, 0, 10)}
		w.header(binPong)
		w.f32(m.ServerTime)
		w.f32(m.ClientTime)
	case PlayerLeft:
		w = &writer{buf: make([]byte, 0, 6)}
		w.header(binPlayerLeft)
		w.u32(m.ID)
	default:
		return nil, errors.Wrapf(ErrUnknownTag, "server message %T", msg)
	}
	return w.result()
}

// DecodeClientBinary decodes a binary client frame
func DecodeClientBinary(data []byte) (ClientMessage, error) {
	r := &reader{buf: data}
	tag := r.header()
	if r.err != nil {
		return nil, r.err
	}
	var msg ClientMessage
	switch tag {
	case binJoinReq:
		msg = JoinReq{RoomID: r.str(), Name: r.str(), Device: r.str(), ClientTime: r.f32()}
	case binInput:
		in := Input{Seq: r.u32(), Tick: r.u32(), Dir: r.vec(), Boost: r.bool(), ClientTime: r.f32()}
		if r.u8() != 0 {
			ack := r.u32()
			in.LastSnapshotAck = &ack
		}
		msg = in
	case binPing:
		msg = Ping{ClientTime: r.f32()}
	case binLeave:
		msg = Leave{}
	default:
		return nil, errors.Wrapf(ErrUnknownTag, "client tag %d", tag)
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return msg, nil
}

// DecodeServerBinary decodes a binary server frame
func DecodeServerBinary(data []byte) (ServerMessage, error) {
	r := &reader{buf: data}
	tag := r.header()
	if r.err != nil {
		return nil, r.err
	}
	var msg ServerMessage
	switch tag {
	case binJoinOK:
		msg = JoinOK{
			PlayerID:   r.u32(),
			TickRate:   r.u16(),
			ServerTick: r.u32(),
			Arena:      ArenaInfo{Radius: r.f32(), Seed: r.u32()},
		}
	case binSnapshot:
		s := Snapshot{ServerTick: r.u32()}
		if n := r.count(); n > 0 {
			s.Players = make([]PlayerState, n)
			for i := range s.Players {
				s.Players[i] = r.player()
			}
		}
		s.Pellets, s.Tokens, s.Events, s.TimeLeft, s.CountdownLeft = r.frameTail()
		msg = s
	case binSnapshotDelta:
		s := SnapshotDelta{ServerTick: r.u32(), BaseTick: r.u32()}
		if n := r.count(); n > 0 {
			s.Players = make([]PlayerDelta, n)
			for i := range s.Players {
				s.Players[i] = r.delta()
			}
		}
		s.Pellets, s.Tokens, s.Events, s.TimeLeft, s.CountdownLeft = r.frameTail()
		msg = s
	case binPong:
		msg = Pong{ServerTime: r.f32(), ClientTime: r.f32()}
	case binPlayerLeft:
		msg = PlayerLeft{ID: r.u32()}
	default:
		return nil, errors.Wrapf(ErrUnknownTag, "server tag %d", tag)
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return msg, nil
}

// writer appends big-endian fields and remembers the first error
type writer struct {
	buf []byte
	err error
}

func (w *writer) result() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}

func (w *writer) header(tag byte) {
	w.buf = append(w.buf, Version, tag)
}

func (w *writer) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) u16(v uint16) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

func (w *writer) u32(v uint32) {
	w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func (w *writer) f32(v float32) {
	w.u32(math.Float32bits(v))
}

func (w *writer) vec(v Vec2f) {
	w.f32(v.X)
	w.f32(v.Y)
}

func (w *writer) count(n int) {
	if n > math.MaxUint16 {
		if w.err == nil {
			w.err = errors.Wrapf(errTooLong, "list of %d", n)
		}
		n = 0
	}
	w.u16(uint16(n))
}

func (w *writer) str(s string) {
	if len(s) > math.MaxUint16 {
		if w.err == nil {
			w.err = errors.Wrapf(errTooLong, "string of %d bytes", len(s))
		}
		s = ""
	}
	w.u16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) player(p PlayerState) {
	w.u32(p.ID)
	w.bool(p.Alive)
	w.vec(p.Head)
	w.vec(p.Dir)
	w.f32(p.Radius)
	w.u32(uint32(p.Score))
	w.f32(p.Boost)
}

// delta writes the id and mask, then only the fields the mask names.
// A set bit with a missing value is written as the zero value.
func (w *writer) delta(d PlayerDelta) {
	w.u32(d.ID)
	w.u16(d.FieldMask)
	if d.FieldMask&FieldAlive != 0 {
		w.bool(d.Alive != nil && *d.Alive)
	}
	if d.FieldMask&FieldHead != 0 {
		w.vec(derefVec(d.Head))
	}
	if d.FieldMask&FieldDir != 0 {
		w.vec(derefVec(d.Dir))
	}
	if d.FieldMask&FieldRadius != 0 {
		w.f32(derefF32(d.Radius))
	}
	if d.FieldMask&FieldScore != 0 {
		var s int32
		if d.Score != nil {
			s = *d.Score
		}
		w.u32(uint32(s))
	}
	if d.FieldMask&FieldBoost != 0 {
		w.f32(derefF32(d.Boost))
	}
}

func (w *writer) frameTail(pellets []Vec2f, tokens []TokenState, events []Event, timeLeft, countdownLeft float32) {
	w.count(len(pellets))
	for _, p := range pellets {
		w.vec(p)
	}
	w.count(len(tokens))
	for _, t := range tokens {
		w.u32(t.ID)
		w.str(t.Kind)
		w.vec(t.Pos)
		w.f32(t.TTL)
	}
	w.count(len(events))
	for _, e := range events {
		w.str(e.Kind)
		w.u32(e.ID)
	}
	w.f32(timeLeft)
	w.f32(countdownLeft)
}

func derefVec(v *Vec2f) Vec2f {
	if v == nil {
		return Vec2f{}
	}
	return *v
}

func derefF32(v *float32) float32 {
	if v == nil {
		return 0
	}
	return *v
}

// reader consumes big-endian fields. After the first failure every read
// returns a zero value and err holds the cause.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf)-r.off < n {
		r.err = errors.Wrapf(ErrShortBuffer, "need %d bytes at offset %d, have %d", n, r.off, len(r.buf)-r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) header() byte {
	b := r.take(2)
	if b == nil {
		return 0
	}
	if b[0] != Version {
		r.err = errors.Wrapf(ErrUnsupportedVersion, "version %d", b[0])
		return 0
	}
	return b[1]
}

func (r *reader) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.buf) {
		return errors.Wrapf(errTrailingBytes, "%d unread", len(r.buf)-r.off)
	}
	return nil
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) bool() bool {
	return r.u8() != 0
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return uint16(b[0])<<8 | uint16(b[1])
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *reader) vec() Vec2f {
	return Vec2f{X: r.f32(), Y: r.f32()}
}

func (r *reader) count() int {
	return int(r.u16())
}

func (r *reader) str() string {
	n := r.count()
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *reader) player() PlayerState {
	return PlayerState{
		ID:     r.u32(),
		Alive:  r.bool(),
		Head:   r.vec(),
		Dir:    r.vec(),
		Radius: r.f32(),
		Score:  int32(r.u32()),
		Boost:  r.f32(),
	}
}

func (r *reader) delta() PlayerDelta {
	d := PlayerDelta{ID: r.u32(), FieldMask: r.u16()}
	if d.FieldMask&FieldAlive != 0 {
		v := r.bool()
		d.Alive = &v
	}
	if d.FieldMask&FieldHead != 0 {
		v := r.vec()
		d.Head = &v
	}
	if d.FieldMask&FieldDir != 0 {
		v := r.vec()
		d.Dir = &v
	}
	if d.FieldMask&FieldRadius != 0 {
		v := r.f32()
		d.Radius = &v
	}
	if d.FieldMask&FieldScore != 0 {
		v := int32(r.u32())
		d.Score = &v
	}
	if d.FieldMask&FieldBoost != 0 {
		v := r.f32()
		d.Boost = &v
	}
	return d
}

func (r *reader) frameTail() (pellets []Vec2f, tokens []TokenState, events []Event, timeLeft, countdownLeft float32) {
	if n := r.count(); n > 0 && r.err == nil {
		pellets = make([]Vec2f, n)
		for i := range pellets {
			pellets[i] = r.vec()
		}
	}
	if n := r.count(); n > 0 && r.err == nil {
		tokens = make([]TokenState, n)
		for i := range tokens {
			tokens[i] = TokenState{ID: r.u32(), Kind: r.str(), Pos: r.vec(), TTL: r.f32()}
		}
	}
	if n := r.count(); n > 0 && r.err == nil {
		events = make([]Event, n)
		for i := range events {
			events[i] = Event{Kind: r.str(), ID: r.u32()}
		}
	}
	timeLeft = r.f32()
	countdownLeft = r.f32()
	return
}
