package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"snakeclash/server/protocol"
)

func dialTestServer(t *testing.T, d *Dispatcher) (string, func()) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", HandleWebSocket(d))
	srv := httptest.NewServer(mux)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", srv.Close
}

func writeClientMessage(t *testing.T, conn *websocket.Conn, msg protocol.ClientMessage) {
	t.Helper()
	data, err := protocol.EncodeClient(msg)
	if err != nil {
		t.Fatalf("encode %s: %v", msg.ClientTag(), err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.Fatalf("write %s: %v", msg.ClientTag(), err)
	}
}

// waitForMessage reads until match accepts a message or the deadline passes
func waitForMessage(t *testing.T, conn *websocket.Conn, match func(protocol.ServerMessage) bool) protocol.ServerMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatal(err)
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		msg, err := protocol.DecodeServer(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func isJoinOK(msg protocol.ServerMessage) bool {
	_, ok := msg.(protocol.JoinOK)
	return ok
}

func isPong(msg protocol.ServerMessage) bool {
	_, ok := msg.(protocol.Pong)
	return ok
}

func TestWebSocketSessionLifecycle(t *testing.T) {
	d := NewDispatcher(testConfig(), nil, quietLogger())
	url, stop := dialTestServer(t, d)
	defer stop()

	connA, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial A failed: %v", err)
	}
	defer connA.Close()
	connB, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial B failed: %v", err)
	}
	defer connB.Close()

	writeClientMessage(t, connA, protocol.JoinReq{RoomID: "arena", Name: "a"})
	joinedA := waitForMessage(t, connA, isJoinOK).(protocol.JoinOK)
	writeClientMessage(t, connB, protocol.JoinReq{RoomID: "arena", Name: "b"})
	joinedB := waitForMessage(t, connB, isJoinOK).(protocol.JoinOK)
	if joinedA.PlayerID == joinedB.PlayerID {
		t.Fatalf("both players got id %d", joinedA.PlayerID)
	}

	mirror := protocol.NewMirror()
	mirror.Apply(joinedA)

	d.Tick()
	first := waitForMessage(t, connA, func(m protocol.ServerMessage) bool {
		_, ok := m.(protocol.SnapshotDelta)
		return ok
	})
	if !mirror.Apply(first) || len(mirror.Players()) != 2 {
		t.Fatalf("mirror after first frame: %+v", mirror.Players())
	}

	// pong is answered after the input, so the ack is applied by then
	ack := mirror.Ack()
	writeClientMessage(t, connA, protocol.Input{Seq: 1, Dir: protocol.Vec2f{X: 1}, LastSnapshotAck: &ack})
	writeClientMessage(t, connA, protocol.Ping{ClientTime: 1})
	waitForMessage(t, connA, isPong)

	d.Tick()
	next := waitForMessage(t, connA, func(m protocol.ServerMessage) bool {
		delta, ok := m.(protocol.SnapshotDelta)
		return ok && delta.BaseTick == ack
	})
	if !mirror.Apply(next) {
		t.Fatal("mirror rejected delta on acked base")
	}

	connA.Close()
	left := waitForMessage(t, connB, func(m protocol.ServerMessage) bool {
		_, ok := m.(protocol.PlayerLeft)
		return ok
	})
	if left.(protocol.PlayerLeft).ID != joinedA.PlayerID {
		t.Fatalf("player_left = %+v, want id %d", left, joinedA.PlayerID)
	}
}

func TestWebSocketDropsBadFramesAndAcceptsJSON(t *testing.T) {
	d := NewDispatcher(testConfig(), nil, quietLogger())
	url, stop := dialTestServer(t, d)
	defer stop()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0xff, 0x00}); err != nil {
		t.Fatal(err)
	}
	data, err := protocol.EncodeClientJSON(protocol.Ping{ClientTime: 3})
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatal(err)
	}

	pong := waitForMessage(t, conn, isPong).(protocol.Pong)
	if pong.ClientTime != 3 {
		t.Fatalf("pong = %+v", pong)
	}
}

func TestFrameType(t *testing.T) {
	if frameType([]byte(`{"v":1}`)) != websocket.TextMessage {
		t.Error("json frame not sent as text")
	}
	if frameType([]byte{1, 2}) != websocket.BinaryMessage {
		t.Error("binary frame not sent as binary")
	}
}
