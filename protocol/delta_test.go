package protocol

import (
	"reflect"
	"testing"

	"snakeclash/server/game"
)

func TestBuildPlayerDeltasMasks(t *testing.T) {
	prev := []PlayerState{
		{ID: 1, Alive: true, Head: Vec2f{X: 1}, Dir: Vec2f{X: 1}, Radius: 6, Score: 0, Boost: 100},
		{ID: 2, Alive: true, Head: Vec2f{Y: 1}, Dir: Vec2f{Y: 1}, Radius: 6, Score: 10, Boost: 50},
	}
	next := []PlayerState{
		{ID: 1, Alive: true, Head: Vec2f{X: 2}, Dir: Vec2f{X: 1}, Radius: 6, Score: 3, Boost: 100},
		prev[1],
		{ID: 3, Alive: true, Head: Vec2f{X: -5}, Dir: Vec2f{Y: -1}, Radius: 6, Boost: 100},
	}

	deltas := BuildPlayerDeltas(prev, next)
	if len(deltas) != 2 {
		t.Fatalf("deltas = %+v, want 2 entries", deltas)
	}
	if deltas[0].ID != 1 || deltas[0].FieldMask != FieldHead|FieldScore {
		t.Errorf("player 1 delta = %+v", deltas[0])
	}
	if deltas[0].Alive != nil || deltas[0].Boost != nil {
		t.Errorf("player 1 delta carries unchanged fields: %+v", deltas[0])
	}
	if deltas[1].ID != 3 || deltas[1].FieldMask != FieldAll {
		t.Errorf("new player delta = %+v, want every field", deltas[1])
	}
}

func TestMaskBitsMatchWire(t *testing.T) {
	bits := []uint16{FieldAlive, FieldHead, FieldDir, FieldRadius, FieldScore, FieldBoost}
	for i, b := range bits {
		if b != 1<<i {
			t.Errorf("bit %d = %#x", i, b)
		}
	}
}

func TestApplyPlayerDeltasReconstructs(t *testing.T) {
	prev := []PlayerState{
		{ID: 4, Alive: true, Head: Vec2f{X: 1, Y: 1}, Dir: Vec2f{X: 1}, Radius: 6, Score: 1, Boost: 90},
		{ID: 1, Alive: true, Head: Vec2f{X: 9, Y: 9}, Dir: Vec2f{Y: 1}, Radius: 7, Score: 20, Boost: 10},
	}
	next := []PlayerState{
		{ID: 1, Alive: false, Head: Vec2f{X: 9, Y: 9}, Dir: Vec2f{Y: 1}, Radius: 7, Score: 20, Boost: 10},
		{ID: 2, Alive: true, Head: Vec2f{X: -3}, Dir: Vec2f{X: -1}, Radius: 6, Score: 0, Boost: 100},
		{ID: 4, Alive: true, Head: Vec2f{X: 1.5, Y: 1}, Dir: Vec2f{X: 0.8, Y: 0.6}, Radius: 6.25, Score: 4, Boost: 87.5},
	}

	got := ApplyPlayerDeltas(prev, BuildPlayerDeltas(prev, next))
	if !reflect.DeepEqual(got, next) {
		t.Fatalf("reconstructed %+v\nwant %+v", got, next)
	}
	if prev[0].Score != 1 {
		t.Fatal("base slice was modified")
	}
}

func TestApplyLeavesUnmentionedFields(t *testing.T) {
	base := []PlayerState{{ID: 1, Alive: true, Head: Vec2f{X: 3}, Radius: 8, Score: 7, Boost: 40}}
	score := int32(9)
	got := ApplyPlayerDeltas(base, []PlayerDelta{{ID: 1, FieldMask: FieldScore, Score: &score}})
	want := base[0]
	want.Score = 9
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDeltaReconstructionAcrossRoomTicks(t *testing.T) {
	cfg := game.DefaultRoomConfig()
	cfg.Countdown = 0
	cfg.PelletTarget = 300
	cfg.MaxPlayers = 0
	room := game.NewRoom(cfg)
	for i := 0; i < 5; i++ {
		room.AddBot("bot")
	}

	prev := NewFrame(room, nil).Players
	for i := 0; i < 100; i++ {
		room.Step()
		next := NewFrame(room, room.TakeEvents()).Players
		got := ApplyPlayerDeltas(prev, BuildPlayerDeltas(prev, next))
		if !reflect.DeepEqual(got, next) {
			t.Fatalf("tick %d: reconstruction differs", room.Tick())
		}
		prev = next
	}
}
