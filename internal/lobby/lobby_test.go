package lobby

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"tcbot/internal/socket"
)

// testLobby builds a lobby whose socket never connects, so handle can be
// driven directly with crafted frames.
func testLobby(t *testing.T) *Lobby {
	t.Helper()
	l := New(Config{
		URL:      "ws://example/ws",
		Username: "tester",
		Password: "secret",
		Dial:     func(string) (socket.Conn, error) { return nil, errors.New("offline") },
	}, zerolog.Nop())
	t.Cleanup(l.Close)
	return l
}

func TestHandleEventStream(t *testing.T) {
	l := testLobby(t)

	l.handle([]byte(`{"m":1,"r":2,"t":[
		{"i":7,"t":1,"e":0,"n":0,"u":false,"g":{"t":"casual","n":8},
		 "p":[{"n":"a"},{"n":"b"},{"n":"c"},{}]}
	]}`), false)
	if _, ok := l.Registry().Room(7); !ok {
		t.Fatal("snapshot not applied")
	}

	l.handle([]byte(`{"m":1,"r":4,"t":{"i":7,"s":3,"n":"d","v":0}}`), false)
	room, _ := l.Registry().Room(7)
	if room.Players[3] == nil {
		t.Fatal("join not applied")
	}

	l.handle([]byte(`{"m":1,"r":13,"i":7,"p":1}`), false)
	room, _ = l.Registry().Room(7)
	if !room.Started() {
		t.Fatal("start not applied")
	}

	l.handle([]byte(`{"m":1,"r":13,"i":7,"p":4}`), false)
	room, _ = l.Registry().Room(7)
	if room.RoundIndex != 4 {
		t.Errorf("RoundIndex = %d, want 4", room.RoundIndex)
	}

	l.handle([]byte(`{"m":1,"r":5,"t":{"i":7,"s":0}}`), false)
	room, _ = l.Registry().Room(7)
	if room.Players[0] != nil {
		t.Error("exit not applied")
	}

	l.handle([]byte(`{"m":1,"r":7,"t":{"i":7}}`), false)
	if _, ok := l.Registry().Room(7); ok {
		t.Error("dismiss not applied")
	}
}

func TestHandleStatsPiggyback(t *testing.T) {
	l := testLobby(t)
	l.handle([]byte(`{"m":1,"r":7,"t":{"i":999},"s":{"f":2,"w":4,"p":8,"o":0}}`), false)
	stats := l.Registry().Stats()
	if stats.Idle != 2 || stats.Waiting != 4 || stats.Playing != 8 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestHandleGarbage(t *testing.T) {
	l := testLobby(t)
	// None of these may panic or disturb the registry.
	l.handle([]byte(`not json at all`), false)
	l.handle([]byte{0xff, 0x00}, true)
	l.handle([]byte(`{"m":1,"r":999}`), false)
	l.handle([]byte(`{"m":77}`), false)
	l.handle([]byte(`{"m":1,"r":13,"i":12345,"p":1}`), false)
	if len(l.Registry().Rooms()) != 0 {
		t.Error("garbage should leave the registry empty")
	}
}
