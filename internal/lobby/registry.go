// Package lobby mirrors the server's room state: a registry reconstructed
// from the incremental event stream, plus the dedicated connection that
// feeds it.
package lobby

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"tcbot/internal/protocol"
)

// SeatCount is fixed by the game: every room has exactly four slots.
const SeatCount = 4

// Player occupies one seat.
type Player struct {
	Name string
	Vip  bool
}

// Room is the registry's view of one server room. Callers receive copies;
// the registry owns the originals.
type Room struct {
	ID          int
	Title       string
	CreateTime  int64
	FinishTime  int64
	RoundIndex  int
	RoundCount  int
	Players     [SeatCount]*Player
	HasPassword bool
	// StartTime is zero while the room is waiting for players.
	StartTime time.Time
	// Settings is the opaque game-settings blob, passed through untouched.
	Settings json.RawMessage
}

// Started reports whether the room has left the waiting phase.
func (r *Room) Started() bool {
	return !r.StartTime.IsZero()
}

// FreeSeat returns the index of the first empty slot, or -1.
func (r *Room) FreeSeat() int {
	for i, p := range r.Players {
		if p == nil {
			return i
		}
	}
	return -1
}

func (r *Room) full() bool {
	return r.FreeSeat() == -1
}

// Registry is the authoritative client-side mirror of all rooms. It is a
// best-effort view: events for unknown rooms are dropped silently, since
// races between the snapshot and incremental events are expected.
//
// One writer (the lobby dispatch loop), many readers (sessions, commands).
type Registry struct {
	mu    sync.RWMutex
	rooms map[int]*Room
	stats protocol.Stats
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[int]*Room)}
}

// Reset drops all rooms, used when a fresh connection is about to receive a
// full snapshot.
func (g *Registry) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rooms = make(map[int]*Room)
}

// ApplySnapshot upserts rooms wholesale from a room-list payload.
func (g *Registry) ApplySnapshot(rooms []protocol.RoomSnapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range rooms {
		g.upsert(&rooms[i])
	}
}

func (g *Registry) upsert(snap *protocol.RoomSnapshot) {
	room := &Room{
		ID:          snap.ID,
		Title:       snap.Settings.Title,
		CreateTime:  snap.CreateTime,
		FinishTime:  snap.FinishTime,
		RoundIndex:  snap.Round - 1,
		RoundCount:  snap.Settings.Rounds,
		HasPassword: bool(snap.Password),
		Settings:    snap.Settings.Raw,
	}
	for i, p := range snap.Players {
		if i >= SeatCount {
			break
		}
		if p.Name != nil {
			room.Players[i] = &Player{Name: *p.Name, Vip: p.Vip != 0}
		}
	}
	// A non-zero round counter means the room is already in progress.
	if snap.Round != 0 {
		room.StartTime = time.Now()
	}
	g.rooms[room.ID] = room
}

// ApplyJoin seats a player, clearing the vacated seat on transfers.
func (g *Registry) ApplyJoin(change protocol.SeatChange) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok := g.rooms[change.To.Room]; ok && validSlot(change.To.Slot) {
		room.Players[change.To.Slot] = &Player{Name: change.To.Name, Vip: change.To.Vip != 0}
	}
	if from := change.From; from != nil {
		if room, ok := g.rooms[from.Room]; ok && validSlot(from.Slot) {
			room.Players[from.Slot] = nil
		}
	}
}

// ApplyExit clears a seat.
func (g *Registry) ApplyExit(change protocol.SeatChange) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok := g.rooms[change.To.Room]; ok && validSlot(change.To.Slot) {
		room.Players[change.To.Slot] = nil
	}
}

// ApplyDismiss deletes a room.
func (g *Registry) ApplyDismiss(roomID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, roomID)
}

// ApplyStart transitions a room to in-progress, but only when all four
// seats are occupied: the room may have changed between the server-side
// decision and our receipt, so a short room is left untouched.
func (g *Registry) ApplyStart(roomID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[roomID]
	if !ok || !room.full() {
		return
	}
	room.RoundIndex = 0
	room.StartTime = time.Now()
}

// ApplyRoundAdvance records the room's new round index.
func (g *Registry) ApplyRoundAdvance(roomID, index int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok := g.rooms[roomID]; ok {
		room.RoundIndex = index
	}
}

// SetStats replaces the lobby counters wholesale.
func (g *Registry) SetStats(stats protocol.Stats) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats = stats
}

// Stats returns the last counters pushed by the server.
func (g *Registry) Stats() protocol.Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stats
}

// Room returns a copy of one room.
func (g *Registry) Room(id int) (Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[id]
	if !ok {
		return Room{}, false
	}
	return copyRoom(room), true
}

// Rooms returns copies of all rooms, ordered by id.
func (g *Registry) Rooms() []Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		out = append(out, copyRoom(room))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindWaiting returns the un-started rooms whose title contains pattern.
func (g *Registry) FindWaiting(pattern string) []Room {
	var out []Room
	for _, room := range g.Rooms() {
		if !room.Started() && strings.Contains(room.Title, pattern) {
			out = append(out, room)
		}
	}
	return out
}

func copyRoom(room *Room) Room {
	out := *room
	for i, p := range room.Players {
		if p != nil {
			player := *p
			out.Players[i] = &player
		}
	}
	return out
}

func validSlot(slot int) bool {
	return slot >= 0 && slot < SeatCount
}
