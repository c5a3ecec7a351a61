package protocol

import (
	"bytes"
	"encoding/json"
)

// Flag is a wire boolean that the server serializes either as a JSON bool
// or as a 0/1 number depending on the route.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	switch {
	case bytes.Equal(b, []byte("true")):
		*f = true
	case bytes.Equal(b, []byte("false")), bytes.Equal(b, []byte("null")):
		*f = false
	default:
		var n float64
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = n != 0
	}
	return nil
}

// Heartbeat is the liveness frame (m=5). The client stamps t and the server
// echoes it back verbatim.
type Heartbeat struct {
	Method int   `json:"m"`
	T      int64 `json:"t"`
}

func NewHeartbeat(ts int64) Heartbeat {
	return Heartbeat{Method: MethodHeartbeat, T: ts}
}

// SeatRef addresses one seat of one room.
type SeatRef struct {
	Room int    `json:"i"`
	Slot int    `json:"s"`
	Name string `json:"n"`
	Vip  int    `json:"v"`
}

// SeatChange is the payload of join/exit/dismiss events: a target seat and,
// for seat transfers, the seat being vacated.
type SeatChange struct {
	To   SeatRef  `json:"t"`
	From *SeatRef `json:"f"`
}

// RoomState is the per-bot seat push (m=1 r=8).
type RoomState struct {
	Seat *SeatRef `json:"t"`
}

// RoundPhase is the start/advance event (m=1 r=13): phase 1 means the room
// started, any other value is the new round index.
type RoundPhase struct {
	Room  int `json:"i"`
	Phase int `json:"p"`
}

// RoomSettings is the opaque game-settings blob. Only the title and round
// count are inspected; the raw bytes are kept for pass-through.
type RoomSettings struct {
	Title  string
	Rounds int
	Raw    json.RawMessage
}

func (s *RoomSettings) UnmarshalJSON(b []byte) error {
	s.Raw = append(s.Raw[:0], b...)
	var v struct {
		T string `json:"t"`
		N int    `json:"n"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s.Title, s.Rounds = v.T, v.N
	return nil
}

// RoomPlayer is one slot of a room snapshot. Empty slots arrive as empty
// objects, so presence is keyed on the name field.
type RoomPlayer struct {
	Name *string `json:"n"`
	Vip  int     `json:"v"`
}

// RoomSnapshot is one room entry of a room-list payload (m=1 r=2/r=3).
type RoomSnapshot struct {
	ID         int          `json:"i"`
	CreateTime int64        `json:"t"`
	FinishTime int64        `json:"e"`
	Round      int          `json:"n"`
	Password   Flag         `json:"u"`
	Players    []RoomPlayer `json:"p"`
	Settings   RoomSettings `json:"g"`
}

// RoomList is the snapshot payload carried by r=2 and r=3.
type RoomList struct {
	Rooms []RoomSnapshot `json:"t"`
}

// Challenge is the login challenge (m=1 r=10).
type Challenge struct {
	Question string `json:"z"`
}

// LoginResult is the login callback (m=1 r=1).
type LoginResult struct {
	Err json.RawMessage `json:"e"`
}

// Failed reports whether the server attached a truthy error to the login
// callback.
func (r LoginResult) Failed() bool {
	switch string(bytes.TrimSpace(r.Err)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// Client requests. Field order follows the original wire captures.

type ChallengeRequest struct {
	Method int `json:"m"`
	Route  int `json:"r"`
}

func NewChallengeRequest() ChallengeRequest {
	return ChallengeRequest{Method: MethodLobby, Route: RouteChallenge}
}

type LoginRequest struct {
	Method    int    `json:"m"`
	Password  string `json:"p"`
	Route     int    `json:"r"`
	Answer    string `json:"s"`
	Username  string `json:"u"`
	Challenge string `json:"z"`
}

func NewLoginRequest(username, password, challenge, answer string) LoginRequest {
	return LoginRequest{
		Method:    MethodLobby,
		Password:  password,
		Route:     RouteLogin,
		Answer:    answer,
		Username:  username,
		Challenge: challenge,
	}
}

type RoomListRequest struct {
	Method int `json:"m"`
	Route  int `json:"r"`
}

func NewRoomListRequest() RoomListRequest {
	return RoomListRequest{Method: MethodLobby, Route: RouteRoomList}
}

type JoinRequest struct {
	Method   int    `json:"m"`
	Route    int    `json:"r"`
	Room     int    `json:"v"`
	Seat     int    `json:"s"`
	Password string `json:"p,omitempty"`
}

func NewJoinRequest(room, seat int, password string) JoinRequest {
	return JoinRequest{Method: MethodLobby, Route: RouteJoinRoom, Room: room, Seat: seat, Password: password}
}

type ExitRequest struct {
	Method int `json:"m"`
	Route  int `json:"r"`
}

func NewExitRequest() ExitRequest {
	return ExitRequest{Method: MethodLobby, Route: RouteExitRoom}
}

type ReadyRequest struct {
	Method int `json:"m"`
	Route  int `json:"r"`
	Value  int `json:"v"`
}

func NewReadyRequest() ReadyRequest {
	return ReadyRequest{Method: MethodLobby, Route: RouteReady, Value: 1}
}

type DiscardRequest struct {
	Method int `json:"m"`
	Route  int `json:"r"`
	Tile   int `json:"v"`
}

func NewDiscardRequest(tile int) DiscardRequest {
	return DiscardRequest{Method: MethodGame, Route: GameRouteDiscard, Tile: tile}
}

type DeclineRequest struct {
	Method int `json:"m"`
	Route  int `json:"r"`
	Value  int `json:"v"`
}

func NewDeclineRequest() DeclineRequest {
	return DeclineRequest{Method: MethodGame, Route: GameRouteDecline}
}
