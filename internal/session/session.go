// Package session implements one bot: the bridge between a game-server
// connection and a decision-agent connection, with a small state machine
// governing which packets cross and when.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tcbot/internal/protocol"
	"tcbot/internal/socket"
	"tcbot/internal/solver"
)

// Config holds one bot's identity and timing knobs.
type Config struct {
	Name     string
	Username string
	Password string

	ServerURL string
	AgentURL  string
	TraceDir  string

	ReconnectIntervals []time.Duration
	HeartbeatInterval  time.Duration
	// Settle is the blind pause after join/exit/login requests; the wire
	// protocol carries no per-request correlation, so the session waits a
	// fixed interval and then inspects its own state.
	Settle time.Duration
	// Delay paces agent decisions before they reach the server, simulating
	// a human player. Overridable at runtime per session.
	Delay time.Duration

	ServerDial socket.DialFunc
	AgentDial  socket.DialFunc
}

// seatState is the session's locally held view of where it sits, fed by the
// server's room-state pushes and the in-game seat assignment.
type seatState struct {
	roomID   int
	slot     int
	gameSeat int
}

// Session is one bot. All failure is represented as state the orchestrator
// polls; no routing path returns an error.
type Session struct {
	cfg    Config
	log    zerolog.Logger
	server *socket.Socket
	agent  *socket.Socket
	epoch  time.Time

	mu     sync.Mutex
	status Status
	closed bool
	killed bool
	ready  bool
	seat   seatState
	delay  time.Duration

	trace traceBuffer
	done  chan struct{}
}

func New(cfg Config, logger zerolog.Logger) *Session {
	log := logger.With().Str("bot", cfg.Name).Logger()
	s := &Session{
		cfg:   cfg,
		log:   log,
		epoch: time.Now(),
		delay: cfg.Delay,
		done:  make(chan struct{}),
	}
	s.server = socket.New(socket.Options{
		Name:               cfg.Name + "/server",
		URL:                cfg.ServerURL,
		ReconnectIntervals: cfg.ReconnectIntervals,
		HeartbeatInterval:  cfg.HeartbeatInterval,
		Dial:               cfg.ServerDial,
		Logger:             log,
	})
	s.agent = socket.New(socket.Options{
		Name:               cfg.Name + "/agent",
		URL:                cfg.AgentURL,
		ReconnectIntervals: cfg.ReconnectIntervals,
		Dial:               cfg.AgentDial,
		Logger:             log,
	})
	return s
}

// Name identifies the session in commands and trace files.
func (s *Session) Name() string {
	return s.cfg.Name
}

// Start connects both sockets and begins routing.
func (s *Session) Start() {
	go s.dispatchServer()
	go s.dispatchAgent()
	s.server.Connect()
	s.agent.Connect()
}

// DisplayStatus derives the externally visible state.
func (s *Session) DisplayStatus() DisplayStatus {
	s.mu.Lock()
	status, closed, killed, ready := s.status, s.closed, s.killed, s.ready
	s.mu.Unlock()
	serverUp := s.server.Connected() && !s.server.Retrying()
	agentUp := s.agent.Connected() && !s.agent.Retrying()
	return DeriveDisplay(status, closed, killed, ready, serverUp, agentUp)
}

// Join seats the bot in a room. It sends the join request, waits the settle
// interval, then checks whether the server's room-state push now names the
// requested room; only then is the ready confirmation sent.
func (s *Session) Join(roomID, seat int, password string) bool {
	if s.DisplayStatus() != DisplayIdle {
		return false
	}
	s.mu.Lock()
	s.status = StatusWaiting
	s.mu.Unlock()
	s.log.Info().Int("room", roomID).Int("seat", seat).Msg("joining room")

	s.server.Send(protocol.NewJoinRequest(roomID, seat, password))
	time.Sleep(s.cfg.Settle)

	s.mu.Lock()
	joined := s.seat.roomID == roomID
	if !joined {
		s.status = StatusIdle
	}
	s.mu.Unlock()
	if !joined {
		s.log.Info().Int("room", roomID).Msg("join not confirmed, reverting")
		return false
	}

	s.server.Send(protocol.NewReadyRequest())
	return true
}

// Exit leaves the current room. Unconditionally idle afterwards.
func (s *Session) Exit() {
	s.server.Send(protocol.NewExitRequest())
	time.Sleep(s.cfg.Settle)
	s.mu.Lock()
	s.status = StatusIdle
	s.mu.Unlock()
}

// Kill drops both connections without suppressing reconnection.
func (s *Session) Kill() {
	s.server.Drop()
	s.agent.Drop()
}

// SetDelay overrides the pacing delay at runtime.
func (s *Session) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// ResetStatus forces the primary status back to idle, the operator's
// recovery hatch for a session stuck in a stale state.
func (s *Session) ResetStatus() {
	s.mu.Lock()
	s.status = StatusIdle
	s.mu.Unlock()
}

// Close tears the session down for good and flushes the trace.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.server.Close()
	s.agent.Close()
	close(s.done)
	s.Flush()
}

// Flush writes the accumulated trace to a fresh file. An empty buffer is a
// no-op; a write failure loses the drained entries but never disturbs the
// session.
func (s *Session) Flush() {
	entries := s.trace.drain()
	if len(entries) == 0 {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to encode trace")
		return
	}
	name := fmt.Sprintf("%s-%d.log", s.cfg.Name, time.Now().UnixMilli())
	if err := os.WriteFile(filepath.Join(s.cfg.TraceDir, name), data, 0o644); err != nil {
		s.log.Warn().Err(err).Msg("failed to write trace")
		return
	}
	s.log.Info().Str("file", name).Int("entries", len(entries)).Msg("trace written")
}

func (s *Session) dispatchServer() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.server.Events():
			switch ev.Kind {
			case socket.EventOpen:
				s.server.Send(protocol.NewChallengeRequest())
			case socket.EventClosed:
				s.mu.Lock()
				s.status = StatusIdle
				s.mu.Unlock()
			case socket.EventMessage:
				s.handleServer(ev.Data, ev.Binary)
			}
		}
	}
}

func (s *Session) dispatchAgent() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.agent.Events():
			switch ev.Kind {
			case socket.EventOpen:
				// A reconnected agent knows nothing about the round in
				// progress; hold gameplay until the next seat assignment.
				s.mu.Lock()
				s.killed = false
				s.ready = false
				s.mu.Unlock()
			case socket.EventClosed:
			case socket.EventMessage:
				s.handleAgent(ev.Data)
			}
		}
	}
}

func (s *Session) handleServer(data []byte, binary bool) {
	pkt, err := protocol.Decode(data, binary)
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping malformed server packet")
		return
	}

	switch pkt.Method {
	case protocol.MethodHeartbeat:
		var hb protocol.Heartbeat
		if err := pkt.Into(&hb); err == nil {
			s.server.AckHeartbeat(hb.T)
		}
	case protocol.MethodLobby:
		s.handleLobby(pkt)
	case protocol.MethodGame:
		s.handleGame(pkt)
	default:
		s.log.Debug().Int("method", pkt.Method).Msg("unrecognized server packet")
	}
}

func (s *Session) handleLobby(pkt *protocol.Packet) {
	switch pkt.Route {
	case protocol.RouteLoginResult:
		var res protocol.LoginResult
		if err := pkt.Into(&res); err == nil && res.Failed() {
			s.log.Warn().Msg("login rejected, dropping connections")
			s.Kill()
		}
	case protocol.RouteRoomState:
		var st protocol.RoomState
		if err := pkt.Into(&st); err == nil && st.Seat != nil {
			s.mu.Lock()
			s.seat.roomID = st.Seat.Room
			s.seat.slot = st.Seat.Slot
			s.mu.Unlock()
		}
	case protocol.RouteChallenge:
		var ch protocol.Challenge
		if err := pkt.Into(&ch); err == nil {
			s.login(ch.Question)
		}
	default:
		s.log.Debug().Int("route", pkt.Route).Msg("unrecognized lobby route")
	}
}

// login answers the waiting-tile challenge; the room-list request after the
// settle pause completes the handshake the server expects from a client.
func (s *Session) login(question string) {
	s.server.Send(protocol.NewLoginRequest(s.cfg.Username, s.cfg.Password, question, solver.Answer(question)))
	time.Sleep(s.cfg.Settle)
	s.server.Send(protocol.NewRoomListRequest())
}

// handleGame routes one gameplay packet. While not ready the session
// answers with protocol-minimum defaults instead of consulting the agent,
// so a freshly reconnected agent is never asked to act mid-round.
func (s *Session) handleGame(pkt *protocol.Packet) {
	packet, err := protocol.DecodeGame(pkt.Body)
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping malformed game packet")
		return
	}

	s.mu.Lock()
	s.status = StatusPlaying
	switch pkt.Route {
	case protocol.GameRouteDeal:
		packet["_ts"] = s.epoch.UnixMilli()
	case protocol.GameRouteDiscard:
		packet["_ts"] = s.sinceEpoch()
	case protocol.GameRouteSeat:
		packet["_ts"] = s.sinceEpoch()
		s.ready = true
		if v, ok := packet.Int("v"); ok {
			s.seat.gameSeat = v
		}
	}
	ready := s.ready
	gameSeat := s.seat.gameSeat
	s.mu.Unlock()

	if !ready {
		s.answerBlind(pkt.Route, packet, gameSeat)
	} else {
		s.trace.append(packet, traceReceive)
		s.agent.Send(map[string]any(packet))
	}

	if pkt.Route == protocol.GameRouteResult {
		s.mu.Lock()
		s.status = StatusIdle
		s.mu.Unlock()
		s.Flush()
	}
}

// answerBlind sends the minimum the server will accept: discard whatever
// was drawn, decline every option.
func (s *Session) answerBlind(route int, packet protocol.GamePacket, gameSeat int) {
	if route == protocol.GameRouteDraw {
		if v, ok := packet.Int("v"); ok && v == gameSeat {
			if t, ok := packet.Int("t"); ok {
				s.server.Send(protocol.NewDiscardRequest(t & 0xff))
			}
		}
		return
	}
	if packet.Has("tt") {
		s.server.Send(protocol.NewDeclineRequest())
	}
}

func (s *Session) handleAgent(data []byte) {
	packet, meta, err := protocol.DecodeAgent(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping malformed agent packet")
		return
	}

	switch meta.Type {
	case protocol.MetaError:
		s.mu.Lock()
		s.killed = true
		s.mu.Unlock()
		s.log.Warn().Any("packet", packet).Msg("agent reported an error")
		return
	case protocol.MetaFatal:
		s.mu.Lock()
		s.killed = true
		s.mu.Unlock()
		s.log.Error().Any("packet", packet).Msg("agent reported a fatal error")
		s.Kill()
		return
	}

	s.mu.Lock()
	s.killed = false
	delay := s.delay
	s.mu.Unlock()

	s.trace.append(packet, traceSend)
	if !meta.Immediate {
		time.Sleep(delay)
	}
	delete(packet, "_meta")

	// A decision with nowhere to go is an unrecoverable desync, not a
	// droppable packet.
	if !s.server.Connected() {
		s.mu.Lock()
		s.killed = true
		s.mu.Unlock()
		return
	}
	s.server.Send(map[string]any(packet))
}

func (s *Session) sinceEpoch() float64 {
	return float64(time.Since(s.epoch)) / float64(time.Millisecond)
}
