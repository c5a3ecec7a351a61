package lobby

import (
	"time"

	"github.com/rs/zerolog"

	"tcbot/internal/protocol"
	"tcbot/internal/socket"
	"tcbot/internal/solver"
)

// Config holds the lobby connection settings.
type Config struct {
	URL                string
	Username           string
	Password           string
	ReconnectIntervals []time.Duration
	HeartbeatInterval  time.Duration
	// Settle is the blind pause between login and the room-list request;
	// the protocol has no per-request acknowledgment.
	Settle time.Duration
	Dial   socket.DialFunc
}

// Lobby owns the registry and the server connection whose event stream
// populates it. The bots themselves never track lobby rooms; they consult
// this registry through the orchestrator.
type Lobby struct {
	cfg  Config
	sock *socket.Socket
	reg  *Registry
	log  zerolog.Logger
	done chan struct{}
}

func New(cfg Config, logger zerolog.Logger) *Lobby {
	l := &Lobby{
		cfg:  cfg,
		reg:  NewRegistry(),
		log:  logger.With().Str("component", "lobby").Logger(),
		done: make(chan struct{}),
	}
	l.sock = socket.New(socket.Options{
		Name:               "lobby",
		URL:                cfg.URL,
		ReconnectIntervals: cfg.ReconnectIntervals,
		HeartbeatInterval:  cfg.HeartbeatInterval,
		Dial:               cfg.Dial,
		Logger:             logger,
	})
	return l
}

// Registry exposes the room mirror for read access.
func (l *Lobby) Registry() *Registry {
	return l.reg
}

// Start connects and begins dispatching events.
func (l *Lobby) Start() {
	go l.dispatch()
	l.sock.Connect()
}

// Close tears the lobby down for good.
func (l *Lobby) Close() {
	l.sock.Close()
	close(l.done)
}

func (l *Lobby) dispatch() {
	for {
		select {
		case <-l.done:
			return
		case ev := <-l.sock.Events():
			switch ev.Kind {
			case socket.EventOpen:
				// Fresh connection: the snapshot that follows login
				// replaces everything we knew.
				l.reg.Reset()
				l.sock.Send(protocol.NewChallengeRequest())
			case socket.EventMessage:
				l.handle(ev.Data, ev.Binary)
			case socket.EventClosed:
			}
		}
	}
}

func (l *Lobby) handle(data []byte, binary bool) {
	pkt, err := protocol.Decode(data, binary)
	if err != nil {
		l.log.Warn().Err(err).Msg("dropping malformed packet")
		return
	}
	if pkt.Stats != nil {
		l.reg.SetStats(*pkt.Stats)
	}

	switch pkt.Method {
	case protocol.MethodHeartbeat:
		var hb protocol.Heartbeat
		if err := pkt.Into(&hb); err == nil {
			l.sock.AckHeartbeat(hb.T)
		}
	case protocol.MethodLobby:
		l.handleLobby(pkt)
	default:
		l.log.Debug().Int("method", pkt.Method).Int("route", pkt.Route).Msg("unrecognized packet")
	}
}

func (l *Lobby) handleLobby(pkt *protocol.Packet) {
	switch pkt.Route {
	case protocol.RouteLoginResult:
		var res protocol.LoginResult
		if err := pkt.Into(&res); err == nil && res.Failed() {
			l.log.Warn().Msg("lobby login rejected")
		}
	case protocol.RouteRoomList, protocol.RouteRoomRefresh:
		var list protocol.RoomList
		if err := pkt.Into(&list); err != nil {
			l.log.Warn().Err(err).Msg("bad room list")
			return
		}
		l.reg.ApplySnapshot(list.Rooms)
	case protocol.RouteJoinRoom:
		var change protocol.SeatChange
		if err := pkt.Into(&change); err == nil {
			l.reg.ApplyJoin(change)
		}
	case protocol.RouteExitRoom:
		var change protocol.SeatChange
		if err := pkt.Into(&change); err == nil {
			l.reg.ApplyExit(change)
		}
	case protocol.RouteDismissRoom:
		var change protocol.SeatChange
		if err := pkt.Into(&change); err == nil {
			l.reg.ApplyDismiss(change.To.Room)
		}
	case protocol.RouteRoundPhase:
		var phase protocol.RoundPhase
		if err := pkt.Into(&phase); err != nil {
			return
		}
		if phase.Phase == 1 {
			l.reg.ApplyStart(phase.Room)
		} else {
			l.reg.ApplyRoundAdvance(phase.Room, phase.Phase)
		}
	case protocol.RouteChallenge:
		var ch protocol.Challenge
		if err := pkt.Into(&ch); err == nil {
			l.login(ch.Question)
		}
	case protocol.RouteReady, protocol.RouteRoomState, protocol.RouteLogin:
		// Acknowledgments and pushes the lobby view does not need.
	default:
		l.log.Debug().Int("route", pkt.Route).Msg("unrecognized lobby route")
	}
}

// login answers the challenge and, after the settle pause, asks for the
// full room list. The pause runs inside the dispatch loop on purpose:
// nothing useful arrives before login completes, and it keeps the
// per-socket ordering intact.
func (l *Lobby) login(question string) {
	l.sock.Send(protocol.NewLoginRequest(l.cfg.Username, l.cfg.Password, question, solver.Answer(question)))
	time.Sleep(l.cfg.Settle)
	l.sock.Send(protocol.NewRoomListRequest())
}
