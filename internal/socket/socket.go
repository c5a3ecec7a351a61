// Package socket provides the reconnecting websocket shared by the server
// and agent connections: a schedule-based backoff, a single-slot heartbeat
// monitor, and an ordered event channel feeding one dispatch loop.
package socket

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tcbot/internal/protocol"
)

// DefaultIntervals is the reconnect schedule used when none is configured.
// The last entry repeats for every retry past the end of the list.
var DefaultIntervals = []time.Duration{
	5 * time.Second, 10 * time.Second, 30 * time.Second,
	time.Minute, 3 * time.Minute, 5 * time.Minute, 10 * time.Minute,
}

// Conn is the subset of *websocket.Conn the socket needs. Tests substitute
// fakes through the Dial option.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// DialFunc opens one connection attempt.
type DialFunc func(url string) (Conn, error)

// Dial is the production dialer.
func Dial(url string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// EventKind tags socket events.
type EventKind int

const (
	// EventOpen signals a successful (re)connection.
	EventOpen EventKind = iota
	// EventMessage carries one inbound frame.
	EventMessage
	// EventClosed signals the connection dropped; reconnection is already
	// scheduled unless the socket was closed for good.
	EventClosed
)

// Event is one entry of the per-socket ordered stream.
type Event struct {
	Kind   EventKind
	Data   []byte
	Binary bool
}

// Options configures a Socket.
type Options struct {
	Name               string
	URL                string
	ReconnectIntervals []time.Duration
	// HeartbeatInterval enables the liveness monitor when non-zero.
	HeartbeatInterval time.Duration
	Dial              DialFunc
	Logger            zerolog.Logger
}

// Socket owns one websocket connection and its reconnect/heartbeat
// lifecycle. All inbound traffic is delivered in arrival order on Events.
type Socket struct {
	name      string
	url       string
	intervals []time.Duration
	beatEvery time.Duration
	dial      DialFunc
	log       zerolog.Logger

	events chan Event
	done   chan struct{}

	mu       sync.Mutex
	conn     Conn
	gen      int
	retries  int
	lastBeat int64
	stalled  bool
	closed   bool
	retry    *time.Timer
}

func New(opts Options) *Socket {
	intervals := opts.ReconnectIntervals
	if len(intervals) == 0 {
		intervals = DefaultIntervals
	}
	dial := opts.Dial
	if dial == nil {
		dial = Dial
	}
	s := &Socket{
		name:      opts.Name,
		url:       opts.URL,
		intervals: intervals,
		beatEvery: opts.HeartbeatInterval,
		dial:      dial,
		log:       opts.Logger.With().Str("socket", opts.Name).Logger(),
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
	}
	if s.beatEvery > 0 {
		go s.heartbeatLoop()
	}
	return s
}

// Events is the ordered inbound stream. It is never closed; consumers stop
// via their own teardown signal.
func (s *Socket) Events() <-chan Event {
	return s.events
}

// Connect establishes a fresh connection, closing any prior one first. A
// failed attempt follows the same backoff path as a dropped connection.
func (s *Socket) Connect() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
		s.gen++
	}

	attempt := uuid.New().String()
	s.log.Debug().Str("conn", attempt).Str("url", s.url).Msg("dialing")
	conn, err := s.dial(s.url)
	if err != nil {
		s.logDisconnect(err)
		s.scheduleReconnect()
		s.mu.Unlock()
		s.deliver(Event{Kind: EventClosed})
		return
	}

	s.conn = conn
	s.gen++
	gen := s.gen
	s.retries = 0
	s.lastBeat = 0
	s.stalled = false
	s.mu.Unlock()

	s.log.Info().Str("conn", attempt).Msg("connected")
	s.deliver(Event{Kind: EventOpen})
	go s.readPump(conn, gen)
}

// Send marshals v and writes a text frame. Without a live connection it is
// a logged no-op; callers that must know check Connected first.
func (s *Socket) Send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn().Err(err).Msg("marshal outbound packet")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		s.log.Debug().Msg("send while disconnected, dropping")
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.log.Warn().Err(err).Msg("write failed")
	}
}

// Connected reports whether a live connection exists right now.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && !s.closed
}

// Retrying reports whether the socket is between attempts.
func (s *Socket) Retrying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retries > 0
}

// AckHeartbeat clears the pending heartbeat when the echoed timestamp
// matches. Late echoes of older beats are ignored.
func (s *Socket) AckHeartbeat(ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts == s.lastBeat {
		s.lastBeat = 0
	}
}

// Drop closes the current connection without suppressing reconnection.
func (s *Socket) Drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
}

// Close tears the socket down for good: no further reconnects.
func (s *Socket) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.retry != nil {
		s.retry.Stop()
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.gen++
	s.mu.Unlock()
	close(s.done)
}

func (s *Socket) readPump(conn Conn, gen int) {
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			s.handleClose(gen, err)
			return
		}
		s.deliver(Event{
			Kind:   EventMessage,
			Data:   data,
			Binary: typ == websocket.BinaryMessage,
		})
	}
}

// handleClose runs once per connection generation: stale pumps from an
// already-replaced connection return without side effects.
func (s *Socket) handleClose(gen int, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.gen++
	s.logDisconnect(err)
	if !s.closed {
		s.scheduleReconnect()
	}
	s.mu.Unlock()
	s.deliver(Event{Kind: EventClosed})
}

// scheduleReconnect must run under mu. Retry count increments after the
// interval is picked, so the schedule is walked front to back and clamps at
// its last entry.
func (s *Socket) scheduleReconnect() {
	if s.closed {
		return
	}
	interval := backoffInterval(s.intervals, s.retries)
	s.log.Info().
		Dur("interval", interval).
		Int("retries", s.retries).
		Msg("reconnecting after interval")
	s.retry = time.AfterFunc(interval, s.Connect)
	s.retries++
}

func (s *Socket) logDisconnect(err error) {
	if err == nil {
		s.log.Info().Msg("disconnected")
		return
	}
	if isBenignError(err) {
		s.log.Debug().Err(err).Msg("disconnected")
	} else {
		s.log.Warn().Err(err).Msg("disconnected")
	}
}

func (s *Socket) deliver(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *Socket) heartbeatLoop() {
	t := time.NewTicker(s.beatEvery)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			s.beat(time.Now().UnixMilli())
		}
	}
}

// beat implements the single-slot liveness check: an unacknowledged beat at
// the next tick means the peer stalled, and the connection is force-closed
// exactly once; the read pump then drives the normal reconnect path.
func (s *Socket) beat(now int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.conn == nil {
		return
	}
	if s.lastBeat != 0 {
		if !s.stalled {
			s.stalled = true
			s.log.Warn().Int64("pending", s.lastBeat).Msg("heartbeat stalled, dropping connection")
			s.conn.Close()
		}
		return
	}
	s.lastBeat = now
	data, err := json.Marshal(protocol.NewHeartbeat(now))
	if err != nil {
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.log.Debug().Err(err).Msg("heartbeat write failed")
	}
}

// backoffInterval reads the schedule, clamped to its last entry.
func backoffInterval(intervals []time.Duration, retry int) time.Duration {
	if retry >= len(intervals) {
		retry = len(intervals) - 1
	}
	return intervals[retry]
}

// isBenignError matches the known handshake-rejection noise that should not
// raise warnings but still triggers reconnection.
func isBenignError(err error) bool {
	msg := err.Error()
	if strings.Contains(msg, "invalid status code") || strings.Contains(msg, "bad handshake") {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
