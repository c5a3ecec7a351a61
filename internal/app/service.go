// Package app holds the orchestrator: the lobby view plus every bot
// session, exposed as the operator commands.
package app

import (
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"tcbot/internal/lobby"
	"tcbot/internal/session"
)

var (
	ErrNoRoom     = errors.New("no waiting room matches the pattern")
	ErrNoIdleBots = errors.New("no idle bots available")
	ErrNoFreeSeat = errors.New("room has no free seat")
	ErrUnknownBot = errors.New("bot not found")
	ErrJoinFailed = errors.New("no bot could join the room")
)

// Bot is the slice of a session the orchestrator drives.
type Bot interface {
	Name() string
	DisplayStatus() session.DisplayStatus
	Join(roomID, seat int, password string) bool
	Exit()
	Kill()
	SetDelay(d time.Duration)
	ResetStatus()
	Flush()
	Close()
}

// Service contains the operator use-cases over the lobby registry and the
// bot pool. Bots never surface faults as errors; the service reads their
// state and reports it.
type Service struct {
	reg  *lobby.Registry
	bots []Bot
	rng  *rand.Rand
	log  zerolog.Logger

	// RandomPick makes every join pick bots at random instead of pool
	// order, matching the deployment knob of the same name.
	RandomPick bool
}

// NewService constructs a Service with the provided rng or a time-seeded
// default.
func NewService(reg *lobby.Registry, bots []Bot, rng *rand.Rand, logger zerolog.Logger) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{reg: reg, bots: bots, rng: rng, log: logger}
}

// BotStatus is one row of the status report.
type BotStatus struct {
	Name   string
	Status session.DisplayStatus
}

// Status reports every bot in pool order.
func (s *Service) Status() []BotStatus {
	out := make([]BotStatus, 0, len(s.bots))
	for _, b := range s.bots {
		out = append(out, BotStatus{Name: b.Name(), Status: b.DisplayStatus()})
	}
	return out
}

// Rooms returns the current lobby view.
func (s *Service) Rooms() []lobby.Room {
	return s.reg.Rooms()
}

// JoinOptions tune a join command.
type JoinOptions struct {
	Count      int // bots to seat; 0 means one
	Password   string
	RandomPick bool // pick bots at random instead of pool order
}

// Join seats idle bots in the first waiting room whose title matches the
// pattern. It returns the names of the bots that confirmed their seat; a
// bot whose join is not confirmed reverts to idle and is skipped.
func (s *Service) Join(pattern string, opts JoinOptions) ([]string, error) {
	rooms := s.reg.FindWaiting(pattern)
	if len(rooms) == 0 {
		return nil, ErrNoRoom
	}
	room := rooms[0]

	var free []int
	for i, p := range room.Players {
		if p == nil {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return nil, ErrNoFreeSeat
	}

	idle := s.idlePool()
	if len(idle) == 0 {
		return nil, ErrNoIdleBots
	}
	if opts.RandomPick || s.RandomPick {
		s.rng.Shuffle(len(idle), func(i, j int) { idle[i], idle[j] = idle[j], idle[i] })
	}

	count := opts.Count
	if count <= 0 {
		count = 1
	}
	if count > len(free) {
		count = len(free)
	}
	if count > len(idle) {
		count = len(idle)
	}

	var joined []string
	seat := 0
	for _, b := range idle[:count] {
		if b.Join(room.ID, free[seat], opts.Password) {
			joined = append(joined, b.Name())
			seat++
		}
	}
	if len(joined) == 0 {
		return nil, ErrJoinFailed
	}
	s.log.Info().Int("room", room.ID).Strs("bots", joined).Msg("bots seated")
	return joined, nil
}

// Kick makes the named bots (or all of them) leave their rooms. Bots in
// the middle of a round are skipped unless force is set. Returns the names
// actually kicked.
func (s *Service) Kick(names []string, force bool) ([]string, error) {
	bots, err := s.pick(names)
	if err != nil {
		return nil, err
	}
	var kicked []string
	for _, b := range bots {
		if b.DisplayStatus() == session.DisplayPlaying && !force {
			continue
		}
		b.Exit()
		kicked = append(kicked, b.Name())
	}
	return kicked, nil
}

// SetDelay overrides the pacing delay for the named bots, or all of them.
func (s *Service) SetDelay(names []string, d time.Duration) error {
	bots, err := s.pick(names)
	if err != nil {
		return err
	}
	for _, b := range bots {
		b.SetDelay(d)
	}
	return nil
}

// Reset forces the named bots (or all) back to idle.
func (s *Service) Reset(names []string) error {
	bots, err := s.pick(names)
	if err != nil {
		return err
	}
	for _, b := range bots {
		b.ResetStatus()
	}
	return nil
}

// Kill drops both connections of the named bots (or all). Reconnection is
// not suppressed; this is the operator's restart lever.
func (s *Service) Kill(names []string) error {
	bots, err := s.pick(names)
	if err != nil {
		return err
	}
	for _, b := range bots {
		b.Kill()
	}
	return nil
}

// Flush writes out every bot's accumulated trace.
func (s *Service) Flush() {
	for _, b := range s.bots {
		b.Flush()
	}
}

// Close shuts down every bot.
func (s *Service) Close() {
	for _, b := range s.bots {
		b.Close()
	}
}

func (s *Service) idlePool() []Bot {
	var idle []Bot
	for _, b := range s.bots {
		if b.DisplayStatus() == session.DisplayIdle {
			idle = append(idle, b)
		}
	}
	return idle
}

// pick resolves names to bots; an empty list means the whole pool.
func (s *Service) pick(names []string) ([]Bot, error) {
	if len(names) == 0 {
		return s.bots, nil
	}
	byName := make(map[string]Bot, len(s.bots))
	for _, b := range s.bots {
		byName[b.Name()] = b
	}
	out := make([]Bot, 0, len(names))
	for _, n := range names {
		b, ok := byName[n]
		if !ok {
			return nil, ErrUnknownBot
		}
		out = append(out, b)
	}
	return out, nil
}
