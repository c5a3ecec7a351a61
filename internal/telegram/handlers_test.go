package telegram

import (
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"tcbot/internal/app"
	"tcbot/internal/lobby"
	"tcbot/internal/session"
)

type MockCommander struct {
	mock.Mock
}

func (m *MockCommander) Status() []app.BotStatus {
	args := m.Called()
	return args.Get(0).([]app.BotStatus)
}

func (m *MockCommander) Rooms() []lobby.Room {
	args := m.Called()
	return args.Get(0).([]lobby.Room)
}

func (m *MockCommander) Join(pattern string, opts app.JoinOptions) ([]string, error) {
	args := m.Called(pattern, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCommander) Kick(names []string, force bool) ([]string, error) {
	args := m.Called(names, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCommander) SetDelay(names []string, d time.Duration) error {
	args := m.Called(names, d)
	return args.Error(0)
}

func (m *MockCommander) Reset(names []string) error {
	args := m.Called(names)
	return args.Error(0)
}

func (m *MockCommander) Kill(names []string) error {
	args := m.Called(names)
	return args.Error(0)
}

func (m *MockCommander) Flush() {
	m.Called()
}

type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(1)
}

func newTestHandler() (*Handler, *MockCommander, *MockMessageSender) {
	svc := new(MockCommander)
	sender := new(MockMessageSender)
	return NewHandler(sender, svc, zerolog.Nop()), svc, sender
}

func TestHandleStatus(t *testing.T) {
	h, svc, sender := newTestHandler()
	svc.On("Status").Return([]app.BotStatus{
		{Name: "a", Status: session.DisplayIdle},
		{Name: "b", Status: session.DisplayKilled},
	}).Once()
	expected := tgbotapi.NewMessage(42, "a: idle\nb: killed\n")
	sender.On("Send", expected).Return(tgbotapi.Message{}, nil).Once()

	h.HandleStatus(42)

	svc.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandleJoin(t *testing.T) {
	t.Run("seats bots", func(t *testing.T) {
		h, svc, sender := newTestHandler()
		svc.On("Join", "friendly", app.JoinOptions{Count: 3}).Return([]string{"a", "b"}, nil).Once()
		expected := tgbotapi.NewMessage(42, "seated: a, b")
		sender.On("Send", expected).Return(tgbotapi.Message{}, nil).Once()

		h.HandleJoin(42, "friendly 3")

		svc.AssertExpectations(t)
		sender.AssertExpectations(t)
	})

	t.Run("reports orchestrator errors", func(t *testing.T) {
		h, svc, sender := newTestHandler()
		svc.On("Join", "friendly", app.JoinOptions{Count: 1}).Return(nil, app.ErrNoRoom).Once()
		expected := tgbotapi.NewMessage(42, app.ErrNoRoom.Error())
		sender.On("Send", expected).Return(tgbotapi.Message{}, nil).Once()

		h.HandleJoin(42, "friendly")

		svc.AssertExpectations(t)
	})

	t.Run("rejects missing pattern", func(t *testing.T) {
		h, svc, sender := newTestHandler()
		sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

		h.HandleJoin(42, "")

		svc.AssertNotCalled(t, "Join", mock.Anything, mock.Anything)
	})

	t.Run("rejects bad count", func(t *testing.T) {
		h, svc, sender := newTestHandler()
		sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

		h.HandleJoin(42, "friendly zero")

		svc.AssertNotCalled(t, "Join", mock.Anything, mock.Anything)
	})
}

func TestHandleKick(t *testing.T) {
	t.Run("force prefix", func(t *testing.T) {
		h, svc, sender := newTestHandler()
		svc.On("Kick", []string{"a", "b"}, true).Return([]string{"a", "b"}, nil).Once()
		expected := tgbotapi.NewMessage(42, "kicked: a, b")
		sender.On("Send", expected).Return(tgbotapi.Message{}, nil).Once()

		h.HandleKick(42, "force a b")

		svc.AssertExpectations(t)
	})

	t.Run("nobody kicked", func(t *testing.T) {
		h, svc, sender := newTestHandler()
		svc.On("Kick", []string{}, false).Return([]string{}, nil).Once()
		expected := tgbotapi.NewMessage(42, "nobody kicked (playing bots need force)")
		sender.On("Send", expected).Return(tgbotapi.Message{}, nil).Once()

		h.HandleKick(42, "")

		svc.AssertExpectations(t)
	})
}

func TestHandleDelay(t *testing.T) {
	t.Run("milliseconds for named bots", func(t *testing.T) {
		h, svc, sender := newTestHandler()
		svc.On("SetDelay", []string{"a"}, 2500*time.Millisecond).Return(nil).Once()
		expected := tgbotapi.NewMessage(42, "delay set to 2500ms")
		sender.On("Send", expected).Return(tgbotapi.Message{}, nil).Once()

		h.HandleDelay(42, "2500 a")

		svc.AssertExpectations(t)
	})

	t.Run("unknown bot", func(t *testing.T) {
		h, svc, sender := newTestHandler()
		svc.On("SetDelay", []string{"ghost"}, time.Second).Return(app.ErrUnknownBot).Once()
		expected := tgbotapi.NewMessage(42, app.ErrUnknownBot.Error())
		sender.On("Send", expected).Return(tgbotapi.Message{}, nil).Once()

		h.HandleDelay(42, "1000 ghost")

		svc.AssertExpectations(t)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		h, svc, sender := newTestHandler()
		sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

		h.HandleDelay(42, "soon")

		svc.AssertNotCalled(t, "SetDelay", mock.Anything, mock.Anything)
	})
}

func TestHandleFlush(t *testing.T) {
	h, svc, sender := newTestHandler()
	svc.On("Flush").Return().Once()
	expected := tgbotapi.NewMessage(42, "traces written")
	sender.On("Send", expected).Return(tgbotapi.Message{}, nil).Once()

	h.HandleFlush(42)

	svc.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandleRooms(t *testing.T) {
	h, svc, sender := newTestHandler()
	room := lobby.Room{ID: 7, Title: "friendly", RoundCount: 8}
	room.Players[0] = &lobby.Player{Name: "human"}
	svc.On("Rooms").Return([]lobby.Room{room}).Once()
	expected := tgbotapi.NewMessage(42, "#7 friendly (1/4, waiting)\n")
	sender.On("Send", expected).Return(tgbotapi.Message{}, nil).Once()

	h.HandleRooms(42)

	svc.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestSendFailureDoesNotPanic(t *testing.T) {
	h, svc, sender := newTestHandler()
	svc.On("Flush").Return().Once()
	sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("network down")).Once()

	h.HandleFlush(42)
}
