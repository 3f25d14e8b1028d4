// Package conversation implements the per-chat bot dialogue as an explicit
// finite state machine: a transition table keyed by state and event kind,
// evaluated by a dispatcher that serializes messages per chat.
package conversation

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cbroglie/mustache"
	"github.com/keagan/clipbot/internal/clipper"
	"github.com/keagan/clipbot/internal/config"
	"github.com/keagan/clipbot/internal/library"
	"github.com/keagan/clipbot/internal/logging"
	"github.com/keagan/clipbot/internal/session"
	"github.com/keagan/clipbot/internal/timerange"
	"github.com/rs/zerolog"
)

// Sender delivers replies to a chat
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photo clipper.Thumbnail, caption string) error
	SendAnimation(ctx context.Context, chatID int64, path string) error
}

// Orchestrator is the download/trim side of the bot
type Orchestrator interface {
	RequestDownload(ctx context.Context, chatID int64, url string) (clipper.DownloadResult, error)
	RequestTrim(ctx context.Context, chatID int64, ranges []timerange.Range, sink clipper.ClipSink) (int, error)
	Session(chatID int64) (session.Video, error)
	Release(chatID int64) (session.Video, bool)
	Forget(chatID int64)
}

// Library is the shared videos directory
type Library interface {
	List() ([]library.Entry, error)
	Clean() (int, error)
}

type handler func(ctx context.Context, c *call) (State, error)

// call carries one message through a handler
type call struct {
	msg    Message
	state  State
	logger zerolog.Logger
}

type chat struct {
	mu    sync.Mutex
	state State
}

// Machine routes inbound messages through the transition table
type Machine struct {
	logger  zerolog.Logger
	sender  Sender
	clips   Orchestrator
	library Library
	parser  *timerange.Parser
	replies *replies

	// transitions only apply in their state; global applies in every state
	// and takes precedence.
	transitions map[State]map[EventKind]handler
	global      map[EventKind]handler

	chats sync.Map // int64 -> *chat
}

// New builds a machine. Reply templates are compiled up front so a broken
// message in the config fails at startup.
func New(logger zerolog.Logger, sender Sender, clips Orchestrator, lib Library, parser *timerange.Parser, msgs config.Messages) (*Machine, error) {
	r, err := compileReplies(msgs)
	if err != nil {
		return nil, err
	}
	if parser == nil {
		parser = timerange.NewParser()
	}

	m := &Machine{
		logger:  logging.WithComponent(logger, "conversation"),
		sender:  sender,
		clips:   clips,
		library: lib,
		parser:  parser,
		replies: r,
	}

	m.global = map[EventKind]handler{
		EventStart: m.start,
		EventList:  m.list,
		EventClean: m.clean,
	}
	m.transitions = map[State]map[EventKind]handler{
		WaitingForURL: {
			EventURL:   m.download,
			EventText:  m.invalidURL,
			EventOther: m.invalidURL,
		},
		WaitingForRequests: {
			EventDone: m.done,
			EventText: m.trim,
			EventURL:  m.trim,
		},
	}

	return m, nil
}

// State reports the chat's current state
func (m *Machine) State(chatID int64) State {
	c := m.chat(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (m *Machine) chat(chatID int64) *chat {
	if v, ok := m.chats.Load(chatID); ok {
		return v.(*chat)
	}
	v, _ := m.chats.LoadOrStore(chatID, &chat{})
	return v.(*chat)
}

// Handle processes one message to completion. Messages for the same chat
// are serialized; different chats proceed concurrently. Handle never
// returns an error: failures become a single reply and leave the state
// unchanged.
func (m *Machine) Handle(ctx context.Context, msg Message) {
	c := m.chat(msg.ChatID)
	c.mu.Lock()
	defer c.mu.Unlock()

	kind := Classify(msg)
	logger := logging.ForChat(m.logger, msg.ChatID, msg.RequestID).With().
		Stringer("state", c.state).
		Stringer("event", kind).
		Logger()

	h := m.lookup(c.state, kind)
	started := time.Now()

	next, err := m.dispatch(ctx, h, &call{msg: msg, state: c.state, logger: logger})
	if err != nil {
		logger.Error().Err(err).Msg("handler failed")
		if err := m.reply(ctx, msg.ChatID, m.replies.failure, nil); err != nil {
			logger.Warn().Err(err).Msg("failed to deliver error reply")
		}
		return
	}

	if next != c.state {
		logger.Info().Stringer("next", next).Msg("transition")
	}
	logger.Debug().Dur("elapsed", time.Since(started)).Msg("message handled")
	c.state = next
}

func (m *Machine) lookup(state State, kind EventKind) handler {
	if h, ok := m.global[kind]; ok {
		return h
	}
	if h, ok := m.transitions[state][kind]; ok {
		return h
	}
	if state == Idle {
		return m.notStarted
	}
	return m.unknown
}

func (m *Machine) dispatch(ctx context.Context, h handler, c *call) (next State, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Str("stack", string(debug.Stack())).Msg("handler panicked")
			next, err = c.state, fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, c)
}

func (m *Machine) reply(ctx context.Context, chatID int64, t *mustache.Template, data map[string]any) error {
	text, err := render(t, data)
	if err != nil {
		return fmt.Errorf("render reply: %w", err)
	}
	return m.sender.SendText(ctx, chatID, text)
}
