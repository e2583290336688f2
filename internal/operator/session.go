package operator

import (
	"context"
	"fmt"
	"sync"
)

// Phase is a dialogue session state. A session waits for at most one input
// at a time.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingDestination
	PhaseAwaitingSource
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingDestination:
		return "awaiting destination"
	case PhaseAwaitingSource:
		return "awaiting source"
	default:
		return "idle"
	}
}

// Session tracks one operator's pending prompt. Invalid input keeps the
// session in its current phase so the operator can retry without re-issuing
// the command.
type Session struct {
	mu    sync.Mutex
	phase Phase
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// ExpectDestination arms the session: the next input is the target channel.
func (s *Session) ExpectDestination() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseAwaitingDestination
}

// ExpectSource arms the session: the next input is a source to add.
func (s *Session) ExpectSource() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseAwaitingSource
}

// Reset returns the session to idle, abandoning any pending prompt.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseIdle
}

// HandleInput feeds one line of operator input to whatever prompt is
// pending and returns the reply to show. On success the session returns to
// idle; on failure it stays armed and the reply is a retry hint.
func (s *Session) HandleInput(ctx context.Context, c *Controller, input string) string {
	s.mu.Lock()
	phase := s.phase
	s.mu.Unlock()

	switch phase {
	case PhaseAwaitingDestination:
		channel, err := c.SetTarget(ctx, input)
		if err != nil {
			return fmt.Sprintf("cannot use %q as destination: %v; send @channel or a t.me link", input, err)
		}
		s.Reset()
		return fmt.Sprintf("destination set to %s", channel)
	case PhaseAwaitingSource:
		id, err := c.AddSource(ctx, input)
		if err != nil {
			return fmt.Sprintf("cannot add %q: %v; send a site URL, @channel, or a t.me link", input, err)
		}
		s.Reset()
		return fmt.Sprintf("source %s added", id)
	default:
		return "nothing pending; use a command first"
	}
}

// Sessions is a registry of per-operator sessions. Concurrent operators
// never share dialogue state.
type Sessions struct {
	mu sync.Mutex
	m  map[int64]*Session
}

func NewSessions() *Sessions {
	return &Sessions{m: make(map[int64]*Session)}
}

// Get returns the session for an operator id, creating it on first use.
func (s *Sessions) Get(id int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		sess = &Session{}
		s.m[id] = sess
	}
	return sess
}
