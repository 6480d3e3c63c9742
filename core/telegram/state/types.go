package state

import (
	"errors"
	"strings"
)

// State identifies the conversational mode of a user.
type State string

const (
	// StateAwaitingLevel waits for the first proficiency pick after /start.
	StateAwaitingLevel State = "awaiting_level"
	// StateAwaitingTopic waits for the first conversation topic.
	StateAwaitingTopic State = "awaiting_topic"
	// StateChatting is the practice mode.
	StateChatting State = "chatting"
	// StateChangingLevel waits for a new proficiency tag.
	StateChangingLevel State = "changing_level"
	// StateChangingTopic waits for a new topic.
	StateChangingTopic State = "changing_topic"
	// StateDictionary translates every message until the user goes back.
	StateDictionary State = "dictionary"
)

// Valid reports whether s is one of the six known states.
func (s State) Valid() bool {
	switch s {
	case StateAwaitingLevel, StateAwaitingTopic, StateChatting,
		StateChangingLevel, StateChangingTopic, StateDictionary:
		return true
	}
	return false
}

// Level is a CEFR proficiency tag.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// Levels lists every tag in keyboard order.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// Valid reports whether l is a known tag.
func (l Level) Valid() bool {
	for _, known := range Levels {
		if l == known {
			return true
		}
	}
	return false
}

// ParseLevel matches text against the tags exactly, ignoring surrounding space.
func ParseLevel(text string) (Level, bool) {
	l := Level(strings.TrimSpace(text))
	return l, l.Valid()
}

const (
	// DefaultLevel is assigned to fresh sessions.
	DefaultLevel = LevelB1
	// DefaultTopic is assigned to fresh sessions.
	DefaultTopic = "Free chat"
)

// Session is the per-user record.
type Session struct {
	Level Level
	Topic string
	State State
}

// DefaultSession returns the record a user gets on first contact.
func DefaultSession() Session {
	return Session{Level: DefaultLevel, Topic: DefaultTopic, State: StateAwaitingLevel}
}

// ErrInvalidSession is returned when a mutation leaves a session with an unknown level or state.
var ErrInvalidSession = errors.New("state: invalid session")

func (s Session) validate() error {
	if !s.State.Valid() {
		return errors.Join(ErrInvalidSession, errors.New("unknown state "+string(s.State)))
	}
	if !s.Level.Valid() {
		return errors.Join(ErrInvalidSession, errors.New("unknown level "+string(s.Level)))
	}
	return nil
}

// Manager stores sessions keyed by Telegram user id.
type Manager interface {
	// Get returns a copy of the user's session if one exists.
	Get(userID int64) (Session, bool)
	// GetOrCreate returns the user's session, creating the default one on first contact.
	GetOrCreate(userID int64) Session
	// Update applies fn to the user's session and stores the result if it is valid.
	Update(userID int64, fn func(*Session)) (Session, error)
	// Reset replaces the user's session with the default one.
	Reset(userID int64) Session
	// Lock serialises handling for one user until the returned func is called.
	// Waiting callers get their turn in the order they called Lock.
	Lock(userID int64) (unlock func())
	// Len reports how many users have a session.
	Len() int
}
