// Package tutor routes a user's messages through the practice conversation.
package tutor

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/lunabot/core/llm"
	"github.com/m3rciful/lunabot/core/locale"
	"github.com/m3rciful/lunabot/core/logger"
	"github.com/m3rciful/lunabot/core/telegram/state"
	"github.com/m3rciful/lunabot/internal/journal"
)

// KindText marks a plain text message; every other kind is treated as media.
const KindText = "text"

// StartCommand resets the session from any state.
const StartCommand = "/start"

// Inbound is one user message.
type Inbound struct {
	UserID int64
	Kind   string
	Text   string
}

func (in Inbound) isText() bool { return in.Kind == KindText }

// Outbound is one message to the user.
type Outbound struct {
	Text string
	// Plain replaces Text when Telegram rejects the Markdown entities.
	Plain    string
	Markdown bool
	Keyboard Keyboard
}

// Responder delivers messages to the user who sent the inbound message.
type Responder interface {
	Send(ctx context.Context, out Outbound) error
	Typing(ctx context.Context) error
}

// Observer receives conversation events for metrics.
type Observer interface {
	ObserveTransition(from, to string)
	ObserveRejection(reason string)
}

// Options wires the Router's collaborators. Journal and Observer are optional.
type Options struct {
	Sessions state.Manager
	Gateway  llm.Gateway
	Catalog  *locale.Catalog
	Model    string
	Journal  journal.Recorder
	Observer Observer
}

// turn carries everything a rule needs to handle one message.
type turn struct {
	in      Inbound
	text    string
	session state.Session
	out     Responder
}

type rule struct {
	name  string
	match func(t *turn) bool
	run   func(ctx context.Context, t *turn) error
}

// Router dispatches messages by session state. The first matching rule of the current state wins.
type Router struct {
	sessions state.Manager
	gateway  llm.Gateway
	catalog  *locale.Catalog
	model    string
	journal  journal.Recorder
	observer Observer
	labels   labels
	table    map[state.State][]rule
}

// NewRouter validates opts and builds the dispatch table.
func NewRouter(opts Options) (*Router, error) {
	switch {
	case opts.Sessions == nil:
		return nil, errors.New("tutor: session manager is required")
	case opts.Gateway == nil:
		return nil, errors.New("tutor: completion gateway is required")
	case opts.Catalog == nil:
		return nil, errors.New("tutor: catalog is required")
	}
	if opts.Journal == nil {
		opts.Journal = journal.Noop{}
	}
	r := &Router{
		sessions: opts.Sessions,
		gateway:  opts.Gateway,
		catalog:  opts.Catalog,
		model:    opts.Model,
		journal:  opts.Journal,
		observer: opts.Observer,
		labels:   loadLabels(opts.Catalog),
	}
	r.table = r.buildTable()
	return r, nil
}

func (r *Router) buildTable() map[state.State][]rule {
	isLevel := func(t *turn) bool {
		_, ok := state.ParseLevel(t.text)
		return t.in.isText() && ok
	}
	isLabel := func(label string) func(t *turn) bool {
		return func(t *turn) bool { return t.in.isText() && t.text == label }
	}
	anyText := func(t *turn) bool { return t.in.isText() }
	nonText := func(t *turn) bool { return !t.in.isText() }
	english := func(t *turn) bool { return t.in.isText() && IsEnglish(t.text) }

	return map[state.State][]rule{
		state.StateAwaitingLevel: {
			{name: "level.set", match: isLevel, run: r.chooseFirstLevel},
			{name: "level.reprompt", match: anyText, run: r.repromptLevel},
		},
		state.StateAwaitingTopic: {
			{name: "topic.set", match: anyText, run: r.chooseFirstTopic},
		},
		state.StateChatting: {
			{name: "menu.change_level", match: isLabel(r.labels.changeLevel), run: r.openChangeLevel},
			{name: "menu.change_topic", match: isLabel(r.labels.changeTopic), run: r.openChangeTopic},
			{name: "menu.dictionary", match: isLabel(r.labels.dictionary), run: r.openDictionary},
			{name: "chat.non_text", match: nonText, run: r.rejectNonText},
			{name: "chat.exchange", match: english, run: r.exchange},
			{name: "chat.non_english", match: anyText, run: r.rejectNonEnglish},
		},
		state.StateChangingLevel: {
			{name: "level.change", match: isLevel, run: r.changeLevel},
			{name: "level.reprompt", match: anyText, run: r.repromptLevel},
		},
		state.StateChangingTopic: {
			{name: "menu.back", match: isLabel(r.labels.back), run: r.back},
			{name: "topic.change", match: anyText, run: r.changeTopic},
		},
		state.StateDictionary: {
			{name: "menu.back", match: isLabel(r.labels.back), run: r.back},
			{name: "dictionary.lookup", match: anyText, run: r.lookup},
		},
	}
}

// Handle processes one message while holding the user's lock, so turns of one user never interleave.
func (r *Router) Handle(ctx context.Context, in Inbound, out Responder) error {
	unlock := r.sessions.Lock(in.UserID)
	defer unlock()

	text := strings.TrimSpace(in.Text)
	if in.isText() && text == StartCommand {
		return r.start(ctx, in.UserID, out)
	}

	t := &turn{in: in, text: text, session: r.sessions.GetOrCreate(in.UserID), out: out}
	for _, rl := range r.table[t.session.State] {
		if !rl.match(t) {
			continue
		}
		logger.LogEvent(ctx, logger.Tutor, slog.LevelDebug, "route",
			slog.String("rule", rl.name),
			slog.String("state", string(t.session.State)),
			slog.String("kind", in.Kind),
		)
		return rl.run(ctx, t)
	}

	logger.LogEvent(ctx, logger.Tutor, slog.LevelDebug, "route",
		slog.String("status", "skip"),
		slog.String("state", string(t.session.State)),
		slog.String("kind", in.Kind),
	)
	return nil
}

// Start resets the user's session and asks for a level.
func (r *Router) Start(ctx context.Context, userID int64, out Responder) error {
	unlock := r.sessions.Lock(userID)
	defer unlock()
	return r.start(ctx, userID, out)
}

func (r *Router) start(ctx context.Context, userID int64, out Responder) error {
	prev, existed := r.sessions.Get(userID)
	s := r.sessions.Reset(userID)
	if existed {
		r.transitioned(ctx, prev.State, s.State)
	}
	return out.Send(ctx, Outbound{Text: r.catalog.Text(locale.StartIntro), Keyboard: levelKeyboard()})
}

func (r *Router) chooseFirstLevel(ctx context.Context, t *turn) error {
	level, _ := state.ParseLevel(t.text)
	if err := r.update(ctx, t, func(s *state.Session) {
		s.Level = level
		s.State = state.StateAwaitingTopic
	}); err != nil {
		return err
	}
	return t.out.Send(ctx, Outbound{Text: r.catalog.Text(locale.TopicAsk), Keyboard: removeKeyboard()})
}

func (r *Router) repromptLevel(ctx context.Context, t *turn) error {
	return t.out.Send(ctx, Outbound{Text: r.catalog.Text(locale.LevelReprompt), Keyboard: levelKeyboard()})
}

func (r *Router) chooseFirstTopic(ctx context.Context, t *turn) error {
	if err := r.update(ctx, t, func(s *state.Session) {
		s.Topic = t.text
		s.State = state.StateChatting
	}); err != nil {
		return err
	}
	return t.out.Send(ctx, Outbound{Text: r.catalog.Text(locale.PracticeStart), Keyboard: r.labels.mainMenu()})
}

func (r *Router) openChangeLevel(ctx context.Context, t *turn) error {
	if err := r.update(ctx, t, func(s *state.Session) { s.State = state.StateChangingLevel }); err != nil {
		return err
	}
	return t.out.Send(ctx, Outbound{Text: r.catalog.Text(locale.LevelChoose), Keyboard: levelKeyboard()})
}

func (r *Router) openChangeTopic(ctx context.Context, t *turn) error {
	if err := r.update(ctx, t, func(s *state.Session) { s.State = state.StateChangingTopic }); err != nil {
		return err
	}
	return t.out.Send(ctx, Outbound{Text: r.catalog.Text(locale.TopicAskNew), Keyboard: removeKeyboard()})
}

func (r *Router) openDictionary(ctx context.Context, t *turn) error {
	if err := r.update(ctx, t, func(s *state.Session) { s.State = state.StateDictionary }); err != nil {
		return err
	}
	return t.out.Send(ctx, Outbound{Text: r.catalog.Text(locale.DictionaryAsk), Keyboard: r.labels.backOnly()})
}

func (r *Router) rejectNonText(ctx context.Context, t *turn) error {
	r.rejected(ctx, "non_text")
	return t.out.Send(ctx, Outbound{Text: r.catalog.Text(locale.ChatNonText), Keyboard: r.labels.mainMenu()})
}

func (r *Router) rejectNonEnglish(ctx context.Context, t *turn) error {
	r.rejected(ctx, "non_english")
	return t.out.Send(ctx, Outbound{Text: r.catalog.Text(locale.ChatNonEnglish), Keyboard: r.labels.mainMenu()})
}

func (r *Router) changeLevel(ctx context.Context, t *turn) error {
	level, _ := state.ParseLevel(t.text)
	if err := r.update(ctx, t, func(s *state.Session) {
		s.Level = level
		s.State = state.StateChatting
	}); err != nil {
		return err
	}
	msg := r.catalog.Format(locale.LevelSet, map[string]any{"Level": string(level)})
	return t.out.Send(ctx, Outbound{Text: msg, Keyboard: r.labels.mainMenu()})
}

func (r *Router) changeTopic(ctx context.Context, t *turn) error {
	if err := r.update(ctx, t, func(s *state.Session) {
		s.Topic = t.text
		s.State = state.StateChatting
	}); err != nil {
		return err
	}
	msg := r.catalog.Format(locale.TopicSet, map[string]any{"Topic": t.text})
	return t.out.Send(ctx, Outbound{Text: msg, Keyboard: r.labels.mainMenu()})
}

func (r *Router) back(ctx context.Context, t *turn) error {
	if err := r.update(ctx, t, func(s *state.Session) { s.State = state.StateChatting }); err != nil {
		return err
	}
	return t.out.Send(ctx, Outbound{Text: r.catalog.Text(locale.BackDone), Keyboard: r.labels.mainMenu()})
}

// update applies fn to the stored session and refreshes the turn's copy.
func (r *Router) update(ctx context.Context, t *turn, fn func(*state.Session)) error {
	from := t.session.State
	s, err := r.sessions.Update(t.in.UserID, fn)
	if err != nil {
		logger.LogEvent(ctx, logger.Tutor, slog.LevelError, "session.update",
			slog.String("status", "fail"),
			slog.String("state", string(from)),
			slog.String("err", err.Error()),
		)
		return err
	}
	t.session = s
	r.transitioned(ctx, from, s.State)
	return nil
}

func (r *Router) transitioned(ctx context.Context, from, to state.State) {
	if from == to {
		return
	}
	logger.LogEvent(ctx, logger.Tutor, slog.LevelInfo, "state.transition",
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	if r.observer != nil {
		r.observer.ObserveTransition(string(from), string(to))
	}
}

func (r *Router) rejected(ctx context.Context, reason string) {
	logger.LogEvent(ctx, logger.Tutor, slog.LevelInfo, "chat.reject",
		slog.String("status", "skip"),
		slog.String("reason", reason),
	)
	if r.observer != nil {
		r.observer.ObserveRejection(reason)
	}
}
