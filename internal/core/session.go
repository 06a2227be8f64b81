package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mkazmin/chatcast-server/internal/store"
)

// Verifier resolves an opaque client token to a user identity.
type Verifier interface {
	Verify(token string) (UserIdentity, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(token string) (UserIdentity, error)

func (f VerifierFunc) Verify(token string) (UserIdentity, error) { return f(token) }

// UserIdentity is a verified user.
type UserIdentity struct {
	UserID   int64
	Username string
}

type sessionState int

const (
	stateConnected sessionState = iota
	stateInRoom
	stateClosed
)

// Session binds one transport connection to at most one room membership and
// dispatches inbound commands against storage, presence and the broadcaster.
// Commands for one session are handled sequentially by the transport's read
// loop; different sessions run concurrently.
type Session struct {
	// ID identifies the connection; presence entries are keyed by it.
	ID string
	// Events carries outbound snapshots and errors to the transport write loop.
	// Closed at teardown.
	Events chan *Event

	store       ChatStore
	verifier    Verifier
	presence    *Presence
	broadcaster *Broadcaster
	colors      *ColorAssigner
	log         *zerolog.Logger

	mu     sync.Mutex
	state  sessionState
	chatID string
	closed bool

	closeOnce sync.Once
}

// NewSession constructs a session for a fresh connection.
func NewSession(id string, st ChatStore, verifier Verifier, presence *Presence, broadcaster *Broadcaster, colors *ColorAssigner, logger *zerolog.Logger) *Session {
	return &Session{
		ID:          id,
		Events:      make(chan *Event, 16),
		store:       st,
		verifier:    verifier,
		presence:    presence,
		broadcaster: broadcaster,
		colors:      colors,
		log:         logger,
	}
}

// Handle dispatches one inbound command. Commands arriving after teardown are
// ignored.
func (s *Session) Handle(ctx context.Context, cmd *Command) {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	switch cmd.Kind {
	case CommandJoinChat:
		s.join(ctx, cmd)
	case CommandAddMessage:
		s.addMessage(ctx, cmd)
	case CommandRemoveMessage:
		s.removeMessage(ctx, cmd)
	case CommandLeaveChat:
		s.leave(ctx, cmd)
	default:
		s.emitError(ErrCodeBadRequest, "unknown command")
	}
}

func (s *Session) join(ctx context.Context, cmd *Command) {
	identity, err := s.verifier.Verify(cmd.Token)
	if err != nil {
		s.log.Debug().Err(err).Str("session_id", s.ID).Msg("join rejected")
		s.emitError(ErrCodeUnauthorized, "invalid token")
		return
	}

	s.presence.MarkOnline(identity.UserID, s.ID)

	room, err := s.store.GetOrCreateRoom(ctx, cmd.ChatID, cmd.ChatName)
	if err != nil {
		s.fail(err, "get or create room")
		return
	}

	member := false
	for _, u := range room.Users {
		if u.UserID == identity.UserID {
			member = true
			break
		}
	}
	if !member {
		err := s.store.AddRoomUser(ctx, cmd.ChatID, store.RoomUser{
			UserID:   identity.UserID,
			UserName: identity.Username,
			Color:    s.colors.Generate(),
		})
		if err != nil {
			s.fail(err, "add room user")
			return
		}
	}

	s.mu.Lock()
	if s.state == stateInRoom && s.chatID != cmd.ChatID {
		s.broadcaster.Unsubscribe(s.chatID, s)
	}
	s.state = stateInRoom
	s.chatID = cmd.ChatID
	s.mu.Unlock()

	s.broadcaster.Subscribe(cmd.ChatID, s)

	if err := s.broadcaster.BroadcastUserList(ctx, cmd.ChatID); err != nil {
		s.fail(err, "broadcast user list")
		return
	}
	if err := s.broadcaster.BroadcastMessageList(ctx, cmd.ChatID); err != nil {
		s.fail(err, "broadcast message list")
	}
}

func (s *Session) addMessage(ctx context.Context, cmd *Command) {
	// An unknown sender does not reject the message; it is stored with an
	// empty sender name.
	senderName := ""
	user, err := s.store.GetUserByID(ctx, cmd.UserID)
	if err != nil {
		s.fail(err, "lookup sender")
		return
	}
	if user != nil {
		senderName = user.Username
	}

	// Reuse the sender's room color so their messages match their name in the
	// member list; only a non-member sender gets a fresh color.
	color := ""
	member, err := s.store.GetRoomUser(ctx, cmd.ChatID, cmd.UserID)
	if err != nil {
		s.fail(err, "lookup room color")
		return
	}
	if member != nil {
		color = member.Color
	} else {
		color = s.colors.Generate()
	}

	msg := &store.Message{
		ChatID:     cmd.ChatID,
		UserID:     cmd.UserID,
		SenderName: senderName,
		Color:      color,
		Body:       cmd.Text,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		s.fail(err, "create message")
		return
	}

	if err := s.broadcaster.BroadcastMessageList(ctx, cmd.ChatID); err != nil {
		s.fail(err, "broadcast message list")
	}
}

func (s *Session) removeMessage(ctx context.Context, cmd *Command) {
	if err := s.store.DeleteMessage(ctx, cmd.MessageID); err != nil {
		s.fail(err, "delete message")
		return
	}

	if err := s.broadcaster.BroadcastMessageList(ctx, cmd.ChatID); err != nil {
		s.fail(err, "broadcast message list")
	}
}

func (s *Session) leave(ctx context.Context, cmd *Command) {
	identity, err := s.verifier.Verify(cmd.Token)
	if err != nil {
		s.log.Debug().Err(err).Str("session_id", s.ID).Msg("leave rejected")
		s.emitError(ErrCodeUnauthorized, "invalid token")
		return
	}

	s.presence.MarkOffline(identity.UserID, s.ID)

	// Broadcast while the leaver is still subscribed so they see themselves
	// flip to offline; membership records are never removed.
	if err := s.broadcaster.BroadcastUserList(ctx, cmd.ChatID); err != nil {
		s.fail(err, "broadcast user list")
	}

	s.mu.Lock()
	if s.state == stateInRoom && s.chatID == cmd.ChatID {
		s.state = stateConnected
		s.chatID = ""
		s.mu.Unlock()
		s.broadcaster.Unsubscribe(cmd.ChatID, s)
		return
	}
	s.mu.Unlock()
}

// Teardown releases everything the connection holds: its presence entries,
// its subscriptions and its event channel. Runs at most once and never
// panics out to the transport.
func (s *Session) Teardown() {
	s.closeOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Interface("panic", r).Str("session_id", s.ID).Msg("session teardown panic")
			}
		}()

		s.presence.DropConnection(s.ID)
		s.broadcaster.DropSession(s)

		s.mu.Lock()
		s.state = stateClosed
		s.chatID = ""
		s.closed = true
		close(s.Events)
		s.mu.Unlock()

		s.log.Debug().Str("session_id", s.ID).Msg("session torn down")
	})
}

// deliver enqueues an event without blocking; slow consumers drop snapshots
// (the next triggering event re-sends full state anyway).
func (s *Session) deliver(event *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.Events <- event:
	default:
	}
}

func (s *Session) emitError(code, msg string) {
	s.deliver(&Event{Kind: EventError, Error: coreError(code, msg)})
}

// fail logs a collaborator failure and surfaces a generic error event.
// Absence of rooms, users or messages is never routed here; those are
// silent no-ops by contract.
func (s *Session) fail(err error, op string) {
	s.log.Error().Err(err).Str("session_id", s.ID).Str("op", op).Msg("collaborator failure")
	s.emitError(ErrCodeInternal, "internal error")
}
