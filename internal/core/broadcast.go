package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mkazmin/chatcast-server/internal/store"
)

// ChatStore is the storage surface the protocol touches.
type ChatStore interface {
	GetOrCreateRoom(ctx context.Context, chatID, name string) (*store.Room, error)
	GetRoom(ctx context.Context, chatID string) (*store.Room, error)
	AddRoomUser(ctx context.Context, chatID string, user store.RoomUser) error
	GetRoomUser(ctx context.Context, chatID string, userID int64) (*store.RoomUser, error)
	CreateMessage(ctx context.Context, msg *store.Message) error
	DeleteMessage(ctx context.Context, id int64) error
	ListMessages(ctx context.Context, chatID string) ([]store.Message, error)
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
}

// Broadcaster keeps the chatID -> sessions subscription registry and pushes
// room snapshots to every subscribed connection. Snapshots are re-read from
// authoritative storage on every emit, never cached.
type Broadcaster struct {
	store    ChatStore
	presence *Presence
	log      *zerolog.Logger

	mu   sync.Mutex
	subs map[string]map[*Session]struct{}
}

// NewBroadcaster constructs a broadcaster over the given store and presence.
func NewBroadcaster(st ChatStore, presence *Presence, logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		store:    st,
		presence: presence,
		log:      logger,
		subs:     make(map[string]map[*Session]struct{}),
	}
}

// Subscribe adds a session to a room's broadcast group. Idempotent.
func (b *Broadcaster) Subscribe(chatID string, s *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	group, ok := b.subs[chatID]
	if !ok {
		group = make(map[*Session]struct{})
		b.subs[chatID] = group
	}
	group[s] = struct{}{}
}

// Unsubscribe removes a session from a room's broadcast group. Idempotent.
func (b *Broadcaster) Unsubscribe(chatID string, s *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	group, ok := b.subs[chatID]
	if !ok {
		return
	}
	delete(group, s)
	if len(group) == 0 {
		delete(b.subs, chatID)
	}
}

// DropSession removes a session from every broadcast group. Used at teardown.
func (b *Broadcaster) DropSession(s *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for chatID, group := range b.subs {
		delete(group, s)
		if len(group) == 0 {
			delete(b.subs, chatID)
		}
	}
}

// BroadcastUserList reads the room and sends its member list, decorated with
// live presence, to every subscribed session. A missing room is a no-op.
func (b *Broadcaster) BroadcastUserList(ctx context.Context, chatID string) error {
	room, err := b.store.GetRoom(ctx, chatID)
	if err != nil {
		return err
	}
	if room == nil {
		return nil
	}

	users := make([]UserStatus, 0, len(room.Users))
	for _, u := range room.Users {
		users = append(users, UserStatus{
			UserID:   u.UserID,
			UserName: u.UserName,
			Color:    u.Color,
			IsOnline: b.presence.IsOnline(u.UserID),
		})
	}

	b.send(chatID, &Event{Kind: EventUserList, ChatID: chatID, Users: users})
	return nil
}

// BroadcastMessageList sends the full message history of a chat to every
// subscribed session. An unknown chat yields an empty list, still sent.
func (b *Broadcaster) BroadcastMessageList(ctx context.Context, chatID string) error {
	messages, err := b.store.ListMessages(ctx, chatID)
	if err != nil {
		return err
	}

	b.send(chatID, &Event{Kind: EventMessageList, ChatID: chatID, Messages: messages})
	return nil
}

func (b *Broadcaster) send(chatID string, event *Event) {
	b.mu.Lock()
	sessions := make([]*Session, 0, len(b.subs[chatID]))
	for s := range b.subs[chatID] {
		sessions = append(sessions, s)
	}
	b.mu.Unlock()

	for _, s := range sessions {
		s.deliver(event)
	}
}
