package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkazmin/chatcast-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// fakeStore is an in-memory ChatStore for protocol tests.
type fakeStore struct {
	mu       sync.Mutex
	rooms    map[string]*store.Room
	messages map[string][]store.Message
	users    map[int64]*store.User
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:    make(map[string]*store.Room),
		messages: make(map[string][]store.Message),
		users:    make(map[int64]*store.User),
	}
}

func (f *fakeStore) addUser(id int64, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = &store.User{ID: id, Username: name}
}

func (f *fakeStore) GetOrCreateRoom(_ context.Context, chatID, name string) (*store.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.rooms[chatID]; ok {
		return copyRoom(room), nil
	}
	room := &store.Room{ChatID: chatID, Name: name}
	f.rooms[chatID] = room
	return copyRoom(room), nil
}

func (f *fakeStore) GetRoom(_ context.Context, chatID string) (*store.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[chatID]
	if !ok {
		return nil, nil
	}
	return copyRoom(room), nil
}

func (f *fakeStore) AddRoomUser(_ context.Context, chatID string, user store.RoomUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[chatID]
	if !ok {
		return nil
	}
	for _, u := range room.Users {
		if u.UserID == user.UserID {
			return nil
		}
	}
	room.Users = append(room.Users, user)
	return nil
}

func (f *fakeStore) GetRoomUser(_ context.Context, chatID string, userID int64) (*store.RoomUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[chatID]
	if !ok {
		return nil, nil
	}
	for _, u := range room.Users {
		if u.UserID == userID {
			copied := u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateMessage(_ context.Context, msg *store.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg.ID = f.nextID
	msg.CreatedAt = time.Now()
	f.messages[msg.ChatID] = append(f.messages[msg.ChatID], *msg)
	return nil
}

func (f *fakeStore) DeleteMessage(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for chatID, msgs := range f.messages {
		for i, m := range msgs {
			if m.ID == id {
				f.messages[chatID] = append(msgs[:i], msgs[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (f *fakeStore) ListMessages(_ context.Context, chatID string) ([]store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Message(nil), f.messages[chatID]...), nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func copyRoom(room *store.Room) *store.Room {
	copied := *room
	copied.Users = append([]store.RoomUser(nil), room.Users...)
	return &copied
}

// fakeVerifier accepts tokens of the form registered in identities.
type fakeVerifier struct {
	identities map[string]UserIdentity
}

func (v *fakeVerifier) Verify(token string) (UserIdentity, error) {
	identity, ok := v.identities[token]
	if !ok {
		return UserIdentity{}, coreError(ErrCodeUnauthorized, "invalid token")
	}
	return identity, nil
}

type testEnv struct {
	store       *fakeStore
	verifier    *fakeVerifier
	presence    *Presence
	broadcaster *Broadcaster
	colors      *ColorAssigner
	log         *zerolog.Logger
}

func newTestEnv() *testEnv {
	logger := zerolog.Nop()
	presence := NewPresence()
	st := newFakeStore()
	return &testEnv{
		store:       st,
		verifier:    &fakeVerifier{identities: make(map[string]UserIdentity)},
		presence:    presence,
		broadcaster: NewBroadcaster(st, presence, &logger),
		colors:      NewColorAssigner(DefaultMaxLuminance),
		log:         &logger,
	}
}

func (e *testEnv) allow(token string, userID int64, username string) {
	e.verifier.identities[token] = UserIdentity{UserID: userID, Username: username}
}

func (e *testEnv) newSession(id string) *Session {
	return NewSession(id, e.store, e.verifier, e.presence, e.broadcaster, e.colors, e.log)
}
