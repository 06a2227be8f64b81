package store

import (
	"context"
	"time"
)

// User represents an account in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsGuest      bool
	SessionID    string // guest session tracking
	CreatedAt    time.Time
}

// RoomUser is a room membership record. The display color is assigned once,
// when the user first joins the room, and survives reconnects. Online status
// is never stored; it is derived from the presence registry at read time.
type RoomUser struct {
	UserID   int64
	UserName string
	Color    string
}

// Room is a named chat room keyed by a client-supplied chat id.
type Room struct {
	ChatID    string
	Name      string
	Users     []RoomUser // join order, at most one record per user id
	CreatedAt time.Time
}

// Message is a persisted chat message. Immutable once created except for
// deletion by id; id order is creation order.
type Message struct {
	ID         int64
	ChatID     string
	UserID     int64
	SenderName string
	Color      string
	Body       string
	CreatedAt  time.Time
}

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// CreateGuestUser creates a temporary guest user with session ID.
	CreateGuestUser(ctx context.Context, sessionID string) (*User, error)

	// GetUserByID retrieves a user by ID. Returns (nil, nil) when absent.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username. Returns (nil, nil) when absent.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// RoomStore handles room and membership persistence.
type RoomStore interface {
	// GetOrCreateRoom returns the room with the given chat id, creating it
	// with the given name if absent. The create must be atomic so that
	// concurrent joins to a new chat id never produce two rooms; the name is
	// only applied on creation.
	GetOrCreateRoom(ctx context.Context, chatID, name string) (*Room, error)

	// GetRoom retrieves a room with its members. Returns (nil, nil) when absent.
	GetRoom(ctx context.Context, chatID string) (*Room, error)

	// AddRoomUser adds a membership record. Adding an existing (chat, user)
	// pair is a no-op; the stored record keeps its original color.
	AddRoomUser(ctx context.Context, chatID string, user RoomUser) error

	// GetRoomUser retrieves one membership record. Returns (nil, nil) when absent.
	GetRoomUser(ctx context.Context, chatID string, userID int64) (*RoomUser, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists a message and fills in its ID and CreatedAt.
	CreateMessage(ctx context.Context, msg *Message) error

	// DeleteMessage removes a message by id. Deleting an absent id is a no-op.
	DeleteMessage(ctx context.Context, id int64) error

	// ListMessages returns all messages of a chat in creation order.
	ListMessages(ctx context.Context, chatID string) ([]Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
