package core

import "github.com/mkazmin/chatcast-server/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventUserList delivers the full decorated member list of a room.
	EventUserList EventKind = iota
	// EventMessageList delivers the full message history of a room.
	EventMessageList
	// EventError notifies a client about a domain error.
	EventError
)

// UserStatus is a room member decorated with presence at read time.
type UserStatus struct {
	UserID   int64
	UserName string
	Color    string
	IsOnline bool
}

// Event is sent to clients to describe the current room state. Snapshots are
// full lists, never incremental diffs.
type Event struct {
	Kind     EventKind
	ChatID   string
	Users    []UserStatus
	Messages []store.Message
	Error    *CoreError
}
