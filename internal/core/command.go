package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinChat binds the connection to a room, creating it if needed.
	CommandJoinChat CommandKind = iota
	// CommandAddMessage appends a message to a room's history.
	CommandAddMessage
	// CommandRemoveMessage deletes a message by id.
	CommandRemoveMessage
	// CommandLeaveChat marks the user offline without dropping membership.
	CommandLeaveChat
)

// Command represents an action requested by a client. Fields are populated
// depending on the kind.
type Command struct {
	Kind      CommandKind
	Token     string
	ChatID    string
	ChatName  string
	UserID    int64
	MessageID int64
	Text      string
}
