package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin          = "chat:join"
	InboundTypeAddMessage    = "message:add"
	InboundTypeRemoveMessage = "message:remove"
	InboundTypeLeave         = "chat:leave"

	OutboundTypeUserList    = "users:list"
	OutboundTypeMessageList = "messages:list"
	OutboundTypeError       = "error"
)

// JoinData requests to join a chat, creating it by name if absent.
type JoinData struct {
	Token    string `json:"token"`
	ChatID   string `json:"chatId"`
	ChatName string `json:"chatName,omitempty"`
}

// AddMessageData appends a message to a chat.
type AddMessageData struct {
	UserID      int64  `json:"userId"`
	ChatID      string `json:"chatId"`
	MessageText string `json:"messageText"`
}

// RemoveMessageData deletes a message by id.
type RemoveMessageData struct {
	MessageID int64  `json:"messageId"`
	ChatID    string `json:"chatId"`
}

// LeaveData marks the user offline in a chat.
type LeaveData struct {
	Token  string `json:"token"`
	ChatID string `json:"chatId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// UserEntry is one member in a users:list snapshot.
type UserEntry struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
	Color    string `json:"color"`
	IsOnline bool   `json:"isOnline"`
}

// MessageEntry is one message in a messages:list snapshot.
type MessageEntry struct {
	ID          int64  `json:"id"`
	ChatID      string `json:"chatId"`
	MessageText string `json:"messageText"`
	UserID      int64  `json:"userId"`
	SenderName  string `json:"senderName"`
	Color       string `json:"color"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
