package http

import (
	"encoding/json"
	"testing"

	"github.com/mkazmin/chatcast-server/internal/core"
	"github.com/mkazmin/chatcast-server/internal/proto"
	"github.com/mkazmin/chatcast-server/internal/store"
)

func TestInboundToCommandJoin(t *testing.T) {
	payload, _ := json.Marshal(proto.JoinData{Token: "tok", ChatID: "r1", ChatName: "Room1"})
	cmd, protoErr, err := inboundToCommand(proto.Inbound{Type: proto.InboundTypeJoin, Data: payload})
	if err != nil || protoErr != nil {
		t.Fatalf("unexpected errors: %v %v", err, protoErr)
	}
	if cmd.Kind != core.CommandJoinChat || cmd.Token != "tok" || cmd.ChatID != "r1" || cmd.ChatName != "Room1" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}

func TestInboundToCommandValidation(t *testing.T) {
	tests := []struct {
		name    string
		inbound proto.Inbound
		code    string
	}{
		{
			name:    "join without token",
			inbound: mustInbound(t, proto.InboundTypeJoin, proto.JoinData{ChatID: "r1"}),
			code:    core.ErrCodeBadRequest,
		},
		{
			name:    "join without chat id",
			inbound: mustInbound(t, proto.InboundTypeJoin, proto.JoinData{Token: "tok"}),
			code:    core.ErrCodeBadRequest,
		},
		{
			name:    "add message without chat id",
			inbound: mustInbound(t, proto.InboundTypeAddMessage, proto.AddMessageData{UserID: 1, MessageText: "hi"}),
			code:    core.ErrCodeBadRequest,
		},
		{
			name:    "remove message without chat id",
			inbound: mustInbound(t, proto.InboundTypeRemoveMessage, proto.RemoveMessageData{MessageID: 1}),
			code:    core.ErrCodeBadRequest,
		},
		{
			name:    "leave without token",
			inbound: mustInbound(t, proto.InboundTypeLeave, proto.LeaveData{ChatID: "r1"}),
			code:    core.ErrCodeBadRequest,
		},
		{
			name:    "unknown type",
			inbound: proto.Inbound{Type: "chat:unknown"},
			code:    "invalid_message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, protoErr, err := inboundToCommand(tt.inbound)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd != nil {
				t.Fatalf("expected no command, got %+v", cmd)
			}
			if protoErr == nil || protoErr.Code != tt.code {
				t.Fatalf("expected %q error, got %+v", tt.code, protoErr)
			}
		})
	}
}

func TestOutboundFromUserListEvent(t *testing.T) {
	out := outboundFromEvent(&core.Event{
		Kind:   core.EventUserList,
		ChatID: "r1",
		Users: []core.UserStatus{
			{UserID: 1, UserName: "alice", Color: "rgb(200, 10, 10)", IsOnline: true},
			{UserID: 2, UserName: "bob", Color: "rgb(10, 200, 10)", IsOnline: false},
		},
	})

	if out.Type != proto.OutboundTypeUserList {
		t.Fatalf("unexpected type: %s", out.Type)
	}
	users, ok := out.Data.([]proto.UserEntry)
	if !ok {
		t.Fatalf("unexpected data type: %T", out.Data)
	}
	if len(users) != 2 || users[0].UserName != "alice" || !users[0].IsOnline || users[1].IsOnline {
		t.Fatalf("unexpected entries: %+v", users)
	}
}

func TestOutboundFromMessageListEvent(t *testing.T) {
	out := outboundFromEvent(&core.Event{
		Kind:   core.EventMessageList,
		ChatID: "r1",
		Messages: []store.Message{
			{ID: 7, ChatID: "r1", UserID: 1, SenderName: "alice", Color: "rgb(1, 2, 3)", Body: "hi"},
		},
	})

	if out.Type != proto.OutboundTypeMessageList {
		t.Fatalf("unexpected type: %s", out.Type)
	}
	messages, ok := out.Data.([]proto.MessageEntry)
	if !ok {
		t.Fatalf("unexpected data type: %T", out.Data)
	}
	if len(messages) != 1 || messages[0].ID != 7 || messages[0].MessageText != "hi" {
		t.Fatalf("unexpected entries: %+v", messages)
	}
}

func TestOutboundFromErrorEvent(t *testing.T) {
	out := outboundFromEvent(&core.Event{
		Kind:  core.EventError,
		Error: &core.CoreError{Code: core.ErrCodeUnauthorized, Message: "invalid token"},
	})

	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != core.ErrCodeUnauthorized {
		t.Fatalf("unexpected outbound: %+v", out)
	}
}

func mustInbound(t *testing.T, typ string, data any) proto.Inbound {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return proto.Inbound{Type: typ, Data: payload}
}
