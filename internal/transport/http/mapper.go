package http

import (
	"encoding/json"

	"github.com/mkazmin/chatcast-server/internal/core"
	"github.com/mkazmin/chatcast-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.Token == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "token is required"}, nil
		}
		if join.ChatID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId is required"}, nil
		}
		return &core.Command{
			Kind:     core.CommandJoinChat,
			Token:    join.Token,
			ChatID:   join.ChatID,
			ChatName: join.ChatName,
		}, nil, nil
	case proto.InboundTypeAddMessage:
		var add proto.AddMessageData
		if err := json.Unmarshal(inbound.Data, &add); err != nil {
			return nil, nil, err
		}
		if add.ChatID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandAddMessage,
			UserID: add.UserID,
			ChatID: add.ChatID,
			Text:   add.MessageText,
		}, nil, nil
	case proto.InboundTypeRemoveMessage:
		var remove proto.RemoveMessageData
		if err := json.Unmarshal(inbound.Data, &remove); err != nil {
			return nil, nil, err
		}
		if remove.ChatID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId is required"}, nil
		}
		return &core.Command{
			Kind:      core.CommandRemoveMessage,
			MessageID: remove.MessageID,
			ChatID:    remove.ChatID,
		}, nil, nil
	case proto.InboundTypeLeave:
		var leave proto.LeaveData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, nil, err
		}
		if leave.Token == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "token is required"}, nil
		}
		if leave.ChatID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandLeaveChat,
			Token:  leave.Token,
			ChatID: leave.ChatID,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventUserList:
		users := make([]proto.UserEntry, 0, len(event.Users))
		for _, u := range event.Users {
			users = append(users, proto.UserEntry{
				UserID:   u.UserID,
				UserName: u.UserName,
				Color:    u.Color,
				IsOnline: u.IsOnline,
			})
		}
		return proto.Outbound{
			Type: proto.OutboundTypeUserList,
			Data: users,
		}
	case core.EventMessageList:
		messages := make([]proto.MessageEntry, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, proto.MessageEntry{
				ID:          msg.ID,
				ChatID:      msg.ChatID,
				MessageText: msg.Body,
				UserID:      msg.UserID,
				SenderName:  msg.SenderName,
				Color:       msg.Color,
			})
		}
		return proto.Outbound{
			Type: proto.OutboundTypeMessageList,
			Data: messages,
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
}
