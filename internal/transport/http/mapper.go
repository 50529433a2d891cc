package http

import (
	"encoding/json"

	"github.com/codepair/codepair-server/internal/core"
	"github.com/codepair/codepair-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.Room == "" || join.User == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room and user are required"}, nil
		}
		return &core.Command{
			Kind: core.CommandJoinRoom,
			Room: join.Room,
			User: join.User,
		}, nil, nil
	case proto.InboundTypeLeaveRoom:
		// Carries no payload; the hub uses the session state.
		return &core.Command{Kind: core.CommandLeaveRoom}, nil, nil
	case proto.InboundTypeCodeChange:
		var edit proto.CodeChangeData
		if err := json.Unmarshal(inbound.Data, &edit); err != nil {
			return nil, nil, err
		}
		if edit.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandSetCode,
			Room: edit.Room,
			Code: edit.Code,
		}, nil, nil
	case proto.InboundTypeTyping:
		var typing proto.TypingData
		if err := json.Unmarshal(inbound.Data, &typing); err != nil {
			return nil, nil, err
		}
		if typing.Room == "" || typing.User == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room and user are required"}, nil
		}
		return &core.Command{
			Kind: core.CommandTyping,
			Room: typing.Room,
			User: typing.User,
		}, nil, nil
	case proto.InboundTypeLanguageChange:
		var lang proto.LanguageChangeData
		if err := json.Unmarshal(inbound.Data, &lang); err != nil {
			return nil, nil, err
		}
		if lang.Room == "" || lang.Language == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room and language are required"}, nil
		}
		return &core.Command{
			Kind:     core.CommandSetLanguage,
			Room:     lang.Room,
			Language: lang.Language,
		}, nil, nil
	case proto.InboundTypeCompileCode:
		var run proto.CompileCodeData
		if err := json.Unmarshal(inbound.Data, &run); err != nil {
			return nil, nil, err
		}
		if run.Room == "" || run.Language == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room and language are required"}, nil
		}
		return &core.Command{
			Kind:     core.CommandRunCode,
			Room:     run.Room,
			Code:     run.Code,
			Language: run.Language,
			Version:  run.Version,
			Stdin:    run.Stdin,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventCodeUpdate:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventCodeUpdate,
			Data:  proto.EventCodeUpdateData{Code: event.Code},
		}
	case core.EventUserJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserJoined,
			Data: proto.EventUserJoinedData{
				Room:  event.Room,
				Users: event.Users,
			},
		}
	case core.EventUserTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserTyping,
			Data:  proto.EventUserTypingData{User: event.User},
		}
	case core.EventLanguageUpdate:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventLanguageUpdate,
			Data:  proto.EventLanguageUpdateData{Language: event.Language},
		}
	case core.EventRunResult:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventCodeResponse,
			Data:  event.Result,
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
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
