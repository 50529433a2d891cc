package http

import (
	"encoding/json"
	"testing"

	"github.com/codepair/codepair-server/internal/core"
	"github.com/codepair/codepair-server/internal/proto"
)

func inbound(t *testing.T, msgType string, data any) proto.Inbound {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return proto.Inbound{Type: msgType, Data: payload}
}

func TestInboundToCommand(t *testing.T) {
	cmd, protoErr, err := inboundToCommand(inbound(t, proto.InboundTypeJoin, proto.JoinData{Room: "abc", User: "alice"}))
	if err != nil || protoErr != nil {
		t.Fatalf("unexpected error: %v %v", err, protoErr)
	}
	if cmd.Kind != core.CommandJoinRoom || cmd.Room != "abc" || cmd.User != "alice" {
		t.Fatalf("unexpected command: %+v", cmd)
	}

	cmd, protoErr, err = inboundToCommand(inbound(t, proto.InboundTypeCompileCode, proto.CompileCodeData{
		Room: "abc", Code: "x", Language: "python", Version: "*", Stdin: "in",
	}))
	if err != nil || protoErr != nil {
		t.Fatalf("unexpected error: %v %v", err, protoErr)
	}
	if cmd.Kind != core.CommandRunCode || cmd.Stdin != "in" || cmd.Version != "*" {
		t.Fatalf("unexpected command: %+v", cmd)
	}

	cmd, protoErr, err = inboundToCommand(proto.Inbound{Type: proto.InboundTypeLeaveRoom})
	if err != nil || protoErr != nil {
		t.Fatalf("unexpected error: %v %v", err, protoErr)
	}
	if cmd.Kind != core.CommandLeaveRoom {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}

func TestInboundValidation(t *testing.T) {
	cases := []struct {
		name string
		in   proto.Inbound
		code string
	}{
		{"join without user", inbound(t, proto.InboundTypeJoin, proto.JoinData{Room: "abc"}), core.ErrCodeBadRequest},
		{"edit without room", inbound(t, proto.InboundTypeCodeChange, proto.CodeChangeData{Code: "x"}), core.ErrCodeBadRequest},
		{"typing without user", inbound(t, proto.InboundTypeTyping, proto.TypingData{Room: "abc"}), core.ErrCodeBadRequest},
		{"language without tag", inbound(t, proto.InboundTypeLanguageChange, proto.LanguageChangeData{Room: "abc"}), core.ErrCodeBadRequest},
		{"run without language", inbound(t, proto.InboundTypeCompileCode, proto.CompileCodeData{Room: "abc"}), core.ErrCodeBadRequest},
		{"unknown type", inbound(t, "bogus", struct{}{}), core.ErrCodeInvalidMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, protoErr, err := inboundToCommand(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd != nil {
				t.Fatalf("command should not be produced: %+v", cmd)
			}
			if protoErr == nil || protoErr.Code != tc.code {
				t.Fatalf("expected %s, got %+v", tc.code, protoErr)
			}
		})
	}
}

func TestOutboundFromEvent(t *testing.T) {
	out := outboundFromEvent(&core.Event{Kind: core.EventUserJoined, Room: "abc", Users: []string{"alice", "bob"}})
	if out.Type != proto.OutboundTypeEvent || out.Event != proto.EventUserJoined {
		t.Fatalf("unexpected outbound: %+v", out)
	}
	data, ok := out.Data.(proto.EventUserJoinedData)
	if !ok || len(data.Users) != 2 {
		t.Fatalf("unexpected data: %+v", out.Data)
	}

	out = outboundFromEvent(&core.Event{Kind: core.EventError, Error: &core.CoreError{Code: "bad_request", Message: "nope"}})
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Msg != "nope" {
		t.Fatalf("unexpected outbound: %+v", out)
	}
}
