// Package proto defines the JSON wire protocol spoken over the
// WebSocket. Event names match what collaborating editors already
// listen for: codeUpdate, userJoined, userTyping, languageUpdate,
// codeResponse.
package proto

import (
	"encoding/json"

	"github.com/codepair/codepair-server/internal/runner"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin           = "join"
	InboundTypeLeaveRoom      = "leaveRoom"
	InboundTypeCodeChange     = "codeChange"
	InboundTypeTyping         = "typing"
	InboundTypeLanguageChange = "languageChange"
	InboundTypeCompileCode    = "compileCode"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventCodeUpdate     = "codeUpdate"
	EventUserJoined     = "userJoined"
	EventUserTyping     = "userTyping"
	EventLanguageUpdate = "languageUpdate"
	EventCodeResponse   = "codeResponse"
)

// JoinData requests to join a room under a display name.
type JoinData struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// CodeChangeData carries a full-buffer edit.
type CodeChangeData struct {
	Room string `json:"room"`
	Code string `json:"code"`
}

// TypingData signals that a user is typing.
type TypingData struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// LanguageChangeData changes the room's language tag.
type LanguageChangeData struct {
	Room     string `json:"room"`
	Language string `json:"language"`
}

// CompileCodeData submits the buffer for remote execution.
type CompileCodeData struct {
	Room     string `json:"room"`
	Code     string `json:"code"`
	Language string `json:"language"`
	Version  string `json:"version"`
	Stdin    string `json:"stdin"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventCodeUpdateData carries the room buffer: the seed on join and the
// fan-out of every edit.
type EventCodeUpdateData struct {
	Code string `json:"code"`
}

// EventUserJoinedData carries the room's full member list.
type EventUserJoinedData struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// EventUserTypingData reports a typing member. Receivers expire it on
// their own; the server sends no stop event.
type EventUserTypingData struct {
	User string `json:"user"`
}

// EventLanguageUpdateData carries the new language tag.
type EventLanguageUpdateData struct {
	Language string `json:"language"`
}

// EventCodeResponseData is the execution outcome. Failures use the same
// shape with the message in run.output.
type EventCodeResponseData = runner.ExecResponse

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
