package core

import "github.com/codepair/codepair-server/internal/runner"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventCodeUpdate carries the room's buffer: the unicast seed on join
	// and the fan-out of every edit.
	EventCodeUpdate EventKind = iota
	// EventUserJoined carries the room's full member list after any
	// membership change, joins and leaves alike.
	EventUserJoined
	// EventUserTyping reports that a member is typing. Nothing is stored;
	// expiry is up to the receiver.
	EventUserTyping
	// EventLanguageUpdate carries the room's new language tag.
	EventLanguageUpdate
	// EventRunResult carries the structured outcome of an execution
	// request, synthesized failures included.
	EventRunResult
	// EventError notifies a client about a protocol-level error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	User     string
	Code     string
	Language string
	Users    []string
	Result   *runner.ExecResponse
	Error    *CoreError
}
