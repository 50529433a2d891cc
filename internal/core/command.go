package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom joins a room, creating it if needed.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom leaves whatever room the connection is in.
	CommandLeaveRoom
	// CommandSetCode overwrites the room's shared buffer.
	CommandSetCode
	// CommandTyping signals transient typing activity.
	CommandTyping
	// CommandSetLanguage changes the room's language tag.
	CommandSetLanguage
	// CommandRunCode submits the buffer to the execution service.
	CommandRunCode
)

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	Room     string
	User     string
	Code     string
	Language string
	Version  string
	Stdin    string
}
