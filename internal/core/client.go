package core

// Client is one live connection as seen by the core layer. Room and User
// are the connection's session state: both set while joined, both empty
// otherwise.
type Client struct {
	ID       string
	Room     string
	User     string
	Commands chan *Command
	Events   chan *Event

	// closed is flipped by the hub goroutine when the transport reports
	// the connection gone; commands still queued behind the disconnect
	// are dropped instead of resurrecting the session.
	closed bool
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 16),
	}
}

// InRoom reports whether the connection currently belongs to a room.
func (c *Client) InRoom() bool {
	return c.Room != "" && c.User != ""
}
